// Package memory implements storage.Store over in-process maps, guarded by
// a single RWMutex the way the teacher's reference in-memory store does —
// one lock for the whole table set rather than one per table, since writes
// here are never the bottleneck and a single lock makes Atomic trivial to
// reason about.
package memory

import (
	"context"
	"sync"

	"github.com/nexum-core/nexum/pkg/storage"
)

// Store is an in-memory storage.Store, suitable for tests and local
// development. It is not durable.
type Store struct {
	mu     sync.RWMutex
	tables map[string]map[string]map[string]interface{}
}

var _ storage.Store = (*Store)(nil)

// New returns an empty in-memory store.
func New() *Store {
	return &Store{tables: make(map[string]map[string]map[string]interface{})}
}

func cloneRecord(r map[string]interface{}) map[string]interface{} {
	if r == nil {
		return nil
	}
	out := make(map[string]interface{}, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func (s *Store) table(name string) map[string]map[string]interface{} {
	t, ok := s.tables[name]
	if !ok {
		t = make(map[string]map[string]interface{})
		s.tables[name] = t
	}
	return t
}

func (s *Store) Save(ctx context.Context, table, id string, record map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table(table)[id] = cloneRecord(record)
	return nil
}

func (s *Store) Load(ctx context.Context, table, id string) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.table(table)[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (s *Store) LoadAll(ctx context.Context, table string) ([]map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := s.table(table)
	out := make([]map[string]interface{}, 0, len(t))
	for _, rec := range t {
		out = append(out, cloneRecord(rec))
	}
	return out, nil
}

func matches(record map[string]interface{}, filter storage.Filter) bool {
	for k, want := range filter {
		if got, ok := record[k]; !ok || got != want {
			return false
		}
	}
	return true
}

func (s *Store) Find(ctx context.Context, table string, filter storage.Filter) ([]map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t := s.table(table)
	out := make([]map[string]interface{}, 0)
	for _, rec := range t {
		if matches(rec, filter) {
			out = append(out, cloneRecord(rec))
		}
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, table, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.table(table)
	if _, ok := t[id]; !ok {
		return false, nil
	}
	delete(t, id)
	return true, nil
}

// Atomic holds s.mu for its entire duration — snapshot, fn, and commit
// all happen in one critical section, so two concurrent Atomic calls
// can never interleave and silently discard one another's commits. fn
// runs against a scope backed by a private copy of every table; on
// success the copy replaces the live tables before the lock is
// released, on failure the live tables are untouched. scope has its
// own mutex (it is never reachable from outside this call), so fn's
// writes through it do not reacquire s.mu.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, scope storage.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[string]map[string]map[string]interface{}, len(s.tables))
	for name, t := range s.tables {
		inner := make(map[string]map[string]interface{}, len(t))
		for id, rec := range t {
			inner[id] = cloneRecord(rec)
		}
		snapshot[name] = inner
	}

	scope := &Store{tables: snapshot}
	if err := fn(ctx, scope); err != nil {
		return err
	}

	s.tables = scope.tables
	return nil
}

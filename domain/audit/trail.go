package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	nexumerrors "github.com/nexum-core/nexum/infrastructure/errors"
	"github.com/nexum-core/nexum/pkg/storage"
)

const genesisHash = "genesis"

// Trail is the append-only hash-chained audit log. Appends are serialized
// under a single mutex so the hash chain has a well-defined total order —
// the same "one lock, simple reasoning" choice the dispatcher and bus make.
type Trail struct {
	store storage.Store
	mu    sync.Mutex
	seq   int64
	last  string
}

// New constructs a Trail, replaying storage to find the chain's tip so the
// chain is durable across restarts.
func New(ctx context.Context, store storage.Store) (*Trail, error) {
	t := &Trail{store: store, last: genesisHash}
	events, err := t.all(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Timestamp.Before(events[j].Timestamp) })
	if len(events) > 0 {
		t.last = events[len(events)-1].Hash
		t.seq = int64(len(events))
	}
	return t, nil
}

// Record appends a new event to the chain.
func (t *Trail) Record(ctx context.Context, eventType EventType, entityType, entityID, actor string, metadata map[string]interface{}) (Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	e := Event{
		ID:           uuid.NewString(),
		EventType:    eventType,
		EntityType:   entityType,
		EntityID:     entityID,
		Timestamp:    time.Now().UTC(),
		Actor:        actor,
		Metadata:     metadata,
		PreviousHash: t.last,
	}
	e.Hash = hashEvent(e)

	if err := t.save(ctx, e); err != nil {
		return Event{}, err
	}
	t.last = e.Hash
	return e, nil
}

func hashEvent(e Event) string {
	meta, _ := json.Marshal(e.Metadata)
	h := sha256.New()
	h.Write([]byte(e.ID))
	h.Write([]byte(e.EventType))
	h.Write([]byte(e.EntityType))
	h.Write([]byte(e.EntityID))
	h.Write([]byte(e.Timestamp.Format(time.RFC3339Nano)))
	h.Write([]byte(e.Actor))
	h.Write(meta)
	h.Write([]byte(e.PreviousHash))
	return hex.EncodeToString(h.Sum(nil))
}

func (t *Trail) save(ctx context.Context, e Event) error {
	record := map[string]interface{}{
		"id":            e.ID,
		"event_type":    string(e.EventType),
		"entity_type":   e.EntityType,
		"entity_id":     e.EntityID,
		"timestamp":     e.Timestamp,
		"actor":         e.Actor,
		"metadata":      e.Metadata,
		"hash":          e.Hash,
		"previous_hash": e.PreviousHash,
	}
	if err := t.store.Save(ctx, storage.TableAuditEvents, e.ID, record); err != nil {
		return nexumerrors.StorageUnavailable(err)
	}
	return nil
}

func eventFromRecord(rec map[string]interface{}) Event {
	e := Event{
		ID:           asString(rec["id"]),
		EventType:    EventType(asString(rec["event_type"])),
		EntityType:   asString(rec["entity_type"]),
		EntityID:     asString(rec["entity_id"]),
		Actor:        asString(rec["actor"]),
		Hash:         asString(rec["hash"]),
		PreviousHash: asString(rec["previous_hash"]),
	}
	if t, ok := rec["timestamp"].(time.Time); ok {
		e.Timestamp = t
	}
	if m, ok := rec["metadata"].(map[string]interface{}); ok {
		e.Metadata = m
	}
	return e
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func (t *Trail) all(ctx context.Context) ([]Event, error) {
	recs, err := t.store.LoadAll(ctx, storage.TableAuditEvents)
	if err != nil {
		return nil, nexumerrors.StorageUnavailable(err)
	}
	events := make([]Event, 0, len(recs))
	for _, rec := range recs {
		events = append(events, eventFromRecord(rec))
	}
	return events, nil
}

// Read returns every event matching filter, in chronological order,
// without mutating the trail.
func (t *Trail) Read(ctx context.Context, filter Filter) ([]Event, error) {
	events, err := t.all(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Timestamp.Before(events[j].Timestamp) })
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if filter.matches(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

// VerifyChain walks every persisted event in order and returns true iff no
// link is broken or reordered. O(n) in the number of events.
func (t *Trail) VerifyChain(ctx context.Context) (bool, error) {
	events, err := t.all(ctx)
	if err != nil {
		return false, err
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Timestamp.Before(events[j].Timestamp) })

	prev := genesisHash
	for _, e := range events {
		if e.PreviousHash != prev {
			return false, nil
		}
		if hashEvent(e) != e.Hash {
			return false, nil
		}
		prev = e.Hash
	}
	return true, nil
}

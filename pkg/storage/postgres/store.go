package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/nexum-core/nexum/pkg/storage"
)

// Store is a Postgres-backed storage.Store. Every logical table named in
// the persisted-state contract (transactions, journal_entries, accounts,
// ...) maps to a physical table of the same name with the fixed shape
// (id TEXT PRIMARY KEY, data JSONB NOT NULL, updated_at TIMESTAMPTZ) —
// one schema for every table, so adding a new logical table needs no
// migration, matching the "row-oriented key/value surface" the storage
// design calls for.
type Store struct {
	db *sqlx.DB
}

var _ storage.Store = (*Store)(nil)

// Open connects to Postgres and wraps it as a storage.Store.
func Open(dataSourceName string) (*Store, error) {
	db, err := sqlx.Connect("postgres", dataSourceName)
	if err != nil {
		return nil, storageUnavailable(err)
	}
	return &Store{db: db}, nil
}

// NewWithDB wraps an already-open sqlx connection.
func NewWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func storageUnavailable(err error) error {
	return &storageError{err: err}
}

type storageError struct{ err error }

func (e *storageError) Error() string { return fmt.Sprintf("storage: %v", e.err) }
func (e *storageError) Unwrap() error { return e.err }

type txKey struct{}

func txFromContext(ctx context.Context) *sqlx.Tx {
	tx, _ := ctx.Value(txKey{}).(*sqlx.Tx)
	return tx
}

func (s *Store) querier(ctx context.Context) sqlx.ExtContext {
	if tx := txFromContext(ctx); tx != nil {
		return tx
	}
	return s.db
}

func (s *Store) ensureTable(ctx context.Context, q sqlx.ExtContext, table string) error {
	_, err := q.ExecContext(ctx, fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			data JSONB NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, quoteIdent(table)))
	return err
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}

func (s *Store) Save(ctx context.Context, table, id string, record map[string]interface{}) error {
	q := s.querier(ctx)
	if err := s.ensureTable(ctx, q, table); err != nil {
		return storageUnavailable(err)
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	_, err = q.ExecContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (id, data, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		quoteIdent(table)), id, data)
	if err != nil {
		return storageUnavailable(err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, table, id string) (map[string]interface{}, error) {
	q := s.querier(ctx)
	if err := s.ensureTable(ctx, q, table); err != nil {
		return nil, storageUnavailable(err)
	}
	var data []byte
	row := q.QueryRowxContext(ctx, fmt.Sprintf(`SELECT data FROM %s WHERE id = $1`, quoteIdent(table)), id)
	if err := row.Scan(&data); err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, storageUnavailable(err)
	}
	var record map[string]interface{}
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return record, nil
}

func (s *Store) scanRows(rows *sqlx.Rows) ([]map[string]interface{}, error) {
	defer rows.Close()
	out := make([]map[string]interface{}, 0)
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var record map[string]interface{}
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func (s *Store) LoadAll(ctx context.Context, table string) ([]map[string]interface{}, error) {
	q := s.querier(ctx)
	if err := s.ensureTable(ctx, q, table); err != nil {
		return nil, storageUnavailable(err)
	}
	rows, err := q.QueryxContext(ctx, fmt.Sprintf(`SELECT data FROM %s`, quoteIdent(table)))
	if err != nil {
		return nil, storageUnavailable(err)
	}
	records, err := s.scanRows(rows)
	if err != nil {
		return nil, storageUnavailable(err)
	}
	return records, nil
}

// Find filters client-side on the loaded rows. Table sizes in this core
// (accounts, users, transactions for a single institution) do not justify
// per-field JSONB indexing; a future index can replace this with a real
// WHERE clause on data->>'field' without changing the Store interface.
func (s *Store) Find(ctx context.Context, table string, filter storage.Filter) ([]map[string]interface{}, error) {
	all, err := s.LoadAll(ctx, table)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]interface{}, 0, len(all))
	for _, rec := range all {
		match := true
		for k, want := range filter {
			if got, ok := rec[k]; !ok || fmt.Sprint(got) != fmt.Sprint(want) {
				match = false
				break
			}
		}
		if match {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, table, id string) (bool, error) {
	q := s.querier(ctx)
	if err := s.ensureTable(ctx, q, table); err != nil {
		return false, storageUnavailable(err)
	}
	res, err := q.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, quoteIdent(table)), id)
	if err != nil {
		return false, storageUnavailable(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageUnavailable(err)
	}
	return n > 0, nil
}

// Atomic runs fn inside a single SQL transaction, committing on a nil
// return and rolling back otherwise.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context, scope storage.Store) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storageUnavailable(err)
	}
	scopedCtx := context.WithValue(ctx, txKey{}, tx)
	if err := fn(scopedCtx, s); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return storageUnavailable(err)
	}
	return nil
}

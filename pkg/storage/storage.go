// Package storage defines the row-oriented key/value surface every
// persisted table in the core is read and written through: transactions,
// journal entries and lines, accounts, audit events, roles, users, and
// sessions all go through the same Store contract, so the ledger, the
// access-control kernel, and the transaction processor can be tested
// against an in-memory Store and deployed against the Postgres one
// without any change to their own code.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Load when no record exists under the given id.
var ErrNotFound = errors.New("storage: record not found")

// Filter selects records within a table by equality on a set of fields.
// An empty Filter matches every record.
type Filter map[string]interface{}

// Store is the row-oriented surface every table is accessed through.
// Implementations must be safe for concurrent use.
type Store interface {
	Save(ctx context.Context, table, id string, record map[string]interface{}) error
	Load(ctx context.Context, table, id string) (map[string]interface{}, error)
	LoadAll(ctx context.Context, table string) ([]map[string]interface{}, error)
	Find(ctx context.Context, table string, filter Filter) ([]map[string]interface{}, error)
	Delete(ctx context.Context, table, id string) (bool, error)

	// Atomic runs fn against a scoped Store whose writes are committed
	// together on a nil return and discarded entirely otherwise. fn must
	// not retain the scoped Store past its own return.
	Atomic(ctx context.Context, fn func(ctx context.Context, scope Store) error) error
}

// Table names for the tables named in the persisted-state contract.
const (
	TableTransactions       = "transactions"
	TableJournalEntries     = "journal_entries"
	TableJournalEntryLines  = "journal_entry_lines"
	TableAccounts           = "accounts"
	TableCustomers          = "customers"
	TableAuditEvents        = "audit_events"
	TableRoles              = "roles"
	TableUsers              = "users"
	TableSessions           = "sessions"
	TableNotifications      = "notifications"
	TableWorkflows          = "workflows"
)

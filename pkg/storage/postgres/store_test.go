package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/nexum-core/nexum/pkg/storage"
)

// newMockStore exercises the Postgres storage layer's exact SQL without
// a live database, per the sqlmock pattern used elsewhere in the corpus
// for this driver pairing (sqlx + lib/pq).
func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewWithDB(sqlx.NewDb(db, "postgres")), mock
}

func TestSaveUpsertsRow(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "accounts"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO "accounts"`)).
		WithArgs("acct-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.Save(context.Background(), "accounts", "acct-1", map[string]interface{}{"balance": "100.00"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadReturnsNotFoundOnNoRows(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "accounts"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT data FROM "accounts" WHERE id = $1`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.Load(context.Background(), "accounts", "missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadDecodesStoredJSON(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "accounts"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	rows := sqlmock.NewRows([]string{"data"}).AddRow([]byte(`{"balance":"250.00"}`))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT data FROM "accounts" WHERE id = $1`)).
		WithArgs("acct-1").
		WillReturnRows(rows)

	rec, err := s.Load(context.Background(), "accounts", "acct-1")
	require.NoError(t, err)
	require.Equal(t, "250.00", rec["balance"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadAllScansEveryRow(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "accounts"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	rows := sqlmock.NewRows([]string{"data"}).
		AddRow([]byte(`{"id":"a"}`)).
		AddRow([]byte(`{"id":"b"}`))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT data FROM "accounts"`)).WillReturnRows(rows)

	recs, err := s.LoadAll(context.Background(), "accounts")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteReportsWhetherARowWasRemoved(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS "accounts"`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "accounts" WHERE id = $1`)).
		WithArgs("acct-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	removed, err := s.Delete(context.Background(), "accounts", "acct-1")
	require.NoError(t, err)
	require.True(t, removed)
	require.NoError(t, mock.ExpectationsWereMet())
}

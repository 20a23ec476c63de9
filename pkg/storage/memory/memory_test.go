package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nexum-core/nexum/pkg/storage"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.Save(ctx, "accounts", "acct-1", map[string]interface{}{"owner": "alice"})
	require.NoError(t, err)

	rec, err := s.Load(ctx, "accounts", "acct-1")
	require.NoError(t, err)
	require.Equal(t, "alice", rec["owner"])
}

func TestLoadMissingReturnsErrNotFound(t *testing.T) {
	s := New()
	_, err := s.Load(context.Background(), "accounts", "missing")
	require.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestLoadedRecordIsACopy(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "accounts", "acct-1", map[string]interface{}{"owner": "alice"}))

	rec, err := s.Load(ctx, "accounts", "acct-1")
	require.NoError(t, err)
	rec["owner"] = "mutated"

	rec2, err := s.Load(ctx, "accounts", "acct-1")
	require.NoError(t, err)
	require.Equal(t, "alice", rec2["owner"])
}

func TestFindFiltersByEquality(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "accounts", "a1", map[string]interface{}{"owner": "alice", "status": "open"}))
	require.NoError(t, s.Save(ctx, "accounts", "a2", map[string]interface{}{"owner": "bob", "status": "closed"}))

	open, err := s.Find(ctx, "accounts", storage.Filter{"status": "open"})
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.Equal(t, "alice", open[0]["owner"])
}

func TestDeleteReportsWhetherARowExisted(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "accounts", "a1", map[string]interface{}{}))

	removed, err := s.Delete(ctx, "accounts", "a1")
	require.NoError(t, err)
	require.True(t, removed)

	removed, err = s.Delete(ctx, "accounts", "a1")
	require.NoError(t, err)
	require.False(t, removed)
}

func TestAtomicRollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "accounts", "a1", map[string]interface{}{"balance": "100"}))

	boom := errors.New("boom")
	err := s.Atomic(ctx, func(ctx context.Context, scope storage.Store) error {
		if err := scope.Save(ctx, "accounts", "a1", map[string]interface{}{"balance": "0"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	rec, err := s.Load(ctx, "accounts", "a1")
	require.NoError(t, err)
	require.Equal(t, "100", rec["balance"])
}

func TestAtomicCommitsOnSuccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "accounts", "a1", map[string]interface{}{"balance": "100"}))

	err := s.Atomic(ctx, func(ctx context.Context, scope storage.Store) error {
		return scope.Save(ctx, "accounts", "a1", map[string]interface{}{"balance": "50"})
	})
	require.NoError(t, err)

	rec, err := s.Load(ctx, "accounts", "a1")
	require.NoError(t, err)
	require.Equal(t, "50", rec["balance"])
}

package audit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nexum-core/nexum/pkg/storage/memory"
)

func TestRecordChainsEachEventToThePrevious(t *testing.T) {
	ctx := context.Background()
	trail, err := New(ctx, memory.New())
	require.NoError(t, err)

	first, err := trail.Record(ctx, EventUserCreated, "user", "u1", "admin", nil)
	require.NoError(t, err)
	require.Equal(t, genesisHash, first.PreviousHash)

	second, err := trail.Record(ctx, EventAuthSuccess, "user", "u1", "u1", nil)
	require.NoError(t, err)
	require.Equal(t, first.Hash, second.PreviousHash)

	ok, err := trail.VerifyChain(ctx)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestNewReplaysExistingChainTip(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	trail, err := New(ctx, store)
	require.NoError(t, err)
	_, err = trail.Record(ctx, EventUserCreated, "user", "u1", "admin", nil)
	require.NoError(t, err)
	last, err := trail.Record(ctx, EventAuthSuccess, "user", "u1", "u1", nil)
	require.NoError(t, err)

	reopened, err := New(ctx, store)
	require.NoError(t, err)
	third, err := reopened.Record(ctx, EventSessionIssued, "user", "u1", "u1", nil)
	require.NoError(t, err)
	require.Equal(t, last.Hash, third.PreviousHash)
}

func TestVerifyChainDetectsTamperedEvent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	trail, err := New(ctx, store)
	require.NoError(t, err)

	e, err := trail.Record(ctx, EventUserCreated, "user", "u1", "admin", nil)
	require.NoError(t, err)

	rec, err := store.Load(ctx, "audit_events", e.ID)
	require.NoError(t, err)
	rec["actor"] = "attacker"
	require.NoError(t, store.Save(ctx, "audit_events", e.ID, rec))

	ok, err := trail.VerifyChain(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestReadFiltersByEventType(t *testing.T) {
	ctx := context.Background()
	trail, err := New(ctx, memory.New())
	require.NoError(t, err)

	_, err = trail.Record(ctx, EventUserCreated, "user", "u1", "admin", nil)
	require.NoError(t, err)
	_, err = trail.Record(ctx, EventAuthFailure, "user", "u1", "u1", nil)
	require.NoError(t, err)

	want := EventAuthFailure
	events, err := trail.Read(ctx, Filter{EventType: &want})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, EventAuthFailure, events[0].EventType)
}

package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversToMatchingHandlerOnly(t *testing.T) {
	d := New(nil)
	var gotTx, gotCatchAll int

	d.Subscribe("tx-handler", HandlerFunc(func(ctx context.Context, e DomainEvent) error {
		gotTx++
		return nil
	}), KindTransactionPosted)
	d.Subscribe("catch-all", HandlerFunc(func(ctx context.Context, e DomainEvent) error {
		gotCatchAll++
		return nil
	}))

	d.Publish(context.Background(), DomainEvent{Kind: KindTransactionPosted, EntityID: "txn-1"})
	d.Publish(context.Background(), DomainEvent{Kind: KindAccountCreated, EntityID: "acct-1"})

	require.Equal(t, 1, gotTx)
	require.Equal(t, 2, gotCatchAll)
}

func TestDispatcherIsolatesHandlerFailure(t *testing.T) {
	d := New(nil)
	var secondRan bool

	d.Subscribe("failing", HandlerFunc(func(ctx context.Context, e DomainEvent) error {
		return errors.New("boom")
	}))
	d.Subscribe("second", HandlerFunc(func(ctx context.Context, e DomainEvent) error {
		secondRan = true
		return nil
	}))

	d.Publish(context.Background(), DomainEvent{Kind: KindTransactionCreated, EntityID: "txn-1"})

	require.True(t, secondRan)
	require.Equal(t, int64(1), d.Stats().Failed)
}

func TestDispatcherRecoversHandlerPanic(t *testing.T) {
	d := New(nil)
	d.Subscribe("panicky", HandlerFunc(func(ctx context.Context, e DomainEvent) error {
		panic("unexpected")
	}))

	require.NotPanics(t, func() {
		d.Publish(context.Background(), DomainEvent{Kind: KindTransactionCreated, EntityID: "txn-1"})
	})
	require.Equal(t, int64(1), d.Stats().Failed)
}

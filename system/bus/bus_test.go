package bus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu   sync.Mutex
	envs []Envelope
}

func (f *fakePublisher) Publish(_ context.Context, _ string, _ string, envelope Envelope) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.envs = append(f.envs, envelope)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.envs)
}

func TestBusPublishDeliversToPublisher(t *testing.T) {
	pub := &fakePublisher{}
	b := New(Config{Publisher: pub, WorkerCount: 1})
	require.NoError(t, b.Start(context.Background()))
	defer b.Stop()

	require.NoError(t, b.Publish("nexum.transactions.posted", "txn-1", Envelope{EventType: "TRANSACTION_POSTED", EntityID: "txn-1"}))

	require.Eventually(t, func() bool { return pub.count() == 1 }, time.Second, 10*time.Millisecond)
	require.Equal(t, int64(1), b.Stats().Published)
}

func TestBusLogOnlyWithNoPublisher(t *testing.T) {
	b := New(Config{WorkerCount: 1})
	require.NoError(t, b.Start(context.Background()))
	defer b.Stop()

	require.NoError(t, b.Publish("nexum.customers.kyc_changed", "cust-1", Envelope{EventType: "CUSTOMER_KYC_CHANGED"}))
	require.Eventually(t, func() bool { return b.Stats().Published == 1 }, time.Second, 10*time.Millisecond)
}

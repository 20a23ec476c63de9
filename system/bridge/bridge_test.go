package bridge

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nexum-core/nexum/domain/compliance"
	"github.com/nexum-core/nexum/pkg/storage"
	"github.com/nexum-core/nexum/pkg/storage/memory"
	"github.com/nexum-core/nexum/system/bus"
	"github.com/nexum-core/nexum/system/events"
)

type fakePublisher struct {
	mu   sync.Mutex
	envs []bus.Envelope
}

func (f *fakePublisher) Publish(_ context.Context, _ string, _ string, envelope bus.Envelope) error {
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

func TestBridgePublishesTransactionPostedEnvelope(t *testing.T) {
	pub := &fakePublisher{}
	b := bus.New(bus.Config{Publisher: pub, WorkerCount: 1})
	require.NoError(t, b.Start(context.Background()))
	defer b.Stop()

	dispatcher := events.New(nil)
	store := memory.New()
	br := New(dispatcher, b, store, compliance.AllowAllGate{}, nil)
	require.NoError(t, br.Start(context.Background()))

	dispatcher.Publish(context.Background(), events.DomainEvent{
		Kind: events.KindTransactionPosted, EntityID: "txn-1",
		Data: map[string]interface{}{"amount": "100.00"},
	})

	require.Eventually(t, func() bool { return pub.count() == 1 }, time.Second, 10*time.Millisecond)
	require.Equal(t, "transaction.processed", pub.envs[0].EventType)
	require.Equal(t, "txn-1", pub.envs[0].EntityID)
}

func TestOnFraudDecisionUpdatesTransactionMetadata(t *testing.T) {
	store := memory.New()
	require.NoError(t, store.Save(context.Background(), storage.TableTransactions, "txn-1", map[string]interface{}{"id": "txn-1"}))

	b := bus.New(bus.Config{WorkerCount: 1})
	dispatcher := events.New(nil)
	br := New(dispatcher, b, store, compliance.AllowAllGate{}, nil)

	err := br.onFraudDecision(context.Background(), bus.Envelope{
		Data: map[string]interface{}{"transaction_id": "txn-1", "decision": "BLOCK", "risk_level": "CRITICAL", "score": 0.9},
	})
	require.NoError(t, err)

	rec, err := store.Load(context.Background(), storage.TableTransactions, "txn-1")
	require.NoError(t, err)
	metadata := rec["metadata"].(map[string]interface{})
	require.Equal(t, "BLOCK", metadata["fraud_decision"])
}

// Package bus implements the EventBus abstraction that re-publishes
// DomainEvents onto named external topics and consumes external
// decision/alert topics back into the core, per spec §4.6/§6. Adapted
// from the teacher's system/events worker-pool/consumer-per-topic
// pattern (system/events/router.go): a bounded queue drained by a fixed
// worker pool, with the concrete broker swapped out behind a Publisher
// interface.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nexum-core/nexum/pkg/logger"
)

// Envelope is the external wire format every published event takes,
// per spec §6's envelope field list.
type Envelope struct {
	EventID       string                 `json:"event_id"`
	EventType     string                 `json:"event_type"`
	Timestamp     string                 `json:"timestamp"`
	Source        string                 `json:"source"`
	SchemaVersion string                 `json:"schema_version"`
	EntityType    string                 `json:"entity_type"`
	EntityID      string                 `json:"entity_id"`
	Data          map[string]interface{} `json:"data"`
	Metadata      map[string]interface{} `json:"metadata"`
}

// Publisher publishes a pre-built Envelope to topic, keyed by key to
// preserve per-entity ordering on a partitioned broker.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, envelope Envelope) error
	Close() error
}

// ConsumeHandler processes one envelope consumed from an external topic.
type ConsumeHandler func(ctx context.Context, envelope Envelope) error

// Consumer reads envelopes from a topic and dispatches them to a handler.
type Consumer interface {
	Consume(ctx context.Context, topic string, handler ConsumeHandler) error
	Close() error
}

// Bus is an EventBus: it publishes outbound envelopes through worker
// goroutines draining a bounded queue, and wires inbound topics to
// handlers via a Consumer. A nil Publisher/Consumer degrades to a
// log-only bus, useful for local development with no broker deployed.
type Bus struct {
	publisher   Publisher
	consumer    Consumer
	log         *logger.Logger
	queue       chan publishJob
	workerCount int

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	published int64
	dropped   int64
	failed    int64
}

type publishJob struct {
	topic string
	key   string
	env   Envelope
}

// Config configures a Bus.
type Config struct {
	Publisher   Publisher
	Consumer    Consumer
	QueueSize   int
	WorkerCount int
	Logger      *logger.Logger
}

// New constructs a Bus. Publisher/Consumer may be nil for a log-only bus.
func New(cfg Config) *Bus {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewDefault("bus")
	}
	return &Bus{
		publisher:   cfg.Publisher,
		consumer:    cfg.Consumer,
		log:         cfg.Logger,
		queue:       make(chan publishJob, cfg.QueueSize),
		workerCount: cfg.WorkerCount,
	}
}

// Start launches the worker pool that drains the publish queue.
func (b *Bus) Start(ctx context.Context) error {
	b.mu.Lock()
	if b.running {
		b.mu.Unlock()
		return fmt.Errorf("bus already running")
	}
	b.running = true
	b.stopCh = make(chan struct{})
	b.doneCh = make(chan struct{})
	b.mu.Unlock()

	var wg sync.WaitGroup
	for i := 0; i < b.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.worker(ctx)
		}()
	}
	go func() {
		wg.Wait()
		close(b.doneCh)
	}()
	b.log.WithField("workers", b.workerCount).Info("event bus started")
	return nil
}

// Stop drains in-flight work and halts the worker pool.
func (b *Bus) Stop() {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return
	}
	b.running = false
	close(b.stopCh)
	b.mu.Unlock()
	<-b.doneCh
}

func (b *Bus) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-b.stopCh:
			return
		case job := <-b.queue:
			b.deliver(ctx, job)
		}
	}
}

func (b *Bus) deliver(ctx context.Context, job publishJob) {
	if b.publisher == nil {
		raw, _ := json.Marshal(job.env)
		b.log.WithField("topic", job.topic).WithField("key", job.key).WithField("envelope", string(raw)).Info("bus publish (log-only)")
		b.mu.Lock()
		b.published++
		b.mu.Unlock()
		return
	}
	if err := b.publisher.Publish(ctx, job.topic, job.key, job.env); err != nil {
		b.mu.Lock()
		b.failed++
		b.mu.Unlock()
		b.log.WithField("topic", job.topic).WithError(err).Error("bus publish failed")
		return
	}
	b.mu.Lock()
	b.published++
	b.mu.Unlock()
}

// Publish enqueues envelope for asynchronous delivery to topic keyed by
// key. Returns an error only if the queue is full — publish never blocks
// the caller, per spec §7's "event delivery must never block a
// successful business operation".
func (b *Bus) Publish(topic, key string, envelope Envelope) error {
	if envelope.Timestamp == "" {
		envelope.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	select {
	case b.queue <- publishJob{topic: topic, key: key, env: envelope}:
		return nil
	default:
		b.mu.Lock()
		b.dropped++
		b.mu.Unlock()
		return fmt.Errorf("bus: queue full, event dropped for topic %s", topic)
	}
}

// Consume wires handler to topic via the configured Consumer. A nil
// Consumer is a no-op, suitable for local development with no inbound
// broker topics configured.
func (b *Bus) Consume(ctx context.Context, topic string, handler ConsumeHandler) error {
	if b.consumer == nil {
		b.log.WithField("topic", topic).Info("bus consume skipped: no consumer configured")
		return nil
	}
	return b.consumer.Consume(ctx, topic, handler)
}

// Stats reports bus counters.
type Stats struct {
	Published int64
	Dropped   int64
	Failed    int64
}

func (b *Bus) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Stats{Published: b.published, Dropped: b.dropped, Failed: b.failed}
}

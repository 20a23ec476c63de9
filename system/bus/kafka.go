package bus

import (
	"context"
	"encoding/json"

	kafka "github.com/segmentio/kafka-go"
)

// KafkaPublisher publishes envelopes to a Kafka broker, one writer per
// topic created lazily on first publish. Grounded on segmentio/kafka-go,
// wired per SPEC_FULL.md's DOMAIN STACK as the Bus's concrete broker
// driver.
type KafkaPublisher struct {
	brokers []string
	writers map[string]*kafka.Writer
}

// NewKafkaPublisher builds a KafkaPublisher against brokers.
func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{brokers: brokers, writers: make(map[string]*kafka.Writer)}
}

func (p *KafkaPublisher) writerFor(topic string) *kafka.Writer {
	if w, ok := p.writers[topic]; ok {
		return w
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	p.writers[topic] = w
	return w
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, envelope Envelope) error {
	body, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return p.writerFor(topic).WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: body})
}

func (p *KafkaPublisher) Close() error {
	var firstErr error
	for _, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// KafkaConsumer consumes envelopes from a Kafka topic using a consumer
// group, per topic.
type KafkaConsumer struct {
	brokers []string
	groupID string
	readers []*kafka.Reader
}

// NewKafkaConsumer builds a KafkaConsumer against brokers under groupID.
func NewKafkaConsumer(brokers []string, groupID string) *KafkaConsumer {
	return &KafkaConsumer{brokers: brokers, groupID: groupID}
}

// Consume starts a background reader on topic and returns at once; the
// reader runs until ctx is cancelled, dispatching each decodable message
// to handler and skipping any it cannot decode. A handler error is not retried — the spec treats
// inbound decision/alert handling as best-effort, matching the
// dispatcher's "log and continue" stance on handler failure.
func (c *KafkaConsumer) Consume(ctx context.Context, topic string, handler ConsumeHandler) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: c.brokers,
		Topic:   topic,
		GroupID: c.groupID,
	})
	c.readers = append(c.readers, reader)

	go func() {
		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				return
			}
			var env Envelope
			if err := json.Unmarshal(msg.Value, &env); err != nil {
				continue
			}
			_ = handler(ctx, env)
		}
	}()
	return nil
}

func (c *KafkaConsumer) Close() error {
	var firstErr error
	for _, r := range c.readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

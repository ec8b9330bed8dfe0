package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"DocDigest/internal/domain"
	"DocDigest/internal/ports"
)

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher announces ledger transitions on a Kafka topic, keyed by
// document id so every document's events stay ordered.
type KafkaPublisher struct {
	writer MessageWriter
	now    func() time.Time
}

var _ ports.EventPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher builds a synchronous writer for the topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return NewKafkaPublisherWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		WriteTimeout: 10 * time.Second,
	})
}

// NewKafkaPublisherWithWriter accepts any writer, mostly for tests.
func NewKafkaPublisherWithWriter(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w, now: func() time.Time { return time.Now().UTC() }}
}

// Publish writes one event.
func (p *KafkaPublisher) Publish(ctx context.Context, event domain.Event) error {
	msg, err := buildMessage(event, p.now())
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s event: %w", event.Type, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func buildMessage(event domain.Event, at time.Time) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(event.DocumentID),
		Value: value,
		Time:  at,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "run_id", Value: []byte(event.RunID)},
		},
	}, nil
}

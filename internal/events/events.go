package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/example/sunik/internal/logger"
	"github.com/example/sunik/internal/metrics"
)

// Type names a domain event. The topic is "<prefix>.<type>".
type Type string

const (
	TransactionCreated   Type = "transaction.created"
	PaymentStatusChanged Type = "transaction.payment_updated"
	DeliveryAdvanced     Type = "transaction.delivery_updated"
	TransactionsExpired  Type = "transaction.expired"
)

// Event is the envelope written to the broker.
type Event struct {
	Type       Type      `json:"type"`
	Key        string    `json:"key"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// Publisher delivers domain events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

type syncProducer interface {
	SendMessage(msg *sarama.ProducerMessage) (int32, int64, error)
	Close() error
}

// KafkaPublisher writes events to Kafka with a synchronous producer.
type KafkaPublisher struct {
	producer syncProducer
	prefix   string
	logg     *logger.Logger
	metrics  *metrics.Store
}

// NewKafkaPublisher connects a producer that waits for all in-sync replicas.
func NewKafkaPublisher(brokers []string, prefix string, logg *logger.Logger, m *metrics.Store) (*KafkaPublisher, error) {
	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return newKafkaPublisher(producer, prefix, logg, m), nil
}

func newKafkaPublisher(p syncProducer, prefix string, logg *logger.Logger, m *metrics.Store) *KafkaPublisher {
	return &KafkaPublisher{producer: p, prefix: prefix, logg: logg, metrics: m}
}

func (k *KafkaPublisher) Topic(t Type) string {
	if k.prefix == "" {
		return string(t)
	}
	return k.prefix + "." + string(t)
}

func (k *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}

	topic := k.Topic(event.Type)
	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(data),
	}
	if event.Key != "" {
		msg.Key = sarama.StringEncoder(event.Key)
	}

	partition, offset, err := k.producer.SendMessage(msg)
	k.metrics.IncEvent(topic, err)
	if err != nil {
		return fmt.Errorf("send %s: %w", topic, err)
	}

	if k.logg != nil {
		logCtx := k.logg.WithFields(ctx, map[string]any{"topic": topic, "partition": partition, "offset": offset})
		k.logg.Debug(logCtx, "event published")
	}
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.producer.Close()
}

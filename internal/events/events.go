package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"multibagger/models"
	"multibagger/observability"
)

// Event types
const (
	AnalysisCompleted = "ANALYSIS_COMPLETED"
	AlertDelivered    = "ALERT_DELIVERED"
)

// Event is the envelope written to the topic
type Event struct {
	EventType string                `json:"event_type"`
	Analysis  *models.HistoryEntry  `json:"analysis,omitempty"`
	Alert     *models.AlertDelivery `json:"alert,omitempty"`
	Timestamp time.Time             `json:"timestamp"`
}

// DefaultPublishTimeout bounds one publish made after a run or delivery
const DefaultPublishTimeout = 5 * time.Second

// Publisher announces dashboard outcomes to other systems
type Publisher interface {
	PublishAnalysisCompleted(ctx context.Context, entry models.HistoryEntry) error
	PublishAlertDelivered(ctx context.Context, delivery models.AlertDelivery) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a single Kafka topic
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

// NewKafkaPublisher creates a publisher for topic on brokers
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &KafkaPublisher{writer: writer, topic: topic, now: time.Now}
}

// PublishAnalysisCompleted publishes a completed run keyed by its history id
func (p *KafkaPublisher) PublishAnalysisCompleted(ctx context.Context, entry models.HistoryEntry) error {
	return p.publish(ctx, entry.ID, Event{
		EventType: AnalysisCompleted,
		Analysis:  &entry,
		Timestamp: p.now(),
	})
}

// PublishAlertDelivered publishes delivery metadata keyed by channel name
func (p *KafkaPublisher) PublishAlertDelivered(ctx context.Context, delivery models.AlertDelivery) error {
	return p.publish(ctx, delivery.ChannelName, Event{
		EventType: AlertDelivered,
		Alert:     &delivery,
		Timestamp: p.now(),
	})
}

func (p *KafkaPublisher) publish(ctx context.Context, key string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: data,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to write %s to kafka: %w", event.EventType, err)
	}

	observability.Debug("event published", "type", event.EventType, "topic", p.topic, "key", key)
	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Noop discards every event. It is used when no brokers are configured.
type Noop struct{}

func (Noop) PublishAnalysisCompleted(context.Context, models.HistoryEntry) error { return nil }
func (Noop) PublishAlertDelivered(context.Context, models.AlertDelivery) error   { return nil }
func (Noop) Close() error                                                        { return nil }

var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = Noop{}
)

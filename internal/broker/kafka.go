// Package broker mirrors domain events to Kafka for downstream consumers.
package broker

import (
	"context"
	"fmt"
	"time"

	"table_order_backend/internal/models"
	"table_order_backend/pkg/utils"

	"github.com/segmentio/kafka-go"
)

// NewKafkaWriter builds an async writer; WriteMessages returns without waiting
// for broker acks and delivery errors are reported through Completion.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{}, // Balancer for selecting partition
		AllowAutoTopicCreation: true,
		Async:                  true,
		BatchTimeout:           50 * time.Millisecond,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				utils.LogError(err, "Kafka delivery failed", map[string]interface{}{"topic": topic, "messages": len(messages)})
			}
		},
	}
}

// MessageWriter is the subset of *kafka.Writer used by EventSink.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventSink publishes encoded events as Kafka messages keyed by event type.
type EventSink struct {
	writer MessageWriter
}

func NewEventSink(writer MessageWriter) *EventSink {
	return &EventSink{writer: writer}
}

func (s *EventSink) Publish(ctx context.Context, eventType models.EventType, payload []byte) error {
	msg := kafka.Message{
		Key:   []byte(eventType),
		Value: payload,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publishing %s event: %w", eventType, err)
	}
	return nil
}

// Close flushes pending messages.
func (s *EventSink) Close() error {
	return s.writer.Close()
}

package broker

import (
	"context"
	"errors"
	"testing"

	"table_order_backend/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func TestPublishKeysByEventType(t *testing.T) {
	w := &recordingWriter{}
	sink := NewEventSink(w)

	require.NoError(t, sink.Publish(context.Background(), models.EventNewOrder, []byte(`{"type":"new_order"}`)))
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "new_order", string(w.msgs[0].Key))
	assert.Equal(t, `{"type":"new_order"}`, string(w.msgs[0].Value))
	assert.Equal(t, "event_type", w.msgs[0].Headers[0].Key)
}

func TestPublishWrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	sink := NewEventSink(&recordingWriter{err: boom})

	err := sink.Publish(context.Background(), models.EventChatMessage, nil)
	assert.ErrorIs(t, err, boom)
}

func TestNewKafkaWriterIsAsync(t *testing.T) {
	w := NewKafkaWriter([]string{"localhost:9092"}, "table-order-events")
	defer w.Close()
	assert.True(t, w.Async)
	assert.Equal(t, "table-order-events", w.Topic)
}

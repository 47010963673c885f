package broker

import (
	"context"
	"encoding/json"
	"testing"

	"perfume-admin/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureWriter struct {
	key   string
	event interface{}
}

func (w *captureWriter) PublishEvent(_ context.Context, key string, event interface{}) error {
	w.key = key
	w.event = event
	return nil
}

func TestPublishCacheChanged(t *testing.T) {
	w := &captureWriter{}
	pub := NewEventPublisher(w, "writer-1")

	require.NoError(t, pub.PublishCacheChanged(context.Background(), "admin:orders", false))

	assert.Equal(t, "admin:orders", w.key)
	event, ok := w.event.(*models.CacheChangedEvent)
	require.True(t, ok)
	assert.Equal(t, models.EventTypeCacheChanged, event.EventType)
	assert.Equal(t, "writer-1", event.WriterID)
	assert.Equal(t, "admin:orders", event.Key)
	assert.NotEmpty(t, event.EventID)
}

func TestHandleMessageRoutesCacheChanged(t *testing.T) {
	h := NewEventHandler()
	var got *models.CacheChangedEvent
	h.OnCacheChanged(func(_ context.Context, e *models.CacheChangedEvent) error {
		got = e
		return nil
	})

	value, err := json.Marshal(models.CacheChangedEvent{
		BaseEvent: models.BaseEvent{EventID: "e1", EventType: models.EventTypeCacheChanged},
		Key:       "admin:users",
		WriterID:  "other",
	})
	require.NoError(t, err)

	require.NoError(t, h.HandleMessage(context.Background(), kafka.Message{Value: value}))
	require.NotNil(t, got)
	assert.Equal(t, "admin:users", got.Key)
	assert.Equal(t, "other", got.WriterID)
}

func TestHandleMessageIgnoresUnknownAndRejectsGarbage(t *testing.T) {
	h := NewEventHandler()

	assert.NoError(t, h.HandleMessage(context.Background(), kafka.Message{Value: []byte(`{"event_type":"SOMETHING"}`)}))
	assert.Error(t, h.HandleMessage(context.Background(), kafka.Message{Value: []byte(`not json`)}))
}

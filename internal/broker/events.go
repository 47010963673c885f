package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"perfume-admin/internal/models"
	"perfume-admin/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// EventWriter publishes one keyed event
type EventWriter interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher handles publishing cache change events
type EventPublisher struct {
	writer   EventWriter
	writerID string
}

// NewEventPublisher creates a new event publisher. writerID is stamped on every
// event so this process can recognize its own writes.
func NewEventPublisher(writer EventWriter, writerID string) *EventPublisher {
	return &EventPublisher{writer: writer, writerID: writerID}
}

// PublishCacheChanged publishes CacheChanged event
func (ep *EventPublisher) PublishCacheChanged(ctx context.Context, key string, deleted bool) error {
	event := &models.CacheChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeCacheChanged,
			Timestamp: time.Now(),
		},
		Key:      key,
		WriterID: ep.writerID,
		Deleted:  deleted,
	}
	return ep.writer.PublishEvent(ctx, key, event)
}

// NoopPublisher drops events, used when Kafka is disabled
type NoopPublisher struct{}

func (NoopPublisher) PublishCacheChanged(context.Context, string, bool) error {
	return nil
}

// EventHandler handles incoming events
type EventHandler struct {
	onCacheChanged func(context.Context, *models.CacheChangedEvent) error
	logger         *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{logger: util.GetLogger()}
}

// OnCacheChanged registers a handler for CacheChanged events
func (eh *EventHandler) OnCacheChanged(handler func(context.Context, *models.CacheChangedEvent) error) {
	eh.onCacheChanged = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeCacheChanged:
		if eh.onCacheChanged != nil {
			var event models.CacheChangedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal CacheChanged event: %w", err)
			}
			util.CacheEventsTotal.WithLabelValues("received").Inc()
			return eh.onCacheChanged(ctx, &event)
		}

	default:
		eh.logger.Debug("Unhandled event type", zap.String("event_type", baseEvent.EventType))
	}

	return nil
}

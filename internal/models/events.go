package models

import "time"

// Event types
const (
	EventTypeCacheChanged = "CACHE_CHANGED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// CacheChangedEvent published whenever a local cache key is written.
// WriterID identifies the process that wrote it so it can ignore its own writes.
type CacheChangedEvent struct {
	BaseEvent
	Key      string `json:"key"`
	WriterID string `json:"writer_id"`
	Deleted  bool   `json:"deleted,omitempty"`
}

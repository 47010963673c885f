// Package cache is the shared local cache the admin views read from when the
// backend is unavailable and write through on every change. Several admin
// processes may share one cache; there is no locking and the last writer wins.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"perfume-admin/internal/models"
	"perfume-admin/internal/util"
)

// Cache keys
const (
	KeyOrders       = "admin:orders"
	KeyRemoteOrders = "admin:orders:remote"
	KeyUsers        = "admin:users"
	KeySession      = "admin:session"
)

// Store is a byte-oriented key/value store. Get returns models.ErrCacheMiss for
// absent keys.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// GetJSON decodes the value under key into v. found is false on a cache miss.
func GetJSON(ctx context.Context, s Store, key string, v interface{}) (found bool, err error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, models.ErrCacheMiss) {
		util.CacheOperationsTotal.WithLabelValues("get", key, "miss").Inc()
		return false, nil
	}
	if err != nil {
		util.CacheOperationsTotal.WithLabelValues("get", key, "error").Inc()
		return false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	util.CacheOperationsTotal.WithLabelValues("get", key, "hit").Inc()

	if err := json.Unmarshal(data, v); err != nil {
		return true, fmt.Errorf("malformed cache value for %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key
func SetJSON(ctx context.Context, s Store, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache value for %s: %w", key, err)
	}
	if err := s.Set(ctx, key, data); err != nil {
		util.CacheOperationsTotal.WithLabelValues("set", key, "error").Inc()
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	util.CacheOperationsTotal.WithLabelValues("set", key, "ok").Inc()
	return nil
}

// MemoryStore keeps values in process memory
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, models.ErrCacheMiss
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	v := make([]byte, len(value))
	copy(v, value)

	m.mu.Lock()
	m.data[key] = v
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}

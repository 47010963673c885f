package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"perfume-admin/internal/broker"
	"perfume-admin/internal/cache"
	"perfume-admin/internal/models"
	"perfume-admin/internal/service"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollerRefreshesUntilStopped(t *testing.T) {
	var calls atomic.Int32
	p := NewPoller("orders", 10*time.Millisecond, func(context.Context) error {
		calls.Add(1)
		return errors.New("ignored")
	})

	done := make(chan struct{})
	go func() {
		p.Start(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	p.Stop()
	p.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}

func TestPollerStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPoller("orders", time.Hour, func(context.Context) error { return nil })

	done := make(chan struct{})
	go func() {
		p.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("poller ignored cancellation")
	}
}

func TestCountdownRefreshesAtZero(t *testing.T) {
	var calls int
	c := NewCountdown(3*time.Second, func(context.Context) error {
		calls++
		return nil
	})
	ctx := context.Background()

	assert.Equal(t, 3, c.Remaining())
	c.tick(ctx)
	c.tick(ctx)
	assert.Equal(t, 1, c.Remaining())
	assert.Zero(t, calls)

	c.tick(ctx)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 3, c.Remaining())

	c.tick(ctx)
	c.Reset()
	assert.Equal(t, 3, c.Remaining())
}

func TestCountdownMinimumPeriod(t *testing.T) {
	c := NewCountdown(0, func(context.Context) error { return nil })
	assert.Equal(t, 1, c.Remaining())
}

type fakeSource struct {
	messages []kafka.Message
	closed   bool
}

func (f *fakeSource) StartConsuming(ctx context.Context, handler broker.MessageHandler) error {
	for _, msg := range f.messages {
		if err := handler(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

func cacheEvent(t *testing.T, key, writer string) kafka.Message {
	t.Helper()
	value, err := json.Marshal(models.CacheChangedEvent{
		BaseEvent: models.BaseEvent{EventID: key + writer, EventType: models.EventTypeCacheChanged},
		Key:       key,
		WriterID:  writer,
	})
	require.NoError(t, err)
	return kafka.Message{Key: []byte(key), Value: value}
}

func TestCacheWatcherRefreshesOnForeignWrites(t *testing.T) {
	src := &fakeSource{messages: []kafka.Message{
		cacheEvent(t, "admin:orders", "self"),
		cacheEvent(t, "admin:orders", "other"),
		cacheEvent(t, "admin:users", "other"),
		cacheEvent(t, "admin:session", "other"),
	}}
	w := NewCacheWatcher(src, "self")

	var orders, users int
	w.Watch("admin:orders", func(context.Context) error {
		orders++
		return errors.New("backend down")
	})
	w.Watch("admin:users", func(context.Context) error {
		users++
		return nil
	})

	require.NoError(t, w.Start(context.Background()))
	assert.Equal(t, 1, orders)
	assert.Equal(t, 1, users)

	require.NoError(t, w.Stop())
	assert.True(t, src.closed)
}

type staticOrders struct {
	orders    []models.RawOrder
	updateErr error
}

func (s *staticOrders) ListOrders(context.Context) ([]models.RawOrder, error) {
	return s.orders, nil
}

func (s *staticOrders) UpdateOrderStatus(context.Context, string, models.OrderStatus) error {
	return s.updateErr
}

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) PublishCacheChanged(_ context.Context, key string, _ bool) error {
	p.mu.Lock()
	p.keys = append(p.keys, key)
	p.mu.Unlock()
	return nil
}

func TestCacheWatcherRefreshesOrderView(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	backend := &staticOrders{
		orders: []models.RawOrder{
			{"_id": "a1", "orderId": "ORD-1", "total": 25.0, "status": "order placed"},
			{"_id": "b2", "total": 100.0},
		},
		updateErr: errors.New("503"),
	}

	other := service.NewOrderService(backend, cache.NewNotifying(store, broker.NoopPublisher{}), time.UTC)
	published := &recordingPublisher{}
	self := service.NewOrderService(backend, cache.NewNotifying(store, published), time.UTC)

	_, err := self.Refresh(ctx)
	require.NoError(t, err)
	published.keys = nil

	_, err = other.Refresh(ctx)
	require.NoError(t, err)
	_, err = other.UpdateStatus(ctx, "ORD-1", "shipped")
	require.NoError(t, err)

	src := &fakeSource{messages: []kafka.Message{
		cacheEvent(t, cache.KeyOrders, "other"),
		cacheEvent(t, cache.KeyOrders, "other"),
		cacheEvent(t, cache.KeyOrders, "other"),
	}}
	w := NewCacheWatcher(src, "self")
	w.Watch(cache.KeyOrders, func(ctx context.Context) error {
		_, err := self.Refresh(ctx)
		return err
	})
	require.NoError(t, w.Start(ctx))

	list := self.Orders()
	require.Len(t, list, 2)
	assert.Equal(t, "ORD-1", list[0].OrderID)
	assert.Equal(t, models.OrderStatusShipped, list[0].Status)
	assert.Equal(t, 125.0, list[0].Total+list[1].Total)
	assert.Empty(t, published.keys, "refresh after a foreign write writes nothing back")
}

package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"perfume-admin/internal/broker"
	"perfume-admin/internal/models"
	"perfume-admin/internal/util"

	"go.uber.org/zap"
)

// RefreshFunc reloads one view
type RefreshFunc func(ctx context.Context) error

// Poller refreshes a view on a fixed interval until its context ends or Stop is called.
// Refreshes are not deduplicated; an overlapping manual refresh may finish either way.
type Poller struct {
	name     string
	interval time.Duration
	refresh  RefreshFunc
	logger   *zap.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

// NewPoller creates a new poller
func NewPoller(name string, interval time.Duration, refresh RefreshFunc) *Poller {
	return &Poller{
		name:     name,
		interval: interval,
		refresh:  refresh,
		logger:   util.GetLogger().With(zap.String("poller", name)),
		stop:     make(chan struct{}),
	}
}

// Start runs the poll loop and blocks until ctx is done or Stop is called
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting poller", zap.Duration("interval", p.interval))

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Poller context cancelled, stopping")
			return
		case <-p.stop:
			p.logger.Info("Poller stopped")
			return
		case <-ticker.C:
			util.RefreshTicksTotal.WithLabelValues(p.name).Inc()
			if err := p.refresh(ctx); err != nil {
				p.logger.Warn("Scheduled refresh failed", zap.Error(err))
			}
		}
	}
}

// Stop ends the poll loop. Safe to call more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })
}

// Countdown ticks once a second and refreshes when the remaining time hits zero.
// The remaining seconds are shown next to the dashboard.
type Countdown struct {
	period    int64
	remaining atomic.Int64
	refresh   RefreshFunc
	logger    *zap.Logger
}

// NewCountdown creates a countdown refreshing every period
func NewCountdown(period time.Duration, refresh RefreshFunc) *Countdown {
	secs := int64(period / time.Second)
	if secs < 1 {
		secs = 1
	}
	c := &Countdown{
		period:  secs,
		refresh: refresh,
		logger:  util.GetLogger().With(zap.String("countdown", "dashboard")),
	}
	c.remaining.Store(secs)
	return c
}

// Remaining returns the whole seconds left until the next refresh
func (c *Countdown) Remaining() int {
	return int(c.remaining.Load())
}

// Reset restarts the countdown, used after a manual refresh
func (c *Countdown) Reset() {
	c.remaining.Store(c.period)
}

// Start runs the countdown and blocks until ctx is done
func (c *Countdown) Start(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.tick(ctx)
		}
	}
}

func (c *Countdown) tick(ctx context.Context) {
	if c.remaining.Add(-1) > 0 {
		return
	}
	c.Reset()
	util.RefreshTicksTotal.WithLabelValues("countdown").Inc()
	if err := c.refresh(ctx); err != nil {
		c.logger.Warn("Countdown refresh failed", zap.Error(err))
	}
}

// MessageSource is a stream of broker messages
type MessageSource interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// CacheWatcher refreshes views when another admin process changes a shared cache key
type CacheWatcher struct {
	consumer     MessageSource
	eventHandler *broker.EventHandler
	writerID     string
	logger       *zap.Logger

	mu       sync.RWMutex
	watchers map[string][]RefreshFunc
}

// NewCacheWatcher creates a cache watcher. Events stamped with writerID are this
// process's own writes and are ignored.
func NewCacheWatcher(consumer MessageSource, writerID string) *CacheWatcher {
	w := &CacheWatcher{
		consumer:     consumer,
		eventHandler: broker.NewEventHandler(),
		writerID:     writerID,
		logger:       util.GetLogger().With(zap.String("worker", "cache-watcher")),
		watchers:     make(map[string][]RefreshFunc),
	}
	w.eventHandler.OnCacheChanged(w.handleCacheChanged)
	return w
}

// Watch registers refresh to run when key changes
func (w *CacheWatcher) Watch(key string, refresh RefreshFunc) {
	w.mu.Lock()
	w.watchers[key] = append(w.watchers[key], refresh)
	w.mu.Unlock()
}

// Start consumes cache events until ctx is done
func (w *CacheWatcher) Start(ctx context.Context) error {
	w.logger.Info("Starting cache watcher")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop closes the consumer
func (w *CacheWatcher) Stop() error {
	w.logger.Info("Stopping cache watcher")
	return w.consumer.Close()
}

// handleCacheChanged never fails the message; a failed refresh is retried by the
// next poll anyway.
func (w *CacheWatcher) handleCacheChanged(ctx context.Context, event *models.CacheChangedEvent) error {
	if event.WriterID == w.writerID {
		return nil
	}

	w.mu.RLock()
	refreshers := w.watchers[event.Key]
	w.mu.RUnlock()

	for _, refresh := range refreshers {
		util.RefreshTicksTotal.WithLabelValues("cache_event").Inc()
		if err := refresh(ctx); err != nil {
			w.logger.Warn("Refresh after cache change failed",
				zap.String("key", event.Key),
				zap.String("writer_id", event.WriterID),
				zap.Error(err))
		}
	}
	return nil
}

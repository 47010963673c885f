package cache

import (
	"context"

	"perfume-admin/internal/util"

	"go.uber.org/zap"
)

// ChangePublisher announces cache writes to other admin processes
type ChangePublisher interface {
	PublishCacheChanged(ctx context.Context, key string, deleted bool) error
}

// Notifying wraps a Store and publishes a change event after every successful write.
// Publish failures are logged and never fail the write.
type Notifying struct {
	Store
	publisher ChangePublisher
	logger    *zap.Logger
}

// NewNotifying wraps store so writes are announced through publisher
func NewNotifying(store Store, publisher ChangePublisher) *Notifying {
	return &Notifying{
		Store:     store,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

func (n *Notifying) Set(ctx context.Context, key string, value []byte) error {
	if err := n.Store.Set(ctx, key, value); err != nil {
		return err
	}
	n.publish(ctx, key, false)
	return nil
}

func (n *Notifying) Delete(ctx context.Context, key string) error {
	if err := n.Store.Delete(ctx, key); err != nil {
		return err
	}
	n.publish(ctx, key, true)
	return nil
}

func (n *Notifying) publish(ctx context.Context, key string, deleted bool) {
	if err := n.publisher.PublishCacheChanged(ctx, key, deleted); err != nil {
		n.logger.Warn("Failed to publish cache change",
			zap.String("key", key),
			zap.Error(err))
		return
	}
	util.CacheEventsTotal.WithLabelValues("published").Inc()
}

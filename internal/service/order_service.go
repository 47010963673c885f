package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"perfume-admin/internal/cache"
	"perfume-admin/internal/models"
	"perfume-admin/internal/orders"
	"perfume-admin/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Notices shown next to data that did not come fresh from the backend
const (
	NoticeCachedData = "using cached data"
	NoticeReauth     = "session expired, please log in again"
	NoticeSampleData = "order data unavailable, showing sample data"
)

// Data sources of an order list
const (
	SourceRemote = "remote"
	SourceCache  = "cache"
	SourceNone   = "none"
)

// OrderBackend is the part of the storefront backend used for orders
type OrderBackend interface {
	ListOrders(ctx context.Context) ([]models.RawOrder, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error
}

// OrderList is the result of one reconcile cycle
type OrderList struct {
	Orders    []models.NormalizedOrder `json:"orders"`
	Source    string                   `json:"source"`
	Notice    string                   `json:"notice,omitempty"`
	AuthError bool                     `json:"authError,omitempty"`
}

// StatusUpdate is the outcome of an order status change
type StatusUpdate struct {
	Order  models.NormalizedOrder `json:"order"`
	Synced bool                   `json:"synced"`
	Notice string                 `json:"notice,omitempty"`
}

// OrderService reconciles backend and cached orders and owns the in-memory view
// the order screens render.
//
// The orders key of the cache holds only what the backend does not know yet:
// orders that exist only locally and status changes marked syncPending. Backend
// records are kept apart under their own key, as received, for outages.
type OrderService struct {
	backend OrderBackend
	cache   cache.Store
	loc     *time.Location
	clock   func() time.Time
	logger  *zap.Logger

	// cacheMu serializes read-modify-write cycles on the orders key
	cacheMu  sync.Mutex
	cacheGen uint64
	snapshot []byte

	mu      sync.RWMutex
	view    []models.NormalizedOrder
	loaded  bool
	source  string
	notice  string
	authErr bool
}

// NewOrderService creates a new order service
func NewOrderService(backend OrderBackend, store cache.Store, loc *time.Location) *OrderService {
	return &OrderService{
		backend: backend,
		cache:   store,
		loc:     loc,
		clock:   time.Now,
		logger:  util.GetLogger(),
	}
}

func (s *OrderService) now() time.Time {
	return s.clock().In(s.loc)
}

// Refresh fetches remote and cached orders concurrently, lays the cached records
// over the backend's and replaces the view. A remote failure only degrades the
// result to the last backend snapshot plus cached data. An error is returned only
// when the backend failed and the cache was unreadable too.
func (s *OrderService) Refresh(ctx context.Context) (*OrderList, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Refresh")
	defer span.End()

	s.cacheMu.Lock()
	gen := s.cacheGen
	s.cacheMu.Unlock()

	var (
		remote, local       []models.RawOrder
		cachedBytes         []byte
		remoteErr, localErr error
	)

	// both loads always run to completion; each failure is handled per source below
	var g errgroup.Group
	g.Go(func() error {
		remote, remoteErr = s.backend.ListOrders(ctx)
		return nil
	})
	g.Go(func() error {
		cachedBytes, local, localErr = s.readCache(ctx)
		return nil
	})
	_ = g.Wait()

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	if s.cacheGen != gen {
		cachedBytes, local, localErr = s.readCache(ctx)
	}
	if localErr != nil {
		s.logger.Warn("Ignoring unreadable order cache", zap.Error(localErr))
		local = nil
	}

	list := &OrderList{Source: SourceRemote}
	if remoteErr != nil {
		list.Source, list.Notice = SourceCache, NoticeCachedData
		if errors.Is(remoteErr, models.ErrUnauthorized) {
			list.Notice, list.AuthError = NoticeReauth, true
		}
		s.logger.Warn("Order fetch failed, using cached orders",
			zap.Bool("auth_error", list.AuthError),
			zap.Error(remoteErr))

		var snapErr error
		remote, snapErr = s.readSnapshot(ctx)
		if snapErr != nil {
			s.logger.Warn("Ignoring unreadable backend snapshot", zap.Error(snapErr))
		}
		if localErr != nil && len(remote) == 0 {
			util.OrdersRefreshTotal.WithLabelValues(SourceNone).Inc()
			return nil, fmt.Errorf("no order data available: %w", errors.Join(remoteErr, localErr))
		}
	} else {
		s.saveSnapshot(ctx, remote)
	}

	now := s.now()
	cached := orders.NormalizeCached(local, len(remote), now)
	view, kept := reconcile(orders.NormalizeAll(remote, 0, now), cached, remoteErr == nil)
	list.Orders = view
	util.OrdersRefreshTotal.WithLabelValues(list.Source).Inc()
	util.OrdersNormalized.Set(float64(len(list.Orders)))

	// a cache that failed to read, rather than to decode, is left alone
	if localErr == nil || cachedBytes != nil {
		s.persist(ctx, cachedBytes, kept)
	}

	s.mu.Lock()
	s.view = list.Orders
	s.loaded = true
	s.source, s.notice, s.authErr = list.Source, list.Notice, list.AuthError
	s.mu.Unlock()

	return list, nil
}

// reconcile lays cached records over the backend's orders, the cached copy
// winning. A cached record matches a backend order by order id or internal id.
// With prune set, matched records the backend already reflects are dropped from
// kept: everything not marked pending, and pending changes whose status the
// backend now shows.
func reconcile(remote []models.NormalizedOrder, local []orders.CachedOrder, prune bool) (view []models.NormalizedOrder, kept []orders.CachedOrder) {
	byOrderID := make(map[string]int, len(remote))
	byID := make(map[string]int, len(remote))
	for i, r := range remote {
		byOrderID[r.OrderID] = i
		if r.ID != "" {
			byID[r.ID] = i
		}
	}

	view = make([]models.NormalizedOrder, 0, len(remote)+len(local))
	view = append(view, remote...)
	kept = make([]orders.CachedOrder, 0, len(local))
	for _, c := range local {
		i, matched := byOrderID[c.OrderID]
		if !matched && c.ID != "" {
			i, matched = byID[c.ID]
		}
		if matched && prune && (!c.SyncPending || remote[i].Status == c.Status) {
			continue
		}
		kept = append(kept, c)

		order := c.NormalizedOrder
		if matched {
			order.OrderID = remote[i].OrderID
		}
		view = append(view, order)
	}
	return orders.Dedupe(view), kept
}

// Current returns the view as of the last refresh, refreshing first if nothing
// has been loaded yet.
func (s *OrderService) Current(ctx context.Context) (*OrderList, error) {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if !loaded {
		return s.Refresh(ctx)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.NormalizedOrder, len(s.view))
	copy(out, s.view)
	return &OrderList{Orders: out, Source: s.source, Notice: s.notice, AuthError: s.authErr}, nil
}

// readCache returns the raw cached bytes and their decoded records. Bytes that
// fail to decode are still returned with the error.
func (s *OrderService) readCache(ctx context.Context) ([]byte, []models.RawOrder, error) {
	data, err := s.cache.Get(ctx, cache.KeyOrders)
	if errors.Is(err, models.ErrCacheMiss) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	list, err := orders.DecodeRaw(data)
	if err != nil {
		return data, nil, err
	}
	return data, list, nil
}

// readSnapshot returns the backend orders saved by the last successful fetch
func (s *OrderService) readSnapshot(ctx context.Context) ([]models.RawOrder, error) {
	data, err := s.cache.Get(ctx, cache.KeyRemoteOrders)
	if errors.Is(err, models.ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return orders.DecodeRaw(data)
}

// saveSnapshot stores the backend records as received. Raw records encode the
// same on every fetch, so an unchanged backend costs no write.
func (s *OrderService) saveSnapshot(ctx context.Context, remote []models.RawOrder) {
	if remote == nil {
		remote = []models.RawOrder{}
	}
	data, err := json.Marshal(remote)
	if err != nil {
		s.logger.Error("Failed to encode backend snapshot", zap.Error(err))
		return
	}
	if bytes.Equal(data, s.snapshot) {
		return
	}
	if err := s.cache.Set(ctx, cache.KeyRemoteOrders, data); err != nil {
		s.logger.Error("Failed to write backend snapshot", zap.Error(err))
		return
	}
	s.snapshot = data
}

// persist writes the cached records back when they differ from what is there.
// Skipping identical writes keeps processes sharing the cache from triggering
// each other's refresh forever. Records are written normalized, so ids
// synthesized for them stay fixed from then on. Caller holds cacheMu.
func (s *OrderService) persist(ctx context.Context, previous []byte, list []orders.CachedOrder) {
	if len(list) == 0 && previous == nil {
		return
	}
	data, err := orders.EncodeCache(list)
	if err != nil {
		s.logger.Error("Failed to encode orders for cache", zap.Error(err))
		return
	}
	if bytes.Equal(data, previous) {
		return
	}
	if err := s.cache.Set(ctx, cache.KeyOrders, data); err != nil {
		s.logger.Error("Failed to write order cache", zap.Error(err))
		return
	}
	s.cacheGen++
}

// Orders returns a copy of the current view
func (s *OrderService) Orders() []models.NormalizedOrder {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.NormalizedOrder, len(s.view))
	copy(out, s.view)
	return out
}

// UpdateStatus applies a status change optimistically. The cache and the view are
// updated first and unconditionally; the backend write is best-effort, its failure
// is logged and reported as Synced=false but never returned. There is no retry:
// the cached change stays pending until a refresh sees the backend agree.
func (s *OrderService) UpdateStatus(ctx context.Context, id, status string) (*StatusUpdate, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.UpdateStatus")
	defer span.End()

	st, ok := models.ParseOrderStatus(status)
	if !ok {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidStatus, status)
	}

	var (
		viewOrder models.NormalizedOrder
		inView    bool
	)
	s.mu.Lock()
	for i := range s.view {
		if s.view[i].Matches(id) {
			s.view[i].Status = st
			if !inView {
				viewOrder, inView = s.view[i], true
			}
		}
	}
	s.mu.Unlock()

	updated, inCache := s.updateCache(ctx, id, st, viewOrder, inView)
	if inView {
		updated = viewOrder
	}
	if !inCache && !inView {
		return nil, fmt.Errorf("%w: %s", models.ErrOrderNotFound, id)
	}

	result := &StatusUpdate{Order: updated, Synced: true}
	if err := s.backend.UpdateOrderStatus(ctx, updated.ID, st); err != nil {
		result.Synced = false
		result.Notice = "status saved locally, backend update failed"
		if errors.Is(err, models.ErrUnauthorized) {
			result.Notice = NoticeReauth
		}
		util.StatusUpdatesTotal.WithLabelValues("remote_failed").Inc()
		s.logger.Warn("Remote status update failed, kept local change",
			zap.String("order_id", updated.OrderID),
			zap.String("status", string(st)),
			zap.Error(err))
		return result, nil
	}

	util.StatusUpdatesTotal.WithLabelValues("synced").Inc()
	s.logger.Info("Order status updated",
		zap.String("order_id", updated.OrderID),
		zap.String("status", string(st)))
	return result, nil
}

// updateCache records a pending status change in the cache. A cached record is
// found by id, or by the internal id of the view order; a view order with no
// cached record gets one. A cache that cannot be read or written is logged and
// treated as not holding the order.
func (s *OrderService) updateCache(ctx context.Context, id string, st models.OrderStatus, viewOrder models.NormalizedOrder, inView bool) (models.NormalizedOrder, bool) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	previous, raw, err := s.readCache(ctx)
	if err != nil {
		s.logger.Warn("Order cache unreadable during status update", zap.Error(err))
		return models.NormalizedOrder{}, false
	}

	list := orders.NormalizeCached(raw, 0, s.now())
	var updated models.NormalizedOrder
	found := false
	for i := range list {
		if list[i].Matches(id) || (inView && viewOrder.ID != "" && list[i].ID == viewOrder.ID) {
			list[i].Status = st
			list[i].SyncPending = true
			if !found {
				updated = list[i].NormalizedOrder
			}
			found = true
		}
	}
	if !found {
		if !inView {
			return updated, false
		}
		list = append(list, orders.CachedOrder{NormalizedOrder: viewOrder, SyncPending: true})
		updated = viewOrder
	}

	s.persist(ctx, previous, list)
	return updated, true
}

// FilterOrders keeps orders with the given status (empty for all) whose order id,
// customer or email contains q, case-insensitively.
func FilterOrders(list []models.NormalizedOrder, status, q string) []models.NormalizedOrder {
	q = strings.ToLower(strings.TrimSpace(q))
	st, filterStatus := models.ParseOrderStatus(status)

	out := make([]models.NormalizedOrder, 0, len(list))
	for _, o := range list {
		if filterStatus && o.Status != st {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(o.OrderID), q) &&
			!strings.Contains(strings.ToLower(o.User), q) &&
			!strings.Contains(strings.ToLower(o.UserEmail), q) {
			continue
		}
		out = append(out, o)
	}
	return out
}

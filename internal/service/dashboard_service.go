package service

import (
	"context"
	"sync"
	"time"

	"perfume-admin/internal/dashboard"
	"perfume-admin/internal/models"
	"perfume-admin/internal/util"

	"go.uber.org/zap"
)

// OrderSource loads the reconciled order list
type OrderSource interface {
	Refresh(ctx context.Context) (*OrderList, error)
}

// DashboardService builds the dashboard from the reconciled orders and keeps the
// last result for readers between refreshes.
type DashboardService struct {
	orders    OrderSource
	loc       *time.Location
	clock     func() time.Time
	remaining func() int
	logger    *zap.Logger

	mu      sync.RWMutex
	current *models.Dashboard
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(orders OrderSource, loc *time.Location) *DashboardService {
	return &DashboardService{
		orders: orders,
		loc:    loc,
		clock:  time.Now,
		logger: util.GetLogger(),
	}
}

// SetCountdown registers the source of the seconds left until the next refresh
func (s *DashboardService) SetCountdown(remaining func() int) {
	s.mu.Lock()
	s.remaining = remaining
	s.mu.Unlock()
}

// Refresh reloads orders and rebuilds every panel. When no order data can be
// loaded at all the dashboard shows sample data flagged as degraded.
func (s *DashboardService) Refresh(ctx context.Context) models.Dashboard {
	ctx, span := util.StartSpan(ctx, "DashboardService.Refresh")
	defer span.End()

	start := time.Now()
	defer func() {
		util.DashboardBuildLatency.Observe(time.Since(start).Seconds())
	}()

	now := s.clock().In(s.loc)

	var d models.Dashboard
	list, err := s.orders.Refresh(ctx)
	if err != nil {
		s.logger.Warn("Dashboard falling back to sample data", zap.Error(err))
		util.DashboardDegradedTotal.Inc()
		d = dashboard.Fallback(now, NoticeSampleData)
	} else {
		d = dashboard.Build(list.Orders, now)
		d.Notice = list.Notice
		d.Degraded = list.Source != SourceRemote
	}

	s.mu.Lock()
	s.current = &d
	s.mu.Unlock()

	return s.withCountdown(d)
}

// Current returns the last built dashboard, building one if none exists yet
func (s *DashboardService) Current(ctx context.Context) models.Dashboard {
	s.mu.RLock()
	current := s.current
	s.mu.RUnlock()

	if current == nil {
		return s.Refresh(ctx)
	}
	return s.withCountdown(*current)
}

func (s *DashboardService) withCountdown(d models.Dashboard) models.Dashboard {
	s.mu.RLock()
	remaining := s.remaining
	s.mu.RUnlock()

	if remaining != nil {
		d.NextRefreshIn = remaining()
	}
	return d
}

package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_orders_refresh_total",
		Help: "Order list refreshes by data source (remote, cache, none)",
	}, []string{"source"})

	OrdersNormalized = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "admin_orders_normalized",
		Help: "Number of orders in the last reconciled list",
	})

	RemoteRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_backend_requests_total",
		Help: "Requests sent to the storefront backend",
	}, []string{"method", "endpoint", "result"})

	RemoteRequestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "admin_backend_request_duration_seconds",
		Help:    "Latency of storefront backend requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})

	StatusUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_order_status_updates_total",
		Help: "Order status updates by remote outcome (synced, remote_failed)",
	}, []string{"remote"})

	CacheOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_cache_operations_total",
		Help: "Local cache operations",
	}, []string{"op", "key", "result"})

	CacheEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_cache_events_total",
		Help: "Cache change events published and received",
	}, []string{"direction"})

	DashboardBuildLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "admin_dashboard_build_duration_seconds",
		Help:    "Time to load orders and build the dashboard",
		Buckets: prometheus.DefBuckets,
	})

	DashboardDegradedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "admin_dashboard_degraded_total",
		Help: "Dashboard builds that fell back to sample data",
	})

	RefreshTicksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "admin_refresh_ticks_total",
		Help: "Scheduled refreshes fired by trigger",
	}, []string{"trigger"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)

package dashboard

import (
	"testing"
	"time"

	"perfume-admin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	lisbon  = time.FixedZone("WEST", 3600)
	testNow = time.Date(2026, time.October, 18, 14, 30, 0, 0, lisbon)
)

func at(daysAgo, hour int) time.Time {
	return time.Date(2026, time.October, 18-daysAgo, hour, 0, 0, 0, lisbon)
}

func TestComputeStatsExample(t *testing.T) {
	list := []models.NormalizedOrder{
		{OrderID: "A", Total: 100, Status: models.OrderStatusDelivered, PlacedAt: at(0, 9)},
		{OrderID: "B", Total: 200, Status: models.OrderStatusPlaced, PlacedAt: at(0, 11)},
	}

	stats := ComputeStats(list, testNow)

	assert.Equal(t, 300.0, stats.TodayRevenue)
	assert.Equal(t, 2, stats.TodayOrders)
	assert.Equal(t, 1, stats.DeliveredOrders)
	assert.Equal(t, 1, stats.PendingOrders)
	assert.Equal(t, 150.0, stats.AvgOrderValue)
	assert.Equal(t, 300.0, stats.TotalRevenue)
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil, testNow)

	assert.Zero(t, stats.TotalOrders)
	assert.Zero(t, stats.AvgOrderValue)
}

func TestComputeStatsStatusBuckets(t *testing.T) {
	list := []models.NormalizedOrder{
		{Total: 10, Status: models.OrderStatusShipped, PlacedAt: at(2, 10)},
		{Total: 20, Status: models.OrderStatusOutForDelivery, PlacedAt: at(3, 10)},
		{Total: 30, Status: models.OrderStatusCancelled, PlacedAt: at(1, 10)},
		{Total: 40, Status: "refunded"},
		{Total: 0.1, Status: models.OrderStatusDelivered},
		{Total: 0.2, Status: models.OrderStatusDelivered},
	}

	stats := ComputeStats(list, testNow)

	assert.Equal(t, 6, stats.TotalOrders)
	assert.Equal(t, 2, stats.PendingOrders)
	assert.Equal(t, 2, stats.DeliveredOrders)
	assert.Equal(t, 1, stats.CancelledOrders)
	assert.LessOrEqual(t, stats.DeliveredOrders+stats.PendingOrders, stats.TotalOrders)
	assert.Equal(t, 100.3, stats.TotalRevenue)
	assert.Equal(t, stats.TotalRevenue/6, stats.AvgOrderValue)
	assert.Zero(t, stats.TodayOrders)
}

func TestSameDay(t *testing.T) {
	assert.True(t, SameDay(at(0, 0), testNow))
	assert.True(t, SameDay(at(0, 23), testNow))
	assert.False(t, SameDay(at(1, 23), testNow))
	assert.False(t, SameDay(time.Time{}, testNow))

	// 23:30 UTC on the 17th is already the 18th in the dashboard's zone
	assert.True(t, SameDay(time.Date(2026, time.October, 17, 23, 30, 0, 0, time.UTC), testNow))
}

func TestSalesSeries(t *testing.T) {
	list := []models.NormalizedOrder{
		{Total: 50, PlacedAt: at(0, 8)},
		{Total: 25, PlacedAt: at(0, 18)},
		{Total: 70, PlacedAt: at(6, 12)},
		{Total: 999, PlacedAt: at(7, 12)},
		{Total: 5},
	}

	series := SalesSeries(list, testNow)

	require.Len(t, series, SalesDays)
	assert.Equal(t, time.Date(2026, time.October, 12, 0, 0, 0, 0, lisbon), series[0].Day)
	assert.Equal(t, 70.0, series[0].Revenue)
	assert.Equal(t, 1, series[0].Orders)
	assert.True(t, SameDay(series[6].Day, testNow))
	assert.Equal(t, 75.0, series[6].Revenue)
	assert.Equal(t, 2, series[6].Orders)
	assert.Equal(t, "Sun", series[6].Label)
	for i := 1; i < len(series); i++ {
		assert.True(t, series[i].Day.After(series[i-1].Day))
	}
}

func TestSalesSeriesAcrossMonthBoundary(t *testing.T) {
	now := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

	series := SalesSeries(nil, now)

	require.Len(t, series, SalesDays)
	assert.Equal(t, time.Date(2026, time.February, 24, 0, 0, 0, 0, time.UTC), series[0].Day)
	assert.Equal(t, time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC), series[6].Day)
}

func TestRecentOrders(t *testing.T) {
	list := []models.NormalizedOrder{
		{OrderID: "old", PlacedAt: at(5, 10)},
		{OrderID: "newest", PlacedAt: at(0, 12)},
		{OrderID: "mid", PlacedAt: at(2, 10)},
		{OrderID: "newer", PlacedAt: at(0, 9)},
		{OrderID: "older", PlacedAt: at(3, 10)},
	}

	recent := RecentOrders(list, RecentOrdersLimit)

	require.Len(t, recent, 4)
	assert.Equal(t, []string{"newest", "newer", "mid", "older"},
		[]string{recent[0].OrderID, recent[1].OrderID, recent[2].OrderID, recent[3].OrderID})
	assert.Equal(t, "old", list[0].OrderID, "input must not be reordered")
}

func TestRecentOrdersUnparseableKeepOrder(t *testing.T) {
	list := []models.NormalizedOrder{{OrderID: "a"}, {OrderID: "b"}, {OrderID: "c"}}

	recent := RecentOrders(list, RecentOrdersLimit)

	assert.Equal(t, list, recent)
}

func TestBuild(t *testing.T) {
	list := []models.NormalizedOrder{
		{OrderID: "A", Total: 60, Status: models.OrderStatusDelivered, PlacedAt: at(0, 9),
			Items: []models.OrderItem{{Name: "Rose Perfume", Price: 30, Quantity: 2}}},
	}

	d := Build(list, testNow)

	assert.Equal(t, 1, d.Stats.TotalOrders)
	assert.Len(t, d.Sales, SalesDays)
	require.Len(t, d.Categories, 1)
	assert.Equal(t, "Perfume", d.Categories[0].Name)
	assert.Len(t, d.RecentOrders, 1)
	assert.False(t, d.Degraded)
	assert.Equal(t, testNow, d.GeneratedAt)
}

func TestFallback(t *testing.T) {
	d := Fallback(testNow, "using sample data")

	assert.True(t, d.Degraded)
	assert.Equal(t, "using sample data", d.Notice)
	require.Len(t, d.Sales, SalesDays)
	assert.True(t, SameDay(d.Sales[6].Day, testNow))
	assert.Len(t, d.Categories, MaxCategories)
	assert.Zero(t, d.Stats.TotalOrders)
}

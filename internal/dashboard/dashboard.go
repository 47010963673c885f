// Package dashboard derives the dashboard statistics and chart series from
// normalized orders. Everything here is recomputed from scratch on each refresh.
package dashboard

import (
	"sort"
	"time"

	"perfume-admin/internal/models"
	"perfume-admin/internal/orders"

	"github.com/shopspring/decimal"
)

const (
	// SalesDays is the number of daily buckets in the sales chart
	SalesDays = 7
	// RecentOrdersLimit is the number of orders in the recent orders panel
	RecentOrdersLimit = 4
)

// Build computes every dashboard panel for the given orders. now fixes both the
// current day and the time zone used for calendar comparisons.
func Build(list []models.NormalizedOrder, now time.Time) models.Dashboard {
	return models.Dashboard{
		Stats:        ComputeStats(list, now),
		Sales:        SalesSeries(list, now),
		Categories:   CategorySeries(list),
		RecentOrders: RecentOrders(list, RecentOrdersLimit),
		GeneratedAt:  now,
	}
}

// Fallback is the degraded dashboard shown when no order data could be loaded
func Fallback(now time.Time, notice string) models.Dashboard {
	return models.Dashboard{
		Sales:        SampleSales(now),
		Categories:   SampleCategories(),
		RecentOrders: []models.NormalizedOrder{},
		Degraded:     true,
		Notice:       notice,
		GeneratedAt:  now,
	}
}

// SameDay reports whether t falls on the calendar day of day, in day's location.
// A zero t (unparseable order date) never matches.
func SameDay(t, day time.Time) bool {
	if t.IsZero() {
		return false
	}
	y1, m1, d1 := t.In(day.Location()).Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// ComputeStats counts and sums orders overall, for today, and by status
func ComputeStats(list []models.NormalizedOrder, now time.Time) models.DashboardStats {
	var stats models.DashboardStats
	revenue, today := decimal.Zero, decimal.Zero

	for _, o := range list {
		total := decimal.NewFromFloat(o.Total)
		revenue = revenue.Add(total)
		stats.TotalOrders++

		if SameDay(o.PlacedAt, now) {
			today = today.Add(total)
			stats.TodayOrders++
		}

		switch {
		case o.Status == models.OrderStatusDelivered:
			stats.DeliveredOrders++
		case o.Status == models.OrderStatusCancelled:
			stats.CancelledOrders++
		case o.Status.IsPending():
			stats.PendingOrders++
		}
	}

	stats.TotalRevenue = revenue.InexactFloat64()
	stats.TodayRevenue = today.InexactFloat64()
	if stats.TotalOrders > 0 {
		stats.AvgOrderValue = stats.TotalRevenue / float64(stats.TotalOrders)
	}
	return stats
}

// SalesSeries buckets revenue and order counts into the last seven calendar days,
// oldest first. The last bucket is today.
func SalesSeries(list []models.NormalizedOrder, now time.Time) []models.SalesBucket {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	buckets := make([]models.SalesBucket, SalesDays)

	for i := range buckets {
		day := today.AddDate(0, 0, i-(SalesDays-1))
		revenue := decimal.Zero
		count := 0
		for _, o := range list {
			if SameDay(o.PlacedAt, day) {
				revenue = revenue.Add(decimal.NewFromFloat(o.Total))
				count++
			}
		}
		buckets[i] = models.SalesBucket{
			Day:     day,
			Label:   day.Format("Mon"),
			Revenue: revenue.InexactFloat64(),
			Orders:  count,
		}
	}
	return buckets
}

// RecentOrders returns the n most recent orders. Orders with unparseable dates
// compare equal to everything and keep their relative position.
func RecentOrders(list []models.NormalizedOrder, n int) []models.NormalizedOrder {
	sorted := make([]models.NormalizedOrder, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].PlacedAt, sorted[j].PlacedAt
		if a.IsZero() || b.IsZero() {
			return false
		}
		return a.After(b)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// lineRevenue is the revenue of one order line
func lineRevenue(item models.OrderItem) decimal.Decimal {
	return decimal.NewFromFloat(orders.LineTotal(item))
}

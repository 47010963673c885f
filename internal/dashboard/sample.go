package dashboard

import (
	"time"

	"perfume-admin/internal/models"
)

var (
	sampleRevenue = [SalesDays]float64{1200, 1900, 1500, 2100, 1750, 2400, 1980}
	sampleOrders  = [SalesDays]int{12, 18, 14, 20, 16, 23, 19}
)

// SampleSales is a fixed seven day series anchored on now
func SampleSales(now time.Time) []models.SalesBucket {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	buckets := make([]models.SalesBucket, SalesDays)
	for i := range buckets {
		day := today.AddDate(0, 0, i-(SalesDays-1))
		buckets[i] = models.SalesBucket{
			Day:     day,
			Label:   day.Format("Mon"),
			Revenue: sampleRevenue[i],
			Orders:  sampleOrders[i],
		}
	}
	return buckets
}

// SampleCategories is a fixed category breakdown
func SampleCategories() []models.CategoryTotal {
	sample := []struct {
		name    string
		revenue float64
	}{
		{"Perfume", 4500},
		{"Cologne", 3200},
		{"Essential Oil", 1800},
		{"Body Spray", 1500},
		{"Skincare", 1200},
		{"Gift Sets", 900},
	}

	out := make([]models.CategoryTotal, len(sample))
	for i, s := range sample {
		out[i] = models.CategoryTotal{Name: s.name, Label: CategoryLabel(s.name), Revenue: s.revenue}
	}
	return out
}

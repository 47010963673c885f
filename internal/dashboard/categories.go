package dashboard

import (
	"sort"
	"strings"
	"unicode/utf8"

	"perfume-admin/internal/models"

	"github.com/shopspring/decimal"
)

const (
	// Uncategorized is the category of items no rule matches
	Uncategorized = "Uncategorized"
	// MaxCategories is the number of categories kept in the chart
	MaxCategories = 6

	maxLabelLen   = 12
	truncatedLen  = 10
	labelEllipsis = "..."
)

type categoryRule struct {
	keywords []string
	category string
}

// categoryRules are checked in order; the first keyword found in the item name wins
var categoryRules = []categoryRule{
	{[]string{"perfume", "fragrance"}, "Perfume"},
	{[]string{"cologne"}, "Cologne"},
	{[]string{"oil"}, "Essential Oil"},
	{[]string{"spray"}, "Body Spray"},
	{[]string{"cream", "lotion"}, "Skincare"},
	{[]string{"gift", "set"}, "Gift Sets"},
	{[]string{"shampoo", "conditioner"}, "Hair Care"},
	{[]string{"soap", "bath"}, "Bath & Body"},
}

// InferCategory classifies a product by keywords in its name. It is a best-effort
// heuristic with no confidence score.
func InferCategory(name string) string {
	lower := strings.ToLower(name)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.category
			}
		}
	}
	return Uncategorized
}

// ItemCategory is the explicit category of an item, or the inferred one
func ItemCategory(item models.OrderItem) string {
	if c := strings.TrimSpace(item.Category); c != "" {
		return c
	}
	return InferCategory(item.Name)
}

// CategoryLabel shortens long category names for chart axes
func CategoryLabel(name string) string {
	if utf8.RuneCountInString(name) <= maxLabelLen {
		return name
	}
	return string([]rune(name)[:truncatedLen]) + labelEllipsis
}

// CategorySeries sums line revenue per category and keeps the top categories,
// highest revenue first.
func CategorySeries(list []models.NormalizedOrder) []models.CategoryTotal {
	sums := make(map[string]decimal.Decimal)
	for _, o := range list {
		for _, item := range o.Items {
			c := ItemCategory(item)
			sums[c] = sums[c].Add(lineRevenue(item))
		}
	}

	out := make([]models.CategoryTotal, 0, len(sums))
	for name, sum := range sums {
		out = append(out, models.CategoryTotal{
			Name:    name,
			Label:   CategoryLabel(name),
			Revenue: sum.InexactFloat64(),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Revenue != out[j].Revenue {
			return out[i].Revenue > out[j].Revenue
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > MaxCategories {
		out = out[:MaxCategories]
	}
	return out
}

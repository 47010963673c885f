// Package orders reconciles order records from the storefront backend and the
// local cache into the canonical NormalizedOrder shape.
package orders

import (
	"fmt"
	"strings"
	"time"

	"perfume-admin/internal/models"
)

// DisplayDateLayout is the date format shown in admin views
const DisplayDateLayout = "Jan 2, 2006"

// Fallback values for fields missing from a raw order
const (
	DefaultCustomer = "Customer"
	DefaultEmail    = "customer@example.com"
	DefaultPayment  = "card"
	DefaultItemName = "Product"
)

// Normalize maps a raw order onto NormalizedOrder. index is the record's position
// in the batch and only feeds synthesized order ids. Every field has a default,
// so Normalize never fails.
func Normalize(raw models.RawOrder, index int, now time.Time) models.NormalizedOrder {
	m := map[string]any(raw)
	shipping := nested(m, "shipping")

	orderID := firstString(m, "orderId", "orderNumber")
	if orderID == "" {
		orderID = fmt.Sprintf("ORD-%d-%d", now.UnixMilli(), index)
	}

	id := firstString(m, "id", "_id")
	if id == "" {
		id = orderID
	}

	total := toNumber(first(m, "total", "amount"))
	if total < 0 {
		total = 0
	}

	date, placedAt := normalizeDate(first(m, "date", "orderDate", "createdAt"), now)
	// placedAt is written by this service when it caches orders and keeps the time of day
	if t, ok := parseDate(m["placedAt"], now.Location()); ok && t.Year() > 1 {
		date, placedAt = t.Format(DisplayDateLayout), t
	}

	address := formatAddress(shipping)
	if address == "" {
		address = firstString(m, "address")
	}

	payment := firstString(m, "paymentMethod", "payment")
	if payment == "" {
		payment = DefaultPayment
	}

	return models.NormalizedOrder{
		ID:        id,
		OrderID:   orderID,
		User:      customerName(m, shipping),
		UserEmail: customerEmail(m, shipping),
		Total:     total,
		Status:    normalizeStatus(first(m, "status")),
		Date:      date,
		PlacedAt:  placedAt,
		Items:     normalizeItems(first(m, "items", "products")),
		Address:   address,
		Payment:   payment,
	}
}

// LineTotal is price times quantity for an order line
func LineTotal(item models.OrderItem) float64 {
	return item.Price * item.Quantity
}

func normalizeStatus(v any) models.OrderStatus {
	if st, ok := models.ParseOrderStatus(toString(v)); ok {
		return st
	}
	return models.OrderStatusPlaced
}

// normalizeDate returns the display string and the parsed time. An absent date
// means "now"; an unparseable one keeps the raw text with a zero time.
func normalizeDate(v any, now time.Time) (string, time.Time) {
	loc := now.Location()
	if v == nil {
		return now.Format(DisplayDateLayout), now
	}
	t, ok := parseDate(v, loc)
	if !ok {
		return toString(v), time.Time{}
	}
	return t.Format(DisplayDateLayout), t
}

func customerName(m, shipping map[string]any) string {
	if name := firstString(shipping, "fullName"); name != "" {
		return name
	}
	full := strings.TrimSpace(firstString(shipping, "firstName") + " " + firstString(shipping, "lastName"))
	if full != "" {
		return full
	}
	if name := firstString(shipping, "name"); name != "" {
		return name
	}
	switch u := m["user"].(type) {
	case string:
		if s := strings.TrimSpace(u); s != "" {
			return s
		}
	case map[string]any:
		if name := firstString(u, "name", "fullName"); name != "" {
			return name
		}
	}
	return DefaultCustomer
}

func customerEmail(m, shipping map[string]any) string {
	if email := firstString(shipping, "email"); email != "" {
		return email
	}
	if email := firstString(m, "userEmail"); email != "" {
		return email
	}
	if email := firstString(nested(m, "user"), "email"); email != "" {
		return email
	}
	return DefaultEmail
}

func formatAddress(shipping map[string]any) string {
	parts := []string{
		firstString(shipping, "address", "street"),
		firstString(shipping, "city"),
		firstString(shipping, "state"),
		firstString(shipping, "zipCode", "zip", "postalCode"),
		firstString(shipping, "country"),
	}
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

// normalizeItems converts a raw line item list. Entries that are not objects are skipped.
func normalizeItems(v any) []models.OrderItem {
	list, _ := v.([]any)
	items := make([]models.OrderItem, 0, len(list))
	for i, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		id := firstString(m, "id", "_id", "productId")
		if id == "" {
			id = fmt.Sprintf("item-%d", i)
		}
		name := firstString(m, "name", "productName")
		if name == "" {
			name = DefaultItemName
		}
		qty := toNumber(first(m, "quantity", "qty"))
		if qty == 0 {
			qty = 1
		}
		if qty < 0 {
			qty = 0
		}
		price := toNumber(first(m, "price", "productPrice"))
		if price < 0 {
			price = 0
		}

		items = append(items, models.OrderItem{
			ID:       id,
			Name:     name,
			Price:    price,
			Quantity: qty,
			Category: firstString(m, "category"),
			Image:    firstString(m, "image", "imageUrl", "productImage"),
		})
	}
	return items
}

package orders

import (
	"encoding/json"
	"testing"
	"time"

	"perfume-admin/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, time.October, 18, 14, 30, 0, 0, time.UTC)

func decodeOne(t *testing.T, s string) models.RawOrder {
	t.Helper()
	var raw models.RawOrder
	require.NoError(t, json.Unmarshal([]byte(s), &raw))
	return raw
}

func TestNormalizeFullRecord(t *testing.T) {
	raw := decodeOne(t, `{
		"id": "64f1",
		"orderId": "ORD-1",
		"date": "2026-10-17T09:15:00Z",
		"status": " Shipped ",
		"total": "129.50",
		"paymentMethod": "cod",
		"shipping": {
			"fullName": "Ana Lima",
			"email": "ana@example.com",
			"address": "12 Rose St",
			"city": "Lisbon",
			"zipCode": "1000",
			"country": "PT"
		},
		"items": [
			{"id": "p1", "name": "Oud Perfume", "price": 60, "quantity": 2, "image": "oud.png"}
		]
	}`)

	order := Normalize(raw, 0, testNow)

	assert.Equal(t, "64f1", order.ID)
	assert.Equal(t, "ORD-1", order.OrderID)
	assert.Equal(t, "Ana Lima", order.User)
	assert.Equal(t, "ana@example.com", order.UserEmail)
	assert.Equal(t, 129.5, order.Total)
	assert.Equal(t, models.OrderStatusShipped, order.Status)
	assert.Equal(t, "Oct 17, 2026", order.Date)
	assert.Equal(t, time.Date(2026, time.October, 17, 9, 15, 0, 0, time.UTC), order.PlacedAt)
	assert.Equal(t, "12 Rose St, Lisbon, 1000, PT", order.Address)
	assert.Equal(t, "cod", order.Payment)
	require.Len(t, order.Items, 1)
	assert.Equal(t, models.OrderItem{ID: "p1", Name: "Oud Perfume", Price: 60, Quantity: 2, Image: "oud.png"}, order.Items[0])
}

func TestNormalizeDefaults(t *testing.T) {
	order := Normalize(models.RawOrder{}, 3, testNow)

	assert.Equal(t, "ORD-1792333800000-3", order.OrderID)
	assert.Equal(t, order.OrderID, order.ID)
	assert.Equal(t, DefaultCustomer, order.User)
	assert.Equal(t, DefaultEmail, order.UserEmail)
	assert.Zero(t, order.Total)
	assert.Equal(t, models.OrderStatusPlaced, order.Status)
	assert.Equal(t, "Oct 18, 2026", order.Date)
	assert.Equal(t, testNow, order.PlacedAt)
	assert.Empty(t, order.Items)
	assert.Empty(t, order.Address)
	assert.Equal(t, DefaultPayment, order.Payment)
}

func TestNormalizeFieldFallbacks(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, o models.NormalizedOrder)
	}{
		{
			name: "orderNumber when orderId missing",
			raw:  `{"orderNumber": "ORD-77"}`,
			check: func(t *testing.T, o models.NormalizedOrder) {
				assert.Equal(t, "ORD-77", o.OrderID)
				assert.Equal(t, "ORD-77", o.ID)
			},
		},
		{
			name: "mongo _id",
			raw:  `{"_id": "abc", "orderId": "ORD-2"}`,
			check: func(t *testing.T, o models.NormalizedOrder) {
				assert.Equal(t, "abc", o.ID)
			},
		},
		{
			name: "amount when total missing",
			raw:  `{"amount": 45}`,
			check: func(t *testing.T, o models.NormalizedOrder) {
				assert.Equal(t, 45.0, o.Total)
			},
		},
		{
			name: "zero total falls through to amount",
			raw:  `{"total": 0, "amount": 12}`,
			check: func(t *testing.T, o models.NormalizedOrder) {
				assert.Equal(t, 12.0, o.Total)
			},
		},
		{
			name: "non numeric total",
			raw:  `{"total": "free"}`,
			check: func(t *testing.T, o models.NormalizedOrder) {
				assert.Zero(t, o.Total)
			},
		},
		{
			name: "negative total clamped",
			raw:  `{"total": -20}`,
			check: func(t *testing.T, o models.NormalizedOrder) {
				assert.Zero(t, o.Total)
			},
		},
		{
			name: "unknown status",
			raw:  `{"status": "lost in space"}`,
			check: func(t *testing.T, o models.NormalizedOrder) {
				assert.Equal(t, models.OrderStatusPlaced, o.Status)
			},
		},
		{
			name: "orderDate when date missing",
			raw:  `{"orderDate": "2026-10-12"}`,
			check: func(t *testing.T, o models.NormalizedOrder) {
				assert.Equal(t, "Oct 12, 2026", o.Date)
			},
		},
		{
			name: "createdAt as unix millis",
			raw:  `{"createdAt": 1792333800000}`,
			check: func(t *testing.T, o models.NormalizedOrder) {
				assert.Equal(t, "Oct 18, 2026", o.Date)
				assert.Equal(t, testNow, o.PlacedAt)
			},
		},
		{
			name: "unparseable date keeps raw value",
			raw:  `{"date": "sometime last week"}`,
			check: func(t *testing.T, o models.NormalizedOrder) {
				assert.Equal(t, "sometime last week", o.Date)
				assert.True(t, o.PlacedAt.IsZero())
			},
		},
		{
			name: "first and last name",
			raw:  `{"shipping": {"firstName": "Ana", "lastName": "Lima"}}`,
			check: func(t *testing.T, o models.NormalizedOrder) {
				assert.Equal(t, "Ana Lima", o.User)
			},
		},
		{
			name: "shipping name",
			raw:  `{"shipping": {"name": "Rui"}}`,
			check: func(t *testing.T, o models.NormalizedOrder) {
				assert.Equal(t, "Rui", o.User)
			},
		},
		{
			name: "user object",
			raw:  `{"user": {"name": "Mia", "email": "mia@example.com"}}`,
			check: func(t *testing.T, o models.NormalizedOrder) {
				assert.Equal(t, "Mia", o.User)
				assert.Equal(t, "mia@example.com", o.UserEmail)
			},
		},
		{
			name: "user string and userEmail",
			raw:  `{"user": "Leo", "userEmail": "leo@example.com"}`,
			check: func(t *testing.T, o models.NormalizedOrder) {
				assert.Equal(t, "Leo", o.User)
				assert.Equal(t, "leo@example.com", o.UserEmail)
			},
		},
		{
			name: "street and postal code",
			raw:  `{"shipping": {"street": "1 Main", "state": "CA", "postalCode": "90210"}}`,
			check: func(t *testing.T, o models.NormalizedOrder) {
				assert.Equal(t, "1 Main, CA, 90210", o.Address)
			},
		},
		{
			name: "flat address",
			raw:  `{"address": "5 Elm, Porto"}`,
			check: func(t *testing.T, o models.NormalizedOrder) {
				assert.Equal(t, "5 Elm, Porto", o.Address)
			},
		},
		{
			name: "payment key",
			raw:  `{"payment": "paypal"}`,
			check: func(t *testing.T, o models.NormalizedOrder) {
				assert.Equal(t, "paypal", o.Payment)
			},
		},
		{
			name: "cached placedAt keeps time of day",
			raw:  `{"date": "Oct 17, 2026", "placedAt": "2026-10-17T20:45:00Z"}`,
			check: func(t *testing.T, o models.NormalizedOrder) {
				assert.Equal(t, time.Date(2026, time.October, 17, 20, 45, 0, 0, time.UTC), o.PlacedAt)
			},
		},
		{
			name: "zero placedAt ignored",
			raw:  `{"date": "bad date", "placedAt": "0001-01-01T00:00:00Z"}`,
			check: func(t *testing.T, o models.NormalizedOrder) {
				assert.Equal(t, "bad date", o.Date)
				assert.True(t, o.PlacedAt.IsZero())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Normalize(decodeOne(t, tt.raw), 0, testNow))
		})
	}
}

func TestNormalizeItemFallbacks(t *testing.T) {
	raw := decodeOne(t, `{
		"products": [
			{"productId": "x1", "productName": "Cedar Cologne", "productPrice": "35", "qty": 3, "imageUrl": "c.png", "category": "Cologne"},
			{"name": "Mystery", "price": "n/a", "productImage": "m.png"},
			{},
			"not an item"
		]
	}`)

	order := Normalize(raw, 0, testNow)

	require.Len(t, order.Items, 3)
	assert.Equal(t, models.OrderItem{ID: "x1", Name: "Cedar Cologne", Price: 35, Quantity: 3, Category: "Cologne", Image: "c.png"}, order.Items[0])
	assert.Equal(t, models.OrderItem{ID: "item-1", Name: "Mystery", Price: 0, Quantity: 1, Image: "m.png"}, order.Items[1])
	assert.Equal(t, models.OrderItem{ID: "item-2", Name: DefaultItemName, Price: 0, Quantity: 1}, order.Items[2])
}

func TestNormalizeIsStableThroughCache(t *testing.T) {
	raw := decodeOne(t, `{
		"orderId": "ORD-9",
		"date": "2026-10-16T11:00:00Z",
		"status": "delivered",
		"total": 80,
		"shipping": {"fullName": "Ana", "email": "ana@example.com", "city": "Lisbon"},
		"items": [{"name": "Lavender Oil", "price": 40, "quantity": 2}]
	}`)
	first := Normalize(raw, 0, testNow)

	data, err := EncodeCache([]CachedOrder{{NormalizedOrder: first, SyncPending: true}})
	require.NoError(t, err)
	cached, err := DecodeRaw(data)
	require.NoError(t, err)
	require.Len(t, cached, 1)

	second := NormalizeCached(cached, 5, testNow.Add(time.Hour))
	require.Len(t, second, 1)
	assert.Equal(t, first, second[0].NormalizedOrder)
	assert.True(t, second[0].SyncPending)
}

func TestSynthesizedIDSurvivesCache(t *testing.T) {
	first := NormalizeCached([]models.RawOrder{{"total": 50.0}}, 0, testNow)

	data, err := EncodeCache(first)
	require.NoError(t, err)
	raw, err := DecodeRaw(data)
	require.NoError(t, err)

	second := NormalizeCached(raw, 0, testNow.Add(time.Minute))
	require.Len(t, second, 1)
	assert.Equal(t, "ORD-1792333800000-0", second[0].OrderID)
	assert.Equal(t, first, second)
}

func TestLineTotal(t *testing.T) {
	assert.Equal(t, 90.0, LineTotal(models.OrderItem{Price: 30, Quantity: 3}))
	assert.Zero(t, LineTotal(models.OrderItem{Price: 0, Quantity: 3}))
}

func TestNormalizeItemsClampNegativeAmounts(t *testing.T) {
	raw := decodeOne(t, `{
		"items": [
			{"name": "Refund Line", "price": -30, "quantity": 2},
			{"name": "Odd Line", "price": 15, "quantity": -4},
			{"name": "Rose Perfume", "price": 20}
		]
	}`)

	order := Normalize(raw, 0, testNow)

	require.Len(t, order.Items, 3)
	assert.Zero(t, order.Items[0].Price)
	assert.Zero(t, order.Items[1].Quantity)
	assert.Equal(t, 1.0, order.Items[2].Quantity)
	for _, item := range order.Items {
		assert.GreaterOrEqual(t, LineTotal(item), 0.0, item.Name)
	}
}

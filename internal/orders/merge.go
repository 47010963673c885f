package orders

import (
	"encoding/json"
	"fmt"
	"time"

	"perfume-admin/internal/models"
)

// Merge normalizes remote then local records and deduplicates them by OrderID.
// A duplicate keeps the position of its first occurrence and the content of its last.
func Merge(remote, local []models.RawOrder, now time.Time) []models.NormalizedOrder {
	all := NormalizeAll(remote, 0, now)
	all = append(all, NormalizeAll(local, len(remote), now)...)
	return Dedupe(all)
}

// NormalizeAll normalizes a list; offset shifts the index used for synthesized ids
// so two lists normalized back to back never collide.
func NormalizeAll(list []models.RawOrder, offset int, now time.Time) []models.NormalizedOrder {
	out := make([]models.NormalizedOrder, len(list))
	for i, raw := range list {
		out[i] = Normalize(raw, offset+i, now)
	}
	return out
}

// Dedupe keeps one order per OrderID, at its first position with its last content
func Dedupe(list []models.NormalizedOrder) []models.NormalizedOrder {
	index := make(map[string]int, len(list))
	out := make([]models.NormalizedOrder, 0, len(list))
	for _, order := range list {
		if pos, ok := index[order.OrderID]; ok {
			out[pos] = order
			continue
		}
		index[order.OrderID] = len(out)
		out = append(out, order)
	}
	return out
}

// DecodeRaw decodes a JSON array of orders, or an envelope carrying one under
// "orders" or "data". Empty input decodes to no orders.
func DecodeRaw(data []byte) ([]models.RawOrder, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var list []models.RawOrder
	if err := json.Unmarshal(data, &list); err == nil {
		return compact(list), nil
	}

	var envelope struct {
		Orders []models.RawOrder `json:"orders"`
		Data   []models.RawOrder `json:"data"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	if envelope.Orders != nil {
		return compact(envelope.Orders), nil
	}
	return compact(envelope.Data), nil
}

// compact drops JSON nulls from a decoded list
func compact(list []models.RawOrder) []models.RawOrder {
	out := list[:0]
	for _, raw := range list {
		if raw != nil {
			out = append(out, raw)
		}
	}
	return out
}

// CachedOrder is the form orders take in the local cache. SyncPending marks a
// local status change the backend has not confirmed yet.
type CachedOrder struct {
	models.NormalizedOrder
	SyncPending bool `json:"syncPending,omitempty"`
}

// NormalizeCached normalizes cached records, keeping their sync marker
func NormalizeCached(list []models.RawOrder, offset int, now time.Time) []CachedOrder {
	out := make([]CachedOrder, len(list))
	for i, raw := range list {
		out[i] = CachedOrder{
			NormalizedOrder: Normalize(raw, offset+i, now),
			SyncPending:     truthy(raw["syncPending"]),
		}
	}
	return out
}

// Orders strips the cache markers
func Orders(list []CachedOrder) []models.NormalizedOrder {
	out := make([]models.NormalizedOrder, len(list))
	for i, c := range list {
		out[i] = c.NormalizedOrder
	}
	return out
}

// EncodeCache serializes orders for the local cache
func EncodeCache(list []CachedOrder) ([]byte, error) {
	if list == nil {
		list = []CachedOrder{}
	}
	return json.Marshal(list)
}

package backend

import (
	"context"
	"net/http"
	"net/url"

	"perfume-admin/internal/models"
	"perfume-admin/internal/orders"
)

// ListOrders fetches every order as raw records
func (c *Client) ListOrders(ctx context.Context) ([]models.RawOrder, error) {
	var data []byte
	if err := c.request(ctx, http.MethodGet, "/orders/admin", "/orders/admin", nil, "", &data); err != nil {
		return nil, err
	}
	return orders.DecodeRaw(data)
}

// UpdateOrderStatus sets the status of one order
func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	path := "/orders/admin/order/" + url.PathEscape(id) + "/status"
	payload := map[string]string{"status": string(status)}
	return c.sendJSON(ctx, http.MethodPut, path, "/orders/admin/order/:id/status", payload, nil)
}

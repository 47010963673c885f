package models

import (
	"strings"
	"time"
)

// RawOrder is an order record as received from the storefront backend or decoded
// from the local cache. Field names vary between sources.
type RawOrder map[string]any

// OrderStatus is the lifecycle status of an order
type OrderStatus string

// Order statuses
const (
	OrderStatusPlaced         OrderStatus = "order placed"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusOutForDelivery OrderStatus = "out for delivery"
	OrderStatusDelivered      OrderStatus = "delivered"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

// OrderStatuses lists every valid status in lifecycle order
var OrderStatuses = []OrderStatus{
	OrderStatusPlaced,
	OrderStatusShipped,
	OrderStatusOutForDelivery,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// ParseOrderStatus matches s against the status enum, ignoring case and surrounding space
func ParseOrderStatus(s string) (OrderStatus, bool) {
	v := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	for _, st := range OrderStatuses {
		if st == v {
			return st, true
		}
	}
	return "", false
}

// IsPending reports whether the order is still moving through fulfilment
func (s OrderStatus) IsPending() bool {
	switch s {
	case OrderStatusPlaced, OrderStatusShipped, OrderStatusOutForDelivery:
		return true
	}
	return false
}

// OrderItem is a normalized order line
type OrderItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
	Category string  `json:"category,omitempty"`
	Image    string  `json:"image"`
}

// NormalizedOrder is the canonical order shape used by every admin view
type NormalizedOrder struct {
	ID        string      `json:"id"`
	OrderID   string      `json:"orderId"`
	User      string      `json:"user"`
	UserEmail string      `json:"userEmail"`
	Total     float64     `json:"total"`
	Status    OrderStatus `json:"status"`
	Date      string      `json:"date"`
	PlacedAt  time.Time   `json:"placedAt"`
	Items     []OrderItem `json:"items"`
	Address   string      `json:"address"`
	Payment   string      `json:"payment"`
}

// Matches reports whether id refers to this order by either identifier
func (o *NormalizedOrder) Matches(id string) bool {
	return id != "" && (o.ID == id || o.OrderID == id)
}

// DashboardStats holds the headline counters of the dashboard
type DashboardStats struct {
	TotalOrders     int     `json:"totalOrders"`
	TotalRevenue    float64 `json:"totalRevenue"`
	TodayOrders     int     `json:"todayOrders"`
	TodayRevenue    float64 `json:"todayRevenue"`
	DeliveredOrders int     `json:"deliveredOrders"`
	PendingOrders   int     `json:"pendingOrders"`
	CancelledOrders int     `json:"cancelledOrders"`
	AvgOrderValue   float64 `json:"avgOrderValue"`
}

// SalesBucket is one calendar day of the sales chart
type SalesBucket struct {
	Day     time.Time `json:"day"`
	Label   string    `json:"label"`
	Revenue float64   `json:"revenue"`
	Orders  int       `json:"orders"`
}

// CategoryTotal is revenue attributed to one product category
type CategoryTotal struct {
	Name    string  `json:"name"`
	Label   string  `json:"label"`
	Revenue float64 `json:"revenue"`
}

// Dashboard is everything the dashboard view renders
type Dashboard struct {
	Stats         DashboardStats    `json:"stats"`
	Sales         []SalesBucket     `json:"sales"`
	Categories    []CategoryTotal   `json:"categories"`
	RecentOrders  []NormalizedOrder `json:"recentOrders"`
	Degraded      bool              `json:"degraded"`
	Notice        string            `json:"notice,omitempty"`
	NextRefreshIn int               `json:"nextRefreshIn"`
	GeneratedAt   time.Time         `json:"generatedAt"`
}

// Product represents a catalog product
type Product struct {
	ID          string  `json:"_id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Family      string  `json:"family"`
	Quantity    int     `json:"quantity"`
	Rating      float64 `json:"rating"`
	Image       string  `json:"image"`
}

// ProductInput is the product create/update form
type ProductInput struct {
	Name        string  `json:"name" form:"name" validate:"required"`
	Price       float64 `json:"price" form:"price" validate:"gt=0"`
	Description string  `json:"description" form:"description"`
	Family      string  `json:"family" form:"family"`
	Quantity    int     `json:"quantity" form:"quantity" validate:"gte=0"`
	Rating      float64 `json:"rating" form:"rating" validate:"gte=0,lte=5"`
}

// ImageUpload is an image file attached to a product form
type ImageUpload struct {
	Filename string
	Content  []byte
}

// UserStatus is the account status of a user
type UserStatus string

// User statuses
const (
	UserStatusActive    UserStatus = "active"
	UserStatusInactive  UserStatus = "inactive"
	UserStatusSuspended UserStatus = "suspended"
)

// User represents a storefront or staff account
type User struct {
	ID        string     `json:"_id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"`
	Status    UserStatus `json:"status"`
	CreatedAt string     `json:"createdAt,omitempty"`
}

// UserInput is the user create/update form
type UserInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role" validate:"omitempty,oneof=admin staff customer"`
	Password string `json:"password,omitempty"`
}

// Admin is the locally held admin session
type Admin struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Token      string    `json:"token"`
	LoggedInAt time.Time `json:"loggedInAt"`
}

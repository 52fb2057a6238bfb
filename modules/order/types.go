package order

import (
	"time"

	"github.com/UtsavMehta1975/walsnut-sub000/domain/apperror"
	domain "github.com/UtsavMehta1975/walsnut-sub000/domain/order"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/user"
	"github.com/shopspring/decimal"
)

// Line quantity bounds.
const (
	MinQuantity = 1
	MaxQuantity = 100
)

// Order listing page bounds.
const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// LineItemInput is one submitted cart line.
type LineItemInput struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// CreateOrderRequest places an order for an already resolved identity.
type CreateOrderRequest struct {
	Identity        user.Identity      `json:"identity"`
	Items           []LineItemInput    `json:"items"`
	ShippingAddress string             `json:"shipping_address"`
	TotalAmount     decimal.Decimal    `json:"total_amount"`
	PaymentMethod   string             `json:"payment_method,omitempty"`
	CustomerInfo    *user.GuestProfile `json:"customer_info,omitempty"`
}

// Owner is the account an order was placed for.
type Owner struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// CreateOrderResult is the outcome of a checkout.
type CreateOrderResult struct {
	Order           *domain.Order `json:"order"`
	Owner           Owner         `json:"owner"`
	IsGuestCheckout bool          `json:"is_guest_checkout"`

	// AccountCreated is set for guest checkouts only.
	AccountCreated *bool `json:"account_created,omitempty"`
}

// CreateOrderResponse carries a checkout result.
type CreateOrderResponse struct {
	Result *CreateOrderResult `json:"result,omitempty"`
	Error  *apperror.Payload  `json:"error,omitempty"`
}

// ListOrdersRequest lists one user's orders.
type ListOrdersRequest struct {
	UserID        string               `json:"user_id"`
	Page          int                  `json:"page"`
	Limit         int                  `json:"limit"`
	Status        domain.Status        `json:"status,omitempty"`
	PaymentStatus domain.PaymentStatus `json:"payment_status,omitempty"`
}

// ListOrdersResponse carries a page of orders.
type ListOrdersResponse struct {
	Orders []domain.Order    `json:"orders"`
	Total  int64             `json:"total"`
	Page   int               `json:"page"`
	Limit  int               `json:"limit"`
	Error  *apperror.Payload `json:"error,omitempty"`
}

// ListAllOrdersRequest asks for every order, for the admin views.
type ListAllOrdersRequest struct{}

// GetOrderRequest names an order. A non-empty UserID restricts it to that owner.
type GetOrderRequest struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id,omitempty"`
}

// UpdateStatusRequest moves an order to a new status.
type UpdateStatusRequest struct {
	OrderID string        `json:"order_id"`
	Status  domain.Status `json:"status"`
}

// ApplyPaymentRequest carries a gateway outcome for an order.
type ApplyPaymentRequest struct {
	OrderID string `json:"order_id"`
	Paid    bool   `json:"paid"`
}

// OrderResponse carries one order.
type OrderResponse struct {
	Order *domain.Order     `json:"order,omitempty"`
	Error *apperror.Payload `json:"error,omitempty"`
}

// ListCustomersRequest asks for the customer aggregation.
type ListCustomersRequest struct{}

// CustomerSummary aggregates one user's orders.
type CustomerSummary struct {
	ID          string          `json:"id"`
	Email       string          `json:"email"`
	Name        string          `json:"name"`
	Phone       string          `json:"phone"`
	Role        user.Role       `json:"role"`
	OrderCount  int             `json:"order_count"`
	TotalSpent  decimal.Decimal `json:"total_spent"`
	LastOrderAt *time.Time      `json:"last_order_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ListCustomersResponse carries customer summaries.
type ListCustomersResponse struct {
	Customers []CustomerSummary `json:"customers"`
	Error     *apperror.Payload `json:"error,omitempty"`
}

// StatsRequest asks for order counters.
type StatsRequest struct{}

// Stats are the order counters shown on the admin dashboard.
type Stats struct {
	Revenue         decimal.Decimal       `json:"revenue"`
	OrderCount      int                   `json:"order_count"`
	OrdersByStatus  map[domain.Status]int `json:"orders_by_status"`
	PendingPayments int                   `json:"pending_payments"`
	CustomerCount   int64                 `json:"customer_count"`
}

// StatsResponse carries order counters.
type StatsResponse struct {
	Stats *Stats            `json:"stats,omitempty"`
	Error *apperror.Payload `json:"error,omitempty"`
}

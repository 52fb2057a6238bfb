package order

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/UtsavMehta1975/walsnut-sub000/domain/order"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// OrderPort defines the order operations other modules use.
type OrderPort interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error)
	ListOrders(ctx context.Context, req ListOrdersRequest) (*ListOrdersResponse, error)
	GetOrder(ctx context.Context, orderID, userID string) (*domain.Order, error)
	ListAllOrders(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status domain.Status) (*domain.Order, error)
	ListCustomers(ctx context.Context) ([]CustomerSummary, error)
	Stats(ctx context.Context) (*Stats, error)
}

// OrderAdapter implements OrderPort using the service container.
type OrderAdapter struct {
	container mono.ServiceContainer
}

var _ OrderPort = (*OrderAdapter)(nil)

// NewOrderAdapter creates a new OrderAdapter.
func NewOrderAdapter(container mono.ServiceContainer) *OrderAdapter {
	return &OrderAdapter{container: container}
}

func call[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(ctx, container, service, json.Marshal, json.Unmarshal, req, resp); err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	return nil
}

// CreateOrder places an order.
func (a *OrderAdapter) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	var resp CreateOrderResponse
	if err := call(ctx, a.container, "create-order", &req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// ListOrders returns one page of a user's orders.
func (a *OrderAdapter) ListOrders(ctx context.Context, req ListOrdersRequest) (*ListOrdersResponse, error) {
	var resp ListOrdersResponse
	if err := call(ctx, a.container, "list-orders", &req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetOrder retrieves an order, restricted to userID when it is set.
func (a *OrderAdapter) GetOrder(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	var resp OrderResponse
	if err := call(ctx, a.container, "get-order", &GetOrderRequest{OrderID: orderID, UserID: userID}, &resp); err != nil {
		return nil, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return resp.Order, nil
}

// ListAllOrders returns every order.
func (a *OrderAdapter) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	var resp ListOrdersResponse
	if err := call(ctx, a.container, "list-all-orders", &ListAllOrdersRequest{}, &resp); err != nil {
		return nil, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return resp.Orders, nil
}

// UpdateStatus moves an order to a new status.
func (a *OrderAdapter) UpdateStatus(ctx context.Context, orderID string, status domain.Status) (*domain.Order, error) {
	var resp OrderResponse
	if err := call(ctx, a.container, "update-order-status", &UpdateStatusRequest{OrderID: orderID, Status: status}, &resp); err != nil {
		return nil, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return resp.Order, nil
}

// ApplyPayment records a gateway outcome on an order and returns the order.
// The call is idempotent, so callers may retry it.
func (a *OrderAdapter) ApplyPayment(ctx context.Context, orderID string, paid bool) (*domain.Order, error) {
	var resp OrderResponse
	if err := call(ctx, a.container, "apply-payment", &ApplyPaymentRequest{OrderID: orderID, Paid: paid}, &resp); err != nil {
		return nil, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return resp.Order, nil
}

// ListCustomers returns the per-user order aggregation.
func (a *OrderAdapter) ListCustomers(ctx context.Context) ([]CustomerSummary, error) {
	var resp ListCustomersResponse
	if err := call(ctx, a.container, "list-customers", &ListCustomersRequest{}, &resp); err != nil {
		return nil, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return resp.Customers, nil
}

// Stats returns the order counters.
func (a *OrderAdapter) Stats(ctx context.Context) (*Stats, error) {
	var resp StatsResponse
	if err := call(ctx, a.container, "order-stats", &StatsRequest{}, &resp); err != nil {
		return nil, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return resp.Stats, nil
}

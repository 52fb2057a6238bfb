package order

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/UtsavMehta1975/walsnut-sub000/domain/apperror"
	domain "github.com/UtsavMehta1975/walsnut-sub000/domain/order"
	"github.com/UtsavMehta1975/walsnut-sub000/events"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/database"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// OrderModule provides checkout and order administration as a mono module.
type OrderModule struct {
	hasher   SecretHasher
	database *database.PluginModule
	service  *Service
	eventBus mono.EventBus
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*OrderModule)(nil)
	_ mono.ServiceProviderModule = (*OrderModule)(nil)
	_ mono.UsePluginModule       = (*OrderModule)(nil)
	_ mono.EventEmitterModule    = (*OrderModule)(nil)
	_ mono.HealthCheckableModule = (*OrderModule)(nil)
)

// NewModule creates a new order module. hasher creates guest account passwords.
func NewModule(hasher SecretHasher) *OrderModule {
	return &OrderModule{hasher: hasher}
}

// Name returns the module name.
func (m *OrderModule) Name() string {
	return "order"
}

// SetPlugin receives the database plugin from the framework.
func (m *OrderModule) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias == "database" {
		if db, ok := plugin.(*database.PluginModule); ok {
			m.database = db
		}
	}
}

// SetEventBus is called by the framework to inject the event bus.
func (m *OrderModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module publishes.
func (m *OrderModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.OrderPlacedV1.ToBase(),
		events.OrderStatusChangedV1.ToBase(),
	}
}

// Start builds the service on the shared database.
func (m *OrderModule) Start(_ context.Context) error {
	if m.database == nil {
		return fmt.Errorf("required plugin 'database' not registered")
	}
	if m.hasher == nil {
		return fmt.Errorf("order module requires a password hasher")
	}

	db, err := m.database.DB()
	if err != nil {
		log.Printf("[order] Module started without database: %v", err)
		return nil
	}

	m.service = NewService(NewOrderRepository(db), m.hasher)
	log.Println("[order] Module started")
	return nil
}

// Stop stops the module.
func (m *OrderModule) Stop(_ context.Context) error {
	log.Println("[order] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *OrderModule) Health(_ context.Context) mono.HealthStatus {
	if m.service == nil {
		return mono.HealthStatus{Healthy: false, Message: "database not configured"}
	}
	return mono.HealthStatus{Healthy: true, Message: "operational"}
}

// RegisterServices registers request-reply services in the service container.
func (m *OrderModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(container, "create-order", json.Unmarshal, json.Marshal, m.handleCreateOrder); err != nil {
		return fmt.Errorf("failed to register create-order service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "list-orders", json.Unmarshal, json.Marshal, m.handleListOrders); err != nil {
		return fmt.Errorf("failed to register list-orders service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "get-order", json.Unmarshal, json.Marshal, m.handleGetOrder); err != nil {
		return fmt.Errorf("failed to register get-order service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "list-all-orders", json.Unmarshal, json.Marshal, m.handleListAllOrders); err != nil {
		return fmt.Errorf("failed to register list-all-orders service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "update-order-status", json.Unmarshal, json.Marshal, m.handleUpdateStatus); err != nil {
		return fmt.Errorf("failed to register update-order-status service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "apply-payment", json.Unmarshal, json.Marshal, m.handleApplyPayment); err != nil {
		return fmt.Errorf("failed to register apply-payment service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "list-customers", json.Unmarshal, json.Marshal, m.handleListCustomers); err != nil {
		return fmt.Errorf("failed to register list-customers service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "order-stats", json.Unmarshal, json.Marshal, m.handleStats); err != nil {
		return fmt.Errorf("failed to register order-stats service: %w", err)
	}

	log.Printf("[order] Registered services: create-order, list-orders, get-order, list-all-orders, update-order-status, apply-payment, list-customers, order-stats")
	return nil
}

func (m *OrderModule) ready() (*Service, error) {
	if m.service == nil {
		return nil, database.ErrNotConfigured
	}
	return m.service, nil
}

func (m *OrderModule) handleCreateOrder(ctx context.Context, req CreateOrderRequest, _ *mono.Msg) (CreateOrderResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return CreateOrderResponse{Error: apperror.ToPayload(err)}, nil
	}

	result, err := svc.CreateOrder(ctx, req)
	if err != nil {
		return CreateOrderResponse{Error: m.payload("create-order", err)}, nil
	}

	log.Printf("[order] Created order %s for user %s (%d items, guest: %t)",
		result.Order.ID, result.Owner.ID, len(result.Order.Items), result.IsGuestCheckout)
	m.publishOrderPlaced(result)
	return CreateOrderResponse{Result: result}, nil
}

func (m *OrderModule) handleListOrders(ctx context.Context, req ListOrdersRequest, _ *mono.Msg) (ListOrdersResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return ListOrdersResponse{Error: apperror.ToPayload(err)}, nil
	}

	orders, total, req, err := svc.ListOrders(ctx, req)
	if err != nil {
		return ListOrdersResponse{Error: m.payload("list-orders", err)}, nil
	}
	return ListOrdersResponse{Orders: orders, Total: total, Page: req.Page, Limit: req.Limit}, nil
}

func (m *OrderModule) handleGetOrder(ctx context.Context, req GetOrderRequest, _ *mono.Msg) (OrderResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return OrderResponse{Error: apperror.ToPayload(err)}, nil
	}

	o, err := svc.GetOrder(ctx, req.OrderID, req.UserID)
	if err != nil {
		return OrderResponse{Error: m.payload("get-order", err)}, nil
	}
	return OrderResponse{Order: o}, nil
}

func (m *OrderModule) handleListAllOrders(ctx context.Context, _ ListAllOrdersRequest, _ *mono.Msg) (ListOrdersResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return ListOrdersResponse{Error: apperror.ToPayload(err)}, nil
	}

	orders, err := svc.ListAllOrders(ctx)
	if err != nil {
		return ListOrdersResponse{Error: m.payload("list-all-orders", err)}, nil
	}
	return ListOrdersResponse{Orders: orders, Total: int64(len(orders))}, nil
}

func (m *OrderModule) handleUpdateStatus(ctx context.Context, req UpdateStatusRequest, _ *mono.Msg) (OrderResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return OrderResponse{Error: apperror.ToPayload(err)}, nil
	}

	t, err := svc.UpdateStatus(ctx, req.OrderID, req.Status)
	if err != nil {
		return OrderResponse{Error: m.payload("update-order-status", err)}, nil
	}

	log.Printf("[order] Order %s moved %s -> %s", req.OrderID, t.From, t.Order.Status)
	m.publishStatusChanged(t)
	return OrderResponse{Order: t.Order}, nil
}

// handleApplyPayment is called by the payment module before it acknowledges a
// webhook, so a failure here makes the gateway retry instead of losing the outcome.
func (m *OrderModule) handleApplyPayment(ctx context.Context, req ApplyPaymentRequest, _ *mono.Msg) (OrderResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return OrderResponse{Error: apperror.ToPayload(err)}, nil
	}

	t, err := svc.ApplyPaymentResult(ctx, req.OrderID, req.Paid)
	if err != nil {
		return OrderResponse{Error: m.payload("apply-payment", err)}, nil
	}

	log.Printf("[order] Order %s payment %s", req.OrderID, t.Order.PaymentStatus)
	if t.RefundDue {
		log.Printf("[order] Warning: order %s was paid after cancellation, refund required", req.OrderID)
	}
	m.publishStatusChanged(t)
	return OrderResponse{Order: t.Order}, nil
}

func (m *OrderModule) handleListCustomers(ctx context.Context, _ ListCustomersRequest, _ *mono.Msg) (ListCustomersResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return ListCustomersResponse{Error: apperror.ToPayload(err)}, nil
	}

	customers, err := svc.ListCustomers(ctx)
	if err != nil {
		return ListCustomersResponse{Error: m.payload("list-customers", err)}, nil
	}
	return ListCustomersResponse{Customers: customers}, nil
}

func (m *OrderModule) handleStats(ctx context.Context, _ StatsRequest, _ *mono.Msg) (StatsResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return StatsResponse{Error: apperror.ToPayload(err)}, nil
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		return StatsResponse{Error: m.payload("order-stats", err)}, nil
	}
	return StatsResponse{Stats: stats}, nil
}

func (m *OrderModule) payload(op string, err error) *apperror.Payload {
	if apperror.KindOf(err) == apperror.KindInternal {
		log.Printf("[order] %s failed: %v", op, err)
	}
	return apperror.ToPayload(err)
}

func (m *OrderModule) publishOrderPlaced(result *CreateOrderResult) {
	if m.eventBus == nil {
		return
	}
	evt := events.OrderPlacedEvent{
		OrderID:       result.Order.ID,
		UserID:        result.Owner.ID,
		TotalAmount:   result.Order.TotalAmount.StringFixed(2),
		Lines:         orderLines(result.Order.Items),
		GuestCheckout: result.IsGuestCheckout,
		PlacedAt:      result.Order.CreatedAt,
	}
	if result.AccountCreated != nil {
		evt.AccountCreated = *result.AccountCreated
	}
	if err := events.OrderPlacedV1.Publish(m.eventBus, evt, nil); err != nil {
		log.Printf("[order] Warning: failed to publish OrderPlaced event: %v", err)
	}
}

func (m *OrderModule) publishStatusChanged(t *Transition) {
	if m.eventBus == nil || !t.Changed() {
		return
	}
	evt := events.OrderStatusChangedEvent{
		OrderID:   t.Order.ID,
		From:      string(t.From),
		To:        string(t.Order.Status),
		ChangedAt: time.Now(),
	}
	if t.StockRestored {
		evt.Lines = orderLines(t.Order.Items)
	}
	if err := events.OrderStatusChangedV1.Publish(m.eventBus, evt, nil); err != nil {
		log.Printf("[order] Warning: failed to publish OrderStatusChanged event: %v", err)
	}
}

func orderLines(items []domain.OrderItem) []events.OrderLine {
	lines := make([]events.OrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, events.OrderLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return lines
}

package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/UtsavMehta1975/walsnut-sub000/domain/apperror"
	orderdomain "github.com/UtsavMehta1975/walsnut-sub000/domain/order"
	domain "github.com/UtsavMehta1975/walsnut-sub000/domain/payment"
	"github.com/UtsavMehta1975/walsnut-sub000/events"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/database"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/order"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Config holds payment module configuration.
type Config struct {
	Gateway       HTTPGatewayConfig
	Currency      string
	WebhookSecret string
}

// PaymentModule provides payment initiation and the gateway webhook.
type PaymentModule struct {
	config   Config
	database *database.PluginModule
	orders   Orders
	gateway  Gateway
	service  *Service
	eventBus mono.EventBus
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*PaymentModule)(nil)
	_ mono.ServiceProviderModule = (*PaymentModule)(nil)
	_ mono.UsePluginModule       = (*PaymentModule)(nil)
	_ mono.DependentModule       = (*PaymentModule)(nil)
	_ mono.EventEmitterModule    = (*PaymentModule)(nil)
	_ mono.EventConsumerModule   = (*PaymentModule)(nil)
	_ mono.HealthCheckableModule = (*PaymentModule)(nil)
)

// NewModule creates a new payment module.
func NewModule(config Config) *PaymentModule {
	return &PaymentModule{config: config}
}

// Name returns the module name.
func (m *PaymentModule) Name() string {
	return "payment"
}

// Dependencies returns the modules this module depends on.
func (m *PaymentModule) Dependencies() []string {
	return []string{"order"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *PaymentModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "order" {
		m.orders = order.NewOrderAdapter(container)
	}
}

// SetPlugin receives the database plugin from the framework.
func (m *PaymentModule) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias == "database" {
		if db, ok := plugin.(*database.PluginModule); ok {
			m.database = db
		}
	}
}

// SetEventBus is called by the framework to inject the event bus.
func (m *PaymentModule) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module publishes.
func (m *PaymentModule) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.PaymentCompletedV1.ToBase(),
		events.PaymentFailedV1.ToBase(),
	}
}

// RegisterEventConsumers closes payment sessions of cancelled orders.
func (m *PaymentModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.OrderStatusChangedV1, m.handleOrderStatusChanged, m); err != nil {
		return fmt.Errorf("failed to register OrderStatusChanged consumer: %w", err)
	}

	log.Printf("[payment] Registered event consumers: OrderStatusChanged")
	return nil
}

// handleOrderStatusChanged is best-effort: a session left open after a missed
// event still cannot be reused, because Initiate only serves PENDING orders.
func (m *PaymentModule) handleOrderStatusChanged(ctx context.Context, event events.OrderStatusChangedEvent, _ *mono.Msg) error {
	if m.service == nil || event.To != string(orderdomain.StatusCancelled) {
		return nil
	}
	closed, err := m.service.CancelOpenSessions(ctx, event.OrderID)
	if err != nil {
		log.Printf("[payment] Failed to close sessions of cancelled order %s: %v", event.OrderID, err)
		return err
	}
	if closed > 0 {
		log.Printf("[payment] Closed %d open session(s) of cancelled order %s", closed, event.OrderID)
	}
	return nil
}

// Start picks a gateway and builds the service.
func (m *PaymentModule) Start(_ context.Context) error {
	if m.database == nil {
		return fmt.Errorf("required plugin 'database' not registered")
	}
	if m.orders == nil {
		return fmt.Errorf("order dependency not set")
	}

	if m.config.Gateway.URL != "" {
		m.gateway = NewHTTPGateway(m.config.Gateway)
	} else {
		sandbox, err := NewSandboxGateway()
		if err != nil {
			return err
		}
		m.gateway = sandbox
	}

	db, err := m.database.DB()
	if err != nil {
		log.Printf("[payment] Module started without database: %v", err)
		return nil
	}

	m.service = NewService(NewSessionRepository(db), m.gateway, m.orders, m.config.Currency, m.config.WebhookSecret)
	log.Printf("[payment] Module started (gateway: %s, webhook: %t)", m.gateway.Name(), m.config.WebhookSecret != "")
	return nil
}

// Stop stops the module.
func (m *PaymentModule) Stop(_ context.Context) error {
	log.Println("[payment] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *PaymentModule) Health(_ context.Context) mono.HealthStatus {
	if m.service == nil {
		return mono.HealthStatus{Healthy: false, Message: "database not configured"}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"gateway": m.gateway.Name(),
			"webhook": m.config.WebhookSecret != "",
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *PaymentModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(container, "initiate-payment", json.Unmarshal, json.Marshal, m.handleInitiate); err != nil {
		return fmt.Errorf("failed to register initiate-payment service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "payment-webhook", json.Unmarshal, json.Marshal, m.handleWebhook); err != nil {
		return fmt.Errorf("failed to register payment-webhook service: %w", err)
	}

	log.Printf("[payment] Registered services: initiate-payment, payment-webhook")
	return nil
}

func (m *PaymentModule) ready() (*Service, error) {
	if m.service == nil {
		return nil, database.ErrNotConfigured
	}
	return m.service, nil
}

func (m *PaymentModule) handleInitiate(ctx context.Context, req InitiateRequest, _ *mono.Msg) (SessionResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return SessionResponse{Error: apperror.ToPayload(err)}, nil
	}

	session, err := svc.Initiate(ctx, req)
	if err != nil {
		return SessionResponse{Error: m.payload("initiate-payment", err)}, nil
	}
	log.Printf("[payment] Session %s for order %s via %s", session.ID, session.OrderID, session.Provider)
	return SessionResponse{Session: session}, nil
}

func (m *PaymentModule) handleWebhook(ctx context.Context, req WebhookRequest, _ *mono.Msg) (WebhookResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return WebhookResponse{Error: apperror.ToPayload(err)}, nil
	}

	result, err := svc.HandleWebhook(ctx, req.Body, req.Signature)
	if err != nil {
		return WebhookResponse{Error: m.payload("payment-webhook", err)}, nil
	}

	if result.Duplicate {
		log.Printf("[payment] Ignored duplicate webhook event %s", result.EventID)
	} else {
		log.Printf("[payment] Webhook event %s: order %s %s", result.EventID, result.OrderID, result.Outcome)
		m.publishOutcome(result)
	}
	return WebhookResponse{Result: result}, nil
}

func (m *PaymentModule) payload(op string, err error) *apperror.Payload {
	if apperror.KindOf(err) == apperror.KindInternal {
		log.Printf("[payment] %s failed: %v", op, err)
	}
	return apperror.ToPayload(err)
}

func (m *PaymentModule) publishOutcome(result *WebhookResult) {
	if m.eventBus == nil {
		return
	}

	now := time.Now()
	var err error
	if result.Outcome == domain.SessionSucceeded {
		err = events.PaymentCompletedV1.Publish(m.eventBus, events.PaymentCompletedEvent{
			OrderID:      result.OrderID,
			SessionToken: result.SessionToken,
			Provider:     result.Provider,
			Amount:       result.Amount.StringFixed(2),
			CompletedAt:  now,
		}, nil)
	} else {
		err = events.PaymentFailedV1.Publish(m.eventBus, events.PaymentFailedEvent{
			OrderID:      result.OrderID,
			SessionToken: result.SessionToken,
			Provider:     result.Provider,
			FailedAt:     now,
		}, nil)
	}
	if err != nil {
		log.Printf("[payment] Warning: failed to publish payment outcome for order %s: %v", result.OrderID, err)
	}
}

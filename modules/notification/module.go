// Package notification turns order and payment events into the admin activity feed.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/UtsavMehta1975/walsnut-sub000/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Entry types.
const (
	TypeOrderPlaced      = "order_placed"
	TypeGuestAccount     = "guest_account_created"
	TypeStatusChanged    = "order_status_changed"
	TypePaymentCompleted = "payment_completed"
	TypePaymentFailed    = "payment_failed"
)

// ListActivityRequest asks for the newest feed entries.
type ListActivityRequest struct {
	Limit int `json:"limit"`
}

// ListActivityResponse carries feed entries.
type ListActivityResponse struct {
	Entries []Entry `json:"entries"`
}

// NotificationModule subscribes to domain events and keeps the activity feed.
type NotificationModule struct {
	feed *Feed
}

var _ mono.Module = (*NotificationModule)(nil)
var _ mono.EventConsumerModule = (*NotificationModule)(nil)
var _ mono.ServiceProviderModule = (*NotificationModule)(nil)

// NewModule creates a notification module keeping up to capacity entries.
func NewModule(capacity int) *NotificationModule {
	return &NotificationModule{feed: NewFeed(capacity)}
}

func (m *NotificationModule) Name() string {
	return "notification"
}

func (m *NotificationModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.OrderPlacedV1, m.handleOrderPlaced, m); err != nil {
		return fmt.Errorf("failed to register OrderPlaced consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.OrderStatusChangedV1, m.handleOrderStatusChanged, m); err != nil {
		return fmt.Errorf("failed to register OrderStatusChanged consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.PaymentCompletedV1, m.handlePaymentCompleted, m); err != nil {
		return fmt.Errorf("failed to register PaymentCompleted consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.PaymentFailedV1, m.handlePaymentFailed, m); err != nil {
		return fmt.Errorf("failed to register PaymentFailed consumer: %w", err)
	}

	log.Printf("[notification] Registered event consumers: OrderPlaced, OrderStatusChanged, PaymentCompleted, PaymentFailed")
	return nil
}

func (m *NotificationModule) handleOrderPlaced(_ context.Context, event events.OrderPlacedEvent, _ *mono.Msg) error {
	log.Printf("[notification] Order placed: %s by user %s", event.OrderID, event.UserID)
	m.feed.Add(Entry{
		Type:      TypeOrderPlaced,
		OrderID:   event.OrderID,
		Message:   fmt.Sprintf("New order %s for %s (%d lines)", event.OrderID, event.TotalAmount, len(event.Lines)),
		Timestamp: event.PlacedAt,
	})
	if event.AccountCreated {
		m.feed.Add(Entry{
			Type:      TypeGuestAccount,
			OrderID:   event.OrderID,
			Message:   fmt.Sprintf("Guest checkout created account %s", event.UserID),
			Timestamp: event.PlacedAt,
		})
	}
	return nil
}

func (m *NotificationModule) handleOrderStatusChanged(_ context.Context, event events.OrderStatusChangedEvent, _ *mono.Msg) error {
	log.Printf("[notification] Order %s: %s -> %s", event.OrderID, event.From, event.To)
	m.feed.Add(Entry{
		Type:      TypeStatusChanged,
		OrderID:   event.OrderID,
		Message:   fmt.Sprintf("Order %s moved from %s to %s", event.OrderID, event.From, event.To),
		Timestamp: event.ChangedAt,
	})
	return nil
}

func (m *NotificationModule) handlePaymentCompleted(_ context.Context, event events.PaymentCompletedEvent, _ *mono.Msg) error {
	log.Printf("[notification] Payment completed for order %s", event.OrderID)
	m.feed.Add(Entry{
		Type:      TypePaymentCompleted,
		OrderID:   event.OrderID,
		Message:   fmt.Sprintf("Payment of %s received for order %s via %s", event.Amount, event.OrderID, event.Provider),
		Timestamp: event.CompletedAt,
	})
	return nil
}

func (m *NotificationModule) handlePaymentFailed(_ context.Context, event events.PaymentFailedEvent, _ *mono.Msg) error {
	log.Printf("[notification] Payment failed for order %s", event.OrderID)
	m.feed.Add(Entry{
		Type:      TypePaymentFailed,
		OrderID:   event.OrderID,
		Message:   fmt.Sprintf("Payment failed for order %s via %s", event.OrderID, event.Provider),
		Timestamp: event.FailedAt,
	})
	return nil
}

// RegisterServices exposes the feed to the api module.
func (m *NotificationModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(container, "list-activity", json.Unmarshal, json.Marshal, m.handleListActivity); err != nil {
		return fmt.Errorf("failed to register list-activity service: %w", err)
	}
	log.Printf("[notification] Registered services: list-activity")
	return nil
}

func (m *NotificationModule) handleListActivity(_ context.Context, req ListActivityRequest, _ *mono.Msg) (ListActivityResponse, error) {
	return ListActivityResponse{Entries: m.feed.Latest(req.Limit)}, nil
}

func (m *NotificationModule) Start(_ context.Context) error {
	log.Println("[notification] Module started - listening for order and payment events")
	return nil
}

func (m *NotificationModule) Stop(_ context.Context) error {
	log.Println("[notification] Module stopped")
	return nil
}

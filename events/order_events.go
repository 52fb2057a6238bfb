package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// OrderLine is a product and quantity carried on order events.
type OrderLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// OrderPlacedEvent is emitted after an order transaction commits.
type OrderPlacedEvent struct {
	OrderID        string      `json:"order_id"`
	UserID         string      `json:"user_id"`
	TotalAmount    string      `json:"total_amount"`
	Lines          []OrderLine `json:"lines"`
	GuestCheckout  bool        `json:"guest_checkout"`
	AccountCreated bool        `json:"account_created"`
	PlacedAt       time.Time   `json:"placed_at"`
}

// OrderPlacedV1 is the typed event definition for order placement.
// Subject: events.order.v1.order-placed
var OrderPlacedV1 = helper.EventDefinition[OrderPlacedEvent](
	"order", "OrderPlaced", "v1",
)

// OrderStatusChangedEvent is emitted when an order moves between statuses.
// Lines is set when the change restored stock.
type OrderStatusChangedEvent struct {
	OrderID   string      `json:"order_id"`
	From      string      `json:"from"`
	To        string      `json:"to"`
	Lines     []OrderLine `json:"lines,omitempty"`
	ChangedAt time.Time   `json:"changed_at"`
}

// OrderStatusChangedV1 is the typed event definition for status changes.
// Subject: events.order.v1.order-status-changed
var OrderStatusChangedV1 = helper.EventDefinition[OrderStatusChangedEvent](
	"order", "OrderStatusChanged", "v1",
)

package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// PaymentCompletedEvent is emitted when the gateway confirms a payment.
type PaymentCompletedEvent struct {
	OrderID      string    `json:"order_id"`
	SessionToken string    `json:"session_token"`
	Provider     string    `json:"provider"`
	Amount       string    `json:"amount"`
	CompletedAt  time.Time `json:"completed_at"`
}

// PaymentCompletedV1 is the typed event definition for successful payments.
// Subject: events.payment.v1.payment-completed
var PaymentCompletedV1 = helper.EventDefinition[PaymentCompletedEvent](
	"payment", "PaymentCompleted", "v1",
)

// PaymentFailedEvent is emitted when the gateway reports a failed payment.
type PaymentFailedEvent struct {
	OrderID      string    `json:"order_id"`
	SessionToken string    `json:"session_token"`
	Provider     string    `json:"provider"`
	FailedAt     time.Time `json:"failed_at"`
}

// PaymentFailedV1 is the typed event definition for failed payments.
// Subject: events.payment.v1.payment-failed
var PaymentFailedV1 = helper.EventDefinition[PaymentFailedEvent](
	"payment", "PaymentFailed", "v1",
)

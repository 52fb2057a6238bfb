package payment

import (
	"github.com/UtsavMehta1975/walsnut-sub000/domain/apperror"
	domain "github.com/UtsavMehta1975/walsnut-sub000/domain/payment"
	"github.com/shopspring/decimal"
)

// SignatureHeader carries the hex HMAC-SHA256 of a webhook body.
const SignatureHeader = "X-Payment-Signature"

// Webhook outcome values sent by the gateway.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
)

// InitiateRequest asks for a payment session on an order the caller owns.
type InitiateRequest struct {
	OrderID       string        `json:"order_id"`
	UserID        string        `json:"user_id"`
	PaymentMethod domain.Method `json:"payment_method"`
}

// SessionResponse carries a payment session.
type SessionResponse struct {
	Session *domain.Session   `json:"session,omitempty"`
	Error   *apperror.Payload `json:"error,omitempty"`
}

// WebhookRequest carries a raw gateway callback and its signature.
type WebhookRequest struct {
	Body      []byte `json:"body"`
	Signature string `json:"signature"`
}

// WebhookEvent is the body the gateway posts.
type WebhookEvent struct {
	EventID      string `json:"eventId"`
	SessionToken string `json:"sessionToken"`
	Status       string `json:"status"`
}

// WebhookResult is the outcome of processing one callback.
type WebhookResult struct {
	EventID      string               `json:"event_id"`
	OrderID      string               `json:"order_id"`
	SessionToken string               `json:"session_token"`
	Provider     string               `json:"provider"`
	Amount       decimal.Decimal      `json:"amount"`
	Outcome      domain.SessionStatus `json:"outcome"`
	Duplicate    bool                 `json:"duplicate"`
}

// WebhookResponse carries a webhook result.
type WebhookResponse struct {
	Result *WebhookResult    `json:"result,omitempty"`
	Error  *apperror.Payload `json:"error,omitempty"`
}

// SessionRequest is what a gateway needs to open a session.
type SessionRequest struct {
	Reference string
	Amount    decimal.Decimal
	Currency  string
	Method    domain.Method
}

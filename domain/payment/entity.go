package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Method is a payment method accepted at checkout.
type Method string

const (
	MethodCard       Method = "card"
	MethodUPI        Method = "upi"
	MethodNetBanking Method = "netbanking"
	MethodWallet     Method = "wallet"
	MethodCOD        Method = "cod"
)

// Valid reports whether m is an accepted method.
func (m Method) Valid() bool {
	switch m {
	case MethodCard, MethodUPI, MethodNetBanking, MethodWallet, MethodCOD:
		return true
	}
	return false
}

// SessionStatus is the state of a gateway session.
type SessionStatus string

const (
	SessionOpen      SessionStatus = "OPEN"
	SessionSucceeded SessionStatus = "SUCCEEDED"
	SessionFailed    SessionStatus = "FAILED"
	SessionCancelled SessionStatus = "CANCELLED"
)

// Session records a payment session issued by a gateway for an order.
type Session struct {
	ID            string          `gorm:"primaryKey;type:text" json:"id"`
	OrderID       string          `gorm:"index;not null;type:text" json:"order_id"`
	Provider      string          `gorm:"type:text;not null" json:"provider"`
	PaymentMethod Method          `gorm:"type:text;not null" json:"payment_method"`
	SessionToken  string          `gorm:"uniqueIndex;not null;type:text" json:"session_token"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Currency      string          `gorm:"type:text;not null" json:"currency"`
	Status        SessionStatus   `gorm:"type:text;not null;default:OPEN" json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName returns the table name for the Session entity.
func (Session) TableName() string {
	return "payment_sessions"
}

// Event is a processed gateway webhook, keyed for idempotency.
type Event struct {
	EventID      string        `gorm:"primaryKey;type:text" json:"event_id"`
	SessionToken string        `gorm:"index;type:text;not null" json:"session_token"`
	Outcome      SessionStatus `gorm:"type:text;not null" json:"outcome"`
	ReceivedAt   time.Time     `json:"received_at"`
}

// TableName returns the table name for the Event entity.
func (Event) TableName() string {
	return "payment_events"
}

package order

import (
	"time"

	"github.com/UtsavMehta1975/walsnut-sub000/domain/catalog"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/user"
	"github.com/shopspring/decimal"
)

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusProcessing Status = "PROCESSING"
	StatusShipped    Status = "SHIPPED"
	StatusDelivered  Status = "DELIVERED"
	StatusCancelled  Status = "CANCELLED"
)

// transitions lists the statuses reachable from each status.
var transitions = map[Status][]Status{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusProcessing, StatusCancelled},
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether an order in status s may move to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentStatus is the settlement state of an order.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentFailed   PaymentStatus = "FAILED"
	PaymentRefunded PaymentStatus = "REFUNDED"
)

// Valid reports whether p is a known payment status.
func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// Order is a purchase placed at checkout.
type Order struct {
	ID              string          `gorm:"primaryKey;type:text" json:"id"`
	UserID          string          `gorm:"index;not null;type:text" json:"user_id"`
	User            *user.User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	Status          Status          `gorm:"index;type:text;not null;default:PENDING" json:"status"`
	ShippingAddress string          `gorm:"type:text;not null" json:"shipping_address"`
	PaymentStatus   PaymentStatus   `gorm:"index;type:text;not null;default:PENDING" json:"payment_status"`
	PaymentMethod   string          `gorm:"type:text" json:"payment_method"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName returns the table name for the Order entity.
func (Order) TableName() string {
	return "orders"
}

// OrderItem is one line of an order. It is never modified after creation.
type OrderItem struct {
	ID                    string           `gorm:"primaryKey;type:text" json:"id"`
	OrderID               string           `gorm:"index;not null;type:text" json:"order_id"`
	ProductID             string           `gorm:"index;not null;type:text" json:"product_id"`
	Product               *catalog.Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity              int              `gorm:"not null" json:"quantity"`
	PriceAtTimeOfPurchase decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"price_at_time_of_purchase"`
	CreatedAt             time.Time        `json:"created_at"`
}

// TableName returns the table name for the OrderItem entity.
func (OrderItem) TableName() string {
	return "order_items"
}

// Subtotal returns quantity times purchase price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.PriceAtTimeOfPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

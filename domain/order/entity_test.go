package order

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusShipped, false},
		{StatusConfirmed, StatusProcessing, true},
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusShipped, StatusDelivered, true},
		{StatusShipped, StatusCancelled, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
				t.Errorf("CanTransitionTo() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusValid(t *testing.T) {
	if !StatusDelivered.Valid() || Status("LOST").Valid() {
		t.Error("Status.Valid() misclassified")
	}
	if !PaymentRefunded.Valid() || PaymentStatus("VOID").Valid() {
		t.Error("PaymentStatus.Valid() misclassified")
	}
}

func TestOrderItemSubtotal(t *testing.T) {
	item := OrderItem{Quantity: 3, PriceAtTimeOfPurchase: decimal.RequireFromString("1250.50")}
	if got := item.Subtotal(); !got.Equal(decimal.RequireFromString("3751.50")) {
		t.Errorf("Subtotal() = %s, want 3751.50", got)
	}
}

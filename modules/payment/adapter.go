package payment

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/UtsavMehta1975/walsnut-sub000/domain/payment"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// PaymentPort defines the payment operations other modules use.
type PaymentPort interface {
	Initiate(ctx context.Context, req InitiateRequest) (*domain.Session, error)
	HandleWebhook(ctx context.Context, body []byte, signature string) (*WebhookResult, error)
}

// PaymentAdapter implements PaymentPort using the service container.
type PaymentAdapter struct {
	container mono.ServiceContainer
}

var _ PaymentPort = (*PaymentAdapter)(nil)

// NewPaymentAdapter creates a new PaymentAdapter.
func NewPaymentAdapter(container mono.ServiceContainer) *PaymentAdapter {
	return &PaymentAdapter{container: container}
}

// Initiate opens a payment session for an order.
func (a *PaymentAdapter) Initiate(ctx context.Context, req InitiateRequest) (*domain.Session, error) {
	var resp SessionResponse
	if err := helper.CallRequestReplyService(ctx, a.container, "initiate-payment", json.Marshal, json.Unmarshal, &req, &resp); err != nil {
		return nil, fmt.Errorf("initiate-payment request failed: %w", err)
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return resp.Session, nil
}

// HandleWebhook forwards a raw gateway callback.
func (a *PaymentAdapter) HandleWebhook(ctx context.Context, body []byte, signature string) (*WebhookResult, error) {
	req := WebhookRequest{Body: body, Signature: signature}
	var resp WebhookResponse
	if err := helper.CallRequestReplyService(ctx, a.container, "payment-webhook", json.Marshal, json.Unmarshal, &req, &resp); err != nil {
		return nil, fmt.Errorf("payment-webhook request failed: %w", err)
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return resp.Result, nil
}

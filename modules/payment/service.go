// Package payment opens gateway sessions for orders and processes the
// gateway's signed callbacks.
package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/UtsavMehta1975/walsnut-sub000/domain/apperror"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/order"
	domain "github.com/UtsavMehta1975/walsnut-sub000/domain/payment"
	"github.com/google/uuid"
)

// Errors reported by the payment service.
var (
	ErrWebhookDisabled    = apperror.Config("payment webhook not configured")
	ErrBadSignature       = apperror.Unauthorized("invalid webhook signature")
	ErrSessionNotFound    = apperror.NotFound("payment session not found")
	ErrNotAwaitingPayment = apperror.Validation("order is not awaiting payment", nil)
)

// Orders is what payment needs from the order module.
type Orders interface {
	// GetOrder loads an order on behalf of its owner.
	GetOrder(ctx context.Context, orderID, userID string) (*order.Order, error)
	// ApplyPayment records a gateway outcome on an order. It must be idempotent.
	ApplyPayment(ctx context.Context, orderID string, paid bool) (*order.Order, error)
}

// Service issues payment sessions and applies gateway callbacks.
type Service struct {
	repo          *SessionRepository
	gateway       Gateway
	orders        Orders
	currency      string
	webhookSecret string
}

// NewService creates a new payment service.
func NewService(repo *SessionRepository, gateway Gateway, orders Orders, currency, webhookSecret string) *Service {
	if currency == "" {
		currency = "INR"
	}
	return &Service{
		repo:          repo,
		gateway:       gateway,
		orders:        orders,
		currency:      currency,
		webhookSecret: webhookSecret,
	}
}

// Initiate returns a session token the client widget can complete payment with.
// An open session for the same order and method is reused.
func (s *Service) Initiate(ctx context.Context, req InitiateRequest) (*domain.Session, error) {
	fields := map[string]string{}
	if strings.TrimSpace(req.OrderID) == "" {
		fields["orderId"] = "is required"
	}
	if !req.PaymentMethod.Valid() {
		fields["paymentMethod"] = "must be one of card, upi, netbanking, wallet, cod"
	}
	if len(fields) > 0 {
		return nil, apperror.Validation("invalid payment request", fields)
	}
	if req.UserID == "" {
		return nil, apperror.Unauthorized("authentication required")
	}

	o, err := s.orders.GetOrder(ctx, req.OrderID, req.UserID)
	if err != nil {
		return nil, err
	}
	awaiting := o.PaymentStatus == order.PaymentPending || o.PaymentStatus == order.PaymentFailed
	if o.Status != order.StatusPending || !awaiting {
		return nil, ErrNotAwaitingPayment.WithDetails(map[string]any{
			"status":        string(o.Status),
			"paymentStatus": string(o.PaymentStatus),
		})
	}

	existing, err := s.repo.FindOpen(ctx, o.ID, req.PaymentMethod)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	token, err := s.gateway.CreateSession(ctx, SessionRequest{
		Reference: o.ID,
		Amount:    o.TotalAmount,
		Currency:  s.currency,
		Method:    req.PaymentMethod,
	})
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "payment gateway unavailable", err)
	}

	session := &domain.Session{
		ID:            uuid.New().String(),
		OrderID:       o.ID,
		Provider:      s.gateway.Name(),
		PaymentMethod: req.PaymentMethod,
		SessionToken:  token,
		Amount:        o.TotalAmount,
		Currency:      s.currency,
		Status:        domain.SessionOpen,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func verifySignature(secret string, body []byte, signature string) bool {
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// HandleWebhook verifies and applies a gateway callback. Replays of a processed
// event are reported as duplicates and change nothing.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, signature string) (*WebhookResult, error) {
	if s.webhookSecret == "" {
		return nil, ErrWebhookDisabled
	}
	if !verifySignature(s.webhookSecret, body, signature) {
		return nil, ErrBadSignature
	}

	var evt WebhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return nil, apperror.Validation("invalid webhook body", nil)
	}

	fields := map[string]string{}
	if evt.EventID == "" {
		fields["eventId"] = "is required"
	}
	if evt.SessionToken == "" {
		fields["sessionToken"] = "is required"
	}
	var outcome domain.SessionStatus
	switch evt.Status {
	case OutcomeSucceeded:
		outcome = domain.SessionSucceeded
	case OutcomeFailed:
		outcome = domain.SessionFailed
	default:
		fields["status"] = "must be succeeded or failed"
	}
	if len(fields) > 0 {
		return nil, apperror.Validation("invalid webhook body", fields)
	}

	session, err := s.repo.FindByToken(ctx, evt.SessionToken)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	result := &WebhookResult{
		EventID:      evt.EventID,
		OrderID:      session.OrderID,
		SessionToken: session.SessionToken,
		Provider:     session.Provider,
		Amount:       session.Amount,
		Outcome:      outcome,
	}

	seen, err := s.repo.EventRecorded(ctx, evt.EventID)
	if err != nil {
		return nil, err
	}
	if seen {
		result.Duplicate = true
		return result, nil
	}

	// The order is updated before the event is stored. If either step fails the
	// webhook is not acknowledged, and the gateway's retry runs both again.
	if _, err := s.orders.ApplyPayment(ctx, session.OrderID, outcome == domain.SessionSucceeded); err != nil {
		return nil, err
	}

	recorded, err := s.repo.RecordEvent(ctx, evt.EventID, session, outcome)
	if err != nil {
		return nil, err
	}
	result.Duplicate = !recorded
	return result, nil
}

// CancelOpenSessions closes the open sessions of a cancelled order.
func (s *Service) CancelOpenSessions(ctx context.Context, orderID string) (int64, error) {
	return s.repo.CancelOpen(ctx, orderID)
}

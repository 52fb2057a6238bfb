package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "github.com/UtsavMehta1975/walsnut-sub000/domain/payment"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionRepository persists payment sessions and processed webhook events.
type SessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// FindOpen returns the open session for an order and method, or nil.
func (r *SessionRepository) FindOpen(ctx context.Context, orderID string, method domain.Method) (*domain.Session, error) {
	var s domain.Session
	err := r.db.WithContext(ctx).
		Where("order_id = ? AND payment_method = ? AND status = ?", orderID, method, domain.SessionOpen).
		Order("created_at DESC").
		First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payment session: %w", err)
	}
	return &s, nil
}

// FindByToken returns the session a gateway token belongs to, or nil.
func (r *SessionRepository) FindByToken(ctx context.Context, token string) (*domain.Session, error) {
	var s domain.Session
	if err := r.db.WithContext(ctx).First(&s, "session_token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payment session: %w", err)
	}
	return &s, nil
}

// Create inserts a session.
func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return fmt.Errorf("failed to create payment session: %w", err)
	}
	return nil
}

// EventRecorded reports whether a webhook event was already processed.
func (r *SessionRepository) EventRecorded(ctx context.Context, eventID string) (bool, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&domain.Event{}).Where("event_id = ?", eventID).Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to look up payment event: %w", err)
	}
	return n > 0, nil
}

// CancelOpen closes every open session of an order and returns how many it closed.
func (r *SessionRepository) CancelOpen(ctx context.Context, orderID string) (int64, error) {
	result := r.db.WithContext(ctx).Model(&domain.Session{}).
		Where("order_id = ? AND status = ?", orderID, domain.SessionOpen).
		Update("status", domain.SessionCancelled)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to cancel payment sessions: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// RecordEvent stores a webhook event and applies its outcome to the session.
// It reports false, and changes nothing, when the event was already recorded.
func (r *SessionRepository) RecordEvent(ctx context.Context, eventID string, s *domain.Session, outcome domain.SessionStatus) (bool, error) {
	recorded := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&domain.Event{
			EventID:      eventID,
			SessionToken: s.SessionToken,
			Outcome:      outcome,
			ReceivedAt:   time.Now(),
		})
		if result.Error != nil {
			return fmt.Errorf("failed to record payment event: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}
		recorded = true

		// A late failure never overrides a success.
		err := tx.Model(&domain.Session{}).
			Where("id = ? AND status <> ?", s.ID, domain.SessionSucceeded).
			Update("status", outcome).Error
		if err != nil {
			return fmt.Errorf("failed to update payment session: %w", err)
		}
		return nil
	})
	return recorded, err
}

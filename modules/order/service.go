// Package order places, lists and administers orders.
//
// Checkout runs in a single database transaction: the buyer is resolved
// (or a guest account created), each line's stock is decremented with a
// guarded UPDATE that cannot go below zero, and the order and its items
// are inserted. Any failure rolls the whole checkout back.
package order

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strings"

	"github.com/UtsavMehta1975/walsnut-sub000/domain/apperror"
	domain "github.com/UtsavMehta1975/walsnut-sub000/domain/order"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/user"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrOrderNotFound is returned when an order does not exist or belongs to someone else.
var ErrOrderNotFound = apperror.NotFound("order not found")

// ErrAuthRequired is returned when checkout has neither a session nor guest details.
var ErrAuthRequired = apperror.Unauthorized("authentication required")

// SecretHasher produces password hashes for accounts nobody can log into yet.
type SecretHasher interface {
	RandomHash() (string, error)
}

// Service implements checkout and order administration.
type Service struct {
	repo   *OrderRepository
	hasher SecretHasher
}

// NewService creates a new order service.
func NewService(repo *OrderRepository, hasher SecretHasher) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
	}
}

// Transition describes a status change applied to an order.
type Transition struct {
	Order         *domain.Order
	From          domain.Status
	StockRestored bool

	// RefundDue is set when a payment succeeded on an order that was already cancelled.
	RefundDue bool
}

// Changed reports whether the order's status moved.
func (t *Transition) Changed() bool {
	return t != nil && t.Order != nil && t.Order.Status != t.From
}

// CreateOrder places an order for the request's identity.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResult, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	var guest *user.GuestProfile
	switch req.Identity.Kind {
	case user.IdentityAuthenticated:
		if req.Identity.UserID == "" {
			return nil, ErrAuthRequired
		}
	case user.IdentityGuest:
		if req.Identity.Guest == nil || req.Identity.Guest.Email == "" {
			return nil, ErrAuthRequired
		}
		guest = req.Identity.Guest
	default:
		return nil, ErrAuthRequired
	}

	// bcrypt is slow; hash before taking the transaction when the guest is new.
	var guestHash string
	if guest != nil {
		existing, err := s.repo.FindUserByEmail(ctx, guest.Email)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			if guestHash, err = s.hasher.RandomHash(); err != nil {
				return nil, err
			}
		}
	}

	result := &CreateOrderResult{IsGuestCheckout: guest != nil}
	orderID := uuid.New().String()

	err := s.repo.Transaction(ctx, func(tx *OrderRepository) error {
		owner, created, err := s.resolveOwner(ctx, tx, req.Identity, guestHash)
		if err != nil {
			return err
		}
		if guest != nil {
			result.AccountCreated = &created
		}
		result.Owner = Owner{ID: owner.ID, Email: owner.Email, Name: owner.Name}

		items := make([]domain.OrderItem, 0, len(req.Items))
		subtotal := decimal.Zero
		for _, line := range req.Items {
			p, err := tx.FindProduct(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if p == nil {
				return apperror.NotFound("product not found").WithDetails(map[string]any{"productId": line.ProductID})
			}

			ok, err := tx.DecrementStock(ctx, p.ID, line.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				available, err := tx.StockOf(ctx, p.ID)
				if err != nil {
					return err
				}
				return apperror.New(apperror.KindInsufficientStock, "insufficient stock").WithDetails(map[string]any{
					"productId": p.ID,
					"requested": line.Quantity,
					"available": available,
				})
			}

			item := domain.OrderItem{
				ID:                    uuid.New().String(),
				OrderID:               orderID,
				ProductID:             p.ID,
				Quantity:              line.Quantity,
				PriceAtTimeOfPurchase: p.Price,
			}
			subtotal = subtotal.Add(item.Subtotal())
			items = append(items, item)
		}

		if req.TotalAmount.LessThan(subtotal) {
			return apperror.Validation("total amount is below the order subtotal", map[string]string{
				"totalAmount": fmt.Sprintf("must be at least %s", subtotal.StringFixed(2)),
			})
		}

		o := &domain.Order{
			ID:              orderID,
			UserID:          owner.ID,
			TotalAmount:     req.TotalAmount,
			Status:          domain.StatusPending,
			ShippingAddress: strings.TrimSpace(req.ShippingAddress),
			PaymentStatus:   domain.PaymentPending,
			PaymentMethod:   strings.TrimSpace(req.PaymentMethod),
			Items:           items,
		}
		if err := tx.CreateOrder(ctx, o); err != nil {
			return err
		}

		backfill := map[string]string{"address": o.ShippingAddress}
		if guest != nil {
			backfill["phone"] = guest.Phone
			backfill["name"] = guest.Name
		}
		return tx.BackfillUser(ctx, owner.ID, backfill)
	})
	if err != nil {
		return nil, err
	}

	o, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperror.Internal(fmt.Errorf("order %s missing after commit", orderID))
	}
	result.Order = o
	return result, nil
}

// resolveOwner finds the account the order belongs to, creating a guest account if needed.
func (s *Service) resolveOwner(ctx context.Context, tx *OrderRepository, id user.Identity, guestHash string) (*user.User, bool, error) {
	if id.Kind == user.IdentityAuthenticated {
		u, err := tx.FindUserByID(ctx, id.UserID)
		if err != nil {
			return nil, false, err
		}
		if u == nil {
			return nil, false, ErrAuthRequired
		}
		return u, false, nil
	}

	email := user.NormalizeEmail(id.Guest.Email)
	if u, err := tx.FindUserByEmail(ctx, email); err != nil || u != nil {
		return u, false, err
	}

	if guestHash == "" {
		hash, err := s.hasher.RandomHash()
		if err != nil {
			return nil, false, err
		}
		guestHash = hash
	}

	created, err := tx.InsertUserIfAbsent(ctx, &user.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: &guestHash,
		Name:         id.Guest.Name,
		Phone:        id.Guest.Phone,
		Role:         user.RoleCustomer,
	})
	if err != nil {
		return nil, false, err
	}

	// Re-select so a concurrent checkout with the same email converges on one row.
	u, err := tx.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	if u == nil {
		return nil, false, apperror.Internal(fmt.Errorf("guest account %s missing after insert", email))
	}
	return u, created, nil
}

func validateCreate(req CreateOrderRequest) error {
	fields := map[string]string{}

	if len(req.Items) == 0 {
		fields["items"] = "at least one item is required"
	}
	for i, line := range req.Items {
		prefix := fmt.Sprintf("items[%d].", i)
		if strings.TrimSpace(line.ProductID) == "" {
			fields[prefix+"productId"] = "is required"
		}
		if line.Quantity < MinQuantity || line.Quantity > MaxQuantity {
			fields[prefix+"quantity"] = fmt.Sprintf("must be between %d and %d", MinQuantity, MaxQuantity)
		}
		if line.Price.IsNegative() {
			fields[prefix+"price"] = "must not be negative"
		}
	}
	if strings.TrimSpace(req.ShippingAddress) == "" {
		fields["shippingAddress"] = "is required"
	}
	if req.TotalAmount.IsNegative() {
		fields["totalAmount"] = "must not be negative"
	}
	if req.CustomerInfo != nil && req.CustomerInfo.Email != "" {
		if _, err := mail.ParseAddress(req.CustomerInfo.Email); err != nil {
			fields["customerInfo.email"] = "must be a valid email address"
		}
	}

	if len(fields) > 0 {
		return apperror.Validation("invalid order payload", fields)
	}
	return nil
}

// NormalizeListRequest applies defaults and rejects out-of-range paging and unknown filters.
func NormalizeListRequest(req ListOrdersRequest) (ListOrdersRequest, error) {
	fields := map[string]string{}
	switch {
	case req.Page == 0:
		req.Page = 1
	case req.Page < 0:
		fields["page"] = "must be a positive integer"
	}
	switch {
	case req.Limit == 0:
		req.Limit = DefaultPageSize
	case req.Limit < 0 || req.Limit > MaxPageSize:
		fields["limit"] = fmt.Sprintf("must be between 1 and %d", MaxPageSize)
	}
	if req.Status != "" && !req.Status.Valid() {
		fields["status"] = "unknown order status"
	}
	if req.PaymentStatus != "" && !req.PaymentStatus.Valid() {
		fields["paymentStatus"] = "unknown payment status"
	}
	if len(fields) > 0 {
		return req, apperror.Validation("invalid query parameters", fields)
	}
	return req, nil
}

// ListOrders returns one page of a user's orders.
func (s *Service) ListOrders(ctx context.Context, req ListOrdersRequest) ([]domain.Order, int64, ListOrdersRequest, error) {
	if req.UserID == "" {
		return nil, 0, req, ErrAuthRequired
	}
	req, err := NormalizeListRequest(req)
	if err != nil {
		return nil, 0, req, err
	}
	orders, total, err := s.repo.ListUserOrders(ctx, req)
	if err != nil {
		return nil, 0, req, err
	}
	return orders, total, req, nil
}

// GetOrder returns an order. A non-empty userID hides orders owned by anyone else.
func (s *Service) GetOrder(ctx context.Context, orderID, userID string) (*domain.Order, error) {
	o, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil || (userID != "" && o.UserID != userID) {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

// ListAllOrders returns every order for the admin views.
func (s *Service) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	return s.repo.ListAllOrders(ctx)
}

// UpdateStatus moves an order along the status table.
// Cancelling returns the order's stock and refunds a paid order.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, to domain.Status) (*Transition, error) {
	if !to.Valid() {
		return nil, apperror.Validation("invalid status", map[string]string{"status": "unknown order status"})
	}

	t := &Transition{}
	err := s.repo.Transaction(ctx, func(tx *OrderRepository) error {
		o, err := tx.FindOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return ErrOrderNotFound
		}
		t.From = o.Status
		if !o.Status.CanTransitionTo(to) {
			return apperror.Validation("invalid status transition", nil).WithDetails(map[string]any{
				"from": string(o.Status),
				"to":   string(to),
			})
		}

		columns := map[string]any{"status": to}
		if to == domain.StatusCancelled {
			for _, item := range o.Items {
				if err := tx.RestoreStock(ctx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}
			t.StockRestored = len(o.Items) > 0
			if o.PaymentStatus == domain.PaymentPaid {
				columns["payment_status"] = domain.PaymentRefunded
			}
		}
		return tx.UpdateOrder(ctx, o.ID, columns)
	})
	if err != nil {
		return nil, err
	}

	if t.Order, err = s.repo.FindOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return t, nil
}

// ApplyPaymentResult records a gateway outcome on an order.
// A success marks it PAID and confirms a pending order. A failure never overrides PAID.
// A success on a cancelled order, whose stock is already back on the shelf, is
// recorded as REFUNDED so it never counts as revenue.
func (s *Service) ApplyPaymentResult(ctx context.Context, orderID string, paid bool) (*Transition, error) {
	t := &Transition{}
	err := s.repo.Transaction(ctx, func(tx *OrderRepository) error {
		o, err := tx.FindOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if o == nil {
			return ErrOrderNotFound
		}
		t.From = o.Status

		columns := map[string]any{}
		settled := o.PaymentStatus == domain.PaymentPaid || o.PaymentStatus == domain.PaymentRefunded
		switch {
		case paid && o.Status == domain.StatusCancelled:
			if o.PaymentStatus != domain.PaymentRefunded {
				columns["payment_status"] = domain.PaymentRefunded
				t.RefundDue = true
			}
		case paid && o.PaymentStatus != domain.PaymentPaid:
			columns["payment_status"] = domain.PaymentPaid
			if o.Status == domain.StatusPending {
				columns["status"] = domain.StatusConfirmed
			}
		case !paid && !settled:
			columns["payment_status"] = domain.PaymentFailed
		}
		if len(columns) == 0 {
			return nil
		}
		return tx.UpdateOrder(ctx, o.ID, columns)
	})
	if err != nil {
		return nil, err
	}

	if t.Order, err = s.repo.FindOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return t, nil
}

// ListCustomers aggregates order history per user.
func (s *Service) ListCustomers(ctx context.Context) ([]CustomerSummary, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.ListOrderHeaders(ctx)
	if err != nil {
		return nil, err
	}

	byUser := make(map[string]*CustomerSummary, len(users))
	customers := make([]CustomerSummary, len(users))
	for i, u := range users {
		customers[i] = CustomerSummary{
			ID:         u.ID,
			Email:      u.Email,
			Name:       u.Name,
			Phone:      u.Phone,
			Role:       u.Role,
			TotalSpent: decimal.Zero,
			CreatedAt:  u.CreatedAt,
		}
		byUser[u.ID] = &customers[i]
	}

	for _, o := range orders {
		c, ok := byUser[o.UserID]
		if !ok {
			continue
		}
		c.OrderCount++
		if o.Status != domain.StatusCancelled {
			c.TotalSpent = c.TotalSpent.Add(o.TotalAmount)
		}
		if c.LastOrderAt == nil || o.CreatedAt.After(*c.LastOrderAt) {
			at := o.CreatedAt
			c.LastOrderAt = &at
		}
	}

	sort.SliceStable(customers, func(i, j int) bool {
		return customers[i].CreatedAt.After(customers[j].CreatedAt)
	})
	return customers, nil
}

// Stats computes the order counters for the admin dashboard.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	orders, err := s.repo.ListOrderHeaders(ctx)
	if err != nil {
		return nil, err
	}
	customers, err := s.repo.CountCustomers(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Revenue:    decimal.Zero,
		OrderCount: len(orders),
		OrdersByStatus: map[domain.Status]int{
			domain.StatusPending:    0,
			domain.StatusConfirmed:  0,
			domain.StatusProcessing: 0,
			domain.StatusShipped:    0,
			domain.StatusDelivered:  0,
			domain.StatusCancelled:  0,
		},
		CustomerCount: customers,
	}
	for _, o := range orders {
		stats.OrdersByStatus[o.Status]++
		switch o.PaymentStatus {
		case domain.PaymentPaid:
			stats.Revenue = stats.Revenue.Add(o.TotalAmount)
		case domain.PaymentPending:
			if o.Status != domain.StatusCancelled {
				stats.PendingPayments++
			}
		}
	}
	return stats, nil
}

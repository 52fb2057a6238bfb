package order

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/UtsavMehta1975/walsnut-sub000/domain/apperror"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/catalog"
	domain "github.com/UtsavMehta1975/walsnut-sub000/domain/order"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/user"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/database"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// countingHasher returns distinct fake hashes and counts calls.
type countingHasher struct {
	calls atomic.Int32
}

func (h *countingHasher) RandomHash() (string, error) {
	n := h.calls.Add(1)
	return fmt.Sprintf("$2a$04$fakehash%d", n), nil
}

func setupService(t *testing.T) (*Service, *gorm.DB, *countingHasher) {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	hasher := &countingHasher{}
	return NewService(NewOrderRepository(db), hasher), db, hasher
}

func seedUser(t *testing.T, db *gorm.DB, email string) *user.User {
	t.Helper()
	u := &user.User{ID: uuid.New().String(), Email: email, Name: "Existing", Role: user.RoleCustomer}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedProduct(t *testing.T, db *gorm.DB, price int64, stock int) *catalog.Product {
	t.Helper()
	p := &catalog.Product{
		ID:            uuid.New().String(),
		Brand:         "Rolex",
		Model:         "Submariner",
		Price:         decimal.NewFromInt(price),
		StockQuantity: stock,
		Condition:     catalog.ConditionExcellent,
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

func stockOf(t *testing.T, db *gorm.DB, productID string) int {
	t.Helper()
	var p catalog.Product
	require.NoError(t, db.First(&p, "id = ?", productID).Error)
	return p.StockQuantity
}

func countRows(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func checkout(identity user.Identity, total int64, lines ...LineItemInput) CreateOrderRequest {
	return CreateOrderRequest{
		Identity:        identity,
		Items:           lines,
		ShippingAddress: "addr",
		TotalAmount:     decimal.NewFromInt(total),
	}
}

func line(productID string, qty int, price int64) LineItemInput {
	return LineItemInput{ProductID: productID, Quantity: qty, Price: decimal.NewFromInt(price)}
}

func TestCreateOrder_DecrementsStock(t *testing.T) {
	svc, db, _ := setupService(t)
	u := seedUser(t, db, "buyer@example.com")
	p1 := seedProduct(t, db, 100, 5)

	result, err := svc.CreateOrder(context.Background(), checkout(user.Authenticated(u.ID), 200, line(p1.ID, 2, 100)))
	require.NoError(t, err)

	o := result.Order
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, domain.StatusPending, o.Status)
	assert.Equal(t, domain.PaymentPending, o.PaymentStatus)
	assert.Equal(t, u.ID, o.UserID)
	require.Len(t, o.Items, 1)
	assert.Equal(t, 2, o.Items[0].Quantity)
	assert.True(t, o.Items[0].PriceAtTimeOfPurchase.Equal(decimal.NewFromInt(100)))
	require.NotNil(t, o.Items[0].Product)

	assert.Equal(t, 3, stockOf(t, db, p1.ID))
	assert.False(t, result.IsGuestCheckout)
	assert.Nil(t, result.AccountCreated)
	assert.EqualValues(t, 1, countRows(t, db, &domain.Order{}))
	assert.EqualValues(t, 1, countRows(t, db, &domain.OrderItem{}))
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	svc, db, _ := setupService(t)
	u := seedUser(t, db, "buyer@example.com")
	p1 := seedProduct(t, db, 100, 1)

	_, err := svc.CreateOrder(context.Background(), checkout(user.Authenticated(u.ID), 200, line(p1.ID, 2, 100)))
	require.Error(t, err)

	appErr := apperror.As(err)
	assert.Equal(t, apperror.KindInsufficientStock, appErr.Kind)
	assert.Equal(t, http.StatusBadRequest, apperror.HTTPStatus(appErr.Kind))
	assert.Equal(t, p1.ID, appErr.Details["productId"])
	assert.Equal(t, 2, appErr.Details["requested"])
	assert.Equal(t, 1, appErr.Details["available"])

	assert.Equal(t, 1, stockOf(t, db, p1.ID))
	assert.Zero(t, countRows(t, db, &domain.Order{}))
	assert.Zero(t, countRows(t, db, &domain.OrderItem{}))
}

func TestCreateOrder_RollsBackEarlierLines(t *testing.T) {
	svc, db, _ := setupService(t)
	u := seedUser(t, db, "buyer@example.com")
	plenty := seedProduct(t, db, 100, 10)
	scarce := seedProduct(t, db, 50, 0)

	_, err := svc.CreateOrder(context.Background(), checkout(user.Authenticated(u.ID), 500,
		line(plenty.ID, 3, 100),
		line(scarce.ID, 1, 50),
	))
	require.Error(t, err)
	assert.Equal(t, apperror.KindInsufficientStock, apperror.KindOf(err))

	assert.Equal(t, 10, stockOf(t, db, plenty.ID))
	assert.Zero(t, countRows(t, db, &domain.Order{}))

	var reloaded user.User
	require.NoError(t, db.First(&reloaded, "id = ?", u.ID).Error)
	assert.Empty(t, reloaded.Address, "address backfill must roll back too")
}

func TestCreateOrder_ProductNotFound(t *testing.T) {
	svc, db, _ := setupService(t)
	u := seedUser(t, db, "buyer@example.com")

	_, err := svc.CreateOrder(context.Background(), checkout(user.Authenticated(u.ID), 100, line("missing", 1, 100)))
	require.Error(t, err)

	appErr := apperror.As(err)
	assert.Equal(t, apperror.KindNotFound, appErr.Kind)
	assert.Equal(t, "missing", appErr.Details["productId"])
}

func TestCreateOrder_UsesCatalogPrice(t *testing.T) {
	svc, db, _ := setupService(t)
	u := seedUser(t, db, "buyer@example.com")
	p := seedProduct(t, db, 100, 5)

	result, err := svc.CreateOrder(context.Background(), checkout(user.Authenticated(u.ID), 200, line(p.ID, 2, 1)))
	require.NoError(t, err)
	assert.True(t, result.Order.Items[0].PriceAtTimeOfPurchase.Equal(decimal.NewFromInt(100)))

	_, err = svc.CreateOrder(context.Background(), checkout(user.Authenticated(u.ID), 2, line(p.ID, 2, 1)))
	require.Error(t, err)
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	assert.Equal(t, 3, stockOf(t, db, p.ID))
}

func TestCreateOrder_GuestLinksExistingUser(t *testing.T) {
	svc, db, hasher := setupService(t)
	existing := seedUser(t, db, "known@example.com")
	p := seedProduct(t, db, 100, 5)

	guest := user.Guest(user.GuestProfile{Email: "known@example.com", Phone: "+91 98"})
	result, err := svc.CreateOrder(context.Background(), checkout(guest, 100, line(p.ID, 1, 100)))
	require.NoError(t, err)

	assert.True(t, result.IsGuestCheckout)
	require.NotNil(t, result.AccountCreated)
	assert.False(t, *result.AccountCreated)
	assert.Equal(t, existing.ID, result.Order.UserID)
	assert.EqualValues(t, 1, countRows(t, db, &user.User{}))
	assert.Zero(t, hasher.calls.Load())

	var reloaded user.User
	require.NoError(t, db.First(&reloaded, "id = ?", existing.ID).Error)
	assert.Equal(t, "addr", reloaded.Address)
	assert.Equal(t, "+91 98", reloaded.Phone)
	assert.Equal(t, "Existing", reloaded.Name, "backfill must not overwrite a set name")
}

func TestCreateOrder_GuestCreatesAccount(t *testing.T) {
	svc, db, _ := setupService(t)
	p := seedProduct(t, db, 100, 5)

	guest := user.Guest(user.GuestProfile{Email: "new@example.com", Name: "New Buyer"})
	result, err := svc.CreateOrder(context.Background(), checkout(guest, 100, line(p.ID, 1, 100)))
	require.NoError(t, err)

	require.NotNil(t, result.AccountCreated)
	assert.True(t, *result.AccountCreated)
	assert.Equal(t, "new@example.com", result.Owner.Email)

	var users []user.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, result.Order.UserID, users[0].ID)
	require.NotNil(t, users[0].PasswordHash)
	assert.NotEmpty(t, *users[0].PasswordHash)
	assert.Equal(t, user.RoleCustomer, users[0].Role)
	assert.Equal(t, "addr", users[0].Address)

	second, err := svc.CreateOrder(context.Background(), checkout(guest, 100, line(p.ID, 1, 100)))
	require.NoError(t, err)
	assert.False(t, *second.AccountCreated)
	assert.EqualValues(t, 1, countRows(t, db, &user.User{}))
}

func TestCreateOrder_Identity(t *testing.T) {
	svc, db, _ := setupService(t)
	p := seedProduct(t, db, 100, 5)

	tests := []struct {
		name     string
		identity user.Identity
	}{
		{"anonymous", user.Anonymous()},
		{"unknown user", user.Authenticated("ghost")},
		{"empty user id", user.Identity{Kind: user.IdentityAuthenticated}},
		{"guest without email", user.Identity{Kind: user.IdentityGuest, Guest: &user.GuestProfile{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateOrder(context.Background(), checkout(tt.identity, 100, line(p.ID, 1, 100)))
			require.Error(t, err)
			assert.Equal(t, apperror.KindUnauthorized, apperror.KindOf(err))
		})
	}
	assert.Equal(t, 5, stockOf(t, db, p.ID))
}

func TestCreateOrder_Validation(t *testing.T) {
	svc, db, _ := setupService(t)
	u := seedUser(t, db, "buyer@example.com")
	id := user.Authenticated(u.ID)

	tests := []struct {
		name  string
		req   CreateOrderRequest
		field string
	}{
		{"no items", checkout(id, 0), "items"},
		{"zero quantity", checkout(id, 0, line("p", 0, 1)), "items[0].quantity"},
		{"too many", checkout(id, 0, line("p", MaxQuantity+1, 1)), "items[0].quantity"},
		{"negative price", checkout(id, 0, line("p", 1, -1)), "items[0].price"},
		{"blank product", checkout(id, 0, line(" ", 1, 1)), "items[0].productId"},
		{"negative total", checkout(id, -1, line("p", 1, 1)), "totalAmount"},
		{"blank address", func() CreateOrderRequest {
			r := checkout(id, 1, line("p", 1, 1))
			r.ShippingAddress = "  "
			return r
		}(), "shippingAddress"},
		{"bad guest email", func() CreateOrderRequest {
			r := checkout(id, 1, line("p", 1, 1))
			r.CustomerInfo = &user.GuestProfile{Email: "not-an-email"}
			return r
		}(), "customerInfo.email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateOrder(context.Background(), tt.req)
			require.Error(t, err)

			appErr := apperror.As(err)
			require.Equal(t, apperror.KindValidation, appErr.Kind)
			fields, ok := appErr.Details["fields"].(map[string]string)
			require.True(t, ok)
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestCreateOrder_ConcurrentLastUnit(t *testing.T) {
	svc, db, _ := setupService(t)
	a := seedUser(t, db, "a@example.com")
	b := seedUser(t, db, "b@example.com")
	p := seedProduct(t, db, 100, 1)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, u := range []*user.User{a, b} {
		wg.Add(1)
		go func(i int, userID string) {
			defer wg.Done()
			_, errs[i] = svc.CreateOrder(context.Background(), checkout(user.Authenticated(userID), 100, line(p.ID, 1, 100)))
		}(i, u.ID)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.Equal(t, apperror.KindInsufficientStock, apperror.KindOf(err))
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 0, stockOf(t, db, p.ID))
	assert.EqualValues(t, 1, countRows(t, db, &domain.Order{}))
}

func TestListOrders_OnlyCallersOrders(t *testing.T) {
	svc, db, _ := setupService(t)
	a := seedUser(t, db, "a@example.com")
	b := seedUser(t, db, "b@example.com")
	p := seedProduct(t, db, 100, 50)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.CreateOrder(ctx, checkout(user.Authenticated(a.ID), 100, line(p.ID, 1, 100)))
		require.NoError(t, err)
	}
	_, err := svc.CreateOrder(ctx, checkout(user.Authenticated(b.ID), 100, line(p.ID, 1, 100)))
	require.NoError(t, err)

	orders, total, req, err := svc.ListOrders(ctx, ListOrdersRequest{UserID: a.ID, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Equal(t, 1, req.Page)
	require.Len(t, orders, 2)
	for _, o := range orders {
		assert.Equal(t, a.ID, o.UserID)
	}
	assert.False(t, orders[0].CreatedAt.Before(orders[1].CreatedAt), "newest first")

	orders, _, _, err = svc.ListOrders(ctx, ListOrdersRequest{UserID: a.ID, Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	orders, total, _, err = svc.ListOrders(ctx, ListOrdersRequest{UserID: b.ID, Status: domain.StatusCancelled})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, orders)
}

func TestListOrders_InvalidParams(t *testing.T) {
	svc, _, _ := setupService(t)

	tests := []struct {
		name string
		req  ListOrdersRequest
		kind apperror.Kind
	}{
		{"no user", ListOrdersRequest{}, apperror.KindUnauthorized},
		{"negative page", ListOrdersRequest{UserID: "u", Page: -1}, apperror.KindValidation},
		{"limit over max", ListOrdersRequest{UserID: "u", Limit: MaxPageSize + 1}, apperror.KindValidation},
		{"unknown status", ListOrdersRequest{UserID: "u", Status: "LOST"}, apperror.KindValidation},
		{"unknown payment status", ListOrdersRequest{UserID: "u", PaymentStatus: "MAYBE"}, apperror.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, _, err := svc.ListOrders(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperror.KindOf(err))
		})
	}
}

func TestGetOrder_HidesOtherOwners(t *testing.T) {
	svc, db, _ := setupService(t)
	a := seedUser(t, db, "a@example.com")
	b := seedUser(t, db, "b@example.com")
	p := seedProduct(t, db, 100, 5)

	result, err := svc.CreateOrder(context.Background(), checkout(user.Authenticated(a.ID), 100, line(p.ID, 1, 100)))
	require.NoError(t, err)

	o, err := svc.GetOrder(context.Background(), result.Order.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Order.ID, o.ID)

	_, err = svc.GetOrder(context.Background(), result.Order.ID, b.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	o, err = svc.GetOrder(context.Background(), result.Order.ID, "")
	require.NoError(t, err)
	require.NotNil(t, o.User)
	assert.Equal(t, "a@example.com", o.User.Email)
}

func TestUpdateStatus(t *testing.T) {
	svc, db, _ := setupService(t)
	u := seedUser(t, db, "buyer@example.com")
	p := seedProduct(t, db, 100, 5)
	ctx := context.Background()

	result, err := svc.CreateOrder(ctx, checkout(user.Authenticated(u.ID), 200, line(p.ID, 2, 100)))
	require.NoError(t, err)
	id := result.Order.ID

	_, err = svc.UpdateStatus(ctx, id, domain.StatusShipped)
	require.Error(t, err)
	appErr := apperror.As(err)
	assert.Equal(t, apperror.KindValidation, appErr.Kind)
	assert.Equal(t, "PENDING", appErr.Details["from"])
	assert.Equal(t, "SHIPPED", appErr.Details["to"])

	tr, err := svc.UpdateStatus(ctx, id, domain.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, tr.From)
	assert.Equal(t, domain.StatusConfirmed, tr.Order.Status)
	assert.True(t, tr.Changed())
	assert.False(t, tr.StockRestored)

	_, err = svc.UpdateStatus(ctx, "missing", domain.StatusConfirmed)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = svc.UpdateStatus(ctx, id, "LOST")
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
}

func TestUpdateStatus_CancelRestoresStockAndRefunds(t *testing.T) {
	svc, db, _ := setupService(t)
	u := seedUser(t, db, "buyer@example.com")
	p := seedProduct(t, db, 100, 5)
	ctx := context.Background()

	result, err := svc.CreateOrder(ctx, checkout(user.Authenticated(u.ID), 200, line(p.ID, 2, 100)))
	require.NoError(t, err)
	assert.Equal(t, 3, stockOf(t, db, p.ID))

	_, err = svc.ApplyPaymentResult(ctx, result.Order.ID, true)
	require.NoError(t, err)

	tr, err := svc.UpdateStatus(ctx, result.Order.ID, domain.StatusCancelled)
	require.NoError(t, err)
	assert.True(t, tr.StockRestored)
	assert.Equal(t, domain.StatusCancelled, tr.Order.Status)
	assert.Equal(t, domain.PaymentRefunded, tr.Order.PaymentStatus)
	assert.Equal(t, 5, stockOf(t, db, p.ID))

	_, err = svc.UpdateStatus(ctx, result.Order.ID, domain.StatusConfirmed)
	require.Error(t, err, "cancelled is terminal")
	assert.Equal(t, 5, stockOf(t, db, p.ID))
}

func TestApplyPaymentResult(t *testing.T) {
	svc, db, _ := setupService(t)
	u := seedUser(t, db, "buyer@example.com")
	p := seedProduct(t, db, 100, 5)
	ctx := context.Background()

	place := func() string {
		result, err := svc.CreateOrder(ctx, checkout(user.Authenticated(u.ID), 100, line(p.ID, 1, 100)))
		require.NoError(t, err)
		return result.Order.ID
	}

	t.Run("success confirms pending order", func(t *testing.T) {
		tr, err := svc.ApplyPaymentResult(ctx, place(), true)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentPaid, tr.Order.PaymentStatus)
		assert.Equal(t, domain.StatusConfirmed, tr.Order.Status)
		assert.True(t, tr.Changed())
	})

	t.Run("failure then retry success", func(t *testing.T) {
		id := place()
		tr, err := svc.ApplyPaymentResult(ctx, id, false)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentFailed, tr.Order.PaymentStatus)
		assert.Equal(t, domain.StatusPending, tr.Order.Status)
		assert.False(t, tr.Changed())

		tr, err = svc.ApplyPaymentResult(ctx, id, true)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentPaid, tr.Order.PaymentStatus)
	})

	t.Run("late failure keeps paid", func(t *testing.T) {
		id := place()
		_, err := svc.ApplyPaymentResult(ctx, id, true)
		require.NoError(t, err)

		tr, err := svc.ApplyPaymentResult(ctx, id, false)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentPaid, tr.Order.PaymentStatus)
	})

	t.Run("success after cancel is refunded, not revenue", func(t *testing.T) {
		id := place()
		_, err := svc.UpdateStatus(ctx, id, domain.StatusCancelled)
		require.NoError(t, err)
		before, err := svc.Stats(ctx)
		require.NoError(t, err)

		tr, err := svc.ApplyPaymentResult(ctx, id, true)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCancelled, tr.Order.Status)
		assert.Equal(t, domain.PaymentRefunded, tr.Order.PaymentStatus)
		assert.True(t, tr.RefundDue)

		replay, err := svc.ApplyPaymentResult(ctx, id, true)
		require.NoError(t, err)
		assert.False(t, replay.RefundDue, "the refund is flagged once")

		late, err := svc.ApplyPaymentResult(ctx, id, false)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentRefunded, late.Order.PaymentStatus)

		after, err := svc.Stats(ctx)
		require.NoError(t, err)
		assert.True(t, before.Revenue.Equal(after.Revenue), "revenue %s -> %s", before.Revenue, after.Revenue)
	})

	t.Run("unknown order", func(t *testing.T) {
		_, err := svc.ApplyPaymentResult(ctx, "missing", true)
		assert.ErrorIs(t, err, ErrOrderNotFound)
	})
}

func TestListCustomersAndStats(t *testing.T) {
	svc, db, _ := setupService(t)
	a := seedUser(t, db, "a@example.com")
	b := seedUser(t, db, "b@example.com")
	p := seedProduct(t, db, 100, 10)
	ctx := context.Background()

	first, err := svc.CreateOrder(ctx, checkout(user.Authenticated(a.ID), 100, line(p.ID, 1, 100)))
	require.NoError(t, err)
	second, err := svc.CreateOrder(ctx, checkout(user.Authenticated(a.ID), 300, line(p.ID, 3, 100)))
	require.NoError(t, err)
	_, err = svc.CreateOrder(ctx, checkout(user.Authenticated(a.ID), 200, line(p.ID, 2, 100)))
	require.NoError(t, err)

	_, err = svc.ApplyPaymentResult(ctx, first.Order.ID, true)
	require.NoError(t, err)
	_, err = svc.UpdateStatus(ctx, second.Order.ID, domain.StatusCancelled)
	require.NoError(t, err)

	customers, err := svc.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 2)

	byID := map[string]CustomerSummary{}
	for _, c := range customers {
		byID[c.ID] = c
	}
	assert.Equal(t, 3, byID[a.ID].OrderCount)
	assert.True(t, byID[a.ID].TotalSpent.Equal(decimal.NewFromInt(300)), "cancelled orders are not spend")
	assert.NotNil(t, byID[a.ID].LastOrderAt)
	assert.Zero(t, byID[b.ID].OrderCount)
	assert.True(t, byID[b.ID].TotalSpent.IsZero())
	assert.Nil(t, byID[b.ID].LastOrderAt)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.OrderCount)
	assert.True(t, stats.Revenue.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 1, stats.OrdersByStatus[domain.StatusConfirmed])
	assert.Equal(t, 1, stats.OrdersByStatus[domain.StatusCancelled])
	assert.Equal(t, 1, stats.OrdersByStatus[domain.StatusPending])
	assert.Equal(t, 0, stats.OrdersByStatus[domain.StatusShipped])
	assert.Equal(t, 1, stats.PendingPayments)
	assert.EqualValues(t, 2, stats.CustomerCount)
}

package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/UtsavMehta1975/walsnut-sub000/domain/catalog"
	domain "github.com/UtsavMehta1975/walsnut-sub000/domain/order"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository handles order persistence using GORM.
// Inside Transaction every method runs on the transaction handle.
type OrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Transaction runs fn with a repository bound to one database transaction.
// fn must not use any other repository; on SQLite that would wait on the held connection.
func (r *OrderRepository) Transaction(ctx context.Context, fn func(tx *OrderRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&OrderRepository{db: tx})
	})
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Preload("Items.Product").
		Preload("Items.Product.Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		})
}

// FindUserByID finds a user by ID. Returns nil when absent.
func (r *OrderRepository) FindUserByID(ctx context.Context, id string) (*user.User, error) {
	return r.firstUser(ctx, "id = ?", id)
}

// FindUserByEmail finds a user by normalized email. Returns nil when absent.
func (r *OrderRepository) FindUserByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.firstUser(ctx, "email = ?", email)
}

func (r *OrderRepository) firstUser(ctx context.Context, query string, arg any) (*user.User, error) {
	var u user.User
	if err := r.db.WithContext(ctx).First(&u, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// InsertUserIfAbsent inserts u unless its email is taken and reports whether it inserted.
func (r *OrderRepository) InsertUserIfAbsent(ctx context.Context, u *user.User) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(u)
	if result.Error != nil {
		return false, fmt.Errorf("failed to create guest account: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// BackfillUser sets each given column only where it is currently empty.
func (r *OrderRepository) BackfillUser(ctx context.Context, userID string, columns map[string]string) error {
	for column, value := range columns {
		if value == "" {
			continue
		}
		err := r.db.WithContext(ctx).Model(&user.User{}).
			Where("id = ?", userID).
			Where(fmt.Sprintf("(%s = '' OR %s IS NULL)", column, column)).
			Update(column, value).Error
		if err != nil {
			return fmt.Errorf("failed to update %s: %w", column, err)
		}
	}
	return nil
}

// FindProduct loads the fields checkout needs. Returns nil when absent.
func (r *OrderRepository) FindProduct(ctx context.Context, id string) (*catalog.Product, error) {
	var p catalog.Product
	err := r.db.WithContext(ctx).
		Select("id", "brand", "model", "price", "stock_quantity").
		First(&p, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

// DecrementStock subtracts qty when at least qty units remain and reports whether it did.
func (r *OrderRepository) DecrementStock(ctx context.Context, productID string, qty int) (bool, error) {
	result := r.db.WithContext(ctx).Model(&catalog.Product{}).
		Where("id = ? AND stock_quantity >= ?", productID, qty).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity - ?", qty))
	if result.Error != nil {
		return false, fmt.Errorf("failed to decrement stock: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

// RestoreStock adds qty back to a product.
func (r *OrderRepository) RestoreStock(ctx context.Context, productID string, qty int) error {
	err := r.db.WithContext(ctx).Model(&catalog.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock_quantity", gorm.Expr("stock_quantity + ?", qty)).Error
	if err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}
	return nil
}

// StockOf returns a product's current stock.
func (r *OrderRepository) StockOf(ctx context.Context, productID string) (int, error) {
	var stock int
	err := r.db.WithContext(ctx).Model(&catalog.Product{}).
		Select("stock_quantity").
		Where("id = ?", productID).
		Scan(&stock).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read stock: %w", err)
	}
	return stock, nil
}

// CreateOrder inserts an order and its items.
func (r *OrderRepository) CreateOrder(ctx context.Context, o *domain.Order) error {
	if err := r.db.WithContext(ctx).Create(o).Error; err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// FindOrder loads an order with its items, products and owner. Returns nil when absent.
func (r *OrderRepository) FindOrder(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	if err := withItems(r.db.WithContext(ctx)).Preload("User").First(&o, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &o, nil
}

// ListUserOrders returns one page of a user's orders, newest first.
func (r *OrderRepository) ListUserOrders(ctx context.Context, req ListOrdersRequest) ([]domain.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Order{}).Where("user_id = ?", req.UserID)
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.PaymentStatus != "" {
		query = query.Where("payment_status = ?", req.PaymentStatus)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	var orders []domain.Order
	if err := withItems(query).
		Order("created_at DESC, id ASC").
		Offset((req.Page - 1) * req.Limit).
		Limit(req.Limit).
		Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, total, nil
}

// ListAllOrders returns every order with owner and items, newest first.
func (r *OrderRepository) ListAllOrders(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := withItems(r.db.WithContext(ctx)).Preload("User").
		Order("created_at DESC, id ASC").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// ListOrderHeaders returns every order without relations.
func (r *OrderRepository) ListOrderHeaders(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := r.db.WithContext(ctx).
		Select("id", "user_id", "total_amount", "status", "payment_status", "created_at").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateOrder writes the given columns of an order.
func (r *OrderRepository) UpdateOrder(ctx context.Context, id string, columns map[string]any) error {
	if err := r.db.WithContext(ctx).Model(&domain.Order{}).Where("id = ?", id).Updates(columns).Error; err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	return nil
}

// ListUsers returns every user, newest first.
func (r *OrderRepository) ListUsers(ctx context.Context) ([]user.User, error) {
	var users []user.User
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// CountCustomers counts users with the customer role.
func (r *OrderRepository) CountCustomers(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&user.User{}).Where("role = ?", user.RoleCustomer).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count customers: %w", err)
	}
	return n, nil
}

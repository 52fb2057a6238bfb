package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/UtsavMehta1975/walsnut-sub000/domain/apperror"
	domain "github.com/UtsavMehta1975/walsnut-sub000/domain/catalog"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/order"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/database"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrProductNotFound is returned when a product does not exist.
	ErrProductNotFound = apperror.NotFound("product not found")
	// ErrCategoryNotFound is returned when a category does not exist.
	ErrCategoryNotFound = apperror.NotFound("category not found")
	// ErrProductHasOrders is returned when deleting a product that was sold.
	ErrProductHasOrders = apperror.Conflict("product has orders and cannot be deleted")
)

// Repository provides database operations for products, images and categories.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new catalog repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// withRelations preloads images in display order and the category.
func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC, created_at ASC")
		}).
		Preload("Category")
}

// ListProducts returns one page of products matching f, plus the total match count.
// f must already be normalized.
func (r *Repository) ListProducts(ctx context.Context, f ProductFilter) ([]domain.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Product{})

	if f.Brand != "" {
		query = query.Where("LOWER(brand) = ?", strings.ToLower(f.Brand))
	}
	if f.Category != "" {
		query = query.Where("category_id IN (?)",
			r.db.Model(&domain.Category{}).Select("id").Where("slug = ? OR id = ?", f.Category, f.Category))
	}
	if f.Condition != "" {
		query = query.Where("condition = ?", f.Condition)
	}
	if f.MinPrice != nil {
		query = query.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		query = query.Where("price <= ?", *f.MaxPrice)
	}
	if f.Query != "" {
		like := "%" + strings.ToLower(f.Query) + "%"
		query = query.Where("LOWER(brand) LIKE ? OR LOWER(model) LIKE ? OR LOWER(reference_number) LIKE ?", like, like, like)
	}
	if f.Featured != nil {
		query = query.Where("is_featured = ?", *f.Featured)
	}
	if f.InStock {
		query = query.Where("stock_quantity > 0")
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	switch f.Sort {
	case SortPriceAsc:
		query = query.Order("price ASC")
	case SortPriceDesc:
		query = query.Order("price DESC")
	default:
		query = query.Order("created_at DESC")
	}

	var products []domain.Product
	if err := withRelations(query.Order("id ASC")).
		Offset((f.Page - 1) * f.Limit).
		Limit(f.Limit).
		Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	return products, total, nil
}

// ListAllProducts returns every product, newest first.
func (r *Repository) ListAllProducts(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product
	if err := withRelations(r.db.WithContext(ctx)).Order("created_at DESC, id ASC").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// FindProduct retrieves a product with its images and category.
func (r *Repository) FindProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := withRelations(r.db.WithContext(ctx)).First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

// CreateProduct inserts a product together with its images.
func (r *Repository) CreateProduct(ctx context.Context, p *domain.Product) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// UpdateProduct writes the given columns and, when images is non-nil, replaces the images.
func (r *Repository) UpdateProduct(ctx context.Context, id string, columns map[string]any, images []domain.ProductImage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&domain.Product{}).Where("id = ?", id).Updates(columns)
		if result.Error != nil {
			return fmt.Errorf("failed to update product: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrProductNotFound
		}

		if images == nil {
			return nil
		}
		if err := tx.Where("product_id = ?", id).Delete(&domain.ProductImage{}).Error; err != nil {
			return fmt.Errorf("failed to replace images: %w", err)
		}
		if len(images) > 0 {
			if err := tx.Create(&images).Error; err != nil {
				return fmt.Errorf("failed to replace images: %w", err)
			}
		}
		return nil
	})
}

// DeleteProduct removes a product and its images. Products referenced by orders are kept.
func (r *Repository) DeleteProduct(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sold int64
		if err := tx.Model(&order.OrderItem{}).Where("product_id = ?", id).Count(&sold).Error; err != nil {
			return fmt.Errorf("failed to check product orders: %w", err)
		}
		if sold > 0 {
			return ErrProductHasOrders
		}

		if err := tx.Where("product_id = ?", id).Delete(&domain.ProductImage{}).Error; err != nil {
			return fmt.Errorf("failed to delete images: %w", err)
		}

		result := tx.Where("id = ?", id).Delete(&domain.Product{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete product: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrProductNotFound
		}
		return nil
	})
}

// AddImage appends an image to a product. A primary image demotes the previous one.
func (r *Repository) AddImage(ctx context.Context, img *domain.ProductImage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&domain.Product{}).Where("id = ?", img.ProductID).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check product: %w", err)
		}
		if count == 0 {
			return ErrProductNotFound
		}

		var next struct{ NextSort int }
		if err := tx.Model(&domain.ProductImage{}).
			Select("COALESCE(MAX(sort_order), -1) + 1 AS next_sort").
			Where("product_id = ?", img.ProductID).
			Scan(&next).Error; err != nil {
			return fmt.Errorf("failed to order image: %w", err)
		}
		img.SortOrder = next.NextSort

		if img.IsPrimary {
			if err := tx.Model(&domain.ProductImage{}).
				Where("product_id = ? AND is_primary = ?", img.ProductID, true).
				Update("is_primary", false).Error; err != nil {
				return fmt.Errorf("failed to demote primary image: %w", err)
			}
		}

		if err := tx.Create(img).Error; err != nil {
			return fmt.Errorf("failed to add image: %w", err)
		}
		return nil
	})
}

// Stats counts products by stock level.
func (r *Repository) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := r.db.WithContext(ctx).Model(&domain.Product{}).
		Select(
			"COUNT(*) AS product_count, "+
				"COALESCE(SUM(CASE WHEN stock_quantity > 0 AND stock_quantity <= ? THEN 1 ELSE 0 END), 0) AS low_stock_count, "+
				"COALESCE(SUM(CASE WHEN stock_quantity = 0 THEN 1 ELSE 0 END), 0) AS out_of_stock_count",
			domain.LowStockThreshold,
		).
		Scan(&s).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}
	return &s, nil
}

// CategoryExists reports whether a category with the given id exists.
func (r *Repository) CategoryExists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check category: %w", err)
	}
	return count > 0, nil
}

// ListCategories returns categories ordered by name, optionally of one type.
func (r *Repository) ListCategories(ctx context.Context, t domain.CategoryType) ([]domain.Category, error) {
	query := r.db.WithContext(ctx).Order("name ASC")
	if t != "" {
		query = query.Where("type = ?", t)
	}

	var categories []domain.Category
	if err := query.Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// EnsureCategory inserts c unless a category with the same slug or name exists.
// It returns the stored category and whether it was created by this call.
func (r *Repository) EnsureCategory(ctx context.Context, c *domain.Category) (*domain.Category, bool, error) {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(c)
	if result.Error != nil && !database.IsDuplicateKey(result.Error) {
		return nil, false, fmt.Errorf("failed to create category: %w", result.Error)
	}
	if result.Error == nil && result.RowsAffected == 1 {
		return c, true, nil
	}

	var existing domain.Category
	if err := r.db.WithContext(ctx).First(&existing, "slug = ? OR name = ?", c.Slug, c.Name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrCategoryNotFound
		}
		return nil, false, fmt.Errorf("failed to get category: %w", err)
	}
	return &existing, false, nil
}

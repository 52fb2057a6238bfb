// Package catalog provides the product catalog with caching support.
package catalog

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/UtsavMehta1975/walsnut-sub000/domain/apperror"
	domain "github.com/UtsavMehta1975/walsnut-sub000/domain/catalog"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/cache"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// Service provides catalog operations with caching.
type Service struct {
	repo    *Repository
	cache   cache.CacheService
	images  ImageStore
	sfGroup singleflight.Group // Prevents cache stampede
}

// NewService creates a new catalog service. images may be nil.
func NewService(repo *Repository, c cache.CacheService, images ImageStore) *Service {
	if c == nil {
		c = cache.NewNoopCache()
	}
	return &Service{
		repo:   repo,
		cache:  c,
		images: images,
	}
}

func cacheKeyProduct(id string) string {
	return "product:id:" + id
}

// cacheKeyList hashes the normalized filter so equal queries share one entry.
func cacheKeyList(f ProductFilter) string {
	data, _ := json.Marshal(f)
	sum := sha1.Sum(data)
	return "product:list:" + hex.EncodeToString(sum[:])
}

// NormalizeFilter applies defaults and bounds to a listing filter.
func NormalizeFilter(f ProductFilter) (ProductFilter, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}

	f.Brand = strings.TrimSpace(f.Brand)
	f.Category = strings.TrimSpace(f.Category)
	f.Query = strings.TrimSpace(f.Query)

	fields := map[string]string{}
	if f.Condition != "" && !f.Condition.Valid() {
		fields["condition"] = "unknown condition"
	}
	switch f.Sort {
	case "":
		f.Sort = SortNewest
	case SortNewest, SortPriceAsc, SortPriceDesc:
	default:
		fields["sort"] = "must be newest, price_asc or price_desc"
	}
	if f.MinPrice != nil && f.MinPrice.IsNegative() {
		fields["minPrice"] = "must not be negative"
	}
	if f.MinPrice != nil && f.MaxPrice != nil && f.MinPrice.GreaterThan(*f.MaxPrice) {
		fields["maxPrice"] = "must not be below minPrice"
	}
	if len(fields) > 0 {
		return f, apperror.Validation("invalid product filter", fields)
	}
	return f, nil
}

type productPage struct {
	Products []domain.Product `json:"products"`
	Total    int64            `json:"total"`
}

// ListProducts returns one page of the public listing (cache-aside).
func (s *Service) ListProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, int64, ProductFilter, error) {
	f, err := NormalizeFilter(filter)
	if err != nil {
		return nil, 0, f, err
	}

	key := cacheKeyList(f)
	var cached productPage
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Printf("[catalog] Cache error for list: %v", err)
	}
	if found {
		return cached.Products, cached.Total, f, nil
	}

	val, err, _ := s.sfGroup.Do(key, func() (any, error) {
		products, total, err := s.repo.ListProducts(ctx, f)
		if err != nil {
			return nil, err
		}
		page := productPage{Products: products, Total: total}
		if err := s.cache.Set(ctx, key, page); err != nil {
			log.Printf("[catalog] Warning: failed to cache product list: %v", err)
		}
		return page, nil
	})
	if err != nil {
		return nil, 0, f, err
	}

	page := val.(productPage)
	return page.Products, page.Total, f, nil
}

// GetProduct retrieves a product by ID (cache-aside).
// Uses singleflight to prevent cache stampede on concurrent cache misses.
func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, ErrProductNotFound
	}

	key := cacheKeyProduct(id)
	var cached domain.Product
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Printf("[catalog] Cache error for product %s: %v", id, err)
	}
	if found {
		return &cached, nil
	}

	val, err, _ := s.sfGroup.Do(key, func() (any, error) {
		p, err := s.repo.FindProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, key, p); err != nil {
			log.Printf("[catalog] Warning: failed to cache product %s: %v", id, err)
		}
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return val.(*domain.Product), nil
}

// ListAllProducts returns every product for the admin views. Never cached.
func (s *Service) ListAllProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListAllProducts(ctx)
}

// CreateProduct validates and stores a new product.
func (s *Service) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	if err := s.validateInput(ctx, &in); err != nil {
		return nil, err
	}

	p := &domain.Product{ID: uuid.New().String()}
	applyInput(p, in)
	p.Images = buildImages(p.ID, in.Images)

	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	s.InvalidateProducts(ctx)
	log.Printf("[catalog] Created product %s (%s %s)", p.ID, p.Brand, p.Model)
	return s.repo.FindProduct(ctx, p.ID)
}

// UpdateProduct replaces a product's writable fields.
func (s *Service) UpdateProduct(ctx context.Context, id string, in ProductInput) (*domain.Product, error) {
	if err := s.validateInput(ctx, &in); err != nil {
		return nil, err
	}

	var p domain.Product
	applyInput(&p, in)

	var images []domain.ProductImage
	if in.Images != nil {
		images = buildImages(id, in.Images)
	}

	if err := s.repo.UpdateProduct(ctx, id, productColumns(&p), images); err != nil {
		return nil, err
	}

	s.InvalidateProducts(ctx, id)
	log.Printf("[catalog] Updated product %s", id)
	return s.repo.FindProduct(ctx, id)
}

// DeleteProduct removes a product that has never been ordered.
func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	s.InvalidateProducts(ctx, id)
	log.Printf("[catalog] Deleted product %s", id)
	return nil
}

// AddImage attaches an image by URL, or uploads the given bytes first.
func (s *Service) AddImage(ctx context.Context, req AddImageRequest) (*domain.ProductImage, error) {
	img := &domain.ProductImage{
		ID:        uuid.New().String(),
		ProductID: req.ProductID,
		ImageURL:  strings.TrimSpace(req.ImageURL),
		IsPrimary: req.IsPrimary,
	}

	if len(req.Data) > 0 {
		if s.images == nil {
			return nil, ErrImageUploadDisabled
		}
		if len(req.Data) > MaxUploadBytes {
			return nil, apperror.Validation("invalid image", map[string]string{"file": fmt.Sprintf("must be at most %d bytes", MaxUploadBytes)})
		}
		if _, err := s.repo.FindProduct(ctx, req.ProductID); err != nil {
			return nil, err
		}
		url, err := s.images.Put(ctx, imageKey(req.ProductID, img.ID, req.FileName), req.Data, req.ContentType)
		if err != nil {
			return nil, err
		}
		img.ImageURL = url
	}

	if img.ImageURL == "" {
		return nil, apperror.Validation("invalid image", map[string]string{"imageUrl": "an image URL or file is required"})
	}

	if err := s.repo.AddImage(ctx, img); err != nil {
		return nil, err
	}

	s.InvalidateProducts(ctx, req.ProductID)
	return img, nil
}

// ListCategories returns categories, optionally of one type.
func (s *Service) ListCategories(ctx context.Context, t domain.CategoryType) ([]domain.Category, error) {
	if t != "" && !t.Valid() {
		return nil, apperror.Validation("invalid category type", map[string]string{"type": "must be BRAND, STYLE or COLLECTION"})
	}
	return s.repo.ListCategories(ctx, t)
}

// EnsureCategory finds a category by slug or creates it.
func (s *Service) EnsureCategory(ctx context.Context, name string, t domain.CategoryType) (*domain.Category, bool, error) {
	name = strings.TrimSpace(name)
	fields := map[string]string{}
	slug := domain.Slugify(name)
	if slug == "" {
		fields["name"] = "is required"
	}
	if t == "" {
		t = domain.CategoryBrand
	}
	if !t.Valid() {
		fields["type"] = "must be BRAND, STYLE or COLLECTION"
	}
	if len(fields) > 0 {
		return nil, false, apperror.Validation("invalid category", fields)
	}

	c, created, err := s.repo.EnsureCategory(ctx, &domain.Category{
		ID:   uuid.New().String(),
		Name: name,
		Slug: slug,
		Type: t,
	})
	if err != nil {
		return nil, false, err
	}
	if created {
		log.Printf("[catalog] Created category %s (%s)", c.Slug, c.Type)
	}
	return c, created, nil
}

// Stats returns inventory counters.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}

// InvalidateProducts drops cached listings and the given products.
// Cache failures are logged; the database stays authoritative.
func (s *Service) InvalidateProducts(ctx context.Context, ids ...string) {
	if err := s.cache.DeletePattern(ctx, "product:list:*"); err != nil {
		log.Printf("[catalog] Warning: failed to invalidate product lists: %v", err)
	}
	for _, id := range ids {
		if err := s.cache.Delete(ctx, cacheKeyProduct(id)); err != nil {
			log.Printf("[catalog] Warning: failed to invalidate product %s: %v", id, err)
		}
	}
}

// CacheStats returns the cache counters.
func (s *Service) CacheStats() cache.StatsSnapshot {
	return s.cache.Stats()
}

func (s *Service) validateInput(ctx context.Context, in *ProductInput) error {
	in.Brand = strings.TrimSpace(in.Brand)
	in.Model = strings.TrimSpace(in.Model)
	if in.Condition == "" {
		in.Condition = domain.ConditionNew
	}

	fields := map[string]string{}
	if in.Brand == "" {
		fields["brand"] = "is required"
	}
	if in.Model == "" {
		fields["model"] = "is required"
	}
	if in.Price.IsNegative() {
		fields["price"] = "must not be negative"
	}
	if in.PreviousPrice != nil && in.PreviousPrice.IsNegative() {
		fields["previousPrice"] = "must not be negative"
	}
	if in.StockQuantity < 0 {
		fields["stockQuantity"] = "must not be negative"
	}
	if !in.Condition.Valid() {
		fields["condition"] = "unknown condition"
	}
	for i, img := range in.Images {
		if strings.TrimSpace(img.ImageURL) == "" {
			fields[fmt.Sprintf("images[%d].imageUrl", i)] = "is required"
		}
	}
	if len(fields) > 0 {
		return apperror.Validation("invalid product", fields)
	}

	if in.CategoryID != nil && *in.CategoryID == "" {
		in.CategoryID = nil
	}
	if in.CategoryID != nil {
		ok, err := s.repo.CategoryExists(ctx, *in.CategoryID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrCategoryNotFound.WithDetails(map[string]any{"categoryId": *in.CategoryID})
		}
	}
	return nil
}

func applyInput(p *domain.Product, in ProductInput) {
	p.Brand = in.Brand
	p.Model = in.Model
	p.ReferenceNumber = strings.TrimSpace(in.ReferenceNumber)
	p.Description = in.Description
	p.Price = in.Price
	p.PreviousPrice = in.PreviousPrice
	p.StockQuantity = in.StockQuantity
	p.Condition = in.Condition
	p.Movement = in.Movement
	p.CaseMaterial = in.CaseMaterial
	p.CaseDiameter = in.CaseDiameter
	p.DialColor = in.DialColor
	p.StrapMaterial = in.StrapMaterial
	p.WaterResistance = in.WaterResistance
	p.Year = in.Year
	p.Gender = in.Gender
	p.IsAuthenticated = in.IsAuthenticated
	p.HasBox = in.HasBox
	p.HasPapers = in.HasPapers
	p.IsFeatured = in.IsFeatured
	p.CategoryID = in.CategoryID
}

// productColumns lists every writable column so zero values are written too.
func productColumns(p *domain.Product) map[string]any {
	return map[string]any{
		"brand":            p.Brand,
		"model":            p.Model,
		"reference_number": p.ReferenceNumber,
		"description":      p.Description,
		"price":            p.Price,
		"previous_price":   p.PreviousPrice,
		"stock_quantity":   p.StockQuantity,
		"condition":        p.Condition,
		"movement":         p.Movement,
		"case_material":    p.CaseMaterial,
		"case_diameter":    p.CaseDiameter,
		"dial_color":       p.DialColor,
		"strap_material":   p.StrapMaterial,
		"water_resistance": p.WaterResistance,
		"year":             p.Year,
		"gender":           p.Gender,
		"is_authenticated": p.IsAuthenticated,
		"has_box":          p.HasBox,
		"has_papers":       p.HasPapers,
		"is_featured":      p.IsFeatured,
		"category_id":      p.CategoryID,
	}
}

// buildImages turns image inputs into rows. Without an explicit primary the first image is primary.
func buildImages(productID string, inputs []ImageInput) []domain.ProductImage {
	images := make([]domain.ProductImage, 0, len(inputs))
	hasPrimary := false
	for i, in := range inputs {
		primary := in.IsPrimary && !hasPrimary
		hasPrimary = hasPrimary || primary
		images = append(images, domain.ProductImage{
			ID:        uuid.New().String(),
			ProductID: productID,
			ImageURL:  strings.TrimSpace(in.ImageURL),
			IsPrimary: primary,
			SortOrder: i,
		})
	}
	if !hasPrimary && len(images) > 0 {
		images[0].IsPrimary = true
	}
	return images
}

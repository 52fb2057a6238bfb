package catalog

import (
	"github.com/UtsavMehta1975/walsnut-sub000/domain/apperror"
	domain "github.com/UtsavMehta1975/walsnut-sub000/domain/catalog"
	"github.com/shopspring/decimal"
)

// Sort orders accepted by the product listing.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)

// Listing page bounds.
const (
	DefaultPageSize = 12
	MaxPageSize     = 50
)

// MaxUploadBytes bounds an uploaded image so the request fits one bus message.
const MaxUploadBytes = 700 << 10

// ProductFilter narrows the public product listing.
type ProductFilter struct {
	Page      int              `json:"page"`
	Limit     int              `json:"limit"`
	Brand     string           `json:"brand,omitempty"`
	Category  string           `json:"category,omitempty"`
	Condition domain.Condition `json:"condition,omitempty"`
	MinPrice  *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice  *decimal.Decimal `json:"max_price,omitempty"`
	Query     string           `json:"q,omitempty"`
	Featured  *bool            `json:"featured,omitempty"`
	InStock   bool             `json:"in_stock,omitempty"`
	Sort      string           `json:"sort,omitempty"`
}

// ImageInput is an image URL supplied with a product.
type ImageInput struct {
	ImageURL  string `json:"image_url"`
	IsPrimary bool   `json:"is_primary"`
}

// ProductInput carries the writable fields of a product.
type ProductInput struct {
	Brand           string           `json:"brand"`
	Model           string           `json:"model"`
	ReferenceNumber string           `json:"reference_number"`
	Description     string           `json:"description"`
	Price           decimal.Decimal  `json:"price"`
	PreviousPrice   *decimal.Decimal `json:"previous_price,omitempty"`
	StockQuantity   int              `json:"stock_quantity"`
	Condition       domain.Condition `json:"condition"`
	Movement        string           `json:"movement"`
	CaseMaterial    string           `json:"case_material"`
	CaseDiameter    string           `json:"case_diameter"`
	DialColor       string           `json:"dial_color"`
	StrapMaterial   string           `json:"strap_material"`
	WaterResistance string           `json:"water_resistance"`
	Year            int              `json:"year"`
	Gender          string           `json:"gender"`
	IsAuthenticated bool             `json:"is_authenticated"`
	HasBox          bool             `json:"has_box"`
	HasPapers       bool             `json:"has_papers"`
	IsFeatured      bool             `json:"is_featured"`
	CategoryID      *string          `json:"category_id,omitempty"`

	// Images replaces the product's images when non-nil.
	Images []ImageInput `json:"images"`
}

// ListProductsRequest is the request for the public listing.
type ListProductsRequest struct {
	Filter ProductFilter `json:"filter"`
}

// ListProductsResponse is a page of products.
type ListProductsResponse struct {
	Products []domain.Product  `json:"products"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
	Error    *apperror.Payload `json:"error,omitempty"`
}

// ListAllProductsRequest asks for every product, unpaginated.
type ListAllProductsRequest struct{}

// GetProductRequest names a product.
type GetProductRequest struct {
	ID string `json:"id"`
}

// CreateProductRequest creates a product.
type CreateProductRequest struct {
	Input ProductInput `json:"input"`
}

// UpdateProductRequest replaces a product's fields.
type UpdateProductRequest struct {
	ID    string       `json:"id"`
	Input ProductInput `json:"input"`
}

// DeleteProductRequest removes a product.
type DeleteProductRequest struct {
	ID string `json:"id"`
}

// ProductResponse carries one product.
type ProductResponse struct {
	Product *domain.Product   `json:"product,omitempty"`
	Error   *apperror.Payload `json:"error,omitempty"`
}

// DeleteResponse reports a deletion.
type DeleteResponse struct {
	Deleted bool              `json:"deleted"`
	Error   *apperror.Payload `json:"error,omitempty"`
}

// ListCategoriesRequest optionally filters categories by type.
type ListCategoriesRequest struct {
	Type domain.CategoryType `json:"type,omitempty"`
}

// ListCategoriesResponse carries categories.
type ListCategoriesResponse struct {
	Categories []domain.Category `json:"categories"`
	Error      *apperror.Payload `json:"error,omitempty"`
}

// EnsureCategoryRequest finds or creates a category by name.
type EnsureCategoryRequest struct {
	Name string              `json:"name"`
	Type domain.CategoryType `json:"type"`
}

// EnsureCategoryResponse reports whether the category was created.
type EnsureCategoryResponse struct {
	Category *domain.Category  `json:"category,omitempty"`
	Created  bool              `json:"created"`
	Error    *apperror.Payload `json:"error,omitempty"`
}

// AddImageRequest attaches an image to a product. Either ImageURL or Data is set.
type AddImageRequest struct {
	ProductID   string `json:"product_id"`
	ImageURL    string `json:"image_url,omitempty"`
	IsPrimary   bool   `json:"is_primary"`
	FileName    string `json:"file_name,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Data        []byte `json:"data,omitempty"`
}

// ImageResponse carries a stored image.
type ImageResponse struct {
	Image *domain.ProductImage `json:"image,omitempty"`
	Error *apperror.Payload    `json:"error,omitempty"`
}

// StatsRequest asks for inventory counters.
type StatsRequest struct{}

// Stats are the inventory counters shown on the admin dashboard.
type Stats struct {
	ProductCount    int64 `json:"product_count"`
	LowStockCount   int64 `json:"low_stock_count"`
	OutOfStockCount int64 `json:"out_of_stock_count"`
}

// StatsResponse carries inventory counters.
type StatsResponse struct {
	Stats *Stats            `json:"stats,omitempty"`
	Error *apperror.Payload `json:"error,omitempty"`
}

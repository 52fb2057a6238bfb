package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Condition describes the wear state of a watch.
type Condition string

const (
	ConditionNew       Condition = "NEW"
	ConditionUnworn    Condition = "UNWORN"
	ConditionExcellent Condition = "EXCELLENT"
	ConditionVeryGood  Condition = "VERY_GOOD"
	ConditionGood      Condition = "GOOD"
	ConditionFair      Condition = "FAIR"
)

// Valid reports whether c is a known condition.
func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionUnworn, ConditionExcellent, ConditionVeryGood, ConditionGood, ConditionFair:
		return true
	}
	return false
}

// CategoryType is the axis a category buckets products on.
type CategoryType string

const (
	CategoryBrand      CategoryType = "BRAND"
	CategoryStyle      CategoryType = "STYLE"
	CategoryCollection CategoryType = "COLLECTION"
)

// Valid reports whether t is a known category type.
func (t CategoryType) Valid() bool {
	switch t {
	case CategoryBrand, CategoryStyle, CategoryCollection:
		return true
	}
	return false
}

// LowStockThreshold is the stock level at or below which a product counts as low.
const LowStockThreshold = 2

// Product is a watch listed in the catalog.
type Product struct {
	ID              string           `gorm:"primaryKey;type:text" json:"id"`
	Brand           string           `gorm:"index;not null;type:text" json:"brand"`
	Model           string           `gorm:"not null;type:text" json:"model"`
	ReferenceNumber string           `gorm:"type:text" json:"reference_number"`
	Description     string           `gorm:"type:text" json:"description"`
	Price           decimal.Decimal  `gorm:"type:decimal(12,2);not null" json:"price"`
	PreviousPrice   *decimal.Decimal `gorm:"type:decimal(12,2)" json:"previous_price,omitempty"`
	StockQuantity   int              `gorm:"not null;default:0;check:stock_quantity >= 0" json:"stock_quantity"`
	Condition       Condition        `gorm:"type:text;not null;default:NEW" json:"condition"`

	Movement        string `gorm:"type:text" json:"movement"`
	CaseMaterial    string `gorm:"type:text" json:"case_material"`
	CaseDiameter    string `gorm:"type:text" json:"case_diameter"`
	DialColor       string `gorm:"type:text" json:"dial_color"`
	StrapMaterial   string `gorm:"type:text" json:"strap_material"`
	WaterResistance string `gorm:"type:text" json:"water_resistance"`
	Year            int    `json:"year,omitempty"`
	Gender          string `gorm:"type:text" json:"gender"`

	IsAuthenticated bool `gorm:"not null;default:false" json:"is_authenticated"`
	HasBox          bool `gorm:"not null;default:false" json:"has_box"`
	HasPapers       bool `gorm:"not null;default:false" json:"has_papers"`
	IsFeatured      bool `gorm:"not null;default:false" json:"is_featured"`

	CategoryID *string        `gorm:"index;type:text" json:"category_id,omitempty"`
	Category   *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Images     []ProductImage `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"images"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for the Product entity.
func (Product) TableName() string {
	return "products"
}

// PrimaryImageURL returns the primary image, falling back to the first by sort order.
func (p *Product) PrimaryImageURL() string {
	var first *ProductImage
	for i := range p.Images {
		img := &p.Images[i]
		if img.IsPrimary {
			return img.ImageURL
		}
		if first == nil || img.SortOrder < first.SortOrder {
			first = img
		}
	}
	if first == nil {
		return ""
	}
	return first.ImageURL
}

// ProductImage is an image attached to a product.
type ProductImage struct {
	ID        string    `gorm:"primaryKey;type:text" json:"id"`
	ProductID string    `gorm:"index;not null;type:text" json:"product_id"`
	ImageURL  string    `gorm:"not null;type:text" json:"image_url"`
	IsPrimary bool      `gorm:"not null;default:false" json:"is_primary"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for the ProductImage entity.
func (ProductImage) TableName() string {
	return "product_images"
}

// Category is a taxonomy bucket such as a brand or a style.
type Category struct {
	ID        string       `gorm:"primaryKey;type:text" json:"id"`
	Name      string       `gorm:"uniqueIndex;not null;type:text" json:"name"`
	Slug      string       `gorm:"uniqueIndex;not null;type:text" json:"slug"`
	Type      CategoryType `gorm:"type:text;not null" json:"type"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// TableName returns the table name for the Category entity.
func (Category) TableName() string {
	return "categories"
}

package api

import (
	"github.com/UtsavMehta1975/walsnut-sub000/domain/catalog"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/user"
	catalogmod "github.com/UtsavMehta1975/walsnut-sub000/modules/catalog"
	"github.com/shopspring/decimal"
)

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest represents the token refresh request body.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// UpdateProfileRequest carries the editable profile fields. Absent fields are left alone.
type UpdateProfileRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// OrderLineRequest is one cart line. Quantity is decoded as a number so fractional
// values reach validation instead of failing the whole body.
type OrderLineRequest struct {
	ProductID string          `json:"productId"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// CustomerInfoRequest is the guest contact block of a checkout.
type CustomerInfoRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// CreateOrderRequest represents the checkout body.
type CreateOrderRequest struct {
	Items           []OrderLineRequest   `json:"items"`
	ShippingAddress string               `json:"shippingAddress"`
	TotalAmount     decimal.Decimal      `json:"totalAmount"`
	PaymentMethod   string               `json:"paymentMethod"`
	CustomerInfo    *CustomerInfoRequest `json:"customerInfo"`
}

func (r *CustomerInfoRequest) profile() *user.GuestProfile {
	if r == nil {
		return nil
	}
	return &user.GuestProfile{Email: r.Email, Name: r.Name, Phone: r.Phone}
}

// InitiatePaymentRequest represents the payment initiation body.
type InitiatePaymentRequest struct {
	OrderID       string `json:"orderId"`
	PaymentMethod string `json:"paymentMethod"`
}

// UpdateStatusRequest represents an admin status change.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// ImageRequest is an image reference in a product body or an image upload.
type ImageRequest struct {
	ImageURL  string `json:"imageUrl"`
	IsPrimary bool   `json:"isPrimary"`
}

// ProductRequest represents an admin product body.
type ProductRequest struct {
	Brand           string           `json:"brand"`
	Model           string           `json:"model"`
	ReferenceNumber string           `json:"referenceNumber"`
	Description     string           `json:"description"`
	Price           decimal.Decimal  `json:"price"`
	PreviousPrice   *decimal.Decimal `json:"previousPrice"`
	StockQuantity   int              `json:"stockQuantity"`
	Condition       string           `json:"condition"`
	Movement        string           `json:"movement"`
	CaseMaterial    string           `json:"caseMaterial"`
	CaseDiameter    string           `json:"caseDiameter"`
	DialColor       string           `json:"dialColor"`
	StrapMaterial   string           `json:"strapMaterial"`
	WaterResistance string           `json:"waterResistance"`
	Year            int              `json:"year"`
	Gender          string           `json:"gender"`
	IsAuthenticated bool             `json:"isAuthenticated"`
	HasBox          bool             `json:"hasBox"`
	HasPapers       bool             `json:"hasPapers"`
	IsFeatured      bool             `json:"isFeatured"`
	CategoryID      *string          `json:"categoryId"`
	Images          []ImageRequest   `json:"images"`
}

func (r ProductRequest) input() catalogmod.ProductInput {
	in := catalogmod.ProductInput{
		Brand:           r.Brand,
		Model:           r.Model,
		ReferenceNumber: r.ReferenceNumber,
		Description:     r.Description,
		Price:           r.Price,
		PreviousPrice:   r.PreviousPrice,
		StockQuantity:   r.StockQuantity,
		Condition:       catalog.Condition(r.Condition),
		Movement:        r.Movement,
		CaseMaterial:    r.CaseMaterial,
		CaseDiameter:    r.CaseDiameter,
		DialColor:       r.DialColor,
		StrapMaterial:   r.StrapMaterial,
		WaterResistance: r.WaterResistance,
		Year:            r.Year,
		Gender:          r.Gender,
		IsAuthenticated: r.IsAuthenticated,
		HasBox:          r.HasBox,
		HasPapers:       r.HasPapers,
		IsFeatured:      r.IsFeatured,
		CategoryID:      r.CategoryID,
	}
	if r.Images != nil {
		in.Images = make([]catalogmod.ImageInput, 0, len(r.Images))
		for _, img := range r.Images {
			in.Images = append(in.Images, catalogmod.ImageInput{ImageURL: img.ImageURL, IsPrimary: img.IsPrimary})
		}
	}
	return in
}

// CategoryRequest represents an admin category body.
type CategoryRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

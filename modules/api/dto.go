package api

import (
	"time"

	"github.com/UtsavMehta1975/walsnut-sub000/domain/catalog"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/order"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/payment"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/user"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/auth"
	catalogmod "github.com/UtsavMehta1975/walsnut-sub000/modules/catalog"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/notification"
	ordermod "github.com/UtsavMehta1975/walsnut-sub000/modules/order"
	"github.com/shopspring/decimal"
)

// HTTP bodies use camelCase keys and plain JSON numbers for money.

func num(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func numPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	v := d.InexactFloat64()
	return &v
}

// ImageDTO is a product image.
type ImageDTO struct {
	ID        string `json:"id"`
	ImageURL  string `json:"imageUrl"`
	IsPrimary bool   `json:"isPrimary"`
	SortOrder int    `json:"sortOrder"`
}

// CategoryDTO is a category.
type CategoryDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
	Type string `json:"type"`
}

// ProductDTO is a full product.
type ProductDTO struct {
	ID              string       `json:"id"`
	Brand           string       `json:"brand"`
	Model           string       `json:"model"`
	ReferenceNumber string       `json:"referenceNumber"`
	Description     string       `json:"description"`
	Price           float64      `json:"price"`
	PreviousPrice   *float64     `json:"previousPrice"`
	StockQuantity   int          `json:"stockQuantity"`
	Condition       string       `json:"condition"`
	Movement        string       `json:"movement"`
	CaseMaterial    string       `json:"caseMaterial"`
	CaseDiameter    string       `json:"caseDiameter"`
	DialColor       string       `json:"dialColor"`
	StrapMaterial   string       `json:"strapMaterial"`
	WaterResistance string       `json:"waterResistance"`
	Year            int          `json:"year,omitempty"`
	Gender          string       `json:"gender"`
	IsAuthenticated bool         `json:"isAuthenticated"`
	HasBox          bool         `json:"hasBox"`
	HasPapers       bool         `json:"hasPapers"`
	IsFeatured      bool         `json:"isFeatured"`
	CategoryID      *string      `json:"categoryId"`
	Category        *CategoryDTO `json:"category,omitempty"`
	Images          []ImageDTO   `json:"images"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

func toImageDTO(img catalog.ProductImage) ImageDTO {
	return ImageDTO{ID: img.ID, ImageURL: img.ImageURL, IsPrimary: img.IsPrimary, SortOrder: img.SortOrder}
}

func toCategoryDTO(c catalog.Category) CategoryDTO {
	return CategoryDTO{ID: c.ID, Name: c.Name, Slug: c.Slug, Type: string(c.Type)}
}

func toProductDTO(p *catalog.Product) ProductDTO {
	dto := ProductDTO{
		ID:              p.ID,
		Brand:           p.Brand,
		Model:           p.Model,
		ReferenceNumber: p.ReferenceNumber,
		Description:     p.Description,
		Price:           num(p.Price),
		PreviousPrice:   numPtr(p.PreviousPrice),
		StockQuantity:   p.StockQuantity,
		Condition:       string(p.Condition),
		Movement:        p.Movement,
		CaseMaterial:    p.CaseMaterial,
		CaseDiameter:    p.CaseDiameter,
		DialColor:       p.DialColor,
		StrapMaterial:   p.StrapMaterial,
		WaterResistance: p.WaterResistance,
		Year:            p.Year,
		Gender:          p.Gender,
		IsAuthenticated: p.IsAuthenticated,
		HasBox:          p.HasBox,
		HasPapers:       p.HasPapers,
		IsFeatured:      p.IsFeatured,
		CategoryID:      p.CategoryID,
		Images:          make([]ImageDTO, 0, len(p.Images)),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if p.Category != nil {
		c := toCategoryDTO(*p.Category)
		dto.Category = &c
	}
	for _, img := range p.Images {
		dto.Images = append(dto.Images, toImageDTO(img))
	}
	return dto
}

func toProductDTOs(products []catalog.Product) []ProductDTO {
	out := make([]ProductDTO, 0, len(products))
	for i := range products {
		out = append(out, toProductDTO(&products[i]))
	}
	return out
}

// ProductSummaryDTO is the product shown next to an order line.
type ProductSummaryDTO struct {
	ID           string  `json:"id"`
	Brand        string  `json:"brand"`
	Model        string  `json:"model"`
	Price        float64 `json:"price"`
	PrimaryImage string  `json:"primaryImage,omitempty"`
}

// OrderItemDTO is one order line.
type OrderItemDTO struct {
	ID                    string             `json:"id"`
	ProductID             string             `json:"productId"`
	Quantity              int                `json:"quantity"`
	PriceAtTimeOfPurchase float64            `json:"priceAtTimeOfPurchase"`
	Subtotal              float64            `json:"subtotal"`
	Product               *ProductSummaryDTO `json:"product,omitempty"`
}

// CustomerRefDTO names the owner of an order in admin views.
type CustomerRefDTO struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// OrderDTO is an order with its lines.
type OrderDTO struct {
	ID              string          `json:"id"`
	UserID          string          `json:"userId"`
	TotalAmount     float64         `json:"totalAmount"`
	Status          string          `json:"status"`
	PaymentStatus   string          `json:"paymentStatus"`
	PaymentMethod   string          `json:"paymentMethod,omitempty"`
	ShippingAddress string          `json:"shippingAddress"`
	Items           []OrderItemDTO  `json:"items"`
	Customer        *CustomerRefDTO `json:"customer,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func toOrderDTO(o *order.Order) OrderDTO {
	dto := OrderDTO{
		ID:              o.ID,
		UserID:          o.UserID,
		TotalAmount:     num(o.TotalAmount),
		Status:          string(o.Status),
		PaymentStatus:   string(o.PaymentStatus),
		PaymentMethod:   o.PaymentMethod,
		ShippingAddress: o.ShippingAddress,
		Items:           make([]OrderItemDTO, 0, len(o.Items)),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, item := range o.Items {
		line := OrderItemDTO{
			ID:                    item.ID,
			ProductID:             item.ProductID,
			Quantity:              item.Quantity,
			PriceAtTimeOfPurchase: num(item.PriceAtTimeOfPurchase),
			Subtotal:              num(item.Subtotal()),
		}
		if p := item.Product; p != nil {
			line.Product = &ProductSummaryDTO{
				ID:           p.ID,
				Brand:        p.Brand,
				Model:        p.Model,
				Price:        num(p.Price),
				PrimaryImage: p.PrimaryImageURL(),
			}
		}
		dto.Items = append(dto.Items, line)
	}
	if u := o.User; u != nil {
		dto.Customer = &CustomerRefDTO{ID: u.ID, Email: u.Email, Name: u.Name, Phone: u.Phone}
	}
	return dto
}

func toOrderDTOs(orders []order.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderDTO(&orders[i]))
	}
	return out
}

// PaginationDTO describes one page of a listing.
type PaginationDTO struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

func pagination(page, limit int, total int64) PaginationDTO {
	p := PaginationDTO{Page: page, Limit: limit, Total: total}
	if limit > 0 {
		p.TotalPages = (total + int64(limit) - 1) / int64(limit)
	}
	return p
}

// CreateOrderResponseDTO is the checkout response.
type CreateOrderResponseDTO struct {
	Order           OrderDTO `json:"order"`
	IsGuestCheckout bool     `json:"isGuestCheckout"`
	AccountCreated  *bool    `json:"accountCreated,omitempty"`
}

// CustomerDTO is one row of the admin customer list.
type CustomerDTO struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Phone       string     `json:"phone"`
	Role        string     `json:"role"`
	OrderCount  int        `json:"orderCount"`
	TotalSpent  float64    `json:"totalSpent"`
	LastOrderAt *time.Time `json:"lastOrderAt"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func toCustomerDTOs(customers []ordermod.CustomerSummary) []CustomerDTO {
	out := make([]CustomerDTO, 0, len(customers))
	for _, c := range customers {
		out = append(out, CustomerDTO{
			ID:          c.ID,
			Email:       c.Email,
			Name:        c.Name,
			Phone:       c.Phone,
			Role:        string(c.Role),
			OrderCount:  c.OrderCount,
			TotalSpent:  num(c.TotalSpent),
			LastOrderAt: c.LastOrderAt,
			CreatedAt:   c.CreatedAt,
		})
	}
	return out
}

// StatsDTO is the admin dashboard summary.
type StatsDTO struct {
	Revenue         float64        `json:"revenue"`
	OrderCount      int            `json:"orderCount"`
	OrdersByStatus  map[string]int `json:"ordersByStatus"`
	PendingPayments int            `json:"pendingPayments"`
	CustomerCount   int64          `json:"customerCount"`
	ProductCount    int64          `json:"productCount"`
	LowStockCount   int64          `json:"lowStockCount"`
	OutOfStockCount int64          `json:"outOfStockCount"`
}

func toStatsDTO(o *ordermod.Stats, c *catalogmod.Stats) StatsDTO {
	dto := StatsDTO{OrdersByStatus: map[string]int{}}
	if o != nil {
		dto.Revenue = num(o.Revenue)
		dto.OrderCount = o.OrderCount
		dto.PendingPayments = o.PendingPayments
		dto.CustomerCount = o.CustomerCount
		for status, n := range o.OrdersByStatus {
			dto.OrdersByStatus[string(status)] = n
		}
	}
	if c != nil {
		dto.ProductCount = c.ProductCount
		dto.LowStockCount = c.LowStockCount
		dto.OutOfStockCount = c.OutOfStockCount
	}
	return dto
}

// PaymentSessionDTO is returned by payment initiation.
type PaymentSessionDTO struct {
	SessionToken  string  `json:"sessionToken"`
	Provider      string  `json:"provider"`
	OrderID       string  `json:"orderId"`
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	PaymentMethod string  `json:"paymentMethod"`
}

func toPaymentSessionDTO(s *payment.Session) PaymentSessionDTO {
	return PaymentSessionDTO{
		SessionToken:  s.SessionToken,
		Provider:      s.Provider,
		OrderID:       s.OrderID,
		Amount:        num(s.Amount),
		Currency:      s.Currency,
		PaymentMethod: string(s.PaymentMethod),
	}
}

// UserDTO is the public view of an account.
type UserDTO struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	Role        string    `json:"role"`
	HasPassword bool      `json:"hasPassword"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toUserDTO(u *auth.UserDTO) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Phone:       u.Phone,
		Address:     u.Address,
		Role:        string(u.Role),
		HasPassword: u.HasPassword,
		CreatedAt:   u.CreatedAt,
	}
}

// TokenDTO is an issued token pair.
type TokenDTO struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	ExpiresIn    int64    `json:"expiresIn"`
	TokenType    string   `json:"tokenType"`
	User         *UserDTO `json:"user,omitempty"`
}

func tokenDTO(t *user.TokenPair, u *auth.UserDTO) TokenDTO {
	return TokenDTO{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresIn:    t.ExpiresIn,
		TokenType:    t.TokenType,
		User:         toUserDTO(u),
	}
}

// ActivityDTO is one activity feed entry.
type ActivityDTO struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	OrderID   string    `json:"orderId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func toActivityDTOs(entries []notification.Entry) []ActivityDTO {
	out := make([]ActivityDTO, 0, len(entries))
	for _, e := range entries {
		out = append(out, ActivityDTO{ID: e.ID, Type: e.Type, Message: e.Message, OrderID: e.OrderID, Timestamp: e.Timestamp})
	}
	return out
}

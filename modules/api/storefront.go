package api

import (
	"strings"

	"github.com/UtsavMehta1975/walsnut-sub000/domain/apperror"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/catalog"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/order"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/payment"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/user"
	ordermod "github.com/UtsavMehta1975/walsnut-sub000/modules/order"
	paymentmod "github.com/UtsavMehta1975/walsnut-sub000/modules/payment"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// ListProducts handles the public catalog listing.
func (h *Handlers) ListProducts(c *fiber.Ctx) error {
	filter, err := parseProductFilter(c)
	if err != nil {
		return writeError(c, err)
	}

	resp, err := h.ports.Catalog.ListProducts(h.ctx(c), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"products":   toProductDTOs(resp.Products),
		"pagination": pagination(resp.Page, resp.Limit, resp.Total),
	})
}

// GetProduct returns one product.
func (h *Handlers) GetProduct(c *fiber.Ctx) error {
	p, err := h.ports.Catalog.GetProduct(h.ctx(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toProductDTO(p))
}

// ListCategories returns categories, optionally of one type.
func (h *Handlers) ListCategories(c *fiber.Ctx) error {
	categories, err := h.listCategories(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"categories": categories})
}

func (h *Handlers) listCategories(c *fiber.Ctx) ([]CategoryDTO, error) {
	t := catalog.CategoryType(strings.ToUpper(strings.TrimSpace(c.Query("type"))))
	if t != "" && !t.Valid() {
		return nil, apperror.Validation("invalid query parameters", map[string]string{"type": "unknown category type"})
	}
	categories, err := h.ports.Catalog.ListCategories(h.ctx(c), t)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryDTO, 0, len(categories))
	for _, cat := range categories {
		out = append(out, toCategoryDTO(cat))
	}
	return out, nil
}

// CreateOrder handles checkout for signed-in users, cookie sessions and guests.
func (h *Handlers) CreateOrder(c *fiber.Ctx) error {
	var req CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidBody())
	}

	sources := identitySources(c)
	sources.Guest = req.CustomerInfo.profile()

	items := make([]ordermod.LineItemInput, 0, len(req.Items))
	for _, line := range req.Items {
		items = append(items, ordermod.LineItemInput{
			ProductID: line.ProductID,
			Quantity:  lineQuantity(line.Quantity),
			Price:     line.Price,
		})
	}

	res, err := h.ports.Orders.CreateOrder(h.ctx(c), ordermod.CreateOrderRequest{
		Identity:        user.ResolveIdentity(sources),
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		TotalAmount:     req.TotalAmount,
		PaymentMethod:   req.PaymentMethod,
		CustomerInfo:    sources.Guest,
	})
	if err != nil {
		return writeError(c, err)
	}

	// Only a freshly created guest account gets a cookie session. Linking an
	// order to an existing email proves nothing about who is asking.
	if res.IsGuestCheckout && res.AccountCreated != nil && *res.AccountCreated {
		h.setUserCookie(c, CookieUser{ID: res.Owner.ID, Email: res.Owner.Email, Name: res.Owner.Name})
	}
	return c.Status(fiber.StatusCreated).JSON(CreateOrderResponseDTO{
		Order:           toOrderDTO(res.Order),
		IsGuestCheckout: res.IsGuestCheckout,
		AccountCreated:  res.AccountCreated,
	})
}

var (
	minQuantity = decimal.NewFromInt(ordermod.MinQuantity)
	maxQuantity = decimal.NewFromInt(ordermod.MaxQuantity)
)

// lineQuantity converts a submitted quantity. Fractional or out-of-range
// values become 0 so validation rejects them instead of truncating.
func lineQuantity(q decimal.Decimal) int {
	if !q.IsInteger() || q.LessThan(minQuantity) || q.GreaterThan(maxQuantity) {
		return 0
	}
	return int(q.IntPart())
}

// ListOrders returns one page of the caller's orders.
func (h *Handlers) ListOrders(c *fiber.Ctx) error {
	fields := map[string]string{}
	page := queryInt(c, "page", fields)
	limit := queryInt(c, "limit", fields)
	if len(fields) > 0 {
		return writeError(c, apperror.Validation("invalid query parameters", fields))
	}

	resp, err := h.ports.Orders.ListOrders(h.ctx(c), ordermod.ListOrdersRequest{
		UserID:        currentSession(c).UserID,
		Page:          page,
		Limit:         limit,
		Status:        order.Status(strings.ToUpper(strings.TrimSpace(c.Query("status")))),
		PaymentStatus: order.PaymentStatus(strings.ToUpper(strings.TrimSpace(c.Query("paymentStatus")))),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"orders":     toOrderDTOs(resp.Orders),
		"pagination": pagination(resp.Page, resp.Limit, resp.Total),
	})
}

// GetOrder returns one of the caller's orders.
func (h *Handlers) GetOrder(c *fiber.Ctx) error {
	o, err := h.ports.Orders.GetOrder(h.ctx(c), c.Params("id"), currentSession(c).UserID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toOrderDTO(o))
}

// InitiatePayment opens a gateway session for one of the caller's orders.
func (h *Handlers) InitiatePayment(c *fiber.Ctx) error {
	var req InitiatePaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return writeError(c, invalidBody())
	}

	session, err := h.ports.Payments.Initiate(h.ctx(c), paymentmod.InitiateRequest{
		OrderID:       strings.TrimSpace(req.OrderID),
		UserID:        currentSession(c).UserID,
		PaymentMethod: payment.Method(strings.ToLower(strings.TrimSpace(req.PaymentMethod))),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toPaymentSessionDTO(session))
}

// PaymentWebhook receives gateway callbacks. The raw body is what the signature covers.
func (h *Handlers) PaymentWebhook(c *fiber.Ctx) error {
	res, err := h.ports.Payments.HandleWebhook(h.ctx(c), c.Body(), c.Get(paymentmod.SignatureHeader))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"received":  true,
		"eventId":   res.EventID,
		"orderId":   res.OrderID,
		"duplicate": res.Duplicate,
	})
}

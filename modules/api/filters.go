package api

import (
	"strconv"
	"strings"

	"github.com/UtsavMehta1975/walsnut-sub000/domain/apperror"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/catalog"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/order"
	catalogmod "github.com/UtsavMehta1975/walsnut-sub000/modules/catalog"
	ordermod "github.com/UtsavMehta1975/walsnut-sub000/modules/order"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// Admin listings fetch everything and narrow it here with plain predicates.

// Stock levels accepted by the admin product filter.
const (
	StockIn  = "in"
	StockLow = "low"
	StockOut = "out"
)

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), needle)
}

func filterSlice[T any](items []T, keep func(*T) bool) []T {
	out := make([]T, 0, len(items))
	for i := range items {
		if keep(&items[i]) {
			out = append(out, items[i])
		}
	}
	return out
}

// ProductQuery narrows the admin product list.
type ProductQuery struct {
	Q         string
	Brand     string
	Condition catalog.Condition
	Stock     string
}

func parseProductQuery(c *fiber.Ctx) (ProductQuery, error) {
	q := ProductQuery{
		Q:         strings.ToLower(strings.TrimSpace(c.Query("q"))),
		Brand:     strings.TrimSpace(c.Query("brand")),
		Condition: catalog.Condition(strings.ToUpper(strings.TrimSpace(c.Query("condition")))),
		Stock:     strings.ToLower(strings.TrimSpace(c.Query("stock"))),
	}
	fields := map[string]string{}
	if q.Condition != "" && !q.Condition.Valid() {
		fields["condition"] = "unknown condition"
	}
	switch q.Stock {
	case "", StockIn, StockLow, StockOut:
	default:
		fields["stock"] = "must be one of in, low, out"
	}
	if len(fields) > 0 {
		return q, apperror.Validation("invalid filter", fields)
	}
	return q, nil
}

// Match reports whether p passes every set criterion.
func (q ProductQuery) Match(p *catalog.Product) bool {
	if q.Q != "" && !containsFold(p.Brand, q.Q) && !containsFold(p.Model, q.Q) && !containsFold(p.ReferenceNumber, q.Q) {
		return false
	}
	if q.Brand != "" && !strings.EqualFold(p.Brand, q.Brand) {
		return false
	}
	if q.Condition != "" && p.Condition != q.Condition {
		return false
	}
	switch q.Stock {
	case StockIn:
		return p.StockQuantity > catalog.LowStockThreshold
	case StockLow:
		return p.StockQuantity > 0 && p.StockQuantity <= catalog.LowStockThreshold
	case StockOut:
		return p.StockQuantity == 0
	}
	return true
}

// FilterProducts returns the products matching q, keeping their order.
func FilterProducts(products []catalog.Product, q ProductQuery) []catalog.Product {
	return filterSlice(products, q.Match)
}

// OrderQuery narrows the admin order list.
type OrderQuery struct {
	Q             string
	Status        order.Status
	PaymentStatus order.PaymentStatus
}

func parseOrderQuery(c *fiber.Ctx) (OrderQuery, error) {
	q := OrderQuery{
		Q:             strings.ToLower(strings.TrimSpace(c.Query("q"))),
		Status:        order.Status(strings.ToUpper(strings.TrimSpace(c.Query("status")))),
		PaymentStatus: order.PaymentStatus(strings.ToUpper(strings.TrimSpace(c.Query("paymentStatus")))),
	}
	fields := map[string]string{}
	if q.Status != "" && !q.Status.Valid() {
		fields["status"] = "unknown status"
	}
	if q.PaymentStatus != "" && !q.PaymentStatus.Valid() {
		fields["paymentStatus"] = "unknown payment status"
	}
	if len(fields) > 0 {
		return q, apperror.Validation("invalid filter", fields)
	}
	return q, nil
}

// Match reports whether o passes every set criterion. The text query looks at the
// order id and the customer's email and name.
func (q OrderQuery) Match(o *order.Order) bool {
	if q.Q != "" {
		hit := containsFold(o.ID, q.Q)
		if !hit && o.User != nil {
			hit = containsFold(o.User.Email, q.Q) || containsFold(o.User.Name, q.Q)
		}
		if !hit {
			return false
		}
	}
	if q.Status != "" && o.Status != q.Status {
		return false
	}
	if q.PaymentStatus != "" && o.PaymentStatus != q.PaymentStatus {
		return false
	}
	return true
}

// FilterOrders returns the orders matching q, keeping their order.
func FilterOrders(orders []order.Order, q OrderQuery) []order.Order {
	return filterSlice(orders, q.Match)
}

// FilterCustomers keeps customers whose email, name or phone contains q.
func FilterCustomers(customers []ordermod.CustomerSummary, q string) []ordermod.CustomerSummary {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return customers
	}
	return filterSlice(customers, func(c *ordermod.CustomerSummary) bool {
		return containsFold(c.Email, q) || containsFold(c.Name, q) || containsFold(c.Phone, q)
	})
}

// queryInt parses an optional integer query parameter into fields on failure.
func queryInt(c *fiber.Ctx, key string, fields map[string]string) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		fields[key] = "must be an integer"
		return 0
	}
	return n
}

func queryDecimal(c *fiber.Ctx, key string, fields map[string]string) *decimal.Decimal {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		fields[key] = "must be a number"
		return nil
	}
	return &d
}

func queryBool(c *fiber.Ctx, key string, fields map[string]string) *bool {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		fields[key] = "must be true or false"
		return nil
	}
	return &b
}

// parseProductFilter reads the public listing parameters.
func parseProductFilter(c *fiber.Ctx) (catalogmod.ProductFilter, error) {
	fields := map[string]string{}
	f := catalogmod.ProductFilter{
		Page:      queryInt(c, "page", fields),
		Limit:     queryInt(c, "limit", fields),
		Brand:     strings.TrimSpace(c.Query("brand")),
		Category:  strings.TrimSpace(c.Query("category")),
		Condition: catalog.Condition(strings.ToUpper(strings.TrimSpace(c.Query("condition")))),
		MinPrice:  queryDecimal(c, "minPrice", fields),
		MaxPrice:  queryDecimal(c, "maxPrice", fields),
		Query:     strings.TrimSpace(c.Query("q")),
		Featured:  queryBool(c, "featured", fields),
		Sort:      strings.TrimSpace(c.Query("sort")),
	}
	if inStock := queryBool(c, "inStock", fields); inStock != nil {
		f.InStock = *inStock
	}
	if len(fields) > 0 {
		return f, apperror.Validation("invalid query parameters", fields)
	}
	return f, nil
}

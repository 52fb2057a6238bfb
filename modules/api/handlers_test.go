package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/UtsavMehta1975/walsnut-sub000/domain/apperror"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/catalog"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/order"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/payment"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/user"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/auth"
	catalogmod "github.com/UtsavMehta1975/walsnut-sub000/modules/catalog"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/notification"
	ordermod "github.com/UtsavMehta1975/walsnut-sub000/modules/order"
	paymentmod "github.com/UtsavMehta1975/walsnut-sub000/modules/payment"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRequest struct {
	method  string
	path    string
	body    any
	token   string
	cookie  string
	headers map[string]string
}

func do(t *testing.T, app *fiber.App, r testRequest) (*http.Response, map[string]any) {
	t.Helper()

	var body io.Reader
	switch b := r.body.(type) {
	case nil:
	case string:
		body = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(r.method, r.path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
	if r.cookie != "" {
		req.Header.Set("Cookie", r.cookie)
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	}
	return resp, out
}

func newTestApp(p *testPorts) *fiber.App {
	return NewApp(p.ports(), Config{}, nil)
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func sampleOrder(id, userID string) *order.Order {
	product := &catalog.Product{
		ID:     "P1",
		Brand:  "Rolex",
		Model:  "Submariner",
		Price:  decimal.RequireFromString("100.25"),
		Images: []catalog.ProductImage{{ImageURL: "sub.jpg", IsPrimary: true}},
	}
	return &order.Order{
		ID:              id,
		UserID:          userID,
		TotalAmount:     decimal.RequireFromString("200.50"),
		Status:          order.StatusPending,
		PaymentStatus:   order.PaymentPending,
		ShippingAddress: "1 Main St",
		Items: []order.OrderItem{{
			ID:                    "i1",
			ProductID:             "P1",
			Product:               product,
			Quantity:              2,
			PriceAtTimeOfPurchase: decimal.RequireFromString("100.25"),
		}},
		CreatedAt: time.Now(),
	}
}

func checkoutBody(customerInfo map[string]any) map[string]any {
	body := map[string]any{
		"items":           []map[string]any{{"productId": "P1", "quantity": 2, "price": 100.25}},
		"shippingAddress": "1 Main St",
		"totalAmount":     200.50,
		"paymentMethod":   "card",
	}
	if customerInfo != nil {
		body["customerInfo"] = customerInfo
	}
	return body
}

func TestCreateOrder_GuestCheckout(t *testing.T) {
	p := newTestPorts()
	var got ordermod.CreateOrderRequest
	p.orders.createOrderFunc = func(_ context.Context, req ordermod.CreateOrderRequest) (*ordermod.CreateOrderResult, error) {
		got = req
		created := true
		return &ordermod.CreateOrderResult{
			Order:           sampleOrder("o1", "u-new"),
			Owner:           ordermod.Owner{ID: "u-new", Email: "guest@example.com", Name: "Guest"},
			IsGuestCheckout: true,
			AccountCreated:  &created,
		}, nil
	}

	resp, body := do(t, newTestApp(p), testRequest{
		method: http.MethodPost,
		path:   "/api/orders",
		body:   checkoutBody(map[string]any{"email": " Guest@Example.com ", "name": "Guest"}),
	})

	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, user.IdentityGuest, got.Identity.Kind)
	require.NotNil(t, got.Identity.Guest)
	assert.Equal(t, "guest@example.com", got.Identity.Guest.Email)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.True(t, got.TotalAmount.Equal(decimal.RequireFromString("200.5")))

	assert.Equal(t, true, body["isGuestCheckout"])
	assert.Equal(t, true, body["accountCreated"])

	orderBody := body["order"].(map[string]any)
	assert.Equal(t, 200.5, orderBody["totalAmount"], "decimals are JSON numbers")
	item := orderBody["items"].([]any)[0].(map[string]any)
	assert.Equal(t, 100.25, item["priceAtTimeOfPurchase"])
	assert.Equal(t, 200.5, item["subtotal"])
	assert.Equal(t, "sub.jpg", item["product"].(map[string]any)["primaryImage"])

	c := findCookie(resp, UserCookie)
	require.NotNil(t, c, "guest checkout sets the user cookie")
	cu, ok := DecodeUserCookie(c.Value)
	require.True(t, ok)
	assert.Equal(t, "u-new", cu.ID)
	assert.Equal(t, "guest@example.com", cu.Email)
}

func TestCreateOrder_GuestLinkedToExistingAccountGetsNoCookie(t *testing.T) {
	p := newTestPorts()
	p.orders.createOrderFunc = func(context.Context, ordermod.CreateOrderRequest) (*ordermod.CreateOrderResult, error) {
		created := false
		return &ordermod.CreateOrderResult{
			Order:           sampleOrder("o1", "u-admin"),
			Owner:           ordermod.Owner{ID: "u-admin", Email: "admin@example.com"},
			IsGuestCheckout: true,
			AccountCreated:  &created,
		}, nil
	}

	resp, body := do(t, newTestApp(p), testRequest{
		method: http.MethodPost,
		path:   "/api/orders",
		body:   checkoutBody(map[string]any{"email": "admin@example.com"}),
	})

	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, false, body["accountCreated"])
	assert.Nil(t, findCookie(resp, UserCookie), "an existing account must not be handed to whoever knows its email")
}

func TestCreateOrder_AuthenticatedIgnoresCustomerInfo(t *testing.T) {
	p := newTestPorts().withTokens()
	var got ordermod.CreateOrderRequest
	p.orders.createOrderFunc = func(_ context.Context, req ordermod.CreateOrderRequest) (*ordermod.CreateOrderResult, error) {
		got = req
		return &ordermod.CreateOrderResult{Order: sampleOrder("o1", "u-customer")}, nil
	}

	resp, body := do(t, newTestApp(p), testRequest{
		method: http.MethodPost,
		path:   "/api/orders",
		token:  "customer-token",
		body:   checkoutBody(map[string]any{"email": "someone-else@example.com"}),
	})

	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	assert.Equal(t, user.Authenticated("u-customer"), got.Identity)
	assert.Equal(t, false, body["isGuestCheckout"])
	_, present := body["accountCreated"]
	assert.False(t, present, "accountCreated is only reported for guests")
	assert.Nil(t, findCookie(resp, UserCookie))
}

func TestCreateOrder_UserCookieSession(t *testing.T) {
	p := newTestPorts()
	p.auth.verifySessionFunc = func(_ context.Context, userID, email string) (*auth.UserDTO, error) {
		return &auth.UserDTO{ID: userID, Email: email, Role: user.RoleCustomer}, nil
	}
	var got ordermod.CreateOrderRequest
	p.orders.createOrderFunc = func(_ context.Context, req ordermod.CreateOrderRequest) (*ordermod.CreateOrderResult, error) {
		got = req
		return &ordermod.CreateOrderResult{Order: sampleOrder("o1", "u-cookie")}, nil
	}

	resp, _ := do(t, newTestApp(p), testRequest{
		method: http.MethodPost,
		path:   "/api/orders",
		cookie: cookieHeader(t, CookieUser{ID: "u-cookie", Email: "cookie@example.com"}),
		body:   checkoutBody(nil),
	})

	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, user.Authenticated("u-cookie"), got.Identity)
}

func TestCreateOrder_ErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantError   string
		wantDetails bool
	}{
		{
			name:       "anonymous",
			err:        ordermod.ErrAuthRequired,
			wantStatus: http.StatusUnauthorized,
			wantError:  "authentication required",
		},
		{
			name: "insufficient stock",
			err: apperror.New(apperror.KindInsufficientStock, "insufficient stock").WithDetails(map[string]any{
				"productId": "P1", "requested": 2, "available": 1,
			}),
			wantStatus:  http.StatusBadRequest,
			wantError:   "insufficient stock",
			wantDetails: true,
		},
		{
			name:        "validation",
			err:         apperror.Validation("invalid order payload", map[string]string{"items": "at least one item is required"}),
			wantStatus:  http.StatusBadRequest,
			wantError:   "invalid order payload",
			wantDetails: true,
		},
		{
			name:       "product not found",
			err:        apperror.NotFound("product not found"),
			wantStatus: http.StatusNotFound,
			wantError:  "product not found",
		},
		{
			name:       "database not configured",
			err:        apperror.Config("database not configured"),
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "database not configured",
		},
		{
			name:       "unexpected",
			err:        io.ErrUnexpectedEOF,
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPorts()
			p.orders.createOrderFunc = func(context.Context, ordermod.CreateOrderRequest) (*ordermod.CreateOrderResult, error) {
				return nil, tt.err
			}

			resp, body := do(t, newTestApp(p), testRequest{method: http.MethodPost, path: "/api/orders", body: checkoutBody(nil)})

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantError, body["error"])
			_, hasDetails := body["details"]
			assert.Equal(t, tt.wantDetails, hasDetails, body)
		})
	}
}

func TestCreateOrder_FractionalQuantityReachesValidation(t *testing.T) {
	p := newTestPorts()
	var got ordermod.CreateOrderRequest
	p.orders.createOrderFunc = func(_ context.Context, req ordermod.CreateOrderRequest) (*ordermod.CreateOrderResult, error) {
		got = req
		return nil, apperror.Validation("invalid order payload", map[string]string{"items[0].quantity": "must be between 1 and 100"})
	}

	body := checkoutBody(nil)
	body["items"] = []map[string]any{{"productId": "P1", "quantity": 1.5, "price": 1}}
	resp, _ := do(t, newTestApp(p), testRequest{method: http.MethodPost, path: "/api/orders", body: body})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 0, got.Items[0].Quantity)
}

func TestCreateOrder_OutOfRangeQuantityIsNotTruncated(t *testing.T) {
	tests := []struct {
		name     string
		quantity string
	}{
		{"wraps past int64", "18446744073709551621"},
		{"above max", "101"},
		{"zero", "0"},
		{"negative", "-3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPorts()
			var got ordermod.CreateOrderRequest
			p.orders.createOrderFunc = func(_ context.Context, req ordermod.CreateOrderRequest) (*ordermod.CreateOrderResult, error) {
				got = req
				return nil, apperror.Validation("invalid order payload", map[string]string{"items[0].quantity": "must be between 1 and 100"})
			}

			body := `{"items":[{"productId":"P1","quantity":` + tt.quantity + `,"price":1}],` +
				`"shippingAddress":"1 Main St","totalAmount":5,"customerInfo":{"email":"g@example.com"}}`
			resp, _ := do(t, newTestApp(p), testRequest{method: http.MethodPost, path: "/api/orders", body: body})

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			require.Len(t, got.Items, 1)
			assert.Equal(t, 0, got.Items[0].Quantity)
		})
	}
}

func TestCreateOrder_MalformedBody(t *testing.T) {
	p := newTestPorts()
	resp, body := do(t, newTestApp(p), testRequest{method: http.MethodPost, path: "/api/orders", body: "{not json"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid request body", body["error"])
}

func TestListOrders(t *testing.T) {
	p := newTestPorts().withTokens()
	var got ordermod.ListOrdersRequest
	p.orders.listOrdersFunc = func(_ context.Context, req ordermod.ListOrdersRequest) (*ordermod.ListOrdersResponse, error) {
		got = req
		return &ordermod.ListOrdersResponse{
			Orders: []order.Order{*sampleOrder("o1", req.UserID)},
			Total:  21,
			Page:   2,
			Limit:  10,
		}, nil
	}
	app := newTestApp(p)

	resp, body := do(t, app, testRequest{
		method: http.MethodGet,
		path:   "/api/orders?page=2&limit=10&status=pending",
		token:  "customer-token",
	})

	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "u-customer", got.UserID, "only the caller's orders are requested")
	assert.Equal(t, order.StatusPending, got.Status)
	assert.Equal(t, map[string]any{"page": 2.0, "limit": 10.0, "total": 21.0, "totalPages": 3.0}, body["pagination"])
	assert.Len(t, body["orders"], 1)
}

func TestListOrders_Rejections(t *testing.T) {
	p := newTestPorts().withTokens()
	app := newTestApp(p)

	resp, _ := do(t, app, testRequest{method: http.MethodGet, path: "/api/orders"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "guests have no order history")

	resp, body := do(t, app, testRequest{method: http.MethodGet, path: "/api/orders?page=abc&limit=x", token: "customer-token"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	fields := body["details"].(map[string]any)["fields"].(map[string]any)
	assert.Contains(t, fields, "page")
	assert.Contains(t, fields, "limit")
}

func TestInitiatePayment(t *testing.T) {
	p := newTestPorts().withTokens()
	var got paymentmod.InitiateRequest
	p.payments.initiateFunc = func(_ context.Context, req paymentmod.InitiateRequest) (*payment.Session, error) {
		got = req
		return &payment.Session{
			OrderID:       req.OrderID,
			Provider:      "sandbox",
			PaymentMethod: req.PaymentMethod,
			SessionToken:  "sbx_token",
			Amount:        decimal.RequireFromString("200.50"),
			Currency:      "INR",
		}, nil
	}
	app := newTestApp(p)

	resp, body := do(t, app, testRequest{
		method: http.MethodPost,
		path:   "/api/payments",
		token:  "customer-token",
		body:   map[string]any{"orderId": "o1", "paymentMethod": "UPI"},
	})

	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, paymentmod.InitiateRequest{OrderID: "o1", UserID: "u-customer", PaymentMethod: payment.MethodUPI}, got)
	assert.Equal(t, "sbx_token", body["sessionToken"])
	assert.Equal(t, "sandbox", body["provider"])
	assert.Equal(t, 200.5, body["amount"])

	resp, _ = do(t, app, testRequest{method: http.MethodPost, path: "/api/payments", body: map[string]any{"orderId": "o1"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPaymentWebhook_PassesRawBody(t *testing.T) {
	p := newTestPorts()
	raw := `{"eventId":"evt_1","sessionToken":"sbx_token","status":"succeeded"}`
	var gotBody, gotSig string
	p.payments.handleWebhookFunc = func(_ context.Context, body []byte, signature string) (*paymentmod.WebhookResult, error) {
		gotBody, gotSig = string(body), signature
		return &paymentmod.WebhookResult{EventID: "evt_1", OrderID: "o1", Duplicate: true}, nil
	}

	resp, body := do(t, newTestApp(p), testRequest{
		method:  http.MethodPost,
		path:    "/api/payments/webhook",
		body:    raw,
		headers: map[string]string{paymentmod.SignatureHeader: "abc123"},
	})

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, raw, gotBody)
	assert.Equal(t, "abc123", gotSig)
	assert.Equal(t, true, body["duplicate"])
}

func TestPaymentWebhook_BadSignature(t *testing.T) {
	p := newTestPorts()
	p.payments.handleWebhookFunc = func(context.Context, []byte, string) (*paymentmod.WebhookResult, error) {
		return nil, paymentmod.ErrBadSignature
	}

	resp, _ := do(t, newTestApp(p), testRequest{method: http.MethodPost, path: "/api/payments/webhook", body: "{}"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAdminProducts_Filters(t *testing.T) {
	p := newTestPorts().withTokens()
	p.catalog.listAllProductsFunc = func(context.Context) ([]catalog.Product, error) {
		return []catalog.Product{
			{ID: "1", Brand: "Rolex", Model: "Submariner", StockQuantity: 5, Condition: catalog.ConditionNew},
			{ID: "2", Brand: "Omega", Model: "Speedmaster", StockQuantity: 2, Condition: catalog.ConditionExcellent},
			{ID: "3", Brand: "Rolex", Model: "Daytona", StockQuantity: 0, Condition: catalog.ConditionNew},
		}, nil
	}
	app := newTestApp(p)

	tests := []struct {
		query   string
		wantIDs []string
	}{
		{"", []string{"1", "2", "3"}},
		{"?brand=rolex", []string{"1", "3"}},
		{"?q=speed", []string{"2"}},
		{"?stock=low", []string{"2"}},
		{"?stock=out", []string{"3"}},
		{"?stock=in&brand=Rolex", []string{"1"}},
		{"?condition=new&q=day", []string{"3"}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			resp, body := do(t, app, testRequest{method: http.MethodGet, path: "/api/admin/products" + tt.query, token: "admin-token"})
			require.Equal(t, http.StatusOK, resp.StatusCode, body)

			var ids []string
			for _, p := range body["products"].([]any) {
				ids = append(ids, p.(map[string]any)["id"].(string))
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}

	resp, _ := do(t, app, testRequest{method: http.MethodGet, path: "/api/admin/products?stock=plenty", token: "admin-token"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, app, testRequest{method: http.MethodGet, path: "/api/admin/products", token: "customer-token"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAdminOrders_FilterAndStatus(t *testing.T) {
	p := newTestPorts().withTokens()
	o1 := sampleOrder("ord-aaa", "u1")
	o1.User = &user.User{ID: "u1", Email: "ann@example.com", Name: "Ann"}
	o2 := sampleOrder("ord-bbb", "u2")
	o2.User = &user.User{ID: "u2", Email: "bob@example.com", Name: "Bob"}
	o2.Status = order.StatusShipped
	p.orders.listAllOrdersFunc = func(context.Context) ([]order.Order, error) {
		return []order.Order{*o1, *o2}, nil
	}
	var gotStatus order.Status
	p.orders.updateStatusFunc = func(_ context.Context, id string, status order.Status) (*order.Order, error) {
		gotStatus = status
		if status == order.StatusPending {
			return nil, apperror.Validation("invalid status transition", nil)
		}
		o := sampleOrder(id, "u1")
		o.Status = status
		return o, nil
	}
	app := newTestApp(p)

	_, body := do(t, app, testRequest{method: http.MethodGet, path: "/api/admin/orders?q=BOB", token: "admin-token"})
	assert.Equal(t, 1.0, body["total"])

	_, body = do(t, app, testRequest{method: http.MethodGet, path: "/api/admin/orders?status=pending", token: "admin-token"})
	assert.Equal(t, 1.0, body["total"])

	resp, _ := do(t, app, testRequest{method: http.MethodGet, path: "/api/admin/orders?paymentStatus=lost", token: "admin-token"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = do(t, app, testRequest{
		method: http.MethodPatch,
		path:   "/api/admin/orders/ord-aaa/status",
		token:  "admin-token",
		body:   map[string]any{"status": "confirmed"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, order.StatusConfirmed, gotStatus)
	assert.Equal(t, "CONFIRMED", body["status"])

	resp, _ = do(t, app, testRequest{
		method: http.MethodPatch,
		path:   "/api/admin/orders/ord-aaa/status",
		token:  "admin-token",
		body:   map[string]any{"status": "PENDING"},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAdminCustomers(t *testing.T) {
	p := newTestPorts().withTokens()
	p.orders.listCustomersFunc = func(context.Context) ([]ordermod.CustomerSummary, error) {
		return []ordermod.CustomerSummary{
			{ID: "u1", Email: "ann@example.com", Name: "Ann", OrderCount: 2, TotalSpent: decimal.RequireFromString("300.10")},
			{ID: "u2", Email: "bob@example.com", Name: "Bob", Phone: "555-0101"},
		}, nil
	}

	_, body := do(t, newTestApp(p), testRequest{method: http.MethodGet, path: "/api/admin/customers?q=ann", token: "admin-token"})

	customers := body["customers"].([]any)
	require.Len(t, customers, 1)
	c := customers[0].(map[string]any)
	assert.Equal(t, "u1", c["id"])
	assert.Equal(t, 300.1, c["totalSpent"])
	assert.Equal(t, 2.0, c["orderCount"])
}

func TestAdminCategories_CreatedVsExisting(t *testing.T) {
	p := newTestPorts().withTokens()
	p.catalog.ensureCategoryFunc = func(_ context.Context, name string, t catalog.CategoryType) (*catalog.Category, bool, error) {
		return &catalog.Category{ID: "c1", Name: name, Slug: catalog.Slugify(name), Type: t}, name == "Tudor", nil
	}
	app := newTestApp(p)

	resp, body := do(t, app, testRequest{method: http.MethodPost, path: "/api/admin/categories", token: "admin-token", body: map[string]any{"name": "Tudor", "type": "brand"}})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "BRAND", body["category"].(map[string]any)["type"])

	resp, _ = do(t, app, testRequest{method: http.MethodPost, path: "/api/admin/categories", token: "admin-token", body: map[string]any{"name": "Rolex", "type": "BRAND"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminAddImage_Multipart(t *testing.T) {
	p := newTestPorts().withTokens()
	var got catalogmod.AddImageRequest
	p.catalog.addImageFunc = func(_ context.Context, req catalogmod.AddImageRequest) (*catalog.ProductImage, error) {
		got = req
		return &catalog.ProductImage{ID: "img1", ProductID: req.ProductID, ImageURL: "https://cdn/x.png", IsPrimary: req.IsPrimary}, nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", "x.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG fake"))
	require.NoError(t, err)
	require.NoError(t, w.WriteField("isPrimary", "true"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/products/P1/images", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer admin-token")
	resp, err := newTestApp(p).Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "P1", got.ProductID)
	assert.Equal(t, "x.png", got.FileName)
	assert.Equal(t, []byte("\x89PNG fake"), got.Data)
	assert.True(t, got.IsPrimary)
}

func TestAdminAddImage_MultipartRejectsBadPrimaryFlag(t *testing.T) {
	p := newTestPorts().withTokens()
	called := false
	p.catalog.addImageFunc = func(context.Context, catalogmod.AddImageRequest) (*catalog.ProductImage, error) {
		called = true
		return &catalog.ProductImage{ID: "img1"}, nil
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", "x.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG fake"))
	require.NoError(t, err)
	require.NoError(t, w.WriteField("isPrimary", "yes"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/admin/products/P1/images", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer admin-token")
	resp, err := newTestApp(p).Test(req, -1)
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "must be true or false", body["details"].(map[string]any)["fields"].(map[string]any)["isPrimary"])
	assert.False(t, called)
}

func TestAdminStats(t *testing.T) {
	p := newTestPorts().withTokens()
	p.orders.statsFunc = func(context.Context) (*ordermod.Stats, error) {
		return &ordermod.Stats{
			Revenue:        decimal.RequireFromString("1234.50"),
			OrderCount:     3,
			OrdersByStatus: map[order.Status]int{order.StatusPending: 2, order.StatusDelivered: 1},
			CustomerCount:  2,
		}, nil
	}
	p.catalog.statsFunc = func(context.Context) (*catalogmod.Stats, error) {
		return &catalogmod.Stats{ProductCount: 10, LowStockCount: 2, OutOfStockCount: 1}, nil
	}

	resp, body := do(t, newTestApp(p), testRequest{method: http.MethodGet, path: "/api/admin/stats", token: "admin-token"})

	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, 1234.5, body["revenue"])
	assert.Equal(t, 10.0, body["productCount"])
	assert.Equal(t, 2.0, body["lowStockCount"])
	assert.Equal(t, 2.0, body["ordersByStatus"].(map[string]any)["PENDING"])
}

func TestAdminStats_PropagatesFailure(t *testing.T) {
	p := newTestPorts().withTokens()
	p.orders.statsFunc = func(context.Context) (*ordermod.Stats, error) {
		return nil, apperror.Config("database not configured")
	}
	p.catalog.statsFunc = func(context.Context) (*catalogmod.Stats, error) {
		return &catalogmod.Stats{}, nil
	}

	resp, _ := do(t, newTestApp(p), testRequest{method: http.MethodGet, path: "/api/admin/stats", token: "admin-token"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestAdminActivity(t *testing.T) {
	p := newTestPorts().withTokens()
	var gotLimit int
	p.activity.listActivityFunc = func(_ context.Context, limit int) ([]notification.Entry, error) {
		gotLimit = limit
		return []notification.Entry{{ID: "act_1", Type: notification.TypeOrderPlaced, OrderID: "o1"}}, nil
	}
	app := newTestApp(p)

	_, body := do(t, app, testRequest{method: http.MethodGet, path: "/api/admin/activity", token: "admin-token"})
	assert.Equal(t, defaultActivityLimit, gotLimit)
	entry := body["activity"].([]any)[0].(map[string]any)
	assert.Equal(t, "o1", entry["orderId"])

	resp, _ := do(t, app, testRequest{method: http.MethodGet, path: "/api/admin/activity?limit=1000", token: "admin-token"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin_SetsCookies(t *testing.T) {
	p := newTestPorts()
	p.auth.loginFunc = func(_ context.Context, email, password string) (*user.TokenPair, *auth.UserDTO, error) {
		if password != "correct horse" {
			return nil, nil, auth.ErrInvalidCredentials
		}
		return &user.TokenPair{AccessToken: "access", RefreshToken: "refresh", ExpiresIn: 900, TokenType: "Bearer"},
			&auth.UserDTO{ID: "u1", Email: email, Role: user.RoleCustomer}, nil
	}
	app := newTestApp(p)

	resp, body := do(t, app, testRequest{method: http.MethodPost, path: "/api/auth/login", body: map[string]any{"email": "a@b.co", "password": "correct horse"}})

	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "access", body["accessToken"])
	session := findCookie(resp, SessionCookie)
	require.NotNil(t, session)
	assert.Equal(t, "access", session.Value)
	assert.True(t, session.HttpOnly)
	assert.NotNil(t, findCookie(resp, UserCookie))

	resp, _ = do(t, app, testRequest{method: http.MethodPost, path: "/api/auth/login", body: map[string]any{"email": "a@b.co", "password": "wrong"}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestOAuth_StateCheck(t *testing.T) {
	p := newTestPorts()
	p.auth.oauthURLFunc = func(_ context.Context, state string) (string, error) {
		return "https://accounts.example.com/auth?state=" + state, nil
	}
	p.auth.oauthLoginFunc = func(_ context.Context, code string) (*user.TokenPair, *auth.UserDTO, error) {
		return &user.TokenPair{AccessToken: "access"}, &auth.UserDTO{ID: "u1", Email: "g@example.com"}, nil
	}
	app := newTestApp(p)

	resp, _ := do(t, app, testRequest{method: http.MethodGet, path: "/api/auth/oauth/google"})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	state := findCookie(resp, OAuthStateCookie)
	require.NotNil(t, state)
	assert.Contains(t, resp.Header.Get("Location"), state.Value)

	resp, _ = do(t, app, testRequest{method: http.MethodGet, path: "/api/auth/oauth/google/callback?code=c&state=forged", cookie: OAuthStateCookie + "=" + state.Value})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := do(t, app, testRequest{method: http.MethodGet, path: "/api/auth/oauth/google/callback?code=c&state=" + state.Value, cookie: OAuthStateCookie + "=" + state.Value})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "access", body["accessToken"])
}

func TestOAuth_NotConfigured(t *testing.T) {
	p := newTestPorts()
	p.auth.oauthURLFunc = func(context.Context, string) (string, error) {
		return "", auth.ErrOAuthNotConfigured
	}

	resp, _ := do(t, newTestApp(p), testRequest{method: http.MethodGet, path: "/api/auth/oauth/google"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestUnknownRoute_UsesErrorBody(t *testing.T) {
	resp, body := do(t, newTestApp(newTestPorts()), testRequest{method: http.MethodGet, path: "/api/nope"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, body["error"])
}

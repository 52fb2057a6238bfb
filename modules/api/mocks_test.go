package api

import (
	"context"
	"errors"

	"github.com/UtsavMehta1975/walsnut-sub000/domain/catalog"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/order"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/payment"
	"github.com/UtsavMehta1975/walsnut-sub000/domain/user"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/auth"
	catalogmod "github.com/UtsavMehta1975/walsnut-sub000/modules/catalog"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/notification"
	ordermod "github.com/UtsavMehta1975/walsnut-sub000/modules/order"
	paymentmod "github.com/UtsavMehta1975/walsnut-sub000/modules/payment"
)

var errNotImplemented = errors.New("not implemented")

// mockAuthPort implements auth.AuthPort for testing
type mockAuthPort struct {
	registerFunc      func(ctx context.Context, req auth.RegisterRequest) (*auth.UserDTO, error)
	loginFunc         func(ctx context.Context, email, password string) (*user.TokenPair, *auth.UserDTO, error)
	validateTokenFunc func(ctx context.Context, token string) (*user.Claims, error)
	getUserFunc       func(ctx context.Context, userID string) (*auth.UserDTO, error)
	verifySessionFunc func(ctx context.Context, userID, email string) (*auth.UserDTO, error)
	oauthURLFunc      func(ctx context.Context, state string) (string, error)
	oauthLoginFunc    func(ctx context.Context, code string) (*user.TokenPair, *auth.UserDTO, error)
}

func (m *mockAuthPort) Register(ctx context.Context, req auth.RegisterRequest) (*auth.UserDTO, error) {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, req)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) Login(ctx context.Context, email, password string) (*user.TokenPair, *auth.UserDTO, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, email, password)
	}
	return nil, nil, errNotImplemented
}

func (m *mockAuthPort) Refresh(context.Context, string) (*user.TokenPair, *auth.UserDTO, error) {
	return nil, nil, errNotImplemented
}

func (m *mockAuthPort) ValidateToken(ctx context.Context, token string) (*user.Claims, error) {
	if m.validateTokenFunc != nil {
		return m.validateTokenFunc(ctx, token)
	}
	return nil, auth.ErrSessionInvalid
}

func (m *mockAuthPort) GetUser(ctx context.Context, userID string) (*auth.UserDTO, error) {
	if m.getUserFunc != nil {
		return m.getUserFunc(ctx, userID)
	}
	return nil, errNotImplemented
}

func (m *mockAuthPort) UpdateProfile(context.Context, auth.UpdateProfileRequest) (*auth.UserDTO, error) {
	return nil, errNotImplemented
}

func (m *mockAuthPort) VerifySession(ctx context.Context, userID, email string) (*auth.UserDTO, error) {
	if m.verifySessionFunc != nil {
		return m.verifySessionFunc(ctx, userID, email)
	}
	return nil, auth.ErrSessionInvalid
}

func (m *mockAuthPort) OAuthURL(ctx context.Context, state string) (string, error) {
	if m.oauthURLFunc != nil {
		return m.oauthURLFunc(ctx, state)
	}
	return "", errNotImplemented
}

func (m *mockAuthPort) OAuthLogin(ctx context.Context, code string) (*user.TokenPair, *auth.UserDTO, error) {
	if m.oauthLoginFunc != nil {
		return m.oauthLoginFunc(ctx, code)
	}
	return nil, nil, errNotImplemented
}

// mockCatalogPort implements catalog.CatalogPort for testing
type mockCatalogPort struct {
	listProductsFunc    func(ctx context.Context, filter catalogmod.ProductFilter) (*catalogmod.ListProductsResponse, error)
	listAllProductsFunc func(ctx context.Context) ([]catalog.Product, error)
	addImageFunc        func(ctx context.Context, req catalogmod.AddImageRequest) (*catalog.ProductImage, error)
	ensureCategoryFunc  func(ctx context.Context, name string, t catalog.CategoryType) (*catalog.Category, bool, error)
	statsFunc           func(ctx context.Context) (*catalogmod.Stats, error)
}

func (m *mockCatalogPort) ListProducts(ctx context.Context, filter catalogmod.ProductFilter) (*catalogmod.ListProductsResponse, error) {
	if m.listProductsFunc != nil {
		return m.listProductsFunc(ctx, filter)
	}
	return nil, errNotImplemented
}

func (m *mockCatalogPort) ListAllProducts(ctx context.Context) ([]catalog.Product, error) {
	if m.listAllProductsFunc != nil {
		return m.listAllProductsFunc(ctx)
	}
	return nil, errNotImplemented
}

func (m *mockCatalogPort) GetProduct(context.Context, string) (*catalog.Product, error) {
	return nil, errNotImplemented
}

func (m *mockCatalogPort) CreateProduct(context.Context, catalogmod.ProductInput) (*catalog.Product, error) {
	return nil, errNotImplemented
}

func (m *mockCatalogPort) UpdateProduct(context.Context, string, catalogmod.ProductInput) (*catalog.Product, error) {
	return nil, errNotImplemented
}

func (m *mockCatalogPort) DeleteProduct(context.Context, string) error {
	return errNotImplemented
}

func (m *mockCatalogPort) AddImage(ctx context.Context, req catalogmod.AddImageRequest) (*catalog.ProductImage, error) {
	if m.addImageFunc != nil {
		return m.addImageFunc(ctx, req)
	}
	return nil, errNotImplemented
}

func (m *mockCatalogPort) ListCategories(context.Context, catalog.CategoryType) ([]catalog.Category, error) {
	return nil, errNotImplemented
}

func (m *mockCatalogPort) EnsureCategory(ctx context.Context, name string, t catalog.CategoryType) (*catalog.Category, bool, error) {
	if m.ensureCategoryFunc != nil {
		return m.ensureCategoryFunc(ctx, name, t)
	}
	return nil, false, errNotImplemented
}

func (m *mockCatalogPort) Stats(ctx context.Context) (*catalogmod.Stats, error) {
	if m.statsFunc != nil {
		return m.statsFunc(ctx)
	}
	return nil, errNotImplemented
}

// mockOrderPort implements order.OrderPort for testing
type mockOrderPort struct {
	createOrderFunc   func(ctx context.Context, req ordermod.CreateOrderRequest) (*ordermod.CreateOrderResult, error)
	listOrdersFunc    func(ctx context.Context, req ordermod.ListOrdersRequest) (*ordermod.ListOrdersResponse, error)
	getOrderFunc      func(ctx context.Context, orderID, userID string) (*order.Order, error)
	listAllOrdersFunc func(ctx context.Context) ([]order.Order, error)
	updateStatusFunc  func(ctx context.Context, orderID string, status order.Status) (*order.Order, error)
	listCustomersFunc func(ctx context.Context) ([]ordermod.CustomerSummary, error)
	statsFunc         func(ctx context.Context) (*ordermod.Stats, error)
}

func (m *mockOrderPort) CreateOrder(ctx context.Context, req ordermod.CreateOrderRequest) (*ordermod.CreateOrderResult, error) {
	if m.createOrderFunc != nil {
		return m.createOrderFunc(ctx, req)
	}
	return nil, errNotImplemented
}

func (m *mockOrderPort) ListOrders(ctx context.Context, req ordermod.ListOrdersRequest) (*ordermod.ListOrdersResponse, error) {
	if m.listOrdersFunc != nil {
		return m.listOrdersFunc(ctx, req)
	}
	return nil, errNotImplemented
}

func (m *mockOrderPort) GetOrder(ctx context.Context, orderID, userID string) (*order.Order, error) {
	if m.getOrderFunc != nil {
		return m.getOrderFunc(ctx, orderID, userID)
	}
	return nil, errNotImplemented
}

func (m *mockOrderPort) ListAllOrders(ctx context.Context) ([]order.Order, error) {
	if m.listAllOrdersFunc != nil {
		return m.listAllOrdersFunc(ctx)
	}
	return nil, errNotImplemented
}

func (m *mockOrderPort) UpdateStatus(ctx context.Context, orderID string, status order.Status) (*order.Order, error) {
	if m.updateStatusFunc != nil {
		return m.updateStatusFunc(ctx, orderID, status)
	}
	return nil, errNotImplemented
}

func (m *mockOrderPort) ListCustomers(ctx context.Context) ([]ordermod.CustomerSummary, error) {
	if m.listCustomersFunc != nil {
		return m.listCustomersFunc(ctx)
	}
	return nil, errNotImplemented
}

func (m *mockOrderPort) Stats(ctx context.Context) (*ordermod.Stats, error) {
	if m.statsFunc != nil {
		return m.statsFunc(ctx)
	}
	return nil, errNotImplemented
}

// mockPaymentPort implements payment.PaymentPort for testing
type mockPaymentPort struct {
	initiateFunc      func(ctx context.Context, req paymentmod.InitiateRequest) (*payment.Session, error)
	handleWebhookFunc func(ctx context.Context, body []byte, signature string) (*paymentmod.WebhookResult, error)
}

func (m *mockPaymentPort) Initiate(ctx context.Context, req paymentmod.InitiateRequest) (*payment.Session, error) {
	if m.initiateFunc != nil {
		return m.initiateFunc(ctx, req)
	}
	return nil, errNotImplemented
}

func (m *mockPaymentPort) HandleWebhook(ctx context.Context, body []byte, signature string) (*paymentmod.WebhookResult, error) {
	if m.handleWebhookFunc != nil {
		return m.handleWebhookFunc(ctx, body, signature)
	}
	return nil, errNotImplemented
}

// mockActivityPort implements notification.ActivityPort for testing
type mockActivityPort struct {
	listActivityFunc func(ctx context.Context, limit int) ([]notification.Entry, error)
}

func (m *mockActivityPort) ListActivity(ctx context.Context, limit int) ([]notification.Entry, error) {
	if m.listActivityFunc != nil {
		return m.listActivityFunc(ctx, limit)
	}
	return nil, errNotImplemented
}

type testPorts struct {
	auth     *mockAuthPort
	catalog  *mockCatalogPort
	orders   *mockOrderPort
	payments *mockPaymentPort
	activity *mockActivityPort
}

func newTestPorts() *testPorts {
	return &testPorts{
		auth:     &mockAuthPort{},
		catalog:  &mockCatalogPort{},
		orders:   &mockOrderPort{},
		payments: &mockPaymentPort{},
		activity: &mockActivityPort{},
	}
}

func (p *testPorts) ports() Ports {
	return Ports{
		Auth:     p.auth,
		Catalog:  p.catalog,
		Orders:   p.orders,
		Payments: p.payments,
		Activity: p.activity,
	}
}

// withTokens makes the auth mock accept "customer-token" and "admin-token".
func (p *testPorts) withTokens() *testPorts {
	p.auth.validateTokenFunc = func(_ context.Context, token string) (*user.Claims, error) {
		switch token {
		case "customer-token":
			return &user.Claims{UserID: "u-customer", Email: "c@example.com", Role: user.RoleCustomer}, nil
		case "admin-token":
			return &user.Claims{UserID: "u-admin", Email: "a@example.com", Role: user.RoleAdmin}, nil
		}
		return nil, auth.ErrSessionInvalid
	}
	return p
}

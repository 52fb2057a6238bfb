package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/UtsavMehta1975/walsnut-sub000/domain/apperror"
	"github.com/UtsavMehta1975/walsnut-sub000/events"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/cache"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/database"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Config holds catalog module configuration.
type Config struct {
	Images S3Config
}

// CatalogModule provides product and category services as a mono module.
type CatalogModule struct {
	config   Config
	database *database.PluginModule
	cache    *cache.PluginModule
	service  *Service
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*CatalogModule)(nil)
	_ mono.ServiceProviderModule = (*CatalogModule)(nil)
	_ mono.UsePluginModule       = (*CatalogModule)(nil)
	_ mono.EventConsumerModule   = (*CatalogModule)(nil)
	_ mono.HealthCheckableModule = (*CatalogModule)(nil)
)

// NewModule creates a new catalog module.
func NewModule(config Config) *CatalogModule {
	return &CatalogModule{config: config}
}

// Name returns the module name.
func (m *CatalogModule) Name() string {
	return "catalog"
}

// SetPlugin receives the database and cache plugins from the framework.
func (m *CatalogModule) SetPlugin(alias string, plugin mono.PluginModule) {
	switch alias {
	case "database":
		if db, ok := plugin.(*database.PluginModule); ok {
			m.database = db
		}
	case "cache":
		if c, ok := plugin.(*cache.PluginModule); ok {
			m.cache = c
		}
	}
}

// Start builds the service on the shared database and cache.
func (m *CatalogModule) Start(ctx context.Context) error {
	if m.database == nil {
		return fmt.Errorf("required plugin 'database' not registered")
	}

	db, err := m.database.DB()
	if err != nil {
		log.Printf("[catalog] Module started without database: %v", err)
		return nil
	}

	var c cache.CacheService
	if m.cache != nil {
		c = m.cache.Port()
	}

	var images ImageStore
	if m.config.Images.Enabled() {
		store, err := NewS3ImageStore(ctx, m.config.Images)
		if err != nil {
			return err
		}
		images = store
	}

	m.service = NewService(NewRepository(db), c, images)
	log.Printf("[catalog] Module started (cache: %t, image upload: %t)", c != nil && c.Enabled(), images != nil)
	return nil
}

// Stop stops the module.
func (m *CatalogModule) Stop(_ context.Context) error {
	log.Println("[catalog] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *CatalogModule) Health(_ context.Context) mono.HealthStatus {
	if m.service == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not configured",
		}
	}
	stats := m.service.CacheStats()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"cache_enabled":  stats.Enabled,
			"cache_hit_rate": stats.HitRate,
			"image_upload":   m.config.Images.Enabled(),
		},
	}
}

// RegisterEventConsumers invalidates cached stock when orders change it.
func (m *CatalogModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(registry, events.OrderPlacedV1, m.handleOrderPlaced, m); err != nil {
		return fmt.Errorf("failed to register OrderPlaced consumer: %w", err)
	}
	if err := helper.RegisterTypedEventConsumer(registry, events.OrderStatusChangedV1, m.handleOrderStatusChanged, m); err != nil {
		return fmt.Errorf("failed to register OrderStatusChanged consumer: %w", err)
	}

	log.Printf("[catalog] Registered event consumers: OrderPlaced, OrderStatusChanged")
	return nil
}

func (m *CatalogModule) handleOrderPlaced(ctx context.Context, event events.OrderPlacedEvent, _ *mono.Msg) error {
	if m.service == nil {
		return nil
	}
	m.service.InvalidateProducts(ctx, lineProductIDs(event.Lines)...)
	return nil
}

func (m *CatalogModule) handleOrderStatusChanged(ctx context.Context, event events.OrderStatusChangedEvent, _ *mono.Msg) error {
	if m.service == nil || len(event.Lines) == 0 {
		return nil
	}
	m.service.InvalidateProducts(ctx, lineProductIDs(event.Lines)...)
	return nil
}

func lineProductIDs(lines []events.OrderLine) []string {
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	return ids
}

// RegisterServices registers request-reply services in the service container.
func (m *CatalogModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(container, "list-products", json.Unmarshal, json.Marshal, m.handleListProducts); err != nil {
		return fmt.Errorf("failed to register list-products service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "list-all-products", json.Unmarshal, json.Marshal, m.handleListAllProducts); err != nil {
		return fmt.Errorf("failed to register list-all-products service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "get-product", json.Unmarshal, json.Marshal, m.handleGetProduct); err != nil {
		return fmt.Errorf("failed to register get-product service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "create-product", json.Unmarshal, json.Marshal, m.handleCreateProduct); err != nil {
		return fmt.Errorf("failed to register create-product service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "update-product", json.Unmarshal, json.Marshal, m.handleUpdateProduct); err != nil {
		return fmt.Errorf("failed to register update-product service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "delete-product", json.Unmarshal, json.Marshal, m.handleDeleteProduct); err != nil {
		return fmt.Errorf("failed to register delete-product service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "add-product-image", json.Unmarshal, json.Marshal, m.handleAddImage); err != nil {
		return fmt.Errorf("failed to register add-product-image service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "list-categories", json.Unmarshal, json.Marshal, m.handleListCategories); err != nil {
		return fmt.Errorf("failed to register list-categories service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "ensure-category", json.Unmarshal, json.Marshal, m.handleEnsureCategory); err != nil {
		return fmt.Errorf("failed to register ensure-category service: %w", err)
	}
	if err := helper.RegisterTypedRequestReplyService(container, "catalog-stats", json.Unmarshal, json.Marshal, m.handleStats); err != nil {
		return fmt.Errorf("failed to register catalog-stats service: %w", err)
	}

	log.Printf("[catalog] Registered services: list-products, list-all-products, get-product, create-product, update-product, delete-product, add-product-image, list-categories, ensure-category, catalog-stats")
	return nil
}

func (m *CatalogModule) ready() (*Service, error) {
	if m.service == nil {
		return nil, database.ErrNotConfigured
	}
	return m.service, nil
}

func (m *CatalogModule) handleListProducts(ctx context.Context, req ListProductsRequest, _ *mono.Msg) (ListProductsResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return ListProductsResponse{Error: apperror.ToPayload(err)}, nil
	}

	products, total, f, err := svc.ListProducts(ctx, req.Filter)
	if err != nil {
		return ListProductsResponse{Error: m.payload("list-products", err)}, nil
	}
	return ListProductsResponse{Products: products, Total: total, Page: f.Page, Limit: f.Limit}, nil
}

func (m *CatalogModule) handleListAllProducts(ctx context.Context, _ ListAllProductsRequest, _ *mono.Msg) (ListProductsResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return ListProductsResponse{Error: apperror.ToPayload(err)}, nil
	}

	products, err := svc.ListAllProducts(ctx)
	if err != nil {
		return ListProductsResponse{Error: m.payload("list-all-products", err)}, nil
	}
	return ListProductsResponse{Products: products, Total: int64(len(products))}, nil
}

func (m *CatalogModule) handleGetProduct(ctx context.Context, req GetProductRequest, _ *mono.Msg) (ProductResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return ProductResponse{Error: apperror.ToPayload(err)}, nil
	}

	p, err := svc.GetProduct(ctx, req.ID)
	if err != nil {
		return ProductResponse{Error: m.payload("get-product", err)}, nil
	}
	return ProductResponse{Product: p}, nil
}

func (m *CatalogModule) handleCreateProduct(ctx context.Context, req CreateProductRequest, _ *mono.Msg) (ProductResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return ProductResponse{Error: apperror.ToPayload(err)}, nil
	}

	p, err := svc.CreateProduct(ctx, req.Input)
	if err != nil {
		return ProductResponse{Error: m.payload("create-product", err)}, nil
	}
	return ProductResponse{Product: p}, nil
}

func (m *CatalogModule) handleUpdateProduct(ctx context.Context, req UpdateProductRequest, _ *mono.Msg) (ProductResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return ProductResponse{Error: apperror.ToPayload(err)}, nil
	}

	p, err := svc.UpdateProduct(ctx, req.ID, req.Input)
	if err != nil {
		return ProductResponse{Error: m.payload("update-product", err)}, nil
	}
	return ProductResponse{Product: p}, nil
}

func (m *CatalogModule) handleDeleteProduct(ctx context.Context, req DeleteProductRequest, _ *mono.Msg) (DeleteResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return DeleteResponse{Error: apperror.ToPayload(err)}, nil
	}

	if err := svc.DeleteProduct(ctx, req.ID); err != nil {
		return DeleteResponse{Error: m.payload("delete-product", err)}, nil
	}
	return DeleteResponse{Deleted: true}, nil
}

func (m *CatalogModule) handleAddImage(ctx context.Context, req AddImageRequest, _ *mono.Msg) (ImageResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return ImageResponse{Error: apperror.ToPayload(err)}, nil
	}

	img, err := svc.AddImage(ctx, req)
	if err != nil {
		return ImageResponse{Error: m.payload("add-product-image", err)}, nil
	}
	return ImageResponse{Image: img}, nil
}

func (m *CatalogModule) handleListCategories(ctx context.Context, req ListCategoriesRequest, _ *mono.Msg) (ListCategoriesResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return ListCategoriesResponse{Error: apperror.ToPayload(err)}, nil
	}

	categories, err := svc.ListCategories(ctx, req.Type)
	if err != nil {
		return ListCategoriesResponse{Error: m.payload("list-categories", err)}, nil
	}
	return ListCategoriesResponse{Categories: categories}, nil
}

func (m *CatalogModule) handleEnsureCategory(ctx context.Context, req EnsureCategoryRequest, _ *mono.Msg) (EnsureCategoryResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return EnsureCategoryResponse{Error: apperror.ToPayload(err)}, nil
	}

	c, created, err := svc.EnsureCategory(ctx, req.Name, req.Type)
	if err != nil {
		return EnsureCategoryResponse{Error: m.payload("ensure-category", err)}, nil
	}
	return EnsureCategoryResponse{Category: c, Created: created}, nil
}

func (m *CatalogModule) handleStats(ctx context.Context, _ StatsRequest, _ *mono.Msg) (StatsResponse, error) {
	svc, err := m.ready()
	if err != nil {
		return StatsResponse{Error: apperror.ToPayload(err)}, nil
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		return StatsResponse{Error: m.payload("catalog-stats", err)}, nil
	}
	return StatsResponse{Stats: stats}, nil
}

func (m *CatalogModule) payload(op string, err error) *apperror.Payload {
	if apperror.KindOf(err) == apperror.KindInternal {
		log.Printf("[catalog] %s failed: %v", op, err)
	}
	return apperror.ToPayload(err)
}

package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	domain "github.com/UtsavMehta1975/walsnut-sub000/domain/catalog"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// CatalogPort defines the catalog operations other modules use.
type CatalogPort interface {
	ListProducts(ctx context.Context, filter ProductFilter) (*ListProductsResponse, error)
	ListAllProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, in ProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	AddImage(ctx context.Context, req AddImageRequest) (*domain.ProductImage, error)
	ListCategories(ctx context.Context, t domain.CategoryType) ([]domain.Category, error)
	EnsureCategory(ctx context.Context, name string, t domain.CategoryType) (*domain.Category, bool, error)
	Stats(ctx context.Context) (*Stats, error)
}

// CatalogAdapter implements CatalogPort using the service container.
type CatalogAdapter struct {
	container mono.ServiceContainer
}

var _ CatalogPort = (*CatalogAdapter)(nil)

// NewCatalogAdapter creates a new CatalogAdapter.
func NewCatalogAdapter(container mono.ServiceContainer) *CatalogAdapter {
	return &CatalogAdapter{container: container}
}

func call[Req, Resp any](ctx context.Context, container mono.ServiceContainer, service string, req *Req, resp *Resp) error {
	if err := helper.CallRequestReplyService(ctx, container, service, json.Marshal, json.Unmarshal, req, resp); err != nil {
		return fmt.Errorf("%s request failed: %w", service, err)
	}
	return nil
}

// ListProducts returns one page of the public listing.
func (a *CatalogAdapter) ListProducts(ctx context.Context, filter ProductFilter) (*ListProductsResponse, error) {
	var resp ListProductsResponse
	if err := call(ctx, a.container, "list-products", &ListProductsRequest{Filter: filter}, &resp); err != nil {
		return nil, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListAllProducts returns every product.
func (a *CatalogAdapter) ListAllProducts(ctx context.Context) ([]domain.Product, error) {
	var resp ListProductsResponse
	if err := call(ctx, a.container, "list-all-products", &ListAllProductsRequest{}, &resp); err != nil {
		return nil, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

// GetProduct retrieves one product.
func (a *CatalogAdapter) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var resp ProductResponse
	if err := call(ctx, a.container, "get-product", &GetProductRequest{ID: id}, &resp); err != nil {
		return nil, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return resp.Product, nil
}

// CreateProduct creates a product.
func (a *CatalogAdapter) CreateProduct(ctx context.Context, in ProductInput) (*domain.Product, error) {
	var resp ProductResponse
	if err := call(ctx, a.container, "create-product", &CreateProductRequest{Input: in}, &resp); err != nil {
		return nil, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return resp.Product, nil
}

// UpdateProduct replaces a product's fields.
func (a *CatalogAdapter) UpdateProduct(ctx context.Context, id string, in ProductInput) (*domain.Product, error) {
	var resp ProductResponse
	if err := call(ctx, a.container, "update-product", &UpdateProductRequest{ID: id, Input: in}, &resp); err != nil {
		return nil, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return resp.Product, nil
}

// DeleteProduct removes a product.
func (a *CatalogAdapter) DeleteProduct(ctx context.Context, id string) error {
	var resp DeleteResponse
	if err := call(ctx, a.container, "delete-product", &DeleteProductRequest{ID: id}, &resp); err != nil {
		return err
	}
	return resp.Error.Err()
}

// AddImage attaches an image to a product.
func (a *CatalogAdapter) AddImage(ctx context.Context, req AddImageRequest) (*domain.ProductImage, error) {
	var resp ImageResponse
	if err := call(ctx, a.container, "add-product-image", &req, &resp); err != nil {
		return nil, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return resp.Image, nil
}

// ListCategories returns categories, optionally of one type.
func (a *CatalogAdapter) ListCategories(ctx context.Context, t domain.CategoryType) ([]domain.Category, error) {
	var resp ListCategoriesResponse
	if err := call(ctx, a.container, "list-categories", &ListCategoriesRequest{Type: t}, &resp); err != nil {
		return nil, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return resp.Categories, nil
}

// EnsureCategory finds or creates a category.
func (a *CatalogAdapter) EnsureCategory(ctx context.Context, name string, t domain.CategoryType) (*domain.Category, bool, error) {
	var resp EnsureCategoryResponse
	if err := call(ctx, a.container, "ensure-category", &EnsureCategoryRequest{Name: name, Type: t}, &resp); err != nil {
		return nil, false, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, false, err
	}
	return resp.Category, resp.Created, nil
}

// Stats returns inventory counters.
func (a *CatalogAdapter) Stats(ctx context.Context) (*Stats, error) {
	var resp StatsResponse
	if err := call(ctx, a.container, "catalog-stats", &StatsRequest{}, &resp); err != nil {
		return nil, err
	}
	if err := resp.Error.Err(); err != nil {
		return nil, err
	}
	return resp.Stats, nil
}

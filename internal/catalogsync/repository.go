package catalogsync

import (
	"context"

	"github.com/fekuna/omnipos-catalog-sync/internal/model"
)

// Repository is the relational store as seen by the reconciliation engines.
// Lookups that find nothing return (nil, nil).
type Repository interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	// CreateCategory and CreateBrand report false, without error, when the
	// name is already taken.
	CreateCategory(ctx context.Context, c *model.Category) (bool, error)
	ListBrands(ctx context.Context) ([]model.Brand, error)
	CreateBrand(ctx context.Context, b *model.Brand) (bool, error)

	// ListExternalProducts returns every product carrying an ERP model id.
	ListExternalProducts(ctx context.Context) ([]model.Product, error)
	FindProductByExternalKey(ctx context.Context, key model.ExternalKey) (*model.Product, error)
	CreateProduct(ctx context.Context, p *model.Product) error

	ListVariants(ctx context.Context) ([]model.Variant, error)
	// CreateVariant inserts the variant and its attributes in one
	// transaction. It reports false, without error, when the custom sku is
	// already taken.
	CreateVariant(ctx context.Context, v *model.Variant, attrs []model.VariantAttribute) (bool, error)
	UpdateVariant(ctx context.Context, patch *model.VariantPatch) error
	UpdateVariantStockQuantity(ctx context.Context, variantID string, quantity int64) error

	// ListWarehouses returns one warehouse per code.
	ListWarehouses(ctx context.Context) ([]model.Warehouse, error)
	ListWarehouseStocks(ctx context.Context) ([]model.WarehouseStockRow, error)
	CreateWarehouseStocks(ctx context.Context, stocks []model.WarehouseStock) error
	UpdateWarehouseStockQuantity(ctx context.Context, stockID string, quantity int64) error
	// SumStockByVariant aggregates warehouse stock rows per variant id.
	SumStockByVariant(ctx context.Context) (map[string]int64, error)
}

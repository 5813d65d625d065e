package inventory

import (
	"context"

	"github.com/fekuna/omnipos-catalog-sync/internal/model"
)

type Repository interface {
	// Warehouses
	ListWarehouses(ctx context.Context) ([]model.Warehouse, error)

	// Per-warehouse stock rows
	ListWarehouseStocks(ctx context.Context) ([]model.WarehouseStockRow, error)
	ListVariantStock(ctx context.Context, variantID string) ([]model.WarehouseStockRow, error)
	CreateWarehouseStocks(ctx context.Context, stocks []model.WarehouseStock) error
	UpdateWarehouseStockQuantity(ctx context.Context, stockID string, quantity int64) error

	// SumStockByVariant aggregates stock rows per variant id in the store.
	SumStockByVariant(ctx context.Context) (map[string]int64, error)
}

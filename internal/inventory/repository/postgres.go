package repository

import (
	"context"

	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/jmoiron/sqlx"
)

const stockRowQuery = `
        SELECT ws.id AS stock_id, w.id AS warehouse_id, w.code AS warehouse_code,
               ws.variant_id, v.custom_sku, ws.quantity
        FROM warehouse_stocks ws
        JOIN warehouses w ON w.id = ws.warehouse_id
        JOIN product_variants v ON v.id = ws.variant_id
    `

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) ListWarehouses(ctx context.Context) ([]model.Warehouse, error) {
	warehouses := []model.Warehouse{}
	query := `SELECT DISTINCT ON (code) id, code, name FROM warehouses ORDER BY code, id`
	err := r.DB.SelectContext(ctx, &warehouses, query)
	return warehouses, err
}

func (r *PGRepository) ListWarehouseStocks(ctx context.Context) ([]model.WarehouseStockRow, error) {
	rows := []model.WarehouseStockRow{}
	err := r.DB.SelectContext(ctx, &rows, stockRowQuery)
	return rows, err
}

func (r *PGRepository) ListVariantStock(ctx context.Context, variantID string) ([]model.WarehouseStockRow, error) {
	rows := []model.WarehouseStockRow{}
	err := r.DB.SelectContext(ctx, &rows, stockRowQuery+` WHERE ws.variant_id = $1 ORDER BY w.code`, variantID)
	return rows, err
}

// CreateWarehouseStocks inserts all rows in one statement.
func (r *PGRepository) CreateWarehouseStocks(ctx context.Context, stocks []model.WarehouseStock) error {
	if len(stocks) == 0 {
		return nil
	}
	query := `
        INSERT INTO warehouse_stocks (id, variant_id, warehouse_id, quantity, created_at, updated_at)
        VALUES (:id, :variant_id, :warehouse_id, :quantity, :created_at, :updated_at)
    `
	_, err := r.DB.NamedExecContext(ctx, query, stocks)
	return err
}

func (r *PGRepository) UpdateWarehouseStockQuantity(ctx context.Context, stockID string, quantity int64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE warehouse_stocks SET quantity = $1, updated_at = NOW() WHERE id = $2`, quantity, stockID)
	return err
}

func (r *PGRepository) SumStockByVariant(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		VariantID string `db:"variant_id"`
		Total     int64  `db:"total"`
	}
	query := `SELECT variant_id, COALESCE(SUM(quantity), 0) AS total FROM warehouse_stocks GROUP BY variant_id`
	if err := r.DB.SelectContext(ctx, &rows, query); err != nil {
		return nil, err
	}

	sums := make(map[string]int64, len(rows))
	for _, row := range rows {
		sums[row.VariantID] = row.Total
	}
	return sums, nil
}

package model

import "time"

type Warehouse struct {
	ID   string `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

type WarehouseStock struct {
	ID          string    `db:"id" json:"id"`
	VariantID   string    `db:"variant_id" json:"variant_id"`
	WarehouseID string    `db:"warehouse_id" json:"warehouse_id"`
	Quantity    int64     `db:"quantity" json:"quantity"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// WarehouseStockRow is a persisted stock row joined with the identities the
// reconciliation keys on.
type WarehouseStockRow struct {
	StockID       string `db:"stock_id"`
	WarehouseID   string `db:"warehouse_id"`
	WarehouseCode string `db:"warehouse_code"`
	VariantID     string `db:"variant_id"`
	CustomSKU     string `db:"custom_sku"`
	Quantity      int64  `db:"quantity"`
}

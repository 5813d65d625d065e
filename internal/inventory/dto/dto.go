package dto

type WarehouseQuantity struct {
	WarehouseID   string `json:"warehouse_id"`
	WarehouseCode string `json:"warehouse_code"`
	Quantity      int64  `json:"quantity"`
}

// VariantStock is the per-warehouse breakdown of one variant's stock.
type VariantStock struct {
	VariantID  string              `json:"variant_id"`
	Total      int64               `json:"total"`
	Warehouses []WarehouseQuantity `json:"warehouses"`
}

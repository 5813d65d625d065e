package dto

import "time"

type ProductSummary struct {
	ID            string `json:"id"`
	ModelID       string `json:"model_id"`
	GadgetModelID string `json:"gadget_model_id,omitempty"`
	Name          string `json:"name"`
}

type VariantSummary struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id"`
	CustomSKU string  `json:"custom_sku"`
	Price     float64 `json:"price"`
}

type IngestResult struct {
	CreatedCategories []string         `json:"created_categories"`
	CreatedBrands     []string         `json:"created_brands"`
	InsertedProducts  []ProductSummary `json:"inserted_products"`
	InsertedVariants  []VariantSummary `json:"inserted_variants"`
	SkippedBarcodes   []string         `json:"skipped_barcodes"`
	Failures          []string         `json:"failures"`
}

// VariantUpdate records one applied variant change with the values it
// replaced.
type VariantUpdate struct {
	VariantID       string   `json:"variant_id"`
	CustomSKU       string   `json:"custom_sku"`
	Price           float64  `json:"price"`
	PrevPrice       float64  `json:"prev_price"`
	PointEarn       float64  `json:"point_earn"`
	PrevPointEarn   *float64 `json:"prev_point_earn"`
	VAT             float64  `json:"vat"`
	PrevVAT         *float64 `json:"prev_vat"`
	ModelNo         string   `json:"model_no"`
	DiscountType    string   `json:"discount_type,omitempty"`
	DiscountValue   *float64 `json:"discount_value,omitempty"`
	DiscountedPrice *float64 `json:"discounted_price,omitempty"`
}

type ReconcileResult struct {
	UpdatedVariants []VariantUpdate `json:"updated_variants"`
	Failures        []string        `json:"failures"`
}

type StockInsert struct {
	VariantID     string `json:"variant_id"`
	CustomSKU     string `json:"custom_sku"`
	WarehouseID   string `json:"warehouse_id"`
	WarehouseCode string `json:"warehouse_code"`
	Quantity      int64  `json:"quantity"`
}

type StockUpdate struct {
	StockID       string `json:"stock_id"`
	CustomSKU     string `json:"custom_sku"`
	WarehouseCode string `json:"warehouse_code"`
	Quantity      int64  `json:"quantity"`
	PrevQuantity  int64  `json:"prev_quantity"`
}

type VariantTotalUpdate struct {
	VariantID     string `json:"variant_id"`
	CustomSKU     string `json:"custom_sku"`
	StockQuantity int64  `json:"stock_quantity"`
	PrevQuantity  int64  `json:"prev_quantity"`
}

type StockResult struct {
	Inserted             []StockInsert        `json:"inserted"`
	Updated              []StockUpdate        `json:"updated"`
	VariantTotalsUpdated []VariantTotalUpdate `json:"variant_totals_updated"`
	Failures             []string             `json:"failures"`
}

// PhaseOutcome is the result of one phase of an instant sync.
type PhaseOutcome struct {
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Error     string    `json:"error,omitempty"`
}

type InstantSyncResult struct {
	Phases []PhaseOutcome `json:"phases"`
}

package model

import "time"

type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "draft"
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

type VariantStatus string

const (
	VariantStatusActive   VariantStatus = "active"
	VariantStatusInactive VariantStatus = "inactive"
)

type DiscountType string

const (
	DiscountNone       DiscountType = ""
	DiscountPercentage DiscountType = "percentage"
	DiscountAmount     DiscountType = "amount"
)

// ExternalKey identifies a product by its ERP model and, for split
// multi-gadget models, the gadget model. GadgetModelID is "" otherwise.
type ExternalKey struct {
	ModelID       string
	GadgetModelID string
}

type Product struct {
	BaseModel
	ExternalModelID   *string       `db:"external_model_id" json:"external_model_id"`
	ExternalModelName *string       `db:"external_model_name" json:"external_model_name"`
	GadgetModelID     *string       `db:"gadget_model_id" json:"gadget_model_id"`
	Name              string        `db:"name" json:"name"`
	Slug              *string       `db:"slug" json:"slug"`
	CategoryID        *string       `db:"category_id" json:"category_id"`
	BrandID           *string       `db:"brand_id" json:"brand_id"`
	Status            ProductStatus `db:"status" json:"status"`
	MergeID           *string       `db:"merge_id" json:"merge_id"`
	ShortDescription  *string       `db:"short_description" json:"short_description"`
	LongDescription   *string       `db:"long_description" json:"long_description"`
	IsFeatured        bool          `db:"is_featured" json:"is_featured"`
	WarrantyType      *string       `db:"warranty_type" json:"warranty_type"`
	Warranty          *string       `db:"warranty" json:"warranty"`
	Variants          []Variant     `db:"-" json:"variants"`
}

// Key returns the external identity of an ERP-sourced product. ok is false
// for manually created products.
func (p *Product) Key() (key ExternalKey, ok bool) {
	if p.ExternalModelID == nil {
		return ExternalKey{}, false
	}
	key.ModelID = *p.ExternalModelID
	if p.GadgetModelID != nil {
		key.GadgetModelID = *p.GadgetModelID
	}
	return key, true
}

type Variant struct {
	BaseModel
	ProductID       string        `db:"product_id" json:"product_id"`
	SKU             string        `db:"sku" json:"sku"`
	CustomSKU       string        `db:"custom_sku" json:"custom_sku"`
	SBarcode        *string       `db:"sbarcode" json:"sbarcode"`
	ModelNo         *string       `db:"model_no" json:"model_no"`
	Price           float64       `db:"price" json:"price"`
	CostPrice       *float64      `db:"cost_price" json:"cost_price"`
	PointEarn       *float64      `db:"point_earn" json:"point_earn"`
	VAT             *float64      `db:"vat" json:"vat"`
	DiscountType    *DiscountType `db:"discount_type" json:"discount_type"`
	DiscountValue   *float64      `db:"discount_value" json:"discount_value"`
	DiscountedPrice *float64      `db:"discounted_price" json:"discounted_price"`
	DiscountStart   *time.Time    `db:"discount_start" json:"discount_start"`
	DiscountEnd     *time.Time    `db:"discount_end" json:"discount_end"`
	StockQuantity   int64         `db:"stock_quantity" json:"stock_quantity"`
	Status          VariantStatus `db:"status" json:"status"`
	ExternalItemID  *string       `db:"external_item_id" json:"external_item_id"`
	GadgetModelID   *string       `db:"gadget_model_id" json:"gadget_model_id"`

	Attributes []VariantAttribute `db:"-" json:"attributes"`
}

type VariantAttribute struct {
	ID        string `db:"id" json:"id"`
	VariantID string `db:"variant_id" json:"variant_id"`
	Key       string `db:"key" json:"key"`
	Value     string `db:"value" json:"value"`
}

// Specification is a product-level key/value pair, projected into the
// search document.
type Specification struct {
	ID        string `db:"id" json:"id"`
	ProductID string `db:"product_id" json:"product_id"`
	Key       string `db:"key" json:"key"`
	Value     string `db:"value" json:"value"`
}

// VariantPatch carries only the fields an update touches. Nil fields are
// left as they are in storage.
type VariantPatch struct {
	ID              string
	Price           *float64
	CostPrice       *float64
	PointEarn       *float64
	SBarcode        *string
	VAT             *float64
	GadgetModelID   *string
	ExternalItemID  *string
	ModelNo         *string
	DiscountedPrice *float64
	UpdatedAt       time.Time
}

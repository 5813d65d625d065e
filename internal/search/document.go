package search

import "time"

// Document is the flattened projection of one variant. Optional values are
// always present with an explicit empty value so every document has the
// same shape.
type Document struct {
	ID              string     `json:"id"`
	SKU             string     `json:"sku"`
	CustomSKU       string     `json:"custom_sku"`
	ModelNo         string     `json:"model_no"`
	SBarcode        string     `json:"sbarcode"`
	Price           float64    `json:"price"`
	DiscountedPrice float64    `json:"discounted_price"`
	DiscountType    string     `json:"discounted_type"`
	DiscountValue   float64    `json:"discounted_value"`
	DiscountStart   *time.Time `json:"discounted_price_start"`
	DiscountEnd     *time.Time `json:"discounted_price_end"`
	StockQuantity   int64      `json:"stock_quantity"`
	VAT             float64    `json:"vat"`
	CostPrice       float64    `json:"cost_price"`
	PointEarn       float64    `json:"point_earn"`
	Status          string     `json:"status"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	ProductID        *string   `json:"product_id"`
	ProductName      string    `json:"product_name"`
	ProductSlug      string    `json:"product_slug"`
	ProductStatus    string    `json:"product_status"`
	IsFeatured       bool      `json:"is_featured"`
	WarrantyType     string    `json:"warranty_type"`
	Warranty         string    `json:"warranty"`
	ShortDescription string    `json:"short_description"`
	LongDescription  string    `json:"long_description"`
	ProductCreatedAt time.Time `json:"product_created_at"`
	ProductUpdatedAt time.Time `json:"product_updated_at"`

	CategoryIDs   []string `json:"category_ids"`
	CategorySlugs []string `json:"category_slugs"`
	CategoryNames []string `json:"category_names"`

	BrandID   *string `json:"brand_id"`
	BrandSlug string  `json:"brand_slug"`
	BrandName string  `json:"brand_name"`
	BrandLogo string  `json:"brand_logo"`

	AttributeNames      []string `json:"attribute_names"`
	AttributeValues     []string `json:"attribute_values"`
	SpecificationNames  []string `json:"specification_names"`
	SpecificationValues []string `json:"specification_values"`
}

// Mapping is the index definition used when the index is bootstrapped.
const Mapping = `{
	"mappings": {
		"properties": {
			"id": { "type": "keyword" },
			"sku": { "type": "keyword" },
			"custom_sku": { "type": "keyword" },
			"model_no": { "type": "keyword" },
			"price": { "type": "double" },
			"discounted_price": { "type": "double" },
			"stock_quantity": { "type": "long" },
			"status": { "type": "keyword" },
			"product_id": { "type": "keyword" },
			"product_name": { "type": "text" },
			"product_slug": { "type": "keyword" },
			"product_status": { "type": "keyword" },
			"short_description": { "type": "text" },
			"long_description": { "type": "text" },
			"category_ids": { "type": "keyword" },
			"category_slugs": { "type": "keyword" },
			"category_names": { "type": "text" },
			"brand_id": { "type": "keyword" },
			"brand_slug": { "type": "keyword" },
			"brand_name": { "type": "text" },
			"attribute_names": { "type": "keyword" },
			"attribute_values": { "type": "keyword" },
			"specification_names": { "type": "keyword" },
			"specification_values": { "type": "text" },
			"created_at": { "type": "date" },
			"updated_at": { "type": "date" }
		}
	}
}`

package product

import (
	"context"

	"github.com/fekuna/omnipos-catalog-sync/internal/model"
)

type Repository interface {
	FindByID(ctx context.Context, id string) (*model.Product, error)
	FindVariantByID(ctx context.Context, id string) (*model.Variant, error)
	ListVariants(ctx context.Context, productID string) ([]model.Variant, error)

	// Check custom sku uniqueness across variants
	IsCustomSKUUnique(ctx context.Context, customSKU, excludeVariantID string) (bool, error)
	UpdateVariantCustomSKU(ctx context.Context, variantID, customSKU string) error

	// UpdateStatus sets the product status in one transaction. Activating a
	// product whose variants are all inactive reactivates every variant.
	UpdateStatus(ctx context.Context, id string, status model.ProductStatus) error
	// UpdateVariantStatus sets the variant status in one transaction and
	// reports whether that left the product without an active variant, in
	// which case the product was deactivated too.
	UpdateVariantStatus(ctx context.Context, id string, status model.VariantStatus) (productDeactivated bool, err error)
	// MergeProducts points every merged product at the survivor and
	// deactivates it, in one transaction.
	MergeProducts(ctx context.Context, survivorID string, mergedIDs []string) error
}

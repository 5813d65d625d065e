package product

import (
	"context"

	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/fekuna/omnipos-catalog-sync/internal/product/dto"
)

// UseCase holds the interactive single-entity paths. Their writes commit
// before the index is touched; an index failure is returned wrapped in
// apperror.ErrTransientIO alongside the updated entity.
type UseCase interface {
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	UpdateProductStatus(ctx context.Context, input *dto.UpdateProductStatusInput) (*model.Product, error)
	UpdateVariantStatus(ctx context.Context, input *dto.UpdateVariantStatusInput) (*model.Variant, error)
	MergeProducts(ctx context.Context, input *dto.MergeProductsInput) (*model.Product, error)
	UpdateVariantCustomSKU(ctx context.Context, input *dto.UpdateCustomSKUInput) (*model.Variant, error)
}

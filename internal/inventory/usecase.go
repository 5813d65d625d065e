package inventory

import (
	"context"

	"github.com/fekuna/omnipos-catalog-sync/internal/inventory/dto"
)

type UseCase interface {
	GetVariantStock(ctx context.Context, variantID string) (*dto.VariantStock, error)
}

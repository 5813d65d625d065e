package usecase

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-catalog-sync/internal/apperror"
	"github.com/fekuna/omnipos-catalog-sync/internal/inventory"
	"github.com/fekuna/omnipos-catalog-sync/internal/inventory/dto"
	"github.com/fekuna/omnipos-catalog-sync/pkg/logger"
	"go.uber.org/zap"
)

type inventoryUseCase struct {
	repo   inventory.Repository
	logger logger.ZapLogger
}

func NewInventoryUseCase(repo inventory.Repository, log logger.ZapLogger) inventory.UseCase {
	return &inventoryUseCase{
		repo:   repo,
		logger: log,
	}
}

// GetVariantStock returns the stock rows of a variant. A variant without
// rows has a zero total rather than a not-found error.
func (uc *inventoryUseCase) GetVariantStock(ctx context.Context, variantID string) (*dto.VariantStock, error) {
	rows, err := uc.repo.ListVariantStock(ctx, variantID)
	if err != nil {
		uc.logger.Error("failed to list variant stock", zap.String("variant_id", variantID), zap.Error(err))
		return nil, fmt.Errorf("%w: list stock of %s: %v", apperror.ErrPersistence, variantID, err)
	}

	stock := &dto.VariantStock{
		VariantID:  variantID,
		Warehouses: make([]dto.WarehouseQuantity, 0, len(rows)),
	}
	for _, r := range rows {
		stock.Total += r.Quantity
		stock.Warehouses = append(stock.Warehouses, dto.WarehouseQuantity{
			WarehouseID:   r.WarehouseID,
			WarehouseCode: r.WarehouseCode,
			Quantity:      r.Quantity,
		})
	}
	return stock, nil
}

package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-catalog-sync/internal/apperror"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/fekuna/omnipos-catalog-sync/internal/product"
	"github.com/fekuna/omnipos-catalog-sync/internal/product/dto"
	"github.com/fekuna/omnipos-catalog-sync/internal/search"
	"github.com/fekuna/omnipos-catalog-sync/pkg/cache"
	"github.com/fekuna/omnipos-catalog-sync/pkg/logger"
	"go.uber.org/zap"
)

const productCacheTTL = 5 * time.Minute

type productUseCase struct {
	repo    product.Repository
	indexer search.UseCase
	cache   *cache.RedisClient
	logger  logger.ZapLogger
}

// NewProductUseCase builds the interactive product paths. cache may be nil.
func NewProductUseCase(repo product.Repository, indexer search.UseCase, cache *cache.RedisClient, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		repo:    repo,
		indexer: indexer,
		cache:   cache,
		logger:  log,
	}
}

func (uc *productUseCase) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if uc.cache != nil {
		val, err := uc.cache.Client.Get(ctx, cacheKey(id)).Result()
		if err == nil {
			var p model.Product
			if err := json.Unmarshal([]byte(val), &p); err == nil {
				return &p, nil
			}
		}
	}

	p, err := uc.loadProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if data, err := json.Marshal(p); err == nil {
			uc.cache.Client.Set(ctx, cacheKey(id), data, productCacheTTL)
		}
	}
	return p, nil
}

func (uc *productUseCase) UpdateProductStatus(ctx context.Context, input *dto.UpdateProductStatusInput) (*model.Product, error) {
	switch input.Status {
	case model.ProductStatusDraft, model.ProductStatusActive, model.ProductStatusInactive:
	default:
		return nil, fmt.Errorf("%w: unknown product status %q", apperror.ErrValidationConflict, input.Status)
	}

	if _, err := uc.findProduct(ctx, input.ID); err != nil {
		return nil, err
	}

	if err := uc.repo.UpdateStatus(ctx, input.ID, input.Status); err != nil {
		if errors.Is(err, apperror.ErrValidationConflict) {
			return nil, err
		}
		uc.logger.Error("failed to update product status", zap.String("product_id", input.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", apperror.ErrPersistence, err)
	}
	uc.invalidate(ctx, input.ID)

	indexErr := uc.indexer.ReindexVariantsForProduct(ctx, input.ID)
	return uc.afterWrite(ctx, input.ID, indexErr)
}

func (uc *productUseCase) UpdateVariantStatus(ctx context.Context, input *dto.UpdateVariantStatusInput) (*model.Variant, error) {
	switch input.Status {
	case model.VariantStatusActive, model.VariantStatusInactive:
	default:
		return nil, fmt.Errorf("%w: unknown variant status %q", apperror.ErrValidationConflict, input.Status)
	}

	v, err := uc.findVariant(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	deactivated, err := uc.repo.UpdateVariantStatus(ctx, input.ID, input.Status)
	if err != nil {
		uc.logger.Error("failed to update variant status", zap.String("variant_id", input.ID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", apperror.ErrPersistence, err)
	}
	uc.invalidate(ctx, v.ProductID)

	var indexErr error
	if deactivated {
		uc.logger.Info("last active variant deactivated, product deactivated",
			zap.String("variant_id", input.ID),
			zap.String("product_id", v.ProductID),
		)
		indexErr = uc.indexer.RemoveVariantsForProduct(ctx, v.ProductID)
	} else {
		indexErr = uc.indexer.ReindexVariant(ctx, input.ID)
	}

	updated, err := uc.findVariant(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return updated, uc.degraded(indexErr)
}

func (uc *productUseCase) MergeProducts(ctx context.Context, input *dto.MergeProductsInput) (*model.Product, error) {
	if len(input.MergedIDs) == 0 {
		return nil, fmt.Errorf("%w: no products to merge", apperror.ErrNotFound)
	}
	for _, id := range input.MergedIDs {
		if id == input.SurvivorID {
			return nil, fmt.Errorf("%w: product %s cannot be merged into itself", apperror.ErrValidationConflict, id)
		}
	}

	if _, err := uc.findProduct(ctx, input.SurvivorID); err != nil {
		return nil, err
	}

	if err := uc.repo.MergeProducts(ctx, input.SurvivorID, input.MergedIDs); err != nil {
		uc.logger.Error("failed to merge products", zap.String("survivor_id", input.SurvivorID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", apperror.ErrPersistence, err)
	}
	uc.invalidate(ctx, append([]string{input.SurvivorID}, input.MergedIDs...)...)

	indexErr := errors.Join(
		uc.indexer.RemoveVariantsForProductIDs(ctx, input.MergedIDs),
		uc.indexer.ReindexVariantsForProduct(ctx, input.SurvivorID),
	)
	return uc.afterWrite(ctx, input.SurvivorID, indexErr)
}

func (uc *productUseCase) UpdateVariantCustomSKU(ctx context.Context, input *dto.UpdateCustomSKUInput) (*model.Variant, error) {
	if input.CustomSKU == "" {
		return nil, fmt.Errorf("%w: custom sku is required", apperror.ErrValidationConflict)
	}

	v, err := uc.findVariant(ctx, input.VariantID)
	if err != nil {
		return nil, err
	}
	if v.CustomSKU == input.CustomSKU {
		return v, nil
	}

	unique, err := uc.repo.IsCustomSKUUnique(ctx, input.CustomSKU, input.VariantID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.ErrPersistence, err)
	}
	if !unique {
		return nil, fmt.Errorf("%w: custom sku %s already exists", apperror.ErrValidationConflict, input.CustomSKU)
	}

	if err := uc.repo.UpdateVariantCustomSKU(ctx, input.VariantID, input.CustomSKU); err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.ErrPersistence, err)
	}
	uc.invalidate(ctx, v.ProductID)

	indexErr := uc.indexer.ReindexVariant(ctx, input.VariantID)

	updated, err := uc.findVariant(ctx, input.VariantID)
	if err != nil {
		return nil, err
	}
	return updated, uc.degraded(indexErr)
}

// afterWrite reloads the product and attaches any index failure.
func (uc *productUseCase) afterWrite(ctx context.Context, id string, indexErr error) (*model.Product, error) {
	p, err := uc.loadProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	return p, uc.degraded(indexErr)
}

func (uc *productUseCase) degraded(indexErr error) error {
	if indexErr == nil {
		return nil
	}
	uc.logger.Warn("catalog write committed but index update failed", zap.Error(indexErr))
	if apperror.IsTransient(indexErr) {
		return indexErr
	}
	return fmt.Errorf("%w: %v", apperror.ErrTransientIO, indexErr)
}

func (uc *productUseCase) loadProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := uc.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	variants, err := uc.repo.ListVariants(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.ErrPersistence, err)
	}
	p.Variants = variants
	return p, nil
}

func (uc *productUseCase) findProduct(ctx context.Context, id string) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.ErrPersistence, err)
	}
	if p == nil {
		return nil, fmt.Errorf("%w: product %s", apperror.ErrNotFound, id)
	}
	return p, nil
}

func (uc *productUseCase) findVariant(ctx context.Context, id string) (*model.Variant, error) {
	v, err := uc.repo.FindVariantByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperror.ErrPersistence, err)
	}
	if v == nil {
		return nil, fmt.Errorf("%w: variant %s", apperror.ErrNotFound, id)
	}
	return v, nil
}

func (uc *productUseCase) invalidate(ctx context.Context, ids ...string) {
	if uc.cache == nil {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = cacheKey(id)
	}
	if err := uc.cache.Client.Del(ctx, keys...).Err(); err != nil {
		uc.logger.Warn("failed to invalidate product cache", zap.Error(err))
	}
}

func cacheKey(id string) string {
	return "product:" + id
}

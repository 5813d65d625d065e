package usecase

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-catalog-sync/internal/apperror"
	"github.com/fekuna/omnipos-catalog-sync/internal/category"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/fekuna/omnipos-catalog-sync/internal/search"
	"github.com/fekuna/omnipos-catalog-sync/pkg/logger"
	"go.uber.org/zap"
)

type indexUseCase struct {
	repo       search.Repository
	sink       search.Sink
	categories category.UseCase
	logger     logger.ZapLogger
}

func NewIndexUseCase(repo search.Repository, sink search.Sink, categories category.UseCase, log logger.ZapLogger) search.UseCase {
	return &indexUseCase{
		repo:       repo,
		sink:       sink,
		categories: categories,
		logger:     log,
	}
}

// ReindexVariant removes the variant document and, when both the variant
// and its product are active, adds a freshly built one.
func (uc *indexUseCase) ReindexVariant(ctx context.Context, variantID string) error {
	if err := uc.remove(ctx, []string{variantID}); err != nil {
		return err
	}

	v, err := uc.repo.FindVariant(ctx, variantID)
	if err != nil {
		return fmt.Errorf("%w: find variant %s: %v", apperror.ErrPersistence, variantID, err)
	}
	if v == nil || v.Status != model.VariantStatusActive {
		return nil
	}

	p, err := uc.repo.FindProduct(ctx, v.ProductID)
	if err != nil {
		return fmt.Errorf("%w: find product %s: %v", apperror.ErrPersistence, v.ProductID, err)
	}
	if p == nil || p.Status != model.ProductStatusActive {
		return nil
	}

	docs, err := uc.buildDocuments(ctx, p, []model.Variant{*v})
	if err != nil {
		return err
	}
	return uc.add(ctx, docs)
}

func (uc *indexUseCase) ReindexVariantsForProduct(ctx context.Context, productID string) error {
	if err := uc.RemoveVariantsForProduct(ctx, productID); err != nil {
		return err
	}

	p, err := uc.repo.FindProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("%w: find product %s: %v", apperror.ErrPersistence, productID, err)
	}
	if p == nil || p.Status != model.ProductStatusActive {
		return nil
	}

	variants, err := uc.repo.ListVariantsByProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("%w: list variants of %s: %v", apperror.ErrPersistence, productID, err)
	}

	active := variants[:0]
	for _, v := range variants {
		if v.Status == model.VariantStatusActive {
			active = append(active, v)
		}
	}
	if len(active) == 0 {
		return nil
	}

	docs, err := uc.buildDocuments(ctx, p, active)
	if err != nil {
		return err
	}
	return uc.add(ctx, docs)
}

func (uc *indexUseCase) RemoveVariant(ctx context.Context, variantID string) error {
	return uc.remove(ctx, []string{variantID})
}

func (uc *indexUseCase) RemoveVariantsForProduct(ctx context.Context, productID string) error {
	return uc.RemoveVariantsForProductIDs(ctx, []string{productID})
}

func (uc *indexUseCase) RemoveVariantsForProductIDs(ctx context.Context, productIDs []string) error {
	if len(productIDs) == 0 {
		return nil
	}

	ids, err := uc.repo.ListVariantIDsByProducts(ctx, productIDs)
	if err != nil {
		return fmt.Errorf("%w: list variant ids: %v", apperror.ErrPersistence, err)
	}
	return uc.remove(ctx, ids)
}

func (uc *indexUseCase) remove(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := uc.sink.RemoveDocuments(ctx, ids); err != nil {
		return fmt.Errorf("%w: remove %d document(s): %v", apperror.ErrTransientIO, len(ids), err)
	}
	return nil
}

func (uc *indexUseCase) add(ctx context.Context, docs []search.Document) error {
	if err := uc.sink.AddDocuments(ctx, docs); err != nil {
		return fmt.Errorf("%w: add %d document(s): %v", apperror.ErrTransientIO, len(docs), err)
	}
	uc.logger.Debug("variant documents indexed", zap.Int("count", len(docs)))
	return nil
}

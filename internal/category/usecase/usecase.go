package usecase

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-catalog-sync/internal/apperror"
	"github.com/fekuna/omnipos-catalog-sync/internal/category"
	"github.com/fekuna/omnipos-catalog-sync/internal/category/dto"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/fekuna/omnipos-catalog-sync/pkg/logger"
	"go.uber.org/zap"
)

type categoryUseCase struct {
	repo   category.Repository
	logger logger.ZapLogger
}

func NewCategoryUseCase(repo category.Repository, log logger.ZapLogger) category.UseCase {
	return &categoryUseCase{
		repo:   repo,
		logger: log,
	}
}

func (uc *categoryUseCase) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	c, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: find category %s: %v", apperror.ErrPersistence, id, err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: category %s", apperror.ErrNotFound, id)
	}
	return c, nil
}

func (uc *categoryUseCase) ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error) {
	if filters == nil {
		filters = &dto.CategoryFilters{}
	}
	categories, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		uc.logger.Error("failed to list categories", zap.Error(err))
		return nil, 0, fmt.Errorf("%w: list categories: %v", apperror.ErrPersistence, err)
	}
	return categories, count, nil
}

func (uc *categoryUseCase) GenerateBreadcrumb(ctx context.Context, id string) ([]model.Category, error) {
	leaf, err := uc.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	chain := []model.Category{*leaf}
	visited := map[string]bool{leaf.ID: true}

	for parentID := leaf.ParentID; parentID != nil && *parentID != ""; {
		if visited[*parentID] {
			return nil, fmt.Errorf("%w: category %s revisits %s", apperror.ErrCategoryCycle, id, *parentID)
		}
		visited[*parentID] = true

		parent, err := uc.repo.FindByID(ctx, *parentID)
		if err != nil {
			return nil, fmt.Errorf("%w: find category %s: %v", apperror.ErrPersistence, *parentID, err)
		}
		if parent == nil {
			// Dangling parent reference; the breadcrumb starts below it.
			uc.logger.Warn("category parent missing", zap.String("category_id", id), zap.String("parent_id", *parentID))
			break
		}

		chain = append(chain, *parent)
		parentID = parent.ParentID
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

package category

import (
	"context"

	"github.com/fekuna/omnipos-catalog-sync/internal/category/dto"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
)

type UseCase interface {
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error)
	// GenerateBreadcrumb returns the ancestors of a category ordered from
	// root to leaf, the category itself included.
	GenerateBreadcrumb(ctx context.Context, id string) ([]model.Category, error)
}

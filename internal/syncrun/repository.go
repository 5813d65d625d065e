package syncrun

import (
	"context"

	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/fekuna/omnipos-catalog-sync/internal/syncrun/dto"
)

// Repository stores the audit trail of sync phases.
type Repository interface {
	Create(ctx context.Context, run *model.SyncRun) error
	List(ctx context.Context, filters *dto.RunFilters) ([]model.SyncRun, error)
}

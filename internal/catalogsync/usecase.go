package catalogsync

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-catalog-sync/internal/catalogsync/dto"
	"github.com/fekuna/omnipos-catalog-sync/internal/erp"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	syncrundto "github.com/fekuna/omnipos-catalog-sync/internal/syncrun/dto"
)

type UseCase interface {
	// IngestProducts creates categories, brands, products and variants for
	// ERP records that have no local variant yet.
	IngestProducts(ctx context.Context, filter erp.ProductFilter) (*dto.IngestResult, error)
	// ReconcileExistingVariants applies price and field changes to variants
	// already matched by barcode.
	ReconcileExistingVariants(ctx context.Context, filter erp.ProductFilter) (*dto.ReconcileResult, error)
	ReconcileStock(ctx context.Context, filter erp.StockFilter) (*dto.StockResult, error)
	// RunInstantSync runs the three phases in order, each isolated from
	// the others' failures.
	RunInstantSync(ctx context.Context) (*dto.InstantSyncResult, error)
	ListRuns(ctx context.Context, filter *syncrundto.RunFilters) ([]model.SyncRun, error)
}

// Source is the ERP catalog as consumed by the engines.
type Source interface {
	FetchProducts(ctx context.Context, filter erp.ProductFilter) ([]erp.RawProduct, error)
	FetchStock(ctx context.Context, filter erp.StockFilter) ([]erp.RawStockEntry, error)
}

type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

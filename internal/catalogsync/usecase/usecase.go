package usecase

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-catalog-sync/internal/catalogsync"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/fekuna/omnipos-catalog-sync/internal/search"
	"github.com/fekuna/omnipos-catalog-sync/internal/syncrun"
	syncrundto "github.com/fekuna/omnipos-catalog-sync/internal/syncrun/dto"
	"github.com/fekuna/omnipos-catalog-sync/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const runName = "catalog-sync"

type Options struct {
	// Concurrency bounds the per-record fan-out inside a phase.
	Concurrency int
	// SettleDelay is the pause between the product phases and the stock
	// phase of an instant sync.
	SettleDelay time.Duration
	LockTTL     time.Duration
}

type syncUseCase struct {
	repo    catalogsync.Repository
	source  catalogsync.Source
	runs    syncrun.Repository
	indexer search.UseCase
	retry   search.RetryQueue
	locker  catalogsync.Locker
	opts    Options
	logger  logger.ZapLogger

	now func() time.Time
}

// NewSyncUseCase builds the reconciliation use case. retry and locker may be
// nil; without a locker instant syncs are not guarded against overlap.
func NewSyncUseCase(
	repo catalogsync.Repository,
	source catalogsync.Source,
	runs syncrun.Repository,
	indexer search.UseCase,
	retry search.RetryQueue,
	locker catalogsync.Locker,
	opts Options,
	log logger.ZapLogger,
) catalogsync.UseCase {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Minute
	}
	return &syncUseCase{
		repo:    repo,
		source:  source,
		runs:    runs,
		indexer: indexer,
		retry:   retry,
		locker:  locker,
		opts:    opts,
		logger:  log,
		now:     time.Now,
	}
}

func (uc *syncUseCase) ListRuns(ctx context.Context, filters *syncrundto.RunFilters) ([]model.SyncRun, error) {
	return uc.runs.List(ctx, filters)
}

// fanOut runs fn for every index in [0, n) with bounded concurrency and
// returns the per-index errors. A failing call never cancels its siblings.
func (uc *syncUseCase) fanOut(ctx context.Context, n int, fn func(ctx context.Context, i int) error) []error {
	errs := make([]error, n)

	var g errgroup.Group
	g.SetLimit(uc.opts.Concurrency)
	for i := range n {
		g.Go(func() error {
			errs[i] = fn(ctx, i)
			return nil
		})
	}
	_ = g.Wait()

	return errs
}

// reindex refreshes one variant document. Index failures never fail the
// caller; the variant is queued for a retry instead.
func (uc *syncUseCase) reindex(ctx context.Context, variantID string) {
	err := uc.indexer.ReindexVariant(ctx, variantID)
	if err == nil {
		return
	}

	uc.logger.Warn("failed to reindex variant", zap.String("variant_id", variantID), zap.Error(err))
	if uc.retry == nil {
		return
	}
	if err := uc.retry.RequestReindex(ctx, variantID, err.Error()); err != nil {
		uc.logger.Error("failed to queue reindex retry", zap.String("variant_id", variantID), zap.Error(err))
	}
}

// record writes the audit row for a finished phase. The phase result is
// never affected by a failed audit write.
func (uc *syncUseCase) record(ctx context.Context, typ model.SyncRunType, startedAt time.Time, result any, phaseErr error) {
	run := &model.SyncRun{
		ID:        uuid.New().String(),
		Name:      runName,
		Type:      typ,
		Status:    model.SyncRunCompleted,
		StartedAt: startedAt,
		EndedAt:   uc.now(),
	}
	run.CreatedAt = run.EndedAt

	summary := result
	if phaseErr != nil {
		run.Status = model.SyncRunFailed
		summary = map[string]string{"error": phaseErr.Error()}
	}
	if b, err := json.Marshal(summary); err == nil {
		run.Summary = string(b)
	}

	if err := uc.runs.Create(context.WithoutCancel(ctx), run); err != nil {
		uc.logger.Error("failed to record sync run",
			zap.String("type", string(typ)),
			zap.String("status", string(run.Status)),
			zap.Error(err),
		)
	}
}

// messages flattens the non-nil errors of a fan-out, in index order.
func messages(errs []error) []string {
	out := []string{}
	for _, err := range errs {
		if err != nil {
			out = append(out, err.Error())
		}
	}
	return out
}

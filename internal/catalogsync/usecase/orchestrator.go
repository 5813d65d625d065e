package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-catalog-sync/internal/apperror"
	"github.com/fekuna/omnipos-catalog-sync/internal/catalogsync/dto"
	"github.com/fekuna/omnipos-catalog-sync/internal/erp"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const instantSyncLock = "lock:catalogsync:instant"

// RunInstantSync runs ingestion, variant reconciliation and, after the
// settle delay, stock reconciliation. Each phase records its own run; a
// failed phase does not stop the next one.
func (uc *syncUseCase) RunInstantSync(ctx context.Context) (*dto.InstantSyncResult, error) {
	release, err := uc.lock(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	result := &dto.InstantSyncResult{Phases: []dto.PhaseOutcome{}}

	result.Phases = append(result.Phases, uc.phase(model.SyncRunGadget, func() error {
		_, err := uc.IngestProducts(ctx, erp.ProductFilter{})
		return err
	}))

	result.Phases = append(result.Phases, uc.phase(model.SyncRunProduct, func() error {
		_, err := uc.ReconcileExistingVariants(ctx, erp.ProductFilter{})
		return err
	}))

	result.Phases = append(result.Phases, uc.phase(model.SyncRunStock, func() error {
		if err := uc.settle(ctx); err != nil {
			uc.record(ctx, model.SyncRunStock, uc.now(), nil, err)
			return err
		}
		_, err := uc.ReconcileStock(ctx, erp.StockFilter{})
		return err
	}))

	return result, nil
}

func (uc *syncUseCase) phase(typ model.SyncRunType, fn func() error) (outcome dto.PhaseOutcome) {
	outcome = dto.PhaseOutcome{
		Type:      string(typ),
		Status:    string(model.SyncRunCompleted),
		StartedAt: uc.now(),
	}
	defer func() {
		if r := recover(); r != nil {
			uc.logger.Error("sync phase panicked", zap.String("type", string(typ)), zap.Any("panic", r))
			outcome.Status = string(model.SyncRunFailed)
			outcome.Error = fmt.Sprint(r)
		}
		outcome.EndedAt = uc.now()
	}()

	if err := fn(); err != nil {
		outcome.Status = string(model.SyncRunFailed)
		outcome.Error = err.Error()
	}
	return outcome
}

// settle waits out the configured delay between the product phases and
// the stock phase.
func (uc *syncUseCase) settle(ctx context.Context) error {
	if uc.opts.SettleDelay <= 0 {
		return nil
	}

	timer := time.NewTimer(uc.opts.SettleDelay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (uc *syncUseCase) lock(ctx context.Context) (release func(), err error) {
	if uc.locker == nil {
		return func() {}, nil
	}

	owner := uuid.New().String()
	ok, err := uc.locker.AcquireLock(ctx, instantSyncLock, owner, uc.opts.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("%w: acquire sync lock: %v", apperror.ErrTransientIO, err)
	}
	if !ok {
		return nil, apperror.ErrSyncInProgress
	}

	return func() {
		if err := uc.locker.ReleaseLock(context.WithoutCancel(ctx), instantSyncLock, owner); err != nil {
			uc.logger.Warn("failed to release sync lock", zap.Error(err))
		}
	}, nil
}

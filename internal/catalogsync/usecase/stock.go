package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/fekuna/omnipos-catalog-sync/internal/apperror"
	"github.com/fekuna/omnipos-catalog-sync/internal/catalogsync/dto"
	"github.com/fekuna/omnipos-catalog-sync/internal/erp"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// barcodePrefixLen is the length of the shop prefix the stock feed puts
	// in front of every barcode.
	barcodePrefixLen = 5
	unknownSKU       = "undefined"
)

// StockKey identifies a stock figure by variant custom sku and warehouse
// code (the ERP shop id).
type StockKey struct {
	SKU    string
	ShopID string
}

// AggregateStock sums the feed's balances per StockKey.
func AggregateStock(entries []erp.RawStockEntry) map[StockKey]int64 {
	sums := make(map[StockKey]float64)
	for _, e := range entries {
		for _, item := range e.StockList {
			key := StockKey{SKU: stockSKU(item.PBarcode), ShopID: item.ShopID.String()}
			sums[key] += item.BalQty.Float64()
		}
	}

	totals := make(map[StockKey]int64, len(sums))
	for k, q := range sums {
		totals[k] = int64(math.Round(q))
	}
	return totals
}

func stockSKU(barcode string) string {
	if len(barcode) <= barcodePrefixLen {
		return unknownSKU
	}
	return barcode[barcodePrefixLen:]
}

type stockPlan struct {
	inserts  []model.WarehouseStock
	inserted []dto.StockInsert
	updates  []dto.StockUpdate
}

// planStock diffs the feed totals against the persisted stock rows for
// every (variant, warehouse) pair the feed reports on.
func planStock(totals map[StockKey]int64, warehouses []model.Warehouse, variants []model.Variant, rows []model.WarehouseStockRow) *stockPlan {
	existing := make(map[StockKey]model.WarehouseStockRow, len(rows))
	for _, r := range rows {
		existing[StockKey{SKU: r.CustomSKU, ShopID: erp.CanonicalID(r.WarehouseCode)}] = r
	}

	plan := &stockPlan{}
	for _, v := range variants {
		for _, w := range warehouses {
			key := StockKey{SKU: v.CustomSKU, ShopID: erp.CanonicalID(w.Code)}
			qty, reported := totals[key]
			if !reported {
				continue
			}

			row, ok := existing[key]
			switch {
			case !ok:
				plan.inserts = append(plan.inserts, model.WarehouseStock{
					VariantID:   v.ID,
					WarehouseID: w.ID,
					Quantity:    qty,
				})
				plan.inserted = append(plan.inserted, dto.StockInsert{
					VariantID:     v.ID,
					CustomSKU:     v.CustomSKU,
					WarehouseID:   w.ID,
					WarehouseCode: w.Code,
					Quantity:      qty,
				})
			case row.Quantity != qty:
				plan.updates = append(plan.updates, dto.StockUpdate{
					StockID:       row.StockID,
					CustomSKU:     v.CustomSKU,
					WarehouseCode: w.Code,
					Quantity:      qty,
					PrevQuantity:  row.Quantity,
				})
			}
		}
	}
	return plan
}

// planTotals lists the variants whose stored total differs from the sum
// of their warehouse rows.
func planTotals(sums map[string]int64, variants []model.Variant) []dto.VariantTotalUpdate {
	updates := []dto.VariantTotalUpdate{}
	for _, v := range variants {
		total, ok := sums[v.ID]
		if !ok || total == v.StockQuantity {
			continue
		}
		updates = append(updates, dto.VariantTotalUpdate{
			VariantID:     v.ID,
			CustomSKU:     v.CustomSKU,
			StockQuantity: total,
			PrevQuantity:  v.StockQuantity,
		})
	}
	sort.Slice(updates, func(i, j int) bool { return updates[i].CustomSKU < updates[j].CustomSKU })
	return updates
}

func (uc *syncUseCase) ReconcileStock(ctx context.Context, filter erp.StockFilter) (*dto.StockResult, error) {
	startedAt := uc.now()
	result, err := uc.reconcileStock(ctx, filter)
	uc.record(ctx, model.SyncRunStock, startedAt, result, err)
	if err != nil {
		uc.logger.Error("stock reconciliation failed", zap.Error(err))
		return nil, err
	}

	uc.logger.Info("stock reconciliation finished",
		zap.Int("inserted", len(result.Inserted)),
		zap.Int("updated", len(result.Updated)),
		zap.Int("variant_totals", len(result.VariantTotalsUpdated)),
		zap.Int("failures", len(result.Failures)),
	)
	return result, nil
}

func (uc *syncUseCase) reconcileStock(ctx context.Context, filter erp.StockFilter) (*dto.StockResult, error) {
	feed, err := uc.source.FetchStock(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(feed) == 0 {
		return nil, fmt.Errorf("%w: erp stock feed is empty", apperror.ErrNotFound)
	}

	var (
		warehouses []model.Warehouse
		variants   []model.Variant
		rows       []model.WarehouseStockRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		if warehouses, err = uc.repo.ListWarehouses(gctx); err != nil {
			return fmt.Errorf("%w: list warehouses: %v", apperror.ErrPersistence, err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if variants, err = uc.repo.ListVariants(gctx); err != nil {
			return fmt.Errorf("%w: list variants: %v", apperror.ErrPersistence, err)
		}
		return nil
	})
	g.Go(func() (err error) {
		if rows, err = uc.repo.ListWarehouseStocks(gctx); err != nil {
			return fmt.Errorf("%w: list warehouse stock: %v", apperror.ErrPersistence, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	plan := planStock(AggregateStock(feed), warehouses, variants, rows)
	result := &dto.StockResult{
		Inserted:             []dto.StockInsert{},
		Updated:              []dto.StockUpdate{},
		VariantTotalsUpdated: []dto.VariantTotalUpdate{},
		Failures:             []string{},
	}

	// Inserts and updates must land before the totals are summed.
	if len(plan.inserts) > 0 {
		now := uc.now()
		for i := range plan.inserts {
			plan.inserts[i].ID = uuid.New().String()
			plan.inserts[i].CreatedAt = now
			plan.inserts[i].UpdatedAt = now
		}
		if err := uc.repo.CreateWarehouseStocks(ctx, plan.inserts); err != nil {
			return result, fmt.Errorf("%w: insert warehouse stock: %v", apperror.ErrPersistence, err)
		}
		result.Inserted = plan.inserted
	}

	applied := make([]bool, len(plan.updates))
	errs := uc.fanOut(ctx, len(plan.updates), func(ctx context.Context, i int) error {
		u := plan.updates[i]
		if err := uc.repo.UpdateWarehouseStockQuantity(ctx, u.StockID, u.Quantity); err != nil {
			return fmt.Errorf("%w: update stock %s@%s: %v", apperror.ErrPersistence, u.CustomSKU, u.WarehouseCode, err)
		}
		applied[i] = true
		return nil
	})
	for i, ok := range applied {
		if ok {
			result.Updated = append(result.Updated, plan.updates[i])
		}
	}
	result.Failures = append(result.Failures, messages(errs)...)

	sums, err := uc.repo.SumStockByVariant(ctx)
	if err != nil {
		return result, fmt.Errorf("%w: sum stock: %v", apperror.ErrPersistence, err)
	}

	totals := planTotals(sums, variants)
	applied = make([]bool, len(totals))
	errs = uc.fanOut(ctx, len(totals), func(ctx context.Context, i int) error {
		t := totals[i]
		if err := uc.repo.UpdateVariantStockQuantity(ctx, t.VariantID, t.StockQuantity); err != nil {
			return fmt.Errorf("%w: update stock total %s: %v", apperror.ErrPersistence, t.CustomSKU, err)
		}
		applied[i] = true

		uc.reindex(ctx, t.VariantID)
		return nil
	})
	for i, ok := range applied {
		if ok {
			result.VariantTotalsUpdated = append(result.VariantTotalsUpdated, totals[i])
		}
	}
	result.Failures = append(result.Failures, messages(errs)...)

	for _, msg := range result.Failures {
		uc.logger.Warn("stock record failed", zap.String("error", msg))
	}
	return result, nil
}

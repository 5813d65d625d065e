package usecase

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-catalog-sync/internal/apperror"
	"github.com/fekuna/omnipos-catalog-sync/internal/catalogsync/dto"
	"github.com/fekuna/omnipos-catalog-sync/internal/erp"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"go.uber.org/zap"
)

type variantUpdate struct {
	patch model.VariantPatch
	audit dto.VariantUpdate
}

// planVariantUpdates diffs matched records against their variants. A
// variant is updated when price, point earn, vat or model number differ;
// the persisted discount, if any, is re-applied to the new price.
func planVariantUpdates(matched []MatchedRecord) []variantUpdate {
	updates := []variantUpdate{}

	for _, m := range matched {
		v, d := m.Variant, m.Detail
		p := pricesOf(d)
		if v.Price == p.sale &&
			equalFloat(v.PointEarn, p.pointEarn) &&
			equalFloat(v.VAT, p.vat) &&
			equalString(v.ModelNo, d.ModelNo) {
			continue
		}

		patch := model.VariantPatch{
			ID:             v.ID,
			Price:          ptr(p.sale),
			CostPrice:      ptr(p.cost),
			PointEarn:      ptr(p.pointEarn),
			SBarcode:       ptr(d.SBarCode),
			VAT:            ptr(p.vat),
			GadgetModelID:  optional(d.GadgetModelID.String()),
			ExternalItemID: optional(d.ItemID.String()),
			ModelNo:        ptr(d.ModelNo),
		}
		if discounted, ok := ApplyDiscount(p.sale, v.DiscountType, v.DiscountValue); ok {
			patch.DiscountedPrice = &discounted
		}

		audit := dto.VariantUpdate{
			VariantID:       v.ID,
			CustomSKU:       v.CustomSKU,
			Price:           p.sale,
			PrevPrice:       v.Price,
			PointEarn:       p.pointEarn,
			PrevPointEarn:   v.PointEarn,
			VAT:             p.vat,
			PrevVAT:         v.VAT,
			ModelNo:         d.ModelNo,
			DiscountValue:   v.DiscountValue,
			DiscountedPrice: patch.DiscountedPrice,
		}
		if v.DiscountType != nil {
			audit.DiscountType = string(*v.DiscountType)
		}

		updates = append(updates, variantUpdate{patch: patch, audit: audit})
	}
	return updates
}

func (uc *syncUseCase) ReconcileExistingVariants(ctx context.Context, filter erp.ProductFilter) (*dto.ReconcileResult, error) {
	startedAt := uc.now()
	result, err := uc.reconcileVariants(ctx, filter)
	uc.record(ctx, model.SyncRunProduct, startedAt, result, err)
	if err != nil {
		uc.logger.Error("variant reconciliation failed", zap.Error(err))
		return nil, err
	}

	uc.logger.Info("variant reconciliation finished",
		zap.Int("updated", len(result.UpdatedVariants)),
		zap.Int("failures", len(result.Failures)),
	)
	return result, nil
}

func (uc *syncUseCase) reconcileVariants(ctx context.Context, filter erp.ProductFilter) (*dto.ReconcileResult, error) {
	feed, err := uc.fetchProducts(ctx, filter)
	if err != nil {
		return nil, err
	}

	variants, err := uc.loadVariants(ctx)
	if err != nil {
		return nil, err
	}

	updates := planVariantUpdates(Resolve(feed, variants).Matched)
	applied := make([]bool, len(updates))

	errs := uc.fanOut(ctx, len(updates), func(ctx context.Context, i int) error {
		patch := updates[i].patch
		patch.UpdatedAt = uc.now()

		if err := uc.repo.UpdateVariant(ctx, &patch); err != nil {
			return fmt.Errorf("%w: update variant %s: %v", apperror.ErrPersistence, updates[i].audit.CustomSKU, err)
		}
		applied[i] = true

		uc.reindex(ctx, patch.ID)
		return nil
	})

	result := &dto.ReconcileResult{
		UpdatedVariants: []dto.VariantUpdate{},
		Failures:        messages(errs),
	}
	for i, ok := range applied {
		if ok {
			result.UpdatedVariants = append(result.UpdatedVariants, updates[i].audit)
		}
	}
	for _, msg := range result.Failures {
		uc.logger.Warn("variant update failed", zap.String("error", msg))
	}
	return result, nil
}

// equalFloat and equalString treat a missing persisted value as different from any
// incoming one, so the first reconciliation fills it in.
func equalFloat(persisted *float64, incoming float64) bool {
	return persisted != nil && *persisted == incoming
}

func equalString(persisted *string, incoming string) bool {
	return persisted != nil && *persisted == incoming
}

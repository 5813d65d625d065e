package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-catalog-sync/internal/apperror"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/jmoiron/sqlx"
)

const (
	productColumns = `id, external_model_id, external_model_name, gadget_model_id, name, slug, category_id, brand_id,
        status, merge_id, short_description, long_description, is_featured, warranty_type, warranty, created_at, updated_at`
	variantColumns = `id, product_id, sku, custom_sku, sbarcode, model_no, price, cost_price, point_earn, vat,
        discount_type, discount_value, discounted_price, discount_start, discount_end, stock_quantity, status,
        external_item_id, gadget_model_id, created_at, updated_at`
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &product, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *PGRepository) FindVariantByID(ctx context.Context, id string) (*model.Variant, error) {
	var variant model.Variant
	query := `SELECT ` + variantColumns + ` FROM product_variants WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &variant, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &variant, nil
}

func (r *PGRepository) ListVariants(ctx context.Context, productID string) ([]model.Variant, error) {
	variants := []model.Variant{}
	query := `SELECT ` + variantColumns + ` FROM product_variants WHERE product_id = $1 ORDER BY created_at`
	err := r.DB.SelectContext(ctx, &variants, query, productID)
	return variants, err
}

func (r *PGRepository) IsCustomSKUUnique(ctx context.Context, customSKU, excludeVariantID string) (bool, error) {
	var count int
	query := `SELECT count(*) FROM product_variants WHERE custom_sku = $1`
	args := []interface{}{customSKU}
	if excludeVariantID != "" {
		query += ` AND id != $2`
		args = append(args, excludeVariantID)
	}

	err := r.DB.GetContext(ctx, &count, query, args...)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func (r *PGRepository) UpdateVariantCustomSKU(ctx context.Context, variantID, customSKU string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE product_variants SET custom_sku = $1, updated_at = NOW() WHERE id = $2`, customSKU, variantID)
	return err
}

func (r *PGRepository) UpdateStatus(ctx context.Context, id string, status model.ProductStatus) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE products SET status = $1, updated_at = NOW() WHERE id = $2`, status, id); err != nil {
		return fmt.Errorf("failed to update product status: %w", err)
	}

	if status == model.ProductStatusActive {
		var active int
		err := tx.GetContext(ctx, &active,
			`SELECT count(*) FROM product_variants WHERE product_id = $1 AND status = $2`, id, model.VariantStatusActive)
		if err != nil {
			return fmt.Errorf("failed to count active variants: %w", err)
		}
		if active == 0 {
			res, err := tx.ExecContext(ctx,
				`UPDATE product_variants SET status = $1, updated_at = NOW() WHERE product_id = $2`,
				model.VariantStatusActive, id)
			if err != nil {
				return fmt.Errorf("failed to reactivate variants: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("failed to reactivate variants: %w", err)
			}
			// An active product needs at least one active variant.
			if n == 0 {
				return fmt.Errorf("%w: product %s has no variants to activate", apperror.ErrValidationConflict, id)
			}
		}
	}

	return tx.Commit()
}

func (r *PGRepository) UpdateVariantStatus(ctx context.Context, id string, status model.VariantStatus) (bool, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var productID string
	err = tx.GetContext(ctx, &productID,
		`UPDATE product_variants SET status = $1, updated_at = NOW() WHERE id = $2 RETURNING product_id`, status, id)
	if err != nil {
		return false, fmt.Errorf("failed to update variant status: %w", err)
	}

	deactivated := false
	if status == model.VariantStatusInactive {
		var active int
		err := tx.GetContext(ctx, &active,
			`SELECT count(*) FROM product_variants WHERE product_id = $1 AND status = $2`, productID, model.VariantStatusActive)
		if err != nil {
			return false, fmt.Errorf("failed to count active variants: %w", err)
		}
		if active == 0 {
			if _, err := tx.ExecContext(ctx,
				`UPDATE products SET status = $1, updated_at = NOW() WHERE id = $2`,
				model.ProductStatusInactive, productID); err != nil {
				return false, fmt.Errorf("failed to deactivate product: %w", err)
			}
			deactivated = true
		}
	}

	return deactivated, tx.Commit()
}

func (r *PGRepository) MergeProducts(ctx context.Context, survivorID string, mergedIDs []string) error {
	if len(mergedIDs) == 0 {
		return nil
	}

	query, args, err := sqlx.In(`
        UPDATE products SET merge_id = ?, status = ?, updated_at = NOW()
        WHERE id IN (?)
    `, survivorID, model.ProductStatusInactive, mergedIDs)
	if err != nil {
		return err
	}
	query = r.DB.Rebind(query)

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to merge products: %w", err)
	}
	return tx.Commit()
}

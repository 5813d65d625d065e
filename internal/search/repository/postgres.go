package repository

import (
	"context"
	"database/sql"
	"errors"

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

// PGRepository reads the rows search documents are built from.
type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FindVariant(ctx context.Context, id string) (*model.Variant, error) {
	var v model.Variant
	err := r.DB.GetContext(ctx, &v, `SELECT `+variantColumns+` FROM product_variants WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func (r *PGRepository) FindProduct(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	err := r.DB.GetContext(ctx, &p, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) FindBrand(ctx context.Context, id string) (*model.Brand, error) {
	var b model.Brand
	err := r.DB.GetContext(ctx, &b, `SELECT id, name, slug, logo, created_at, updated_at FROM brands WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *PGRepository) ListVariantsByProduct(ctx context.Context, productID string) ([]model.Variant, error) {
	var variants []model.Variant
	err := r.DB.SelectContext(ctx, &variants,
		`SELECT `+variantColumns+` FROM product_variants WHERE product_id = $1 ORDER BY created_at`, productID)
	return variants, err
}

func (r *PGRepository) ListVariantIDsByProducts(ctx context.Context, productIDs []string) ([]string, error) {
	if len(productIDs) == 0 {
		return []string{}, nil
	}

	query, args, err := sqlx.In(`SELECT id FROM product_variants WHERE product_id IN (?)`, productIDs)
	if err != nil {
		return nil, err
	}

	var ids []string
	err = r.DB.SelectContext(ctx, &ids, r.DB.Rebind(query), args...)
	return ids, err
}

func (r *PGRepository) ListAttributes(ctx context.Context, variantIDs []string) ([]model.VariantAttribute, error) {
	if len(variantIDs) == 0 {
		return []model.VariantAttribute{}, nil
	}

	query, args, err := sqlx.In(`
        SELECT id, variant_id, key, value FROM variant_attributes
        WHERE variant_id IN (?)
        ORDER BY variant_id, key
    `, variantIDs)
	if err != nil {
		return nil, err
	}

	var attrs []model.VariantAttribute
	err = r.DB.SelectContext(ctx, &attrs, r.DB.Rebind(query), args...)
	return attrs, err
}

func (r *PGRepository) ListSpecifications(ctx context.Context, productID string) ([]model.Specification, error) {
	var specs []model.Specification
	err := r.DB.SelectContext(ctx, &specs,
		`SELECT id, product_id, key, value FROM product_specifications WHERE product_id = $1 ORDER BY key`, productID)
	return specs, err
}

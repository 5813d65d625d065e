package repository

import (
	"context"
	"database/sql"
	"errors"

	invrepo "github.com/fekuna/omnipos-catalog-sync/internal/inventory/repository"
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

// PGRepository is the catalog store of the reconciliation engines. Stock
// rows are served by the embedded inventory repository.
type PGRepository struct {
	DB *sqlx.DB
	*invrepo.PGRepository
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db, PGRepository: invrepo.NewPGRepository(db)}
}

func (r *PGRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories := []model.Category{}
	err := r.DB.SelectContext(ctx, &categories,
		`SELECT id, parent_id, name, slug, leaf, is_active, created_at, updated_at FROM categories`)
	return categories, err
}

func (r *PGRepository) CreateCategory(ctx context.Context, c *model.Category) (bool, error) {
	query := `
        INSERT INTO categories (id, parent_id, name, slug, leaf, is_active, created_at, updated_at)
        VALUES (:id, :parent_id, :name, :slug, :leaf, :is_active, :created_at, :updated_at)
        ON CONFLICT (name) DO NOTHING
    `
	return inserted(r.DB.NamedExecContext(ctx, query, c))
}

func (r *PGRepository) ListBrands(ctx context.Context) ([]model.Brand, error) {
	brands := []model.Brand{}
	err := r.DB.SelectContext(ctx, &brands, `SELECT id, name, slug, logo, created_at, updated_at FROM brands`)
	return brands, err
}

func (r *PGRepository) CreateBrand(ctx context.Context, b *model.Brand) (bool, error) {
	query := `
        INSERT INTO brands (id, name, slug, logo, created_at, updated_at)
        VALUES (:id, :name, :slug, :logo, :created_at, :updated_at)
        ON CONFLICT ((LOWER(name))) DO NOTHING
    `
	return inserted(r.DB.NamedExecContext(ctx, query, b))
}

// inserted reports whether an INSERT ... ON CONFLICT DO NOTHING wrote a row.
func inserted(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PGRepository) ListExternalProducts(ctx context.Context) ([]model.Product, error) {
	products := []model.Product{}
	err := r.DB.SelectContext(ctx, &products,
		`SELECT `+productColumns+` FROM products WHERE external_model_id IS NOT NULL`)
	return products, err
}

func (r *PGRepository) FindProductByExternalKey(ctx context.Context, key model.ExternalKey) (*model.Product, error) {
	var p model.Product
	query := `SELECT ` + productColumns + ` FROM products
        WHERE external_model_id = $1 AND COALESCE(gadget_model_id, '') = $2 LIMIT 1`
	err := r.DB.GetContext(ctx, &p, query, key.ModelID, key.GadgetModelID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (
            id, external_model_id, external_model_name, gadget_model_id, name, slug,
            category_id, brand_id, status, merge_id, short_description, long_description,
            is_featured, warranty_type, warranty, created_at, updated_at
        )
        VALUES (
            :id, :external_model_id, :external_model_name, :gadget_model_id, :name, :slug,
            :category_id, :brand_id, :status, :merge_id, :short_description, :long_description,
            :is_featured, :warranty_type, :warranty, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) ListVariants(ctx context.Context) ([]model.Variant, error) {
	variants := []model.Variant{}
	err := r.DB.SelectContext(ctx, &variants, `SELECT `+variantColumns+` FROM product_variants`)
	return variants, err
}

func (r *PGRepository) CreateVariant(ctx context.Context, v *model.Variant, attrs []model.VariantAttribute) (bool, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	query := `
        INSERT INTO product_variants (
            id, product_id, sku, custom_sku, sbarcode, model_no, price, cost_price, point_earn, vat,
            discount_type, discount_value, discounted_price, discount_start, discount_end,
            stock_quantity, status, external_item_id, gadget_model_id, created_at, updated_at
        )
        VALUES (
            :id, :product_id, :sku, :custom_sku, :sbarcode, :model_no, :price, :cost_price, :point_earn, :vat,
            :discount_type, :discount_value, :discounted_price, :discount_start, :discount_end,
            :stock_quantity, :status, :external_item_id, :gadget_model_id, :created_at, :updated_at
        )
        ON CONFLICT (custom_sku) DO NOTHING
    `
	res, err := tx.NamedExecContext(ctx, query, v)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	if len(attrs) > 0 {
		attrQuery := `
            INSERT INTO variant_attributes (id, variant_id, key, value)
            VALUES (:id, :variant_id, :key, :value)
        `
		if _, err := tx.NamedExecContext(ctx, attrQuery, attrs); err != nil {
			return false, err
		}
	}

	return true, tx.Commit()
}

func (r *PGRepository) UpdateVariant(ctx context.Context, p *model.VariantPatch) error {
	query := `
        UPDATE product_variants
        SET price = COALESCE(:price, price),
            cost_price = COALESCE(:cost_price, cost_price),
            point_earn = COALESCE(:point_earn, point_earn),
            sbarcode = COALESCE(:sbarcode, sbarcode),
            vat = COALESCE(:vat, vat),
            gadget_model_id = COALESCE(:gadget_model_id, gadget_model_id),
            external_item_id = COALESCE(:external_item_id, external_item_id),
            model_no = COALESCE(:model_no, model_no),
            discounted_price = COALESCE(:discounted_price, discounted_price),
            updated_at = :updated_at
        WHERE id = :id
    `
	_, err := r.DB.NamedExecContext(ctx, query, map[string]interface{}{
		"id":               p.ID,
		"price":            p.Price,
		"cost_price":       p.CostPrice,
		"point_earn":       p.PointEarn,
		"sbarcode":         p.SBarcode,
		"vat":              p.VAT,
		"gadget_model_id":  p.GadgetModelID,
		"external_item_id": p.ExternalItemID,
		"model_no":         p.ModelNo,
		"discounted_price": p.DiscountedPrice,
		"updated_at":       p.UpdatedAt,
	})
	return err
}

func (r *PGRepository) UpdateVariantStockQuantity(ctx context.Context, variantID string, quantity int64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE product_variants SET stock_quantity = $1, updated_at = NOW() WHERE id = $2`, quantity, variantID)
	return err
}

package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-catalog-sync/internal/apperror"
	"github.com/fekuna/omnipos-catalog-sync/internal/catalogsync/dto"
	"github.com/fekuna/omnipos-catalog-sync/internal/erp"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const notAvailable = "N/A"

// snapshot is the local catalog state a plan is computed against.
type snapshot struct {
	categories map[string]string // name -> id
	brands     map[string]string // lower(name) -> id
	products   map[model.ExternalKey]string
	variants   map[string]model.Variant // custom sku -> variant
}

type productInsert struct {
	key      model.ExternalKey
	name     string
	category string
	brand    string
}

type variantInsert struct {
	key     model.ExternalKey
	variant model.Variant
	attrs   []model.VariantAttribute
}

type ingestPlan struct {
	categories []string
	brands     []string
	products   []productInsert
	variants   []variantInsert
}

// planIngestion computes the inserts that bring snap up to date with the
// unmatched records of res. It performs no I/O.
func planIngestion(res *Resolution, snap *snapshot) *ingestPlan {
	plan := &ingestPlan{}
	seenCategory := make(map[string]struct{})
	seenBrand := make(map[string]struct{})
	seenProduct := make(map[model.ExternalKey]struct{})

	for _, rec := range res.Records {
		if rec.IsLiveDemo() {
			continue
		}
		_, category, brand := productFields(rec, ingestKey(rec, res.Keys[rec.Barcode()], snap))

		if _, ok := snap.categories[category]; category != "" && !ok {
			if _, dup := seenCategory[category]; !dup {
				seenCategory[category] = struct{}{}
				plan.categories = append(plan.categories, category)
			}
		}

		lower := strings.ToLower(brand)
		if _, ok := snap.brands[lower]; brand != "" && !ok {
			if _, dup := seenBrand[lower]; !dup {
				seenBrand[lower] = struct{}{}
				plan.brands = append(plan.brands, brand)
			}
		}
	}

	for _, rec := range res.Unmatched {
		if rec.IsLiveDemo() {
			continue
		}
		key := ingestKey(rec, res.Keys[rec.Barcode()], snap)

		if _, ok := snap.products[key]; !ok {
			if _, dup := seenProduct[key]; !dup {
				seenProduct[key] = struct{}{}
				name, category, brand := productFields(rec, key)
				plan.products = append(plan.products, productInsert{
					key:      key,
					name:     name,
					category: category,
					brand:    brand,
				})
			}
		}

		v, attrs := newVariant(rec.Detail)
		plan.variants = append(plan.variants, variantInsert{key: key, variant: v, attrs: attrs})
	}

	return plan
}

// ingestKey keeps a record on its gadget's existing product when an earlier
// feed split the model, even if this feed carries a single gadget for it.
func ingestKey(rec Record, key model.ExternalKey, snap *snapshot) model.ExternalKey {
	gadget := rec.Detail.GadgetModelID.String()
	if key.GadgetModelID != "" || gadget == "" {
		return key
	}
	split := model.ExternalKey{ModelID: firstNonEmpty(rec.Detail.ModelID.String(), key.ModelID), GadgetModelID: gadget}
	if _, ok := snap.products[split]; ok {
		return split
	}
	return key
}

// productFields picks the naming of the product that owns rec. Split
// gadget products are named after their gadget detail, whole-model
// products after the model.
func productFields(rec Record, key model.ExternalKey) (name, category, brand string) {
	if key.GadgetModelID != "" {
		return rec.ModelName(), rec.CategoryName(), rec.BrandName()
	}
	return firstNonEmpty(rec.Model.ModelName, rec.Detail.ModelName),
		firstNonEmpty(rec.Model.CategoryName, rec.Detail.CategoryName),
		firstNonEmpty(rec.Model.BrandName, rec.Detail.BrandName)
}

// newVariant maps an ERP detail to a variant priced at the sale price with
// no discount and a placeholder stock of one.
func newVariant(d erp.RawProductDetail) (model.Variant, []model.VariantAttribute) {
	p := pricesOf(d)
	v := model.Variant{
		SKU:             d.PBarCode,
		CustomSKU:       d.PBarCode,
		SBarcode:        ptr(d.SBarCode),
		ModelNo:         ptr(d.ModelNo),
		Price:           p.sale,
		CostPrice:       ptr(p.cost),
		PointEarn:       ptr(p.pointEarn),
		VAT:             ptr(p.vat),
		DiscountedPrice: ptr(p.sale),
		StockQuantity:   1,
		Status:          model.VariantStatusActive,
		ExternalItemID:  optional(d.ItemID.String()),
		GadgetModelID:   optional(d.GadgetModelID.String()),
	}

	attrs := []model.VariantAttribute{}
	if d.ColorName != notAvailable && d.ColorName != "" {
		attrs = append(attrs, model.VariantAttribute{Key: "Color", Value: d.ColorName})
	}
	if d.MemoryCapacity != notAvailable && d.MemoryCapacity != "" {
		attrs = append(attrs, model.VariantAttribute{Key: "Memory", Value: d.MemoryCapacity})
	}
	return v, attrs
}

func (uc *syncUseCase) IngestProducts(ctx context.Context, filter erp.ProductFilter) (*dto.IngestResult, error) {
	startedAt := uc.now()
	result, err := uc.ingest(ctx, filter)
	uc.record(ctx, model.SyncRunGadget, startedAt, result, err)
	if err != nil {
		uc.logger.Error("product ingestion failed", zap.Error(err))
		return nil, err
	}

	uc.logger.Info("product ingestion finished",
		zap.Int("categories", len(result.CreatedCategories)),
		zap.Int("brands", len(result.CreatedBrands)),
		zap.Int("products", len(result.InsertedProducts)),
		zap.Int("variants", len(result.InsertedVariants)),
		zap.Int("failures", len(result.Failures)),
	)
	return result, nil
}

func (uc *syncUseCase) ingest(ctx context.Context, filter erp.ProductFilter) (*dto.IngestResult, error) {
	feed, err := uc.fetchProducts(ctx, filter)
	if err != nil {
		return nil, err
	}

	snap, err := uc.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}

	plan := planIngestion(Resolve(feed, snap.variants), snap)
	result := &dto.IngestResult{
		CreatedCategories: []string{},
		CreatedBrands:     []string{},
		InsertedProducts:  []dto.ProductSummary{},
		InsertedVariants:  []dto.VariantSummary{},
		SkippedBarcodes:   []string{},
		Failures:          []string{},
	}

	uc.createReferences(ctx, plan, result)

	// Products and variants are resolved against a fresh read taken after
	// every reference and product write has returned.
	categories, brands, err := uc.loadReferences(ctx)
	if err != nil {
		return result, err
	}
	uc.createProducts(ctx, plan.products, categories, brands, result)

	products, err := uc.loadProductKeys(ctx)
	if err != nil {
		return result, err
	}
	uc.createVariants(ctx, plan.variants, products, result)

	return result, nil
}

func (uc *syncUseCase) fetchProducts(ctx context.Context, filter erp.ProductFilter) ([]erp.RawProduct, error) {
	feed, err := uc.source.FetchProducts(ctx, filter)
	if err != nil {
		return nil, err
	}
	if len(feed) == 0 {
		return nil, fmt.Errorf("%w: erp product feed is empty", apperror.ErrNotFound)
	}
	return feed, nil
}

func (uc *syncUseCase) loadSnapshot(ctx context.Context) (*snapshot, error) {
	snap := &snapshot{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.categories, snap.brands, err = uc.loadReferences(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.products, err = uc.loadProductKeys(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.variants, err = uc.loadVariants(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

func (uc *syncUseCase) loadReferences(ctx context.Context) (categories, brands map[string]string, err error) {
	cs, err := uc.repo.ListCategories(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: list categories: %v", apperror.ErrPersistence, err)
	}
	bs, err := uc.repo.ListBrands(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: list brands: %v", apperror.ErrPersistence, err)
	}

	categories = make(map[string]string, len(cs))
	for _, c := range cs {
		categories[c.Name] = c.ID
	}
	brands = make(map[string]string, len(bs))
	for _, b := range bs {
		brands[strings.ToLower(b.Name)] = b.ID
	}
	return categories, brands, nil
}

func (uc *syncUseCase) loadProductKeys(ctx context.Context) (map[model.ExternalKey]string, error) {
	products, err := uc.repo.ListExternalProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list products: %v", apperror.ErrPersistence, err)
	}

	keys := make(map[model.ExternalKey]string, len(products))
	for i := range products {
		if key, ok := products[i].Key(); ok {
			keys[key] = products[i].ID
		}
	}
	return keys, nil
}

func (uc *syncUseCase) loadVariants(ctx context.Context) (map[string]model.Variant, error) {
	variants, err := uc.repo.ListVariants(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list variants: %v", apperror.ErrPersistence, err)
	}

	bySKU := make(map[string]model.Variant, len(variants))
	for _, v := range variants {
		bySKU[v.CustomSKU] = v
	}
	return bySKU, nil
}

func (uc *syncUseCase) createReferences(ctx context.Context, plan *ingestPlan, result *dto.IngestResult) {
	nc := len(plan.categories)
	created := make([]bool, nc+len(plan.brands))

	// A name taken since the snapshot is left to the row that holds it and
	// is not reported as created.
	errs := uc.fanOut(ctx, len(created), func(ctx context.Context, i int) error {
		now := uc.now()
		if i < nc {
			name := plan.categories[i]
			c := &model.Category{
				BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
				Name:      name,
				Slug:      Slugify(name),
				IsActive:  true,
			}
			ok, err := uc.repo.CreateCategory(ctx, c)
			if err != nil {
				return fmt.Errorf("%w: create category %q: %v", apperror.ErrPersistence, name, err)
			}
			created[i] = ok
			return nil
		}

		name := plan.brands[i-nc]
		b := &model.Brand{
			BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			Name:      name,
			Slug:      Slugify(name),
		}
		ok, err := uc.repo.CreateBrand(ctx, b)
		if err != nil {
			return fmt.Errorf("%w: create brand %q: %v", apperror.ErrPersistence, name, err)
		}
		created[i] = ok
		return nil
	})

	for i, ok := range created {
		switch {
		case !ok:
		case i < nc:
			result.CreatedCategories = append(result.CreatedCategories, plan.categories[i])
		default:
			result.CreatedBrands = append(result.CreatedBrands, plan.brands[i-nc])
		}
	}
	uc.collect(result, errs)
}

func (uc *syncUseCase) createProducts(ctx context.Context, inserts []productInsert, categories, brands map[string]string, result *dto.IngestResult) {
	created := make([]*model.Product, len(inserts))

	errs := uc.fanOut(ctx, len(inserts), func(ctx context.Context, i int) error {
		in := inserts[i]

		// A concurrent run may have created the product since the snapshot.
		existing, err := uc.repo.FindProductByExternalKey(ctx, in.key)
		if err != nil {
			return fmt.Errorf("%w: find product %s/%s: %v", apperror.ErrPersistence, in.key.ModelID, in.key.GadgetModelID, err)
		}
		if existing != nil {
			return nil
		}

		now := uc.now()
		p := &model.Product{
			BaseModel:         model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
			ExternalModelID:   ptr(in.key.ModelID),
			ExternalModelName: ptr(in.name),
			GadgetModelID:     optional(in.key.GadgetModelID),
			Name:              in.name,
			CategoryID:        lookup(categories, in.category),
			BrandID:           lookup(brands, strings.ToLower(in.brand)),
			Status:            model.ProductStatusDraft,
		}
		if err := uc.repo.CreateProduct(ctx, p); err != nil {
			return fmt.Errorf("%w: create product %s/%s: %v", apperror.ErrPersistence, in.key.ModelID, in.key.GadgetModelID, err)
		}
		created[i] = p
		return nil
	})

	for _, p := range created {
		if p == nil {
			continue
		}
		result.InsertedProducts = append(result.InsertedProducts, dto.ProductSummary{
			ID:            p.ID,
			ModelID:       *p.ExternalModelID,
			GadgetModelID: deref(p.GadgetModelID),
			Name:          p.Name,
		})
	}
	uc.collect(result, errs)
}

func (uc *syncUseCase) createVariants(ctx context.Context, inserts []variantInsert, products map[model.ExternalKey]string, result *dto.IngestResult) {
	created := make([]*model.Variant, len(inserts))
	skipped := make([]bool, len(inserts))

	errs := uc.fanOut(ctx, len(inserts), func(ctx context.Context, i int) error {
		in := inserts[i]

		productID, ok := products[in.key]
		if !ok {
			return fmt.Errorf("%w: no product for barcode %s (model %s, gadget %q)",
				apperror.ErrNotFound, in.variant.CustomSKU, in.key.ModelID, in.key.GadgetModelID)
		}

		now := uc.now()
		v := in.variant
		v.BaseModel = model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}
		v.ProductID = productID

		attrs := make([]model.VariantAttribute, len(in.attrs))
		for j, a := range in.attrs {
			attrs[j] = model.VariantAttribute{ID: uuid.New().String(), VariantID: v.ID, Key: a.Key, Value: a.Value}
		}

		inserted, err := uc.repo.CreateVariant(ctx, &v, attrs)
		if err != nil {
			return fmt.Errorf("%w: create variant %s: %v", apperror.ErrPersistence, v.CustomSKU, err)
		}
		if !inserted {
			skipped[i] = true
			return nil
		}
		created[i] = &v

		uc.reindex(ctx, v.ID)
		return nil
	})

	for i, v := range created {
		if skipped[i] {
			result.SkippedBarcodes = append(result.SkippedBarcodes, inserts[i].variant.CustomSKU)
		}
		if v == nil {
			continue
		}
		result.InsertedVariants = append(result.InsertedVariants, dto.VariantSummary{
			ID:        v.ID,
			ProductID: v.ProductID,
			CustomSKU: v.CustomSKU,
			Price:     v.Price,
		})
	}
	uc.collect(result, errs)
}

func (uc *syncUseCase) collect(result *dto.IngestResult, errs []error) {
	for _, msg := range messages(errs) {
		uc.logger.Warn("ingestion record failed", zap.String("error", msg))
		result.Failures = append(result.Failures, msg)
	}
}

func ptr[T any](v T) *T {
	return &v
}

// optional is ptr for strings where "" means unset.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func lookup(m map[string]string, key string) *string {
	if id, ok := m[key]; ok {
		return &id
	}
	return nil
}

package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/fekuna/omnipos-catalog-sync/internal/apperror"
	"github.com/fekuna/omnipos-catalog-sync/internal/erp"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	syncrundto "github.com/fekuna/omnipos-catalog-sync/internal/syncrun/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIngestProducts_CreatesCatalog(t *testing.T) {
	h := newHarness(t)
	h.source.products = []erp.RawProduct{
		rawModel("100", detail("B1", "100", "", 200), detail("B2", "100", "", 210)),
	}

	res, err := h.uc.IngestProducts(t.Context(), erp.ProductFilter{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Phones"}, res.CreatedCategories)
	assert.Equal(t, []string{"Acme"}, res.CreatedBrands)
	require.Len(t, res.InsertedProducts, 1)
	assert.Equal(t, "100", res.InsertedProducts[0].ModelID)
	assert.Len(t, res.InsertedVariants, 2)
	assert.Empty(t, res.Failures)

	v := h.store.variantBySKU("B1")
	require.NotNil(t, v)
	assert.Equal(t, res.InsertedProducts[0].ID, v.ProductID)
	assert.Equal(t, 200.0, v.Price)
	require.NotNil(t, v.DiscountedPrice)
	assert.Equal(t, 200.0, *v.DiscountedPrice)
	assert.Equal(t, int64(1), v.StockQuantity)
	assert.Equal(t, map[string]string{"Color": "Black", "Memory": "128GB"}, h.store.attributesOf(v.ID))

	p := h.store.products[v.ProductID]
	assert.Equal(t, model.ProductStatusDraft, p.Status)
	assert.Nil(t, p.GadgetModelID)
	require.NotNil(t, p.CategoryID)
	assert.Equal(t, "phones", h.store.categories[*p.CategoryID].Slug)

	runs, err := h.uc.ListRuns(t.Context(), &syncrundto.RunFilters{Type: string(model.SyncRunGadget)})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, model.SyncRunGadget, runs[0].Type)
	assert.Equal(t, model.SyncRunCompleted, runs[0].Status)
	assert.Contains(t, runs[0].Summary, `"custom_sku":"B1"`)
}

func TestIngestProducts_Idempotent(t *testing.T) {
	h := newHarness(t)
	h.source.products = []erp.RawProduct{
		rawModel("100", detail("B1", "100", "G1", 200), detail("B2", "100", "G2", 210)),
		rawModel("200", detail("B3", "200", "", 300)),
	}

	_, err := h.uc.IngestProducts(t.Context(), erp.ProductFilter{})
	require.NoError(t, err)
	products, variants := len(h.store.products), len(h.store.variants)

	res, err := h.uc.IngestProducts(t.Context(), erp.ProductFilter{})
	require.NoError(t, err)

	assert.Empty(t, res.CreatedCategories)
	assert.Empty(t, res.CreatedBrands)
	assert.Empty(t, res.InsertedProducts)
	assert.Empty(t, res.InsertedVariants)
	assert.Equal(t, products, len(h.store.products))
	assert.Equal(t, variants, len(h.store.variants))
}

func TestIngestProducts_ExistingBarcodeIsNeverDuplicated(t *testing.T) {
	h := newHarness(t)
	h.store.variants["v1"] = model.Variant{
		BaseModel: model.BaseModel{ID: "v1"},
		ProductID: "manual",
		CustomSKU: "B1",
		Price:     999,
		Status:    model.VariantStatusActive,
	}
	h.source.products = []erp.RawProduct{rawModel("100", detail("B1", "100", "", 200))}

	res, err := h.uc.IngestProducts(t.Context(), erp.ProductFilter{})
	require.NoError(t, err)

	assert.Empty(t, res.InsertedVariants)
	assert.Empty(t, res.InsertedProducts)
	assert.Len(t, h.store.variants, 1)
	assert.Equal(t, 999.0, h.store.variants["v1"].Price)
}

func TestIngestProducts_SplitsMultiGadgetModels(t *testing.T) {
	h := newHarness(t)
	g1 := detail("B1", "100", "G1", 200)
	g1.ModelName = "Phone X Blue"
	g2 := detail("B2", "100", "G2", 210)
	g2.ModelName = "Phone X Red"
	g1b := detail("B3", "100", "G1", 200)
	h.source.products = []erp.RawProduct{rawModel("100", g1, g2, g1b)}

	res, err := h.uc.IngestProducts(t.Context(), erp.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, res.InsertedProducts, 2)

	byGadget := map[string]string{}
	for _, p := range res.InsertedProducts {
		assert.Equal(t, "100", p.ModelID)
		byGadget[p.GadgetModelID] = p.ID
	}
	require.Contains(t, byGadget, "G1")
	require.Contains(t, byGadget, "G2")

	assert.Equal(t, byGadget["G1"], h.store.variantBySKU("B1").ProductID)
	assert.Equal(t, byGadget["G1"], h.store.variantBySKU("B3").ProductID)
	assert.Equal(t, byGadget["G2"], h.store.variantBySKU("B2").ProductID)
	assert.Equal(t, "Phone X Red", h.store.products[byGadget["G2"]].Name)
}

func TestIngestProducts_SingleGadgetKeepsOneProduct(t *testing.T) {
	h := newHarness(t)
	h.source.products = []erp.RawProduct{
		rawModel("100", detail("B1", "100", "G1", 200), detail("B2", "100", "G1", 210)),
	}

	res, err := h.uc.IngestProducts(t.Context(), erp.ProductFilter{})
	require.NoError(t, err)

	require.Len(t, res.InsertedProducts, 1)
	assert.Empty(t, res.InsertedProducts[0].GadgetModelID)
	assert.Equal(t, h.store.variantBySKU("B1").ProductID, h.store.variantBySKU("B2").ProductID)
}

func externalProduct(id, modelID, gadget string) *model.Product {
	return &model.Product{
		BaseModel:       model.BaseModel{ID: id},
		ExternalModelID: ptr(modelID),
		GadgetModelID:   optional(gadget),
		Name:            "Phone X",
		Status:          model.ProductStatusDraft,
	}
}

func TestIngestProducts_RechecksProductBeforeInsert(t *testing.T) {
	h := newHarness(t)
	// The second category read happens after the snapshot and before
	// product inserts; a concurrent run creates the product in between.
	h.store.onListCategories = func(call int) {
		if call == 2 {
			h.store.CreateProduct(context.Background(), externalProduct("p-existing", "100", ""))
		}
	}
	h.source.products = []erp.RawProduct{
		rawModel("100", detail("B1", "100", "", 200), detail("B2", "100", "", 210)),
	}

	res, err := h.uc.IngestProducts(t.Context(), erp.ProductFilter{})
	require.NoError(t, err)

	assert.Empty(t, res.InsertedProducts)
	assert.Empty(t, res.Failures)
	assert.Len(t, h.store.products, 1)
	assert.Len(t, res.InsertedVariants, 2)
	assert.Equal(t, "p-existing", h.store.variantBySKU("B1").ProductID)
	assert.Equal(t, "p-existing", h.store.variantBySKU("B2").ProductID)
}

func TestIngestProducts_CategoryTakenSinceSnapshot(t *testing.T) {
	h := newHarness(t)
	h.store.onListCategories = func(call int) {
		if call == 1 {
			h.store.CreateCategory(context.Background(), &model.Category{
				BaseModel: model.BaseModel{ID: "c-existing"},
				Name:      "Phones",
				Slug:      "phones",
				IsActive:  true,
			})
		}
	}
	h.source.products = []erp.RawProduct{rawModel("100", detail("B1", "100", "", 200))}

	res, err := h.uc.IngestProducts(t.Context(), erp.ProductFilter{})
	require.NoError(t, err)

	assert.Empty(t, res.CreatedCategories)
	assert.Empty(t, res.Failures)
	assert.Len(t, h.store.categories, 1)

	p := h.store.products[h.store.variantBySKU("B1").ProductID]
	require.NotNil(t, p.CategoryID)
	assert.Equal(t, "c-existing", *p.CategoryID)
}

func TestIngestProducts_KeepsSplitProductsWhenFeedNarrows(t *testing.T) {
	h := newHarness(t)
	h.store.CreateProduct(t.Context(), externalProduct("p-g1", "100", "G1"))
	h.store.CreateProduct(t.Context(), externalProduct("p-g2", "100", "G2"))
	h.source.products = []erp.RawProduct{
		rawModel("100", detail("B7", "100", "G1", 200), detail("B8", "100", "G1", 200)),
	}

	res, err := h.uc.IngestProducts(t.Context(), erp.ProductFilter{})
	require.NoError(t, err)

	assert.Empty(t, res.InsertedProducts)
	assert.Len(t, h.store.products, 2)
	assert.Equal(t, "p-g1", h.store.variantBySKU("B7").ProductID)
	assert.Equal(t, "p-g1", h.store.variantBySKU("B8").ProductID)
}

func TestIngestProducts_NewSingleGadgetModelStaysWhole(t *testing.T) {
	h := newHarness(t)
	h.store.CreateProduct(t.Context(), externalProduct("p-other", "200", "G1"))
	h.source.products = []erp.RawProduct{rawModel("100", detail("B1", "100", "G1", 200))}

	res, err := h.uc.IngestProducts(t.Context(), erp.ProductFilter{})
	require.NoError(t, err)

	require.Len(t, res.InsertedProducts, 1)
	assert.Equal(t, "100", res.InsertedProducts[0].ModelID)
	assert.Empty(t, res.InsertedProducts[0].GadgetModelID)
}

func TestIngestProducts_ExcludesLiveDemo(t *testing.T) {
	h := newHarness(t)
	demoDetail := detail("B2", "200", "", 100)
	demoDetail.CategoryName = liveDemo
	demoModel := rawModel("300", detail("B3", "300", "", 100))
	demoModel.CategoryName = liveDemo
	h.source.products = []erp.RawProduct{
		rawModel("100", detail("B1", "100", "", 200)),
		rawModel("200", demoDetail),
		demoModel,
	}

	res, err := h.uc.IngestProducts(t.Context(), erp.ProductFilter{})
	require.NoError(t, err)

	assert.Len(t, res.InsertedProducts, 1)
	assert.Len(t, res.InsertedVariants, 1)
	assert.Nil(t, h.store.variantBySKU("B2"))
	assert.Nil(t, h.store.variantBySKU("B3"))
	assert.NotContains(t, res.CreatedCategories, liveDemo)
}

func TestIngestProducts_SuppressesNotAvailableAttributes(t *testing.T) {
	h := newHarness(t)
	d := detail("B1", "100", "", 200)
	d.ColorName = "N/A"
	d2 := detail("B2", "100", "", 200)
	d2.ColorName = "N/A"
	d2.MemoryCapacity = "N/A"
	h.source.products = []erp.RawProduct{rawModel("100", d, d2)}

	_, err := h.uc.IngestProducts(t.Context(), erp.ProductFilter{})
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"Memory": "128GB"}, h.store.attributesOf(h.store.variantBySKU("B1").ID))
	assert.Empty(t, h.store.attributesOf(h.store.variantBySKU("B2").ID))
}

func TestIngestProducts_MatchesBrandsCaseInsensitively(t *testing.T) {
	h := newHarness(t)
	h.store.brands["b1"] = model.Brand{BaseModel: model.BaseModel{ID: "b1"}, Name: "ACME", Slug: "acme"}
	h.source.products = []erp.RawProduct{rawModel("100", detail("B1", "100", "", 200))}

	res, err := h.uc.IngestProducts(t.Context(), erp.ProductFilter{})
	require.NoError(t, err)

	assert.Empty(t, res.CreatedBrands)
	p := h.store.products[res.InsertedProducts[0].ID]
	require.NotNil(t, p.BrandID)
	assert.Equal(t, "b1", *p.BrandID)
}

func TestIngestProducts_EmptyFeed(t *testing.T) {
	h := newHarness(t)

	_, err := h.uc.IngestProducts(t.Context(), erp.ProductFilter{})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	require.Len(t, h.runs.runs, 1)
	assert.Equal(t, model.SyncRunFailed, h.runs.runs[0].Status)
	assert.Contains(t, h.runs.runs[0].Summary, "empty")
}

func TestIngestProducts_SinkFailureQueuesRetry(t *testing.T) {
	h := newHarness(t)
	h.sink.fail = fmt.Errorf("cluster unavailable")
	h.source.products = []erp.RawProduct{rawModel("100", detail("B1", "100", "", 200))}

	res, err := h.uc.IngestProducts(t.Context(), erp.ProductFilter{})
	require.NoError(t, err)

	require.Len(t, res.InsertedVariants, 1)
	assert.Equal(t, []string{res.InsertedVariants[0].ID}, h.retry.ids)
}

// slowStore delays product inserts so variant creation would observe a
// partially written product set if it did not wait for them.
type slowStore struct {
	*memStore
}

func (s slowStore) CreateProduct(ctx context.Context, p *model.Product) error {
	time.Sleep(5 * time.Millisecond)
	return s.memStore.CreateProduct(ctx, p)
}

func TestIngestProducts_VariantsSeeEveryCreatedProduct(t *testing.T) {
	h := newHarness(t)
	uc := NewSyncUseCase(slowStore{h.store}, h.source, h.runs, h.indexer, h.retry, nil, Options{Concurrency: 16}, nopLog())

	for i := range 20 {
		modelID := fmt.Sprint(1000 + i)
		h.source.products = append(h.source.products, rawModel(modelID,
			detail(fmt.Sprintf("B%d-1", i), modelID, "", 100),
			detail(fmt.Sprintf("B%d-2", i), modelID, "", 100),
		))
	}

	res, err := uc.IngestProducts(t.Context(), erp.ProductFilter{})
	require.NoError(t, err)

	assert.Empty(t, res.Failures)
	assert.Len(t, res.InsertedProducts, 20)
	assert.Len(t, res.InsertedVariants, 40)
	for _, v := range h.store.variants {
		assert.Contains(t, h.store.products, v.ProductID)
	}
}

func TestPlanIngestion_SharesKeyBetweenProductAndVariant(t *testing.T) {
	feed := []erp.RawProduct{
		rawModel("100", detail("B1", "100", "", 200), detail("B2", "100", "G2", 200)),
	}
	snap := &snapshot{
		categories: map[string]string{},
		brands:     map[string]string{},
		products:   map[model.ExternalKey]string{},
		variants:   map[string]model.Variant{},
	}

	plan := planIngestion(Resolve(feed, snap.variants), snap)

	productKeys := map[model.ExternalKey]bool{}
	for _, p := range plan.products {
		productKeys[p.key] = true
	}
	assert.Len(t, productKeys, 2)
	for _, v := range plan.variants {
		assert.True(t, productKeys[v.key], "variant %s has no planned product", v.variant.CustomSKU)
	}
	assert.True(t, productKeys[model.ExternalKey{ModelID: "100"}])
	assert.True(t, productKeys[model.ExternalKey{ModelID: "100", GadgetModelID: "G2"}])
}

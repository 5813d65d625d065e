package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/fekuna/omnipos-catalog-sync/internal/catalogsync"
	categorydto "github.com/fekuna/omnipos-catalog-sync/internal/category/dto"
	categoryuc "github.com/fekuna/omnipos-catalog-sync/internal/category/usecase"
	"github.com/fekuna/omnipos-catalog-sync/internal/erp"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/fekuna/omnipos-catalog-sync/internal/search"
	searchuc "github.com/fekuna/omnipos-catalog-sync/internal/search/usecase"
	syncrundto "github.com/fekuna/omnipos-catalog-sync/internal/syncrun/dto"
	"github.com/fekuna/omnipos-catalog-sync/pkg/logger"
)

// memStore backs the catalog, search and category repositories with maps.
type memStore struct {
	mu         sync.Mutex
	categories map[string]model.Category
	brands     map[string]model.Brand
	products   map[string]model.Product
	variants   map[string]model.Variant
	attrs      []model.VariantAttribute
	warehouses []model.Warehouse
	stocks     map[string]model.WarehouseStock

	// failVariantUpdate makes UpdateVariant fail for these variant ids.
	failVariantUpdate map[string]bool
	// onListCategories runs after every ListCategories call with its
	// 1-based call number, outside the lock.
	onListCategories func(call int)
	listCategoryCalls int
}

func newMemStore() *memStore {
	return &memStore{
		categories:        map[string]model.Category{},
		brands:            map[string]model.Brand{},
		products:          map[string]model.Product{},
		variants:          map[string]model.Variant{},
		stocks:            map[string]model.WarehouseStock{},
		failVariantUpdate: map[string]bool{},
	}
}

func (s *memStore) ListCategories(context.Context) ([]model.Category, error) {
	s.mu.Lock()
	out := []model.Category{}
	for _, c := range s.categories {
		out = append(out, c)
	}
	s.listCategoryCalls++
	call, hook := s.listCategoryCalls, s.onListCategories
	s.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	return out, nil
}

func (s *memStore) CreateCategory(_ context.Context, c *model.Category) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.categories {
		if existing.Name == c.Name {
			return false, nil
		}
	}
	s.categories[c.ID] = *c
	return true, nil
}

func (s *memStore) ListBrands(context.Context) ([]model.Brand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Brand{}
	for _, b := range s.brands {
		out = append(out, b)
	}
	return out, nil
}

func (s *memStore) CreateBrand(_ context.Context, b *model.Brand) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.brands {
		if strings.EqualFold(existing.Name, b.Name) {
			return false, nil
		}
	}
	s.brands[b.ID] = *b
	return true, nil
}

func (s *memStore) ListExternalProducts(context.Context) ([]model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Product{}
	for _, p := range s.products {
		if p.ExternalModelID != nil {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *memStore) FindProductByExternalKey(_ context.Context, key model.ExternalKey) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.products {
		if k, ok := p.Key(); ok && k == key {
			return &p, nil
		}
	}
	return nil, nil
}

func (s *memStore) CreateProduct(_ context.Context, p *model.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = *p
	return nil
}

func (s *memStore) ListVariants(context.Context) ([]model.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Variant{}
	for _, v := range s.variants {
		out = append(out, v)
	}
	return out, nil
}

func (s *memStore) CreateVariant(_ context.Context, v *model.Variant, attrs []model.VariantAttribute) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.variants {
		if existing.CustomSKU == v.CustomSKU {
			return false, nil
		}
	}
	s.variants[v.ID] = *v
	s.attrs = append(s.attrs, attrs...)
	return true, nil
}

func (s *memStore) UpdateVariant(_ context.Context, patch *model.VariantPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failVariantUpdate[patch.ID] {
		return errors.New("connection reset")
	}
	v, ok := s.variants[patch.ID]
	if !ok {
		return errors.New("no such variant")
	}
	if patch.Price != nil {
		v.Price = *patch.Price
	}
	if patch.CostPrice != nil {
		v.CostPrice = patch.CostPrice
	}
	if patch.PointEarn != nil {
		v.PointEarn = patch.PointEarn
	}
	if patch.SBarcode != nil {
		v.SBarcode = patch.SBarcode
	}
	if patch.VAT != nil {
		v.VAT = patch.VAT
	}
	if patch.GadgetModelID != nil {
		v.GadgetModelID = patch.GadgetModelID
	}
	if patch.ExternalItemID != nil {
		v.ExternalItemID = patch.ExternalItemID
	}
	if patch.ModelNo != nil {
		v.ModelNo = patch.ModelNo
	}
	if patch.DiscountedPrice != nil {
		v.DiscountedPrice = patch.DiscountedPrice
	}
	v.UpdatedAt = patch.UpdatedAt
	s.variants[patch.ID] = v
	return nil
}

func (s *memStore) UpdateVariantStockQuantity(_ context.Context, variantID string, quantity int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.variants[variantID]
	v.StockQuantity = quantity
	s.variants[variantID] = v
	return nil
}

func (s *memStore) ListWarehouses(context.Context) ([]model.Warehouse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Warehouse{}, s.warehouses...), nil
}

func (s *memStore) ListWarehouseStocks(context.Context) ([]model.WarehouseStockRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	codes := map[string]string{}
	for _, w := range s.warehouses {
		codes[w.ID] = w.Code
	}
	out := []model.WarehouseStockRow{}
	for _, st := range s.stocks {
		out = append(out, model.WarehouseStockRow{
			StockID:       st.ID,
			WarehouseID:   st.WarehouseID,
			WarehouseCode: codes[st.WarehouseID],
			VariantID:     st.VariantID,
			CustomSKU:     s.variants[st.VariantID].CustomSKU,
			Quantity:      st.Quantity,
		})
	}
	return out, nil
}

func (s *memStore) CreateWarehouseStocks(_ context.Context, stocks []model.WarehouseStock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, st := range stocks {
		s.stocks[st.ID] = st
	}
	return nil
}

func (s *memStore) UpdateWarehouseStockQuantity(_ context.Context, stockID string, quantity int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.stocks[stockID]
	st.Quantity = quantity
	s.stocks[stockID] = st
	return nil
}

func (s *memStore) SumStockByVariant(context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sums := map[string]int64{}
	for _, st := range s.stocks {
		sums[st.VariantID] += st.Quantity
	}
	return sums, nil
}

func (s *memStore) FindVariant(_ context.Context, id string) (*model.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.variants[id]; ok {
		return &v, nil
	}
	return nil, nil
}

func (s *memStore) FindProduct(_ context.Context, id string) (*model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.products[id]; ok {
		return &p, nil
	}
	return nil, nil
}

func (s *memStore) FindBrand(_ context.Context, id string) (*model.Brand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.brands[id]; ok {
		return &b, nil
	}
	return nil, nil
}

func (s *memStore) FindByID(_ context.Context, id string) (*model.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.categories[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (s *memStore) FindAll(context.Context, *categorydto.CategoryFilters) ([]model.Category, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (s *memStore) ListVariantsByProduct(_ context.Context, productID string) ([]model.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Variant{}
	for _, v := range s.variants {
		if v.ProductID == productID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (s *memStore) ListVariantIDsByProducts(_ context.Context, productIDs []string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := map[string]bool{}
	for _, id := range productIDs {
		want[id] = true
	}
	out := []string{}
	for _, v := range s.variants {
		if want[v.ProductID] {
			out = append(out, v.ID)
		}
	}
	return out, nil
}

func (s *memStore) ListAttributes(_ context.Context, variantIDs []string) ([]model.VariantAttribute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := map[string]bool{}
	for _, id := range variantIDs {
		want[id] = true
	}
	out := []model.VariantAttribute{}
	for _, a := range s.attrs {
		if want[a.VariantID] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) ListSpecifications(context.Context, string) ([]model.Specification, error) {
	return []model.Specification{}, nil
}

// variantBySKU returns the variant with the given custom sku or nil.
func (s *memStore) variantBySKU(sku string) *model.Variant {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range s.variants {
		if v.CustomSKU == sku {
			return &v
		}
	}
	return nil
}

func (s *memStore) attributesOf(variantID string) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]string{}
	for _, a := range s.attrs {
		if a.VariantID == variantID {
			out[a.Key] = a.Value
		}
	}
	return out
}

// memSink is an in-memory search index that counts adds per document.
type memSink struct {
	mu   sync.Mutex
	docs map[string]search.Document
	adds map[string]int
	fail error
}

func newMemSink() *memSink {
	return &memSink{docs: map[string]search.Document{}, adds: map[string]int{}}
}

func (s *memSink) RemoveDocuments(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	for _, id := range ids {
		delete(s.docs, id)
	}
	return nil
}

func (s *memSink) AddDocuments(_ context.Context, docs []search.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	for _, d := range docs {
		s.docs[d.ID] = d
		s.adds[d.ID]++
	}
	return nil
}

func (s *memSink) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

type fakeSource struct {
	products   []erp.RawProduct
	stock      []erp.RawStockEntry
	productErr error
	stockErr   error
}

func (f *fakeSource) FetchProducts(context.Context, erp.ProductFilter) ([]erp.RawProduct, error) {
	return f.products, f.productErr
}

func (f *fakeSource) FetchStock(context.Context, erp.StockFilter) ([]erp.RawStockEntry, error) {
	return f.stock, f.stockErr
}

type memRuns struct {
	mu   sync.Mutex
	runs []model.SyncRun
}

func (r *memRuns) Create(_ context.Context, run *model.SyncRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, *run)
	return nil
}

func (r *memRuns) List(_ context.Context, f *syncrundto.RunFilters) ([]model.SyncRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.SyncRun{}
	for _, run := range r.runs {
		if f.Type == "" || string(run.Type) == f.Type {
			out = append(out, run)
		}
	}
	return out, nil
}

type memRetry struct {
	mu  sync.Mutex
	ids []string
}

func (q *memRetry) RequestReindex(_ context.Context, variantID, _ string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, variantID)
	sort.Strings(q.ids)
	return nil
}

type harness struct {
	store   *memStore
	sink    *memSink
	source  *fakeSource
	runs    *memRuns
	retry   *memRetry
	indexer search.UseCase
	uc      catalogsync.UseCase
}

func newHarness(t *testing.T, opts ...func(*Options)) *harness {
	t.Helper()

	log := logger.NewNop()
	h := &harness{
		store:  newMemStore(),
		sink:   newMemSink(),
		source: &fakeSource{},
		runs:   &memRuns{},
		retry:  &memRetry{},
	}
	h.indexer = searchuc.NewIndexUseCase(h.store, h.sink, categoryuc.NewCategoryUseCase(h.store, log), log)

	o := Options{Concurrency: 4}
	for _, fn := range opts {
		fn(&o)
	}
	h.uc = NewSyncUseCase(h.store, h.source, h.runs, h.indexer, h.retry, nil, o, log)
	return h
}

func detail(barcode, modelID, gadget string, price float64) erp.RawProductDetail {
	return erp.RawProductDetail{
		ModelID:        erp.ID(modelID),
		ModelName:      "Phone X",
		CategoryName:   "Phones",
		BrandName:      "Acme",
		ItemID:         erp.ID("9" + barcode),
		GadgetModelID:  erp.ID(gadget),
		PBarCode:       barcode,
		SBarCode:       "S" + barcode,
		ModelNo:        "PX-1",
		ColorName:      "Black",
		MemoryCapacity: "128GB",
		SalePrice:      erp.Number(price),
		CostPrice:      erp.Number(price * 0.8),
		PointEarn:      5,
		VatPercent:     7.5,
	}
}

func rawModel(modelID string, details ...erp.RawProductDetail) erp.RawProduct {
	return erp.RawProduct{
		ModelID:      erp.ID(modelID),
		ModelName:    "Phone X",
		CategoryName: "Phones",
		BrandName:    "Acme",
		Details:      details,
	}
}

func nopLog() logger.ZapLogger {
	return logger.NewNop()
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/fekuna/omnipos-catalog-sync/internal/apperror"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/fekuna/omnipos-catalog-sync/internal/product/dto"
	"github.com/fekuna/omnipos-catalog-sync/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu       sync.Mutex
	products map[string]*model.Product
	variants map[string]*model.Variant
	failAll  bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		products: map[string]*model.Product{},
		variants: map[string]*model.Variant{},
	}
}

func (r *fakeRepo) addProduct(id string, status model.ProductStatus) {
	p := &model.Product{Name: id, Status: status}
	p.ID = id
	r.products[id] = p
}

func (r *fakeRepo) addVariant(id, productID, customSKU string, status model.VariantStatus) {
	v := &model.Variant{ProductID: productID, CustomSKU: customSKU, Status: status}
	v.ID = id
	r.variants[id] = v
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failAll {
		return nil, errors.New("connection refused")
	}
	p, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *fakeRepo) FindVariantByID(_ context.Context, id string) (*model.Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variants[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (r *fakeRepo) ListVariants(_ context.Context, productID string) ([]model.Variant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []model.Variant{}
	for _, v := range r.variants {
		if v.ProductID == productID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (r *fakeRepo) IsCustomSKUUnique(_ context.Context, customSKU, excludeVariantID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, v := range r.variants {
		if id != excludeVariantID && v.CustomSKU == customSKU {
			return false, nil
		}
	}
	return true, nil
}

func (r *fakeRepo) UpdateVariantCustomSKU(_ context.Context, variantID, customSKU string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variants[variantID].CustomSKU = customSKU
	return nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id string, status model.ProductStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if status != model.ProductStatusActive {
		r.products[id].Status = status
		return nil
	}
	var owned []*model.Variant
	for _, v := range r.variants {
		if v.ProductID != id {
			continue
		}
		if v.Status == model.VariantStatusActive {
			r.products[id].Status = status
			return nil
		}
		owned = append(owned, v)
	}
	if len(owned) == 0 {
		return fmt.Errorf("%w: product %s has no variants to activate", apperror.ErrValidationConflict, id)
	}
	for _, v := range owned {
		v.Status = model.VariantStatusActive
	}
	r.products[id].Status = status
	return nil
}

func (r *fakeRepo) UpdateVariantStatus(_ context.Context, id string, status model.VariantStatus) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.variants[id]
	v.Status = status
	if status == model.VariantStatusActive {
		return false, nil
	}
	for _, other := range r.variants {
		if other.ProductID == v.ProductID && other.Status == model.VariantStatusActive {
			return false, nil
		}
	}
	r.products[v.ProductID].Status = model.ProductStatusInactive
	return true, nil
}

func (r *fakeRepo) MergeProducts(_ context.Context, survivorID string, mergedIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range mergedIDs {
		if p, ok := r.products[id]; ok {
			p.MergeID = &survivorID
			p.Status = model.ProductStatusInactive
		}
	}
	return nil
}

// recordingIndexer captures index calls in order.
type recordingIndexer struct {
	calls []string
	fail  error
}

func (i *recordingIndexer) ReindexVariant(_ context.Context, id string) error {
	i.calls = append(i.calls, "reindex:"+id)
	return i.fail
}

func (i *recordingIndexer) ReindexVariantsForProduct(_ context.Context, id string) error {
	i.calls = append(i.calls, "reindex-product:"+id)
	return i.fail
}

func (i *recordingIndexer) RemoveVariant(_ context.Context, id string) error {
	i.calls = append(i.calls, "remove:"+id)
	return i.fail
}

func (i *recordingIndexer) RemoveVariantsForProduct(_ context.Context, id string) error {
	i.calls = append(i.calls, "remove-product:"+id)
	return i.fail
}

func (i *recordingIndexer) RemoveVariantsForProductIDs(_ context.Context, ids []string) error {
	for _, id := range ids {
		i.calls = append(i.calls, "remove-product:"+id)
	}
	return i.fail
}

func setup() (*fakeRepo, *recordingIndexer, *productUseCase) {
	repo := newFakeRepo()
	idx := &recordingIndexer{}
	uc := NewProductUseCase(repo, idx, nil, logger.NewNop()).(*productUseCase)
	return repo, idx, uc
}

func TestGetProduct(t *testing.T) {
	repo, _, uc := setup()
	repo.addProduct("p1", model.ProductStatusActive)
	repo.addVariant("v1", "p1", "SKU1", model.VariantStatusActive)

	p, err := uc.GetProduct(t.Context(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Len(t, p.Variants, 1)

	_, err = uc.GetProduct(t.Context(), "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestGetProduct_StorageError(t *testing.T) {
	repo, _, uc := setup()
	repo.failAll = true

	_, err := uc.GetProduct(t.Context(), "p1")
	assert.ErrorIs(t, err, apperror.ErrPersistence)
}

func TestUpdateProductStatus_ReactivatesVariants(t *testing.T) {
	repo, idx, uc := setup()
	repo.addProduct("p1", model.ProductStatusDraft)
	repo.addVariant("v1", "p1", "SKU1", model.VariantStatusInactive)
	repo.addVariant("v2", "p1", "SKU2", model.VariantStatusInactive)

	p, err := uc.UpdateProductStatus(t.Context(), &dto.UpdateProductStatusInput{ID: "p1", Status: model.ProductStatusActive})
	require.NoError(t, err)

	assert.Equal(t, model.ProductStatusActive, p.Status)
	for _, v := range p.Variants {
		assert.Equal(t, model.VariantStatusActive, v.Status)
	}
	assert.Equal(t, []string{"reindex-product:p1"}, idx.calls)
}

func TestUpdateProductStatus_Validation(t *testing.T) {
	repo, _, uc := setup()
	repo.addProduct("p1", model.ProductStatusDraft)

	_, err := uc.UpdateProductStatus(t.Context(), &dto.UpdateProductStatusInput{ID: "p1", Status: "archived"})
	assert.ErrorIs(t, err, apperror.ErrValidationConflict)

	_, err = uc.UpdateProductStatus(t.Context(), &dto.UpdateProductStatusInput{ID: "nope", Status: model.ProductStatusActive})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestUpdateProductStatus_ActivateWithoutVariants(t *testing.T) {
	repo, idx, uc := setup()
	repo.addProduct("p1", model.ProductStatusDraft)

	p, err := uc.UpdateProductStatus(t.Context(), &dto.UpdateProductStatusInput{ID: "p1", Status: model.ProductStatusActive})
	assert.ErrorIs(t, err, apperror.ErrValidationConflict)
	assert.Nil(t, p)
	assert.Equal(t, model.ProductStatusDraft, repo.products["p1"].Status)
	assert.Empty(t, idx.calls)

	_, err = uc.UpdateProductStatus(t.Context(), &dto.UpdateProductStatusInput{ID: "p1", Status: model.ProductStatusInactive})
	require.NoError(t, err)
	assert.Equal(t, model.ProductStatusInactive, repo.products["p1"].Status)
}

func TestUpdateProductStatus_IndexFailureIsDegraded(t *testing.T) {
	repo, idx, uc := setup()
	repo.addProduct("p1", model.ProductStatusDraft)
	repo.addVariant("v1", "p1", "SKU1", model.VariantStatusActive)
	idx.fail = errors.New("elastic unavailable")

	p, err := uc.UpdateProductStatus(t.Context(), &dto.UpdateProductStatusInput{ID: "p1", Status: model.ProductStatusActive})
	assert.ErrorIs(t, err, apperror.ErrTransientIO)
	require.NotNil(t, p)
	assert.Equal(t, model.ProductStatusActive, repo.products["p1"].Status)
}

func TestUpdateVariantStatus_LastActiveDeactivatesProduct(t *testing.T) {
	repo, idx, uc := setup()
	repo.addProduct("p1", model.ProductStatusActive)
	repo.addVariant("v1", "p1", "SKU1", model.VariantStatusActive)
	repo.addVariant("v2", "p1", "SKU2", model.VariantStatusInactive)

	v, err := uc.UpdateVariantStatus(t.Context(), &dto.UpdateVariantStatusInput{ID: "v1", Status: model.VariantStatusInactive})
	require.NoError(t, err)

	assert.Equal(t, model.VariantStatusInactive, v.Status)
	assert.Equal(t, model.ProductStatusInactive, repo.products["p1"].Status)
	assert.Equal(t, []string{"remove-product:p1"}, idx.calls)
}

func TestUpdateVariantStatus_SiblingStillActive(t *testing.T) {
	repo, idx, uc := setup()
	repo.addProduct("p1", model.ProductStatusActive)
	repo.addVariant("v1", "p1", "SKU1", model.VariantStatusActive)
	repo.addVariant("v2", "p1", "SKU2", model.VariantStatusActive)

	_, err := uc.UpdateVariantStatus(t.Context(), &dto.UpdateVariantStatusInput{ID: "v1", Status: model.VariantStatusInactive})
	require.NoError(t, err)

	assert.Equal(t, model.ProductStatusActive, repo.products["p1"].Status)
	assert.Equal(t, []string{"reindex:v1"}, idx.calls)
}

func TestMergeProducts(t *testing.T) {
	repo, idx, uc := setup()
	repo.addProduct("p1", model.ProductStatusActive)
	repo.addProduct("p2", model.ProductStatusActive)
	repo.addProduct("p3", model.ProductStatusActive)

	p, err := uc.MergeProducts(t.Context(), &dto.MergeProductsInput{SurvivorID: "p1", MergedIDs: []string{"p2", "p3"}})
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)

	for _, id := range []string{"p2", "p3"} {
		merged := repo.products[id]
		assert.Equal(t, model.ProductStatusInactive, merged.Status)
		require.NotNil(t, merged.MergeID)
		assert.Equal(t, "p1", *merged.MergeID)
	}
	assert.Equal(t, []string{"remove-product:p2", "remove-product:p3", "reindex-product:p1"}, idx.calls)
}

func TestMergeProducts_Rejections(t *testing.T) {
	repo, idx, uc := setup()
	repo.addProduct("p1", model.ProductStatusActive)

	_, err := uc.MergeProducts(t.Context(), &dto.MergeProductsInput{SurvivorID: "p1"})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = uc.MergeProducts(t.Context(), &dto.MergeProductsInput{SurvivorID: "p1", MergedIDs: []string{"p1"}})
	assert.ErrorIs(t, err, apperror.ErrValidationConflict)

	_, err = uc.MergeProducts(t.Context(), &dto.MergeProductsInput{SurvivorID: "ghost", MergedIDs: []string{"p1"}})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	assert.Empty(t, idx.calls)
}

func TestUpdateVariantCustomSKU(t *testing.T) {
	repo, idx, uc := setup()
	repo.addProduct("p1", model.ProductStatusActive)
	repo.addVariant("v1", "p1", "SKU1", model.VariantStatusActive)
	repo.addVariant("v2", "p1", "SKU2", model.VariantStatusActive)

	_, err := uc.UpdateVariantCustomSKU(t.Context(), &dto.UpdateCustomSKUInput{VariantID: "v1", CustomSKU: "SKU2"})
	assert.ErrorIs(t, err, apperror.ErrValidationConflict)

	_, err = uc.UpdateVariantCustomSKU(t.Context(), &dto.UpdateCustomSKUInput{VariantID: "v1"})
	assert.ErrorIs(t, err, apperror.ErrValidationConflict)
	assert.Empty(t, idx.calls)

	v, err := uc.UpdateVariantCustomSKU(t.Context(), &dto.UpdateCustomSKUInput{VariantID: "v1", CustomSKU: "SKU9"})
	require.NoError(t, err)
	assert.Equal(t, "SKU9", v.CustomSKU)
	assert.Equal(t, []string{"reindex:v1"}, idx.calls)
}

package usecase

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-catalog-sync/internal/apperror"
	"github.com/fekuna/omnipos-catalog-sync/internal/model"
	"github.com/fekuna/omnipos-catalog-sync/internal/search"
)

// buildDocuments projects variants of one product. Product-level parts
// (brand, breadcrumb, specifications) are loaded once.
func (uc *indexUseCase) buildDocuments(ctx context.Context, p *model.Product, variants []model.Variant) ([]search.Document, error) {
	var brand *model.Brand
	if p.BrandID != nil {
		b, err := uc.repo.FindBrand(ctx, *p.BrandID)
		if err != nil {
			return nil, fmt.Errorf("%w: find brand %s: %v", apperror.ErrPersistence, *p.BrandID, err)
		}
		brand = b
	}

	var breadcrumb []model.Category
	if p.CategoryID != nil {
		crumbs, err := uc.categories.GenerateBreadcrumb(ctx, *p.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("breadcrumb for product %s: %w", p.ID, err)
		}
		breadcrumb = crumbs
	}

	specs, err := uc.repo.ListSpecifications(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: list specifications of %s: %v", apperror.ErrPersistence, p.ID, err)
	}

	ids := make([]string, len(variants))
	for i, v := range variants {
		ids[i] = v.ID
	}
	attrs, err := uc.repo.ListAttributes(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: list attributes: %v", apperror.ErrPersistence, err)
	}
	attrsByVariant := make(map[string][]model.VariantAttribute, len(variants))
	for _, a := range attrs {
		attrsByVariant[a.VariantID] = append(attrsByVariant[a.VariantID], a)
	}

	docs := make([]search.Document, 0, len(variants))
	for _, v := range variants {
		docs = append(docs, BuildDocument(&v, p, brand, breadcrumb, attrsByVariant[v.ID], specs))
	}
	return docs, nil
}

// BuildDocument flattens a variant and its context into a search document.
// brand may be nil.
func BuildDocument(
	v *model.Variant,
	p *model.Product,
	brand *model.Brand,
	breadcrumb []model.Category,
	attrs []model.VariantAttribute,
	specs []model.Specification,
) search.Document {
	productID := p.ID
	doc := search.Document{
		ID:              v.ID,
		SKU:             v.SKU,
		CustomSKU:       v.CustomSKU,
		ModelNo:         str(v.ModelNo),
		SBarcode:        str(v.SBarcode),
		Price:           v.Price,
		DiscountedPrice: num(v.DiscountedPrice),
		DiscountValue:   num(v.DiscountValue),
		DiscountStart:   v.DiscountStart,
		DiscountEnd:     v.DiscountEnd,
		StockQuantity:   v.StockQuantity,
		VAT:             num(v.VAT),
		CostPrice:       num(v.CostPrice),
		PointEarn:       num(v.PointEarn),
		Status:          string(v.Status),
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,

		ProductID:        &productID,
		ProductName:      p.Name,
		ProductSlug:      str(p.Slug),
		ProductStatus:    string(p.Status),
		IsFeatured:       p.IsFeatured,
		WarrantyType:     str(p.WarrantyType),
		Warranty:         str(p.Warranty),
		ShortDescription: str(p.ShortDescription),
		LongDescription:  str(p.LongDescription),
		ProductCreatedAt: p.CreatedAt,
		ProductUpdatedAt: p.UpdatedAt,

		CategoryIDs:         make([]string, 0, len(breadcrumb)),
		CategorySlugs:       make([]string, 0, len(breadcrumb)),
		CategoryNames:       make([]string, 0, len(breadcrumb)),
		AttributeNames:      make([]string, 0, len(attrs)),
		AttributeValues:     make([]string, 0, len(attrs)),
		SpecificationNames:  make([]string, 0, len(specs)),
		SpecificationValues: make([]string, 0, len(specs)),
	}

	if v.DiscountType != nil {
		doc.DiscountType = string(*v.DiscountType)
	}

	for _, c := range breadcrumb {
		doc.CategoryIDs = append(doc.CategoryIDs, c.ID)
		doc.CategorySlugs = append(doc.CategorySlugs, c.Slug)
		doc.CategoryNames = append(doc.CategoryNames, c.Name)
	}

	if brand != nil {
		brandID := brand.ID
		doc.BrandID = &brandID
		doc.BrandSlug = brand.Slug
		doc.BrandName = brand.Name
		doc.BrandLogo = str(brand.Logo)
	}

	for _, a := range attrs {
		doc.AttributeNames = append(doc.AttributeNames, a.Key)
		doc.AttributeValues = append(doc.AttributeValues, a.Value)
	}
	for _, s := range specs {
		doc.SpecificationNames = append(doc.SpecificationNames, s.Key)
		doc.SpecificationValues = append(doc.SpecificationValues, s.Value)
	}

	return doc
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func num(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

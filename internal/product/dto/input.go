package dto

import "github.com/fekuna/omnipos-catalog-sync/internal/model"

type UpdateProductStatusInput struct {
	ID     string
	Status model.ProductStatus
}

type UpdateVariantStatusInput struct {
	ID     string
	Status model.VariantStatus
}

type MergeProductsInput struct {
	SurvivorID string
	MergedIDs  []string
}

type UpdateCustomSKUInput struct {
	VariantID string
	CustomSKU string
}

// Package search keeps the denormalized variant index in step with the
// catalog. Every add is preceded by a remove of the same ids, so the index
// never holds two documents for one variant.
package search

import (
	"context"

	"github.com/fekuna/omnipos-catalog-sync/internal/model"
)

// Sink is the write side of the full-text index.
type Sink interface {
	RemoveDocuments(ctx context.Context, ids []string) error
	AddDocuments(ctx context.Context, docs []Document) error
}

// Repository reads the rows a variant document is projected from.
type Repository interface {
	FindVariant(ctx context.Context, id string) (*model.Variant, error)
	FindProduct(ctx context.Context, id string) (*model.Product, error)
	FindBrand(ctx context.Context, id string) (*model.Brand, error)
	ListVariantsByProduct(ctx context.Context, productID string) ([]model.Variant, error)
	ListVariantIDsByProducts(ctx context.Context, productIDs []string) ([]string, error)
	ListAttributes(ctx context.Context, variantIDs []string) ([]model.VariantAttribute, error)
	ListSpecifications(ctx context.Context, productID string) ([]model.Specification, error)
}

type UseCase interface {
	ReindexVariant(ctx context.Context, variantID string) error
	ReindexVariantsForProduct(ctx context.Context, productID string) error
	RemoveVariant(ctx context.Context, variantID string) error
	RemoveVariantsForProduct(ctx context.Context, productID string) error
	RemoveVariantsForProductIDs(ctx context.Context, productIDs []string) error
}

// RetryQueue defers a failed reindex to a later, asynchronous attempt.
type RetryQueue interface {
	RequestReindex(ctx context.Context, variantID, reason string) error
}

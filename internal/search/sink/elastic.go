package sink

import (
	"context"

	"github.com/fekuna/omnipos-catalog-sync/internal/search"
	essearch "github.com/fekuna/omnipos-catalog-sync/pkg/search"
)

// ElasticSink writes variant documents to one Elasticsearch index.
type ElasticSink struct {
	client *essearch.Client
	index  string
}

func NewElasticSink(client *essearch.Client, index string) *ElasticSink {
	return &ElasticSink{client: client, index: index}
}

// EnsureIndex creates the index with the variant mapping if it is missing.
func (s *ElasticSink) EnsureIndex(ctx context.Context) error {
	return s.client.CreateIndex(ctx, s.index, search.Mapping)
}

func (s *ElasticSink) RemoveDocuments(ctx context.Context, ids []string) error {
	return s.client.BulkDelete(ctx, s.index, ids)
}

func (s *ElasticSink) AddDocuments(ctx context.Context, docs []search.Document) error {
	bulk := make([]essearch.BulkDocument, len(docs))
	for i, d := range docs {
		bulk[i] = essearch.BulkDocument{ID: d.ID, Body: d}
	}
	return s.client.BulkIndex(ctx, s.index, bulk)
}

// NopSink drops every write. It stands in when Elasticsearch is
// unreachable at startup so catalog writes keep flowing.
type NopSink struct{}

func (NopSink) RemoveDocuments(context.Context, []string) error       { return nil }
func (NopSink) AddDocuments(context.Context, []search.Document) error { return nil }

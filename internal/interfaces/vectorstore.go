package interfaces

import (
	"context"

	"github.com/chrisroyse/docprov/internal/models"
)

// VectorStore is the C9 adapter contract over the vec0 virtual table. It
// does not own embedding ids - those are assigned by the Data-Access Layer
// for Embedding rows; a vector row without a matching Embedding row is an
// integrity bug cleaned up by the cascade controller.
type VectorStore interface {
	Store(ctx context.Context, embeddingID string, vector []float32) error
	Get(ctx context.Context, embeddingID string) ([]float32, bool, error)
	Delete(ctx context.Context, embeddingID string) (bool, error)
	// KNN returns the nearest neighbors to query, sorted ascending by
	// distance with ties broken by insertion order.
	KNN(ctx context.Context, query []float32, opts KNNOptions) ([]models.VectorSearchResult, error)
	Count(ctx context.Context) (int, error)
}

// KNNOptions bounds and filters a k-nearest-neighbors query.
type KNNOptions struct {
	Limit  int
	Filter []string // optional allow-list of embedding ids to restrict the search to
}

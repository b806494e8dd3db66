package vectorstore

import (
	"context"

	"socialrag/internal/domain"
)

// Storage persists vectors and supports similarity search.
// Search returns at most k results ordered by descending cosine similarity.
type Storage interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float32) error
	Search(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error)
	Clear(ctx context.Context) error
}

// Dropper is implemented by stores backed by an external resource that must
// be removed once no index serves from it.
type Dropper interface {
	Drop(ctx context.Context) error
}

package memory

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync"

	"socialrag/internal/domain"
	"socialrag/internal/vectorstore"
)

// Storage is a simple in-memory vector store using brute-force cosine similarity.
type Storage struct {
	mu        sync.RWMutex
	dimension int
	docs      []domain.Document
	norms     []float64
}

var _ vectorstore.Storage = (*Storage)(nil)

func NewStorage() *Storage { return &Storage{} }

func (s *Storage) Init(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return errors.New("invalid dimension")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	s.docs = nil
	s.norms = nil
	return nil
}

func (s *Storage) Upsert(_ context.Context, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return errors.New("chunks and vectors length mismatch")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, v := range vectors {
		if len(v) != s.dimension {
			return errors.New("vector dimension mismatch")
		}
	}
	for i := range chunks {
		s.docs = append(s.docs, domain.Document{Chunk: chunks[i], Vector: vectors[i]})
		s.norms = append(s.norms, norm(vectors[i]))
	}
	return nil
}

// Search ranks every document by cosine similarity. Equal scores keep
// insertion order.
func (s *Storage) Search(ctx context.Context, vector []float32, k int) ([]domain.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if k <= 0 {
		k = 5
	}
	qn := norm(vector)
	scores := make([]float64, len(s.docs))
	idxs := make([]int, len(s.docs))
	for i := range s.docs {
		idxs[i] = i
		if qn == 0 || s.norms[i] == 0 {
			continue
		}
		scores[i] = dot(s.docs[i].Vector, vector) / (qn * s.norms[i])
	}
	sort.SliceStable(idxs, func(a, b int) bool { return scores[idxs[a]] > scores[idxs[b]] })
	if k > len(idxs) {
		k = len(idxs)
	}
	results := make([]domain.SearchResult, 0, k)
	for _, j := range idxs[:k] {
		results = append(results, domain.SearchResult{Document: s.docs[j], Score: scores[j]})
	}
	return results, nil
}

func (s *Storage) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = nil
	s.norms = nil
	return nil
}

// Len reports the number of stored documents.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func dot(a, b []float32) float64 {
	n := min(len(a), len(b))
	sum := 0.0
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func norm(v []float32) float64 {
	return math.Sqrt(dot(v, v))
}

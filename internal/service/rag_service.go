package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"socialrag/internal/chunker"
	"socialrag/internal/dataset"
	"socialrag/internal/domain"
	"socialrag/internal/embedding"
	"socialrag/internal/index"
	"socialrag/internal/logger"
	"socialrag/internal/metrics"
	"socialrag/internal/retrieval"
	"socialrag/internal/sentiment"
	"socialrag/internal/vectorstore"
)

// Deps wires the service. NewEmbedder and NewStore are called once per build
// so a rebuild never mutates the state an in-flight query is reading; each
// store must therefore be distinct (for Qdrant, its own collection). Stores
// implementing vectorstore.Dropper are dropped when their build fails or is
// replaced.
type Deps struct {
	NewEmbedder func() (embedding.Embedder, error)
	NewStore    func() (vectorstore.Storage, error)
	Summarizer  domain.Summarizer
	Log         *logger.Logger
	Metrics     *metrics.Metrics

	CommentsPath        string
	BatchSize           int
	Concurrency         int
	Quotas              []retrieval.Quota
	TopK                int
	SummaryMaxSentences int
}

type state struct {
	dataset *dataset.Dataset
	chunks  []domain.Chunk
	index   *index.Index
	store   vectorstore.Storage
	health  map[domain.Platform]domain.SentimentHealth
	orch    *retrieval.Orchestrator
	summary string
}

// Service owns the current dataset, its chunks and the index built over them.
type Service struct {
	deps   Deps
	loader *dataset.Loader

	mu  sync.RWMutex
	cur *state
}

var _ domain.RAGService = (*Service)(nil)

func New(deps Deps) (*Service, error) {
	if deps.NewEmbedder == nil || deps.NewStore == nil {
		return nil, errors.New("service needs an embedder and a store factory")
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.TopK <= 0 {
		deps.TopK = retrieval.DefaultK
	}
	return &Service{deps: deps, loader: dataset.NewLoader(deps.Log)}, nil
}

// Ingest loads the given exports and rebuilds everything from them.
func (s *Service) Ingest(ctx context.Context, paths []string) (string, error) {
	ds, err := s.loader.Load(paths...)
	if err != nil {
		return "", err
	}
	return s.Build(ctx, ds)
}

// Build chunks and indexes ds, then swaps it in as the current state. On
// failure the previous state is left untouched.
func (s *Service) Build(ctx context.Context, ds *dataset.Dataset) (string, error) {
	if ds == nil || ds.Len() == 0 {
		return "", dataset.ErrNoRecords
	}
	var (
		opts   []chunker.Option
		health map[domain.Platform]domain.SentimentHealth
	)
	if s.deps.CommentsPath != "" {
		comments, err := sentiment.LoadComments(s.deps.CommentsPath)
		if err != nil {
			return "", fmt.Errorf("load comments: %w", err)
		}
		health = sentiment.Health(comments, ds.PostPlatforms())
		s.deps.Log.Info("computed sentiment health", "comments", len(comments), "platforms", len(health))
		opts = append(opts, chunker.WithSentimentHealth(health))
	}

	chunks, err := chunker.NewBuilder(opts...).BuildAll(ds.Records())
	if err != nil {
		return "", fmt.Errorf("build chunks: %w", err)
	}
	counts := chunker.CountByLevel(chunks)
	s.deps.Metrics.SetChunks(counts)
	s.deps.Log.Debug("built chunks", "total", len(chunks), "by_level", counts)

	emb, err := s.deps.NewEmbedder()
	if err != nil {
		return "", fmt.Errorf("create embedder: %w", err)
	}
	store, err := s.deps.NewStore()
	if err != nil {
		return "", fmt.Errorf("create store: %w", err)
	}
	ix, err := index.Build(ctx, emb, store, chunks, index.Options{
		BatchSize:   s.deps.BatchSize,
		Concurrency: s.deps.Concurrency,
		Log:         s.deps.Log,
		Metrics:     s.deps.Metrics,
	})
	if err != nil {
		s.drop(ctx, store)
		return "", err
	}

	var summary string
	if s.deps.Summarizer != nil {
		if summary, err = s.deps.Summarizer.Summarize(chunks, s.deps.SummaryMaxSentences); err != nil {
			s.drop(ctx, store)
			return "", fmt.Errorf("summarize: %w", err)
		}
	}

	next := &state{
		dataset: ds,
		chunks:  chunks,
		index:   ix,
		store:   store,
		health:  health,
		orch: retrieval.New(ix,
			retrieval.WithQuotas(s.deps.Quotas),
			retrieval.WithLogger(s.deps.Log),
			retrieval.WithMetrics(s.deps.Metrics)),
		summary: summary,
	}
	s.mu.Lock()
	prev := s.cur
	s.cur = next
	s.mu.Unlock()
	if prev != nil && prev.store != store {
		s.drop(ctx, prev.store)
	}
	return summary, nil
}

// Close releases the store of the current build. The service answers no
// queries afterwards.
func (s *Service) Close(ctx context.Context) {
	s.mu.Lock()
	cur := s.cur
	s.cur = nil
	s.mu.Unlock()
	if cur != nil {
		s.drop(ctx, cur.store)
	}
}

// drop removes an externally backed store that no index serves from any more.
func (s *Service) drop(ctx context.Context, store vectorstore.Storage) {
	d, ok := store.(vectorstore.Dropper)
	if !ok {
		return
	}
	if err := d.Drop(context.WithoutCancel(ctx)); err != nil {
		s.deps.Log.Warn("failed to drop retired store", "error", err)
	}
}

// Retrieve runs a quota-diversified search against the current index.
// k <= 0 uses the configured top_k.
func (s *Service) Retrieve(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	cur := s.current()
	if cur == nil {
		return nil, index.ErrNotBuilt
	}
	if k <= 0 {
		k = s.deps.TopK
	}
	return cur.orch.Retrieve(ctx, query, k)
}

// Query is Retrieve without a caller context, for the TUI.
func (s *Service) Query(query string, topK int) ([]domain.SearchResult, error) {
	return s.Retrieve(context.Background(), query, topK)
}

// Chunks returns a copy of the current chunks in build order.
func (s *Service) Chunks() []domain.Chunk {
	cur := s.current()
	if cur == nil {
		return nil
	}
	out := make([]domain.Chunk, len(cur.chunks))
	copy(out, cur.chunks)
	return out
}

func (s *Service) Summary() string {
	if cur := s.current(); cur != nil {
		return cur.summary
	}
	return ""
}

// Dataset returns the dataset behind the current index, or nil.
func (s *Service) Dataset() *dataset.Dataset {
	if cur := s.current(); cur != nil {
		return cur.dataset
	}
	return nil
}

// SentimentHealth returns the current build's audience health by platform
// name; empty when no comments are configured.
func (s *Service) SentimentHealth() []domain.SentimentHealth {
	cur := s.current()
	if cur == nil || len(cur.health) == 0 {
		return nil
	}
	return sentiment.Sorted(cur.health)
}

func (s *Service) current() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

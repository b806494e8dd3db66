// Package index embeds chunks once and answers similarity queries over them.
// An Index is immutable after Build; a changed dataset needs a new Index.
package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"socialrag/internal/domain"
	"socialrag/internal/embedding"
	"socialrag/internal/logger"
	"socialrag/internal/metrics"
	"socialrag/internal/vectorstore"
)

var (
	// ErrNotBuilt is returned when searching before any index exists.
	ErrNotBuilt = errors.New("index not built")
	// ErrEmptyCorpus is returned when Build receives no chunks.
	ErrEmptyCorpus = errors.New("no chunks to index")
	// ErrStoreEmpty is returned when the store answers a built index with no hits.
	ErrStoreEmpty = errors.New("store returned no results")
)

const (
	DefaultBatchSize   = 32
	DefaultConcurrency = 4
)

type Options struct {
	BatchSize   int
	Concurrency int
	Log         *logger.Logger
	Metrics     *metrics.Metrics
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.Log == nil {
		o.Log = logger.Nop()
	}
	return o
}

type Index struct {
	embedder  embedding.Embedder
	store     vectorstore.Storage
	chunks    []domain.Chunk
	dimension int
	log       *logger.Logger
}

// Build prepares the embedder on the chunk texts, embeds them in batches and
// loads the store. Any provider failure aborts the build.
func Build(ctx context.Context, emb embedding.Embedder, store vectorstore.Storage, chunks []domain.Chunk, opts Options) (*Index, error) {
	if len(chunks) == 0 {
		return nil, ErrEmptyCorpus
	}
	opts = opts.withDefaults()
	started := time.Now()

	own := make([]domain.Chunk, len(chunks))
	copy(own, chunks)
	texts := make([]string, len(own))
	for i, c := range own {
		texts[i] = c.Text
	}

	if err := emb.Prepare(texts); err != nil {
		return nil, fmt.Errorf("prepare %s embedder: %w", emb.Name(), err)
	}
	vectors, err := embedAll(ctx, emb, texts, opts)
	if err != nil {
		return nil, err
	}
	dim := len(vectors[0])
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), dim)
		}
	}

	if err := store.Clear(ctx); err != nil {
		return nil, fmt.Errorf("clear store: %w", err)
	}
	if err := store.Init(ctx, dim); err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	if err := store.Upsert(ctx, own, vectors); err != nil {
		return nil, fmt.Errorf("upsert chunks: %w", err)
	}

	elapsed := time.Since(started)
	opts.Metrics.ObserveBuild(elapsed)
	opts.Log.Info("index built", "embedder", emb.Name(), "chunks", len(own), "dimension", dim, "elapsed", elapsed)
	return &Index{embedder: emb, store: store, chunks: own, dimension: dim, log: opts.Log}, nil
}

// embedAll fans batches out under a concurrency limit. Each batch writes
// into its own offset so vector i always belongs to text i.
func embedAll(ctx context.Context, emb embedding.Embedder, texts []string, opts Options) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for offset := 0; offset < len(texts); offset += opts.BatchSize {
		end := min(offset+opts.BatchSize, len(texts))
		g.Go(func() error {
			vecs, err := emb.Embed(gctx, texts[offset:end])
			if err == nil && len(vecs) != end-offset {
				err = fmt.Errorf("got %d vectors for %d texts", len(vecs), end-offset)
			}
			opts.Metrics.EmbedBatch(err)
			if err != nil {
				return fmt.Errorf("embed batch at offset %d: %w", offset, err)
			}
			copy(vectors[offset:end], vecs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// Search embeds the query with the build-time embedder and returns the k
// most similar chunks. Only a query with no representable terms falls back
// to lexical overlap ranking; a store with no hits is an error.
func (ix *Index) Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if ix == nil {
		return nil, ErrNotBuilt
	}
	if k <= 0 {
		k = 5
	}
	vecs, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embed query: got %d vectors", len(vecs))
	}
	if isZero(vecs[0]) {
		ix.log.Debug("query has no known terms, using lexical ranking", "query", query)
		return lexicalSearch(ix.chunks, query, k), nil
	}
	res, err := ix.store.Search(ctx, vecs[0], k)
	if err != nil {
		return nil, fmt.Errorf("search store: %w", err)
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("search store: %w: no results for %d indexed chunks", ErrStoreEmpty, len(ix.chunks))
	}
	return res, nil
}

// Len returns the number of indexed chunks.
func (ix *Index) Len() int {
	if ix == nil {
		return 0
	}
	return len(ix.chunks)
}

func (ix *Index) Dimension() int {
	if ix == nil {
		return 0
	}
	return ix.dimension
}

// Chunks returns a copy of the indexed chunks in build order.
func (ix *Index) Chunks() []domain.Chunk {
	if ix == nil {
		return nil
	}
	out := make([]domain.Chunk, len(ix.chunks))
	copy(out, ix.chunks)
	return out
}

func isZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

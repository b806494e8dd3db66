// Package chunker renders enriched posts into retrievable chunks at six
// resolution levels, from single posts up to dataset-wide strategy.
package chunker

import (
	"golang.org/x/sync/errgroup"

	"socialrag/internal/domain"
	"socialrag/internal/enrich"
)

// Post is a record paired with its enrichment.
type Post struct {
	Record domain.Record
	Meta   domain.Metadata
}

// Builder builds chunks for every level from the full record set.
type Builder struct {
	health map[domain.Platform]domain.SentimentHealth
}

var _ domain.ChunkBuilder = (*Builder)(nil)

// Option configures a Builder.
type Option func(*Builder)

// WithSentimentHealth adds audience sentiment health to platform overviews.
func WithSentimentHealth(health map[domain.Platform]domain.SentimentHealth) Option {
	return func(b *Builder) { b.health = health }
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{}
	for _, o := range opts {
		o(b)
	}
	return b
}

// BuildAll enriches records and returns the chunks of all six levels,
// concatenated in level order. Empty input yields no chunks.
func (b *Builder) BuildAll(records []domain.Record) ([]domain.Chunk, error) {
	if len(records) == 0 {
		return nil, nil
	}
	posts := EnrichPosts(records)

	builders := []func([]Post) []domain.Chunk{
		BuildPosts,
		BuildDaily,
		BuildMonthly,
		func(p []Post) []domain.Chunk { return BuildPlatforms(p, b.health) },
		BuildCrossPlatform,
		BuildStrategic,
	}
	levels := make([][]domain.Chunk, len(builders))
	var g errgroup.Group
	for i, build := range builders {
		g.Go(func() error {
			levels[i] = build(posts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int
	for _, l := range levels {
		total += len(l)
	}
	out := make([]domain.Chunk, 0, total)
	for _, l := range levels {
		out = append(out, l...)
	}
	return out, nil
}

// EnrichPosts pairs every record with its metadata, preserving order.
func EnrichPosts(records []domain.Record) []Post {
	metas := enrich.NewEnricher(records).EnrichAll(records)
	posts := make([]Post, len(records))
	for i := range records {
		posts[i] = Post{Record: records[i], Meta: metas[i]}
	}
	return posts
}

// CountByLevel tallies chunks per level.
func CountByLevel(chunks []domain.Chunk) map[int]int {
	out := make(map[int]int, domain.LevelStrategic)
	for _, c := range chunks {
		out[c.Level]++
	}
	return out
}

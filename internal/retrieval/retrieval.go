// Package retrieval turns a flat similarity ranking into a bounded mixture
// of chunks across resolution levels.
package retrieval

import (
	"context"
	"fmt"

	"socialrag/internal/domain"
	"socialrag/internal/logger"
	"socialrag/internal/metrics"
)

const DefaultK = 10

// Searcher is the similarity source, typically an *index.Index.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]domain.SearchResult, error)
}

// Quota caps how many results a level may contribute.
type Quota struct {
	Level int `yaml:"level" json:"level"`
	Max   int `yaml:"max" json:"max"`
}

// DefaultQuotas is the priority order and size of each level's slots.
// Strategic chunks have no default slot.
func DefaultQuotas() []Quota {
	return []Quota{
		{Level: domain.LevelCrossPlatform, Max: 1},
		{Level: domain.LevelPlatform, Max: 2},
		{Level: domain.LevelMonthly, Max: 2},
		{Level: domain.LevelDaily, Max: 2},
		{Level: domain.LevelPost, Max: 3},
	}
}

// Orchestrator applies quota diversification to similarity results.
type Orchestrator struct {
	searcher Searcher
	quotas   []Quota
	log      *logger.Logger
	metrics  *metrics.Metrics
}

var _ domain.Retriever = (*Orchestrator)(nil)

type Option func(*Orchestrator)

func WithQuotas(q []Quota) Option {
	return func(o *Orchestrator) {
		if len(q) > 0 {
			o.quotas = append([]Quota(nil), q...)
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func New(s Searcher, opts ...Option) *Orchestrator {
	o := &Orchestrator{searcher: s, quotas: DefaultQuotas(), log: logger.Nop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Capacity is the sum of all quota slots.
func (o *Orchestrator) Capacity() int {
	n := 0
	for _, q := range o.quotas {
		n += max(q.Max, 0)
	}
	return n
}

// Retrieve searches with k (DefaultK when k <= 0) and fills level quotas in
// priority order, keeping similarity order within a level. Unused slots are
// left empty; other levels never backfill them. At most min(k, Capacity())
// results are returned.
func (o *Orchestrator) Retrieve(ctx context.Context, query string, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		k = DefaultK
	}
	hits, err := o.searcher.Search(ctx, query, k)
	if err != nil {
		o.metrics.ObserveRetrieval(nil, err)
		return nil, fmt.Errorf("retrieve: %w", err)
	}
	out := Diversify(hits, o.quotas, k)
	o.metrics.ObserveRetrieval(out, nil)
	o.log.Debug("retrieved", "query", query, "hits", len(hits), "results", len(out))
	return out, nil
}

// Diversify applies quotas to hits already ordered by similarity.
func Diversify(hits []domain.SearchResult, quotas []Quota, limit int) []domain.SearchResult {
	byLevel := make(map[int][]domain.SearchResult)
	for _, h := range hits {
		byLevel[h.Level()] = append(byLevel[h.Level()], h)
	}
	out := make([]domain.SearchResult, 0, limit)
	for _, q := range quotas {
		for i, h := range byLevel[q.Level] {
			if i >= q.Max || len(out) >= limit {
				break
			}
			out = append(out, h)
		}
		// A level listed twice only gets its first quota.
		delete(byLevel, q.Level)
	}
	return out
}

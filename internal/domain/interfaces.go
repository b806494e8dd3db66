package domain

import "context"

// ChunkBuilder turns the full record set into chunks at every level.
type ChunkBuilder interface {
	BuildAll(records []Record) ([]Chunk, error)
}

// Summarizer produces a brief headline from built chunks.
type Summarizer interface {
	Summarize(chunks []Chunk, maxSentences int) (string, error)
}

// Retriever answers a query with a level-diversified result set.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]SearchResult, error)
}

// RAGService defines the operations exposed by the application core.
type RAGService interface {
	Ingest(ctx context.Context, paths []string) (summary string, err error)
	Query(query string, topK int) ([]SearchResult, error)
}

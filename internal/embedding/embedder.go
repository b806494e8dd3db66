package embedding

import (
	"context"
	"errors"
)

// ErrNoTexts is returned when Embed is called without input.
var ErrNoTexts = errors.New("no texts to embed")

// Embedder converts free text into numeric vectors.
// Implementations may require a preparation phase over the corpus.
// Embed returns exactly one vector per text, in input order.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

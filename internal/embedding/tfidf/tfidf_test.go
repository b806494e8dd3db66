package tfidf

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialrag/internal/embedding"
)

var corpus = []string{
	"Instagram reels drive the best engagement rate",
	"Twitter threads get more replies in the morning",
	"LinkedIn carousel posts earn saves from professionals",
}

func TestEmbedder_NotPrepared(t *testing.T) {
	_, err := NewEmbedder().Embed(context.Background(), []string{"x"})
	assert.Error(t, err)
}

func TestEmbedder_PrepareEmpty(t *testing.T) {
	assert.Error(t, NewEmbedder().Prepare(nil))
	assert.Error(t, NewEmbedder().Prepare([]string{"the and of"}))
}

func TestEmbedder_Embed(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare(corpus))
	assert.Equal(t, "tfidf", e.Name())
	assert.Greater(t, e.Dimension(), 10)

	vecs, err := e.Embed(context.Background(), []string{corpus[0], "instagram engagement", "qwerty"})
	require.NoError(t, err)
	require.Len(t, vecs, 3)

	for _, v := range vecs[:2] {
		assert.Len(t, v, e.Dimension())
		norm := 0.0
		for _, x := range v {
			norm += float64(x) * float64(x)
		}
		assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
	}
	for _, x := range vecs[2] {
		assert.Zero(t, x, "unknown terms give the zero vector")
	}
}

func TestEmbedder_Deterministic(t *testing.T) {
	a, b := NewEmbedder(), NewEmbedder()
	require.NoError(t, a.Prepare(corpus))
	require.NoError(t, b.Prepare(corpus))
	va, err := a.Embed(context.Background(), corpus)
	require.NoError(t, err)
	vb, err := b.Embed(context.Background(), corpus)
	require.NoError(t, err)
	assert.Equal(t, va, vb)
}

func TestEmbedder_NoTexts(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare(corpus))
	_, err := e.Embed(context.Background(), nil)
	assert.ErrorIs(t, err, embedding.ErrNoTexts)
}

func TestEmbedder_Canceled(t *testing.T) {
	e := NewEmbedder()
	require.NoError(t, e.Prepare(corpus))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Embed(ctx, corpus)
	assert.ErrorIs(t, err, context.Canceled)
}

package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialrag/internal/domain"
)

func chunks(ids ...string) []domain.Chunk {
	out := make([]domain.Chunk, len(ids))
	for i, id := range ids {
		out[i] = domain.Chunk{ID: id, Level: domain.LevelPost, Text: id}
	}
	return out
}

func TestStorage_SearchCosine(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.Init(ctx, 2))
	require.NoError(t, s.Upsert(ctx, chunks("x", "y", "diag", "zero"), [][]float32{{1, 0}, {0, 3}, {2, 2}, {0, 0}}))
	assert.Equal(t, 4, s.Len())

	res, err := s.Search(ctx, []float32{5, 0}, 3)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, "x", res[0].Document.ID)
	assert.InDelta(t, 1.0, res[0].Score, 1e-9)
	assert.Equal(t, "diag", res[1].Document.ID)
	assert.InDelta(t, 0.7071, res[1].Score, 1e-4)
	assert.Equal(t, []float32{1, 0}, res[0].Document.Vector)
}

func TestStorage_StableTies(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.Init(ctx, 1))
	require.NoError(t, s.Upsert(ctx, chunks("a", "b", "c"), [][]float32{{1}, {1}, {1}}))
	res, err := s.Search(ctx, []float32{1}, 10)
	require.NoError(t, err)
	require.Len(t, res, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{res[0].Document.ID, res[1].Document.ID, res[2].Document.ID})
}

func TestStorage_Errors(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	assert.Error(t, s.Init(ctx, 0))
	require.NoError(t, s.Init(ctx, 2))
	assert.Error(t, s.Upsert(ctx, chunks("a"), nil))
	assert.Error(t, s.Upsert(ctx, chunks("a"), [][]float32{{1, 2, 3}}))
}

func TestStorage_Clear(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	require.NoError(t, s.Init(ctx, 1))
	require.NoError(t, s.Upsert(ctx, chunks("a"), [][]float32{{1}}))
	require.NoError(t, s.Clear(ctx))
	res, err := s.Search(ctx, []float32{1}, 5)
	require.NoError(t, err)
	assert.Empty(t, res)
}

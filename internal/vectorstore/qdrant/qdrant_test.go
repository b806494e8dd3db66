package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialrag/internal/domain"
)

func TestPointID_StableUUID(t *testing.T) {
	a := PointID("platform:Instagram")
	assert.Equal(t, a, PointID("platform:Instagram"))
	assert.NotEqual(t, a, PointID("platform:Twitter"))
	_, err := uuid.Parse(a)
	assert.NoError(t, err)
}

func TestStorage_RoundTrip(t *testing.T) {
	var upserted struct {
		Points []point `json:"points"`
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/collections/posts", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("api-key"))
		switch r.Method {
		case http.MethodPut:
			var body map[string]map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Cosine", body["vectors"]["distance"])
			assert.EqualValues(t, 3, body["vectors"]["size"])
		case http.MethodDelete:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	mux.HandleFunc("/collections/posts/points", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "true", r.URL.Query().Get("wait"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&upserted))
	})
	mux.HandleFunc("/collections/posts/points/search", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Limit int `json:"limit"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 2, req.Limit)
		p := upserted.Points[0].Payload
		_ = json.NewEncoder(w).Encode(map[string]any{
			"result": []map[string]any{{"id": upserted.Points[0].ID, "score": 0.91, "payload": p}},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ctx := context.Background()
	s := NewStorage(Config{URL: srv.URL, APIKey: "secret", Collection: "posts"})
	require.NoError(t, s.Clear(ctx), "missing collection is fine")
	require.NoError(t, s.Init(ctx, 3))

	chunk := domain.Chunk{
		ID:    "cross_platform",
		Level: domain.LevelCrossPlatform,
		Text:  "Best performing platform: Instagram",
		Metadata: domain.ChunkMetadata{
			ChunkID:          "cross_platform",
			ChunkLevel:       domain.LevelCrossPlatform,
			PlatformRankings: []domain.PlatformStat{{Rank: 1, Platform: domain.PlatformInstagram, AvgEngagementRate: 5}},
		},
	}
	require.NoError(t, s.Upsert(ctx, []domain.Chunk{chunk}, [][]float32{{1, 0, 0}}))
	require.Len(t, upserted.Points, 1)
	assert.Equal(t, PointID("cross_platform"), upserted.Points[0].ID)

	res, err := s.Search(ctx, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, chunk, res[0].Document.Chunk)
	assert.InDelta(t, 0.91, res[0].Score, 1e-9)
}

func TestStorage_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	s := NewStorage(Config{URL: srv.URL, Collection: "posts"})
	_, err := s.Search(context.Background(), []float32{1}, 1)
	assert.ErrorContains(t, err, "500")
	assert.Error(t, s.Clear(context.Background()))
}

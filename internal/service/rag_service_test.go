package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialrag/internal/dataset"
	"socialrag/internal/domain"
	"socialrag/internal/embedding"
	"socialrag/internal/embedding/tfidf"
	"socialrag/internal/index"
	"socialrag/internal/metrics"
	"socialrag/internal/summarizer"
	"socialrag/internal/vectorstore"
	"socialrag/internal/vectorstore/memory"
)

var rates = map[domain.Platform]float64{
	domain.PlatformInstagram: 6,
	domain.PlatformTwitter:   2,
	domain.PlatformFacebook:  3,
	domain.PlatformLinkedIn:  4,
}

func records(n int) []domain.Record {
	out := make([]domain.Record, 0, n)
	for i := 0; i < n; i++ {
		p := domain.KnownPlatforms[i%4]
		out = append(out, domain.Record{
			PostID:         fmt.Sprintf("p%02d", i),
			Platform:       p,
			PostType:       "Image",
			MediaType:      "photo",
			Content:        "New product drop, shop now",
			PostedDate:     fmt.Sprintf("%02d-0%d-2024", 1+i%28, 1+i%3),
			PostedTime:     "18:00",
			Impressions:    1000,
			Reach:          800,
			Likes:          40,
			Comments:       4,
			Shares:         2,
			Saves:          1,
			EngagementRate: rates[p],
		})
	}
	return out
}

func newService(t *testing.T, mutate func(*Deps)) *Service {
	t.Helper()
	deps := Deps{
		NewEmbedder:         func() (embedding.Embedder, error) { return tfidf.NewEmbedder(), nil },
		NewStore:            func() (vectorstore.Storage, error) { return memory.NewStorage(), nil },
		Summarizer:          summarizer.NewFrequencySummarizer(),
		Metrics:             metrics.New(),
		SummaryMaxSentences: 2,
	}
	if mutate != nil {
		mutate(&deps)
	}
	svc, err := New(deps)
	require.NoError(t, err)
	return svc
}

func TestNew_RequiresFactories(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)
}

func TestRetrieve_BeforeBuild(t *testing.T) {
	svc := newService(t, nil)
	_, err := svc.Query("anything", 5)
	assert.ErrorIs(t, err, index.ErrNotBuilt)
	assert.Nil(t, svc.Chunks())
	assert.Empty(t, svc.Summary())
}

func TestBuild_BestPlatformQuery(t *testing.T) {
	svc := newService(t, nil)
	summary, err := svc.Build(context.Background(), dataset.New(records(40)))
	require.NoError(t, err)
	assert.NotEmpty(t, summary)
	assert.Equal(t, summary, svc.Summary())

	chunks := svc.Chunks()
	res, err := svc.Retrieve(context.Background(), "best performing platform", len(chunks))
	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.Equal(t, domain.LevelCrossPlatform, res[0].Level())
	assert.Contains(t, res[0].Document.Text, "Best performing platform: Instagram")
	assert.LessOrEqual(t, len(res), 10)
}

func TestChunks_IsACopy(t *testing.T) {
	svc := newService(t, nil)
	_, err := svc.Build(context.Background(), dataset.New(records(8)))
	require.NoError(t, err)
	got := svc.Chunks()
	got[0].Text = "mutated"
	assert.NotEqual(t, "mutated", svc.Chunks()[0].Text)
}

func TestBuild_FailureKeepsPreviousState(t *testing.T) {
	fail := false
	svc := newService(t, func(d *Deps) {
		d.NewStore = func() (vectorstore.Storage, error) {
			if fail {
				return nil, errors.New("store unavailable")
			}
			return memory.NewStorage(), nil
		}
	})
	_, err := svc.Build(context.Background(), dataset.New(records(8)))
	require.NoError(t, err)
	before := len(svc.Chunks())

	fail = true
	_, err = svc.Build(context.Background(), dataset.New(records(40)))
	require.ErrorContains(t, err, "store unavailable")
	assert.Len(t, svc.Chunks(), before)
	assert.Equal(t, 8, svc.Dataset().Len())
}

func TestBuild_EmptyDataset(t *testing.T) {
	_, err := newService(t, nil).Build(context.Background(), dataset.New(nil))
	assert.ErrorIs(t, err, dataset.ErrNoRecords)
}

func TestIngest_WithComments(t *testing.T) {
	dir := t.TempDir()
	var b strings.Builder
	b.WriteString("post_id,platform,posted_date,posted_time,impressions,reach,likes,comments,shares,saves,engagement_rate,content\n")
	for _, r := range records(12) {
		fmt.Fprintf(&b, "%s,%s,%s,%s,1000,800,40,4,2,1,%.1f,%s\n", r.PostID, r.Platform, r.PostedDate, r.PostedTime, r.EngagementRate, r.Content)
	}
	posts := filepath.Join(dir, "posts.csv")
	require.NoError(t, os.WriteFile(posts, []byte(b.String()), 0o644))
	comments := filepath.Join(dir, "comments.csv")
	require.NoError(t, os.WriteFile(comments, []byte("comment_id,post_id,label\nc1,p00,LABEL_2\nc2,p04,positive\nc3,p08,LABEL_0\n"), 0o644))

	svc := newService(t, func(d *Deps) { d.CommentsPath = comments })
	_, err := svc.Ingest(context.Background(), []string{posts})
	require.NoError(t, err)
	assert.Equal(t, 12, svc.Dataset().Len())

	var overview *domain.Chunk
	for _, c := range svc.Chunks() {
		if c.ID == "platform:Instagram" {
			overview = &c
			break
		}
	}
	require.NotNil(t, overview)
	require.NotNil(t, overview.Metadata.SentimentHealth)
	assert.Equal(t, 3, overview.Metadata.SentimentHealth.TotalComments)
	assert.InDelta(t, 66.67, overview.Metadata.SentimentHealth.HealthScore, 0.01)
	assert.Contains(t, overview.Text, "Audience sentiment health")
}

func TestRetrieve_ConcurrentWithRebuild(t *testing.T) {
	svc := newService(t, nil)
	_, err := svc.Build(context.Background(), dataset.New(records(20)))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				_, err := svc.Query("engagement on instagram", 10)
				assert.NoError(t, err)
			}
		}()
	}
	_, err = svc.Build(context.Background(), dataset.New(records(40)))
	require.NoError(t, err)
	wg.Wait()
}

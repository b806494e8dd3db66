package chunker

import (
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialrag/internal/domain"
)

var baseRates = map[domain.Platform]float64{
	domain.PlatformInstagram: 6,
	domain.PlatformTwitter:   2,
	domain.PlatformFacebook:  3,
	domain.PlatformLinkedIn:  4,
}

// scenario returns 150 posts over four platforms spread across Jan-Mar 2024.
func scenario() []domain.Record {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	captions := []string{
		"Shop the new collection today #launch",
		"Behind the scenes with our team",
		"5 tips to learn faster, a quick guide",
		"Huge sale this weekend, limited time offer",
		"Tell us what you think in the comments",
	}
	recs := make([]domain.Record, 0, 150)
	for i := 0; i < 150; i++ {
		p := domain.KnownPlatforms[i%4]
		day := start.AddDate(0, 0, i*90/150)
		recs = append(recs, domain.Record{
			PostID:         fmt.Sprintf("%s-%03d", strings.ToLower(string(p)[:2]), i),
			Platform:       p,
			PostType:       []string{"Reel", "Image", "Carousel"}[i%3],
			MediaType:      []string{"video", "photo"}[i%2],
			Content:        captions[i%len(captions)],
			PostedDate:     day.Format("02-01-2006"),
			PostedTime:     fmt.Sprintf("%02d:00", 8+i%12),
			Impressions:    float64(1000 + 10*i),
			Reach:          float64(800 + 5*i),
			Likes:          float64(40 + i%7),
			Comments:       float64(i % 5),
			Shares:         float64(i % 3),
			Saves:          float64(i % 4),
			EngagementRate: baseRates[p] + float64(i%5)*0.1,
		})
	}
	return recs
}

func byLevel(chunks []domain.Chunk, level int) []domain.Chunk {
	var out []domain.Chunk
	for _, c := range chunks {
		if c.Level == level {
			out = append(out, c)
		}
	}
	return out
}

func TestBuildAll_Scenario(t *testing.T) {
	recs := scenario()
	chunks, err := NewBuilder().BuildAll(recs)
	require.NoError(t, err)

	days := map[string]bool{}
	months := map[string]bool{}
	for _, r := range recs {
		days[string(r.Platform)+r.PostedDate] = true
		months[string(r.Platform)+r.PostedDate[3:]] = true
	}
	counts := CountByLevel(chunks)
	assert.Equal(t, 150, counts[domain.LevelPost])
	assert.Equal(t, len(days), counts[domain.LevelDaily])
	assert.Equal(t, len(months), counts[domain.LevelMonthly])
	assert.Equal(t, 12, counts[domain.LevelMonthly])
	assert.Equal(t, 4, counts[domain.LevelPlatform])
	assert.Equal(t, 1, counts[domain.LevelCrossPlatform])
	assert.Equal(t, 1, counts[domain.LevelStrategic])

	for i := 1; i < len(chunks); i++ {
		assert.LessOrEqual(t, chunks[i-1].Level, chunks[i].Level, "chunks are in level order")
	}

	cross := byLevel(chunks, domain.LevelCrossPlatform)[0]
	order := []domain.Platform{domain.PlatformInstagram, domain.PlatformLinkedIn, domain.PlatformFacebook, domain.PlatformTwitter}
	last := -1
	for rank, p := range order {
		idx := strings.Index(cross.Text, fmt.Sprintf("%d. %s", rank+1, p))
		require.Greater(t, idx, last, "platform %s ranked %d", p, rank+1)
		last = idx
	}
	require.Len(t, cross.Metadata.PlatformRankings, 4)
	assert.Equal(t, domain.PlatformInstagram, cross.Metadata.PlatformRankings[0].Platform)
	assert.Contains(t, cross.Text, "Best performing platform: Instagram")
}

func TestBuildAll_Deterministic(t *testing.T) {
	recs := scenario()
	a, err := NewBuilder().BuildAll(recs)
	require.NoError(t, err)
	b, err := NewBuilder().BuildAll(recs)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBuildAll_Empty(t *testing.T) {
	chunks, err := NewBuilder().BuildAll(nil)
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestBuildAll_SingleRecord(t *testing.T) {
	recs := []domain.Record{{PostID: "only", Platform: domain.PlatformFacebook, PostedDate: "03-02-2024", Likes: 3, Reach: 100, EngagementRate: 3}}
	chunks, err := NewBuilder().BuildAll(recs)
	require.NoError(t, err)
	require.Len(t, chunks, 6)
	post := chunks[0]
	assert.Equal(t, "post:only", post.ID)
	require.NotNil(t, post.Metadata.Post)
	assert.Nil(t, post.Metadata.Post.Contextual)
}

func TestBuildDaily_BestMemberFirstWinsTies(t *testing.T) {
	recs := []domain.Record{
		{PostID: "a", Platform: domain.PlatformTwitter, PostedDate: "01-01-2024", EngagementRate: 2},
		{PostID: "b", Platform: domain.PlatformTwitter, PostedDate: "01-01-2024", EngagementRate: 5},
		{PostID: "c", Platform: domain.PlatformTwitter, PostedDate: "01-01-2024", EngagementRate: 5},
	}
	daily := BuildDaily(EnrichPosts(recs))
	require.Len(t, daily, 1)
	assert.Equal(t, "daily:Twitter:2024-01-01", daily[0].ID)
	assert.Equal(t, "b", daily[0].Metadata.BestPostID)
	assert.InDelta(t, 4.0, daily[0].Metadata.AvgEngagementRate, 1e-9)
	assert.Less(t, strings.Index(daily[0].Text, "a (unspecified"), strings.Index(daily[0].Text, "c (unspecified"), "members listed in input order")
}

func TestBuildMonthly_GroupsUnknownDates(t *testing.T) {
	recs := []domain.Record{
		{PostID: "x", Platform: domain.PlatformLinkedIn, PostedDate: "garbage"},
		{PostID: "y", Platform: domain.PlatformLinkedIn},
	}
	monthly := BuildMonthly(EnrichPosts(recs))
	require.Len(t, monthly, 1)
	assert.Equal(t, "monthly:LinkedIn:unknown", monthly[0].ID)
	assert.Equal(t, 2, monthly[0].Metadata.PostCount)

	daily := BuildDaily(EnrichPosts(recs))
	assert.Len(t, daily, 2, "raw date strings keep distinct daily groups")
}

func TestBuild_NaNSafe(t *testing.T) {
	recs := []domain.Record{
		{PostID: "n1", Platform: domain.PlatformInstagram, PostedDate: "01-01-2024", EngagementRate: math.NaN(), Reach: math.Inf(1)},
		{PostID: "n2", Platform: domain.PlatformInstagram, PostedDate: "01-01-2024"},
	}
	chunks, err := NewBuilder().BuildAll(recs)
	require.NoError(t, err)
	for _, c := range chunks {
		assert.False(t, math.IsNaN(c.Metadata.AvgEngagementRate), c.ID)
		assert.False(t, math.IsNaN(c.Metadata.AvgReach), c.ID)
		assert.NotContains(t, c.Text, "NaN", c.ID)
	}
}

func TestBuildPosts_DuplicateAndBlankIDs(t *testing.T) {
	recs := []domain.Record{{PostID: "dup"}, {PostID: "dup"}, {}}
	posts := BuildPosts(EnrichPosts(recs))
	require.Len(t, posts, 3)
	assert.Equal(t, "post:dup", posts[0].ID)
	assert.Equal(t, "post:dup#1", posts[1].ID)
	assert.Equal(t, "post:#2", posts[2].ID)
}

func TestBuildPlatforms_SentimentHealth(t *testing.T) {
	recs := scenario()[:8]
	health := map[domain.Platform]domain.SentimentHealth{
		domain.PlatformInstagram: {Platform: domain.PlatformInstagram, HealthScore: 72.5, Positive: 60, Neutral: 25, Negative: 15, TotalComments: 200},
	}
	chunks := BuildPlatforms(EnrichPosts(recs), health)
	require.Len(t, chunks, 4)
	assert.Equal(t, "platform:Instagram", chunks[0].ID)
	require.NotNil(t, chunks[0].Metadata.SentimentHealth)
	assert.Contains(t, chunks[0].Text, "Audience sentiment health 72.5/100 from 200 comments")
	assert.Nil(t, chunks[1].Metadata.SentimentHealth)
}

func TestBuildStrategic_ThemeRanking(t *testing.T) {
	recs := []domain.Record{
		{PostID: "s1", Platform: domain.PlatformInstagram, Content: "Huge sale today", EngagementRate: 2},
		{PostID: "s2", Platform: domain.PlatformInstagram, Content: "Behind the scenes with our team", EngagementRate: 8},
		{PostID: "s3", Platform: domain.PlatformTwitter, Content: "Shop the sale now", EngagementRate: 4},
	}
	chunks := BuildStrategic(EnrichPosts(recs))
	require.Len(t, chunks, 1)
	themes := chunks[0].Metadata.ThemeRankings
	require.NotEmpty(t, themes)
	assert.Equal(t, "behind_the_scenes", themes[0].Theme)
	assert.Equal(t, 1, themes[0].Rank)
	assert.Contains(t, chunks[0].Text, "Top content theme: behind the scenes.")
	assert.Contains(t, chunks[0].Text, "Posts with a call to action average 4.00% (1 posts) versus 5.00% without (2 posts).")
}

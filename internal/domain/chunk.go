package domain

// Resolution levels, finest first.
const (
	LevelPost          = 1
	LevelDaily         = 2
	LevelMonthly       = 3
	LevelPlatform      = 4
	LevelCrossPlatform = 5
	LevelStrategic     = 6
)

// LevelName returns the chunk_type label of a level.
func LevelName(level int) string {
	switch level {
	case LevelPost:
		return "post"
	case LevelDaily:
		return "daily_summary"
	case LevelMonthly:
		return "monthly_summary"
	case LevelPlatform:
		return "platform_overview"
	case LevelCrossPlatform:
		return "cross_platform_comparison"
	case LevelStrategic:
		return "strategic_insight"
	default:
		return "unknown"
	}
}

// PlatformStat is one row of the cross-platform ranking.
type PlatformStat struct {
	Rank              int      `json:"rank"`
	Platform          Platform `json:"platform"`
	PostCount         int      `json:"post_count"`
	AvgEngagementRate float64  `json:"avg_engagement_rate"`
	TotalEngagement   float64  `json:"total_engagement"`
	TotalReach        float64  `json:"total_reach"`
}

// ThemeStat is one row of the strategic theme ranking.
type ThemeStat struct {
	Rank              int     `json:"rank"`
	Theme             string  `json:"theme"`
	PostCount         int     `json:"post_count"`
	AvgEngagementRate float64 `json:"avg_engagement_rate"`
}

// SentimentHealth summarises labelled audience comments for a platform.
type SentimentHealth struct {
	Platform      Platform `json:"platform"`
	HealthScore   float64  `json:"health_score"`
	Positive      float64  `json:"positive"`
	Neutral       float64  `json:"neutral"`
	Negative      float64  `json:"negative"`
	TotalComments int      `json:"total_comments"`
}

// ChunkMetadata is the structured side of a chunk. Field names are parsed by
// key downstream and must stay stable.
type ChunkMetadata struct {
	ChunkID            string           `json:"chunk_id"`
	ChunkLevel         int              `json:"chunk_level"`
	ChunkType          string           `json:"chunk_type"`
	Platform           Platform         `json:"platform,omitempty"`
	Date               string           `json:"date,omitempty"`
	YearMonth          string           `json:"year_month,omitempty"`
	PostID             string           `json:"post_id,omitempty"`
	PostCount          int              `json:"post_count"`
	TotalImpressions   float64          `json:"total_impressions"`
	TotalReach         float64          `json:"total_reach"`
	TotalEngagement    float64          `json:"total_engagement"`
	TotalLikes         float64          `json:"total_likes"`
	TotalComments      float64          `json:"total_comments"`
	TotalShares        float64          `json:"total_shares"`
	TotalSaves         float64          `json:"total_saves"`
	AvgEngagementRate  float64          `json:"avg_engagement_rate"`
	AvgReach           float64          `json:"avg_reach"`
	BestPostID         string           `json:"best_post_id,omitempty"`
	BestEngagementRate float64          `json:"best_engagement_rate,omitempty"`
	StartDate          string           `json:"start_date,omitempty"`
	EndDate            string           `json:"end_date,omitempty"`
	PlatformRankings   []PlatformStat   `json:"platform_rankings,omitempty"`
	ThemeRankings      []ThemeStat      `json:"theme_rankings,omitempty"`
	SentimentHealth    *SentimentHealth `json:"sentiment_health,omitempty"`
	Post               *Metadata        `json:"post,omitempty"`
}

// Chunk is one retrievable unit at a single resolution level.
type Chunk struct {
	ID       string        `json:"id"`
	Level    int           `json:"level"`
	Text     string        `json:"text"`
	Metadata ChunkMetadata `json:"metadata"`
}

// Document is a chunk prepared for indexing; Vector is set once embedded.
type Document struct {
	Chunk
	Vector []float32 `json:"-"`
}

// SearchResult represents a matching document with a similarity score.
type SearchResult struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}

// Level is a shorthand for the result's resolution level.
func (r SearchResult) Level() int { return r.Document.Level }

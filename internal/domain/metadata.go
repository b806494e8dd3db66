package domain

import (
	"bytes"
	"encoding/json"
)

// Identity is tier 1 of the derived metadata.
type Identity struct {
	Platform       Platform `json:"platform"`
	PostType       string   `json:"post_type"`
	MediaType      string   `json:"media_type"`
	ContentSnippet string   `json:"content_snippet"`
	HasHashtags    bool     `json:"has_hashtags"`
	HasMentions    bool     `json:"has_mentions"`
}

// Temporal is tier 2.
type Temporal struct {
	Date      string `json:"date"`
	DateValid bool   `json:"date_valid"`
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	MonthName string `json:"month_name"`
	Day       int    `json:"day"`
	Quarter   int    `json:"quarter"`
	YearMonth string `json:"year_month"`
	DayOfWeek string `json:"day_of_week"`
	IsWeekend bool   `json:"is_weekend"`
	Hour      int    `json:"hour"`
	TimeOfDay string `json:"time_of_day"`
}

// Performance is tier 3. All ratios are percentages.
type Performance struct {
	Impressions     float64 `json:"impressions"`
	Reach           float64 `json:"reach"`
	Likes           float64 `json:"likes"`
	Comments        float64 `json:"comments"`
	Shares          float64 `json:"shares"`
	Saves           float64 `json:"saves"`
	TotalEngagement float64 `json:"total_engagement"`
	EngagementRate  float64 `json:"engagement_rate"`
	ReachRate       float64 `json:"reach_rate"`
	ViralityRate    float64 `json:"virality_rate"`
	SaveRate        float64 `json:"save_rate"`
	CommentRate     float64 `json:"comment_rate"`
	LikeShare       float64 `json:"like_share"`
	CommentShare    float64 `json:"comment_share"`
	ShareShare      float64 `json:"share_share"`
	SaveShare       float64 `json:"save_share"`
}

// Content is tier 4.
type Content struct {
	LengthCategory string   `json:"length_category"`
	CharCount      int      `json:"char_count"`
	WordCount      int      `json:"word_count"`
	HashtagCount   int      `json:"hashtag_count"`
	MentionCount   int      `json:"mention_count"`
	Hashtags       []string `json:"hashtags"`
	Themes         []string `json:"themes"`
	HasCTA         bool     `json:"has_cta"`
}

// Contextual is tier 5, relative to the record's platform.
type Contextual struct {
	PlatformAvgEngagementRate float64 `json:"platform_avg_engagement_rate"`
	PercentileRank            float64 `json:"percentile_rank"`
	VsPlatformAvg             float64 `json:"vs_platform_avg"`
	PerformanceCategory       string  `json:"performance_category"`
	ViralScore                float64 `json:"viral_score"`
	IsTop10Percent            bool    `json:"is_top_10_percent"`
	IsBottom10Percent         bool    `json:"is_bottom_10_percent"`
}

// Trend is tier 6, against the trailing 30-day platform window.
type Trend struct {
	RollingAvgEngagementRate float64 `json:"rolling_avg_engagement_rate"`
	PriorPostCount           int     `json:"prior_post_count"`
	VsTrend                  float64 `json:"vs_trend"`
	TrendDirection           string  `json:"trend_direction"`
	TrendStrength            float64 `json:"trend_strength"`
	Momentum                 string  `json:"momentum"`
}

// CrossPlatform is tier 7.
type CrossPlatform struct {
	PlatformAverages map[Platform]float64 `json:"platform_averages"`
	PlatformRank     int                  `json:"platform_rank"`
	TotalPlatforms   int                  `json:"total_platforms"`
	BestPlatform     Platform             `json:"best_platform"`
	BestPlatformRate float64              `json:"best_platform_rate"`
	GapVsBest        float64              `json:"gap_vs_best"`
}

// Flags is tier 8.
type Flags struct {
	Tags              []string `json:"tags"`
	Recommendations   []string `json:"recommendations"`
	RequiresAttention bool     `json:"requires_attention"`
}

// Metadata is the full eight-tier enrichment of one record. Tiers 5 to 8 are
// nil when the dataset holds fewer than two records.
type Metadata struct {
	PostID        string         `json:"post_id"`
	Identity      Identity       `json:"identity"`
	Temporal      Temporal       `json:"temporal"`
	Performance   Performance    `json:"performance"`
	Content       Content        `json:"content"`
	Contextual    *Contextual    `json:"contextual"`
	Trend         *Trend         `json:"trend"`
	CrossPlatform *CrossPlatform `json:"cross_platform"`
	Flags         *Flags         `json:"flags"`
}

// Comparative reports whether the dataset-relative tiers were computed.
func (m Metadata) Comparative() bool {
	return m.Contextual != nil
}

// HasTag reports whether tier 8 carries the given tag.
func (m Metadata) HasTag(tag string) bool {
	if m.Flags == nil {
		return false
	}
	for _, t := range m.Flags.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// MarshalJSON renders absent comparative tiers as empty objects so consumers
// parsing by key always find the tier.
func (m Metadata) MarshalJSON() ([]byte, error) {
	type plain Metadata
	empty := struct{}{}
	out := struct {
		plain
		Contextual    any `json:"contextual"`
		Trend         any `json:"trend"`
		CrossPlatform any `json:"cross_platform"`
		Flags         any `json:"flags"`
	}{plain: plain(m), Contextual: empty, Trend: empty, CrossPlatform: empty, Flags: empty}
	if m.Contextual != nil {
		out.Contextual = m.Contextual
	}
	if m.Trend != nil {
		out.Trend = m.Trend
	}
	if m.CrossPlatform != nil {
		out.CrossPlatform = m.CrossPlatform
	}
	if m.Flags != nil {
		out.Flags = m.Flags
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON: empty tier objects decode to nil.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	type plain Metadata
	var raw struct {
		plain
		Contextual    json.RawMessage `json:"contextual"`
		Trend         json.RawMessage `json:"trend"`
		CrossPlatform json.RawMessage `json:"cross_platform"`
		Flags         json.RawMessage `json:"flags"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Metadata(raw.plain)
	var err error
	if m.Contextual, err = decodeTier[Contextual](raw.Contextual); err != nil {
		return err
	}
	if m.Trend, err = decodeTier[Trend](raw.Trend); err != nil {
		return err
	}
	if m.CrossPlatform, err = decodeTier[CrossPlatform](raw.CrossPlatform); err != nil {
		return err
	}
	if m.Flags, err = decodeTier[Flags](raw.Flags); err != nil {
		return err
	}
	return nil
}

func decodeTier[T any](raw json.RawMessage) (*T, error) {
	s := string(bytes.TrimSpace(raw))
	if s == "" || s == "null" || s == "{}" {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

package chunker

import (
	"math"
	"sort"
	"strings"

	"socialrag/internal/domain"
)

// aggregate accumulates the counters of a group of posts.
type aggregate struct {
	count       int
	impressions float64
	reach       float64
	engagement  float64
	likes       float64
	comments    float64
	shares      float64
	saves       float64
	rateSum     float64
	best        *Post
	startDate   string
	endDate     string
}

func aggregateOf(posts []Post) aggregate {
	var a aggregate
	for i := range posts {
		a.add(&posts[i])
	}
	return a
}

func (a *aggregate) add(p *Post) {
	perf := p.Meta.Performance
	a.count++
	a.impressions += perf.Impressions
	a.reach += perf.Reach
	a.engagement += perf.TotalEngagement
	a.likes += perf.Likes
	a.comments += perf.Comments
	a.shares += perf.Shares
	a.saves += perf.Saves
	a.rateSum += perf.EngagementRate
	if a.best == nil || perf.EngagementRate > a.best.Meta.Performance.EngagementRate {
		a.best = p
	}
	if p.Meta.Temporal.DateValid {
		d := p.Meta.Temporal.Date
		if a.startDate == "" || d < a.startDate {
			a.startDate = d
		}
		if a.endDate == "" || d > a.endDate {
			a.endDate = d
		}
	}
}

func (a aggregate) avgRate() float64  { return safeAvg(a.rateSum, a.count) }
func (a aggregate) avgReach() float64 { return safeAvg(a.reach, a.count) }

// metadata fills the aggregate fields shared by levels 2 to 6.
func (a aggregate) metadata(id string, level int) domain.ChunkMetadata {
	m := domain.ChunkMetadata{
		ChunkID:           id,
		ChunkLevel:        level,
		ChunkType:         domain.LevelName(level),
		PostCount:         a.count,
		TotalImpressions:  a.impressions,
		TotalReach:        a.reach,
		TotalEngagement:   a.engagement,
		TotalLikes:        a.likes,
		TotalComments:     a.comments,
		TotalShares:       a.shares,
		TotalSaves:        a.saves,
		AvgEngagementRate: a.avgRate(),
		AvgReach:          a.avgReach(),
		StartDate:         a.startDate,
		EndDate:           a.endDate,
	}
	if a.best != nil {
		m.BestPostID = a.best.Record.PostID
		m.BestEngagementRate = a.best.Meta.Performance.EngagementRate
	}
	return m
}

func safeAvg(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	v := sum / float64(n)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// group is a keyed set of posts in first-seen order.
type group struct {
	key   string
	posts []Post
}

func groupBy(posts []Post, key func(Post) string) []group {
	index := map[string]int{}
	var out []group
	for _, p := range posts {
		k := key(p)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, group{key: k})
		}
		out[i].posts = append(out[i].posts, p)
	}
	return out
}

// bucket is one row of a breakdown by a categorical attribute.
type bucket struct {
	key     string
	count   int
	avgRate float64
}

func breakdown(posts []Post, key func(Post) string) []bucket {
	groups := groupBy(posts, key)
	out := make([]bucket, 0, len(groups))
	for _, g := range groups {
		a := aggregateOf(g.posts)
		out = append(out, bucket{key: g.key, count: a.count, avgRate: a.avgRate()})
	}
	return out
}

// bestBucket returns the bucket with the highest average rate; first wins ties.
func bestBucket(buckets []bucket) (bucket, bool) {
	if len(buckets) == 0 {
		return bucket{}, false
	}
	best := buckets[0]
	for _, b := range buckets[1:] {
		if b.avgRate > best.avgRate {
			best = b
		}
	}
	return best, true
}

func rankBuckets(buckets []bucket) []bucket {
	out := append([]bucket(nil), buckets...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].avgRate > out[j].avgRate })
	return out
}

func dateKey(p Post) string {
	if p.Meta.Temporal.DateValid {
		return p.Meta.Temporal.Date
	}
	if raw := strings.TrimSpace(p.Record.PostedDate); raw != "" {
		return raw
	}
	return "unknown"
}

func monthKey(p Post) string {
	if p.Meta.Temporal.DateValid {
		return p.Meta.Temporal.YearMonth
	}
	return "unknown"
}

func labelOr(s, fallback string) string {
	if s = strings.TrimSpace(s); s == "" {
		return fallback
	}
	return s
}

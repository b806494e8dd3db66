// Package enrich derives the eight metadata tiers of a post from the post
// itself and, for tiers 5 to 8, from the full dataset it belongs to.
package enrich

import (
	"math"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"socialrag/internal/domain"
)

const (
	snippetLength = 100
	trendWindow   = 30 * 24 * time.Hour
)

type datedRate struct {
	day  time.Time
	rate float64
}

// platformStats is computed once per platform and shared by every record.
type platformStats struct {
	sortedRates []float64
	avgRate     float64
	avgTotal    float64
	avgReach    float64
	// byDay is sorted by day; prefix[i] is the sum of the first i rates.
	byDay  []datedRate
	prefix []float64
}

// Enricher memoises the dataset-relative statistics needed by tiers 5 to 8.
// It is safe for concurrent use once built.
type Enricher struct {
	comparative bool
	stats       map[domain.Platform]*platformStats
	averages    map[domain.Platform]float64
	ranking     []domain.Platform
}

// NewEnricher prepares an enricher over the full record set. With fewer than
// two records only tiers 1 to 4 are produced.
func NewEnricher(all []domain.Record) *Enricher {
	e := &Enricher{comparative: len(all) > 1}
	if !e.comparative {
		return e
	}
	groups := map[domain.Platform][]domain.Record{}
	for _, r := range all {
		groups[r.Platform] = append(groups[r.Platform], r)
	}
	e.stats = make(map[domain.Platform]*platformStats, len(groups))
	e.averages = make(map[domain.Platform]float64, len(groups))
	for p, recs := range groups {
		st := buildStats(recs)
		e.stats[p] = st
		e.averages[p] = st.avgRate
		e.ranking = append(e.ranking, p)
	}
	sort.Slice(e.ranking, func(i, j int) bool {
		a, b := e.averages[e.ranking[i]], e.averages[e.ranking[j]]
		if a != b {
			return a > b
		}
		return e.ranking[i] < e.ranking[j]
	})
	return e
}

func buildStats(recs []domain.Record) *platformStats {
	st := &platformStats{sortedRates: make([]float64, 0, len(recs))}
	var sumRate, sumTotal, sumReach float64
	for _, r := range recs {
		rate := finite(r.EngagementRate)
		st.sortedRates = append(st.sortedRates, rate)
		sumRate += rate
		sumTotal += finite(r.TotalEngagement())
		sumReach += finite(r.Reach)
		if d, ok := ParseDate(r.PostedDate); ok {
			st.byDay = append(st.byDay, datedRate{day: d, rate: rate})
		}
	}
	sort.Float64s(st.sortedRates)
	n := float64(len(recs))
	st.avgRate = safeDiv(sumRate, n)
	st.avgTotal = safeDiv(sumTotal, n)
	st.avgReach = safeDiv(sumReach, n)

	sort.SliceStable(st.byDay, func(i, j int) bool { return st.byDay[i].day.Before(st.byDay[j].day) })
	st.prefix = make([]float64, len(st.byDay)+1)
	for i, dr := range st.byDay {
		st.prefix[i+1] = st.prefix[i] + dr.rate
	}
	return st
}

// Enrich computes the metadata of a single record against all records.
// It rebuilds the dataset statistics on every call; use NewEnricher when
// enriching many records.
func Enrich(record domain.Record, all []domain.Record) domain.Metadata {
	return NewEnricher(all).Enrich(record)
}

// Enrich computes the metadata of one record. It never fails: malformed
// values degrade to zeros and "unknown" labels.
func (e *Enricher) Enrich(r domain.Record) domain.Metadata {
	m := domain.Metadata{
		PostID: r.PostID,
		Identity: domain.Identity{
			Platform:       r.Platform,
			PostType:       r.PostType,
			MediaType:      r.MediaType,
			ContentSnippet: snippet(r.Content, snippetLength),
			HasHashtags:    hashtagRe.MatchString(r.Content),
			HasMentions:    mentionRe.MatchString(r.Content),
		},
		Temporal:    temporalTier(r),
		Performance: performanceTier(r),
		Content:     analyzeContent(r.Content),
	}
	if !e.comparative {
		return m
	}
	st := e.stats[r.Platform]
	if st == nil {
		st = buildStats([]domain.Record{r})
	}
	ctx := contextualTier(r, m.Performance, st)
	trend := e.trendTier(r, st)
	cross := e.crossPlatformTier(r)
	m.Contextual = &ctx
	m.Trend = &trend
	m.CrossPlatform = &cross
	flags := flagsTier(m)
	m.Flags = &flags
	return m
}

// EnrichAll enriches every record in parallel; output order matches input.
func (e *Enricher) EnrichAll(records []domain.Record) []domain.Metadata {
	out := make([]domain.Metadata, len(records))
	if len(records) == 0 {
		return out
	}
	workers := runtime.GOMAXPROCS(0)
	span := (len(records) + workers - 1) / workers
	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < len(records); start += span {
		lo, hi := start, min(start+span, len(records))
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				out[i] = e.Enrich(records[i])
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func performanceTier(r domain.Record) domain.Performance {
	total := finite(r.TotalEngagement())
	reach := finite(r.Reach)
	return domain.Performance{
		Impressions:     finite(r.Impressions),
		Reach:           reach,
		Likes:           finite(r.Likes),
		Comments:        finite(r.Comments),
		Shares:          finite(r.Shares),
		Saves:           finite(r.Saves),
		TotalEngagement: total,
		EngagementRate:  finite(r.EngagementRate),
		ReachRate:       pct(reach, r.Impressions),
		ViralityRate:    pct(r.Shares, reach),
		SaveRate:        pct(r.Saves, reach),
		CommentRate:     pct(r.Comments, reach),
		LikeShare:       pct(r.Likes, total),
		CommentShare:    pct(r.Comments, total),
		ShareShare:      pct(r.Shares, total),
		SaveShare:       pct(r.Saves, total),
	}
}

func contextualTier(r domain.Record, perf domain.Performance, st *platformStats) domain.Contextual {
	rate := perf.EngagementRate
	idx := sort.SearchFloat64s(st.sortedRates, rate)
	percentile := 0.0
	if n := len(st.sortedRates); n > 0 {
		percentile = float64(idx+1) / float64(n) * 100
		if percentile > 100 {
			percentile = 100
		}
	}
	dev := deviation(rate, st.avgRate)
	return domain.Contextual{
		PlatformAvgEngagementRate: st.avgRate,
		PercentileRank:            percentile,
		VsPlatformAvg:             dev,
		PerformanceCategory:       performanceCategory(dev),
		ViralScore:                ViralScore(perf, st.avgTotal, st.avgReach),
		IsTop10Percent:            percentile >= 90,
		IsBottom10Percent:         percentile <= 10,
	}
}

// ViralScore blends relative engagement and reach (up to 3 points each) with
// raw shares and saves, bounded to [0, 10].
func ViralScore(perf domain.Performance, avgTotal, avgReach float64) float64 {
	score := 0.0
	if avgTotal > 0 {
		score += math.Min(perf.TotalEngagement/avgTotal, 3)
	}
	if avgReach > 0 {
		score += math.Min(perf.Reach/avgReach, 3)
	}
	score += 0.1*perf.Shares + 0.05*perf.Saves
	return math.Max(0, math.Min(finite(score), 10))
}

func performanceCategory(dev float64) string {
	switch {
	case dev >= 50:
		return "excellent"
	case dev >= 20:
		return "good"
	case dev > -20:
		return "average"
	case dev > -50:
		return "poor"
	default:
		return "very_poor"
	}
}

func (e *Enricher) trendTier(r domain.Record, st *platformStats) domain.Trend {
	unknown := domain.Trend{TrendDirection: "unknown", Momentum: "neutral"}
	day, ok := ParseDate(r.PostedDate)
	if !ok {
		return unknown
	}
	from := day.Add(-trendWindow)
	lo := sort.Search(len(st.byDay), func(i int) bool { return !st.byDay[i].day.Before(from) })
	hi := sort.Search(len(st.byDay), func(i int) bool { return !st.byDay[i].day.Before(day) })
	count := hi - lo
	if count <= 0 {
		return unknown
	}
	avg := (st.prefix[hi] - st.prefix[lo]) / float64(count)
	dev := deviation(finite(r.EngagementRate), avg)
	return domain.Trend{
		RollingAvgEngagementRate: avg,
		PriorPostCount:           count,
		VsTrend:                  dev,
		TrendDirection:           trendDirection(dev),
		TrendStrength:            math.Abs(dev),
		Momentum:                 momentum(dev),
	}
}

func trendDirection(dev float64) string {
	switch {
	case dev > 10:
		return "improving"
	case dev < -10:
		return "declining"
	default:
		return "stable"
	}
}

func momentum(dev float64) string {
	switch {
	case dev > 30:
		return "very_positive"
	case dev > 10:
		return "positive"
	case dev >= -10:
		return "neutral"
	case dev >= -30:
		return "negative"
	default:
		return "very_negative"
	}
}

func (e *Enricher) crossPlatformTier(r domain.Record) domain.CrossPlatform {
	averages := make(map[domain.Platform]float64, len(e.averages))
	for p, v := range e.averages {
		averages[p] = v
	}
	c := domain.CrossPlatform{
		PlatformAverages: averages,
		TotalPlatforms:   len(e.ranking),
	}
	if len(e.ranking) == 0 {
		return c
	}
	best := e.ranking[0]
	c.BestPlatform = best
	c.BestPlatformRate = e.averages[best]
	for i, p := range e.ranking {
		if p == r.Platform {
			c.PlatformRank = i + 1
			break
		}
	}
	c.GapVsBest = deviation(finite(r.EngagementRate), c.BestPlatformRate)
	return c
}

// Tier 8 tags.
const (
	TagTopPerformer       = "top_performer"
	TagBottomPerformer    = "bottom_performer"
	TagNeedsImprovement   = "needs_improvement"
	TagViralPotential     = "viral_potential"
	TagStrongMomentum     = "strong_momentum"
	TagDecliningTrend     = "declining_trend"
	TagConcerningDecline  = "concerning_decline"
	TagHighPurchaseIntent = "high_purchase_intent"
	TagHighConversation   = "high_conversation"
	TagBestPlatform       = "best_platform"
)

const (
	viralPotentialScore    = 7.0
	purchaseIntentSaveRate = 3.0
	conversationRate       = 2.0
)

var recommendations = map[string]string{
	TagTopPerformer:       "Reuse this post's format and theme in upcoming content",
	TagBottomPerformer:    "Compare creative and posting time with the platform's top posts",
	TagNeedsImprovement:   "Rework the hook and call to action against the platform average",
	TagViralPotential:     "Boost or repost while shares are driving reach",
	TagStrongMomentum:     "Post more often on this platform while momentum lasts",
	TagDecliningTrend:     "Investigate the drop against the trailing 30-day average",
	TagConcerningDecline:  "Investigate the drop against the trailing 30-day average",
	TagHighPurchaseIntent: "Add a direct shopping link or retarget users who saved",
	TagHighConversation:   "Reply to comments to keep the conversation going",
}

var attentionTags = []string{TagNeedsImprovement, TagDecliningTrend, TagConcerningDecline}

func flagsTier(m domain.Metadata) domain.Flags {
	var tags []string
	add := func(ok bool, tag string) {
		if ok {
			tags = append(tags, tag)
		}
	}
	ctx, trend, cross := m.Contextual, m.Trend, m.CrossPlatform
	add(ctx.IsTop10Percent, TagTopPerformer)
	add(ctx.IsBottom10Percent, TagBottomPerformer)
	add(ctx.PerformanceCategory == "poor" || ctx.PerformanceCategory == "very_poor", TagNeedsImprovement)
	add(ctx.ViralScore >= viralPotentialScore, TagViralPotential)
	add(trend.Momentum == "very_positive", TagStrongMomentum)
	add(trend.TrendDirection == "declining", TagDecliningTrend)
	add(trend.Momentum == "very_negative", TagConcerningDecline)
	add(m.Performance.SaveRate >= purchaseIntentSaveRate, TagHighPurchaseIntent)
	add(m.Performance.CommentRate >= conversationRate, TagHighConversation)
	add(cross.TotalPlatforms > 1 && cross.PlatformRank == 1, TagBestPlatform)

	f := domain.Flags{Tags: []string{}, Recommendations: []string{}}
	seen := map[string]bool{}
	for _, t := range tags {
		f.Tags = append(f.Tags, t)
		if rec, ok := recommendations[t]; ok && !seen[rec] {
			seen[rec] = true
			f.Recommendations = append(f.Recommendations, rec)
		}
	}
	for _, t := range attentionTags {
		for _, have := range tags {
			if have == t {
				f.RequiresAttention = true
			}
		}
	}
	return f
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return finite(a / b)
}

func pct(part, whole float64) float64 {
	return safeDiv(finite(part), finite(whole)) * 100
}

// deviation is the percentage difference of v against base; 0 when base is 0.
func deviation(v, base float64) float64 {
	if base == 0 {
		return 0
	}
	return finite((v - base) / base * 100)
}

package chunker

import (
	"fmt"
	"sort"
	"strings"

	"socialrag/internal/domain"
	"socialrag/internal/enrich"
)

// BuildPosts emits one level-1 chunk per post.
func BuildPosts(posts []Post) []domain.Chunk {
	out := make([]domain.Chunk, 0, len(posts))
	seen := make(map[string]bool, len(posts))
	for i, p := range posts {
		id := postChunkID(p.Record.PostID, i, seen)
		meta := p.Meta
		perf := meta.Performance
		out = append(out, domain.Chunk{
			ID:    id,
			Level: domain.LevelPost,
			Text:  renderPost(p),
			Metadata: domain.ChunkMetadata{
				ChunkID:            id,
				ChunkLevel:         domain.LevelPost,
				ChunkType:          domain.LevelName(domain.LevelPost),
				Platform:           p.Record.Platform,
				Date:               meta.Temporal.Date,
				YearMonth:          meta.Temporal.YearMonth,
				PostID:             p.Record.PostID,
				PostCount:          1,
				TotalImpressions:   perf.Impressions,
				TotalReach:         perf.Reach,
				TotalEngagement:    perf.TotalEngagement,
				TotalLikes:         perf.Likes,
				TotalComments:      perf.Comments,
				TotalShares:        perf.Shares,
				TotalSaves:         perf.Saves,
				AvgEngagementRate:  perf.EngagementRate,
				AvgReach:           perf.Reach,
				BestPostID:         p.Record.PostID,
				BestEngagementRate: perf.EngagementRate,
				Post:               &meta,
			},
		})
	}
	return out
}

func postChunkID(postID string, i int, seen map[string]bool) string {
	postID = strings.TrimSpace(postID)
	id := "post:" + postID
	switch {
	case postID == "":
		id = fmt.Sprintf("post:#%d", i)
	case seen[id]:
		id = fmt.Sprintf("%s#%d", id, i)
	}
	seen[id] = true
	return id
}

func renderPost(p Post) string {
	m := p.Meta
	perf := m.Performance
	w := newTextWriter()
	w.sentence("%s %s post %s published %s %s (%s).",
		p.Record.Platform,
		labelOr(m.Identity.PostType, "unspecified"),
		labelOr(p.Record.PostID, "unnamed"),
		m.Temporal.DayOfWeek,
		m.Temporal.Date,
		m.Temporal.TimeOfDay)
	if m.Identity.MediaType != "" {
		w.sentence("Media: %s.", m.Identity.MediaType)
	}
	if m.Identity.ContentSnippet != "" {
		w.sentence("Content: %q.", m.Identity.ContentSnippet)
	}
	w.sentence("Performance: %.0f impressions, %.0f reach, %.0f likes, %.0f comments, %.0f shares, %.0f saves, %.0f total engagement, %.2f%% engagement rate.",
		perf.Impressions, perf.Reach, perf.Likes, perf.Comments, perf.Shares, perf.Saves, perf.TotalEngagement, perf.EngagementRate)
	w.sentence("Reach rate %.2f%%, virality %.2f%%, save rate %.2f%%, comment rate %.2f%%.",
		perf.ReachRate, perf.ViralityRate, perf.SaveRate, perf.CommentRate)
	if c := m.Contextual; c != nil {
		w.sentence("Versus the %s average of %.2f%% this post is %+.1f%% (%s), percentile %.1f, viral score %.1f/10.",
			p.Record.Platform, c.PlatformAvgEngagementRate, c.VsPlatformAvg, c.PerformanceCategory, c.PercentileRank, c.ViralScore)
	}
	if t := m.Trend; t != nil {
		if t.TrendDirection == "unknown" {
			w.sentence("Trend: unknown, no posts in the previous 30 days.")
		} else {
			w.sentence("Trend: %s with %s momentum, %+.1f%% against the 30-day average of %.2f%% over %d posts.",
				t.TrendDirection, t.Momentum, t.VsTrend, t.RollingAvgEngagementRate, t.PriorPostCount)
		}
	}
	if x := m.CrossPlatform; x != nil && x.TotalPlatforms > 0 {
		w.sentence("%s ranks %d of %d platforms; best platform %s at %.2f%%, gap vs best %+.1f%%.",
			p.Record.Platform, x.PlatformRank, x.TotalPlatforms, x.BestPlatform, x.BestPlatformRate, x.GapVsBest)
	}
	c := m.Content
	w.sentence("Style: %s, %d words, themes %s, call to action %s.",
		strings.ReplaceAll(c.LengthCategory, "_", " "), c.WordCount, listOr(c.Themes, "none"), yesNo(c.HasCTA))
	if len(c.Hashtags) > 0 {
		w.sentence("Hashtags: %s.", strings.Join(c.Hashtags, " "))
	}
	if f := m.Flags; f != nil {
		if len(f.Tags) > 0 {
			w.sentence("Flags: %s.", strings.Join(f.Tags, ", "))
		}
		if len(f.Recommendations) > 0 {
			w.sentence("Recommendations: %s.", strings.Join(f.Recommendations, "; "))
		}
	}
	return w.String()
}

// BuildDaily emits one level-2 chunk per (date, platform).
func BuildDaily(posts []Post) []domain.Chunk {
	groups := groupBy(posts, func(p Post) string { return string(p.Record.Platform) + "\x00" + dateKey(p) })
	out := make([]domain.Chunk, 0, len(groups))
	for _, g := range groups {
		first := g.posts[0]
		platform, date := first.Record.Platform, dateKey(first)
		a := aggregateOf(g.posts)
		id := fmt.Sprintf("daily:%s:%s", platform, date)

		w := newTextWriter()
		w.sentence("Daily summary for %s on %s", platform, date)
		if first.Meta.Temporal.DateValid {
			w.printf(" (%s)", first.Meta.Temporal.DayOfWeek)
		}
		w.printf(": %d posts.", a.count)
		w.totals(a)
		w.best(a, "post")
		parts := make([]string, len(g.posts))
		for i, p := range g.posts {
			parts[i] = w.p.Sprintf("%s (%s, %.2f%%)", labelOr(p.Record.PostID, "unnamed"), labelOr(p.Record.PostType, "unspecified"), p.Meta.Performance.EngagementRate)
		}
		w.sentence("Posts: %s.", strings.Join(parts, "; "))

		meta := a.metadata(id, domain.LevelDaily)
		meta.Platform = platform
		meta.Date = date
		meta.YearMonth = first.Meta.Temporal.YearMonth
		out = append(out, domain.Chunk{ID: id, Level: domain.LevelDaily, Text: w.String(), Metadata: meta})
	}
	return out
}

// BuildMonthly emits one level-3 chunk per (year-month, platform).
func BuildMonthly(posts []Post) []domain.Chunk {
	groups := groupBy(posts, func(p Post) string { return string(p.Record.Platform) + "\x00" + monthKey(p) })
	out := make([]domain.Chunk, 0, len(groups))
	for _, g := range groups {
		first := g.posts[0]
		platform, month := first.Record.Platform, monthKey(first)
		a := aggregateOf(g.posts)
		id := fmt.Sprintf("monthly:%s:%s", platform, month)

		w := newTextWriter()
		label := month
		if first.Meta.Temporal.DateValid {
			label = fmt.Sprintf("%s %d (%s)", first.Meta.Temporal.MonthName, first.Meta.Temporal.Year, month)
		}
		w.sentence("Monthly summary for %s in %s: %d posts across %d active days.", platform, label, a.count, len(groupBy(g.posts, dateKey)))
		w.totals(a)
		w.best(a, "post")
		w.buckets("Post types", breakdown(g.posts, func(p Post) string { return labelOr(p.Record.PostType, "unspecified") }))
		w.buckets("Weekly rhythm", breakdown(g.posts, func(p Post) string { return p.Meta.Temporal.DayOfWeek }))

		meta := a.metadata(id, domain.LevelMonthly)
		meta.Platform = platform
		meta.YearMonth = month
		out = append(out, domain.Chunk{ID: id, Level: domain.LevelMonthly, Text: w.String(), Metadata: meta})
	}
	return out
}

// BuildPlatforms emits one level-4 overview per platform. health may be nil.
func BuildPlatforms(posts []Post, health map[domain.Platform]domain.SentimentHealth) []domain.Chunk {
	groups := groupBy(posts, func(p Post) string { return string(p.Record.Platform) })
	out := make([]domain.Chunk, 0, len(groups))
	for _, g := range groups {
		platform := g.posts[0].Record.Platform
		a := aggregateOf(g.posts)
		id := fmt.Sprintf("platform:%s", platform)

		w := newTextWriter()
		w.sentence("Platform overview for %s: %d posts", platform, a.count)
		if a.startDate != "" {
			w.printf(" from %s to %s", a.startDate, a.endDate)
		}
		w.printf(".")
		w.totals(a)
		w.best(a, "post")
		w.buckets("Post type performance", rankBuckets(breakdown(g.posts, func(p Post) string { return labelOr(p.Record.PostType, "unspecified") })))
		w.buckets("Media performance", rankBuckets(breakdown(g.posts, func(p Post) string { return labelOr(p.Record.MediaType, "unspecified") })))
		if b, ok := bestBucket(breakdown(g.posts, func(p Post) string { return p.Meta.Temporal.DayOfWeek })); ok {
			w.sentence("Best day of week: %s at %.2f%% average.", b.key, b.avgRate)
		}
		if b, ok := bestBucket(breakdown(g.posts, func(p Post) string { return p.Meta.Temporal.TimeOfDay })); ok {
			w.sentence("Best time of day: %s at %.2f%% average.", b.key, b.avgRate)
		}
		months := breakdown(g.posts, monthKey)
		sort.SliceStable(months, func(i, j int) bool { return months[i].key < months[j].key })
		w.buckets("Monthly trend", months)

		meta := a.metadata(id, domain.LevelPlatform)
		meta.Platform = platform
		if h, ok := health[platform]; ok {
			w.sentence("Audience sentiment health %.1f/100 from %d comments (%.1f%% positive, %.1f%% neutral, %.1f%% negative).",
				h.HealthScore, h.TotalComments, h.Positive, h.Neutral, h.Negative)
			meta.SentimentHealth = &h
		}
		out = append(out, domain.Chunk{ID: id, Level: domain.LevelPlatform, Text: w.String(), Metadata: meta})
	}
	return out
}

// BuildCrossPlatform emits the single level-5 chunk ranking platforms by
// average engagement rate, best first.
func BuildCrossPlatform(posts []Post) []domain.Chunk {
	if len(posts) == 0 {
		return nil
	}
	const id = "cross_platform"
	groups := groupBy(posts, func(p Post) string { return string(p.Record.Platform) })
	stats := make([]domain.PlatformStat, len(groups))
	for i, g := range groups {
		a := aggregateOf(g.posts)
		stats[i] = domain.PlatformStat{
			Platform:          g.posts[0].Record.Platform,
			PostCount:         a.count,
			AvgEngagementRate: a.avgRate(),
			TotalEngagement:   a.engagement,
			TotalReach:        a.reach,
		}
	}
	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].AvgEngagementRate != stats[j].AvgEngagementRate {
			return stats[i].AvgEngagementRate > stats[j].AvgEngagementRate
		}
		return stats[i].Platform < stats[j].Platform
	})
	for i := range stats {
		stats[i].Rank = i + 1
	}

	a := aggregateOf(posts)
	best, worst := stats[0], stats[len(stats)-1]
	w := newTextWriter()
	w.sentence("Cross-platform comparison of %d platforms over %d posts.", len(stats), a.count)
	w.sentence("Best performing platform: %s with %.2f%% average engagement rate.", best.Platform, best.AvgEngagementRate)
	if len(stats) > 1 {
		w.sentence("Worst performing platform: %s at %.2f%%, a gap of %.2f percentage points.",
			worst.Platform, worst.AvgEngagementRate, best.AvgEngagementRate-worst.AvgEngagementRate)
	}
	parts := make([]string, len(stats))
	for i, s := range stats {
		parts[i] = w.p.Sprintf("%d. %s %.2f%% (%d posts, %.0f total engagement, %.0f reach)",
			s.Rank, s.Platform, s.AvgEngagementRate, s.PostCount, s.TotalEngagement, s.TotalReach)
	}
	w.sentence("Platforms ranked by average engagement rate: %s.", strings.Join(parts, "; "))
	w.totals(a)
	w.best(a, "post overall")

	meta := a.metadata(id, domain.LevelCrossPlatform)
	meta.PlatformRankings = stats
	return []domain.Chunk{{ID: id, Level: domain.LevelCrossPlatform, Text: w.String(), Metadata: meta}}
}

// BuildStrategic emits the single level-6 chunk ranking content themes by
// average engagement rate, with call-to-action, timing and media contrasts.
func BuildStrategic(posts []Post) []domain.Chunk {
	if len(posts) == 0 {
		return nil
	}
	const id = "strategic"
	var themes []domain.ThemeStat
	for _, theme := range enrich.Themes {
		var tagged []Post
		for _, p := range posts {
			if contains(p.Meta.Content.Themes, theme) {
				tagged = append(tagged, p)
			}
		}
		if len(tagged) == 0 {
			continue
		}
		a := aggregateOf(tagged)
		themes = append(themes, domain.ThemeStat{Theme: theme, PostCount: a.count, AvgEngagementRate: a.avgRate()})
	}
	sort.SliceStable(themes, func(i, j int) bool { return themes[i].AvgEngagementRate > themes[j].AvgEngagementRate })
	for i := range themes {
		themes[i].Rank = i + 1
	}

	a := aggregateOf(posts)
	platforms := groupBy(posts, func(p Post) string { return string(p.Record.Platform) })
	w := newTextWriter()
	w.sentence("Strategic insights across %d posts on %d platforms.", a.count, len(platforms))
	if len(themes) > 0 {
		parts := make([]string, len(themes))
		for i, t := range themes {
			parts[i] = w.p.Sprintf("%d. %s %.2f%% (%d posts)", t.Rank, strings.ReplaceAll(t.Theme, "_", " "), t.AvgEngagementRate, t.PostCount)
		}
		w.sentence("Content themes ranked by average engagement rate: %s.", strings.Join(parts, "; "))
		w.sentence("Top content theme: %s.", strings.ReplaceAll(themes[0].Theme, "_", " "))
	} else {
		w.sentence("No content themes detected.")
	}

	var withCTA, withoutCTA []Post
	for _, p := range posts {
		if p.Meta.Content.HasCTA {
			withCTA = append(withCTA, p)
		} else {
			withoutCTA = append(withoutCTA, p)
		}
	}
	cta, plain := aggregateOf(withCTA), aggregateOf(withoutCTA)
	w.sentence("Posts with a call to action average %.2f%% (%d posts) versus %.2f%% without (%d posts).",
		cta.avgRate(), cta.count, plain.avgRate(), plain.count)
	if b, ok := bestBucket(breakdown(posts, func(p Post) string { return p.Meta.Temporal.TimeOfDay })); ok {
		w.sentence("Best time of day overall: %s at %.2f%%.", b.key, b.avgRate)
	}
	if b, ok := bestBucket(breakdown(posts, func(p Post) string { return p.Meta.Temporal.DayOfWeek })); ok {
		w.sentence("Best day of week overall: %s at %.2f%%.", b.key, b.avgRate)
	}
	if b, ok := bestBucket(breakdown(posts, func(p Post) string { return labelOr(p.Record.MediaType, "unspecified") })); ok {
		w.sentence("Best media type overall: %s at %.2f%%.", b.key, b.avgRate)
	}
	w.buckets("Content length", rankBuckets(breakdown(posts, func(p Post) string { return p.Meta.Content.LengthCategory })))

	meta := a.metadata(id, domain.LevelStrategic)
	meta.ThemeRankings = themes
	return []domain.Chunk{{ID: id, Level: domain.LevelStrategic, Text: w.String(), Metadata: meta}}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func listOr(list []string, fallback string) string {
	if len(list) == 0 {
		return fallback
	}
	return strings.Join(list, ", ")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

package enrich

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"socialrag/internal/domain"
)

// Content themes, in reporting order.
const (
	ThemeProduct         = "product"
	ThemePromotional     = "promotional"
	ThemeEducational     = "educational"
	ThemeBehindTheScenes = "behind_the_scenes"
	ThemeSocialProof     = "social_proof"
	ThemeEngagement      = "engagement"
)

// Themes lists every theme of the fixed taxonomy.
var Themes = []string{ThemeProduct, ThemePromotional, ThemeEducational, ThemeBehindTheScenes, ThemeSocialProof, ThemeEngagement}

var themeKeywords = map[string][]string{
	ThemeProduct:         {"product", "collection", "launch", "new arrival", "available now", "shop", "drop"},
	ThemePromotional:     {"sale", "discount", "offer", "deal", "promo", "coupon", "limited time", "free shipping"},
	ThemeEducational:     {"how to", "tips", "tip", "learn", "guide", "tutorial", "did you know", "step by step"},
	ThemeBehindTheScenes: {"behind the scenes", "bts", "our team", "making of", "process", "sneak peek"},
	ThemeSocialProof:     {"review", "testimonial", "customer", "loved by", "rated", "five star", "5 star"},
	ThemeEngagement:      {"comment below", "tag a friend", "tell us", "what do you think", "vote", "giveaway", "which one"},
}

var (
	hashtagRe = regexp.MustCompile(`#[\p{L}\p{N}_]+`)
	mentionRe = regexp.MustCompile(`@[\p{L}\p{N}_]+`)
	ctaRe     = regexp.MustCompile(`(?i)\b(shop|buy|click|visit|follow|subscribe|sign up|register|download|learn more|link in bio|order|book|join|swipe up|dm us|get yours)\b`)
	themeRes  = compileThemes()
)

func compileThemes() map[string]*regexp.Regexp {
	out := make(map[string]*regexp.Regexp, len(themeKeywords))
	for theme, kws := range themeKeywords {
		quoted := make([]string, len(kws))
		for i, kw := range kws {
			quoted[i] = regexp.QuoteMeta(kw)
		}
		out[theme] = regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
	}
	return out
}

const maxHashtags = 5

func analyzeContent(text string) domain.Content {
	chars := utf8.RuneCountInString(text)
	tags := hashtagRe.FindAllString(text, -1)
	mentions := mentionRe.FindAllString(text, -1)

	c := domain.Content{
		LengthCategory: lengthCategory(chars),
		CharCount:      chars,
		WordCount:      len(strings.Fields(text)),
		HashtagCount:   len(tags),
		MentionCount:   len(mentions),
		Hashtags:       []string{},
		Themes:         detectThemes(text),
		HasCTA:         ctaRe.MatchString(text),
	}
	for _, t := range tags {
		if len(c.Hashtags) == maxHashtags {
			break
		}
		c.Hashtags = append(c.Hashtags, strings.ToLower(t))
	}
	return c
}

func lengthCategory(chars int) string {
	switch {
	case chars < 50:
		return "very_short"
	case chars < 100:
		return "short"
	case chars < 200:
		return "medium"
	case chars < 300:
		return "long"
	default:
		return "very_long"
	}
}

func detectThemes(text string) []string {
	out := []string{}
	for _, theme := range Themes {
		if themeRes[theme].MatchString(text) {
			out = append(out, theme)
		}
	}
	return out
}

func snippet(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	r := []rune(text)
	return strings.TrimSpace(string(r[:n])) + "..."
}

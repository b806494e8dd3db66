package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// columnAliases maps accepted header spellings to canonical field names.
var columnAliases = map[string]string{
	"post_id":         "post_id",
	"id":              "post_id",
	"postid":          "post_id",
	"platform":        "platform",
	"network":         "platform",
	"post_type":       "post_type",
	"type":            "post_type",
	"category":        "post_type",
	"media_type":      "media_type",
	"media":           "media_type",
	"content":         "content",
	"caption":         "content",
	"text":            "content",
	"post_text":       "content",
	"message":         "content",
	"posted_date":     "posted_date",
	"post_date":       "posted_date",
	"date":            "posted_date",
	"posted_time":     "posted_time",
	"post_time":       "posted_time",
	"time":            "posted_time",
	"impressions":     "impressions",
	"reach":           "reach",
	"likes":           "likes",
	"comments":        "comments",
	"shares":          "shares",
	"retweets":        "shares",
	"saves":           "saves",
	"engagement_rate": "engagement_rate",
	"er":              "engagement_rate",
}

func canonicalColumn(header string) string {
	key := strings.ToLower(strings.TrimSpace(header))
	key = strings.TrimPrefix(key, "\ufeff")
	key = strings.NewReplacer(" ", "_", "-", "_", "(%)", "", "%", "").Replace(key)
	key = strings.Trim(key, "_")
	if c, ok := columnAliases[key]; ok {
		return c
	}
	return ""
}

// parseNumber coerces a loosely formatted counter. ok is false when the input
// was non-empty but unusable; the value is then 0.
func parseNumber(raw string) (v float64, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "nan") || strings.EqualFold(s, "null") || strings.EqualFold(s, "none") {
		return 0, s == ""
	}
	s = strings.NewReplacer(",", "", "%", "", "_", "", " ", "").Replace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f < 0 {
		return 0, false
	}
	return f, true
}

// numberFromAny handles JSON values, which may be numbers or strings.
func numberFromAny(v any) (float64, bool) {
	switch t := v.(type) {
	case nil:
		return 0, true
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) || t < 0 {
			return 0, false
		}
		return t, true
	case string:
		return parseNumber(t)
	case bool:
		return 0, false
	default:
		return parseNumber(fmt.Sprint(t))
	}
}

func stringFromAny(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

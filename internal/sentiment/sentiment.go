// Package sentiment summarises pre-labelled audience comments into a health
// score per platform.
package sentiment

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"socialrag/internal/domain"
)

// PlatformGeneral collects comments whose post is not in the dataset.
const PlatformGeneral domain.Platform = "General"

const (
	Positive = "positive"
	Neutral  = "neutral"
	Negative = "negative"
)

// Comment is one labelled audience comment.
type Comment struct {
	ID       string
	PostID   string
	Label    string
	Platform domain.Platform
}

var labelMap = map[string]string{
	"label_0":  Negative,
	"label_1":  Neutral,
	"label_2":  Positive,
	"negative": Negative,
	"neutral":  Neutral,
	"positive": Positive,
}

// NormalizeLabel maps classifier output onto positive, neutral or negative.
// Unrecognised labels are returned lower-cased and count toward no bucket.
func NormalizeLabel(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	if l, ok := labelMap[key]; ok {
		return l
	}
	return key
}

// LoadComments reads a labelled comments CSV from disk.
func LoadComments(path string) ([]Comment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	comments, err := ReadComments(f)
	if err != nil {
		return nil, fmt.Errorf("read comments %s: %w", path, err)
	}
	return comments, nil
}

// ReadComments parses comment_id, post_id, label and an optional platform
// column, in any order.
func ReadComments(r io.Reader) ([]Comment, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	col := map[string]int{}
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "comment_id", "id":
			col["id"] = i
		case "post_id", "postid":
			col["post_id"] = i
		case "label", "sentiment":
			col["label"] = i
		case "platform":
			col["platform"] = i
		}
	}
	if _, ok := col["label"]; !ok {
		return nil, errors.New("missing label column")
	}
	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var out []Comment
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		c := Comment{
			ID:     field(row, "id"),
			PostID: field(row, "post_id"),
			Label:  NormalizeLabel(field(row, "label")),
		}
		if p := field(row, "platform"); p != "" {
			c.Platform = domain.ParsePlatform(p)
		}
		out = append(out, c)
	}
	return out, nil
}

// Health groups comments by platform and computes
// health_score = positive% + 0.5 * neutral%. A comment's platform comes from
// its own column, then postPlatforms, then PlatformGeneral.
func Health(comments []Comment, postPlatforms map[string]domain.Platform) map[domain.Platform]domain.SentimentHealth {
	type tally struct{ pos, neu, neg, total int }
	tallies := map[domain.Platform]*tally{}
	for _, c := range comments {
		p := c.Platform
		if p == "" {
			if mapped, ok := postPlatforms[c.PostID]; ok {
				p = mapped
			} else {
				p = PlatformGeneral
			}
		}
		t := tallies[p]
		if t == nil {
			t = &tally{}
			tallies[p] = t
		}
		t.total++
		switch c.Label {
		case Positive:
			t.pos++
		case Neutral:
			t.neu++
		case Negative:
			t.neg++
		}
	}

	out := make(map[domain.Platform]domain.SentimentHealth, len(tallies))
	for p, t := range tallies {
		pct := func(n int) float64 { return float64(n) / float64(t.total) * 100 }
		pos, neu, neg := pct(t.pos), pct(t.neu), pct(t.neg)
		out[p] = domain.SentimentHealth{
			Platform:      p,
			HealthScore:   round(pos+0.5*neu, 2),
			Positive:      round(pos, 1),
			Neutral:       round(neu, 1),
			Negative:      round(neg, 1),
			TotalComments: t.total,
		}
	}
	return out
}

// Sorted returns health entries ordered by platform name.
func Sorted(health map[domain.Platform]domain.SentimentHealth) []domain.SentimentHealth {
	out := make([]domain.SentimentHealth, 0, len(health))
	for _, h := range health {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Platform < out[j].Platform })
	return out
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

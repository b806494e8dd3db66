package index

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"socialrag/internal/domain"
)

var unicodeWordRe = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’]\p{L}+)*`)

func lexicalSearch(chunks []domain.Chunk, query string, k int) []domain.SearchResult {
	qset := toTokenSet(query)
	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(chunks))
	for i, ch := range chunks {
		scores[i] = pair{i, overlapOchiai(qset, ch.Text)}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if k > len(scores) {
		k = len(scores)
	}
	out := make([]domain.SearchResult, 0, k)
	for _, p := range scores[:k] {
		out = append(out, domain.SearchResult{Document: domain.Document{Chunk: chunks[p.idx]}, Score: p.score})
	}
	return out
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

// overlapOchiai is |A∩B| / sqrt(|A||B|) over distinct tokens.
func overlapOchiai(qset map[string]struct{}, text string) float64 {
	stoks := unicodeWordRe.FindAllString(strings.ToLower(text), -1)
	seen := make(map[string]struct{}, len(stoks))
	inter := 0
	for _, t := range stoks {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := qset[t]; ok {
			inter++
		}
	}
	if len(qset) == 0 || len(seen) == 0 {
		return 0
	}
	return float64(inter) / math.Sqrt(float64(len(qset))*float64(len(seen)))
}

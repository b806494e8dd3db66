package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"socialrag/internal/domain"
)

// headlineLevels are the chunk levels a headline is drawn from.
var headlineLevels = map[int]bool{domain.LevelCrossPlatform: true, domain.LevelStrategic: true}

var (
	tokenRe = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	// a terminator only ends a sentence before whitespace, so "6.20%" stays whole
	sentenceRe = regexp.MustCompile(`(?s)\S.*?[.!?](?:\s+|$)`)
)

// FrequencySummarizer ranks sentences by word frequency (stopwords filtered).
type FrequencySummarizer struct {
	stopwords map[string]struct{}
}

var _ domain.Summarizer = (*FrequencySummarizer)(nil)

// NewFrequencySummarizer creates a frequency-based sentence ranker summarizer.
func NewFrequencySummarizer() *FrequencySummarizer {
	return &FrequencySummarizer{stopwords: defaultStopwords()}
}

// Summarize builds a headline from the cross-platform and strategic chunks,
// or from every chunk when neither level is present.
func (s *FrequencySummarizer) Summarize(chunks []domain.Chunk, maxSentences int) (string, error) {
	var texts []string
	for _, c := range chunks {
		if headlineLevels[c.Level] {
			texts = append(texts, c.Text)
		}
	}
	if len(texts) == 0 {
		for _, c := range chunks {
			texts = append(texts, c.Text)
		}
	}
	return s.SummarizeText(strings.Join(texts, "\n"), maxSentences), nil
}

// SummarizeText returns the top sentences of text in their original order.
func (s *FrequencySummarizer) SummarizeText(text string, maxSentences int) string {
	if maxSentences <= 0 {
		maxSentences = 5
	}
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return strings.TrimSpace(text)
	}
	tokens := make([][]string, len(sentences))
	freq := map[string]float64{}
	for i, sent := range sentences {
		tokens[i] = s.tokens(sent)
		for _, tok := range tokens[i] {
			freq[tok]++
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}
	if maxF > 0 {
		for k, v := range freq {
			freq[k] = v / maxF
		}
	}

	type pair struct {
		idx   int
		score float64
	}
	scores := make([]pair, len(sentences))
	for i := range sentences {
		score := 0.0
		for _, tok := range tokens[i] {
			score += freq[tok]
		}
		// length normalisation
		if l := float64(len(tokens[i])); l > 0 {
			score /= math.Sqrt(l)
		}
		scores[i] = pair{i, score}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	maxSentences = min(maxSentences, len(scores))

	selected := make([]int, maxSentences)
	for i := range selected {
		selected[i] = scores[i].idx
	}
	sort.Ints(selected)
	out := make([]string, 0, len(selected))
	for _, idx := range selected {
		out = append(out, sentences[idx])
	}
	return strings.Join(out, " ")
}

func splitSentences(text string) []string {
	var out []string
	for _, m := range sentenceRe.FindAllString(text, -1) {
		if t := strings.TrimSpace(m); t != "" {
			out = append(out, t)
		}
	}
	if rest := strings.TrimSpace(sentenceRe.ReplaceAllString(text, "")); rest != "" {
		out = append(out, rest)
	}
	return out
}

func (s *FrequencySummarizer) tokens(text string) []string {
	all := tokenRe.FindAllString(strings.ToLower(text), -1)
	out := all[:0]
	for _, t := range all {
		if _, stop := s.stopwords[t]; !stop {
			out = append(out, t)
		}
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on", "at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this", "that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than", "so", "such", "into", "about", "between", "through", "during", "before", "after", "above", "below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "don", "should", "now", "versus", "posts",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"socialrag/internal/domain"
)

type fakePort struct {
	res   []domain.SearchResult
	err   error
	query string
	k     int
}

func (f *fakePort) Query(query string, topK int) ([]domain.SearchResult, error) {
	f.query, f.k = query, topK
	return f.res, f.err
}

func typeQuery(t *testing.T, m Model, q string) Model {
	t.Helper()
	for _, r := range q {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = next.(Model)
	}
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model)
}

func TestModel_QueryAndBrowse(t *testing.T) {
	port := &fakePort{res: []domain.SearchResult{
		{Document: domain.Document{Chunk: domain.Chunk{ID: "cross_platform", Level: domain.LevelCrossPlatform, Text: "Best performing platform: Instagram with 6.20% average engagement rate."}}, Score: 0.8},
		{Document: domain.Document{Chunk: domain.Chunk{ID: "post:p1", Level: domain.LevelPost, Text: "Post p1."}}, Score: 0.4},
	}}
	next, _ := New(port, "headline", 10).Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m := typeQuery(t, next.(Model), "best platform")

	assert.Equal(t, "best platform", port.query)
	assert.Equal(t, 10, port.k)
	require.Len(t, m.results, 2)
	assert.Contains(t, m.renderCurrentResult(), "cross_platform")
	assert.Contains(t, m.renderCurrentResult(), "L5 cross_platform_comparison")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(Model)
	assert.Equal(t, 1, m.cursor)
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 0, next.(Model).cursor)
	assert.Contains(t, m.View(), "headline")
}

func TestModel_QueryError(t *testing.T) {
	port := &fakePort{err: errors.New("index not built")}
	next, _ := New(port, "", 0).Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m := typeQuery(t, next.(Model), "x")
	assert.Equal(t, "Error: index not built", m.status)
	assert.Equal(t, "No results yet.", m.renderCurrentResult())
}

func TestSplitSentences(t *testing.T) {
	got := splitSentences("Average 6.20% engagement. Best day: Friday! Tail")
	assert.Equal(t, []string{"Average 6.20% engagement.", "Best day: Friday!", "Tail"}, got)
}

func TestTokenOverlapScore(t *testing.T) {
	q := toTokenSet("best posting time")
	assert.Equal(t, 2, tokenOverlapScore(q, "Best time to post is 18:00, best day Friday."))
	assert.Zero(t, tokenOverlapScore(q, "Nothing relevant."))
}

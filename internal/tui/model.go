package tui

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"socialrag/internal/domain"
)

// RAGPort is the TUI-facing subset of the RAG service.
type RAGPort interface {
	Query(query string, topK int) ([]domain.SearchResult, error)
}

// Model is the Bubble Tea model for the TUI application.
type Model struct {
	service   RAGPort
	topK      int
	input     textinput.Model
	viewport  viewport.Model
	results   []domain.SearchResult
	summary   string
	status    string
	cursor    int
	ready     bool
	lastQuery string
}

// New creates a new TUI model instance. topK <= 0 lets the service decide.
func New(service RAGPort, summary string, topK int) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your posts and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{service: service, topK: topK, input: ti, viewport: vp, summary: summary, status: "Index ready. Type to search."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		headerLines := lipgloss.Height(m.header())
		reserved := headerLines + 1 + qh + 1 // status + spacer
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-rh)
		m.viewport.SetContent(m.renderCurrentResult())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD || msg.Type == tea.KeyEsc {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				res, err := m.service.Query(q, m.topK)
				if err != nil {
					m.status = "Error: " + err.Error()
					m.results = nil
				} else {
					m.status = fmt.Sprintf("%d results for %q  (up/down to browse)", len(res), q)
					m.results = res
					m.cursor = 0
					m.lastQuery = q
				}
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderCurrentResult())
				return m, nil
			}
		case "pgdown", "pgup":
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the TUI layout and current result.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	results := resultBoxStyle.Render(m.viewport.View())
	return m.header() + "\n" + results + "\n" + input + "\n" + status
}

func (m Model) header() string {
	title := titleStyle.Render("Social Media Analytics")
	if m.summary == "" {
		return title
	}
	return title + "\n" + summaryStyle.Render(m.summary)
}

func (m Model) renderCurrentResult() string {
	if len(m.results) == 0 {
		return "No results yet."
	}
	r := m.results[m.cursor]
	title := fmt.Sprintf("Result %d/%d  %s  %s  score=%.3f",
		m.cursor+1, len(m.results), levelBadge(r.Level()), idStyle.Render(r.Document.ID), r.Score)
	body := highlightBestSentence(r.Document.Text, m.lastQuery)
	return title + "\n\n" + body
}

var levelColors = map[int]lipgloss.Color{
	domain.LevelPost:          lipgloss.Color("12"),
	domain.LevelDaily:         lipgloss.Color("14"),
	domain.LevelMonthly:       lipgloss.Color("10"),
	domain.LevelPlatform:      lipgloss.Color("11"),
	domain.LevelCrossPlatform: lipgloss.Color("13"),
	domain.LevelStrategic:     lipgloss.Color("9"),
}

// levelBadge renders "L<n> <chunk_type>" on the level's colour.
func levelBadge(level int) string {
	color, ok := levelColors[level]
	if !ok {
		color = lipgloss.Color("8")
	}
	return badgeStyle.Background(color).Render(fmt.Sprintf("L%d %s", level, domain.LevelName(level)))
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	summaryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	idStyle        = lipgloss.NewStyle().Faint(true)
	badgeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Padding(0, 1)
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe  = regexp.MustCompile(`[\p{L}\p{N}]+(?:['’]\p{L}+)*`)
	// terminators inside numbers such as 6.20% do not end a sentence
	sentenceRe = regexp.MustCompile(`(?s)\S.*?[.!?](?:\s+|$)`)
)

func splitSentences(text string) []string {
	var out []string
	for _, s := range sentenceRe.FindAllString(text, -1) {
		out = append(out, strings.TrimSpace(s))
	}
	if rest := strings.TrimSpace(sentenceRe.ReplaceAllString(text, "")); rest != "" {
		out = append(out, rest)
	}
	return out
}

func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := splitSentences(text)
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx, bestScore := 0, -1
	for i, s := range sentences {
		if score := tokenOverlapScore(qTokens, s); score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	sentences[bestIdx] = highlightStyle.Render(sentences[bestIdx])
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	seen := map[string]struct{}{}
	for _, t := range unicodeWordRe.FindAllString(strings.ToLower(sentence), -1) {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}

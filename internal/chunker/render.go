package chunker

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// textWriter renders chunk bodies with grouped thousands.
type textWriter struct {
	b strings.Builder
	p *message.Printer
}

func newTextWriter() *textWriter {
	return &textWriter{p: message.NewPrinter(language.English)}
}

func (w *textWriter) printf(format string, args ...any) {
	w.b.WriteString(w.p.Sprintf(format, args...))
}

func (w *textWriter) sentence(format string, args ...any) {
	if w.b.Len() > 0 {
		w.b.WriteByte(' ')
	}
	w.printf(format, args...)
}

func (w *textWriter) String() string { return w.b.String() }

func (w *textWriter) totals(a aggregate) {
	w.sentence("Totals: %.0f impressions, %.0f reach, %.0f likes, %.0f comments, %.0f shares, %.0f saves, %.0f total engagement.",
		a.impressions, a.reach, a.likes, a.comments, a.shares, a.saves, a.engagement)
	w.sentence("Average engagement rate %.2f%%, average reach %.0f.", a.avgRate(), a.avgReach())
}

func (w *textWriter) best(a aggregate, noun string) {
	if a.best == nil {
		return
	}
	w.sentence("Best %s: %s with %.2f%% engagement rate.", noun, labelOr(a.best.Record.PostID, "unnamed"), a.best.Meta.Performance.EngagementRate)
}

func (w *textWriter) buckets(title string, buckets []bucket) {
	if len(buckets) == 0 {
		return
	}
	parts := make([]string, len(buckets))
	for i, b := range buckets {
		parts[i] = w.p.Sprintf("%s %d posts avg %.2f%%", b.key, b.count, b.avgRate)
	}
	w.sentence("%s: %s.", title, strings.Join(parts, "; "))
}

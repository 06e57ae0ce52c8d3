package render

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/hrygo/geminichat/ai/format"
)

const wordWrap = 80

// Terminal renders a decision for a terminal. Rendering failures degrade to
// the raw content.
func Terminal(d format.Decision) string {
	switch d.Format {
	case format.FormatCode:
		return highlightTerminal(d.Language, d.Content)
	case format.FormatMarkdown:
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wordWrap),
		)
		if err != nil {
			slog.Debug("render: glamour unavailable", "error", err)
			return d.Content
		}
		out, err := r.Render(d.Content)
		if err != nil {
			slog.Debug("render: markdown render failed", "error", err)
			return d.Content
		}
		return strings.TrimRight(out, "\n")
	default:
		return d.Content
	}
}

// Package render turns formatting decisions into HTML for the browser and
// ANSI text for the terminal.
package render

import (
	"bytes"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	gutil "github.com/yuin/goldmark/util"

	"github.com/hrygo/geminichat/ai/format"
)

// PlaceholderImage is shown when an image URL is missing or not allowed.
const PlaceholderImage = "/placeholder.svg"

// Raw HTML in model output is dropped because goldmark's unsafe mode stays off.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(
		renderer.WithNodeRenderers(gutil.Prioritized(&codeBlockRenderer{}, 100)),
	),
)

// HTML renders a decision as an HTML fragment. Model text is never emitted unescaped.
func HTML(d format.Decision) (string, error) {
	switch d.Format {
	case format.FormatCode:
		return codeBlock(d.Language, d.Content)
	case format.FormatMarkdown:
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(d.Content), &buf); err != nil {
			return "", fmt.Errorf("render markdown: %w", err)
		}
		return `<div class="chat-markdown">` + buf.String() + `</div>`, nil
	case format.FormatImage:
		return fmt.Sprintf(`<img class="chat-image" src="%s" alt="Generated image">`,
			html.EscapeString(imageSource(d.Content))), nil
	default:
		return `<div class="chat-text">` + html.EscapeString(d.Content) + `</div>`, nil
	}
}

func codeBlock(language, code string) (string, error) {
	highlighted, sniffed, err := highlightHTML(language, code)
	if err != nil {
		return "", fmt.Errorf("highlight %q: %w", language, err)
	}
	// Untagged blocks inside markdown are labelled with the detected language.
	label := language
	if label == "" {
		label = sniffed
	}
	label = html.EscapeString(label)
	return fmt.Sprintf(`<div class="chat-code language-%s" data-language="%s"><div class="chat-code-lang">%s</div>%s</div>`,
		label, label, label, highlighted), nil
}

// imageSource allows absolute http(s) URLs and root-relative paths.
func imageSource(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return PlaceholderImage
	}
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return PlaceholderImage
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return PlaceholderImage
	}
	return raw
}

// codeBlockRenderer sends fenced blocks inside markdown through the highlighter.
type codeBlockRenderer struct{}

func (r *codeBlockRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(ast.KindFencedCodeBlock, r.renderFencedCodeBlock)
}

func (r *codeBlockRenderer) renderFencedCodeBlock(w gutil.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ast.FencedCodeBlock)

	var code strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		code.Write(seg.Value(source))
	}

	var language string
	if n.Info != nil {
		language = string(n.Language(source))
	}
	out, err := codeBlock(language, code.String())
	if err != nil {
		return ast.WalkStop, err
	}
	_, _ = w.WriteString(out)
	return ast.WalkSkipChildren, nil
}

package render

import (
	"bytes"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

const styleName = "monokai"

var htmlFormatter = chromahtml.New(chromahtml.WithClasses(true))

// lexerFor picks a lexer by tag. Untagged code is sniffed; an unknown tag is
// rendered with the plain-text lexer.
func lexerFor(language, code string) chroma.Lexer {
	var lexer chroma.Lexer
	if language != "" {
		lexer = lexers.Get(language)
	} else {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

func style() *chroma.Style {
	s := styles.Get(styleName)
	if s == nil {
		s = styles.Fallback
	}
	return s
}

// highlightHTML returns class-annotated HTML for code and the name of the
// lexer that was used, e.g. "python" or "plaintext".
func highlightHTML(language, code string) (out, lexerName string, err error) {
	lexer := lexerFor(language, code)
	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "", "", err
	}
	var buf bytes.Buffer
	if err := htmlFormatter.Format(&buf, style(), iterator); err != nil {
		return "", "", err
	}
	return buf.String(), strings.ToLower(strings.ReplaceAll(lexer.Config().Name, " ", "-")), nil
}

// highlightTerminal returns ANSI-colored code. On failure the code is returned as is.
func highlightTerminal(language, code string) string {
	iterator, err := lexerFor(language, code).Tokenise(nil, code)
	if err != nil {
		return code
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style(), iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}

// CSS returns the stylesheet for the classes emitted by HTML.
func CSS() (string, error) {
	var buf bytes.Buffer
	if err := htmlFormatter.WriteCSS(&buf, style()); err != nil {
		return "", err
	}
	return buf.String(), nil
}

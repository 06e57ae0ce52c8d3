// Package format classifies raw model replies as text, markdown or code
// and extracts the displayable payload.
package format

import (
	"regexp"
	"strings"
)

// Format is the rendering target of a reply.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCode     Format = "code"
	// FormatImage is a rendering target only; no rule produces it.
	FormatImage Format = "image"
)

// DefaultLanguage is used when a fenced block carries no language tag.
const DefaultLanguage = "javascript"

// Decision is the classified form of one raw reply.
// Language is set only for FormatCode.
type Decision struct {
	Content  string `json:"content"`
	Format   Format `json:"format"`
	Language string `json:"language,omitempty"`
}

// Valid reports whether f is one of the known formats.
func (f Format) Valid() bool {
	switch f {
	case FormatText, FormatMarkdown, FormatCode, FormatImage:
		return true
	}
	return false
}

// fencedBlockRE matches the first fenced block: opening fence, optional tag, newline,
// body (non-greedy), closing fence.
var fencedBlockRE = regexp.MustCompile("```([a-zA-Z0-9#]+)?\\n([\\s\\S]*?)```")

// Rule is one step of the classification. Match decides whether the rule owns the
// reply; Apply is only called when Match returned true.
type Rule struct {
	Name  string
	Match func(raw string, intent Intent) bool
	Apply func(raw string, intent Intent) Decision
}

// Formatter evaluates its rules top to bottom; the first match wins.
type Formatter struct {
	rules    []Rule
	fallback Rule
}

// NewFormatter returns a formatter with the default rule order:
// fenced-code, markdown-markers, plain-text.
func NewFormatter() *Formatter {
	return NewFormatterWithRules(FencedCodeRule(), MarkdownMarkersRule())
}

// NewFormatterWithRules builds a formatter from custom rules.
// The plain-text rule is always appended as the catch-all.
func NewFormatterWithRules(rules ...Rule) *Formatter {
	return &Formatter{
		rules:    rules,
		fallback: PlainTextRule(),
	}
}

// Rules returns the rule names in evaluation order.
func (f *Formatter) Rules() []string {
	names := make([]string, 0, len(f.rules)+1)
	for _, r := range f.rules {
		names = append(names, r.Name)
	}
	return append(names, f.fallback.Name)
}

// Format classifies raw. It is a pure function of raw and intent.
func (f *Formatter) Format(raw string, intent Intent) Decision {
	for _, r := range f.rules {
		if r.Match(raw, intent) {
			return r.Apply(raw, intent)
		}
	}
	return f.fallback.Apply(raw, intent)
}

var defaultFormatter = NewFormatter()

// Classify runs the default formatter.
func Classify(raw string, intent Intent) Decision {
	return defaultFormatter.Format(raw, intent)
}

// FencedCodeRule claims replies to code requests and any reply containing a fence.
// When no complete block is found the reply is kept whole as markdown.
func FencedCodeRule() Rule {
	return Rule{
		Name: "fenced-code",
		Match: func(raw string, intent Intent) bool {
			return intent.Code || strings.Contains(raw, "```")
		},
		Apply: func(raw string, _ Intent) Decision {
			body, lang, ok := ExtractFirstBlock(raw)
			if !ok {
				return Decision{Content: raw, Format: FormatMarkdown}
			}
			if lang == "" {
				lang = DefaultLanguage
			}
			return Decision{Content: body, Format: FormatCode, Language: lang}
		},
	}
}

// MarkdownMarkersRule claims markdown requests and replies carrying heading,
// bold or underline markers.
func MarkdownMarkersRule() Rule {
	return Rule{
		Name: "markdown-markers",
		Match: func(raw string, intent Intent) bool {
			return intent.Markdown ||
				(strings.Contains(raw, "#") && strings.Contains(raw, "\n")) ||
				strings.Contains(raw, "**") ||
				strings.Contains(raw, "__")
		},
		Apply: func(raw string, _ Intent) Decision {
			return Decision{Content: raw, Format: FormatMarkdown}
		},
	}
}

// PlainTextRule matches everything.
func PlainTextRule() Rule {
	return Rule{
		Name:  "plain-text",
		Match: func(string, Intent) bool { return true },
		Apply: func(raw string, _ Intent) Decision {
			return Decision{Content: raw, Format: FormatText}
		},
	}
}

// ExtractFirstBlock returns the trimmed body and language tag of the first fenced block.
// A block whose body is empty counts as not found. Later blocks are ignored.
func ExtractFirstBlock(raw string) (body, lang string, ok bool) {
	m := fencedBlockRE.FindStringSubmatch(raw)
	if m == nil || m[2] == "" {
		return "", "", false
	}
	return strings.TrimSpace(m[2]), m[1], true
}

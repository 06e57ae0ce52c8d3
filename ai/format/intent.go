package format

import "strings"

var (
	codeKeywords     = []string{"code", "function", "script", "program"}
	markdownKeywords = []string{"markdown", "format", "document"}
)

// Intent holds the format hints sniffed from an outgoing user message.
type Intent struct {
	Code     bool `json:"code"`
	Markdown bool `json:"markdown"`
}

// DetectIntent reports which output format the user appears to ask for.
// Matching is a case-insensitive substring test, so "Functional" counts as a code request.
func DetectIntent(message string) Intent {
	lower := strings.ToLower(message)
	return Intent{
		Code:     containsAny(lower, codeKeywords),
		Markdown: containsAny(lower, markdownKeywords),
	}
}

// Hint renders the intent as a sentence that can be appended to a system instruction.
// Returns an empty string when no signal fired.
func (i Intent) Hint() string {
	switch {
	case i.Code && i.Markdown:
		return "The user is asking for code inside a formatted document: use markdown and fenced code blocks with a language tag."
	case i.Code:
		return "The user is asking for code: put it in a single fenced code block with a language tag."
	case i.Markdown:
		return "The user is asking for formatted text: answer in markdown."
	default:
		return ""
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

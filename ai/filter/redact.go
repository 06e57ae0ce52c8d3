// Package filter masks sensitive values in user text before it reaches logs.
package filter

import (
	"regexp"
	"strings"
)

// FilterType identifies one kind of sensitive value.
type FilterType string

const (
	FilterEmail  FilterType = "email"
	FilterCard   FilterType = "card"
	FilterAPIKey FilterType = "api_key"
	FilterPhone  FilterType = "phone"
)

type pattern struct {
	ft FilterType
	re *regexp.Regexp
}

// Order matters: API keys can contain digit runs that would otherwise match as cards.
var patterns = []pattern{
	{FilterAPIKey, regexp.MustCompile(`\b(?:AIza[0-9A-Za-z_\-]{35}|sk-[A-Za-z0-9_\-]{20,})`)},
	{FilterEmail, regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}\b`)},
	{FilterCard, regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`)},
	{FilterPhone, regexp.MustCompile(`\+?\b\d{3}[ .-]?\d{3,4}[ .-]?\d{4}\b`)},
}

// Redact replaces every sensitive value with a typed placeholder such as "[email]".
func Redact(text string) string {
	for _, p := range patterns {
		text = p.re.ReplaceAllString(text, "["+string(p.ft)+"]")
	}
	return text
}

// Contains reports which kinds of sensitive values appear in text.
func Contains(text string) []FilterType {
	var found []FilterType
	for _, p := range patterns {
		if p.re.MatchString(text) {
			found = append(found, p.ft)
		}
	}
	return found
}

// MaskKey keeps the first and last four characters of a secret, e.g. for
// printing which key is configured.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}

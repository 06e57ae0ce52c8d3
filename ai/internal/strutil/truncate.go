// Package strutil provides string helpers for the ai packages.
package strutil

import "strings"

// Truncate truncates a string to at most maxLen runes, appending "..." when cut.
// Returns empty string if maxLen <= 0.
func Truncate(s string, maxLen int) string {
	if s == "" || maxLen <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// Preview flattens s onto one line and truncates it, for log attributes.
func Preview(s string, maxLen int) string {
	return Truncate(strings.Join(strings.Fields(s), " "), maxLen)
}

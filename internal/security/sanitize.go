// README: Input sanitization for free-text fields (XSS, control characters, length).
package security

import (
	"html"
	"regexp"
	"strings"
)

var (
	controlChars   = regexp.MustCompile("[\x00-\x08\x0b\x0c\x0e-\x1f\x7f]")
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// Sanitize returns a cleaned copy of text safe to store and to embed in a
// prompt: markup-significant characters are HTML-escaped, control characters
// and null bytes are stripped, whitespace runs collapse to a single space, and
// the result is trimmed to maxLength runes. It never fails; the empty string
// is a valid result for fully-invalid input.
func Sanitize(text string, maxLength int) string {
	cleaned := html.EscapeString(strings.TrimSpace(text))
	cleaned = controlChars.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(whitespaceRuns.ReplaceAllString(cleaned, " "))
	if maxLength > 0 {
		if runes := []rune(cleaned); len(runes) > maxLength {
			cleaned = strings.TrimSpace(string(runes[:maxLength]))
		}
	}
	return cleaned
}

// Normalize strips control characters and collapses whitespace without
// escaping markup. Used to prepare text for injection scanning where escaping
// would mask the original payload.
func Normalize(text string) string {
	cleaned := controlChars.ReplaceAllString(strings.TrimSpace(text), "")
	return strings.TrimSpace(whitespaceRuns.ReplaceAllString(cleaned, " "))
}

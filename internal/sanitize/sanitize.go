// Package sanitize cleans user-supplied text before it reaches the message
// bank or the rendering collaborators. It strips control characters and
// markup, collapses whitespace, and enforces length limits while keeping
// emoji and the {name} placeholder intact.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/nvandessel/pixelplant/internal/constants"
	"github.com/nvandessel/pixelplant/internal/models"
)

// Pre-compiled regular expressions for performance.
var (
	// reXMLTag matches XML/HTML tags including those with attributes and self-closing tags.
	reXMLTag = regexp.MustCompile(`<[/?!]?[a-zA-Z][a-zA-Z0-9]*(?:\s+[^>]*)?/?>|<\?[^?]*\?>`)

	// reWhitespace matches runs of whitespace.
	reWhitespace = regexp.MustCompile(`\s+`)

	// reBraceToken matches {tokens} other than the name placeholder.
	reBraceToken = regexp.MustCompile(`\{[^{}]*\}`)
)

// MessageText sanitizes a message template for display on the device.
//
// The pipeline runs in this order:
//  1. Strip null bytes and control characters (newlines become spaces)
//  2. Strip XML/HTML tags
//  3. Drop brace tokens other than {name}
//  4. Collapse whitespace runs to a single space and trim
//  5. Truncate to constants.MaxMessageLen runes
func MessageText(input string) string {
	if input == "" {
		return ""
	}

	s := stripControlChars(input)
	s = reXMLTag.ReplaceAllString(s, "")
	s = reBraceToken.ReplaceAllStringFunc(s, func(tok string) string {
		if tok == models.NamePlaceholder {
			return tok
		}
		return ""
	})
	s = reWhitespace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	return truncateRunes(s, constants.MaxMessageLen)
}

// UserName sanitizes a display name. Markup is removed first, then only
// letters, digits, spaces, hyphens, apostrophes and dots are kept. The result
// is at most constants.MaxUserNameLen runes.
func UserName(input string) string {
	if input == "" {
		return ""
	}

	input = reXMLTag.ReplaceAllString(input, "")

	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '-', r == '\'', r == '.':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	s := reWhitespace.ReplaceAllString(b.String(), " ")
	s = strings.TrimSpace(s)
	return strings.TrimSpace(truncateRunes(s, constants.MaxUserNameLen))
}

// stripControlChars removes control characters. Newlines and tabs become
// spaces so words stay separated.
func stripControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n', r == '\t', r == '\r':
			b.WriteRune(' ')
		case unicode.IsControl(r):
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

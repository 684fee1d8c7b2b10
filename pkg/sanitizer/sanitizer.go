package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var reWhitespace = regexp.MustCompile(`\s+`)

func trimAndLower(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return s
}

// SanitizeIdentifier trims an opaque id such as a provider or patient id.
// Inner characters are left alone because ids are compared byte for byte.
func SanitizeIdentifier(input string) string {
	return strings.TrimSpace(input)
}

// SanitizeKeyword normalizes enum-like values ("Cancel ", "ONLINE") and
// joins inner whitespace with underscores, so "In Progress" becomes
// "in_progress".
func SanitizeKeyword(input string) string {
	p := Pipeline{
		trimAndLower,
		func(s string) string { return reWhitespace.ReplaceAllString(s, "_") },
	}
	return p.Apply(input)
}

// SanitizeText cleans human written text like a cancel reason: runs of
// whitespace become one space, control and invisible format characters
// (zero-width joiners, bidi overrides) are dropped, and the ends are trimmed.
func SanitizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))

	pendingSpace := false
	for _, r := range input {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case unicode.IsControl(r), unicode.Is(unicode.Cf, r):
		default:
			if pendingSpace {
				b.WriteByte(' ')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

package textutil

import (
	"regexp"
	"strings"
	"unicode"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Fold trims the string and collapses every interior whitespace run
// into a single space.
func Fold(s string) string {
	s = strings.Trim(s, " \n\t")
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// NormalizeField prepares a record field for comparison and
// fingerprinting: lowercased, trimmed, interior whitespace folded.
func NormalizeField(s string) string {
	return Fold(strings.ToLower(s))
}

// StripNonPrint drops non-printable runes, they show up in scraped
// text as zero-width junk that breaks label matching.
func StripNonPrint(s string) string {
	out := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			out.WriteRune(c)
		}
	}
	return out.String()
}

// MatchAny reports whether the folded, lowercased text contains any of
// the given matchers.
func MatchAny(text string, matchers []string) bool {
	text = NormalizeField(text)
	for _, m := range matchers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

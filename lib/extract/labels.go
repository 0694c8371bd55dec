package extract

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"
)

// Breed club pages are hand edited, so the same label shows up as
// "Telefoon", "telefoon:" or the occasional typo. Labels long enough to
// be distinctive are matched fuzzily; short ones like "Reu" are matched
// exactly because near-misses are common Dutch words.
const labelSimilarity = 0.93

var (
	numericDate  = regexp.MustCompile(`\d{1,2}[-/]\d{1,2}[-/]\d{2,4}`)
	phonePattern = regexp.MustCompile(`\d{2,4}[-\s]?\d{6,}`)
	emailPattern = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)
	sitePattern  = regexp.MustCompile(`(?:https?://)?(?:www\.)?[\w.-]+\.\w{2,}(?:/\S*)?`)
)

// hasLabel reports whether text carries the given field label, either
// verbatim or as a word within JaroWinkler distance of it.
func hasLabel(text, label string) bool {
	if strings.Contains(text, label) {
		return true
	}
	lowered := strings.ToLower(label)
	for _, word := range splitWords(text) {
		if matchr.JaroWinkler(strings.ToLower(word), lowered, false) >= labelSimilarity {
			return true
		}
	}
	return false
}

func splitWords(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '-'
	})
}

// labelValue returns the trimmed text after the first colon, the usual
// "Fokker: J. Jansen" shape.
func labelValue(text string) string {
	_, value, found := strings.Cut(text, ":")
	if !found {
		return ""
	}
	return strings.TrimSpace(value)
}

// dateNear returns the first numeric date following the label, or the
// first date anywhere in the text when the label only fuzzy-matched.
func dateNear(text, label string) string {
	if i := strings.Index(text, label); i >= 0 {
		return numericDate.FindString(text[i:])
	}
	return numericDate.FindString(text)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

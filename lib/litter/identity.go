package litter

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"litterwatch/lib/textutil"
)

// A litter's identity is derived from who bred it and when it is due:
// breeder, mating date and expected birth date, in that order. The
// other fields get reworded between visits without the litter being a
// new one, so they stay out of the digest.
func definingFields(l Litter) []string {
	return []string{
		textutil.NormalizeField(l.Breeder),
		textutil.NormalizeField(l.MatingDate),
		textutil.NormalizeField(l.ExpectedDate),
	}
}

// Identifiable reports whether at least one defining field is present.
// Records without any cannot be tracked across cycles and are never
// persisted.
func Identifiable(l Litter) bool {
	for _, f := range definingFields(l) {
		if f != "" {
			return true
		}
	}
	return false
}

// Fingerprint returns a stable hex digest over the normalized defining
// fields. Whitespace and casing drift in the source markup does not
// change it.
func Fingerprint(l Litter) string {
	sum := sha256.Sum256([]byte(strings.Join(definingFields(l), "-")))
	return hex.EncodeToString(sum[:])
}

// Tag stamps source metadata and the fingerprint onto every
// identifiable record and drops the rest.
func Tag(litters []Litter, source, sourceURL string) []Litter {
	tagged := make([]Litter, 0, len(litters))
	for _, l := range litters {
		if !Identifiable(l) {
			continue
		}
		l.Source = source
		l.SourceURL = sourceURL
		l.ID = Fingerprint(l)
		tagged = append(tagged, l)
	}
	return tagged
}

package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes and drops combining marks so that accented and
// unaccented spellings of the same course compare equal.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize canonicalizes a course code or name for comparison: accents are
// stripped, the result is uppercased, and punctuation is removed. With
// stripAll set every non-alphanumeric rune is dropped (code form); otherwise
// whitespace runs collapse to a single space (name form). Never fails; empty
// input yields the empty string.
func Normalize(s string, stripAll bool) string {
	if s == "" {
		return ""
	}
	folded, _, err := transform.String(stripMarks, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToUpper(folded)

	var b strings.Builder
	b.Grow(len(folded))
	pendingSpace := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		case !stripAll && unicode.IsSpace(r):
			pendingSpace = true
		}
	}
	return b.String()
}

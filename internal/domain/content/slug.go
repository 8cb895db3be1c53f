package content

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultSlug is used when nothing usable survives slugification.
const DefaultSlug = "article"

const maxSlugRunes = 96

// Slugify lowercases s, strips diacritics and collapses every run of
// non-alphanumeric runes into a single hyphen. The result is never empty and
// Slugify(Slugify(s)) == Slugify(s).
func Slugify(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultSlug
	}
	if stripped, _, err := transform.String(diacritics(), s); err == nil {
		s = stripped
	}

	var out []rune
	lastDash := false

	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]

		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			out = append(out, unicode.ToLower(r))
			lastDash = false
		default:
			if !lastDash && len(out) > 0 {
				out = append(out, '-')
				lastDash = true
			}
		}
	}
	if len(out) > maxSlugRunes {
		out = out[:maxSlugRunes]
	}
	for len(out) > 0 && out[len(out)-1] == '-' {
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return DefaultSlug
	}
	return string(out)
}

func diacritics() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

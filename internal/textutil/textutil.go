// Package textutil derives URL slugs and display names from free text.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxSlugLength is the column width of every slug column.
const MaxSlugLength = 255

// Slugify lower-cases s, folds accents to ASCII and joins the remaining
// letter and digit runs with dashes: "Thunder Bay" → "thunder-bay",
// "violent_crime" → "violent-crime".
func Slugify(s string) string {
	folded := foldAccents(s)

	var b strings.Builder
	b.Grow(len(folded))

	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingDash = false
			continue
		}
		pendingDash = true
	}

	return b.String()
}

// TruncateSlug cuts slug to at most n bytes without leaving a trailing dash.
func TruncateSlug(slug string, n int) string {
	if len(slug) <= n {
		return slug
	}
	return strings.TrimRight(slug[:n], "-")
}

// Title upper-cases the first letter of every word and lower-cases the rest.
func Title(s string) string {
	return cases.Title(language.English).String(s)
}

// Humanize turns a slug into a display name: "thunder-bay" → "Thunder Bay".
func Humanize(slug string) string {
	return Title(strings.NewReplacer("-", " ", "_", " ").Replace(slug))
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

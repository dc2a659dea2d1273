package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// glyphReplacer maps typographic variants onto their ASCII equivalents and
// drops trademark symbols that storefronts add inconsistently.
var glyphReplacer = strings.NewReplacer(
	"™", "",
	"®", "",
	"©", "",
	"‘", "'",
	"’", "'",
	"“", "\"",
	"”", "\"",
	"–", "-",
	"—", "-",
)

// SanitizeTitle strips diacritics and decorative glyphs from title and
// collapses internal whitespace. Case is preserved.
func SanitizeTitle(title string) string {
	title = glyphReplacer.Replace(title)
	chain := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(chain, title)
	if err != nil {
		stripped = title
	}
	return strings.Join(strings.Fields(stripped), " ")
}

// NormalizeTitle returns the comparison form of title: sanitized and case folded.
// A Caser is stateful, so one is built per call.
func NormalizeTitle(title string) string {
	return cases.Fold().String(SanitizeTitle(title))
}

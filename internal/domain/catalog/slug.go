package catalog

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonSlugChars = regexp.MustCompile(`[^a-zA-Z0-9-]+`)
	hyphenRuns   = regexp.MustCompile(`-{2,}`)

	// letters that do not decompose into a base letter plus marks
	ligatures = strings.NewReplacer(
		"ß", "ss",
		"Æ", "AE", "æ", "ae",
		"Œ", "OE", "œ", "oe",
		"Ø", "O", "ø", "o",
		"Ł", "L", "ł", "l",
		"Đ", "D", "đ", "d",
		"Þ", "Th", "þ", "th",
	)
)

// Transliterate maps s to its closest ASCII form by dropping combining marks
func Transliterate(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, ligatures.Replace(s))
	if err != nil {
		return s
	}
	return out
}

// Slugify turns a display name into a URL slug: transliterated, lower-cased,
// trimmed, with every run of other characters collapsed into one hyphen
func Slugify(name string) string {
	s := strings.TrimSpace(strings.ToLower(Transliterate(name)))
	s = nonSlugChars.ReplaceAllString(s, "-")
	s = hyphenRuns.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// WithSuffix appends "-suffix" to slug
func WithSuffix(slug, suffix string) string {
	if slug == "" {
		return suffix
	}
	return slug + "-" + suffix
}

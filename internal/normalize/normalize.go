// Package normalize provides French-aware text canonicalization, the ingredient
// equivalence table, and the culinary knowledge graph used for query understanding.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	htmlEntityRe = regexp.MustCompile(`&[a-z]+;`)
	nonWordRe    = regexp.MustCompile(`[^a-z0-9\s\-']`)
	spaceRe      = regexp.MustCompile(`\s+`)

	deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

// Text canonicalizes free text for matching: lowercase, accents stripped,
// HTML entities decoded, punctuation collapsed, whitespace normalized.
func Text(s string) string {
	if s == "" {
		return ""
	}
	s = strings.NewReplacer("&#039;", "'", "&quot;", `"`, "&amp;", "&").Replace(s)
	s = htmlEntityRe.ReplaceAllString(s, "")
	s = strings.ToLower(s)
	if folded, _, err := transform.String(deaccent, s); err == nil {
		s = folded
	}
	s = nonWordRe.ReplaceAllString(s, " ")
	return spaceRe.ReplaceAllString(strings.TrimSpace(s), " ")
}

// dish spelling variants folded onto a canonical form
var dishVariants = map[string]string{
	"houmous":   "hummus",
	"hommos":    "hummus",
	"taboule":   "tabbouleh",
	"tabboule":  "tabbouleh",
	"kebbe":     "kibbeh",
	"kibbe":     "kibbeh",
	"kafta":     "kofta",
	"kefta":     "kofta",
	"labne":     "labneh",
	"moutabbal": "mutabbal",
	"mtabbal":   "mutabbal",
}

// RecipeName canonicalizes a dish name, folding common Levantine spelling
// variants onto a single form so "taboulé" and "tabbouleh" compare equal.
// Variants fold per whole token, never per substring.
func RecipeName(name string) string {
	words := strings.Fields(Text(name))
	for i, w := range words {
		if canonical, ok := dishVariants[w]; ok {
			words[i] = canonical
		}
	}
	return strings.Join(words, " ")
}

var frenchStopwords = map[string]struct{}{
	"le": {}, "la": {}, "les": {}, "un": {}, "une": {}, "des": {}, "de": {}, "du": {},
	"au": {}, "aux": {}, "et": {}, "ou": {}, "mais": {}, "donc": {}, "ni": {}, "car": {},
	"pour": {}, "par": {}, "avec": {}, "sans": {}, "sur": {}, "sous": {}, "dans": {},
	"en": {}, "a": {}, "ce": {}, "cette": {}, "ces": {}, "mon": {}, "ma": {}, "mes": {},
	"ton": {}, "ta": {}, "tes": {}, "son": {}, "sa": {}, "ses": {}, "notre": {}, "nos": {},
	"votre": {}, "vos": {}, "leur": {}, "leurs": {}, "qui": {}, "que": {}, "quoi": {},
	"dont": {}, "quand": {}, "comment": {},
	"d": {}, "l": {}, "c": {}, "s": {}, "m": {}, "t": {}, "n": {}, "j": {},
}

// Keywords extracts substantive terms from text, dropping French stopwords
// and tokens shorter than three characters.
func Keywords(text string) []string {
	words := strings.Fields(Text(text))
	keywords := make([]string, 0, len(words))
	for _, w := range words {
		if _, stop := frenchStopwords[w]; stop || len(w) <= 2 {
			continue
		}
		keywords = append(keywords, w)
	}
	return keywords
}

// Searchable joins non-empty fields into one normalized blob for indexing.
func Searchable(fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			parts = append(parts, f)
		}
	}
	return Text(strings.Join(parts, " "))
}

// SlugFromURL extracts the article slug from a publication URL,
// e.g. ".../1227694/le-vrai-taboule.html" -> "le-vrai-taboule".
func SlugFromURL(url string) string {
	trimmed := strings.TrimRight(url, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx == -1 {
		return ""
	}
	slug := strings.TrimSuffix(trimmed[idx+1:], ".html")
	if i := strings.IndexByte(slug, '-'); i > 0 {
		if _, allDigits := digitsPrefix(slug[:i]); allDigits {
			slug = slug[i+1:]
		}
	}
	return slug
}

func digitsPrefix(s string) (string, bool) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return s, false
		}
	}
	return s, s != ""
}

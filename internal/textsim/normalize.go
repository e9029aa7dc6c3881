package textsim

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnumRun = regexp.MustCompile(`[^a-z0-9]+`)
	wordRun     = regexp.MustCompile(`[a-z0-9]+`)
	spaceRun    = regexp.MustCompile(`\s+`)
	punctuation = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s-]`)
)

// contentStopwords are dropped by ContentTokens. The list covers the articles
// and prepositions of Portuguese, Spanish and English titles.
var contentStopwords = map[string]struct{}{
	"a": {}, "o": {}, "as": {}, "os": {}, "de": {}, "da": {}, "do": {}, "das": {}, "dos": {},
	"e": {}, "em": {}, "na": {}, "no": {}, "nas": {}, "nos": {},
	"the": {}, "of": {}, "el": {}, "la": {}, "los": {}, "las": {}, "un": {}, "una": {}, "y": {}, "en": {},
}

// stripMarks returns a transformer that decomposes text (NFKD) and drops the
// resulting combining marks. Transformers carry state, so one is built per call.
func stripMarks() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
}

// Normalize returns the diacritic-insensitive, lowercase form of text with every
// run of non [a-z0-9] characters collapsed to a single space. Empty input yields
// an empty string. Normalize is idempotent.
func Normalize(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return ""
	}

	if stripped, _, err := transform.String(stripMarks(), s); err == nil {
		s = stripped
	}

	s = nonAlnumRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Tokenize extracts the maximal [a-z0-9]+ runs of the normalized text.
// Order and duplicates are preserved.
func Tokenize(text string) []string {
	return wordRun.FindAllString(Normalize(text), -1)
}

// tokenSet builds a membership set from tokens.
func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// Fold lowercases text, collapses whitespace and removes punctuation while
// keeping accented letters and hyphens. It is the normalization behind work keys
// and cache keys, where "Memórias" and "Memorias" must stay distinct.
func Fold(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = spaceRun.ReplaceAllString(s, " ")
	return punctuation.ReplaceAllString(s, "")
}

// ContentTokens splits the folded text on whitespace and drops stopwords and
// single-character tokens.
func ContentTokens(text string) []string {
	fields := strings.Fields(Fold(text))
	out := fields[:0]
	for _, f := range fields {
		if _, stop := contentStopwords[f]; stop || utf8.RuneCountInString(f) <= 1 {
			continue
		}
		out = append(out, f)
	}
	return out
}

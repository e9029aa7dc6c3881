package scoring

import (
	"strings"

	"github.com/helixir/bibliomatch-service/internal/textsim"
)

// Fuzzy recall thresholds per field.
const (
	TitleFuzzyMinRatio  = 0.80
	AuthorFuzzyMinRatio = 0.84
)

// titleStopwords are ignored by the lexical precision term of TitleScore.
var titleStopwords = map[string]struct{}{
	"a": {}, "as": {}, "o": {}, "os": {}, "de": {}, "do": {}, "da": {}, "dos": {}, "das": {},
	"e": {}, "em": {}, "no": {}, "na": {}, "nos": {}, "nas": {}, "um": {}, "uma": {},
}

// FieldScore returns the most optimistic of three heuristics: the raw sequence
// ratio, 0.70 whole-word + 0.30 sequence, and 0.55 whole-word + 0.25 sequence +
// 0.20 partial. A blank query scores 0.
func FieldScore(query, candidate string) float64 {
	if strings.TrimSpace(query) == "" {
		return 0
	}

	seq := textsim.SequenceRatio(query, candidate)
	whole := textsim.WholeWordOverlap(query, candidate)
	part := textsim.PartialTokenScore(query, candidate)

	return max(
		seq,
		0.70*whole+0.30*seq,
		0.55*whole+0.25*seq+0.20*part,
	)
}

// TitleScore is 0.55 FieldScore + 0.35 fuzzy recall + 0.10 stopword-free exact
// token hit ratio.
func TitleScore(query, candidate string) float64 {
	if strings.TrimSpace(query) == "" {
		return 0
	}

	base := FieldScore(query, candidate)
	fuzzy := textsim.FuzzyTokenRecall(query, candidate, TitleFuzzyMinRatio)

	return 0.55*base + 0.35*fuzzy + 0.10*lexicalHitRatio(query, candidate)
}

// AuthorScore is 0.50 FieldScore + 0.30 fuzzy recall + 0.20 last-name score.
func AuthorScore(query, candidate string) float64 {
	if strings.TrimSpace(query) == "" {
		return 0
	}

	base := FieldScore(query, candidate)
	fuzzy := textsim.FuzzyTokenRecall(query, candidate, AuthorFuzzyMinRatio)
	lastName := textsim.LastNameScore(query, candidate)

	return 0.50*base + 0.30*fuzzy + 0.20*lastName
}

func lexicalHitRatio(query, candidate string) float64 {
	var qTokens []string
	for _, t := range textsim.Tokenize(query) {
		if _, stop := titleStopwords[t]; !stop {
			qTokens = append(qTokens, t)
		}
	}
	if len(qTokens) == 0 {
		return 0
	}

	cTokens := make(map[string]struct{})
	for _, t := range textsim.Tokenize(candidate) {
		cTokens[t] = struct{}{}
	}

	hits := 0
	for _, t := range qTokens {
		if _, ok := cTokens[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(qTokens))
}

package textsim

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Year proximity tiers used by YearProximity.
const (
	YearExactScore   = 1.0
	YearOffByOne     = 0.6
	YearWithinThree  = 0.3
	yearNearDistance = 3
)

// MaxYear is the largest year YearProximity accepts on either side.
const MaxYear = 9999

// LastNameMinRatio is the token-pair ratio at which a surname counts as matched.
const LastNameMinRatio = 0.85

var nonDigit = regexp.MustCompile(`[^0-9]`)

// ratio computes the Ratcliff/Obershelp similarity of two strings compared rune by
// rune. Arguments are ordered before matching so the result is symmetric. Two empty
// strings are identical (1.0); one empty side yields 0.
func ratio(a, b string) float64 {
	if a > b {
		a, b = b, a
	}
	return difflib.NewMatcher(splitRunes(a), splitRunes(b)).Ratio()
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// SequenceRatio returns 2*M/(|a|+|b|) over the normalized inputs, where M is the
// total size of the matching blocks. It returns 0 when either side normalizes to
// an empty string.
func SequenceRatio(a, b string) float64 {
	a, b = Normalize(a), Normalize(b)
	if a == "" || b == "" {
		return 0
	}
	return ratio(a, b)
}

// Similarity is the sequence ratio of the lowercased inputs without any other
// normalization. Unlike SequenceRatio it reports 1.0 for two empty strings.
func Similarity(a, b string) float64 {
	return ratio(strings.ToLower(a), strings.ToLower(b))
}

// WholeWordOverlap is the fraction of query tokens that appear verbatim among the
// candidate's tokens.
func WholeWordOverlap(query, candidate string) float64 {
	qTokens := Tokenize(query)
	if len(qTokens) == 0 {
		return 0
	}
	cSet := tokenSet(Tokenize(candidate))

	hits := 0
	for _, t := range qTokens {
		if _, ok := cSet[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(qTokens))
}

// PartialTokenScore is the fraction of query tokens found as a substring of the
// candidate's normalized text.
func PartialTokenScore(query, candidate string) float64 {
	qTokens := Tokenize(query)
	cNorm := Normalize(candidate)
	if len(qTokens) == 0 || cNorm == "" {
		return 0
	}

	hits := 0
	for _, t := range qTokens {
		if strings.Contains(cNorm, t) {
			hits++
		}
	}
	return float64(hits) / float64(len(qTokens))
}

// FuzzyTokenRecall averages, over query tokens, 1.0 when the best ratio against any
// candidate token reaches minRatio and best*0.5 otherwise.
func FuzzyTokenRecall(query, candidate string, minRatio float64) float64 {
	qTokens := Tokenize(query)
	cTokens := Tokenize(candidate)
	if len(qTokens) == 0 || len(cTokens) == 0 {
		return 0
	}

	var hits float64
	for _, qt := range qTokens {
		best := 0.0
		for _, ct := range cTokens {
			if r := ratio(qt, ct); r > best {
				best = r
			}
			if best >= 1 {
				break
			}
		}
		if best >= minRatio {
			hits++
		} else {
			hits += best * 0.5
		}
	}
	return hits / float64(len(qTokens))
}

// LastNameScore reports 1.0 when the last token of queryAuthor equals a candidate
// token, or when its best ratio against a candidate token is at least
// LastNameMinRatio. Otherwise it is 0.
func LastNameScore(queryAuthor, candidateAuthor string) float64 {
	qTokens := Tokenize(queryAuthor)
	cTokens := Tokenize(candidateAuthor)
	if len(qTokens) == 0 || len(cTokens) == 0 {
		return 0
	}

	last := qTokens[len(qTokens)-1]
	best := 0.0
	for _, ct := range cTokens {
		if ct == last {
			return 1
		}
		if r := ratio(last, ct); r > best {
			best = r
		}
	}
	if best >= LastNameMinRatio {
		return 1
	}
	return 0
}

// YearProximity scores how close candidateYear is to queryYear: exact 1.0, one
// year apart 0.6, up to three years apart 0.3, otherwise 0. Digits are extracted
// from the query; the candidate may be a decimal such as "1899.0". Unparseable
// input on either side, or a year outside 0..MaxYear, yields 0.
func YearProximity(queryYear, candidateYear string) float64 {
	q := nonDigit.ReplaceAllString(Normalize(queryYear), "")
	if q == "" {
		return 0
	}
	qVal, err := strconv.Atoi(q)
	if err != nil || qVal > MaxYear {
		return 0
	}

	c, err := strconv.ParseFloat(strings.TrimSpace(candidateYear), 64)
	if err != nil || math.IsNaN(c) || c < 0 || c >= MaxYear+1 {
		return 0
	}
	cVal := int(c)

	delta := qVal - cVal
	if delta < 0 {
		delta = -delta
	}
	switch {
	case delta == 0:
		return YearExactScore
	case delta == 1:
		return YearOffByOne
	case delta <= yearNearDistance:
		return YearWithinThree
	default:
		return 0
	}
}

package reconcile

import (
	"math"
	"slices"
	"strconv"

	"github.com/helixir/bibliomatch-service/internal/domain"
	"github.com/helixir/bibliomatch-service/internal/textsim"
)

// Confidence weights per compared field.
const (
	confTitle     = 4.0
	confYear      = 3.0
	confPublisher = 2.0
	confAuthor    = 3.0
)

// confidenceWindow is how many top records are compared pairwise.
const confidenceWindow = 5

// Confidence measures how much the top records agree. Fewer than two records is
// a unique source at 100%. Otherwise every pair among the first five is compared
// on the fields both records carry, and the median pair percentage, rounded to
// two decimals, is classified.
func Confidence(records []*domain.Record) domain.ConfidenceReport {
	if len(records) < 2 {
		return domain.ConfidenceReport{
			ScorePercent:   100,
			Classification: domain.ConfidenceUniqueSource,
		}
	}

	top := records[:min(len(records), confidenceWindow)]
	var pairs []float64
	for i := range top {
		for j := i + 1; j < len(top); j++ {
			if pct, ok := pairAgreement(top[i], top[j]); ok {
				pairs = append(pairs, pct)
			}
		}
	}

	var index float64
	if len(pairs) > 0 {
		index = math.Round(median(pairs)*100) / 100
	}
	return domain.ConfidenceReport{
		ScorePercent:   index,
		Classification: domain.ClassifyConfidence(index),
	}
}

// pairAgreement is the weighted similarity percentage of two records over the
// fields present in both. ok is false when they share no field.
func pairAgreement(a, b *domain.Record) (float64, bool) {
	var score, weight float64
	add := func(x, y string, w float64) {
		if x != "" && y != "" {
			score += textsim.Similarity(x, y) * w
			weight += w
		}
	}

	add(comparableTitle(a.Title), comparableTitle(b.Title), confTitle)
	add(yearString(a.Year), yearString(b.Year), confYear)
	add(textsim.Fold(a.Publisher), textsim.Fold(b.Publisher), confPublisher)
	add(textsim.Fold(a.PrimarySurname()), textsim.Fold(b.PrimarySurname()), confAuthor)

	if weight == 0 {
		return 0, false
	}
	return score / weight * 100, true
}

func yearString(raw string) string {
	if y := YearInt(raw); y != 0 {
		return strconv.Itoa(y)
	}
	return ""
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	v := slices.Clone(values)
	slices.Sort(v)
	mid := len(v) / 2
	if len(v)%2 == 1 {
		return v[mid]
	}
	return (v[mid-1] + v[mid]) / 2
}

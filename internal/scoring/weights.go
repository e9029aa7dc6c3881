// Package scoring combines textsim signals into per-field scores, applies the
// contradiction penalties and weights fields into a single match score.
package scoring

import (
	"maps"
	"slices"
)

// Field identifies a query field that participates in weighted scoring.
type Field string

const (
	FieldAuthor Field = "author"
	FieldTitle  Field = "title"
	FieldYear   Field = "year"
	FieldExtra  Field = "extra"
)

// ScoreWeights maps each field to its base weight. Weights are renormalized at
// evaluation time over the fields present in the query.
type ScoreWeights map[Field]float64

// DefaultLocalWeights are the base weights of the local matcher.
func DefaultLocalWeights() ScoreWeights {
	return ScoreWeights{
		FieldAuthor: 0.55,
		FieldTitle:  0.30,
		FieldYear:   0.12,
		FieldExtra:  0.03,
	}
}

// Active returns the weights restricted to the present fields, rescaled so they sum
// to 1. When no present field carries weight the result is empty.
func (w ScoreWeights) Active(present map[Field]bool) ScoreWeights {
	var total float64
	for _, f := range slices.Sorted(maps.Keys(w)) {
		if present[f] {
			total += w[f]
		}
	}
	if total <= 0 {
		return ScoreWeights{}
	}

	out := make(ScoreWeights, len(w))
	for f, weight := range w {
		if present[f] {
			out[f] = weight / total
		}
	}
	return out
}

// Combine computes the weighted sum of scores under the renormalized weights.
// Fields missing from present contribute nothing; if none are present the result
// is 0. Fields are summed in a fixed order so equal inputs give equal outputs.
func (w ScoreWeights) Combine(scores map[Field]float64, present map[Field]bool) float64 {
	active := w.Active(present)

	var sum float64
	for _, f := range slices.Sorted(maps.Keys(active)) {
		sum += active[f] * scores[f]
	}
	return sum
}

// Package localmatch ranks the rows of a curated reference spreadsheet against a
// partial query.
package localmatch

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/helixir/bibliomatch-service/internal/domain"
	"github.com/helixir/bibliomatch-service/internal/scoring"
	"github.com/helixir/bibliomatch-service/internal/textsim"
)

const (
	// DefaultTopK is used when Options.TopK is not positive.
	DefaultTopK = 10

	// MinScore is the score at or below which a row is discarded.
	MinScore = 0.03

	// BookBoost is added to the rounded score of book rows.
	BookBoost = 0.08
)

// bookKinds are the normalized kind labels that receive BookBoost.
var bookKinds = map[string]struct{}{"livro": {}, "book": {}}

// Query holds the fields of a local search. Blank fields are inactive.
type Query struct {
	Author string `json:"author"`
	Title  string `json:"title"`
	Year   string `json:"year"`
	Extra  string `json:"extra"`
}

// Options tunes a search.
type Options struct {
	TopK      int
	Penalties scoring.PenaltyOptions
}

// DefaultOptions returns the top-k and penalty defaults.
func DefaultOptions() Options {
	return Options{
		TopK:      DefaultTopK,
		Penalties: scoring.DefaultPenaltyOptions(),
	}
}

// Matcher scores every dataset row against a query. It is safe for concurrent
// use; the dataset is never mutated after construction.
type Matcher struct {
	rows    []Row
	weights scoring.ScoreWeights
}

// NewMatcher creates a matcher over ds using the default local weights.
func NewMatcher(ds *Dataset) *Matcher {
	return &Matcher{
		rows:    ds.Rows,
		weights: scoring.DefaultLocalWeights(),
	}
}

// Len returns the number of rows in the dataset.
func (m *Matcher) Len() int {
	return len(m.rows)
}

// Search returns at most opts.TopK rows ordered by descending score. Rows with
// equal scores keep dataset order.
func (m *Matcher) Search(q Query, opts Options) []domain.LocalMatch {
	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	present := map[scoring.Field]bool{
		scoring.FieldAuthor: strings.TrimSpace(q.Author) != "",
		scoring.FieldTitle:  strings.TrimSpace(q.Title) != "",
		scoring.FieldYear:   strings.TrimSpace(q.Year) != "",
		scoring.FieldExtra:  strings.TrimSpace(q.Extra) != "",
	}

	var matches []domain.LocalMatch
	for _, row := range m.rows {
		score := m.score(q, row, present, opts.Penalties)
		if score <= MinScore {
			continue
		}

		_, isBook := bookKinds[textsim.Normalize(row.Kind)]
		score = math.Round(score*1e4) / 1e4
		if isBook {
			score += BookBoost
		}

		matches = append(matches, domain.LocalMatch{
			Score:  score,
			IsBook: isBook,
			Ref:    row.Ref,
		})
	}

	slices.SortStableFunc(matches, func(a, b domain.LocalMatch) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

func (m *Matcher) score(q Query, row Row, present map[scoring.Field]bool, p scoring.PenaltyOptions) float64 {
	scores := map[scoring.Field]float64{
		scoring.FieldTitle:  scoring.TitleScore(q.Title, row.Title),
		scoring.FieldAuthor: scoring.AuthorScore(q.Author, row.Author),
		scoring.FieldYear:   textsim.YearProximity(q.Year, row.Year),
		scoring.FieldExtra:  scoring.FieldScore(q.Extra, row.Extra),
	}

	score := m.weights.Combine(scores, present)

	if p.Author.Enabled {
		score = scoring.ApplyAuthorPenalty(score,
			scores[scoring.FieldAuthor], scores[scoring.FieldTitle],
			present[scoring.FieldAuthor], p.Author.Factor)
	}
	if p.Year.Enabled {
		score = scoring.ApplyYearPenalty(score,
			scores[scoring.FieldYear], present[scoring.FieldYear], p.Year.Factor,
			scores[scoring.FieldAuthor], scores[scoring.FieldTitle])
	}
	return score
}

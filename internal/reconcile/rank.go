package reconcile

import (
	"math"
	"slices"
	"strings"

	"github.com/helixir/bibliomatch-service/internal/domain"
	"github.com/helixir/bibliomatch-service/internal/textsim"
)

// Ranking weights.
const (
	rankTitleQuery       = 6.0
	rankSurnameQuery     = 5.0
	rankHasPublisher     = 0.5
	rankHasPages         = 0.3
	rankYearDivisor      = 10000.0
	rankDerivativeMarker = 2.5
	rankArticleJournal   = 0.6
	rankRichness         = 1.1

	rankTitleCriterion     = 8.0
	rankAuthorCriterion    = 7.0
	rankSurnameCriterion   = 3.0
	rankCombined           = 10.0
	rankCombinedTitleShare = 0.6
	rankCombinedMismatch   = 4.0
	rankCombinedTitleFloor = 0.45
	rankCombinedAuthorMin  = 0.35

	rankYearExact     = 3.0
	rankYearNearBase  = 1.5
	rankYearNearStep  = 0.3
	rankJournal       = 6.0
	rankPublisher     = 4.0
	rankIdentifierHit = 10.0
	rankKindMatch     = 2.0
	rankKindMismatch  = 1.5
)

// derivativeMarkers in a lowercased title cost rankDerivativeMarker each.
var derivativeMarkers = []string{
	"resumo", "summary", "baseado", "based on", "adaptação", "adaptação gráfica", "hq",
	"graphic", "mangá", "manga", "study", "analysis", "crítica", "critica", "leitura",
	"comentado", "comentários", "guia", "workbook", "livro de atividades",
}

// rankCriteria holds the lowercased criteria used by Score.
type rankCriteria struct {
	author, title, journal, publisher, identifier string
	year                                          int
}

func newRankCriteria(c domain.QueryCriteria) rankCriteria {
	t := c.Trimmed()
	return rankCriteria{
		author:     strings.ToLower(t.Author),
		title:      strings.ToLower(t.Title),
		journal:    strings.ToLower(t.Journal),
		publisher:  strings.ToLower(t.Publisher),
		identifier: strings.ToLower(t.Identifier),
		year:       YearInt(t.Year),
	}
}

// Score is the accumulating rank score of a record for a query. It is not
// bounded and may be negative.
func Score(query string, r *domain.Record, criteria domain.QueryCriteria, desired domain.Kind) float64 {
	return score(strings.ToLower(query), r, newRankCriteria(criteria), desired)
}

func score(q string, r *domain.Record, c rankCriteria, desired domain.Kind) float64 {
	var s float64

	title := strings.ToLower(r.Title)
	surname := strings.ToLower(r.PrimarySurname())

	s += textsim.Similarity(title, q) * rankTitleQuery
	s += textsim.Similarity(surname, q) * rankSurnameQuery

	if r.Publisher != "" {
		s += rankHasPublisher
	}
	if r.TotalPages != "" {
		s += rankHasPages
	}
	year := YearInt(r.Year)
	if year != 0 {
		s += float64(year) / rankYearDivisor
	}

	for _, m := range derivativeMarkers {
		if strings.Contains(title, m) {
			s -= rankDerivativeMarker
		}
	}

	if r.Kind == domain.KindArticle && r.Journal != "" {
		s += rankArticleJournal
	}
	s += Richness(r) * rankRichness

	var titleSim, authorSim float64
	if c.title != "" {
		titleSim = textsim.Similarity(title, c.title)
		s += titleSim * rankTitleCriterion
	}
	if c.author != "" {
		authorSim = textsim.Similarity(strings.ToLower(r.AuthorNames()), c.author)
		s += authorSim * rankAuthorCriterion
		s += textsim.Similarity(surname, c.author) * rankSurnameCriterion
	}
	if c.title != "" && c.author != "" {
		combined := titleSim*rankCombinedTitleShare + authorSim*(1-rankCombinedTitleShare)
		s += combined * rankCombined
		if titleSim < rankCombinedTitleFloor || authorSim < rankCombinedAuthorMin {
			s -= rankCombinedMismatch
		}
	}

	if year != 0 && c.year != 0 {
		delta := math.Abs(float64(year - c.year))
		if delta == 0 {
			s += rankYearExact
		} else {
			s += math.Max(0, rankYearNearBase-delta*rankYearNearStep)
		}
	}
	if c.journal != "" {
		s += textsim.Similarity(strings.ToLower(r.Journal), c.journal) * rankJournal
	}
	if c.publisher != "" {
		s += textsim.Similarity(strings.ToLower(r.Publisher), c.publisher) * rankPublisher
	}
	if c.identifier != "" {
		blob := title + " " + strings.ToLower(r.Journal) + " " + strings.ToLower(r.Publisher)
		if strings.Contains(blob, c.identifier) {
			s += rankIdentifierHit
		}
	}

	if desired != "" {
		if r.Kind == desired {
			s += rankKindMatch
		} else {
			s -= rankKindMismatch
		}
	}
	return s
}

// Rank returns the records sorted by descending Score. Equal scores keep their
// input order. The input slice is not modified.
func Rank(query string, records []*domain.Record, criteria domain.QueryCriteria, desired domain.Kind) []*domain.Record {
	q := strings.ToLower(query)
	c := newRankCriteria(criteria)

	type scored struct {
		rec   *domain.Record
		score float64
	}
	list := make([]scored, len(records))
	for i, r := range records {
		list[i] = scored{rec: r, score: score(q, r, c, desired)}
	}

	slices.SortStableFunc(list, func(a, b scored) int {
		switch {
		case a.score > b.score:
			return -1
		case a.score < b.score:
			return 1
		default:
			return 0
		}
	})

	out := make([]*domain.Record, len(list))
	for i, s := range list {
		out[i] = s.rec
	}
	return out
}

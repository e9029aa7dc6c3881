package reconcile

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/helixir/bibliomatch-service/internal/domain"
	"github.com/helixir/bibliomatch-service/internal/providers"
	"github.com/helixir/bibliomatch-service/internal/providers/googlebooks"
	"github.com/helixir/bibliomatch-service/internal/textsim"
)

// minSecondaryWindow is the smallest number of top records considered for the
// secondary lookup.
const minSecondaryWindow = 5

// needsSecondary reports whether a book still lacks publisher, pages or a valid
// year and has a title to search by.
func needsSecondary(r *domain.Record) bool {
	if r.Kind != domain.KindBook || r.Title == "" {
		return false
	}
	return r.Publisher == "" || r.TotalPages == "" || YearInt(r.Year) == 0
}

// fillFromSecondary runs one Google Books title lookup per incomplete book among
// the first window records and fills missing publisher, pages and year from the
// best match. Failures leave the record untouched.
func (s *Service) fillFromSecondary(ctx context.Context, logger zerolog.Logger, records []*domain.Record, language string) {
	p := s.registry.Get(googlebooks.Name)
	if p == nil || !p.IsEnabled() {
		return
	}

	window := min(len(records), max(s.config.MaxResults, minSecondaryWindow))
	g := new(errgroup.Group)
	g.SetLimit(s.config.SecondaryConcurrency)

	for _, r := range records[:window] {
		if !needsSecondary(r) {
			continue
		}
		params := providers.LookupParams{
			Mode:       providers.ModeTitle,
			Title:      r.Title,
			Author:     r.PrimarySurname(),
			Language:   language,
			MaxResults: s.config.MaxResults,
		}
		g.Go(func() error {
			candidates, err := s.lookup(ctx, logger, p, params)
			if err != nil || len(candidates) == 0 {
				return nil
			}
			fillMissing(r, bestSecondaryMatch(r, candidates))
			return nil
		})
	}

	_ = g.Wait()
}

// bestSecondaryMatch picks the candidate maximizing title similarity plus
// richness. The first candidate wins ties.
func bestSecondaryMatch(r *domain.Record, candidates []*domain.Record) *domain.Record {
	title := textsim.Fold(r.Title)

	var best *domain.Record
	var bestScore float64
	for _, c := range candidates {
		sc := textsim.Similarity(textsim.Fold(c.Title), title) + Richness(c)
		if best == nil || sc > bestScore {
			best, bestScore = c, sc
		}
	}
	return best
}

func fillMissing(r, from *domain.Record) {
	if r.Publisher == "" && from.Publisher != "" {
		r.Publisher = from.Publisher
	}
	if r.TotalPages == "" && from.TotalPages != "" {
		r.TotalPages = from.TotalPages
	}
	if YearInt(r.Year) == 0 && YearInt(from.Year) != 0 {
		r.Year = from.Year
	}
}

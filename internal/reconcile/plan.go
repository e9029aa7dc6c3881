package reconcile

import (
	"github.com/helixir/bibliomatch-service/internal/domain"
	"github.com/helixir/bibliomatch-service/internal/providers"
	"github.com/helixir/bibliomatch-service/internal/providers/crossref"
	"github.com/helixir/bibliomatch-service/internal/providers/googlebooks"
	"github.com/helixir/bibliomatch-service/internal/providers/openlibrary"
)

// lookupInput gathers what the fan-out plan needs from one run.
type lookupInput struct {
	kind       domain.Kind
	query      string
	criteria   domain.QueryCriteria
	language   string
	maxResults int
}

// buildPlan lists the provider lookups for a run, in the order their results
// are merged.
//
// Books: Google Books and Open Library by title (when a title is given), Google
// Books by ISBN (when an identifier is given), then both by free text. Articles:
// Crossref by DOI (when an identifier is given), then by free text.
func buildPlan(in lookupInput) []providers.Request {
	c := in.criteria
	req := func(provider string, p providers.LookupParams) providers.Request {
		p.MaxResults = in.maxResults
		return providers.Request{Provider: provider, Params: p}
	}

	var plan []providers.Request
	if in.kind == domain.KindArticle {
		if c.Identifier != "" {
			plan = append(plan, req(crossref.Name, providers.LookupParams{
				Mode:       providers.ModeIdentifier,
				Identifier: c.Identifier,
			}))
		}
		return append(plan, req(crossref.Name, providers.LookupParams{
			Mode:  providers.ModeGeneral,
			Query: in.query,
		}))
	}

	if c.Title != "" {
		plan = append(plan,
			req(googlebooks.Name, providers.LookupParams{
				Mode:     providers.ModeTitle,
				Title:    c.Title,
				Author:   c.Author,
				Language: in.language,
			}),
			req(openlibrary.Name, providers.LookupParams{
				Mode:   providers.ModeTitle,
				Title:  c.Title,
				Author: c.Author,
			}),
		)
	}
	if c.Identifier != "" {
		plan = append(plan, req(googlebooks.Name, providers.LookupParams{
			Mode:       providers.ModeIdentifier,
			Identifier: c.Identifier,
			Language:   in.language,
		}))
	}
	return append(plan,
		req(googlebooks.Name, providers.LookupParams{
			Mode:     providers.ModeGeneral,
			Query:    in.query,
			Language: in.language,
		}),
		req(openlibrary.Name, providers.LookupParams{
			Mode:  providers.ModeGeneral,
			Query: in.query,
		}),
	)
}

// fallbackPlan is tried once when a book search found nothing: a free-text
// Google Books lookup without language restriction.
func fallbackPlan(in lookupInput) []providers.Request {
	if in.kind != domain.KindBook {
		return nil
	}
	return []providers.Request{{
		Provider: googlebooks.Name,
		Params: providers.LookupParams{
			Mode:       providers.ModeGeneral,
			Query:      in.query,
			MaxResults: in.maxResults,
		},
	}}
}

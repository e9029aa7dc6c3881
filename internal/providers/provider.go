// Package providers defines the contract for external bibliographic catalogs and
// runs lookups against them concurrently.
//
// Each catalog (Google Books, OpenLibrary, Crossref) implements Provider and maps
// its own response format onto domain.Record. Book-oriented providers always emit
// domain.KindBook and article-oriented providers domain.KindArticle.
//
// Example usage:
//
//	registry := providers.NewRegistry()
//	registry.Register(googlebooks.New(cfg))
//	outcomes := registry.LookupPlan(ctx, []providers.Request{{
//		Provider: googlebooks.Name,
//		Params:   providers.LookupParams{Mode: providers.ModeTitle, Title: "Dom Casmurro"},
//	}}, 4)
package providers

import (
	"context"

	"github.com/helixir/bibliomatch-service/internal/domain"
)

// Mode selects how a provider interprets LookupParams.
type Mode string

const (
	// ModeGeneral searches the free-text Query.
	ModeGeneral Mode = "general"

	// ModeTitle searches by Title with an optional Author hint.
	ModeTitle Mode = "title"

	// ModeIdentifier searches by Identifier (ISBN for books, DOI for articles).
	ModeIdentifier Mode = "identifier"
)

// LookupParams are the inputs of a single provider lookup. Only the fields
// relevant to Mode are read.
type LookupParams struct {
	Mode       Mode
	Query      string
	Title      string
	Author     string
	Identifier string

	// Language restricts results to a language code such as "pt". Providers that
	// cannot filter by language ignore it.
	Language string

	// MaxResults is the number of results the caller wants in the end. Providers
	// over-fetch relative to it, up to their own cap. Zero uses the provider
	// default.
	MaxResults int
}

// Provider is an external bibliographic catalog.
type Provider interface {
	// Lookup returns the records matching params. "No results" is an empty slice
	// and a nil error, including when params cannot be expressed for this
	// provider (for example an identifier that is not an ISBN). Errors are
	// reserved for transport and decoding failures.
	Lookup(ctx context.Context, params LookupParams) ([]*domain.Record, error)

	// Name identifies the provider in plans, logs and metrics.
	Name() string

	// Kind is the record kind this provider emits.
	Kind() domain.Kind

	// IsEnabled reports whether the provider may be queried.
	IsEnabled() bool
}

// CapMaxResults returns 2*want bounded by limit, or limit when want is not
// positive.
func CapMaxResults(want, limit int) int {
	if want <= 0 {
		return limit
	}
	return min(2*want, limit)
}

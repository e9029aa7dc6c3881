package reconcile

import (
	"context"
	"sync"

	"github.com/helixir/bibliomatch-service/internal/domain"
	"github.com/helixir/bibliomatch-service/internal/enrichment"
	"github.com/helixir/bibliomatch-service/internal/providers"
)

// fakeProvider answers lookups through a function and records every call.
type fakeProvider struct {
	name    string
	kind    domain.Kind
	enabled bool
	lookup  func(providers.LookupParams) ([]*domain.Record, error)

	mu    sync.Mutex
	calls []providers.LookupParams
}

func newFakeProvider(name string, kind domain.Kind, lookup func(providers.LookupParams) ([]*domain.Record, error)) *fakeProvider {
	return &fakeProvider{name: name, kind: kind, enabled: true, lookup: lookup}
}

func (f *fakeProvider) Name() string      { return f.name }
func (f *fakeProvider) Kind() domain.Kind { return f.kind }
func (f *fakeProvider) IsEnabled() bool   { return f.enabled }

func (f *fakeProvider) Lookup(_ context.Context, params providers.LookupParams) ([]*domain.Record, error) {
	f.mu.Lock()
	f.calls = append(f.calls, params)
	f.mu.Unlock()
	if f.lookup == nil {
		return nil, nil
	}
	records, err := f.lookup(params)
	if err != nil {
		return nil, err
	}
	// Each lookup hands out fresh records, like a real provider.
	out := make([]*domain.Record, len(records))
	for i, r := range records {
		out[i] = cloneRecord(r)
	}
	return out, nil
}

func cloneRecord(r *domain.Record) *domain.Record {
	c := *r
	c.Authors = append([]domain.Author(nil), r.Authors...)
	return &c
}

func (f *fakeProvider) Calls() []providers.LookupParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]providers.LookupParams(nil), f.calls...)
}

type stubOracle struct {
	answer map[string]enrichment.Fields
	err    error

	mu    sync.Mutex
	query string
	items []enrichment.Item
}

func (o *stubOracle) Name() string { return "stub" }

func (o *stubOracle) EnrichBatch(_ context.Context, query string, items []enrichment.Item) (map[string]enrichment.Fields, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.query = query
	o.items = items
	return o.answer, o.err
}

func book(surname, given, title, year string) *domain.Record {
	return &domain.Record{
		Authors: []domain.Author{{Surname: surname, GivenName: given}},
		Title:   title,
		Year:    year,
		Kind:    domain.KindBook,
	}
}

func withPublisher(r *domain.Record, publisher, pages string) *domain.Record {
	r.Publisher = publisher
	r.TotalPages = pages
	return r
}

package reconcile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/bibliomatch-service/internal/domain"
	"github.com/helixir/bibliomatch-service/internal/enrichment"
	"github.com/helixir/bibliomatch-service/internal/observability"
	"github.com/helixir/bibliomatch-service/internal/providers"
	"github.com/helixir/bibliomatch-service/internal/providers/crossref"
	"github.com/helixir/bibliomatch-service/internal/providers/googlebooks"
	"github.com/helixir/bibliomatch-service/internal/providers/openlibrary"
)

type testProviders struct {
	googleBooks *fakeProvider
	openLibrary *fakeProvider
	crossref    *fakeProvider
	registry    *providers.Registry
}

func newTestProviders(gb, ol, cr func(providers.LookupParams) ([]*domain.Record, error)) *testProviders {
	tp := &testProviders{
		googleBooks: newFakeProvider(googlebooks.Name, domain.KindBook, gb),
		openLibrary: newFakeProvider(openlibrary.Name, domain.KindBook, ol),
		crossref:    newFakeProvider(crossref.Name, domain.KindArticle, cr),
		registry:    providers.NewRegistry(),
	}
	tp.registry.Register(tp.googleBooks)
	tp.registry.Register(tp.openLibrary)
	tp.registry.Register(tp.crossref)
	return tp
}

func domCasmurro() *domain.Record {
	r := withPublisher(book("Assis", "Machado de", "Dom Casmurro", "1899"), "Garnier", "256 p.")
	r.Source = googlebooks.Name
	return r
}

func returning(records ...*domain.Record) func(providers.LookupParams) ([]*domain.Record, error) {
	return func(providers.LookupParams) ([]*domain.Record, error) { return records, nil }
}

func TestService_EmptyQuery(t *testing.T) {
	tp := newTestProviders(returning(domCasmurro()), nil, nil)
	svc := NewService(tp.registry, DefaultConfig())

	_, err := svc.Reconcile(context.Background(), "   ", domain.QueryCriteria{Title: "  "})
	require.ErrorIs(t, err, domain.ErrEmptyQuery)
	assert.Empty(t, tp.googleBooks.Calls())
	assert.Empty(t, tp.openLibrary.Calls())
}

func TestService_BookEndToEnd(t *testing.T) {
	tp := newTestProviders(returning(domCasmurro()), nil, nil)
	svc := NewService(tp.registry, DefaultConfig())

	res, err := svc.Reconcile(context.Background(), "", domain.QueryCriteria{
		Author: "Machado de Assis",
		Title:  "Dom Casmurro",
	})
	require.NoError(t, err)

	assert.Equal(t, "**Assis**, Machado de; ***Dom Casmurro***; 256 p.; Garnier; 1899.", res.Referencia)
	assert.Equal(t, []string{res.Referencia}, res.Matches)
	assert.Equal(t, DefaultMaxResults, res.MaxResults)
	assert.Equal(t, domain.ConfidenceUniqueSource, res.Score.Classification)

	gbCalls := tp.googleBooks.Calls()
	require.Len(t, gbCalls, 2)
	for _, c := range gbCalls {
		switch c.Mode {
		case providers.ModeTitle:
			assert.Equal(t, "Dom Casmurro", c.Title)
			assert.Equal(t, "Machado de Assis", c.Author)
		case providers.ModeGeneral:
			assert.Equal(t, "Machado de Assis | Dom Casmurro", c.Query)
		default:
			t.Errorf("unexpected mode %q", c.Mode)
		}
	}
	assert.Len(t, tp.openLibrary.Calls(), 2)
	assert.Empty(t, tp.crossref.Calls())
}

func TestService_FailingProviderDegrades(t *testing.T) {
	failing := func(providers.LookupParams) ([]*domain.Record, error) {
		return nil, errors.New("upstream unavailable")
	}
	tp := newTestProviders(returning(domCasmurro()), failing, nil)
	metrics := observability.NewMetrics("test_reconcile_service")
	svc := NewService(tp.registry, DefaultConfig(), WithMetrics(metrics))

	res, err := svc.Reconcile(context.Background(), "", domain.QueryCriteria{
		Author: "Machado de Assis",
		Title:  "Dom Casmurro",
	})
	require.NoError(t, err)
	assert.Contains(t, res.Referencia, "Dom Casmurro")

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ProviderLookupsFailed.WithLabelValues(openlibrary.Name, "title")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ProviderLookupsFailed.WithLabelValues(openlibrary.Name, "general")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ProviderLookups.WithLabelValues(googlebooks.Name, "title")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ReconciliationsCompleted))

	_, err = svc.Reconcile(context.Background(), "", domain.QueryCriteria{Title: "Iracema", Author: "Alencar"})
	require.ErrorIs(t, err, domain.ErrNoRelevantResults)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ReconciliationsFailed.WithLabelValues("no_relevant_results")))
}

func TestService_FallbackWithoutLanguage(t *testing.T) {
	gb := func(p providers.LookupParams) ([]*domain.Record, error) {
		if p.Language == "" {
			return []*domain.Record{domCasmurro()}, nil
		}
		return nil, nil
	}
	tp := newTestProviders(gb, nil, nil)
	svc := NewService(tp.registry, DefaultConfig())

	res, err := svc.Reconcile(context.Background(), "Dom Casmurro, Machado de Assis", domain.QueryCriteria{})
	require.NoError(t, err)
	assert.Contains(t, res.Referencia, "***Dom Casmurro***")

	calls := tp.googleBooks.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, "pt", calls[0].Language)
	assert.Equal(t, "", calls[1].Language)
	assert.Equal(t, providers.ModeGeneral, calls[1].Mode)
}

func TestService_NoResults(t *testing.T) {
	tp := newTestProviders(nil, nil, nil)
	svc := NewService(tp.registry, DefaultConfig())

	_, err := svc.Reconcile(context.Background(), "Dom Casmurro", domain.QueryCriteria{})
	require.ErrorIs(t, err, domain.ErrNoResults)
	assert.Equal(t, "no_results", Outcome(err))
	// Plan plus the unrestricted fallback.
	assert.Len(t, tp.googleBooks.Calls(), 2)
}

func TestService_NoRelevantResults(t *testing.T) {
	tp := newTestProviders(returning(domCasmurro()), nil, nil)
	svc := NewService(tp.registry, DefaultConfig())

	_, err := svc.Reconcile(context.Background(), "", domain.QueryCriteria{
		Author: "José de Alencar",
		Title:  "Iracema",
	})
	require.ErrorIs(t, err, domain.ErrNoRelevantResults)
}

func TestService_CanceledContext(t *testing.T) {
	tp := newTestProviders(returning(domCasmurro()), nil, nil)
	svc := NewService(tp.registry, DefaultConfig(), WithMetrics(nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Reconcile(ctx, "Dom Casmurro", domain.QueryCriteria{})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "canceled", Outcome(err))
}

func TestService_Enrichment(t *testing.T) {
	original := book("Assis", "Machado de", "Dom Casmurro", "1899")
	comic := book("Assis", "", "Dom Casmurro em Quadrinhos", "2012")

	t.Run("answers fill fields and derivatives are dropped", func(t *testing.T) {
		tp := newTestProviders(returning(original, comic), nil, nil)
		oracle := &stubOracle{answer: map[string]enrichment.Fields{
			"assis::dom casmurro": {
				Publisher:  "Garnier",
				Place:      "Rio de Janeiro",
				TotalPages: "256 p.",
				Nature:     "original",
			},
			"assis::dom casmurro em quadrinhos": {Nature: "adaptacao"},
		}}
		svc := NewService(tp.registry, DefaultConfig(), WithOracle(oracle))
		require.True(t, svc.EnrichmentEnabled())

		res, err := svc.Reconcile(context.Background(), "Dom Casmurro Machado de Assis", domain.QueryCriteria{})
		require.NoError(t, err)

		assert.Equal(t, []string{
			"**Assis**, Machado de; ***Dom Casmurro***; 256 p.; Garnier; Rio de Janeiro; 1899.",
		}, res.Matches)
		assert.Equal(t, "Dom Casmurro Machado de Assis", oracle.query)
		assert.Len(t, oracle.items, 2)
	})

	t.Run("oracle failure keeps the candidates", func(t *testing.T) {
		tp := newTestProviders(returning(original, comic), nil, nil)
		oracle := &stubOracle{err: errors.New("oracle down")}
		svc := NewService(tp.registry, DefaultConfig(), WithOracle(oracle))

		res, err := svc.Reconcile(context.Background(), "Dom Casmurro Machado de Assis", domain.QueryCriteria{})
		require.NoError(t, err)
		assert.Len(t, res.Matches, 2)
	})

	t.Run("zero max enrich disables the oracle", func(t *testing.T) {
		tp := newTestProviders(returning(original), nil, nil)
		oracle := &stubOracle{}
		cfg := DefaultConfig()
		cfg.MaxEnrich = 0
		svc := NewService(tp.registry, cfg, WithOracle(oracle))

		assert.False(t, svc.EnrichmentEnabled())
		_, err := svc.Reconcile(context.Background(), "Dom Casmurro", domain.QueryCriteria{})
		require.NoError(t, err)
		assert.Nil(t, oracle.items)
	})
}

func TestService_SecondaryFill(t *testing.T) {
	sparse := book("Assis", "Machado de", "Dom Casmurro", "")
	gb := func(p providers.LookupParams) ([]*domain.Record, error) {
		if p.Mode == providers.ModeTitle && p.Author == "Assis" {
			return []*domain.Record{
				book("Other", "", "Unrelated", "2001"),
				domCasmurro(),
			}, nil
		}
		return []*domain.Record{sparse}, nil
	}
	tp := newTestProviders(gb, nil, nil)
	svc := NewService(tp.registry, DefaultConfig())

	res, err := svc.Reconcile(context.Background(), "Dom Casmurro", domain.QueryCriteria{})
	require.NoError(t, err)
	assert.Equal(t, "**Assis**, Machado de; ***Dom Casmurro***; 256 p.; Garnier; 1899.", res.Referencia)

	var titleCalls int
	for _, c := range tp.googleBooks.Calls() {
		if c.Mode == providers.ModeTitle {
			titleCalls++
			assert.Equal(t, "Dom Casmurro", c.Title)
		}
	}
	assert.Equal(t, 1, titleCalls)
}

func TestService_FailureLogsCarryRequestIDs(t *testing.T) {
	sparse := book("Assis", "Machado de", "Dom Casmurro", "")
	gb := func(p providers.LookupParams) ([]*domain.Record, error) {
		if p.Mode == providers.ModeTitle {
			return nil, errors.New("quota exceeded")
		}
		return []*domain.Record{sparse}, nil
	}
	failing := func(providers.LookupParams) ([]*domain.Record, error) {
		return nil, errors.New("upstream unavailable")
	}
	tp := newTestProviders(gb, failing, nil)

	var buf bytes.Buffer
	logger := zerolog.New(zerolog.SyncWriter(&buf))
	svc := NewService(tp.registry, DefaultConfig(), WithLogger(logger))

	ctx := observability.WithCorrelationID(observability.WithRequestID(context.Background(), "req-42"), "corr-7")
	_, err := svc.Reconcile(ctx, "Dom Casmurro", domain.QueryCriteria{})
	require.NoError(t, err)

	entries := map[string]map[string]interface{}{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if msg, ok := entry["message"].(string); ok {
			entries[msg] = entry
		}
	}

	tests := []struct {
		message  string
		provider string
		mode     string
	}{
		{"provider lookup failed", openlibrary.Name, "general"},
		{"secondary lookup failed", googlebooks.Name, "title"},
	}
	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			entry, ok := entries[tt.message]
			require.True(t, ok, "no %q entry in %s", tt.message, buf.String())
			assert.Equal(t, "warn", entry["level"])
			assert.Equal(t, "req-42", entry["request_id"])
			assert.Equal(t, "corr-7", entry["correlation_id"])
			assert.Equal(t, tt.provider, entry["provider"])
			assert.Equal(t, tt.mode, entry["mode"])
		})
	}
}

func TestService_ArticlePath(t *testing.T) {
	article := &domain.Record{
		Authors: []domain.Author{{Surname: "Doudna", GivenName: "Jennifer A."}},
		Title:   "The new frontier of genome engineering with CRISPR-Cas9",
		Journal: "Science",
		Year:    "2014",
		Kind:    domain.KindArticle,
		Source:  crossref.Name,
	}
	tp := newTestProviders(nil, nil, returning(article))
	svc := NewService(tp.registry, DefaultConfig())

	res, err := svc.Reconcile(context.Background(), "", domain.QueryCriteria{
		Title:      "genome engineering",
		Journal:    "Science",
		Identifier: "10.1126/science.1258096",
	})
	require.NoError(t, err)
	assert.Equal(t,
		"**Doudna**, Jennifer A.; ***The new frontier of genome engineering with CRISPR-Cas9***; Science; 2014.",
		res.Referencia)

	// Planned lookups run concurrently; index the calls by mode.
	calls := tp.crossref.Calls()
	require.Len(t, calls, 2)
	byMode := make(map[providers.Mode]providers.LookupParams, len(calls))
	for _, c := range calls {
		byMode[c.Mode] = c
	}
	require.Contains(t, byMode, providers.ModeIdentifier)
	require.Contains(t, byMode, providers.ModeGeneral)
	assert.Equal(t, "10.1126/science.1258096", byMode[providers.ModeIdentifier].Identifier)
	assert.Empty(t, tp.googleBooks.Calls())
	assert.Empty(t, tp.openLibrary.Calls())
}

func TestService_MaxResultsClamped(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, MinMaxResults},
		{7, 7},
		{99, MaxMaxResults},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.MaxResults = tt.in
		assert.Equal(t, tt.want, NewService(providers.NewRegistry(), cfg).MaxResults())
	}
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{domain.ErrEmptyQuery, "empty_query"},
		{domain.ErrNoResults, "no_results"},
		{domain.ErrNoRelevantResults, "no_relevant_results"},
		{domain.ErrNoCitation, "no_citation"},
		{context.DeadlineExceeded, "canceled"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Outcome(tt.err))
		})
	}
}

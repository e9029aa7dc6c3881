package reconcile

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/helixir/bibliomatch-service/internal/domain"
	"github.com/helixir/bibliomatch-service/internal/enrichment"
	"github.com/helixir/bibliomatch-service/internal/observability"
	"github.com/helixir/bibliomatch-service/internal/providers"
)

// Result limits.
const (
	DefaultMaxResults = 5
	MinMaxResults     = 1
	MaxMaxResults     = 20

	DefaultMaxEnrich = 3
	MaxMaxEnrich     = 8

	defaultSecondaryConcurrency = 4
)

// Config tunes a Service.
type Config struct {
	// MaxResults is the number of citations returned, clamped to 1..20.
	MaxResults int
	// MaxEnrich is the number of records sent to the oracle, clamped to 0..8.
	// Zero disables enrichment.
	MaxEnrich int
	// FanoutConcurrency bounds concurrent provider lookups. Zero runs the whole
	// plan at once.
	FanoutConcurrency int
	// SecondaryConcurrency bounds concurrent secondary lookups.
	SecondaryConcurrency int
}

// DefaultConfig returns the default tuning.
func DefaultConfig() Config {
	return Config{
		MaxResults:           DefaultMaxResults,
		MaxEnrich:            DefaultMaxEnrich,
		SecondaryConcurrency: defaultSecondaryConcurrency,
	}
}

// normalized clamps every limit into its valid range.
func (c Config) normalized() Config {
	c.MaxResults = min(max(c.MaxResults, MinMaxResults), MaxMaxResults)
	c.MaxEnrich = min(max(c.MaxEnrich, 0), MaxMaxEnrich)
	if c.FanoutConcurrency < 0 {
		c.FanoutConcurrency = 0
	}
	if c.SecondaryConcurrency <= 0 {
		c.SecondaryConcurrency = defaultSecondaryConcurrency
	}
	return c
}

// Option configures a Service.
type Option func(*Service)

// WithOracle enables enrichment through oracle. A nil oracle disables it.
func WithOracle(oracle enrichment.Oracle) Option {
	return func(s *Service) { s.oracle = oracle }
}

// WithLogger sets the service logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the metrics recorder. A nil recorder skips recording.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(s *Service) { s.metrics = metrics }
}

// Service runs the reconciliation pipeline. It is safe for concurrent use.
type Service struct {
	registry *providers.Registry
	oracle   enrichment.Oracle
	config   Config
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

// NewService creates a Service querying the providers of registry.
func NewService(registry *providers.Registry, cfg Config, opts ...Option) *Service {
	s := &Service{
		registry: registry,
		config:   cfg.normalized(),
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With().Str("component", "reconcile").Logger()
	return s
}

// MaxResults returns the effective number of citations per run.
func (s *Service) MaxResults() int { return s.config.MaxResults }

// EnrichmentEnabled reports whether the oracle stages run.
func (s *Service) EnrichmentEnabled() bool {
	return s.oracle != nil && s.config.MaxEnrich > 0
}

// Reconcile runs the pipeline for a free-text query and structured criteria.
// When query is blank the non-blank criteria are joined into one.
func (s *Service) Reconcile(ctx context.Context, query string, criteria domain.QueryCriteria) (*domain.Reconciliation, error) {
	start := time.Now()
	s.recordStarted()

	res, err := s.reconcile(ctx, query, criteria)
	if err != nil {
		s.recordFailed(err, time.Since(start))
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordReconciliationCompleted(time.Since(start).Seconds())
	}
	return res, nil
}

func (s *Service) reconcile(ctx context.Context, query string, criteria domain.QueryCriteria) (*domain.Reconciliation, error) {
	criteria = criteria.Trimmed()
	query = strings.TrimSpace(query)
	if query == "" {
		if criteria.IsEmpty() {
			return nil, domain.ErrEmptyQuery
		}
		query = criteria.FreeText()
	}

	in := lookupInput{
		kind:       DetectKind(criteria, query),
		query:      query,
		criteria:   criteria,
		language:   LanguageHint(query),
		maxResults: s.config.MaxResults,
	}
	logger := observability.WithQueryContext(observability.LoggerFromContext(ctx, s.logger), string(in.kind), query)

	records := s.fanOut(ctx, logger, buildPlan(in))
	if len(records) == 0 {
		records = s.fanOut(ctx, logger, fallbackPlan(in))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordCandidates(len(records))
	}
	if len(records) == 0 {
		return nil, domain.ErrNoResults
	}

	records = s.rankAndFilter(query, records, criteria, in.kind)
	if len(records) == 0 {
		return nil, domain.ErrNoRelevantResults
	}

	records = PreDedup(records, preDedupLimit(s.config.MaxResults))

	if s.EnrichmentEnabled() {
		s.enrich(ctx, logger, query, records)
		records = FilterNature(records)
		records = s.rankAndFilter(query, records, criteria, in.kind)
		if len(records) == 0 {
			return nil, domain.ErrNoRelevantResults
		}
	}

	records = DedupWorks(records)
	s.fillFromSecondary(ctx, logger, records, in.language)
	records = s.rankAndFilter(query, records, criteria, in.kind)

	final := records[:min(len(records), s.config.MaxResults)]
	citations := make([]string, 0, len(final))
	for _, r := range final {
		if c := FormatCitation(r); c != "" {
			citations = append(citations, c)
		}
	}
	if len(citations) == 0 {
		return nil, domain.ErrNoCitation
	}

	logger.Debug().
		Int("citations", len(citations)).
		Msg("reconciliation completed")

	return &domain.Reconciliation{
		Referencia: citations[0],
		Matches:    citations,
		MaxResults: s.config.MaxResults,
		Score:      Confidence(final),
	}, nil
}

func (s *Service) rankAndFilter(query string, records []*domain.Record, criteria domain.QueryCriteria, kind domain.Kind) []*domain.Record {
	return StrictFilter(Rank(query, records, criteria, kind), criteria)
}

// fanOut runs plan and concatenates the records in plan order. Failed lookups
// are logged and contribute nothing.
func (s *Service) fanOut(ctx context.Context, logger zerolog.Logger, plan []providers.Request) []*domain.Record {
	var records []*domain.Record
	for _, o := range s.registry.LookupPlan(ctx, plan, s.config.FanoutConcurrency) {
		if o.Skipped {
			continue
		}
		provider, mode := o.Request.Provider, string(o.Request.Params.Mode)
		if o.Err != nil {
			plog := observability.WithProviderContext(logger, provider, mode)
			plog.Warn().
				Err(o.Err).
				Dur("duration", o.Duration).
				Msg("provider lookup failed")
			if s.metrics != nil {
				s.metrics.RecordProviderLookupFailed(provider, mode, o.Duration.Seconds())
			}
			continue
		}
		if s.metrics != nil {
			s.metrics.RecordProviderLookup(provider, mode, len(o.Records), o.Duration.Seconds())
		}
		records = append(records, o.Records...)
	}
	return records
}

// lookup performs a single provider call outside of a plan, with the same
// logging and metrics as fan-out.
func (s *Service) lookup(ctx context.Context, logger zerolog.Logger, p providers.Provider, params providers.LookupParams) ([]*domain.Record, error) {
	start := time.Now()
	records, err := p.Lookup(ctx, params)
	elapsed := time.Since(start)

	mode := string(params.Mode)
	if err != nil {
		plog := observability.WithProviderContext(logger, p.Name(), mode)
		plog.Warn().
			Err(err).
			Str("title", params.Title).
			Msg("secondary lookup failed")
		if s.metrics != nil {
			s.metrics.RecordProviderLookupFailed(p.Name(), mode, elapsed.Seconds())
		}
		return nil, domain.NewProviderError(p.Name(), mode, err)
	}
	if s.metrics != nil {
		s.metrics.RecordProviderLookup(p.Name(), mode, len(records), elapsed.Seconds())
	}
	return records, nil
}

// enrich asks the oracle about the selected records and applies the answer.
// Oracle failures leave the records unchanged.
func (s *Service) enrich(ctx context.Context, logger zerolog.Logger, query string, records []*domain.Record) {
	items := SelectForEnrichment(records, s.config.MaxEnrich)
	if len(items) == 0 {
		return
	}

	start := time.Now()
	answers, err := s.oracle.EnrichBatch(ctx, query, items)
	if s.metrics != nil {
		s.metrics.RecordEnrichment(s.oracle.Name(), time.Since(start).Seconds(), err != nil)
	}
	if err != nil {
		logger.Warn().
			Err(err).
			Str("oracle", s.oracle.Name()).
			Int("items", len(items)).
			Msg("enrichment failed")
		return
	}
	ApplyEnrichment(records, answers)
}

func (s *Service) recordStarted() {
	if s.metrics != nil {
		s.metrics.RecordReconciliationStarted()
	}
}

func (s *Service) recordFailed(err error, elapsed time.Duration) {
	if s.metrics != nil {
		s.metrics.RecordReconciliationFailed(Outcome(err), elapsed.Seconds())
	}
}

// Outcome names the failure class of a Reconcile error for metrics and API
// error codes.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrEmptyQuery):
		return "empty_query"
	case errors.Is(err, domain.ErrNoResults):
		return "no_results"
	case errors.Is(err, domain.ErrNoRelevantResults):
		return "no_relevant_results"
	case errors.Is(err, domain.ErrNoCitation):
		return "no_citation"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the bibliomatch service. Metrics are
// organized by subsystem: reconciliations, provider lookups, enrichment and local
// searches. All collectors are registered via promauto with the default registry.
type Metrics struct {
	// ReconciliationsStarted counts pipeline runs initiated.
	ReconciliationsStarted prometheus.Counter

	// ReconciliationsCompleted counts runs that produced at least one citation.
	ReconciliationsCompleted prometheus.Counter

	// ReconciliationsFailed counts failed runs, labeled by outcome
	// (empty_query, no_results, no_relevant_results, no_citation, error).
	ReconciliationsFailed *prometheus.CounterVec

	// ReconciliationDuration observes end-to-end pipeline duration in seconds.
	ReconciliationDuration prometheus.Histogram

	// CandidatesPerReconciliation observes how many raw candidates fan-out produced.
	CandidatesPerReconciliation prometheus.Histogram

	// ProviderLookups counts lookups, labeled by provider and mode.
	ProviderLookups *prometheus.CounterVec

	// ProviderLookupsFailed counts failed lookups, labeled by provider and mode.
	ProviderLookupsFailed *prometheus.CounterVec

	// ProviderLookupDuration observes lookup latency, labeled by provider.
	ProviderLookupDuration *prometheus.HistogramVec

	// ProviderRecords counts records returned, labeled by provider.
	ProviderRecords *prometheus.CounterVec

	// EnrichmentRequests counts oracle batches, labeled by oracle.
	EnrichmentRequests *prometheus.CounterVec

	// EnrichmentFailures counts failed oracle batches, labeled by oracle.
	EnrichmentFailures *prometheus.CounterVec

	// EnrichmentDuration observes oracle latency in seconds, labeled by oracle.
	EnrichmentDuration *prometheus.HistogramVec

	// EnrichmentCacheHits counts batches served from the cache.
	EnrichmentCacheHits prometheus.Counter

	// EnrichmentCacheMisses counts batches that reached the oracle.
	EnrichmentCacheMisses prometheus.Counter

	// LocalSearches counts local matcher searches.
	LocalSearches prometheus.Counter

	// LocalSearchDuration observes local search latency in seconds.
	LocalSearchDuration prometheus.Histogram

	// LocalSearchResults observes how many rows a local search returned.
	LocalSearchResults prometheus.Histogram
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ReconciliationsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliations_started_total",
			Help:      "Total number of reconciliation runs started",
		}),
		ReconciliationsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliations_completed_total",
			Help:      "Total number of reconciliation runs that produced citations",
		}),
		ReconciliationsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliations_failed_total",
			Help:      "Total number of failed reconciliation runs by outcome",
		}, []string{"outcome"}),
		ReconciliationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconciliation_duration_seconds",
			Help:      "Duration of reconciliation runs in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		CandidatesPerReconciliation: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconciliation_candidates",
			Help:      "Raw candidates gathered by provider fan-out",
			Buckets:   []float64{0, 1, 5, 10, 20, 40, 80, 160},
		}),

		// Providers
		ProviderLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_lookups_total",
			Help:      "Total number of provider lookups",
		}, []string{"provider", "mode"}),
		ProviderLookupsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_lookups_failed_total",
			Help:      "Total number of failed provider lookups",
		}, []string{"provider", "mode"}),
		ProviderLookupDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_lookup_duration_seconds",
			Help:      "Duration of provider lookups in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		ProviderRecords: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_records_total",
			Help:      "Total number of records returned by providers",
		}, []string{"provider"}),

		// Enrichment
		EnrichmentRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_requests_total",
			Help:      "Total number of enrichment batches sent",
		}, []string{"oracle"}),
		EnrichmentFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_failures_total",
			Help:      "Total number of failed enrichment batches",
		}, []string{"oracle"}),
		EnrichmentDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "enrichment_duration_seconds",
			Help:      "Duration of enrichment batches in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 45, 90},
		}, []string{"oracle"}),
		EnrichmentCacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_cache_hits_total",
			Help:      "Total number of enrichment batches served from cache",
		}),
		EnrichmentCacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrichment_cache_misses_total",
			Help:      "Total number of enrichment cache misses",
		}),

		// Local matcher
		LocalSearches: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "local_searches_total",
			Help:      "Total number of local matcher searches",
		}),
		LocalSearchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "local_search_duration_seconds",
			Help:      "Duration of local matcher searches in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		LocalSearchResults: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "local_search_results",
			Help:      "Rows returned per local search",
			Buckets:   []float64{0, 1, 3, 5, 10, 20, 50},
		}),
	}
}

// RecordReconciliationStarted increments the started counter.
func (m *Metrics) RecordReconciliationStarted() {
	m.ReconciliationsStarted.Inc()
}

// RecordReconciliationCompleted records a successful run and its duration.
func (m *Metrics) RecordReconciliationCompleted(durationSeconds float64) {
	m.ReconciliationsCompleted.Inc()
	m.ReconciliationDuration.Observe(durationSeconds)
}

// RecordReconciliationFailed records a failed run by outcome.
func (m *Metrics) RecordReconciliationFailed(outcome string, durationSeconds float64) {
	m.ReconciliationsFailed.WithLabelValues(outcome).Inc()
	m.ReconciliationDuration.Observe(durationSeconds)
}

// RecordCandidates records the raw fan-out size of a run.
func (m *Metrics) RecordCandidates(count int) {
	m.CandidatesPerReconciliation.Observe(float64(count))
}

// RecordProviderLookup records a successful lookup.
func (m *Metrics) RecordProviderLookup(provider, mode string, records int, durationSeconds float64) {
	m.ProviderLookups.WithLabelValues(provider, mode).Inc()
	m.ProviderLookupDuration.WithLabelValues(provider).Observe(durationSeconds)
	m.ProviderRecords.WithLabelValues(provider).Add(float64(records))
}

// RecordProviderLookupFailed records a failed lookup.
func (m *Metrics) RecordProviderLookupFailed(provider, mode string, durationSeconds float64) {
	m.ProviderLookups.WithLabelValues(provider, mode).Inc()
	m.ProviderLookupsFailed.WithLabelValues(provider, mode).Inc()
	m.ProviderLookupDuration.WithLabelValues(provider).Observe(durationSeconds)
}

// RecordEnrichment records an oracle batch.
func (m *Metrics) RecordEnrichment(oracle string, durationSeconds float64, failed bool) {
	m.EnrichmentRequests.WithLabelValues(oracle).Inc()
	m.EnrichmentDuration.WithLabelValues(oracle).Observe(durationSeconds)
	if failed {
		m.EnrichmentFailures.WithLabelValues(oracle).Inc()
	}
}

// RecordEnrichmentCache records a cache lookup outcome.
func (m *Metrics) RecordEnrichmentCache(hit bool) {
	if hit {
		m.EnrichmentCacheHits.Inc()
		return
	}
	m.EnrichmentCacheMisses.Inc()
}

// RecordLocalSearch records a local matcher search.
func (m *Metrics) RecordLocalSearch(results int, durationSeconds float64) {
	m.LocalSearches.Inc()
	m.LocalSearchDuration.Observe(durationSeconds)
	m.LocalSearchResults.Observe(float64(results))
}

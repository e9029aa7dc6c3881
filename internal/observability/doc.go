// Package observability provides logging, metrics and context helpers for the
// bibliomatch service.
//
// # Logging
//
// Create a logger from configuration:
//
//	logger := observability.NewLogger(observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	})
//	logger = observability.LoggerFromContext(ctx, logger)
//	logger.Info().Msg("reconcile started")
//
// # Metrics
//
//	metrics := observability.NewMetrics("bibliomatch")
//	metrics.RecordProviderLookup("google_books", "title", 12, 0.4)
//
// A nil *Metrics is accepted by every component that records metrics; recording
// is then skipped.
//
// # Standard Fields
//
//   - request_id: HTTP request identifier
//   - correlation_id: identifier shared across services
//   - kind: detected record kind (book, article)
//   - query: free-text reconciliation query
//   - provider: catalog provider (google_books, open_library, crossref)
//   - mode: provider lookup mode (general, title, identifier)
//   - component: emitting component
package observability

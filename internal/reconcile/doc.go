// Package reconcile turns a bibliographic query into a short list of formatted
// citations by querying external catalogs and reconciling what they return.
//
// A run detects whether the query targets a book or an article, fans out to the
// matching providers, ranks and strictly filters the candidates, optionally
// enriches the sparse ones through an LLM oracle, collapses editions of the same
// work, fills remaining gaps from Google Books, and finally formats the
// survivors and scores how much they agree with each other.
//
// Every ranking and filtering stage is a pure function of the candidate list.
// Provider and oracle failures degrade to "no data" and are logged; only the
// outcomes below are reported to the caller:
//
//   - domain.ErrEmptyQuery when no query field is given
//   - domain.ErrNoResults when fan-out found nothing
//   - domain.ErrNoRelevantResults when nothing survived filtering
//   - domain.ErrNoCitation when no survivor could be formatted
package reconcile

package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/helixir/bibliomatch-service/internal/domain"
)

// Error codes returned alongside 4xx/5xx responses.
const (
	codeInvalidInput      = "invalid_input"
	codeEmptyQuery        = "empty_query"
	codeNoResults         = "no_results"
	codeNoRelevantResults = "no_relevant_results"
	codeNoCitation        = "no_citation"
	codeTimeout           = "timeout"
	codeUnavailable       = "unavailable"
	codeInternal          = "internal"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type localSearchResponse struct {
	Results []domain.LocalMatch `json:"results"`
}

type reconcileResponse struct {
	Referencia string                  `json:"referencia"`
	Matches    []string                `json:"matches"`
	MaxResults int                     `json:"max_results"`
	Score      domain.ConfidenceReport `json:"score"`
}

func reconciliationToResponse(r *domain.Reconciliation) reconcileResponse {
	matches := r.Matches
	if matches == nil {
		matches = []string{}
	}
	return reconcileResponse{
		Referencia: r.Referencia,
		Matches:    matches,
		MaxResults: r.MaxResults,
		Score:      r.Score,
	}
}

// errorStatus maps a pipeline error to an HTTP status and error code. The three
// no-match failures share 404 but keep distinct codes.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		return http.StatusBadRequest, codeEmptyQuery
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, codeInvalidInput
	case errors.Is(err, domain.ErrNoResults):
		return http.StatusNotFound, codeNoResults
	case errors.Is(err, domain.ErrNoRelevantResults):
		return http.StatusNotFound, codeNoRelevantResults
	case errors.Is(err, domain.ErrNoCitation):
		return http.StatusNotFound, codeNoCitation
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, codeTimeout
	default:
		return http.StatusInternalServerError, codeInternal
	}
}

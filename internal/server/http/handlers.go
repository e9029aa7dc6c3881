package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/helixir/bibliomatch-service/internal/domain"
	"github.com/helixir/bibliomatch-service/internal/localmatch"
	"github.com/helixir/bibliomatch-service/internal/observability"
	"github.com/helixir/bibliomatch-service/internal/scoring"
)

const maxRequestBodySize = 1 << 20 // 1 MB limit for request bodies

// localSearchRequest is the JSON body of POST /local-search.
type localSearchRequest struct {
	Author        string          `json:"author" validate:"max=512"`
	Title         string          `json:"title" validate:"max=1024"`
	Year          string          `json:"year" validate:"max=32"`
	Extra         string          `json:"extra" validate:"max=1024"`
	TopK          *int            `json:"top_k,omitempty" validate:"omitempty,min=1,max=100"`
	AuthorPenalty *penaltyRequest `json:"author_penalty,omitempty"`
	YearPenalty   *penaltyRequest `json:"year_penalty,omitempty"`
}

// penaltyRequest overrides one penalty toggle. Absent fields keep the default.
type penaltyRequest struct {
	Enabled *bool    `json:"enabled,omitempty"`
	Factor  *float64 `json:"factor,omitempty" validate:"omitempty,gte=0,lte=1"`
}

func (p *penaltyRequest) apply(t scoring.PenaltyToggle) scoring.PenaltyToggle {
	if p == nil {
		return t
	}
	if p.Enabled != nil {
		t.Enabled = *p.Enabled
	}
	if p.Factor != nil {
		t.Factor = *p.Factor
	}
	return t
}

// reconcileRequest is the JSON body of POST /reconcile.
type reconcileRequest struct {
	Query    string               `json:"query" validate:"max=4096"`
	Criteria domain.QueryCriteria `json:"criteria"`
}

// localSearch handles POST /api/v1/references/local-search.
func (s *Server) localSearch(w http.ResponseWriter, r *http.Request) {
	if s.local == nil {
		writeErrorCode(w, http.StatusServiceUnavailable, codeUnavailable, "local dataset is not loaded")
		return
	}

	var req localSearchRequest
	if err := s.decode(r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}

	q := localmatch.Query{
		Author: strings.TrimSpace(req.Author),
		Title:  strings.TrimSpace(req.Title),
		Year:   strings.TrimSpace(req.Year),
		Extra:  strings.TrimSpace(req.Extra),
	}
	if q.Author == "" && q.Title == "" && q.Year == "" && q.Extra == "" {
		s.writeFailure(w, r, domain.ErrEmptyQuery)
		return
	}

	opts := s.localOptions
	if req.TopK != nil {
		opts.TopK = *req.TopK
	}
	opts.Penalties.Author = req.AuthorPenalty.apply(opts.Penalties.Author)
	opts.Penalties.Year = req.YearPenalty.apply(opts.Penalties.Year)

	start := time.Now()
	results := s.local.Search(q, opts)
	if s.metrics != nil {
		s.metrics.RecordLocalSearch(len(results), time.Since(start).Seconds())
	}
	if results == nil {
		results = []domain.LocalMatch{}
	}

	writeJSON(w, http.StatusOK, localSearchResponse{Results: results})
}

// reconcile handles POST /api/v1/references/reconcile.
func (s *Server) reconcile(w http.ResponseWriter, r *http.Request) {
	var req reconcileRequest
	if err := s.decode(r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}

	ctx := r.Context()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	res, err := s.reconciler.Reconcile(ctx, req.Query, req.Criteria)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, reconciliationToResponse(res))
}

// decode reads a size-limited JSON body into v and validates it.
func (s *Server) decode(r *http.Request, v any) error {
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBodySize+1))
	if err != nil {
		return domain.NewValidationError("body", "failed to read request body")
	}
	if len(body) > maxRequestBodySize {
		return domain.NewValidationError("body", "request body too large")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return domain.NewValidationError("body", "invalid JSON request body")
	}
	if err := s.validate.Struct(v); err != nil {
		return validationFailure(err)
	}
	return nil
}

// validationFailure turns the first validator error into a ValidationError
// named after the JSON field.
func validationFailure(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.NewValidationError("body", err.Error())
	}

	fe := verrs[0]
	field := jsonPath(fe.Namespace())
	switch fe.Tag() {
	case "max", "lte":
		return domain.NewValidationError(field, fmt.Sprintf("must be at most %s", fe.Param()))
	case "min", "gte":
		return domain.NewValidationError(field, fmt.Sprintf("must be at least %s", fe.Param()))
	default:
		return domain.NewValidationError(field, fmt.Sprintf("failed %q validation", fe.Tag()))
	}
}

// writeFailure maps err to a status and logs unexpected failures.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError {
		logger := observability.LoggerFromContext(r.Context(), s.logger)
		logger.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}

	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeErrorCode(w, status, code, msg)
}

// jsonPath drops the struct name from a validator namespace
// ("reconcileRequest.criteria.title" becomes "criteria.title").
func jsonPath(namespace string) string {
	_, path, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	return path
}

// jsonFieldName reports struct fields by their JSON names.
func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for common error conditions.
var (
	// ErrNotFound indicates that a requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates that the input data is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration indicates a fatal configuration problem such as a missing
	// data file or column.
	ErrConfiguration = errors.New("configuration error")

	// ErrEmptyQuery indicates that no query field was supplied.
	ErrEmptyQuery = errors.New("at least one query field is required")

	// ErrNoResults indicates that no provider returned any candidate.
	ErrNoResults = errors.New("no results found")

	// ErrNoRelevantResults indicates that candidates existed but none satisfied the
	// supplied criteria.
	ErrNoRelevantResults = errors.New("no relevant result found for the given fields")

	// ErrNoCitation indicates that no surviving candidate could be formatted.
	ErrNoCitation = errors.New("could not build a citation from the results found")

	// ErrRateLimited indicates that the request was rate limited.
	ErrRateLimited = errors.New("rate limited")
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// MissingColumnsError reports required dataset columns that were not found.
type MissingColumnsError struct {
	Missing  []string
	Expected []string
}

// Error implements the error interface.
func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing columns: [%s]; expected: [%s]",
		strings.Join(e.Missing, ", "), strings.Join(e.Expected, ", "))
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *MissingColumnsError) Unwrap() error {
	return ErrConfiguration
}

// RateLimitError provides details about a rate limit error.
type RateLimitError struct {
	Source     string
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by %s: retry after %s", e.Source, e.RetryAfter)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// ExternalAPIError provides details about an external API error.
type ExternalAPIError struct {
	Source     string
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *ExternalAPIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Source, e.StatusCode, e.Message)
}

// Unwrap returns the underlying cause error.
func (e *ExternalAPIError) Unwrap() error {
	return e.Cause
}

// ProviderError wraps a failed provider lookup. The pipeline degrades it to an
// empty result.
type ProviderError struct {
	Provider string
	Mode     string
	Cause    error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s (%s) failed: %v", e.Provider, e.Mode, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewMissingColumnsError creates a new MissingColumnsError.
func NewMissingColumnsError(missing, expected []string) *MissingColumnsError {
	return &MissingColumnsError{
		Missing:  missing,
		Expected: expected,
	}
}

// NewRateLimitError creates a new RateLimitError.
func NewRateLimitError(source string, retryAfter time.Duration) *RateLimitError {
	return &RateLimitError{
		Source:     source,
		RetryAfter: retryAfter,
	}
}

// NewExternalAPIError creates a new ExternalAPIError.
func NewExternalAPIError(source string, statusCode int, message string, cause error) *ExternalAPIError {
	return &ExternalAPIError{
		Source:     source,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}

// NewProviderError creates a new ProviderError.
func NewProviderError(provider, mode string, cause error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Mode:     mode,
		Cause:    cause,
	}
}

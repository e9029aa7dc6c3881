package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorFromName(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Author
		wantOK bool
	}{
		{"given and surname", "Machado de Assis", Author{Surname: "Assis", GivenName: "Machado de"}, true},
		{"single token", "Platão", Author{Surname: "Platão"}, true},
		{"extra whitespace", "  Clarice   Lispector ", Author{Surname: "Lispector", GivenName: "Clarice"}, true},
		{"blank", "   ", Author{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AuthorFromName(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecord_Helpers(t *testing.T) {
	r := &Record{
		Authors: []Author{{Surname: "Assis", GivenName: "Machado de"}, {Surname: "Bosi"}},
		Title:   "Dom Casmurro",
	}

	assert.Equal(t, "Assis", r.PrimarySurname())
	assert.Equal(t, "Machado de Assis Bosi", r.AuthorNames())
	assert.Equal(t, NatureUncertain, r.EffectiveNature())

	empty := &Record{}
	assert.Equal(t, "", empty.PrimarySurname())
}

func TestParseNature(t *testing.T) {
	assert.Equal(t, NatureOriginal, ParseNature(" Original "))
	assert.Equal(t, NatureSummary, ParseNature("resumo"))
	assert.Equal(t, NatureUncertain, ParseNature(""))
	assert.Equal(t, NatureUncertain, ParseNature("romance"))

	assert.True(t, NatureStudy.IsDerivative())
	assert.False(t, NatureTranslation.IsDerivative())
	assert.False(t, NatureOriginal.IsDerivative())
}

func TestQueryCriteria_FreeText(t *testing.T) {
	tests := []struct {
		name     string
		criteria QueryCriteria
		want     string
	}{
		{"empty", QueryCriteria{}, ""},
		{"blank fields", QueryCriteria{Author: "  ", Title: "\t"}, ""},
		{"author and title", QueryCriteria{Title: "Dom Casmurro", Author: "Machado"}, "Machado | Dom Casmurro"},
		{
			"field order",
			QueryCriteria{Extra: "x", Identifier: "978", Publisher: "Globo", Journal: "J", Year: "1899", Title: "T", Author: "A"},
			"A | T | 1899 | J | Globo | 978 | x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.criteria.FreeText())
			assert.Equal(t, tt.want == "", tt.criteria.IsEmpty())
		})
	}
}

func TestClassifyConfidence(t *testing.T) {
	assert.Equal(t, ConfidenceHigh, ClassifyConfidence(90))
	assert.Equal(t, ConfidenceModerate, ClassifyConfidence(89.99))
	assert.Equal(t, ConfidenceModerate, ClassifyConfidence(75))
	assert.Equal(t, ConfidenceLow, ClassifyConfidence(60))
	assert.Equal(t, ConfidenceCritical, ClassifyConfidence(59.9))
}

func TestErrors(t *testing.T) {
	t.Run("validation error unwraps to invalid input", func(t *testing.T) {
		err := fmt.Errorf("decode: %w", NewValidationError("title", "too long"))
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Contains(t, err.Error(), "title: too long")
	})

	t.Run("missing columns unwraps to configuration", func(t *testing.T) {
		err := NewMissingColumnsError([]string{"ano"}, []string{"autor", "ano"})
		assert.ErrorIs(t, err, ErrConfiguration)
		assert.Equal(t, "missing columns: [ano]; expected: [autor, ano]", err.Error())
	})

	t.Run("rate limit", func(t *testing.T) {
		err := NewRateLimitError("google_books", 2*time.Second)
		assert.ErrorIs(t, err, ErrRateLimited)
	})

	t.Run("provider error exposes cause", func(t *testing.T) {
		cause := NewExternalAPIError("crossref", 503, "unavailable", nil)
		err := NewProviderError("crossref", "general", cause)

		var apiErr *ExternalAPIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, 503, apiErr.StatusCode)
		assert.Contains(t, err.Error(), "provider crossref (general) failed")
	})
}

package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/helixir/bibliomatch-service/internal/domain"
)

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name     string
		criteria domain.QueryCriteria
		query    string
		expected domain.Kind
	}{
		{"doi prefix", domain.QueryCriteria{Identifier: "10.1038/nature12373"}, "x", domain.KindArticle},
		{"doi word", domain.QueryCriteria{Identifier: "DOI: abc"}, "x", domain.KindArticle},
		{"issn", domain.QueryCriteria{Identifier: "ISSN 1234-5678"}, "x", domain.KindArticle},
		{"isbn", domain.QueryCriteria{Identifier: "ISBN 9788535910667"}, "doi", domain.KindBook},
		{"bare digits fall through to query", domain.QueryCriteria{Identifier: "9788535910667"}, "dom casmurro", domain.KindBook},
		{"journal criterion", domain.QueryCriteria{Journal: "Nature"}, "x", domain.KindArticle},
		{"query marker", domain.QueryCriteria{}, "Smith, Journal of Biology", domain.KindArticle},
		{"volume marker", domain.QueryCriteria{}, "Revista Brasileira vol. 3", domain.KindArticle},
		{"plain book query", domain.QueryCriteria{}, "Machado de Assis | Dom Casmurro", domain.KindBook},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectKind(tt.criteria, tt.query))
		})
	}
}

func TestLanguageHint(t *testing.T) {
	tests := []struct {
		query    string
		expected string
	}{
		{"Assis, Machado", "pt"},
		{"editora Garnier", "pt"},
		{"Memórias do Rio antigo", "pt"},
		{"Dom Casmurro", ""},
		{"Riot grrrl", ""},
		{"Título: Iracema", "pt"},
		{"gramática do português", ""},
		{"Mistério", ""},
		{"portugu", "pt"},
		{"(rio)", "pt"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.expected, LanguageHint(tt.query))
		})
	}
}

// Package enrichment asks an external LLM with web search to fill descriptive
// fields that catalog providers left empty, and to classify each candidate as an
// original work or a derivative.
//
// The oracle is best effort. Callers must only apply returned values to fields
// that are still empty, and must treat any error as an empty result.
//
// Example usage:
//
//	oracle, err := enrichment.NewOracle(enrichment.FactoryConfig{Provider: "openai", ...})
//	cached := enrichment.NewCachingOracle(oracle, enrichment.NewMemoryCache(256, 0), logger)
//	fields, err := cached.EnrichBatch(ctx, "Machado | Dom Casmurro", items)
package enrichment

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/helixir/bibliomatch-service/internal/domain"
)

// Item is a candidate submitted for enrichment, identified by its work key.
type Item struct {
	Key    string
	Record *domain.Record
}

// Fields are the values the oracle proposes for one work key. Empty strings mean
// the oracle did not know.
type Fields struct {
	Publisher     Text `json:"editora,omitempty"`
	Place         Text `json:"local,omitempty"`
	TotalPages    Text `json:"paginas_totais,omitempty"`
	Edition       Text `json:"edicao,omitempty"`
	ISBN          Text `json:"isbn,omitempty"`
	Language      Text `json:"idioma,omitempty"`
	Nature        Text `json:"natureza,omitempty"`
	Journal       Text `json:"revista,omitempty"`
	SuggestedYear Text `json:"ano_sugerido,omitempty"`
}

// Oracle enriches a batch of candidates in a single call.
type Oracle interface {
	// EnrichBatch returns proposed fields keyed by Item.Key. Keys the oracle
	// ignored are absent.
	EnrichBatch(ctx context.Context, query string, items []Item) (map[string]Fields, error)

	// Name identifies the oracle in logs and metrics.
	Name() string
}

// Text is a string that also decodes from JSON numbers, booleans and null.
// Models regularly answer "paginas_totais": 252 instead of a string.
type Text string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Text) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case nil:
		*t = ""
	case string:
		*t = Text(strings.TrimSpace(x))
	case float64:
		*t = Text(strconv.FormatFloat(x, 'f', -1, 64))
	case bool:
		*t = Text(strconv.FormatBool(x))
	default:
		*t = ""
	}
	return nil
}

// String returns the text value.
func (t Text) String() string { return string(t) }

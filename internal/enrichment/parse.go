package enrichment

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	codeFence  = regexp.MustCompile("(?is)^\\s*```(?:json)?\\s*|\\s*```\\s*$")
	jsonLookup = regexp.MustCompile(`(\{[\s\S]*\}|\[[\s\S]*\])`)
)

// enrichedItem is one element of the "enriched" array.
type enrichedItem struct {
	Key Text `json:"key"`
	Fields
}

// ParseObject decodes the first JSON object found in text. It accepts bare JSON,
// JSON inside a markdown code fence, and JSON surrounded by prose. Anything else,
// including a top-level array, yields nil.
func ParseObject(text string) map[string]json.RawMessage {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return nil
	}
	if obj, ok := decodeObject(raw); ok {
		return obj
	}

	noFence := strings.TrimSpace(codeFence.ReplaceAllString(raw, ""))
	if noFence != "" {
		if obj, ok := decodeObject(noFence); ok {
			return obj
		}
	}

	source := noFence
	if source == "" {
		source = raw
	}
	for _, cand := range jsonLookup.FindAllString(source, -1) {
		var v any
		if err := json.Unmarshal([]byte(strings.TrimSpace(cand)), &v); err != nil {
			continue
		}
		obj, _ := decodeObject(strings.TrimSpace(cand))
		return obj
	}
	return nil
}

// decodeObject reports ok when s is valid JSON. The map is nil unless s is an
// object.
func decodeObject(s string) (map[string]json.RawMessage, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, true
	}
	return obj, true
}

// ParseEnrichment extracts the "enriched" array from an oracle answer. Items
// without a key, and answers that are not JSON, are dropped.
func ParseEnrichment(text string) map[string]Fields {
	obj := ParseObject(text)
	raw, ok := obj["enriched"]
	if !ok {
		return map[string]Fields{}
	}

	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil {
		return map[string]Fields{}
	}

	out := make(map[string]Fields, len(list))
	for _, elem := range list {
		var item enrichedItem
		if err := json.Unmarshal(elem, &item); err != nil {
			continue
		}
		if item.Key == "" {
			continue
		}
		out[string(item.Key)] = item.Fields
	}
	return out
}

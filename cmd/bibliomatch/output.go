package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/helixir/bibliomatch-service/internal/domain"
)

// Output formats.
const (
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatHuman = "human"
)

func validateFormat(format string) error {
	switch format {
	case formatJSON, formatYAML, formatHuman:
		return nil
	default:
		return domain.NewValidationError("format", fmt.Sprintf("unsupported output format %q", format))
	}
}

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	if format == formatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

type searchOutput struct {
	Results []domain.LocalMatch `json:"results" yaml:"results"`
}

func writeSearch(w io.Writer, format string, results []domain.LocalMatch) error {
	if format != formatHuman {
		return writeStructured(w, format, searchOutput{Results: results})
	}

	for i, r := range results {
		kind := "other"
		if r.IsBook {
			kind = "book"
		}
		if _, err := fmt.Fprintf(w, "%2d. [%.4f] (%s) %s\n", i+1, r.Score, kind, r.Ref); err != nil {
			return err
		}
	}
	return nil
}

func writeReconciliation(w io.Writer, format string, r *domain.Reconciliation) error {
	if format != formatHuman {
		return writeStructured(w, format, r)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Citation:\n  %s\n", r.Referencia)
	if len(r.Matches) > 1 {
		b.WriteString("Alternatives:\n")
		for _, m := range r.Matches[1:] {
			fmt.Fprintf(&b, "  - %s\n", m)
		}
	}
	fmt.Fprintf(&b, "Confidence: %.2f%% (%s)\n", r.Score.ScorePercent, r.Score.Classification)
	_, err := io.WriteString(w, b.String())
	return err
}

package reconcile

import (
	"strings"

	"github.com/helixir/bibliomatch-service/internal/domain"
	"github.com/helixir/bibliomatch-service/internal/enrichment"
)

// suspiciousMarkers flag a title for enrichment even when its fields are complete.
var suspiciousMarkers = []string{"resumo", "adap", "hq", "analysis", "crítica", "critica", "study"}

// SelectForEnrichment picks, in order, up to limit records that miss publisher,
// place or pages, or whose title looks like a derivative work.
func SelectForEnrichment(records []*domain.Record, limit int) []enrichment.Item {
	if limit <= 0 {
		return nil
	}

	var items []enrichment.Item
	for _, r := range records {
		missing := r.Publisher == "" || r.Place == "" || r.TotalPages == ""
		suspicious := containsAny(strings.ToLower(r.Title), suspiciousMarkers)
		if missing || suspicious {
			items = append(items, enrichment.Item{Key: WorkKey(r), Record: r})
		}
		if len(items) >= limit {
			break
		}
	}
	return items
}

// ApplyEnrichment fills the empty fields of each record from the oracle answer
// for its work key and sets its nature. Populated fields are never overwritten.
// Journal is only filled on articles; the suggested year only replaces a year
// that is not valid.
func ApplyEnrichment(records []*domain.Record, answers map[string]enrichment.Fields) {
	for _, r := range records {
		f, ok := answers[WorkKey(r)]
		if !ok {
			continue
		}

		fill(&r.Publisher, f.Publisher)
		fill(&r.Place, f.Place)
		fill(&r.TotalPages, f.TotalPages)
		fill(&r.Edition, f.Edition)
		fill(&r.ISBN, f.ISBN)
		fill(&r.Language, f.Language)
		if r.Kind == domain.KindArticle {
			fill(&r.Journal, f.Journal)
		}

		if suggested := f.SuggestedYear.String(); YearInt(r.Year) == 0 && YearInt(suggested) != 0 {
			r.Year = strings.TrimSpace(suggested)[:4]
		}

		r.Nature = domain.ParseNature(f.Nature.String())
	}
}

func fill(dst *string, v enrichment.Text) {
	if *dst == "" && v != "" {
		*dst = v.String()
	}
}

// FilterNature drops summaries, adaptations and studies when at least one
// record is known to be the original work.
func FilterNature(records []*domain.Record) []*domain.Record {
	hasOriginal := false
	for _, r := range records {
		if r.EffectiveNature() == domain.NatureOriginal {
			hasOriginal = true
			break
		}
	}
	if !hasOriginal {
		return records
	}

	out := make([]*domain.Record, 0, len(records))
	for _, r := range records {
		if r.EffectiveNature().IsDerivative() {
			continue
		}
		out = append(out, r)
	}
	return out
}

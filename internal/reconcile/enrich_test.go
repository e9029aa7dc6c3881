package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/bibliomatch-service/internal/domain"
	"github.com/helixir/bibliomatch-service/internal/enrichment"
)

func TestSelectForEnrichment(t *testing.T) {
	complete := &domain.Record{Title: "Dom Casmurro", Publisher: "Garnier", Place: "Rio", TotalPages: "256 p."}
	suspicious := &domain.Record{Title: "Dom Casmurro em HQ", Publisher: "X", Place: "Y", TotalPages: "40 p."}
	sparse := book("Assis", "", "Quincas Borba", "")

	t.Run("picks sparse and suspicious records in order", func(t *testing.T) {
		items := SelectForEnrichment([]*domain.Record{complete, suspicious, sparse}, 5)
		require.Len(t, items, 2)
		assert.Same(t, suspicious, items[0].Record)
		assert.Equal(t, "assis::quincas borba", items[1].Key)
	})

	t.Run("respects the limit", func(t *testing.T) {
		assert.Len(t, SelectForEnrichment([]*domain.Record{suspicious, sparse}, 1), 1)
	})

	t.Run("zero limit selects nothing", func(t *testing.T) {
		assert.Empty(t, SelectForEnrichment([]*domain.Record{sparse}, 0))
	})
}

func TestApplyEnrichment(t *testing.T) {
	t.Run("fills only missing fields", func(t *testing.T) {
		r := withPublisher(book("Assis", "", "Dom Casmurro", "1899"), "Garnier", "")
		ApplyEnrichment([]*domain.Record{r}, map[string]enrichment.Fields{
			"assis::dom casmurro": {
				Publisher:  "Penguin",
				Place:      "Rio de Janeiro",
				TotalPages: "256",
				ISBN:       "9788535910667",
				Journal:    "Revista",
				Nature:     "original",
			},
		})

		assert.Equal(t, "Garnier", r.Publisher)
		assert.Equal(t, "Rio de Janeiro", r.Place)
		assert.Equal(t, "256", r.TotalPages)
		assert.Equal(t, "9788535910667", r.ISBN)
		assert.Empty(t, r.Journal, "journal is only filled on articles")
		assert.Equal(t, domain.NatureOriginal, r.Nature)
	})

	t.Run("journal fills articles", func(t *testing.T) {
		r := &domain.Record{Title: "CRISPR", Kind: domain.KindArticle}
		ApplyEnrichment([]*domain.Record{r}, map[string]enrichment.Fields{"::crispr": {Journal: "Science"}})
		assert.Equal(t, "Science", r.Journal)
		assert.Equal(t, domain.NatureUncertain, r.Nature)
	})

	t.Run("suggested year replaces only invalid years", func(t *testing.T) {
		invalid := book("Assis", "", "Dom Casmurro", "s.d.")
		valid := book("Assis", "", "Quincas Borba", "1891")
		answers := map[string]enrichment.Fields{
			"assis::dom casmurro":  {SuggestedYear: "1899-12"},
			"assis::quincas borba": {SuggestedYear: "1900"},
		}

		ApplyEnrichment([]*domain.Record{invalid, valid}, answers)
		assert.Equal(t, "1899", invalid.Year)
		assert.Equal(t, "1891", valid.Year)
	})

	t.Run("records without an answer are untouched", func(t *testing.T) {
		r := book("Assis", "", "Helena", "")
		ApplyEnrichment([]*domain.Record{r}, map[string]enrichment.Fields{"x::y": {Publisher: "P"}})
		assert.Empty(t, r.Publisher)
		assert.Empty(t, r.Nature)
	})
}

func TestFilterNature(t *testing.T) {
	original := &domain.Record{Title: "a", Nature: domain.NatureOriginal}
	summary := &domain.Record{Title: "b", Nature: domain.NatureSummary}
	adaptation := &domain.Record{Title: "c", Nature: domain.NatureAdaptation}
	study := &domain.Record{Title: "d", Nature: domain.NatureStudy}
	translation := &domain.Record{Title: "e", Nature: domain.NatureTranslation}
	unknown := &domain.Record{Title: "f"}

	t.Run("derivatives dropped when an original exists", func(t *testing.T) {
		out := FilterNature([]*domain.Record{summary, original, adaptation, study, translation, unknown})
		assert.Equal(t, []*domain.Record{original, translation, unknown}, out)
	})

	t.Run("derivatives kept without an original", func(t *testing.T) {
		in := []*domain.Record{summary, adaptation, unknown}
		assert.Equal(t, in, FilterNature(in))
	})
}

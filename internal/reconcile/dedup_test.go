package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/bibliomatch-service/internal/domain"
)

func TestPreDedup(t *testing.T) {
	a := book("Assis", "", "Dom Casmurro", "1899")
	b := book("Other", "", "dom casmurro!", "1950")
	c := book("Assis", "", "", "")
	d := book("Assis", "", "Quincas Borba", "1891")

	t.Run("first title wins and untitled records are skipped", func(t *testing.T) {
		out := PreDedup([]*domain.Record{a, b, c, d}, 10)
		require.Len(t, out, 2)
		assert.Same(t, a, out[0])
		assert.Same(t, d, out[1])
	})

	t.Run("stops at the limit", func(t *testing.T) {
		assert.Len(t, PreDedup([]*domain.Record{a, d}, 1), 1)
	})

	t.Run("limit grows with max results", func(t *testing.T) {
		assert.Equal(t, 12, preDedupLimit(1))
		assert.Equal(t, 15, preDedupLimit(5))
		assert.Equal(t, 60, preDedupLimit(20))
	})
}

func TestDedupWorks(t *testing.T) {
	t.Run("richer record replaces a poorer one", func(t *testing.T) {
		poor := book("Assis", "", "Dom Casmurro", "1899")
		rich := withPublisher(book("Assis", "Machado de", "Dom Casmurro", "1899"), "Garnier", "256 p.")

		out := DedupWorks([]*domain.Record{poor, rich})
		require.Len(t, out, 1)
		assert.Same(t, rich, out[0])
	})

	t.Run("richness tie goes to the later year", func(t *testing.T) {
		older := withPublisher(book("Assis", "", "Dom Casmurro", "1899"), "Garnier", "")
		newer := withPublisher(book("Assis", "", "Dom Casmurro", "2016"), "Penguin", "")

		out := DedupWorks([]*domain.Record{older, newer})
		require.Len(t, out, 1)
		assert.Same(t, newer, out[0])

		out = DedupWorks([]*domain.Record{newer, older})
		assert.Same(t, newer, out[0])
	})

	t.Run("groups keep first-seen order", func(t *testing.T) {
		x := book("Assis", "", "Quincas Borba", "1891")
		y := book("Assis", "", "Dom Casmurro", "1899")
		yRich := withPublisher(book("Assis", "", "Dom Casmurro", "1899"), "Garnier", "")

		out := DedupWorks([]*domain.Record{x, y, yRich})
		require.Len(t, out, 2)
		assert.Same(t, x, out[0])
		assert.Same(t, yRich, out[1])
	})

	t.Run("records without surname and title are dropped", func(t *testing.T) {
		out := DedupWorks([]*domain.Record{{Publisher: "X"}})
		assert.Empty(t, out)
	})

	t.Run("same title by different authors are distinct works", func(t *testing.T) {
		out := DedupWorks([]*domain.Record{
			book("Assis", "", "Contos", ""),
			book("Lispector", "", "Contos", ""),
		})
		assert.Len(t, out, 2)
	})
}

package localmatch

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/helixir/bibliomatch-service/internal/domain"
	"github.com/helixir/bibliomatch-service/internal/scoring"
)

// writeWorkbook saves rows to an xlsx file in a temporary directory and returns
// its path.
func writeWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			t.Error(err)
		}
	}()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	path := filepath.Join(t.TempDir(), "refs.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

var header = []interface{}{"autor", "titulo", "tipo", "extra", "ano", "ref"}

func TestLoadWorkbook(t *testing.T) {
	t.Run("header is trimmed and case-insensitive", func(t *testing.T) {
		path := writeWorkbook(t, [][]interface{}{
			{" Autor ", "TITULO", "Tipo", "extra", "Ano", "REF"},
			{"Machado de Assis", "Dom Casmurro", "Livro", "", 1899, "REF-1"},
			{"", "", "", "", "", ""},
			{"Aluísio Azevedo", "O Cortiço", "Livro"},
		})

		ds, err := LoadWorkbook(path)
		require.NoError(t, err)
		require.Len(t, ds.Rows, 2)
		assert.Equal(t, path, ds.Source)
		assert.Equal(t, "Machado de Assis", ds.Rows[0].Author)
		assert.Equal(t, "1899", ds.Rows[0].Year)
		assert.Equal(t, "REF-1", ds.Rows[0].Ref)
		assert.Equal(t, "", ds.Rows[1].Ref)
	})

	t.Run("missing columns", func(t *testing.T) {
		path := writeWorkbook(t, [][]interface{}{
			{"autor", "titulo", "tipo", "ref"},
			{"A", "B", "Livro", "R"},
		})

		_, err := LoadWorkbook(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrConfiguration)

		var mce *domain.MissingColumnsError
		require.ErrorAs(t, err, &mce)
		assert.Equal(t, []string{"extra", "ano"}, mce.Missing)
		assert.Equal(t, RequiredColumns, mce.Expected)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadWorkbook(filepath.Join(t.TempDir(), "nope.xlsx"))
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	})
}

func TestMatcher_Search(t *testing.T) {
	ds, err := FromRecords(
		[]string{"autor", "titulo", "tipo", "extra", "ano", "ref"},
		[][]string{
			{"Machado de Assis", "Dom Casmurro", "Artigo", "", "1899", "REF-ART"},
			{"Machado de Assis", "Dom Casmurro", "Livro", "", "1899", "REF-1"},
			{"Machado de Assis", "Quincas Borba", "Livro", "", "1891", "REF-2"},
			{"José de Alencar", "Iracema", "Livro", "", "1865", "REF-3"},
		},
	)
	require.NoError(t, err)
	m := NewMatcher(ds)
	require.Equal(t, 4, m.Len())

	t.Run("exact title and author rank the book first", func(t *testing.T) {
		results := m.Search(Query{Title: "Dom Casmurro", Author: "Machado"}, DefaultOptions())
		require.NotEmpty(t, results)

		assert.Equal(t, "REF-1", results[0].Ref)
		assert.True(t, results[0].IsBook)
		assert.Greater(t, results[0].Score, 0.5)

		require.GreaterOrEqual(t, len(results), 2)
		assert.Equal(t, "REF-ART", results[1].Ref)
		assert.False(t, results[1].IsBook)
		assert.InDelta(t, BookBoost, results[0].Score-results[1].Score, 1e-9)
	})

	t.Run("top k truncates", func(t *testing.T) {
		opts := DefaultOptions()
		opts.TopK = 1
		results := m.Search(Query{Author: "Machado de Assis"}, opts)
		assert.Len(t, results, 1)
	})

	t.Run("empty query matches nothing", func(t *testing.T) {
		assert.Empty(t, m.Search(Query{}, DefaultOptions()))
	})

	t.Run("wrong year is penalized", func(t *testing.T) {
		q := Query{Title: "Iracema", Year: "1950"}

		withPenalty := m.Search(q, DefaultOptions())
		noPenalty := DefaultOptions()
		noPenalty.Penalties.Year.Enabled = false
		without := m.Search(q, noPenalty)

		require.NotEmpty(t, without)
		assert.Equal(t, "REF-3", without[0].Ref)
		if len(withPenalty) > 0 && withPenalty[0].Ref == "REF-3" {
			assert.Less(t, withPenalty[0].Score, without[0].Score)
		}
	})

	t.Run("ties keep dataset order", func(t *testing.T) {
		dup, err := FromRecords(
			[]string{"autor", "titulo", "tipo", "extra", "ano", "ref"},
			[][]string{
				{"Lima Barreto", "Triste Fim de Policarpo Quaresma", "Livro", "", "1915", "FIRST"},
				{"Lima Barreto", "Triste Fim de Policarpo Quaresma", "Livro", "", "1915", "SECOND"},
			},
		)
		require.NoError(t, err)

		results := NewMatcher(dup).Search(Query{Title: "Policarpo Quaresma"}, DefaultOptions())
		require.Len(t, results, 2)
		assert.Equal(t, "FIRST", results[0].Ref)
		assert.Equal(t, "SECOND", results[1].Ref)
	})
}

func TestMatcher_AuthorPenalty(t *testing.T) {
	ds, err := FromRecords(
		[]string{"autor", "titulo", "tipo", "extra", "ano", "ref"},
		[][]string{{"Jorge Amado", "Dom Casmurro", "Resumo", "", "", "FAKE"}},
	)
	require.NoError(t, err)
	m := NewMatcher(ds)

	q := Query{Title: "Dom Casmurro", Author: "Machado de Assis"}

	penalized := m.Search(q, DefaultOptions())
	off := Options{TopK: 10, Penalties: scoring.PenaltyOptions{}}
	plain := m.Search(q, off)

	require.Len(t, plain, 1)
	require.Len(t, penalized, 1)
	assert.Less(t, penalized[0].Score, plain[0].Score)
}

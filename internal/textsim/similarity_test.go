package textsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceRatio(t *testing.T) {
	t.Run("identical strings score one", func(t *testing.T) {
		assert.Equal(t, 1.0, SequenceRatio("Dom Casmurro", "dom casmurro"))
	})

	t.Run("empty side scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, SequenceRatio("", "abc"))
		assert.Equal(t, 0.0, SequenceRatio("abc", "!!!"))
	})

	t.Run("single substitution", func(t *testing.T) {
		assert.InDelta(t, 0.75, SequenceRatio("abcd", "abce"), 1e-9)
	})

	t.Run("symmetric", func(t *testing.T) {
		pairs := [][2]string{
			{"Memórias Póstumas", "memorias postumas de bras cubas"},
			{"abcabc", "cbacba"},
			{"Machado", "Machado de Assis"},
			{"o cortiço", "cortico o"},
			{"xyz", "zyx"},
		}
		for _, p := range pairs {
			assert.Equal(t, SequenceRatio(p[0], p[1]), SequenceRatio(p[1], p[0]), "pair %q", p)
		}
	})
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 0.0, Similarity("", "x"))
	assert.Equal(t, 1.0, Similarity("ASSIS", "assis"))
	// Diacritics are not stripped here.
	assert.Less(t, Similarity("Assís", "assis"), 1.0)
}

func TestWholeWordOverlap(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		candidate string
		expected  float64
	}{
		{"all tokens present", "dom casmurro", "Dom Casmurro: romance", 1},
		{"half present", "dom quixote", "Dom Casmurro", 0.5},
		{"substring is not a word", "casm", "Dom Casmurro", 0},
		{"empty query", "", "Dom Casmurro", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, WholeWordOverlap(tt.query, tt.candidate), 1e-9)
		})
	}
}

func TestPartialTokenScore(t *testing.T) {
	assert.InDelta(t, 1.0, PartialTokenScore("casm", "Dom Casmurro"), 1e-9)
	assert.InDelta(t, 0.5, PartialTokenScore("casm xyz", "Dom Casmurro"), 1e-9)
	assert.Equal(t, 0.0, PartialTokenScore("casm", ""))
	assert.Equal(t, 0.0, PartialTokenScore("", "Dom"))
}

func TestFuzzyTokenRecall(t *testing.T) {
	t.Run("typo above threshold gets full credit", func(t *testing.T) {
		assert.InDelta(t, 1.0, FuzzyTokenRecall("casmuro", "Dom Casmurro", 0.80), 1e-9)
	})

	t.Run("near miss gets half of best ratio", func(t *testing.T) {
		assert.InDelta(t, 0.375, FuzzyTokenRecall("abcd", "abce", 0.80), 1e-9)
	})

	t.Run("averages over query tokens", func(t *testing.T) {
		assert.InDelta(t, 0.5, FuzzyTokenRecall("dom zzzz", "dom casmurro", 0.80), 1e-9)
	})

	t.Run("empty sides", func(t *testing.T) {
		assert.Equal(t, 0.0, FuzzyTokenRecall("", "dom", 0.8))
		assert.Equal(t, 0.0, FuzzyTokenRecall("dom", "", 0.8))
	})
}

func TestLastNameScore(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		candidate string
		expected  float64
	}{
		{"exact surname", "Machado de Assis", "Joaquim Maria Machado de Assis", 1},
		{"close typo", "Machadoo", "Machado", 1},
		{"below threshold", "Assiz", "Assis", 0},
		{"unrelated", "Rosa", "Machado de Assis", 0},
		{"empty query", "", "Assis", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, LastNameScore(tt.query, tt.candidate))
		})
	}
}

func TestYearProximity(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		candidate string
		expected  float64
	}{
		{"exact", "1899", "1899", 1.0},
		{"off by one", "1899", "1900", 0.6},
		{"off by three", "1899", "1902", 0.3},
		{"off by four", "1899", "1903", 0.0},
		{"non numeric candidate", "1899", "abc", 0.0},
		{"empty candidate", "1899", "", 0.0},
		{"decimal candidate", "1899", "1899.0", 1.0},
		{"noisy query", "c. 1899", "1899", 1.0},
		{"empty query", "", "1899", 0.0},
		{"extreme integers", "9223372036854775807", "-9223372036854775808", 0.0},
		{"query past max year", "10000", "9999", 0.0},
		{"candidate past max year", "9999", "10000", 0.0},
		{"negative candidate", "1", "-1", 0.0},
		{"huge candidate", "1899", "1e300", 0.0},
		{"infinite candidate", "1899", "+Inf", 0.0},
		{"max year", "9999", "9998", 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, YearProximity(tt.query, tt.candidate))
		})
	}
}

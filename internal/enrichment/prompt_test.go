package enrichment

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/bibliomatch-service/internal/domain"
)

func TestBuildPrompt(t *testing.T) {
	authors := make([]domain.Author, 8)
	for i := range authors {
		authors[i] = domain.Author{Surname: "Autor", GivenName: "N"}
	}

	items := []Item{
		{Key: "assis::dom casmurro", Record: &domain.Record{
			Title:   "Dom Casmurro",
			Authors: authors,
			Year:    "1899",
			Kind:    domain.KindBook,
		}},
		{Key: "smith::crispr", Record: &domain.Record{
			Title:   "CRISPR",
			Journal: "Nature",
			Kind:    domain.KindArticle,
		}},
		{Key: "nil-record"},
	}

	system, user, err := BuildPrompt("Machado | Dom Casmurro", items)
	require.NoError(t, err)
	assert.Contains(t, system, `"enriched"`)

	var payload struct {
		Query      string                   `json:"consulta"`
		Candidates []map[string]interface{} `json:"candidatos"`
	}
	require.NoError(t, json.Unmarshal([]byte(user), &payload))

	assert.Equal(t, "Machado | Dom Casmurro", payload.Query)
	require.Len(t, payload.Candidates, 2)

	book := payload.Candidates[0]
	assert.Equal(t, "livro", book["tipo"])
	assert.Len(t, book["autores"], maxPromptAuthors)
	assert.Nil(t, book["editora"])
	assert.Equal(t, "1899", book["ano"])

	article := payload.Candidates[1]
	assert.Equal(t, "artigo", article["tipo"])
	assert.Equal(t, "Nature", article["revista"])
}

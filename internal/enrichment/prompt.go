package enrichment

import (
	"encoding/json"
	"fmt"

	"github.com/helixir/bibliomatch-service/internal/domain"
)

// maxPromptAuthors caps how many authors of a candidate are sent to the oracle.
const maxPromptAuthors = 6

const systemPrompt = `Você é um bibliotecário especialista em catalogação. Recebe uma consulta bibliográfica e uma lista de candidatos retornados por catálogos públicos.

Para cada candidato, pesquise na web e devolva apenas dados que você consegue confirmar:
- editora, local de publicação, número total de páginas, edição, ISBN e idioma;
- para artigos, o nome do periódico em "revista";
- "ano_sugerido" somente quando o ano informado estiver ausente ou for claramente inválido;
- "natureza": um de "original", "traducao", "adaptacao", "resumo", "estudo" ou "incerto". Resumos, guias de leitura, análises, quadrinizações e adaptações NÃO são a obra original.

Nunca invente valores. Quando não souber, use null.
Responda somente com JSON no formato:
{"enriched": [{"key": "...", "editora": null, "local": null, "paginas_totais": null, "edicao": null, "isbn": null, "idioma": null, "natureza": "incerto", "revista": null, "ano_sugerido": null}]}`

type promptAuthor struct {
	Surname   string `json:"sobrenome"`
	GivenName string `json:"nome"`
}

type promptCandidate struct {
	Key        string         `json:"key"`
	Kind       string         `json:"tipo"`
	Title      *string        `json:"titulo"`
	Authors    []promptAuthor `json:"autores"`
	Year       *string        `json:"ano"`
	Publisher  *string        `json:"editora"`
	Place      *string        `json:"local"`
	TotalPages *string        `json:"paginas_totais"`
	Journal    *string        `json:"revista"`
}

type promptPayload struct {
	Query      string            `json:"consulta"`
	Candidates []promptCandidate `json:"candidatos"`
}

// BuildPrompt returns the system instructions and the user message for a batch.
func BuildPrompt(query string, items []Item) (string, string, error) {
	payload := promptPayload{
		Query:      query,
		Candidates: make([]promptCandidate, 0, len(items)),
	}

	for _, it := range items {
		if it.Record == nil {
			continue
		}
		rec := it.Record
		kind := "livro"
		if rec.Kind == domain.KindArticle {
			kind = "artigo"
		}

		authors := make([]promptAuthor, 0, min(len(rec.Authors), maxPromptAuthors))
		for i, a := range rec.Authors {
			if i == maxPromptAuthors {
				break
			}
			authors = append(authors, promptAuthor{Surname: a.Surname, GivenName: a.GivenName})
		}

		payload.Candidates = append(payload.Candidates, promptCandidate{
			Key:        it.Key,
			Kind:       kind,
			Title:      nullable(rec.Title),
			Authors:    authors,
			Year:       nullable(rec.Year),
			Publisher:  nullable(rec.Publisher),
			Place:      nullable(rec.Place),
			TotalPages: nullable(rec.TotalPages),
			Journal:    nullable(rec.Journal),
		})
	}

	user, err := json.Marshal(payload)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal enrichment payload: %w", err)
	}
	return systemPrompt, string(user), nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

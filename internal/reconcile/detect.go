package reconcile

import (
	"regexp"
	"strings"

	"github.com/helixir/bibliomatch-service/internal/domain"
)

// articleMarkers in a free-text query route it to article providers.
var articleMarkers = []string{"doi", "issn", "journal", "revista", "article", "volume", "vol.", "n.", "issue"}

// portugueseHint matches whole words, with Unicode-aware word boundaries.
var portugueseHint = regexp.MustCompile(`(?:^|[^\p{L}\p{M}\p{N}_])(?:autor|título|edicao|edição|editora|rio|sao|brasil|portugu)(?:$|[^\p{L}\p{M}\p{N}_])`)

// DetectKind decides which provider family serves the query. An identifier that
// looks like a DOI or ISSN, or any journal criterion, means article; an ISBN
// means book; otherwise the free text is scanned for article markers.
func DetectKind(criteria domain.QueryCriteria, query string) domain.Kind {
	if id := strings.ToLower(strings.TrimSpace(criteria.Identifier)); id != "" {
		if strings.Contains(id, "10.") || strings.Contains(id, "doi") || strings.Contains(id, "issn") {
			return domain.KindArticle
		}
		if strings.Contains(id, "isbn") {
			return domain.KindBook
		}
	}
	if strings.TrimSpace(criteria.Journal) != "" {
		return domain.KindArticle
	}

	q := strings.ToLower(query)
	for _, m := range articleMarkers {
		if strings.Contains(q, m) {
			return domain.KindArticle
		}
	}
	return domain.KindBook
}

// LanguageHint returns "pt" when the query reads like Brazilian Portuguese or
// contains a comma, and "" otherwise.
func LanguageHint(query string) string {
	if strings.Contains(query, ",") || portugueseHint.MatchString(strings.ToLower(query)) {
		return "pt"
	}
	return ""
}

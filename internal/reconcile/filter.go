package reconcile

import (
	"strings"
	"unicode/utf8"

	"github.com/helixir/bibliomatch-service/internal/domain"
	"github.com/helixir/bibliomatch-service/internal/textsim"
)

// Strict filter thresholds.
const (
	SurnameMinSimilarity = 0.86
	TitleMinCoverage     = 0.6
	TitleMinSimilarity   = 0.62
	minSurnameTokenLen   = 3
)

// blockingTerms exclude a candidate whenever author or title criteria are given.
var blockingTerms = []string{
	"trivia", "summary", "resumo", "workbook", "guide", "guia",
	"analysis", "study", "comentado", "comentarios", "adaptação", "adaptacao",
}

// StrictFilter keeps the records that satisfy the author and title criteria.
// Without either criterion the input is returned unchanged.
//
// When nothing passes, a title criterion makes the empty result final. With
// only an author criterion the author-only matches are returned instead.
func StrictFilter(records []*domain.Record, criteria domain.QueryCriteria) []*domain.Record {
	c := criteria.Trimmed()
	if c.Author == "" && c.Title == "" {
		return records
	}

	f := newStrictFilter(c)
	var kept, byAuthor []*domain.Record
	for _, r := range records {
		authorOK := f.authorOK(r)
		if authorOK {
			byAuthor = append(byAuthor, r)
		}
		if authorOK && f.titleOK(r) {
			kept = append(kept, r)
		}
	}

	switch {
	case len(kept) > 0:
		return kept
	case c.Title != "":
		return nil
	default:
		return byAuthor
	}
}

type strictFilter struct {
	authorTokens []string
	titleTokens  []string
	foldedTitle  string
}

func newStrictFilter(c domain.QueryCriteria) strictFilter {
	f := strictFilter{
		authorTokens: textsim.ContentTokens(c.Author),
		titleTokens:  textsim.ContentTokens(c.Title),
		foldedTitle:  textsim.Fold(c.Title),
	}

	var relevant []string
	for _, t := range f.authorTokens {
		if utf8.RuneCountInString(t) >= minSurnameTokenLen {
			relevant = append(relevant, t)
		}
	}
	if len(relevant) == 0 && len(f.authorTokens) > 0 {
		relevant = f.authorTokens[len(f.authorTokens)-1:]
	}
	f.authorTokens = relevant
	return f
}

// authorOK requires one relevant query token to match a surname of the record.
func (f strictFilter) authorOK(r *domain.Record) bool {
	if len(f.authorTokens) == 0 {
		return true
	}

	surnames := make([]string, 0, len(r.Authors))
	for _, a := range r.Authors {
		if strings.TrimSpace(a.Surname) != "" {
			surnames = append(surnames, textsim.Fold(a.Surname))
		}
	}

	for _, q := range f.authorTokens {
		for _, sn := range surnames {
			if q == sn || textsim.Similarity(q, sn) >= SurnameMinSimilarity {
				return true
			}
		}
	}
	return false
}

// titleOK rejects blocked titles and, when a title was queried, requires enough
// token coverage or overall similarity.
func (f strictFilter) titleOK(r *domain.Record) bool {
	t := textsim.Fold(r.Title)
	if t == "" {
		return false
	}
	if containsAny(t, blockingTerms) {
		return false
	}
	if len(f.titleTokens) == 0 {
		return true
	}

	candidate := make(map[string]struct{})
	for _, tok := range textsim.ContentTokens(t) {
		candidate[tok] = struct{}{}
	}
	if len(candidate) == 0 {
		return false
	}

	unique := make(map[string]struct{}, len(f.titleTokens))
	var overlap int
	for _, tok := range f.titleTokens {
		unique[tok] = struct{}{}
		if _, ok := candidate[tok]; ok {
			overlap++
		}
	}
	coverage := float64(overlap) / float64(len(unique))

	return coverage >= TitleMinCoverage || textsim.Similarity(t, f.foldedTitle) >= TitleMinSimilarity
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}

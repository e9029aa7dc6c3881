package reconcile

import (
	"strings"

	"github.com/helixir/bibliomatch-service/internal/domain"
)

// CitationSeparator joins the parts of a formatted citation.
const CitationSeparator = "; "

// FormatCitation renders a record as
// "**Surname**, Given; ***Title***; pages; journal; publisher; place; year."
// with empty parts omitted.
func FormatCitation(r *domain.Record) string {
	parts := make([]string, 0, len(r.Authors)+6)
	for _, a := range r.Authors {
		parts = append(parts, "**"+a.Surname+"**, "+a.GivenName)
	}
	for _, p := range []string{
		emphasize(r.Title),
		r.TotalPages,
		r.Journal,
		r.Publisher,
		r.Place,
	} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if r.Year != "" {
		parts = append(parts, r.Year+".")
	}
	return strings.TrimSpace(strings.Join(parts, CitationSeparator))
}

func emphasize(title string) string {
	if title == "" {
		return ""
	}
	return "***" + title + "***"
}

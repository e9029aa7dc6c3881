package reconcile

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/helixir/bibliomatch-service/internal/domain"
	"github.com/helixir/bibliomatch-service/internal/textsim"
)

// Valid publication years.
const (
	minValidYear = 1500
	maxValidYear = 2100
)

// Richness weights per populated field.
const (
	richPublisher = 2.0
	richPlace     = 1.2
	richPages     = 1.5
	richJournal   = 1.0
	richYear      = 0.5
	richAuthors   = 0.5
)

var (
	leadingArticle  = regexp.MustCompile(`^(o|a|os|as|the|el|la|los|las|le|les|l)\s+`)
	subtitleDivider = regexp.MustCompile(`\s*[:\-|]\s*`)
)

// YearInt parses the first four characters of a raw year. It returns 0 unless
// the result lies in 1500..2100.
func YearInt(raw string) int {
	s := strings.TrimSpace(raw)
	if len(s) > 4 {
		s = s[:4]
	}
	y, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || y < minValidYear || y > maxValidYear {
		return 0
	}
	return y
}

// WorkKey identifies the underlying work of a record: folded primary surname and
// folded title joined by "::".
func WorkKey(r *domain.Record) string {
	return textsim.Fold(r.PrimarySurname()) + "::" + textsim.Fold(r.Title)
}

// Richness is a weighted count of the populated descriptive fields.
func Richness(r *domain.Record) float64 {
	var s float64
	if r.Publisher != "" {
		s += richPublisher
	}
	if r.Place != "" {
		s += richPlace
	}
	if r.TotalPages != "" {
		s += richPages
	}
	if r.Journal != "" {
		s += richJournal
	}
	if YearInt(r.Year) != 0 {
		s += richYear
	}
	if len(r.Authors) > 0 {
		s += richAuthors
	}
	return s
}

// comparableTitle cuts the subtitle after the first ":", "-" or "|", folds
// what is left and drops a leading article. The cut happens on the raw title
// because folding removes the dividers.
func comparableTitle(title string) string {
	for _, part := range subtitleDivider.Split(title, -1) {
		if t := textsim.Fold(part); t != "" {
			return strings.TrimSpace(leadingArticle.ReplaceAllString(t, ""))
		}
	}
	return ""
}

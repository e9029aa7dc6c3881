// Package domain provides the bibliographic models shared by the matchers, the
// provider adapters and the reconciliation pipeline.
package domain

import "strings"

// Kind classifies a bibliographic record by the provider family that produced it.
type Kind string

const (
	// KindBook is emitted by book-oriented providers.
	KindBook Kind = "book"
	// KindArticle is emitted by article-oriented providers.
	KindArticle Kind = "article"
)

// Nature tells whether a record is the original work or a derivative of it.
// Values are the labels returned by the enrichment oracle.
type Nature string

const (
	NatureOriginal    Nature = "original"
	NatureTranslation Nature = "traducao"
	NatureAdaptation  Nature = "adaptacao"
	NatureSummary     Nature = "resumo"
	NatureStudy       Nature = "estudo"
	NatureUncertain   Nature = "incerto"
)

// ParseNature maps an oracle label to a Nature. Unknown or empty labels are
// uncertain.
func ParseNature(s string) Nature {
	switch n := Nature(strings.ToLower(strings.TrimSpace(s))); n {
	case NatureOriginal, NatureTranslation, NatureAdaptation, NatureSummary, NatureStudy:
		return n
	default:
		return NatureUncertain
	}
}

// IsDerivative reports whether the nature marks a summary, adaptation or study.
func (n Nature) IsDerivative() bool {
	return n == NatureSummary || n == NatureAdaptation || n == NatureStudy
}

// Author is one contributor of a record.
type Author struct {
	Surname   string `json:"surname"`
	GivenName string `json:"given_name,omitempty"`
}

// AuthorFromName splits a display name on whitespace; the last token becomes the
// surname. It returns false for a blank name.
func AuthorFromName(name string) (Author, bool) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return Author{}, false
	}
	return Author{
		Surname:   parts[len(parts)-1],
		GivenName: strings.Join(parts[:len(parts)-1], " "),
	}, true
}

// FullName returns "GivenName Surname" without surrounding spaces.
func (a Author) FullName() string {
	return strings.TrimSpace(a.GivenName + " " + a.Surname)
}

// Record is a candidate bibliographic reference shaped to the common model.
// Optional fields are empty when unknown. Year is kept raw and may be partial.
type Record struct {
	Authors    []Author `json:"authors"`
	Title      string   `json:"title"`
	Year       string   `json:"year,omitempty"`
	Publisher  string   `json:"publisher,omitempty"`
	Place      string   `json:"place,omitempty"`
	TotalPages string   `json:"total_pages,omitempty"`
	Journal    string   `json:"journal,omitempty"`
	Edition    string   `json:"edition,omitempty"`
	ISBN       string   `json:"isbn,omitempty"`
	Language   string   `json:"language,omitempty"`
	Kind       Kind     `json:"kind"`
	Nature     Nature   `json:"nature,omitempty"`
	// Source names the provider that produced the record.
	Source string `json:"source,omitempty"`
}

// PrimaryAuthor returns the first author, if any.
func (r *Record) PrimaryAuthor() (Author, bool) {
	if len(r.Authors) == 0 {
		return Author{}, false
	}
	return r.Authors[0], true
}

// PrimarySurname returns the surname of the first author or "".
func (r *Record) PrimarySurname() string {
	if a, ok := r.PrimaryAuthor(); ok {
		return a.Surname
	}
	return ""
}

// AuthorNames returns every author's full name joined by a single space.
func (r *Record) AuthorNames() string {
	names := make([]string, 0, len(r.Authors))
	for _, a := range r.Authors {
		names = append(names, a.FullName())
	}
	return strings.Join(names, " ")
}

// EffectiveNature returns the record's nature, defaulting to NatureUncertain.
func (r *Record) EffectiveNature() Nature {
	if r.Nature == "" {
		return NatureUncertain
	}
	return r.Nature
}

package domain

import "strings"

// FreeTextDelimiter joins the criteria when no free-text query is supplied.
const FreeTextDelimiter = " | "

// QueryCriteria is the structured form of a reconciliation query. Every field is
// optional.
type QueryCriteria struct {
	Author     string `json:"author,omitempty" yaml:"author,omitempty" validate:"max=512"`
	Title      string `json:"title,omitempty" yaml:"title,omitempty" validate:"max=1024"`
	Year       string `json:"year,omitempty" yaml:"year,omitempty" validate:"max=32"`
	Journal    string `json:"journal,omitempty" yaml:"journal,omitempty" validate:"max=512"`
	Publisher  string `json:"publisher,omitempty" yaml:"publisher,omitempty" validate:"max=512"`
	Identifier string `json:"identifier,omitempty" yaml:"identifier,omitempty" validate:"max=256"`
	Extra      string `json:"extra,omitempty" yaml:"extra,omitempty" validate:"max=1024"`
}

// Trimmed returns a copy with surrounding whitespace removed from every field.
func (c QueryCriteria) Trimmed() QueryCriteria {
	return QueryCriteria{
		Author:     strings.TrimSpace(c.Author),
		Title:      strings.TrimSpace(c.Title),
		Year:       strings.TrimSpace(c.Year),
		Journal:    strings.TrimSpace(c.Journal),
		Publisher:  strings.TrimSpace(c.Publisher),
		Identifier: strings.TrimSpace(c.Identifier),
		Extra:      strings.TrimSpace(c.Extra),
	}
}

// IsEmpty reports whether no field carries non-blank text.
func (c QueryCriteria) IsEmpty() bool {
	return c.FreeText() == ""
}

// FreeText joins the non-blank fields with FreeTextDelimiter in the order author,
// title, year, journal, publisher, identifier, extra.
func (c QueryCriteria) FreeText() string {
	t := c.Trimmed()
	parts := make([]string, 0, 7)
	for _, p := range []string{t.Author, t.Title, t.Year, t.Journal, t.Publisher, t.Identifier, t.Extra} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, FreeTextDelimiter)
}

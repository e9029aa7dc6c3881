package crossref

import (
	"encoding/json"
)

// WorksResponse is the body of GET /works.
type WorksResponse struct {
	Status  string       `json:"status"`
	Message WorksMessage `json:"message"`
}

// WorksMessage wraps the list of works.
type WorksMessage struct {
	TotalResults int    `json:"total-results"`
	Items        []Work `json:"items"`
}

// Work is one Crossref record.
type Work struct {
	DOI            string     `json:"DOI"`
	Title          stringList `json:"title"`
	Author         []Person   `json:"author"`
	Issued         DateParts  `json:"issued"`
	Publisher      string     `json:"publisher"`
	ContainerTitle stringList `json:"container-title"`
	Type           string     `json:"type"`
}

// Person is a Crossref contributor.
type Person struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

// DateParts holds a partial date such as [[2019, 5]]. Parts may be null.
type DateParts struct {
	DateParts [][]*int `json:"date-parts"`
}

// Year returns the first date part, or 0 when absent.
func (d DateParts) Year() int {
	if len(d.DateParts) == 0 || len(d.DateParts[0]) == 0 || d.DateParts[0][0] == nil {
		return 0
	}
	return *d.DateParts[0][0]
}

// stringList accepts either a JSON array of strings or a single string.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*s = stringList{single}
	return nil
}

func (s stringList) first() string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}

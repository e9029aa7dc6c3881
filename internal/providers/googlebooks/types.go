package googlebooks

// VolumesResponse is the body of GET /volumes.
type VolumesResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []Volume `json:"items"`
}

// Volume is one search hit.
type Volume struct {
	ID         string     `json:"id"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
}

// VolumeInfo carries the bibliographic metadata of a volume.
type VolumeInfo struct {
	Title               string               `json:"title"`
	Subtitle            string               `json:"subtitle"`
	Authors             []string             `json:"authors"`
	Publisher           string               `json:"publisher"`
	PublishedDate       string               `json:"publishedDate"`
	PageCount           int                  `json:"pageCount"`
	Language            string               `json:"language"`
	IndustryIdentifiers []IndustryIdentifier `json:"industryIdentifiers"`
}

// IndustryIdentifier is an ISBN or other catalog identifier.
type IndustryIdentifier struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

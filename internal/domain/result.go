package domain

// Confidence classifications.
const (
	ConfidenceUniqueSource = "unique source"
	ConfidenceHigh         = "high"
	ConfidenceModerate     = "moderate"
	ConfidenceLow          = "low"
	ConfidenceCritical     = "critical"
)

// ConfidenceReport summarizes how much the top candidates agree with each other.
type ConfidenceReport struct {
	ScorePercent   float64 `json:"score_percent" yaml:"score_percent"`
	Classification string  `json:"classification" yaml:"classification"`
}

// ClassifyConfidence maps a percentage to its classification.
func ClassifyConfidence(percent float64) string {
	switch {
	case percent >= 90:
		return ConfidenceHigh
	case percent >= 75:
		return ConfidenceModerate
	case percent >= 60:
		return ConfidenceLow
	default:
		return ConfidenceCritical
	}
}

// LocalMatch is one ranked row of the local matcher.
type LocalMatch struct {
	Score  float64 `json:"score" yaml:"score"`
	IsBook bool    `json:"is_book" yaml:"is_book"`
	Ref    string  `json:"ref" yaml:"ref"`
}

// Reconciliation is the outcome of a pipeline run against external providers.
type Reconciliation struct {
	Referencia string           `json:"referencia" yaml:"referencia"`
	Matches    []string         `json:"matches" yaml:"matches"`
	MaxResults int              `json:"max_results" yaml:"max_results"`
	Score      ConfidenceReport `json:"score" yaml:"score"`
}

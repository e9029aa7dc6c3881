package scoring

// Thresholds of the author contradiction penalty.
const (
	StrongTitleScore = 0.70
	WeakAuthorScore  = 0.30
)

// Default penalty factors.
const (
	DefaultAuthorPenaltyFactor = 0.25
	DefaultYearPenaltyFactor   = 0.15
)

// PenaltyToggle enables a penalty and sets its strength.
type PenaltyToggle struct {
	Enabled bool    `json:"enabled" yaml:"enabled"`
	Factor  float64 `json:"factor" yaml:"factor"`
}

// PenaltyOptions groups the toggles for both penalties.
type PenaltyOptions struct {
	Author PenaltyToggle `json:"author" yaml:"author"`
	Year   PenaltyToggle `json:"year" yaml:"year"`
}

// DefaultPenaltyOptions enables both penalties with their default factors.
func DefaultPenaltyOptions() PenaltyOptions {
	return PenaltyOptions{
		Author: PenaltyToggle{Enabled: true, Factor: DefaultAuthorPenaltyFactor},
		Year:   PenaltyToggle{Enabled: true, Factor: DefaultYearPenaltyFactor},
	}
}

// ApplyAuthorPenalty lowers score by (1-authorScore)*factor when the author was
// queried, the title matched strongly and the author matched weakly. The result is
// never negative.
func ApplyAuthorPenalty(score, authorScore, titleScore float64, authorQueried bool, factor float64) float64 {
	if !authorQueried {
		return score
	}
	if titleScore >= StrongTitleScore && authorScore <= WeakAuthorScore {
		score -= (1 - authorScore) * factor
	}
	return max(score, 0)
}

// ApplyYearPenalty lowers score by factor*(1+0.5*max(authorHint, titleHint)) when a
// year was queried and did not match at all. Confident matches on the other fields
// make a year miss more suspicious. The result is never negative.
func ApplyYearPenalty(score, yearScore float64, yearQueried bool, factor, authorHint, titleHint float64) float64 {
	if !yearQueried {
		return score
	}
	if yearScore == 0 {
		score -= factor * (1 + 0.5*max(authorHint, titleHint))
	}
	return max(score, 0)
}

package domain

// RiskLevel is the category derived from a risk score.
type RiskLevel string

const (
	RiskLevelHigh     RiskLevel = "HIGH RISK"
	RiskLevelModerate RiskLevel = "MODERATE"
	RiskLevelLow      RiskLevel = "LOW RISK"
)

// String returns the string representation of RiskLevel.
func (l RiskLevel) String() string {
	return string(l)
}

// IsValid checks if the level is a known value.
func (l RiskLevel) IsValid() bool {
	return l == RiskLevelHigh || l == RiskLevelModerate || l == RiskLevelLow
}

// RiskAssessment is the heuristic rug-risk verdict for a listing.
type RiskAssessment struct {
	Score int // always within [0, 100]
	Level RiskLevel
}

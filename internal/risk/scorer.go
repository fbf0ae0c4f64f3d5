// Package risk implements the heuristic rug-risk score for token listings.
package risk

import "pumpscope/internal/domain"

// Score bounds and starting point.
const (
	MinScore = 0
	MaxScore = 100
	Baseline = 50
)

// Category thresholds. A score must be strictly above a threshold to reach its level.
const (
	HighThreshold     = 70
	ModerateThreshold = 40
)

// Heuristic inputs. These are fixed constants of the scoring model.
const (
	LowMarketCapUSD        = 1000.0
	LowEngagementReplies   = 5
	CommunityReplies       = 20
	StrongCommunityReplies = 100
)

// Factor is one rule of the scoring model and whether it fired for a listing.
type Factor struct {
	Name   string
	Delta  int
	Active bool
}

// Factors evaluates every rule against the listing, in model order.
// Missing reply count and market cap are treated as zero.
func Factors(l domain.TokenListing) []Factor {
	replies := l.Replies()
	mcap := l.MarketCap()

	return []Factor{
		{Name: "no website", Delta: 10, Active: !l.HasWebsite()},
		{Name: "no twitter", Delta: 10, Active: !l.HasTwitter()},
		{Name: "no telegram", Delta: 5, Active: !l.HasTelegram()},
		{Name: "zero replies", Delta: 10, Active: replies == 0},
		{Name: "low cap without community", Delta: 15, Active: mcap < LowMarketCapUSD && replies < LowEngagementReplies},
		{Name: "community replies", Delta: -15, Active: replies > CommunityReplies},
		{Name: "strong community replies", Delta: -10, Active: replies > StrongCommunityReplies},
		{Name: "full social presence", Delta: -20, Active: l.HasWebsite() && l.HasTwitter() && l.HasTelegram()},
	}
}

// Score computes the rug-risk score of a listing, clamped to [0, 100].
func Score(l domain.TokenListing) int {
	score := Baseline
	for _, f := range Factors(l) {
		if f.Active {
			score += f.Delta
		}
	}
	return clamp(score)
}

// Classify maps a score to its risk level.
func Classify(score int) domain.RiskLevel {
	switch {
	case score > HighThreshold:
		return domain.RiskLevelHigh
	case score > ModerateThreshold:
		return domain.RiskLevelModerate
	default:
		return domain.RiskLevelLow
	}
}

// Assess scores and classifies a listing.
func Assess(l domain.TokenListing) domain.RiskAssessment {
	score := Score(l)
	return domain.RiskAssessment{
		Score: score,
		Level: Classify(score),
	}
}

func clamp(score int) int {
	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}

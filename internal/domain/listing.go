package domain

import "time"

// TokenListing represents a token launch record from a third-party listing feed.
// Optional upstream fields are nil when the feed omits them.
type TokenListing struct {
	Name             string
	Symbol           string
	Mint             string   // token mint address
	Description      *string  // nullable
	USDMarketCap     *float64 // nullable
	ReplyCount       *int64   // nullable
	CreatedTimestamp *int64   // creation time (ms, nullable)
	Website          string
	Twitter          string
	Telegram         string
}

// HasWebsite reports whether the listing links a website.
func (l *TokenListing) HasWebsite() bool {
	return l.Website != ""
}

// HasTwitter reports whether the listing links a Twitter/X account.
func (l *TokenListing) HasTwitter() bool {
	return l.Twitter != ""
}

// HasTelegram reports whether the listing links a Telegram group.
func (l *TokenListing) HasTelegram() bool {
	return l.Telegram != ""
}

// Replies returns the reply count, treating a missing value as zero.
func (l *TokenListing) Replies() int64 {
	if l.ReplyCount == nil {
		return 0
	}
	return *l.ReplyCount
}

// MarketCap returns the USD market cap, treating a missing value as zero.
func (l *TokenListing) MarketCap() float64 {
	if l.USDMarketCap == nil {
		return 0
	}
	return *l.USDMarketCap
}

// ScoredListing is a listing enriched with its risk assessment.
type ScoredListing struct {
	Listing TokenListing
	Risk    RiskAssessment
}

// LaunchSnapshot is the combined view of recent and leading listings.
// Computed per request, never persisted.
type LaunchSnapshot struct {
	Recent        []ScoredListing
	KingOfTheHill []TokenListing
	GeneratedAt   time.Time
	Source        string
}

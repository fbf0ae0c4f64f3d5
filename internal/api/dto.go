package api

import (
	"time"

	"pumpscope/internal/domain"
)

// timestampLayout matches JavaScript's Date.toISOString.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// PumpfunResponse is the body of GET /api/pumpfun and of each stream message.
type PumpfunResponse struct {
	RecentTokens  []RecentToken `json:"recentTokens"`
	KingOfTheHill []KingToken   `json:"kingOfTheHill"`
	Timestamp     string        `json:"timestamp"`
	Source        string        `json:"source"`
}

// RecentToken is a scored recent listing. Upstream fields that were absent are omitted.
type RecentToken struct {
	Name        string   `json:"name"`
	Symbol      string   `json:"symbol"`
	Mint        string   `json:"mint"`
	Description *string  `json:"description,omitempty"`
	MarketCap   *float64 `json:"marketCap,omitempty"`
	ReplyCount  *int64   `json:"replyCount,omitempty"`
	CreatedAt   *int64   `json:"createdAt,omitempty"`
	RugScore    int      `json:"rugScore"`
	RugLevel    string   `json:"rugLevel"`
	HasWebsite  bool     `json:"hasWebsite"`
	HasTwitter  bool     `json:"hasTwitter"`
	HasTelegram bool     `json:"hasTelegram"`
}

// KingToken is a leading listing.
type KingToken struct {
	Name      string   `json:"name"`
	Symbol    string   `json:"symbol"`
	Mint      string   `json:"mint"`
	MarketCap *float64 `json:"marketCap,omitempty"`
}

// TokensResponse is the body of GET /api/tokens.
type TokensResponse struct {
	ProgramID      string           `json:"programId"`
	Network        string           `json:"network"`
	AccountCount   int              `json:"accountCount"`
	ProgramExists  bool             `json:"programExists"`
	ProgramBalance uint64           `json:"programBalance"`
	Accounts       []AccountSummary `json:"accounts"`
}

// AccountSummary is one program-owned account.
type AccountSummary struct {
	Pubkey   string `json:"pubkey"`
	Lamports uint64 `json:"lamports"`
	DataSize int    `json:"dataSize"`
	PDA      bool   `json:"pda"`
}

// WaitlistRequest is the body of POST /api/waitlist.
// Email is untyped so a non-string value is rejected as invalid rather than unreadable.
type WaitlistRequest struct {
	Email any `json:"email"`
}

// WaitlistSubmitResponse is the body of a successful POST /api/waitlist.
type WaitlistSubmitResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Count   int    `json:"count"`
}

// WaitlistCountResponse is the body of GET /api/waitlist.
type WaitlistCountResponse struct {
	Count int `json:"count"`
}

// NewPumpfunResponse converts a snapshot into its wire form.
func NewPumpfunResponse(s *domain.LaunchSnapshot) PumpfunResponse {
	resp := PumpfunResponse{
		RecentTokens:  make([]RecentToken, 0, len(s.Recent)),
		KingOfTheHill: make([]KingToken, 0, len(s.KingOfTheHill)),
		Timestamp:     formatTimestamp(s.GeneratedAt),
		Source:        s.Source,
	}

	for _, sl := range s.Recent {
		l := sl.Listing
		resp.RecentTokens = append(resp.RecentTokens, RecentToken{
			Name:        l.Name,
			Symbol:      l.Symbol,
			Mint:        l.Mint,
			Description: l.Description,
			MarketCap:   l.USDMarketCap,
			ReplyCount:  l.ReplyCount,
			CreatedAt:   l.CreatedTimestamp,
			RugScore:    sl.Risk.Score,
			RugLevel:    sl.Risk.Level.String(),
			HasWebsite:  l.HasWebsite(),
			HasTwitter:  l.HasTwitter(),
			HasTelegram: l.HasTelegram(),
		})
	}

	for _, l := range s.KingOfTheHill {
		resp.KingOfTheHill = append(resp.KingOfTheHill, KingToken{
			Name:      l.Name,
			Symbol:    l.Symbol,
			Mint:      l.Mint,
			MarketCap: l.USDMarketCap,
		})
	}

	return resp
}

// NewTokensResponse converts a program report into its wire form.
func NewTokensResponse(r *domain.ProgramReport) TokensResponse {
	resp := TokensResponse{
		ProgramID:      r.ProgramID,
		Network:        r.Network,
		AccountCount:   r.AccountCount,
		ProgramExists:  r.ProgramExists,
		ProgramBalance: r.ProgramBalance,
		Accounts:       make([]AccountSummary, 0, len(r.Accounts)),
	}
	for _, a := range r.Accounts {
		resp.Accounts = append(resp.Accounts, AccountSummary{
			Pubkey:   a.Pubkey,
			Lamports: a.Lamports,
			DataSize: a.DataSize,
			PDA:      a.PDA,
		})
	}
	return resp
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

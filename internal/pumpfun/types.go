package pumpfun

import "pumpscope/internal/domain"

// coin is the raw listing object returned by the API.
type coin struct {
	Mint             string   `json:"mint"`
	Name             string   `json:"name"`
	Symbol           string   `json:"symbol"`
	Description      *string  `json:"description"`
	Website          *string  `json:"website"`
	Twitter          *string  `json:"twitter"`
	Telegram         *string  `json:"telegram"`
	USDMarketCap     *float64 `json:"usd_market_cap"`
	ReplyCount       *float64 `json:"reply_count"` // integral in practice, decoded leniently
	CreatedTimestamp *float64 `json:"created_timestamp"`
}

func (c *coin) toListing() domain.TokenListing {
	l := domain.TokenListing{
		Mint:         c.Mint,
		Name:         c.Name,
		Symbol:       c.Symbol,
		Description:  c.Description,
		USDMarketCap: c.USDMarketCap,
		Website:      deref(c.Website),
		Twitter:      deref(c.Twitter),
		Telegram:     deref(c.Telegram),
	}
	if c.ReplyCount != nil {
		n := int64(*c.ReplyCount)
		l.ReplyCount = &n
	}
	if c.CreatedTimestamp != nil {
		ts := int64(*c.CreatedTimestamp)
		l.CreatedTimestamp = &ts
	}
	return l
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

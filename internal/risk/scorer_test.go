package risk

import (
	"math"
	"testing"

	"pumpscope/internal/domain"
)

func ptr[T any](v T) *T {
	return &v
}

func TestScore_FullSocialsStrongCommunity(t *testing.T) {
	listing := domain.TokenListing{
		Website:      "https://example.com",
		Twitter:      "https://x.com/example",
		Telegram:     "https://t.me/example",
		ReplyCount:   ptr(int64(150)),
		USDMarketCap: ptr(50000.0),
	}

	// 50 - 20 (socials) - 15 (>20 replies) - 10 (>100 replies)
	if got := Score(listing); got != 5 {
		t.Errorf("expected score 5, got %d", got)
	}
	if got := Classify(5); got != domain.RiskLevelLow {
		t.Errorf("expected LOW RISK, got %s", got)
	}
}

func TestScore_NoSocialsNoEngagementLowCap(t *testing.T) {
	listing := domain.TokenListing{
		ReplyCount:   ptr(int64(0)),
		USDMarketCap: ptr(500.0),
	}

	// 50 + 10 + 10 + 5 + 10 + 15
	if got := Score(listing); got != 100 {
		t.Errorf("expected score 100, got %d", got)
	}
}

func TestScore_MissingFieldsTreatedAsZero(t *testing.T) {
	missing := domain.TokenListing{}
	zero := domain.TokenListing{
		ReplyCount:   ptr(int64(0)),
		USDMarketCap: ptr(0.0),
	}

	if Score(missing) != Score(zero) {
		t.Errorf("missing fields scored %d, zero fields scored %d", Score(missing), Score(zero))
	}
}

func TestScore_Cases(t *testing.T) {
	tests := []struct {
		name    string
		listing domain.TokenListing
		want    int
	}{
		{
			name: "website only, moderate engagement, healthy cap",
			listing: domain.TokenListing{
				Website:      "https://example.com",
				ReplyCount:   ptr(int64(10)),
				USDMarketCap: ptr(20000.0),
			},
			want: 65, // 50 + 10 + 5
		},
		{
			name: "low cap but engaged",
			listing: domain.TokenListing{
				ReplyCount:   ptr(int64(5)),
				USDMarketCap: ptr(100.0),
			},
			want: 75, // 50 + 10 + 10 + 5; replies not < 5
		},
		{
			name: "low cap, few replies",
			listing: domain.TokenListing{
				Twitter:      "https://x.com/a",
				ReplyCount:   ptr(int64(4)),
				USDMarketCap: ptr(999.99),
			},
			want: 80, // 50 + 10 + 5 + 15
		},
		{
			name: "exactly 20 replies is not community",
			listing: domain.TokenListing{
				Website:      "w",
				Twitter:      "t",
				ReplyCount:   ptr(int64(20)),
				USDMarketCap: ptr(5000.0),
			},
			want: 55,
		},
		{
			name: "21 replies",
			listing: domain.TokenListing{
				Website:      "w",
				Twitter:      "t",
				ReplyCount:   ptr(int64(21)),
				USDMarketCap: ptr(5000.0),
			},
			want: 40,
		},
		{
			name: "101 replies, no socials",
			listing: domain.TokenListing{
				ReplyCount:   ptr(int64(101)),
				USDMarketCap: ptr(5000.0),
			},
			want: 50, // 50 + 25 - 25
		},
		{
			name: "all socials, nothing else",
			listing: domain.TokenListing{
				Website:  "w",
				Twitter:  "t",
				Telegram: "g",
			},
			want: 55, // 50 - 20 + 10 (zero replies) + 15 (low cap)
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.listing); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		score int
		want  domain.RiskLevel
	}{
		{100, domain.RiskLevelHigh},
		{71, domain.RiskLevelHigh},
		{70, domain.RiskLevelModerate},
		{41, domain.RiskLevelModerate},
		{40, domain.RiskLevelLow},
		{0, domain.RiskLevelLow},
	}

	for _, tt := range tests {
		if got := Classify(tt.score); got != tt.want {
			t.Errorf("Classify(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestAssess_Deterministic(t *testing.T) {
	listing := domain.TokenListing{
		Name:         "Doge Two",
		Twitter:      "https://x.com/doge2",
		ReplyCount:   ptr(int64(3)),
		USDMarketCap: ptr(750.0),
	}

	first := Assess(listing)
	for i := 0; i < 100; i++ {
		if got := Assess(listing); got != first {
			t.Fatalf("iteration %d: got %+v, want %+v", i, got, first)
		}
	}
	if !first.Level.IsValid() {
		t.Errorf("invalid level %q", first.Level)
	}
}

func TestFactors_Order(t *testing.T) {
	factors := Factors(domain.TokenListing{})
	if len(factors) != 8 {
		t.Fatalf("expected 8 factors, got %d", len(factors))
	}
	if factors[0].Name != "no website" || factors[7].Name != "full social presence" {
		t.Errorf("unexpected factor order: %+v", factors)
	}
}

func FuzzScore_Bounds(f *testing.F) {
	f.Add(false, false, false, int64(0), 500.0, false, false)
	f.Add(true, true, true, int64(150), 1e6, false, false)
	f.Add(true, false, true, int64(-7), -1.0, true, true)
	f.Add(false, true, false, int64(math.MaxInt64), math.Inf(1), false, true)

	f.Fuzz(func(t *testing.T, website, twitter, telegram bool, replies int64, mcap float64, noReplies, noCap bool) {
		listing := domain.TokenListing{}
		if website {
			listing.Website = "w"
		}
		if twitter {
			listing.Twitter = "t"
		}
		if telegram {
			listing.Telegram = "g"
		}
		if !noReplies {
			listing.ReplyCount = &replies
		}
		if !noCap {
			listing.USDMarketCap = &mcap
		}

		score := Score(listing)
		if score < MinScore || score > MaxScore {
			t.Fatalf("score %d out of bounds for %+v", score, listing)
		}
		if Score(listing) != score {
			t.Fatalf("score not deterministic for %+v", listing)
		}
	})
}

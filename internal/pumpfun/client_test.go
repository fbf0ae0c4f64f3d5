package pumpfun

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const recentFixture = `[
  {
    "mint": "Mint1pump",
    "name": "First",
    "symbol": "FST",
    "description": "the first coin",
    "website": "https://first.example",
    "twitter": null,
    "telegram": "",
    "usd_market_cap": 4321.5,
    "reply_count": 12,
    "created_timestamp": 1717000000000
  },
  {
    "mint": "Mint2pump",
    "name": "Second",
    "symbol": "SND"
  }
]`

func TestClient_RecentlyCreated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/recently-created", r.URL.Path)
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "0", r.URL.Query().Get("offset"))
		assert.Equal(t, "false", r.URL.Query().Get("includeNsfw"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(recentFixture))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	listings, err := client.RecentlyCreated(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, listings, 2)

	first := listings[0]
	assert.Equal(t, "Mint1pump", first.Mint)
	assert.Equal(t, "FST", first.Symbol)
	require.NotNil(t, first.Description)
	assert.Equal(t, "the first coin", *first.Description)
	assert.True(t, first.HasWebsite())
	assert.False(t, first.HasTwitter())
	assert.False(t, first.HasTelegram())
	require.NotNil(t, first.USDMarketCap)
	assert.InDelta(t, 4321.5, *first.USDMarketCap, 1e-9)
	require.NotNil(t, first.ReplyCount)
	assert.Equal(t, int64(12), *first.ReplyCount)
	require.NotNil(t, first.CreatedTimestamp)
	assert.Equal(t, int64(1717000000000), *first.CreatedTimestamp)

	second := listings[1]
	assert.Nil(t, second.Description)
	assert.Nil(t, second.ReplyCount)
	assert.Nil(t, second.USDMarketCap)
	assert.Equal(t, int64(0), second.Replies())
}

func TestClient_KingOfTheHill(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/king-of-the-hill", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Write([]byte(`[{"mint":"K1","name":"King","symbol":"KNG","usd_market_cap":90000}]`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	listings, err := client.KingOfTheHill(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "King", listings[0].Name)
}

func TestClient_UnexpectedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.RecentlyCreated(context.Background(), 10)
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestClient_NotArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"rate limited"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.KingOfTheHill(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNotArray)
}

func TestClient_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"mint": `))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.RecentlyCreated(context.Background(), 10)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotArray))
}

func TestClient_DefaultBaseURL(t *testing.T) {
	client := NewClient("")
	assert.Equal(t, DefaultBaseURL, client.baseURL)
}

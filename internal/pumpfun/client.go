// Package pumpfun is a read-only client for the Pump.fun listing API.
package pumpfun

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"pumpscope/internal/domain"
)

// Default configuration values.
const (
	DefaultBaseURL = "https://frontend-api-v3.pump.fun"
	DefaultTimeout = 10 * time.Second

	// SourceName identifies listings fetched from this API.
	SourceName = "pump.fun"
)

// Feed endpoints.
const (
	pathRecentlyCreated = "/coins/recently-created"
	pathKingOfTheHill   = "/coins/king-of-the-hill"
)

var (
	// ErrUnexpectedStatus is returned when the API answers with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected status")

	// ErrNotArray is returned when the API answers with JSON that is not a list.
	ErrNotArray = errors.New("response is not a JSON array")
)

// Feed lists newly created and trending tokens.
type Feed interface {
	// RecentlyCreated returns the most recently created listings, newest first.
	RecentlyCreated(ctx context.Context, limit int) ([]domain.TokenListing, error)

	// KingOfTheHill returns the leading listings.
	KingOfTheHill(ctx context.Context, limit int) ([]domain.TokenListing, error)
}

// Client implements Feed over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a new listing API client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RecentlyCreated fetches recently created coins, excluding NSFW listings.
func (c *Client) RecentlyCreated(ctx context.Context, limit int) ([]domain.TokenListing, error) {
	return c.list(ctx, pathRecentlyCreated, limit)
}

// KingOfTheHill fetches the current king-of-the-hill coins, excluding NSFW listings.
func (c *Client) KingOfTheHill(ctx context.Context, limit int) ([]domain.TokenListing, error) {
	return c.list(ctx, pathKingOfTheHill, limit)
}

func (c *Client) list(ctx context.Context, path string, limit int) ([]domain.TokenListing, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", "0")
	query.Set("includeNsfw", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w %d from %s", ErrUnexpectedStatus, resp.StatusCode, path)
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotArray
	}

	var coins []coin
	if err := json.Unmarshal(trimmed, &coins); err != nil {
		return nil, fmt.Errorf("unmarshal coins: %w", err)
	}

	listings := make([]domain.TokenListing, len(coins))
	for i := range coins {
		listings[i] = coins[i].toListing()
	}
	return listings, nil
}

var _ Feed = (*Client)(nil)

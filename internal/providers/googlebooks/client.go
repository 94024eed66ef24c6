// Package googlebooks adapts the Google Books Volumes API to the common
// candidate-record shape.
package googlebooks

import (
	"net/http"
	"strings"
	"time"

	"github.com/tkarvine/bibliofile/internal/bookmeta"
	"github.com/tkarvine/bibliofile/internal/ratelimit"
)

const (
	defaultBaseURL       = "https://www.googleapis.com/books/v1"
	defaultRatePerSecond = 1
	defaultTimeout       = 10 * time.Second
)

// Client queries the Google Books Volumes API.
type Client struct {
	apiKey      string
	baseURL     string
	httpClient  bookmeta.HTTPDoer
	rateLimiter *ratelimit.Limiter
	useCache    bool
}

// Compile-time check that Client implements bookmeta.ProviderClient.
var _ bookmeta.ProviderClient = (*Client)(nil)

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c bookmeta.HTTPDoer) Option {
	return func(client *Client) {
		if c != nil {
			client.httpClient = c
		}
	}
}

// WithBaseURL sets a custom API base URL.
func WithBaseURL(base string) Option {
	return func(client *Client) {
		if base != "" {
			client.baseURL = strings.TrimSuffix(base, "/")
		}
	}
}

// WithRateLimiter sets a custom rate limiter.
func WithRateLimiter(limiter *ratelimit.Limiter) Option {
	return func(client *Client) {
		if limiter != nil {
			client.rateLimiter = limiter
		}
	}
}

// WithoutCache disables the SQLite response cache. Used by tests.
func WithoutCache() Option {
	return func(client *Client) {
		client.useCache = false
	}
}

// NewClient creates a Google Books client. The API key is optional; the
// Volumes API works unauthenticated at a lower quota.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:      apiKey,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		rateLimiter: ratelimit.New("GoogleBooks", defaultRatePerSecond),
		useCache:    true,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Name returns the human-readable source name.
func (c *Client) Name() string {
	return "Google Books"
}

// Provider returns the provider identity.
func (c *Client) Provider() bookmeta.Provider {
	return bookmeta.ProviderGoogleBooks
}

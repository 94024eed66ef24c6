// Package openlibrary adapts the OpenLibrary Books/Search JSON APIs to
// the common candidate-record shape. Series and description metadata is
// often richer at the work level than on the edition, so ISBN lookups
// also consult the edition endpoint.
package openlibrary

import (
	"net/http"
	"strings"
	"time"

	"github.com/tkarvine/bibliofile/internal/bookmeta"
	"github.com/tkarvine/bibliofile/internal/ratelimit"
)

const (
	defaultBaseURL       = "https://openlibrary.org"
	defaultCoversBaseURL = "https://covers.openlibrary.org"
	defaultRatePerSecond = 1
	defaultTimeout       = 10 * time.Second
)

// Client queries OpenLibrary.
type Client struct {
	baseURL       string
	coversBaseURL string
	httpClient    bookmeta.HTTPDoer
	rateLimiter   *ratelimit.Limiter
	useCache      bool
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

// WithCoversBaseURL sets a custom covers CDN base URL.
func WithCoversBaseURL(base string) Option {
	return func(client *Client) {
		if base != "" {
			client.coversBaseURL = strings.TrimSuffix(base, "/")
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

// NewClient creates an OpenLibrary client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:       defaultBaseURL,
		coversBaseURL: defaultCoversBaseURL,
		httpClient:    &http.Client{Timeout: defaultTimeout},
		rateLimiter:   ratelimit.New("OpenLibrary", defaultRatePerSecond),
		useCache:      true,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Name returns the human-readable source name.
func (c *Client) Name() string {
	return "OpenLibrary"
}

// Provider returns the provider identity.
func (c *Client) Provider() bookmeta.Provider {
	return bookmeta.ProviderOpenLibrary
}

// Package imslp adapts the IMSLP MediaWiki API to the common
// candidate-record shape. IMSLP catalogs musical scores, so records carry
// title and composer but no ISBNs; edition quality (Henle, Urtext) is the
// main ranking signal.
package imslp

import (
	"net/http"
	"strings"
	"time"

	"github.com/tkarvine/bibliofile/internal/bookmeta"
	"github.com/tkarvine/bibliofile/internal/ratelimit"
)

const (
	defaultBaseURL       = "https://imslp.org"
	defaultRatePerSecond = 1
	defaultTimeout       = 15 * time.Second
)

// Relevance boosts for trusted score editions. The values have no derived
// meaning; they were tuned so a Henle or Urtext edition outranks plain
// scans of the same work. Tunable here, not at call sites.
const (
	HenleBoost  = 4
	UrtextBoost = 2
)

// Client queries the IMSLP MediaWiki search API.
type Client struct {
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

// WithBaseURL sets a custom base URL.
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

// NewClient creates an IMSLP client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		rateLimiter: ratelimit.New("IMSLP", defaultRatePerSecond),
		useCache:    true,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Name returns the human-readable source name.
func (c *Client) Name() string {
	return "IMSLP"
}

// Provider returns the provider identity.
func (c *Client) Provider() bookmeta.Provider {
	return bookmeta.ProviderIMSLP
}

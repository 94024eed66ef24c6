package bookmeta

import "context"

// ProviderClient is implemented by one adapter per external metadata
// source. Each adapter owns its authentication, rate limiting and
// response caching, and translates provider responses into
// CandidateRecords with no cross-source logic.
//
// Failure semantics: transient errors (timeouts, DNS, 5xx) must be
// absorbed and reported as an empty result slice so one failing provider
// never blocks the others. Only malformed-input errors raised before the
// network call (ErrInvalidISBN, ErrEmptyQuery) may be returned.
type ProviderClient interface {
	// Name returns the human-readable source name, e.g. "Google Books".
	Name() string

	// Provider returns the provider identity used for precedence and
	// MetadataSources slots.
	Provider() Provider

	// SearchByISBN looks up a book by normalized ISBN. Typically returns
	// zero or one record.
	SearchByISBN(ctx context.Context, isbn string) ([]CandidateRecord, error)

	// SearchByText runs a free-text search, returning up to limit records
	// in the provider's relevance order.
	SearchByText(ctx context.Context, query string, limit int) ([]CandidateRecord, error)

	// Ping checks that the provider endpoint is reachable.
	Ping(ctx context.Context) error
}

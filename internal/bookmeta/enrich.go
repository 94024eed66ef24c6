package bookmeta

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

// completeDescriptionLen is the description length above which a record
// that also has authors, publisher and page count is considered already
// complete for its originating provider.
const completeDescriptionLen = 50

// defaultTextSearchLimit bounds provider text searches during enrichment.
const defaultTextSearchLimit = 5

// Service is the enrichment orchestrator: it fans out to every configured
// provider, matches each provider's results against the input record,
// merges the matches and picks a cover.
type Service struct {
	clients    []ProviderClient
	matcher    *Matcher
	selector   *CoverSelector
	precedence []Provider
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithMatcher replaces the default matcher.
func WithMatcher(m *Matcher) ServiceOption {
	return func(s *Service) {
		if m != nil {
			s.matcher = m
		}
	}
}

// WithCoverSelector replaces the default cover selector.
func WithCoverSelector(sel *CoverSelector) ServiceOption {
	return func(s *Service) {
		if sel != nil {
			s.selector = sel
		}
	}
}

// WithPrecedence sets the provider precedence order for single-value
// field merging.
func WithPrecedence(order []Provider) ServiceOption {
	return func(s *Service) {
		if len(order) > 0 {
			s.precedence = order
		}
	}
}

// NewService creates an enrichment service over the given provider
// clients.
func NewService(clients []ProviderClient, opts ...ServiceOption) *Service {
	s := &Service{
		clients:    clients,
		matcher:    NewMatcher(),
		selector:   NewCoverSelector(),
		precedence: DefaultPrecedence,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enrich queries all providers for the given partial record, merges
// whatever matches, and returns the merged record plus per-source
// provenance. Total provider failure is not an error: the original record
// comes back unchanged with empty provider slots.
func (s *Service) Enrich(ctx context.Context, book BookRecord) (BookRecord, MetadataSources) {
	// Pure function of the input; must be decided before the fan-out.
	skipProvider := Provider("")
	if book.EnrichedBy != "" && isComplete(book) {
		skipProvider = book.EnrichedBy
		slog.Debug("Record already complete from provider, skipping re-query", "provider", skipProvider, "title", book.Title)
	}

	ref := Reference{
		Title:   book.Title,
		Authors: book.Authors,
		ISBN10:  book.ISBN10,
		ISBN13:  book.ISBN13,
	}

	var (
		mu      sync.Mutex
		matches = make(map[Provider]*CandidateRecord)
		wg      sync.WaitGroup
	)

	// Independent I/O: launch every provider concurrently and gather after
	// all settle. A slow provider may still contribute complementary
	// fields, so nothing is cancelled once a sibling succeeds.
	for _, client := range s.clients {
		if client.Provider() == skipProvider {
			continue
		}
		wg.Add(1)
		go func(client ProviderClient) {
			defer wg.Done()
			match := s.queryProvider(ctx, client, ref)
			if match == nil {
				return
			}
			mu.Lock()
			matches[client.Provider()] = match
			mu.Unlock()
		}(client)
	}
	wg.Wait()

	merged, sources := Merge(book, matches, s.precedence)

	// Cover selection needs HTTP, so it stays out of Merge. When no
	// provider contributed anything there is nothing new to rank and the
	// record must come back untouched.
	if len(matches) > 0 && len(merged.AvailableCovers) > 0 {
		if url := s.selector.SelectBestCover(ctx, merged.AvailableCovers); url != "" {
			merged.CoverURL = url
		}
	}

	return merged, sources
}

// queryProvider runs one provider's lookup: ISBN first (13 then derived
// 10), then a text-search fallback through the full matcher. Errors are
// absorbed; a failed provider contributes nothing.
func (s *Service) queryProvider(ctx context.Context, client ProviderClient, ref Reference) *CandidateRecord {
	for _, isbn := range isbnVariants(ref.ISBN10, ref.ISBN13) {
		candidates, err := client.SearchByISBN(ctx, isbn)
		if err != nil {
			slog.Debug("Provider ISBN lookup failed", "provider", client.Name(), "isbn", isbn, "error", err)
			continue
		}
		if match := s.matcher.FindMatch(ref, candidates); match != nil {
			slog.Debug("Provider matched by ISBN", "provider", client.Name(), "isbn", isbn, "title", match.Title)
			return match
		}
	}

	query := strings.TrimSpace(ref.Title)
	if query == "" {
		return nil
	}
	if len(ref.Authors) > 0 && ref.Authors[0] != "" {
		query += " " + ref.Authors[0]
	}

	candidates, err := client.SearchByText(ctx, query, defaultTextSearchLimit)
	if err != nil {
		slog.Debug("Provider text search failed", "provider", client.Name(), "query", query, "error", err)
		return nil
	}

	match := s.matcher.FindMatch(ref, candidates)
	if match != nil {
		slog.Debug("Provider matched by title", "provider", client.Name(), "title", match.Title)
	}
	return match
}

// isComplete reports whether a record already carries enough data that
// re-querying its originating provider would be redundant.
func isComplete(book BookRecord) bool {
	return len(book.Description) > completeDescriptionLen &&
		len(book.Authors) > 0 &&
		book.Publisher != "" &&
		book.PageCount != nil
}

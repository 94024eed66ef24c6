package bookmeta

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/tkarvine/bibliofile/internal/cache"
)

// Cover ranking constants. A candidate's priority is its size-class base
// plus a per-source bonus, so a large cover from a trusted source always
// outranks a thumbnail, and constructed OpenLibrary URLs (broad
// multilingual coverage) outrank embedded Google thumbnails of the same
// size class. Tune the bonuses here, not at call sites.
const (
	bonusGoogleBooksEmbedded    = 10
	bonusOpenLibraryEmbedded    = 6
	bonusOpenLibraryConstructed = 8
	bonusAmazonISBN             = 12

	// SourceAmazonISBN labels covers constructed from an ISBN-10 against
	// Amazon's image CDN, which has reliable localized cover art.
	SourceAmazonISBN = "amazon-isbn"
	// SourceOpenLibraryISBN labels covers constructed against
	// covers.openlibrary.org by ISBN.
	SourceOpenLibraryISBN = "openlibrary-isbn"
)

// CoverPriority computes the ranking priority for a cover of the given
// size from the given source bonus.
func CoverPriority(size SizeClass, sourceBonus int) int {
	base := 0
	switch size {
	case SizeThumbnail:
		base = 1
	case SizeSmall:
		base = 2
	case SizeMedium:
		base = 3
	case SizeLarge:
		base = 4
	case SizeOriginal:
		base = 5
	}
	return base + sourceBonus
}

// ProviderCoverBonus returns the embedded-cover bonus for a provider.
func ProviderCoverBonus(p Provider) int {
	switch p {
	case ProviderGoogleBooks:
		return bonusGoogleBooksEmbedded
	case ProviderOpenLibrary:
		return bonusOpenLibraryEmbedded
	}
	return 0
}

// CollectCoverCandidates derives every plausible cover URL for a candidate
// record: the provider's own covers plus ISBN-constructed URLs from
// OpenLibrary and Amazon. Candidates are deduplicated by exact URL. When
// the provider reported no cover of its own, the constructed candidates
// stand in as defaults by virtue of their priority.
func CollectCoverCandidates(rec CandidateRecord) []CoverCandidate {
	var out []CoverCandidate
	seen := make(map[string]bool)
	add := func(c CoverCandidate) {
		if c.URL == "" || seen[c.URL] {
			return
		}
		seen[c.URL] = true
		out = append(out, c)
	}

	for _, c := range rec.Covers {
		add(c)
	}

	isbn13 := rec.ISBN13
	if isbn13 == "" {
		isbn13 = ISBN10To13(rec.ISBN10)
	}
	isbn10 := rec.ISBN10
	if isbn10 == "" {
		isbn10 = ISBN13To10(rec.ISBN13)
	}

	// covers.openlibrary.org resolves covers for most ISBNs, in several
	// sizes, regardless of which provider the record came from.
	if isbn := firstNonEmpty(isbn13, isbn10); isbn != "" {
		for _, s := range []struct {
			suffix string
			size   SizeClass
		}{{"L", SizeLarge}, {"M", SizeMedium}} {
			add(CoverCandidate{
				URL:      fmt.Sprintf("https://covers.openlibrary.org/b/isbn/%s-%s.jpg", isbn, s.suffix),
				Source:   SourceOpenLibraryISBN,
				Size:     s.size,
				Priority: CoverPriority(s.size, bonusOpenLibraryConstructed),
				Type:     CoverFront,
			})
		}
	}

	// Amazon's CDN is keyed by ISBN-10 only.
	if isbn10 != "" {
		for _, s := range []struct {
			code string
			size SizeClass
		}{{"LZZZZZZZ", SizeLarge}, {"MZZZZZZZ", SizeMedium}} {
			add(CoverCandidate{
				URL:      fmt.Sprintf("https://images-na.ssl-images-amazon.com/images/P/%s.01.%s.jpg", isbn10, s.code),
				Source:   SourceAmazonISBN,
				Size:     s.size,
				Priority: CoverPriority(s.size, bonusAmazonISBN),
				Type:     CoverFront,
			})
		}
	}

	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Cover selection constants.
const (
	// DefaultMaxValidationAttempts bounds how many candidates are probed
	// before giving up and returning the top-priority one anyway.
	DefaultMaxValidationAttempts = 5
	// DefaultCoverTrustThreshold: candidates at or above this priority are
	// returned without an HTTP probe.
	DefaultCoverTrustThreshold = 16
	// minPlausibleImageBytes rejects placeholder pixels; real covers are
	// never this small.
	minPlausibleImageBytes = 100
	// coverProbeTimeout is short because selection may probe several
	// candidates on the hot path.
	coverProbeTimeout = 5 * time.Second
)

// HTTPDoer is the subset of http.Client cover validation needs.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// coverCacheTable persists probe outcomes so repeated enrichment runs do
// not re-HEAD the same cover URLs.
const coverCacheTable = "cover_cache"

// CoverSelector validates and ranks cover candidates.
type CoverSelector struct {
	httpClient     HTTPDoer
	maxAttempts    int
	trustThreshold int
	useCache       bool
}

// CoverSelectorOption configures a CoverSelector.
type CoverSelectorOption func(*CoverSelector)

// WithCoverHTTPClient sets a custom HTTP client for validation probes.
func WithCoverHTTPClient(c HTTPDoer) CoverSelectorOption {
	return func(s *CoverSelector) {
		if c != nil {
			s.httpClient = c
		}
	}
}

// WithMaxValidationAttempts bounds the number of probed candidates.
func WithMaxValidationAttempts(n int) CoverSelectorOption {
	return func(s *CoverSelector) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithTrustThreshold sets the priority above which candidates skip
// validation.
func WithTrustThreshold(p int) CoverSelectorOption {
	return func(s *CoverSelector) {
		s.trustThreshold = p
	}
}

// WithoutProbeCache disables the SQLite probe-result cache. Used by tests.
func WithoutProbeCache() CoverSelectorOption {
	return func(s *CoverSelector) {
		s.useCache = false
	}
}

// NewCoverSelector creates a CoverSelector with default probe settings.
func NewCoverSelector(opts ...CoverSelectorOption) *CoverSelector {
	s := &CoverSelector{
		httpClient:     &http.Client{Timeout: coverProbeTimeout},
		maxAttempts:    DefaultMaxValidationAttempts,
		trustThreshold: DefaultCoverTrustThreshold,
		useCache:       true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SelectBestCover returns the best cover URL from the candidates, or ""
// when the list is empty. Candidates are walked in priority order; trusted
// candidates are returned without probing, probed candidates are skipped
// only on conclusive failure (404, placeholder-sized body, non-image
// content type). Transient probe errors are treated as "probably fine".
// If every probe within the attempt budget fails, the top-priority
// candidate is returned unconditionally: offering a possibly-dead cover
// beats offering none.
func (s *CoverSelector) SelectBestCover(ctx context.Context, candidates []CoverCandidate) string {
	if len(candidates) == 0 {
		return ""
	}

	ranked := make([]CoverCandidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Priority != ranked[j].Priority {
			return ranked[i].Priority > ranked[j].Priority
		}
		return ranked[i].Type == CoverFront && ranked[j].Type == CoverBack
	})

	attempts := 0
	for _, cand := range ranked {
		if attempts >= s.maxAttempts {
			break
		}

		if cand.Priority >= s.trustThreshold {
			slog.Debug("Cover accepted without validation", "url", cand.URL, "source", cand.Source, "priority", cand.Priority)
			return cand.URL
		}

		attempts++
		switch s.probe(ctx, cand.URL) {
		case coverValid:
			slog.Debug("Cover validated", "url", cand.URL, "source", cand.Source)
			return cand.URL
		case coverInconclusive:
			slog.Debug("Cover validation inconclusive, accepting", "url", cand.URL, "source", cand.Source)
			return cand.URL
		case coverInvalid:
			slog.Debug("Cover rejected", "url", cand.URL, "source", cand.Source)
		}
	}

	// Validation budget exhausted with nothing conclusive.
	return ranked[0].URL
}

type probeResult int

const (
	coverValid probeResult = iota
	coverInvalid
	coverInconclusive
)

// cachedProbe is the persisted form of a probe outcome.
type cachedProbe struct {
	Result probeResult `json:"result"`
}

// probe resolves a cover URL to a probe outcome, consulting the
// cover_cache table first. Conclusive outcomes (valid, invalid) are
// cached; inconclusive ones are transient and probed again next time.
func (s *CoverSelector) probe(ctx context.Context, url string) probeResult {
	if !s.useCache {
		return s.probeURL(ctx, url)
	}

	cached, _, err := cache.GetOrFetchWithPolicy(coverCacheTable, url,
		func() (cachedProbe, error) {
			return cachedProbe{Result: s.probeURL(ctx, url)}, nil
		},
		func(p cachedProbe) bool { return p.Result != coverInconclusive })
	if err != nil {
		return coverInconclusive
	}
	return cached.Result
}

func (s *CoverSelector) probeURL(ctx context.Context, url string) probeResult {
	probeCtx, cancel := context.WithTimeout(ctx, coverProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, url, nil)
	if err != nil {
		return coverInvalid
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		// timeout, DNS failure: do not block selection on a transient error
		return coverInconclusive
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return coverInvalid
	case resp.StatusCode != http.StatusOK:
		// 403, 429, 5xx: CDNs throttle HEAD probes while still serving
		// the image to a real download, so only a definite 404 condemns
		return coverInconclusive
	}

	if resp.ContentLength >= 0 && resp.ContentLength < minPlausibleImageBytes {
		return coverInvalid
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return coverInvalid
	}

	return coverValid
}

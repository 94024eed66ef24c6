// Package bookmeta implements multi-source book metadata enrichment:
// provider adapters feed normalized candidate records into a matcher,
// matched records are merged field-by-field with explicit precedence,
// and cover candidates are ranked and validated to pick a final cover.
package bookmeta

// Provider identifies an external metadata source.
type Provider string

// Known metadata providers.
const (
	ProviderGoogleBooks Provider = "googlebooks"
	ProviderOpenLibrary Provider = "openlibrary"
	ProviderIMSLP       Provider = "imslp"
)

// DefaultPrecedence is the provider order used for single-value fields
// (series, rating) when several providers contribute. Google Books ratings
// have proven the most consistent, so it goes first. Override via
// configuration rather than editing this list.
var DefaultPrecedence = []Provider{ProviderGoogleBooks, ProviderOpenLibrary, ProviderIMSLP}

// SizeClass describes the reported size of a cover image.
type SizeClass int

// Cover size classes, smallest to largest.
const (
	SizeThumbnail SizeClass = iota + 1
	SizeSmall
	SizeMedium
	SizeLarge
	SizeOriginal
)

func (s SizeClass) String() string {
	switch s {
	case SizeThumbnail:
		return "thumbnail"
	case SizeSmall:
		return "small"
	case SizeMedium:
		return "medium"
	case SizeLarge:
		return "large"
	case SizeOriginal:
		return "original"
	}
	return "unknown"
}

// CoverType distinguishes front covers from back covers.
type CoverType int

// Cover types.
const (
	CoverFront CoverType = iota
	CoverBack
)

// CoverCandidate is one possible cover image URL with ranking metadata.
// Priority is only meaningful within a single enrichment call; it is never
// persisted.
type CoverCandidate struct {
	URL      string
	Source   string // provider or constructor name, e.g. "amazon-isbn"
	Size     SizeClass
	Priority int // higher = preferred
	Type     CoverType
}

// CandidateRecord is a normalized view of a book (or score) as returned by
// one provider. Records are constructed fresh per query, consumed by the
// matcher and merge step, and then discarded. Pointer fields distinguish
// "not reported" from zero values.
type CandidateRecord struct {
	ISBN10        string
	ISBN13        string
	Title         string
	Subtitle      string
	Authors       []string
	Publisher     string
	PublishedYear *int
	Language      string // ISO 639-1
	Series        string
	SeriesNumber  *int
	Genres        []string
	Description   string
	PageCount     *int
	Rating        *float64
	Covers        []CoverCandidate
	ExternalURLs  map[string]string
	Source        Provider
}

// BookRecord is the record being enriched: the caller passes a partial one
// in and gets a merged one back. Persistence is the caller's job.
type BookRecord struct {
	ISBN10        string
	ISBN13        string
	Title         string
	Subtitle      string
	Authors       []string
	Publisher     string
	PublishedYear *int
	Language      string
	Series        string
	SeriesNumber  *int
	Genres        []string
	Tags          []string
	Description   string
	PageCount     *int
	Rating        *float64
	CoverURL      string
	// AvailableCovers holds every cover candidate seen during enrichment so
	// a UI can offer alternatives. Ephemeral ranking metadata included.
	AvailableCovers []CoverCandidate
	// EnrichedBy names the provider whose data the record already carries,
	// if any. The orchestrator skips re-querying that provider when the
	// record looks complete.
	EnrichedBy Provider
}

// SourceFields captures the field values one source contributed, before
// merging. Kept so a UI can let the user pick a different source's value
// for a conflicting field.
type SourceFields struct {
	Title         string
	Subtitle      string
	Description   string
	Publisher     string
	Authors       []string
	PublishedYear *int
	PageCount     *int
	Rating        *float64
	Series        string
	SeriesNumber  *int
	Genres        []string
	CoverURL      string
}

// MetadataSources records the original field values and each provider's
// contribution separately. One fixed slot per known provider plus the
// original; nil means the provider contributed nothing. In-memory
// annotation only, never persisted.
type MetadataSources struct {
	Original    *SourceFields
	GoogleBooks *SourceFields
	OpenLibrary *SourceFields
	IMSLP       *SourceFields
}

// ForProvider returns the slot for the given provider, or nil.
func (m *MetadataSources) ForProvider(p Provider) *SourceFields {
	switch p {
	case ProviderGoogleBooks:
		return m.GoogleBooks
	case ProviderOpenLibrary:
		return m.OpenLibrary
	case ProviderIMSLP:
		return m.IMSLP
	}
	return nil
}

func (m *MetadataSources) setProvider(p Provider, f *SourceFields) {
	switch p {
	case ProviderGoogleBooks:
		m.GoogleBooks = f
	case ProviderOpenLibrary:
		m.OpenLibrary = f
	case ProviderIMSLP:
		m.IMSLP = f
	}
}

// IntPtr returns a pointer to v. Convenience for building records.
func IntPtr(v int) *int { return &v }

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 { return &v }

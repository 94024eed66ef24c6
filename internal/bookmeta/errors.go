package bookmeta

import "errors"

var (
	// ErrInvalidISBN is returned when a caller passes a malformed ISBN to an
	// ISBN-specific lookup. Raised before any network call; indicates a
	// caller bug rather than an external condition.
	ErrInvalidISBN = errors.New("invalid ISBN")

	// ErrEmptyQuery is returned when a text search is attempted with an
	// empty query string.
	ErrEmptyQuery = errors.New("empty query")

	// ErrEmptySeriesName is returned when series discovery is attempted
	// with an empty series name.
	ErrEmptySeriesName = errors.New("empty series name")
)

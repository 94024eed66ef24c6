// Package library persists enriched book records in a local SQLite database.
package library

import "github.com/tkarvine/bibliofile/internal/bookmeta"

// Store defines the interface for the local book library
type Store interface {
	// Connect establishes a connection to the data store
	Connect() error

	// SaveBooks upserts the given records, keyed by ISBN-13 (falling back
	// to ISBN-10, then normalized title)
	SaveBooks(records []bookmeta.BookRecord) error

	// Close closes the connection to the data store
	Close() error
}

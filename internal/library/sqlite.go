package library

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/tkarvine/bibliofile/internal/bookmeta"
)

// BooksSchema is the table definition for the local library.
const BooksSchema = `
CREATE TABLE IF NOT EXISTS books (
	book_key TEXT PRIMARY KEY,
	isbn10 TEXT,
	isbn13 TEXT,
	title TEXT NOT NULL,
	subtitle TEXT,
	authors TEXT,
	publisher TEXT,
	published_year INTEGER,
	language TEXT,
	series TEXT,
	series_number INTEGER,
	genres TEXT,
	tags TEXT,
	description TEXT,
	page_count INTEGER,
	rating REAL,
	cover_url TEXT,
	enriched_by TEXT,
	updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
)`

// SQLiteStore implements the Store interface using a local SQLite file
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLiteStore instance
func NewSQLiteStore(dbPath string) *SQLiteStore {
	return &SQLiteStore{
		dbPath: dbPath,
	}
}

// Connect opens a connection to the SQLite database and ensures the
// books table exists
func (s *SQLiteStore) Connect() error {
	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec(BooksSchema); err != nil {
		closeErr := db.Close()
		if closeErr != nil {
			return fmt.Errorf("failed to create books table: %w (close: %v)", err, closeErr)
		}
		return fmt.Errorf("failed to create books table: %w", err)
	}
	s.db = db
	return nil
}

// SaveBooks upserts the given records in a single transaction
func (s *SQLiteStore) SaveBooks(records []bookmeta.BookRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback is a no-op after a successful commit
		_ = tx.Rollback()
	}()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO books (
			book_key, isbn10, isbn13, title, subtitle, authors, publisher,
			published_year, language, series, series_number, genres, tags,
			description, page_count, rating, cover_url, enriched_by, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, record := range records {
		if _, err := stmt.Exec(
			BookKey(record),
			record.ISBN10,
			record.ISBN13,
			record.Title,
			record.Subtitle,
			strings.Join(record.Authors, "; "),
			record.Publisher,
			nullableInt(record.PublishedYear),
			record.Language,
			record.Series,
			nullableInt(record.SeriesNumber),
			strings.Join(record.Genres, "; "),
			strings.Join(record.Tags, "; "),
			record.Description,
			nullableInt(record.PageCount),
			nullableFloat(record.Rating),
			record.CoverURL,
			string(record.EnrichedBy),
		); err != nil {
			return fmt.Errorf("failed to insert book %q: %w", record.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// BookKey returns the upsert key for a record: ISBN-13 when present,
// then ISBN-10, then the normalized title.
func BookKey(record bookmeta.BookRecord) string {
	if record.ISBN13 != "" {
		return record.ISBN13
	}
	if record.ISBN10 != "" {
		return record.ISBN10
	}
	return bookmeta.NormalizeTitle(record.Title)
}

func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

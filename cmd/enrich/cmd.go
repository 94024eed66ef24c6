// Package enrich implements the enrich command workflow: look a book up
// across all metadata sources, merge the results and write the outputs.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/tkarvine/bibliofile/internal/bookmeta"
	"github.com/tkarvine/bibliofile/internal/config"
	"github.com/tkarvine/bibliofile/internal/fileutil"
	"github.com/tkarvine/bibliofile/internal/library"
	"github.com/tkarvine/bibliofile/internal/obsidian"
	"github.com/tkarvine/bibliofile/internal/providers"
)

// Params holds the enrich command inputs.
type Params struct {
	ISBN          string
	Title         string
	Author        string
	Output        string
	DownloadCover bool
	UpdateCovers  bool
}

// Test seams.
var (
	newService    = defaultService
	downloadCover = fileutil.DownloadCover
	saveToLibrary = defaultSaveToLibrary
)

// EnrichBook runs the full enrichment workflow for a single book and
// writes a markdown note, cover image and library row as configured.
func EnrichBook(ctx context.Context, params Params) error {
	book, err := buildRecord(params)
	if err != nil {
		return err
	}

	svc := newService()
	merged, sources := svc.Enrich(ctx, book)

	logContributions(merged, sources)

	outputDir := noteOutputDir(params.Output)

	coverPath := ""
	if params.DownloadCover && merged.CoverURL != "" {
		result, err := downloadCover(fileutil.CoverDownloadOptions{
			URL:          merged.CoverURL,
			OutputDir:    outputDir,
			Filename:     fileutil.BuildCoverFilename(merged.Title),
			UpdateCovers: params.UpdateCovers,
			Resize:       true,
		})
		if err != nil {
			slog.Warn("Cover download failed", "url", merged.CoverURL, "error", err)
		} else if result != nil {
			coverPath = result.RelativePath
		}
	}

	if err := writeNote(merged, coverPath, outputDir); err != nil {
		return err
	}

	if viper.GetBool("library.enabled") {
		if err := saveToLibrary(merged); err != nil {
			return fmt.Errorf("failed to save book to library: %w", err)
		}
	}

	return nil
}

// buildRecord validates the command inputs into a partial book record.
func buildRecord(params Params) (bookmeta.BookRecord, error) {
	isbn := strings.TrimSpace(params.ISBN)
	title := strings.TrimSpace(params.Title)

	if isbn == "" && title == "" {
		return bookmeta.BookRecord{}, fmt.Errorf("either an ISBN or a title is required")
	}

	book := bookmeta.BookRecord{Title: title}
	if params.Author != "" {
		book.Authors = []string{strings.TrimSpace(params.Author)}
	}

	if isbn != "" {
		normalized := bookmeta.NormalizeISBN(isbn)
		switch {
		case bookmeta.IsValidISBN13(normalized):
			book.ISBN13 = normalized
			book.ISBN10 = bookmeta.ISBN13To10(normalized)
		case bookmeta.IsValidISBN10(normalized):
			book.ISBN10 = normalized
			book.ISBN13 = bookmeta.ISBN10To13(normalized)
		default:
			return bookmeta.BookRecord{}, fmt.Errorf("%w: %s", bookmeta.ErrInvalidISBN, params.ISBN)
		}
	}

	return book, nil
}

func defaultService() *bookmeta.Service {
	return bookmeta.NewService(providers.DefaultClients(),
		bookmeta.WithPrecedence(providers.Precedence()),
		bookmeta.WithMatcher(&bookmeta.Matcher{FuzzyThreshold: config.FuzzyThreshold()}),
	)
}

func defaultSaveToLibrary(book bookmeta.BookRecord) error {
	store := library.NewSQLiteStore(viper.GetString("library.dbfile"))
	if err := store.Connect(); err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	return store.SaveBooks([]bookmeta.BookRecord{book})
}

func writeNote(book bookmeta.BookRecord, coverPath, outputDir string) error {
	if book.Title == "" {
		return fmt.Errorf("refusing to write a note without a title")
	}

	content, err := obsidian.BuildBookNote(book, coverPath)
	if err != nil {
		return fmt.Errorf("failed to build note: %w", err)
	}

	notePath := fileutil.GetMarkdownFilePath(book.Title, outputDir)
	written, err := fileutil.WriteFileWithOverwrite(notePath, content, 0644, config.OverwriteFiles)
	if err != nil {
		return fmt.Errorf("failed to write note: %w", err)
	}
	if !written {
		slog.Info("Note already exists, skipping", "path", notePath)
		return nil
	}

	slog.Info("Wrote book note", "path", notePath)
	return nil
}

func noteOutputDir(subdir string) string {
	base := viper.GetString("MarkdownOutputDir")
	if subdir == "" {
		return base
	}
	return strings.TrimSuffix(base, "/") + "/" + subdir
}

func logContributions(book bookmeta.BookRecord, sources bookmeta.MetadataSources) {
	var contributed []string
	for _, p := range []bookmeta.Provider{bookmeta.ProviderGoogleBooks, bookmeta.ProviderOpenLibrary, bookmeta.ProviderIMSLP} {
		if sources.ForProvider(p) != nil {
			contributed = append(contributed, string(p))
		}
	}
	if len(contributed) == 0 {
		slog.Warn("No provider matched, record unchanged", "title", book.Title)
		return
	}
	slog.Info("Enriched book", "title", book.Title, "sources", strings.Join(contributed, ","))
}

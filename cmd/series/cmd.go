// Package series implements the series command workflow: discover the
// volumes of a named series across all metadata sources.
package series

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/tkarvine/bibliofile/internal/bookmeta"
	"github.com/tkarvine/bibliofile/internal/config"
	"github.com/tkarvine/bibliofile/internal/fileutil"
	"github.com/tkarvine/bibliofile/internal/obsidian"
	"github.com/tkarvine/bibliofile/internal/providers"
	"github.com/tkarvine/bibliofile/internal/tui"
)

// Params holds the series command inputs.
type Params struct {
	Name        string
	Language    string
	MaxVolumes  int
	Output      string
	WriteNotes  bool
	Interactive bool
	ExportJSON  string
}

// Test seams.
var (
	newService      = defaultService
	selectCandidate = tui.SelectCandidate
	output          io.Writer = os.Stdout
)

// DiscoverSeries finds the volumes of a series, prints them, and
// optionally writes one note per volume.
func DiscoverSeries(ctx context.Context, params Params) error {
	svc := newService()

	volumes, err := svc.DiscoverSeriesVolumes(ctx, params.Name, bookmeta.DiscoverOptions{
		Language:   params.Language,
		MaxVolumes: params.MaxVolumes,
	})
	if err != nil {
		return err
	}

	if len(volumes) == 0 {
		slog.Info("No volumes found", "series", params.Name)
		return nil
	}

	printVolumes(params.Name, volumes)

	if params.Interactive {
		result, err := selectCandidate(params.Name, volumes)
		if err != nil {
			return err
		}
		switch result.Action {
		case tui.ActionSelected:
			volumes = []bookmeta.CandidateRecord{*result.Selection}
		case tui.ActionStopped:
			return nil
		}
	}

	if params.ExportJSON != "" {
		written, err := fileutil.WriteJSONFile(volumes, params.ExportJSON, config.OverwriteFiles)
		if err != nil {
			return fmt.Errorf("failed to export volumes: %w", err)
		}
		if written {
			slog.Info("Exported volume listing", "path", params.ExportJSON)
		}
	}

	if params.WriteNotes {
		return writeVolumeNotes(volumes, params.Output)
	}

	return nil
}

func printVolumes(name string, volumes []bookmeta.CandidateRecord) {
	fmt.Fprintf(output, "Found %d volumes of %s:\n", len(volumes), name)
	for _, vol := range volumes {
		number := "?"
		if vol.SeriesNumber != nil {
			number = fmt.Sprintf("%d", *vol.SeriesNumber)
		}
		isbn := vol.ISBN13
		if isbn == "" {
			isbn = vol.ISBN10
		}
		line := fmt.Sprintf("  %3s  %s", number, vol.Title)
		if isbn != "" {
			line += fmt.Sprintf("  [%s]", isbn)
		}
		fmt.Fprintln(output, line)
	}
}

func writeVolumeNotes(volumes []bookmeta.CandidateRecord, subdir string) error {
	outputDir := noteOutputDir(subdir)

	for _, vol := range volumes {
		book := volumeToRecord(vol)

		content, err := obsidian.BuildBookNote(book, "")
		if err != nil {
			return fmt.Errorf("failed to build note for %q: %w", book.Title, err)
		}

		notePath := fileutil.GetMarkdownFilePath(book.Title, outputDir)
		written, err := fileutil.WriteFileWithOverwrite(notePath, content, 0644, config.OverwriteFiles)
		if err != nil {
			return fmt.Errorf("failed to write note for %q: %w", book.Title, err)
		}
		if written {
			slog.Info("Wrote volume note", "path", notePath)
		}
	}

	return nil
}

// volumeToRecord converts a discovery result into a book record, picking
// the best cover candidate without network validation.
func volumeToRecord(vol bookmeta.CandidateRecord) bookmeta.BookRecord {
	book := bookmeta.BookRecord{
		ISBN10:        vol.ISBN10,
		ISBN13:        vol.ISBN13,
		Title:         vol.Title,
		Subtitle:      vol.Subtitle,
		Authors:       vol.Authors,
		Publisher:     vol.Publisher,
		PublishedYear: vol.PublishedYear,
		Language:      vol.Language,
		Series:        vol.Series,
		SeriesNumber:  vol.SeriesNumber,
		Genres:        vol.Genres,
		Description:   vol.Description,
		PageCount:     vol.PageCount,
		Rating:        vol.Rating,
		EnrichedBy:    vol.Source,
	}
	if len(vol.Covers) > 0 {
		best := vol.Covers[0]
		for _, cover := range vol.Covers[1:] {
			if cover.Priority > best.Priority {
				best = cover
			}
		}
		book.CoverURL = best.URL
		book.AvailableCovers = vol.Covers
	}
	return book
}

func defaultService() *bookmeta.Service {
	return bookmeta.NewService(providers.DefaultClients(),
		bookmeta.WithPrecedence(providers.Precedence()),
		bookmeta.WithMatcher(&bookmeta.Matcher{FuzzyThreshold: config.FuzzyThreshold()}),
	)
}

func noteOutputDir(subdir string) string {
	base := viper.GetString("MarkdownOutputDir")
	if subdir == "" {
		return base
	}
	return strings.TrimSuffix(base, "/") + "/" + subdir
}

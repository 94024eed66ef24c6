package obsidian

import (
	"fmt"
	"strings"

	"github.com/tkarvine/bibliofile/internal/bookmeta"
)

// BuildBookNote renders an enriched book record as a markdown note with
// YAML frontmatter. coverPath, when non-empty, is used instead of the
// remote cover URL for the embedded image.
func BuildBookNote(record bookmeta.BookRecord, coverPath string) ([]byte, error) {
	note := &Note{Frontmatter: NewFrontmatter()}
	fm := note.Frontmatter

	fm.Set("title", record.Title)
	fm.Set("type", "book")
	if record.Subtitle != "" {
		fm.Set("subtitle", record.Subtitle)
	}
	if len(record.Authors) > 0 {
		fm.Set("authors", record.Authors)
	}
	if record.Publisher != "" {
		fm.Set("publisher", record.Publisher)
	}
	if record.PublishedYear != nil {
		fm.Set("year", *record.PublishedYear)
	}
	if record.Language != "" {
		fm.Set("language", record.Language)
	}
	if record.ISBN10 != "" {
		fm.Set("isbn10", record.ISBN10)
	}
	if record.ISBN13 != "" {
		fm.Set("isbn13", record.ISBN13)
	}
	if record.Series != "" {
		fm.Set("series", record.Series)
		if record.SeriesNumber != nil {
			fm.Set("series_number", *record.SeriesNumber)
		}
	}
	if record.PageCount != nil {
		fm.Set("pages", *record.PageCount)
	}
	if record.Rating != nil {
		fm.Set("rating", *record.Rating)
	}

	fm.Set("tags", bookNoteTags(record))

	note.Body = bookNoteBody(record, coverPath)

	return note.Build()
}

func bookNoteTags(record bookmeta.BookRecord) []string {
	ts := NewTagSet()
	ts.Add("book")
	for _, genre := range record.Genres {
		ts.AddFormat("genre/%s", strings.ToLower(genre))
	}
	for _, tag := range record.Tags {
		ts.Add(tag)
	}
	if record.Series != "" {
		ts.AddFormat("series/%s", strings.ToLower(record.Series))
	}
	return ts.GetSorted()
}

func bookNoteBody(record bookmeta.BookRecord, coverPath string) string {
	var body strings.Builder

	image := coverPath
	if image == "" {
		image = record.CoverURL
	}
	if image != "" {
		fmt.Fprintf(&body, "![](%s)\n\n", image)
	}

	if record.Description != "" {
		body.WriteString(record.Description)
		body.WriteString("\n\n")
	}

	if record.Series != "" && record.SeriesNumber != nil {
		fmt.Fprintf(&body, "Part %d of **%s**.\n", *record.SeriesNumber, record.Series)
	}

	return body.String()
}

package obsidian

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkarvine/bibliofile/internal/testutil"
)

func TestParseMarkdown(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantTitle string
		wantTags  []string
		wantBody  string
	}{
		{
			name: "flow tags",
			input: `---
tags: [fantasy, classics]
title: A Wizard of Earthsea
---
Body content here.`,
			wantTitle: "A Wizard of Earthsea",
			wantTags:  []string{"fantasy", "classics"},
			wantBody:  "Body content here.",
		},
		{
			name: "block tags",
			input: `---
title: A Wizard of Earthsea
tags:
  - fantasy
  - classics
---
Body content here.`,
			wantTitle: "A Wizard of Earthsea",
			wantTags:  []string{"fantasy", "classics"},
			wantBody:  "Body content here.",
		},
		{
			name:     "no frontmatter",
			input:    "Just body content.",
			wantTags: []string{},
			wantBody: "Just body content.",
		},
		{
			name: "empty frontmatter block",
			input: `---
---
Body content.`,
			wantTags: []string{},
			wantBody: "Body content.",
		},
		{
			name: "unclosed frontmatter treated as body",
			input: `---
title: Broken
no closing delimiter`,
			wantTags: []string{},
			wantBody: "---\ntitle: Broken\nno closing delimiter",
		},
		{
			name: "multiline body",
			input: `---
title: Dune
---
Line 1
Line 2`,
			wantTitle: "Dune",
			wantTags:  []string{},
			wantBody:  "Line 1\nLine 2",
		},
		{
			name:     "empty input",
			input:    "",
			wantTags: []string{},
			wantBody: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			note, err := ParseMarkdown([]byte(tt.input))
			require.NoError(t, err)

			assert.Equal(t, tt.wantTitle, note.Frontmatter.GetString("title"))
			assert.Equal(t, tt.wantTags, note.Frontmatter.GetStringArray("tags"))
			assert.Equal(t, tt.wantBody, note.Body)
		})
	}
}

func TestParseMarkdownBadYAML(t *testing.T) {
	_, err := ParseMarkdown([]byte("---\ntitle: [unclosed\n---\nbody"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse frontmatter")
}

func TestFrontmatterTypedGetters(t *testing.T) {
	note, err := ParseMarkdown([]byte(`---
isbn13: "9780553293357"
pages: 244
read: true
title: Foundation
---
`))
	require.NoError(t, err)
	fm := note.Frontmatter

	assert.Equal(t, "Foundation", fm.GetString("title"))
	assert.Equal(t, "9780553293357", fm.GetString("isbn13"))
	assert.Equal(t, 244, fm.GetInt("pages"))
	assert.True(t, fm.GetBool("read"))

	assert.Equal(t, "", fm.GetString("missing"))
	assert.Equal(t, 0, fm.GetInt("missing"))
	assert.False(t, fm.GetBool("missing"))
	assert.Empty(t, fm.GetStringArray("missing"))

	assert.Equal(t, "", fm.GetString("pages"), "wrong type yields zero value")
}

func TestFrontmatterSetDeleteKeys(t *testing.T) {
	fm := NewFrontmatter()
	fm.Set("year", 1965)
	fm.Set("author", "Frank Herbert")
	fm.Set("title", "Dune")

	assert.Equal(t, []string{"author", "title", "year"}, fm.Keys())

	fm.Set("title", "Dune Messiah")
	got, ok := fm.Get("title")
	require.True(t, ok)
	assert.Equal(t, "Dune Messiah", got)
	assert.Equal(t, []string{"author", "title", "year"}, fm.Keys(), "overwrite does not duplicate the key")

	fm.Delete("author")
	assert.Equal(t, []string{"title", "year"}, fm.Keys())
	_, ok = fm.Get("author")
	assert.False(t, ok)
}

func TestNoteBuild(t *testing.T) {
	t.Run("sorted keys and flow tags", func(t *testing.T) {
		note := &Note{Frontmatter: NewFrontmatter(), Body: "Body."}
		note.Frontmatter.Set("title", "Foundation")
		note.Frontmatter.Set("author", "Isaac Asimov")
		note.Frontmatter.Set("tags", []string{"book", "sci-fi"})

		output, err := note.Build()
		require.NoError(t, err)
		text := string(output)

		assert.True(t, strings.HasPrefix(text, "---\n"))
		assert.Contains(t, text, "tags: [book, sci-fi]")

		authorIdx := strings.Index(text, "author:")
		tagsIdx := strings.Index(text, "tags:")
		titleIdx := strings.Index(text, "title:")
		assert.True(t, authorIdx < tagsIdx && tagsIdx < titleIdx, "keys must serialize sorted")
	})

	t.Run("empty frontmatter emits no delimiters", func(t *testing.T) {
		note := &Note{Frontmatter: NewFrontmatter(), Body: "Just body content."}

		output, err := note.Build()
		require.NoError(t, err)
		assert.Equal(t, "Just body content.", string(output))
	})

	t.Run("empty body ends at closing delimiter", func(t *testing.T) {
		note := &Note{Frontmatter: NewFrontmatter()}
		note.Frontmatter.Set("title", "Dune")

		output, err := note.Build()
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(string(output), "---\n"))
		assert.Contains(t, string(output), "title: Dune")
	})
}

func TestNoteRoundTrip(t *testing.T) {
	input := `---
isbn13: "9780553293357"
read: true
series: Foundation
tags: [book, fantasy, sci-fi]
title: Test Book
year: 2020
---
# Test Book

This is the body content.
More lines here.`

	note, err := ParseMarkdown([]byte(input))
	require.NoError(t, err)

	output, err := note.Build()
	require.NoError(t, err)

	note2, err := ParseMarkdown(output)
	require.NoError(t, err)

	for _, key := range note.Frontmatter.Keys() {
		val1, _ := note.Frontmatter.Get(key)
		val2, _ := note2.Frontmatter.Get(key)
		if key == "tags" {
			assert.Equal(t, TagsFromAny(val1), TagsFromAny(val2))
		} else {
			assert.Equal(t, val1, val2, "round trip mismatch for %s", key)
		}
	}

	assert.Equal(t, note.Body, note2.Body)
	assert.Contains(t, string(output), "tags: [book, fantasy, sci-fi]")
}

func TestBuildMatchesGolden(t *testing.T) {
	note := &Note{Frontmatter: NewFrontmatter(), Body: "Classic."}
	note.Frontmatter.Set("title", "Foundation")
	note.Frontmatter.Set("type", "book")
	note.Frontmatter.Set("tags", []string{"book", "sci-fi"})

	output, err := note.Build()
	require.NoError(t, err)

	gh := testutil.NewGoldenHelper(t, filepath.Join("testdata", "note"))
	gh.AssertGolden("basic.md", output)
}

package bookmeta

import (
	"html"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	markupTagRe  = regexp.MustCompile(`<[^>]+>`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
)

// diacriticStripper removes combining marks after NFD decomposition, so
// "Misérables" and "Miserables" normalize to the same bytes.
var diacriticStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeTitle produces the canonical comparison form of a title:
// lowercased, diacritics stripped, punctuation removed, whitespace
// collapsed and trimmed. Idempotent.
func NormalizeTitle(title string) string {
	lowered := strings.ToLower(title)
	stripped, _, err := transform.String(diacriticStripper, lowered)
	if err != nil {
		stripped = lowered
	}

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			// punctuation becomes a space so "foo-bar" keeps two words
			b.WriteRune(' ')
		}
	}

	return strings.TrimSpace(multiSpaceRe.ReplaceAllString(b.String(), " "))
}

// titleWords returns the normalized words of a title longer than two
// characters. Short words (articles, "of", numbers like "I") carry too
// little signal for overlap matching.
func titleWords(title string) []string {
	var words []string
	for _, w := range strings.Fields(NormalizeTitle(title)) {
		if len([]rune(w)) > 2 {
			words = append(words, w)
		}
	}
	return words
}

// quotePairs lists the wrapping quote characters CleanDescription strips:
// straight, curly doubles, curly singles and guillemets.
var quotePairs = [][2]string{
	{`"`, `"`},
	{"“", "”"}, // “ ”
	{"‘", "’"}, // ‘ ’
	{"«", "»"}, // « »
}

// CleanDescription strips embedded markup, decodes HTML entities and
// removes wrapping quotes, but only when the entire string is
// quote-delimited.
func CleanDescription(desc string) string {
	cleaned := markupTagRe.ReplaceAllString(desc, " ")
	cleaned = html.UnescapeString(cleaned)
	cleaned = strings.TrimSpace(multiSpaceRe.ReplaceAllString(cleaned, " "))

	for _, pair := range quotePairs {
		if len(cleaned) > len(pair[0])+len(pair[1]) &&
			strings.HasPrefix(cleaned, pair[0]) && strings.HasSuffix(cleaned, pair[1]) {
			inner := strings.TrimSuffix(strings.TrimPrefix(cleaned, pair[0]), pair[1])
			// Only unwrap when the quotes delimit the whole string, not
			// when the text merely starts and ends with quoted fragments.
			if !strings.Contains(inner, pair[0]) && !strings.Contains(inner, pair[1]) {
				cleaned = strings.TrimSpace(inner)
			}
			break
		}
	}

	return cleaned
}

// genericCategories are single-word categories too broad to be useful when
// anything more specific is available.
var genericCategories = map[string]bool{
	"fiction":    true,
	"nonfiction": true,
	"general":    true,
}

// NormalizeGenres cleans provider categories: hierarchical entries like
// "Fiction / Dystopian" collapse to their most specific segment, overly
// generic single-word categories are dropped when other categories exist,
// and duplicates are removed preserving encounter order.
func NormalizeGenres(categories []string) []string {
	var out []string
	seen := make(map[string]bool)

	for _, cat := range categories {
		segments := strings.Split(cat, "/")
		specific := strings.TrimSpace(segments[len(segments)-1])
		if specific == "" {
			continue
		}
		if genericCategories[strings.ToLower(specific)] && len(categories) > 1 {
			continue
		}
		if !seen[specific] {
			seen[specific] = true
			out = append(out, specific)
		}
	}

	// Everything was generic; keep the first rather than returning nothing.
	if len(out) == 0 && len(categories) > 0 {
		first := strings.TrimSpace(categories[0])
		if first != "" {
			segments := strings.Split(first, "/")
			out = append(out, strings.TrimSpace(segments[len(segments)-1]))
		}
	}

	return out
}

package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/tkarvine/bibliofile/internal/bookmeta"
	"github.com/tkarvine/bibliofile/internal/cache"
)

const cacheTable = "openlibrary_cache"

type cachedSearch struct {
	Records  []bookmeta.CandidateRecord `json:"records"`
	NotFound bool                       `json:"not_found"`
}

// SearchByISBN looks up an edition by ISBN via the Books API, enriched
// with edition-level data. Transient failures yield an empty result.
func (c *Client) SearchByISBN(ctx context.Context, isbn string) ([]bookmeta.CandidateRecord, error) {
	isbn = bookmeta.NormalizeISBN(isbn)
	if !bookmeta.IsValidISBN10(isbn) && !bookmeta.IsValidISBN13(isbn) {
		return nil, fmt.Errorf("%w: %q", bookmeta.ErrInvalidISBN, isbn)
	}

	fetch := func() (*cachedSearch, error) {
		rec, found, err := c.fetchByISBN(ctx, isbn)
		if err != nil {
			slog.Debug("OpenLibrary ISBN lookup failed", "isbn", isbn, "error", err)
			return nil, err
		}
		if !found {
			return &cachedSearch{NotFound: true}, nil
		}
		return &cachedSearch{Records: []bookmeta.CandidateRecord{rec}}, nil
	}

	return c.cached("isbn:"+isbn, fetch)
}

// SearchByText runs a free-text search against /search.json. The
// Google-style "intitle:" scope is translated to the title parameter.
func (c *Client) SearchByText(ctx context.Context, query string, limit int) ([]bookmeta.CandidateRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, bookmeta.ErrEmptyQuery
	}
	if limit <= 0 {
		limit = 5
	}

	fetch := func() (*cachedSearch, error) {
		records, err := c.fetchByText(ctx, query, limit)
		if err != nil {
			slog.Debug("OpenLibrary search failed", "query", query, "error", err)
			return nil, err
		}
		return &cachedSearch{Records: records, NotFound: len(records) == 0}, nil
	}

	return c.cached(fmt.Sprintf("q:%s:%d", query, limit), fetch)
}

// Ping checks that OpenLibrary is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("creating ping request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("OpenLibrary ping failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("OpenLibrary returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) cached(key string, fetch func() (*cachedSearch, error)) ([]bookmeta.CandidateRecord, error) {
	var result *cachedSearch
	var err error
	if c.useCache {
		result, _, err = cache.GetOrFetchWithTTL(cacheTable, key, fetch,
			cache.SelectNegativeCacheTTL(func(r *cachedSearch) bool { return r.NotFound }))
	} else {
		result, err = fetch()
	}
	if err != nil {
		return nil, nil
	}
	return result.Records, nil
}

func (c *Client) fetchByISBN(ctx context.Context, isbn string) (bookmeta.CandidateRecord, bool, error) {
	var rec bookmeta.CandidateRecord

	endpoint := fmt.Sprintf("%s/api/books?bibkeys=ISBN:%s&format=json&jscmd=data", c.baseURL, isbn)
	var result map[string]bookResponse
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return rec, false, err
	}
	if len(result) == 0 {
		return rec, false, nil
	}

	olBook := result["ISBN:"+isbn]
	rec = c.toCandidate(isbn, olBook)

	// The edition record fills gaps the data API leaves: language, series,
	// page count.
	if edition, err := c.fetchEdition(ctx, isbn); err == nil && edition != nil {
		if rec.PageCount == nil && edition.NumberOfPages > 0 {
			rec.PageCount = bookmeta.IntPtr(edition.NumberOfPages)
		}
		if rec.Publisher == "" && len(edition.Publishers) > 0 {
			rec.Publisher = edition.Publishers[0]
		}
		if len(edition.Languages) > 0 {
			parts := strings.Split(edition.Languages[0].Key, "/")
			rec.Language = iso639_1(parts[len(parts)-1])
		}
		if len(edition.Series) > 0 {
			if info := bookmeta.ExtractSeriesFromTitle(edition.Series[0]); info != nil {
				rec.Series = info.Series
				rec.SeriesNumber = bookmeta.IntPtr(info.Number)
			} else {
				rec.Series = strings.TrimSpace(edition.Series[0])
			}
		}
		if len(rec.Genres) == 0 && len(edition.Subjects) > 0 {
			rec.Genres = bookmeta.NormalizeGenres(edition.Subjects)
		}
	}

	return rec, true, nil
}

func (c *Client) fetchEdition(ctx context.Context, isbn string) (*editionResponse, error) {
	endpoint := fmt.Sprintf("%s/isbn/%s.json", c.baseURL, isbn)
	var edition editionResponse
	if err := c.getJSON(ctx, endpoint, &edition); err != nil {
		return nil, err
	}
	return &edition, nil
}

func (c *Client) fetchByText(ctx context.Context, query string, limit int) ([]bookmeta.CandidateRecord, error) {
	params := url.Values{}
	if title, ok := strings.CutPrefix(query, "intitle:"); ok {
		params.Set("title", strings.TrimSpace(title))
	} else {
		params.Set("q", strings.Trim(query, `"`))
	}
	params.Set("limit", fmt.Sprintf("%d", limit))

	endpoint := fmt.Sprintf("%s/search.json?%s", c.baseURL, params.Encode())
	var result searchResponse
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}

	records := make([]bookmeta.CandidateRecord, 0, len(result.Docs))
	for _, doc := range result.Docs {
		records = append(records, c.docToCandidate(doc))
	}
	return records, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, target any) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("API request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// toCandidate normalizes a Books API entry.
func (c *Client) toCandidate(isbn string, olBook bookResponse) bookmeta.CandidateRecord {
	rec := bookmeta.CandidateRecord{
		Title:        olBook.Title,
		Subtitle:     olBook.Subtitle,
		Description:  bookmeta.CleanDescription(extractDescription(olBook.Description)),
		Genres:       bookmeta.NormalizeGenres(extractStrings(olBook.Subjects)),
		ExternalURLs: map[string]string{"openlibrary": olBook.URL},
		Source:       bookmeta.ProviderOpenLibrary,
	}

	if len(olBook.Identifiers.ISBN10) > 0 {
		rec.ISBN10 = bookmeta.NormalizeISBN(olBook.Identifiers.ISBN10[0])
	}
	if len(olBook.Identifiers.ISBN13) > 0 {
		rec.ISBN13 = bookmeta.NormalizeISBN(olBook.Identifiers.ISBN13[0])
	}
	if rec.ISBN10 == "" && rec.ISBN13 == "" {
		if bookmeta.IsValidISBN13(isbn) {
			rec.ISBN13 = isbn
		} else {
			rec.ISBN10 = isbn
		}
	}
	if rec.ISBN10 == "" {
		rec.ISBN10 = bookmeta.ISBN13To10(rec.ISBN13)
	}
	if rec.ISBN13 == "" {
		rec.ISBN13 = bookmeta.ISBN10To13(rec.ISBN10)
	}

	for _, a := range olBook.Authors {
		if a.Name != "" {
			rec.Authors = append(rec.Authors, a.Name)
		}
	}
	if len(olBook.Publishers) > 0 {
		rec.Publisher = olBook.Publishers[0].Name
	}
	if olBook.NumberOfPages > 0 {
		rec.PageCount = bookmeta.IntPtr(olBook.NumberOfPages)
	}
	if m := yearRe.FindStringSubmatch(olBook.PublishDate); m != nil {
		rec.PublishedYear = parseYear(m[1])
	}

	bonus := bookmeta.ProviderCoverBonus(bookmeta.ProviderOpenLibrary)
	addCover := func(u string, size bookmeta.SizeClass) {
		if u == "" {
			return
		}
		rec.Covers = append(rec.Covers, bookmeta.CoverCandidate{
			URL:      u,
			Source:   string(bookmeta.ProviderOpenLibrary),
			Size:     size,
			Priority: bookmeta.CoverPriority(size, bonus),
			Type:     bookmeta.CoverFront,
		})
	}
	addCover(olBook.Cover.Large, bookmeta.SizeLarge)
	addCover(olBook.Cover.Medium, bookmeta.SizeMedium)
	addCover(olBook.Cover.Small, bookmeta.SizeSmall)

	return rec
}

// docToCandidate normalizes one search result document.
func (c *Client) docToCandidate(doc searchDoc) bookmeta.CandidateRecord {
	rec := bookmeta.CandidateRecord{
		Title:    doc.Title,
		Subtitle: doc.Subtitle,
		Authors:  doc.AuthorName,
		Genres:   bookmeta.NormalizeGenres(doc.Subject),
		Source:   bookmeta.ProviderOpenLibrary,
	}
	if doc.Key != "" {
		rec.ExternalURLs = map[string]string{"openlibrary": c.baseURL + doc.Key}
	}

	for _, isbn := range doc.ISBN {
		isbn = bookmeta.NormalizeISBN(isbn)
		if rec.ISBN13 == "" && bookmeta.IsValidISBN13(isbn) {
			rec.ISBN13 = isbn
		}
		if rec.ISBN10 == "" && bookmeta.IsValidISBN10(isbn) {
			rec.ISBN10 = isbn
		}
		if rec.ISBN10 != "" && rec.ISBN13 != "" {
			break
		}
	}

	if len(doc.Publisher) > 0 {
		rec.Publisher = doc.Publisher[0]
	}
	if doc.FirstPublishYear > 0 {
		rec.PublishedYear = bookmeta.IntPtr(doc.FirstPublishYear)
	}
	if doc.NumberOfPagesMedian > 0 {
		rec.PageCount = bookmeta.IntPtr(doc.NumberOfPagesMedian)
	}
	if doc.RatingsAverage > 0 {
		rec.Rating = bookmeta.FloatPtr(doc.RatingsAverage)
	}
	if len(doc.Language) > 0 {
		rec.Language = iso639_1(doc.Language[0])
	}

	if info := bookmeta.ExtractSeriesFromTitle(doc.Title); info != nil {
		rec.Series = info.Series
		rec.SeriesNumber = bookmeta.IntPtr(info.Number)
	}

	if doc.CoverID > 0 {
		bonus := bookmeta.ProviderCoverBonus(bookmeta.ProviderOpenLibrary)
		for _, s := range []struct {
			suffix string
			size   bookmeta.SizeClass
		}{{"L", bookmeta.SizeLarge}, {"M", bookmeta.SizeMedium}} {
			rec.Covers = append(rec.Covers, bookmeta.CoverCandidate{
				URL:      fmt.Sprintf("%s/b/id/%d-%s.jpg", c.coversBaseURL, doc.CoverID, s.suffix),
				Source:   string(bookmeta.ProviderOpenLibrary),
				Size:     s.size,
				Priority: bookmeta.CoverPriority(s.size, bonus),
				Type:     bookmeta.CoverFront,
			})
		}
	}

	return rec
}

var yearRe = regexp.MustCompile(`\b(\d{4})\b`)

func parseYear(s string) *int {
	year, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return bookmeta.IntPtr(year)
}

// extractDescription handles the two shapes the description field takes.
func extractDescription(desc any) string {
	switch v := desc.(type) {
	case string:
		return v
	case map[string]any:
		if val, ok := v["value"].(string); ok {
			return val
		}
	}
	return ""
}

// extractStrings converts []any to []string, handling bare strings and
// {"name": ...} objects.
func extractStrings(items []any) []string {
	if len(items) == 0 {
		return nil
	}
	result := make([]string, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case string:
			result = append(result, v)
		case map[string]any:
			if name, ok := v["name"].(string); ok {
				result = append(result, name)
			}
		}
	}
	return result
}

// iso639_1 maps the MARC-style three-letter codes OpenLibrary reports to
// two-letter codes. Unknown codes pass through unchanged.
var iso639Map = map[string]string{
	"eng": "en", "fre": "fr", "ger": "de", "spa": "es", "ita": "it",
	"por": "pt", "dut": "nl", "rus": "ru", "jpn": "ja", "chi": "zh",
	"fin": "fi", "swe": "sv", "nor": "no", "dan": "da", "pol": "pl",
}

func iso639_1(code string) string {
	if mapped, ok := iso639Map[strings.ToLower(code)]; ok {
		return mapped
	}
	return code
}

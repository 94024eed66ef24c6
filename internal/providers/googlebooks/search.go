package googlebooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/tkarvine/bibliofile/internal/bookmeta"
	"github.com/tkarvine/bibliofile/internal/cache"
)

const cacheTable = "googlebooks_cache"

// cachedSearch wraps search results for the negative-caching policy.
type cachedSearch struct {
	Records  []bookmeta.CandidateRecord `json:"records"`
	NotFound bool                       `json:"not_found"`
}

// SearchByISBN looks up a volume by ISBN. Transient API failures yield an
// empty result, never an error; a malformed ISBN is a caller bug and is
// rejected before any network call.
func (c *Client) SearchByISBN(ctx context.Context, isbn string) ([]bookmeta.CandidateRecord, error) {
	isbn = bookmeta.NormalizeISBN(isbn)
	if !bookmeta.IsValidISBN10(isbn) && !bookmeta.IsValidISBN13(isbn) {
		return nil, fmt.Errorf("%w: %q", bookmeta.ErrInvalidISBN, isbn)
	}
	return c.search(ctx, "isbn:"+isbn, 1, "isbn:"+isbn)
}

// SearchByText runs a free-text volume search.
func (c *Client) SearchByText(ctx context.Context, query string, limit int) ([]bookmeta.CandidateRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, bookmeta.ErrEmptyQuery
	}
	if limit <= 0 {
		limit = 5
	}
	return c.search(ctx, query, limit, fmt.Sprintf("q:%s:%d", query, limit))
}

// Ping checks the API with a lookup that always has results.
func (c *Client) Ping(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/volumes?q=isbn:0140447938&maxResults=1", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating ping request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("google books ping failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("google books returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) search(ctx context.Context, query string, limit int, cacheKey string) ([]bookmeta.CandidateRecord, error) {
	fetch := func() (*cachedSearch, error) {
		records, err := c.fetchFromAPI(ctx, query, limit)
		if err != nil {
			// Transient provider failure: absorbed here so one failing
			// provider never blocks the others. Not cached.
			slog.Debug("Google Books request failed", "query", query, "error", err)
			return nil, err
		}
		return &cachedSearch{Records: records, NotFound: len(records) == 0}, nil
	}

	var result *cachedSearch
	var err error
	if c.useCache {
		result, _, err = cache.GetOrFetchWithTTL(cacheTable, cacheKey, fetch,
			cache.SelectNegativeCacheTTL(func(r *cachedSearch) bool { return r.NotFound }))
	} else {
		result, err = fetch()
	}
	if err != nil {
		return nil, nil
	}
	return result.Records, nil
}

func (c *Client) fetchFromAPI(ctx context.Context, query string, limit int) ([]bookmeta.CandidateRecord, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	endpoint := fmt.Sprintf("%s/volumes?q=%s&maxResults=%d", c.baseURL, url.QueryEscape(query), limit)
	if c.apiKey != "" {
		endpoint += "&key=" + url.QueryEscape(c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	records := make([]bookmeta.CandidateRecord, 0, len(result.Items))
	for _, item := range result.Items {
		records = append(records, toCandidate(item))
	}
	return records, nil
}

var yearRe = regexp.MustCompile(`\b(\d{4})\b`)

// toCandidate normalizes one volume into the common record shape.
func toCandidate(item volume) bookmeta.CandidateRecord {
	info := item.VolumeInfo

	rec := bookmeta.CandidateRecord{
		Title:        info.Title,
		Subtitle:     info.Subtitle,
		Authors:      info.Authors,
		Publisher:    info.Publisher,
		Language:     info.Language,
		Description:  bookmeta.CleanDescription(info.Description),
		Genres:       bookmeta.NormalizeGenres(info.Categories),
		ExternalURLs: map[string]string{"googlebooks": info.CanonicalVolumeLink},
		Source:       bookmeta.ProviderGoogleBooks,
	}

	for _, id := range info.IndustryIdentifiers {
		switch id.Type {
		case "ISBN_10":
			rec.ISBN10 = bookmeta.NormalizeISBN(id.Identifier)
		case "ISBN_13":
			rec.ISBN13 = bookmeta.NormalizeISBN(id.Identifier)
		}
	}
	if rec.ISBN10 == "" {
		rec.ISBN10 = bookmeta.ISBN13To10(rec.ISBN13)
	}
	if rec.ISBN13 == "" {
		rec.ISBN13 = bookmeta.ISBN10To13(rec.ISBN10)
	}

	if info.PageCount > 0 {
		rec.PageCount = bookmeta.IntPtr(info.PageCount)
	}
	if info.AverageRating > 0 {
		rec.Rating = bookmeta.FloatPtr(info.AverageRating)
	}
	if m := yearRe.FindStringSubmatch(info.PublishedDate); m != nil {
		if year, err := strconv.Atoi(m[1]); err == nil {
			rec.PublishedYear = bookmeta.IntPtr(year)
		}
	}

	rec.Covers = coverCandidates(info.ImageLinks)

	return rec
}

// coverCandidates maps Google's image links onto the shared size scale.
// The zoom=0 rewrite trades the API's pre-shrunk thumbnail for the
// original upload.
func coverCandidates(links imageLinks) []bookmeta.CoverCandidate {
	bonus := bookmeta.ProviderCoverBonus(bookmeta.ProviderGoogleBooks)
	var covers []bookmeta.CoverCandidate
	add := func(rawURL string, size bookmeta.SizeClass) {
		if rawURL == "" {
			return
		}
		rawURL = strings.Replace(rawURL, "zoom=1", "zoom=0", 1)
		rawURL = strings.Replace(rawURL, "http://", "https://", 1)
		covers = append(covers, bookmeta.CoverCandidate{
			URL:      rawURL,
			Source:   string(bookmeta.ProviderGoogleBooks),
			Size:     size,
			Priority: bookmeta.CoverPriority(size, bonus),
			Type:     bookmeta.CoverFront,
		})
	}

	add(links.ExtraLarge, bookmeta.SizeOriginal)
	add(links.Large, bookmeta.SizeLarge)
	add(links.Medium, bookmeta.SizeMedium)
	add(links.Small, bookmeta.SizeSmall)
	add(links.Thumbnail, bookmeta.SizeThumbnail)
	add(links.SmallThumbnail, bookmeta.SizeThumbnail)

	return covers
}

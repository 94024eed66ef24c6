package imslp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/tkarvine/bibliofile/internal/bookmeta"
	"github.com/tkarvine/bibliofile/internal/cache"
)

const cacheTable = "imslp_cache"

// searchResponse matches the MediaWiki action=query&list=search response.
type searchResponse struct {
	Query struct {
		Search []searchHit `json:"search"`
	} `json:"query"`
}

type searchHit struct {
	Title   string `json:"title"`
	PageID  int    `json:"pageid"`
	Snippet string `json:"snippet"`
}

type cachedSearch struct {
	Records  []bookmeta.CandidateRecord `json:"records"`
	NotFound bool                       `json:"not_found"`
}

// SearchByISBN validates the input but always returns an empty result:
// IMSLP catalogs scores by work, not by ISBN.
func (c *Client) SearchByISBN(ctx context.Context, isbn string) ([]bookmeta.CandidateRecord, error) {
	isbn = bookmeta.NormalizeISBN(isbn)
	if !bookmeta.IsValidISBN10(isbn) && !bookmeta.IsValidISBN13(isbn) {
		return nil, fmt.Errorf("%w: %q", bookmeta.ErrInvalidISBN, isbn)
	}
	return nil, nil
}

// SearchByText searches IMSLP page titles. Results are reordered so
// trusted editions (Henle, Urtext) rank first.
func (c *Client) SearchByText(ctx context.Context, query string, limit int) ([]bookmeta.CandidateRecord, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, bookmeta.ErrEmptyQuery
	}
	if limit <= 0 {
		limit = 5
	}
	// Scoping prefixes from other providers' query syntax carry no
	// meaning on MediaWiki.
	query = strings.TrimPrefix(query, "intitle:")
	query = strings.Trim(query, `"`)

	fetch := func() (*cachedSearch, error) {
		records, err := c.fetchFromAPI(ctx, query, limit)
		if err != nil {
			slog.Debug("IMSLP search failed", "query", query, "error", err)
			return nil, err
		}
		return &cachedSearch{Records: records, NotFound: len(records) == 0}, nil
	}

	var result *cachedSearch
	var err error
	if c.useCache {
		result, _, err = cache.GetOrFetchWithTTL(cacheTable, fmt.Sprintf("q:%s:%d", query, limit), fetch,
			cache.SelectNegativeCacheTTL(func(r *cachedSearch) bool { return r.NotFound }))
	} else {
		result, err = fetch()
	}
	if err != nil {
		return nil, nil
	}
	return result.Records, nil
}

// Ping checks the MediaWiki API endpoint.
func (c *Client) Ping(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/api.php?action=query&meta=siteinfo&format=json", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating ping request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("IMSLP ping failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("IMSLP returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) fetchFromAPI(ctx context.Context, query string, limit int) ([]bookmeta.CandidateRecord, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("srlimit", fmt.Sprintf("%d", limit))
	params.Set("format", "json")

	endpoint := fmt.Sprintf("%s/api.php?%s", c.baseURL, params.Encode())
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
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	type scored struct {
		rec   bookmeta.CandidateRecord
		score int
	}
	hits := make([]scored, 0, len(result.Query.Search))
	for i, hit := range result.Query.Search {
		rec := c.toCandidate(hit)
		// API relevance order as the base score, edition boosts on top.
		score := len(result.Query.Search) - i + editionBoost(hit)
		hits = append(hits, scored{rec: rec, score: score})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	records := make([]bookmeta.CandidateRecord, 0, len(hits))
	for _, h := range hits {
		records = append(records, h.rec)
	}
	return records, nil
}

// composerRe matches the "(Surname, Given)" suffix IMSLP page titles use.
var composerRe = regexp.MustCompile(`^(.*?)\s*\(([^()]+)\)$`)

var snippetTagRe = regexp.MustCompile(`<[^>]+>`)

// toCandidate normalizes one wiki search hit. "Nocturnes, Op.9 (Chopin,
// Frédéric)" splits into the work title and the composer in reading
// order.
func (c *Client) toCandidate(hit searchHit) bookmeta.CandidateRecord {
	title := hit.Title
	var authors []string
	if m := composerRe.FindStringSubmatch(hit.Title); m != nil {
		title = strings.TrimSpace(m[1])
		authors = []string{composerName(m[2])}
	}

	pageURL := fmt.Sprintf("%s/wiki/%s", c.baseURL, url.PathEscape(strings.ReplaceAll(hit.Title, " ", "_")))

	return bookmeta.CandidateRecord{
		Title:        title,
		Authors:      authors,
		Genres:       []string{"Sheet music"},
		Description:  bookmeta.CleanDescription(snippetTagRe.ReplaceAllString(hit.Snippet, " ")),
		ExternalURLs: map[string]string{"imslp": pageURL},
		Source:       bookmeta.ProviderIMSLP,
	}
}

// composerName flips "Surname, Given" into "Given Surname".
func composerName(s string) string {
	parts := strings.SplitN(s, ",", 2)
	if len(parts) == 2 {
		return strings.TrimSpace(parts[1]) + " " + strings.TrimSpace(parts[0])
	}
	return strings.TrimSpace(s)
}

// editionBoost rewards trusted score editions.
func editionBoost(hit searchHit) int {
	text := strings.ToLower(hit.Title + " " + hit.Snippet)
	boost := 0
	if strings.Contains(text, "henle") {
		boost += HenleBoost
	}
	if strings.Contains(text, "urtext") {
		boost += UrtextBoost
	}
	return boost
}

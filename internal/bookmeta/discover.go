package bookmeta

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// DiscoverOptions tunes series volume discovery.
type DiscoverOptions struct {
	// Language keeps only results in the given ISO 639-1 language, when
	// the provider reports one. Empty keeps everything.
	Language string
	// MaxVolumes caps the returned set. Zero means no cap.
	MaxVolumes int
}

// discoverSearchLimit is the per-variant result limit. Recall matters more
// than precision here; the acceptance filter discards strays.
const discoverSearchLimit = 20

// queryVariants returns the query strings tried per provider. No single
// phrasing reliably surfaces every volume of a series.
func queryVariants(seriesName string) []string {
	return []string{
		fmt.Sprintf("%q", seriesName),
		seriesName + " tome",
		seriesName,
		"intitle:" + seriesName,
		seriesName + " volume",
	}
}

// DiscoverSeriesVolumes queries every provider with multiple query
// variants, keeps only results that genuinely belong to the series,
// deduplicates them and orders them by volume number (unnumbered volumes
// last, by title).
func (s *Service) DiscoverSeriesVolumes(ctx context.Context, seriesName string, opts DiscoverOptions) ([]CandidateRecord, error) {
	seriesName = strings.TrimSpace(seriesName)
	if seriesName == "" {
		return nil, ErrEmptySeriesName
	}

	// Per-client result slots keep the gathered order deterministic
	// regardless of which provider answers first.
	perClient := make([][]CandidateRecord, len(s.clients))
	var wg sync.WaitGroup

	for i, client := range s.clients {
		wg.Add(1)
		go func(i int, client ProviderClient) {
			defer wg.Done()
			for _, variant := range queryVariants(seriesName) {
				records, err := client.SearchByText(ctx, variant, discoverSearchLimit)
				if err != nil {
					slog.Debug("Series variant search failed", "provider", client.Name(), "query", variant, "error", err)
					continue
				}
				perClient[i] = append(perClient[i], records...)
			}
		}(i, client)
	}
	wg.Wait()

	var results []CandidateRecord
	for _, records := range perClient {
		results = append(results, records...)
	}

	volumes := make([]CandidateRecord, 0, len(results))
	seenVolume := make(map[int]bool)
	seenISBN := make(map[string]bool)

	for _, rec := range results {
		if opts.Language != "" && rec.Language != "" && rec.Language != opts.Language {
			continue
		}
		if !belongsToSeries(seriesName, rec) {
			continue
		}

		number := volumeNumber(rec)

		// Dedup by volume number when known, else by ISBN; results with
		// neither key are kept as-is.
		if number != nil {
			if seenVolume[*number] {
				continue
			}
			seenVolume[*number] = true
			rec.SeriesNumber = number
		} else if key := dedupISBNKey(rec); key != "" {
			if seenISBN[key] {
				continue
			}
			seenISBN[key] = true
		}

		if rec.Series == "" {
			rec.Series = seriesName
		}
		volumes = append(volumes, rec)
	}

	sort.SliceStable(volumes, func(i, j int) bool {
		ni, nj := volumes[i].SeriesNumber, volumes[j].SeriesNumber
		switch {
		case ni != nil && nj != nil:
			return *ni < *nj
		case ni != nil:
			return true
		case nj != nil:
			return false
		default:
			return volumes[i].Title < volumes[j].Title
		}
	})

	if opts.MaxVolumes > 0 && len(volumes) > opts.MaxVolumes {
		volumes = volumes[:opts.MaxVolumes]
	}

	return volumes, nil
}

// belongsToSeries decides whether a search result is genuinely a volume of
// the target series. The result's own series field (or a series parsed
// from its title) must match the target name under normalization. Longer
// names that embed the target at word boundaries still match ("Thorgal
// Chronicles" for "Thorgal"); overlaps that only line up mid-word do not.
func belongsToSeries(target string, rec CandidateRecord) bool {
	candidate := rec.Series
	if candidate == "" {
		if info := ExtractSeriesFromTitle(rec.Title); info != nil {
			candidate = info.Series
		}
	}
	if candidate == "" {
		// no series signal at all: accept only an exact normalized title
		// prefix, the weakest evidence that still avoids strays
		return strings.HasPrefix(NormalizeTitle(rec.Title), NormalizeTitle(target))
	}
	return seriesNamesMatch(target, candidate)
}

// seriesNamesMatch applies the normalized-comparison rules plus the
// word-boundary requirement: exact equality, or every word of the shorter
// name must be a prefix or suffix of a word in the longer name.
func seriesNamesMatch(a, b string) bool {
	na, nb := NormalizeTitle(a), NormalizeTitle(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}

	shorter, longer := na, nb
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if !strings.Contains(longer, shorter) {
		return false
	}

	longWords := strings.Fields(longer)
	for _, sw := range strings.Fields(shorter) {
		matched := false
		for _, lw := range longWords {
			if strings.HasPrefix(lw, sw) || strings.HasSuffix(lw, sw) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// volumeNumber returns the record's explicit series number, falling back
// to pattern extraction from the title.
func volumeNumber(rec CandidateRecord) *int {
	if rec.SeriesNumber != nil {
		return rec.SeriesNumber
	}
	if info := ExtractSeriesFromTitle(rec.Title); info != nil {
		return IntPtr(info.Number)
	}
	return nil
}

func dedupISBNKey(rec CandidateRecord) string {
	if rec.ISBN13 != "" {
		return NormalizeISBN(rec.ISBN13)
	}
	if rec.ISBN10 != "" {
		if isbn13 := ISBN10To13(rec.ISBN10); isbn13 != "" {
			return isbn13
		}
		return NormalizeISBN(rec.ISBN10)
	}
	return ""
}

package bookmeta

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// SeriesInfo is a series name and volume number extracted from a title.
type SeriesInfo struct {
	Series string
	Number int
}

// minSeriesNameLen guards against false positives on short titles that
// happen to end in a number ("1984" must not parse as a series).
const minSeriesNameLen = 4

// seriesPatterns are tried in order; the first match wins. Each pattern
// captures (series, number). The families cover the francophone comic
// conventions ("Tome", "T") as well as "Vol."/"Volume", "#" and a trailing
// bare number.
var seriesPatterns = []*regexp.Regexp{
	// "<Series> (Tome N) - <Subtitle>" / "<Series> (Tome N)"
	regexp.MustCompile(`^(.+?)\s*\(\s*[Tt]ome\s+(\d+)\s*\)(?:\s*[-–—:]\s*.+)?$`),
	// "<Series> - Tome N - <Subtitle>" / "<Series> - Tome N"
	regexp.MustCompile(`^(.+?)\s*[-–—]\s*[Tt]ome\s+(\d+)(?:\s*[-–—:]\s*.+)?$`),
	// "<Series> Tome N"
	regexp.MustCompile(`^(.+?)\s+[Tt]ome\s+(\d+)$`),
	// "<Series> T0N" / "<Series> T N"
	regexp.MustCompile(`^(.+?)\s+[Tt]\s*(\d+)$`),
	// "<Series> Vol. N" / "<Series> Volume N"
	regexp.MustCompile(`^(.+?)\s+[Vv]ol(?:ume)?\.?\s*(\d+)$`),
	// "<Series> #N"
	regexp.MustCompile(`^(.+?)\s+#(\d+)$`),
	// "<Series> N"
	regexp.MustCompile(`^(.+?)\s+(\d+)$`),
}

// ExtractSeriesFromTitle extracts an embedded series name and volume number
// from a free-text title. Returns nil when no pattern family matches or
// when the candidate series name is too short to trust.
func ExtractSeriesFromTitle(title string) *SeriesInfo {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}

	for _, pattern := range seriesPatterns {
		m := pattern.FindStringSubmatch(title)
		if m == nil {
			continue
		}

		series := strings.TrimSpace(m[1])
		if utf8.RuneCountInString(series) < minSeriesNameLen {
			continue
		}

		// strconv drops leading zeros ("Tome 007" -> 7)
		number, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}

		return &SeriesInfo{Series: series, Number: number}
	}

	return nil
}

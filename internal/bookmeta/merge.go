package bookmeta

// Merge combines matched provider candidates into the original record
// using field-level precedence rules, and captures every source's
// contribution in a MetadataSources annotation before the merge touches
// anything.
//
// Precedence per field:
//   - description: longest non-empty value wins; the original is kept
//     unless a provider's is strictly longer
//   - authors: filled only when the original has none
//   - title, publisher, publishedYear, pageCount: filled only when absent,
//     walking providers in the fixed precedence order
//   - genres, tags: union across all sources, case-sensitive dedup
//   - series/seriesNumber and rating: fixed provider-precedence order over
//     the original; the title parser is the last resort for series
//   - covers: union of candidates from every source (selection is the
//     orchestrator's job, it needs HTTP)
//
// Union operations iterate the fixed precedence order, never arrival
// order, so the result is deterministic regardless of network timing.
func Merge(original BookRecord, matches map[Provider]*CandidateRecord, precedence []Provider) (BookRecord, MetadataSources) {
	if len(precedence) == 0 {
		precedence = DefaultPrecedence
	}

	sources := MetadataSources{Original: snapshotOriginal(original)}
	for p, cand := range matches {
		if cand != nil {
			sources.setProvider(p, snapshotCandidate(cand))
		}
	}

	merged := original

	ordered := make([]*CandidateRecord, 0, len(precedence))
	for _, p := range precedence {
		if cand, ok := matches[p]; ok && cand != nil {
			ordered = append(ordered, cand)
		}
	}

	// description: greatest length among original and providers
	for _, cand := range ordered {
		if len(cand.Description) > len(merged.Description) {
			merged.Description = cand.Description
		}
	}

	for _, cand := range ordered {
		if merged.Title == "" && cand.Title != "" {
			merged.Title = cand.Title
		}
		if len(merged.Authors) == 0 && len(cand.Authors) > 0 {
			merged.Authors = append([]string(nil), cand.Authors...)
		}
		if merged.Publisher == "" && cand.Publisher != "" {
			merged.Publisher = cand.Publisher
		}
		if merged.PublishedYear == nil && cand.PublishedYear != nil {
			merged.PublishedYear = cand.PublishedYear
		}
		if merged.PageCount == nil && cand.PageCount != nil {
			merged.PageCount = cand.PageCount
		}
		if merged.Subtitle == "" && cand.Subtitle != "" {
			merged.Subtitle = cand.Subtitle
		}
		if merged.Language == "" && cand.Language != "" {
			merged.Language = cand.Language
		}
	}

	for _, cand := range ordered {
		merged.Genres = unionStrings(merged.Genres, cand.Genres)
	}

	// series: provider precedence over the original, title parser last
	for _, cand := range ordered {
		if cand.Series != "" {
			merged.Series = cand.Series
			if cand.SeriesNumber != nil {
				merged.SeriesNumber = cand.SeriesNumber
			}
			break
		}
	}
	// Parser fallback only applies when some provider actually matched;
	// with zero matches the contract is input-unchanged.
	if merged.Series == "" && len(ordered) > 0 {
		if info := ExtractSeriesFromTitle(original.Title); info != nil {
			merged.Series = info.Series
			merged.SeriesNumber = IntPtr(info.Number)
		}
	}

	for _, cand := range ordered {
		if cand.Rating != nil {
			merged.Rating = cand.Rating
			break
		}
	}

	// covers: union of every source's candidates, deduplicated by URL
	merged.AvailableCovers = unionCovers(original.AvailableCovers, ordered)

	return merged, sources
}

func unionStrings(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, s := range a {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, s := range b {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func unionCovers(existing []CoverCandidate, ordered []*CandidateRecord) []CoverCandidate {
	seen := make(map[string]bool)
	var out []CoverCandidate
	add := func(c CoverCandidate) {
		if c.URL == "" || seen[c.URL] {
			return
		}
		seen[c.URL] = true
		out = append(out, c)
	}
	for _, c := range existing {
		add(c)
	}
	for _, cand := range ordered {
		for _, c := range CollectCoverCandidates(*cand) {
			add(c)
		}
	}
	return out
}

func snapshotOriginal(b BookRecord) *SourceFields {
	return &SourceFields{
		Title:         b.Title,
		Subtitle:      b.Subtitle,
		Description:   b.Description,
		Publisher:     b.Publisher,
		Authors:       append([]string(nil), b.Authors...),
		PublishedYear: b.PublishedYear,
		PageCount:     b.PageCount,
		Rating:        b.Rating,
		Series:        b.Series,
		SeriesNumber:  b.SeriesNumber,
		Genres:        append([]string(nil), b.Genres...),
		CoverURL:      b.CoverURL,
	}
}

func snapshotCandidate(c *CandidateRecord) *SourceFields {
	f := &SourceFields{
		Title:         c.Title,
		Subtitle:      c.Subtitle,
		Description:   c.Description,
		Publisher:     c.Publisher,
		Authors:       append([]string(nil), c.Authors...),
		PublishedYear: c.PublishedYear,
		PageCount:     c.PageCount,
		Rating:        c.Rating,
		Series:        c.Series,
		SeriesNumber:  c.SeriesNumber,
		Genres:        append([]string(nil), c.Genres...),
	}
	if len(c.Covers) > 0 {
		f.CoverURL = c.Covers[0].URL
	}
	return f
}

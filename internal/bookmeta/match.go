package bookmeta

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// DefaultFuzzyThreshold is the minimum Jaro-Winkler similarity for the
// fuzzy fallback tier. High on purpose: a false-positive match corrupts
// data silently, a false negative just skips one provider's contribution.
const DefaultFuzzyThreshold = 0.93

// Reference is the record being enriched, reduced to the fields matching
// needs.
type Reference struct {
	Title   string
	Authors []string
	ISBN10  string
	ISBN13  string
}

// Matcher decides whether a provider candidate is "the same work" as a
// reference record.
type Matcher struct {
	// FuzzyThreshold gates the final similarity tier. Set above 1 to
	// disable fuzzy matching entirely.
	FuzzyThreshold float64
}

// NewMatcher returns a Matcher with the default fuzzy threshold.
func NewMatcher() *Matcher {
	return &Matcher{FuzzyThreshold: DefaultFuzzyThreshold}
}

// FindMatch returns the first candidate that matches the reference, or nil.
//
// Tiers, in precedence order:
//  1. ISBN equality (with 10<->13 cross-derivation)
//  2. normalized-title equality
//  3. word overlap: every reference title word (>2 chars) is a substring
//     of, or contains, some candidate title word
//  4. substring containment of one normalized title in the other
//  5. Jaro-Winkler similarity above the threshold
//
// Within a tier the first candidate in encounter order wins; providers
// return results in relevance order already.
func (m *Matcher) FindMatch(ref Reference, candidates []CandidateRecord) *CandidateRecord {
	if len(candidates) == 0 {
		return nil
	}

	if match := matchByISBN(ref, candidates); match != nil {
		return match
	}

	refNorm := NormalizeTitle(ref.Title)
	if refNorm == "" {
		return nil
	}

	for i := range candidates {
		if NormalizeTitle(candidates[i].Title) == refNorm {
			return &candidates[i]
		}
	}

	refWords := titleWords(ref.Title)
	if len(refWords) > 0 {
		for i := range candidates {
			if wordsOverlap(refWords, titleWords(candidates[i].Title)) {
				return &candidates[i]
			}
		}
	}

	for i := range candidates {
		candNorm := NormalizeTitle(candidates[i].Title)
		if candNorm == "" {
			continue
		}
		if strings.Contains(refNorm, candNorm) || strings.Contains(candNorm, refNorm) {
			return &candidates[i]
		}
	}

	if m.FuzzyThreshold <= 1 {
		jw := metrics.NewJaroWinkler()
		var best *CandidateRecord
		var bestScore float64
		for i := range candidates {
			candNorm := NormalizeTitle(candidates[i].Title)
			if candNorm == "" {
				continue
			}
			score := strutil.Similarity(refNorm, candNorm, jw)
			if score >= m.FuzzyThreshold && score > bestScore {
				bestScore = score
				best = &candidates[i]
			}
		}
		if best != nil {
			return best
		}
	}

	return nil
}

// matchByISBN implements tier 1: any shared ISBN form wins outright.
func matchByISBN(ref Reference, candidates []CandidateRecord) *CandidateRecord {
	refISBNs := isbnVariants(ref.ISBN10, ref.ISBN13)
	if len(refISBNs) == 0 {
		return nil
	}
	refSet := make(map[string]bool, len(refISBNs))
	for _, s := range refISBNs {
		refSet[s] = true
	}

	for i := range candidates {
		for _, s := range isbnVariants(candidates[i].ISBN10, candidates[i].ISBN13) {
			if refSet[s] {
				return &candidates[i]
			}
		}
	}
	return nil
}

// wordsOverlap reports whether every reference word relates to some
// candidate word by substring in either direction. Handles subtitle and
// edition variation ("dune" matches "dune messiah deluxe edition").
func wordsOverlap(refWords, candWords []string) bool {
	if len(candWords) == 0 {
		return false
	}
	for _, rw := range refWords {
		found := false
		for _, cw := range candWords {
			if strings.Contains(cw, rw) || strings.Contains(rw, cw) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

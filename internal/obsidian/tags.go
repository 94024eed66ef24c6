package obsidian

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	tagWhitespaceRe = regexp.MustCompile(`\s+`)
	tagHyphenRunRe  = regexp.MustCompile(`-+`)
)

// NormalizeTag rewrites a tag into Obsidian form: no leading #, whitespace
// collapsed to single hyphens, & spelled out, case preserved. A tag that
// normalizes to nothing returns "".
func NormalizeTag(tag string) string {
	tag = strings.TrimPrefix(strings.TrimSpace(tag), "#")
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}

	tag = strings.ReplaceAll(tag, "&", "and")
	tag = strings.ReplaceAll(tag, "#", "")
	tag = tagWhitespaceRe.ReplaceAllString(tag, "-")
	tag = tagHyphenRunRe.ReplaceAllString(tag, "-")

	return strings.Trim(tag, "-")
}

// NormalizeTags normalizes every tag and returns the sorted, deduplicated
// survivors.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))

	for _, tag := range tags {
		n := NormalizeTag(tag)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}

	sort.Strings(out)
	return out
}

// MergeTags normalizes and unions two tag slices into one sorted result.
func MergeTags(existing, extra []string) []string {
	return NormalizeTags(append(append([]string{}, existing...), extra...))
}

// TagSet accumulates tags with normalization and deduplication applied
// on insert.
type TagSet struct {
	tags map[string]bool
}

// NewTagSet returns an empty TagSet.
func NewTagSet() *TagSet {
	return &TagSet{tags: make(map[string]bool)}
}

// Add inserts a tag; empty-after-normalization tags are dropped.
func (ts *TagSet) Add(tag string) {
	if n := NormalizeTag(tag); n != "" {
		ts.tags[n] = true
	}
}

// AddIf inserts the tag only when cond holds.
func (ts *TagSet) AddIf(cond bool, tag string) {
	if cond {
		ts.Add(tag)
	}
}

// AddFormat inserts a Sprintf-built tag.
func (ts *TagSet) AddFormat(format string, args ...interface{}) {
	ts.Add(fmt.Sprintf(format, args...))
}

// GetSorted returns the accumulated tags in sorted order.
func (ts *TagSet) GetSorted() []string {
	out := make([]string, 0, len(ts.tags))
	for tag := range ts.tags {
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// TagsFromAny coerces a decoded YAML value into a string slice. YAML
// gives []interface{} for sequences; callers may also hand in []string.
func TagsFromAny(val any) []string {
	switch v := val.(type) {
	case []string:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}

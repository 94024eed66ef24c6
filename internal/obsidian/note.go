package obsidian

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Note is a markdown document split into YAML frontmatter and body.
type Note struct {
	Frontmatter *Frontmatter
	Body        string
}

// Frontmatter holds the YAML frontmatter fields of a note. Keys stay
// sorted so serialization is deterministic.
type Frontmatter struct {
	fields map[string]any
	keys   []string
}

// NewFrontmatter returns an empty Frontmatter.
func NewFrontmatter() *Frontmatter {
	return &Frontmatter{fields: map[string]any{}}
}

// ParseMarkdown splits a document into frontmatter and body. A document
// without a frontmatter block, or with an unclosed one, parses to an
// empty Frontmatter with the whole content as body.
func ParseMarkdown(content []byte) (*Note, error) {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")

	bodyOnly := &Note{Frontmatter: NewFrontmatter(), Body: text}
	if !strings.HasPrefix(text, "---\n") {
		return bodyOnly, nil
	}

	raw, body, closed := strings.Cut(text[3:], "\n---\n")
	if !closed {
		return bodyOnly, nil
	}
	body = strings.TrimPrefix(body, "\n")

	var fields map[string]any
	if err := yaml.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("failed to parse frontmatter: %w", err)
	}

	fm := NewFrontmatter()
	for key, value := range fields {
		fm.Set(key, value)
	}

	return &Note{Frontmatter: fm, Body: body}, nil
}

// Build serializes the note back to markdown. An empty Frontmatter emits
// no delimiter block at all.
func (n *Note) Build() ([]byte, error) {
	var buf bytes.Buffer

	if len(n.Frontmatter.keys) > 0 {
		encoded, err := yaml.Marshal(n.Frontmatter)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal frontmatter: %w", err)
		}
		buf.WriteString("---\n")
		buf.Write(encoded)
		buf.WriteString("---\n")
	}

	buf.WriteString(n.Body)
	return buf.Bytes(), nil
}

// Get returns the raw value for key.
func (f *Frontmatter) Get(key string) (any, bool) {
	val, ok := f.fields[key]
	return val, ok
}

// Set stores a value, keeping the key order sorted.
func (f *Frontmatter) Set(key string, value any) {
	if _, exists := f.fields[key]; !exists {
		f.keys = append(f.keys, key)
		sort.Strings(f.keys)
	}
	f.fields[key] = value
}

// Delete removes a key and its value.
func (f *Frontmatter) Delete(key string) {
	delete(f.fields, key)
	for i, k := range f.keys {
		if k == key {
			f.keys = append(f.keys[:i], f.keys[i+1:]...)
			return
		}
	}
}

func fieldAs[T any](f *Frontmatter, key string) T {
	var zero T
	val, ok := f.fields[key]
	if !ok {
		return zero
	}
	typed, ok := val.(T)
	if !ok {
		return zero
	}
	return typed
}

// GetString returns the string value for key, or "" when absent or not a string.
func (f *Frontmatter) GetString(key string) string {
	return fieldAs[string](f, key)
}

// GetInt returns the int value for key, or 0 when absent or not an int.
func (f *Frontmatter) GetInt(key string) int {
	return fieldAs[int](f, key)
}

// GetBool returns the bool value for key, or false when absent or not a bool.
func (f *Frontmatter) GetBool(key string) bool {
	return fieldAs[bool](f, key)
}

// GetStringArray returns the string slice for key, tolerating the
// []interface{} shape YAML decoding produces.
func (f *Frontmatter) GetStringArray(key string) []string {
	val, ok := f.fields[key]
	if !ok {
		return []string{}
	}
	return TagsFromAny(val)
}

// Keys returns the sorted frontmatter keys.
func (f *Frontmatter) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// MarshalYAML emits the fields in sorted key order. The tags field is
// always written flow-style so notes diff cleanly.
func (f *Frontmatter) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{
		Kind:    yaml.MappingNode,
		Content: make([]*yaml.Node, 0, len(f.keys)*2),
	}

	for _, key := range f.keys {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: key}

		var valNode *yaml.Node
		if key == "tags" {
			valNode = flowTagsNode(TagsFromAny(f.fields[key]))
		} else {
			valNode = &yaml.Node{}
			if err := valNode.Encode(f.fields[key]); err != nil {
				return nil, err
			}
		}

		node.Content = append(node.Content, keyNode, valNode)
	}

	return node, nil
}

func flowTagsNode(tags []string) *yaml.Node {
	node := &yaml.Node{
		Kind:  yaml.SequenceNode,
		Style: yaml.FlowStyle,
	}
	for _, tag := range tags {
		node.Content = append(node.Content, &yaml.Node{
			Kind:  yaml.ScalarNode,
			Value: tag,
		})
	}
	return node
}

package rules

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/certmap/internal/model"
	"gopkg.in/yaml.v3"
)

// Category is the static rule entry for a two-level category prefix (e.g. "A.1")
type Category struct {
	Name      string           `yaml:"name,omitempty"`
	Keywords  []string         `yaml:"keywords"`
	Tags      []string         `yaml:"group_tags"`
	Audiences []model.Audience `yaml:"audience"`
}

// Table holds the category rules and the named-category synonyms
type Table struct {
	Categories map[string]Category `yaml:"categories"`
	Synonyms   map[string]string   `yaml:"named_categories"` // e.g. "access" -> "A.5"
}

// Lookup returns the rule entry for a category prefix (zero value if absent)
func (t *Table) Lookup(prefix string) Category {
	if t == nil || prefix == "" {
		return Category{}
	}
	return t.Categories[prefix]
}

// ResolveNamedCategory translates a coarse label into a category prefix
func (t *Table) ResolveNamedCategory(name string) (string, bool) {
	if t == nil {
		return "", false
	}
	prefix, ok := t.Synonyms[strings.ToLower(strings.TrimSpace(name))]
	return prefix, ok && prefix != ""
}

// Prefixes returns the configured category prefixes in sorted order
func (t *Table) Prefixes() []string {
	prefixes := make([]string, 0, len(t.Categories))
	for p := range t.Categories {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	return prefixes
}

// Merge overlays other onto a copy of t; entries in other replace entries in t
func (t *Table) Merge(other *Table) *Table {
	merged := &Table{
		Categories: make(map[string]Category, len(t.Categories)),
		Synonyms:   make(map[string]string, len(t.Synonyms)),
	}
	for k, v := range t.Categories {
		merged.Categories[k] = v
	}
	for k, v := range t.Synonyms {
		merged.Synonyms[k] = v
	}
	if other == nil {
		return merged
	}
	for k, v := range other.Categories {
		merged.Categories[k] = v
	}
	for k, v := range other.Synonyms {
		merged.Synonyms[strings.ToLower(k)] = v
	}
	return merged
}

// CategoryPrefix derives the two-level category prefix from a provision id.
// Ids with fewer than two dot-delimited segments have no prefix.
func CategoryPrefix(provisionID string) string {
	parts := strings.Split(provisionID, ".")
	if len(parts) < 2 {
		return ""
	}
	return parts[0] + "." + parts[1]
}

// LoadFile reads a YAML rule table
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule table: %w", err)
	}

	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse rule table %s: %w", path, err)
	}
	if err := t.normalize(); err != nil {
		return nil, fmt.Errorf("invalid rule table %s: %w", path, err)
	}

	synonyms := make(map[string]string, len(t.Synonyms))
	for k, v := range t.Synonyms {
		synonyms[strings.ToLower(k)] = v
	}
	t.Synonyms = synonyms
	if t.Categories == nil {
		t.Categories = map[string]Category{}
	}
	return &t, nil
}

// normalize checks prefixes and canonicalizes audience labels
func (t *Table) normalize() error {
	for prefix, cat := range t.Categories {
		if CategoryPrefix(prefix) != prefix {
			return fmt.Errorf("category %q is not a two-level prefix", prefix)
		}
		for i, a := range cat.Audiences {
			parsed, ok := model.ParseAudience(string(a))
			if !ok {
				return fmt.Errorf("category %s: unknown audience %q", prefix, a)
			}
			cat.Audiences[i] = parsed
		}
	}
	for name, prefix := range t.Synonyms {
		if CategoryPrefix(prefix) != prefix {
			return fmt.Errorf("named category %q maps to invalid prefix %q", name, prefix)
		}
	}
	return nil
}

package index

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/ppiankov/certmap/internal/extract"
	"github.com/ppiankov/certmap/internal/model"
	"github.com/ppiankov/certmap/internal/rules"
)

// Entry is the indexed form of one provision
type Entry struct {
	Provision model.Provision
	Prefix    string   // Two-level category prefix, empty when the id is malformed
	Static    []string // Keywords contributed by the rule table
}

// Index is the immutable keyword index over a provision corpus.
// It is read-only after Build and shared between goroutines without locking.
type Index struct {
	entries     []Entry
	byID        map[string]int
	byPrefix    map[string][]int
	table       *rules.Table
	fingerprint string
}

// Build indexes provisions against the rule table. A nil table uses the built-in rules.
// Later duplicates of a provision id are ignored.
func Build(provisions []model.Provision, table *rules.Table) *Index {
	if table == nil {
		table = rules.DefaultTable()
	}
	extractor := extract.NewKeywordExtractor()

	idx := &Index{
		entries:  make([]Entry, 0, len(provisions)),
		byID:     make(map[string]int, len(provisions)),
		byPrefix: make(map[string][]int),
		table:    table,
	}

	for _, p := range provisions {
		if _, dup := idx.byID[p.ID]; dup {
			continue
		}

		prefix := rules.CategoryPrefix(p.ID)
		category := table.Lookup(prefix)

		static := extract.MergeKeywords(category.Keywords)
		indexed := model.Provision{
			ID:        p.ID,
			Text:      p.Text,
			Kind:      p.Kind,
			Keywords:  extract.MergeKeywords(static, p.Keywords, extractor.Extract(p.Text)),
			Tags:      mergeTags(p.Tags, category.Tags),
			Audiences: mergeAudiences(p.Audiences, category.Audiences),
		}
		if indexed.Kind == "" {
			indexed.Kind = model.KindRecommended
		}

		pos := len(idx.entries)
		idx.entries = append(idx.entries, Entry{Provision: indexed, Prefix: prefix, Static: static})
		idx.byID[p.ID] = pos
		if prefix != "" {
			idx.byPrefix[prefix] = append(idx.byPrefix[prefix], pos)
		}
	}

	idx.fingerprint = fingerprint(idx.entries, table)
	return idx
}

// Len returns the number of indexed provisions
func (i *Index) Len() int {
	return len(i.entries)
}

// Entries returns the indexed provisions in corpus order.
// Callers must not modify the returned slice.
func (i *Index) Entries() []Entry {
	return i.entries
}

// Provision returns the indexed provision with the given id
func (i *Index) Provision(id string) (model.Provision, bool) {
	pos, ok := i.byID[id]
	if !ok {
		return model.Provision{}, false
	}
	return i.entries[pos].Provision, true
}

// Position returns the corpus position of a provision id
func (i *Index) Position(id string) (int, bool) {
	pos, ok := i.byID[id]
	return pos, ok
}

// InCategory returns the corpus positions of provisions under a category prefix
func (i *Index) InCategory(prefix string) []int {
	return i.byPrefix[prefix]
}

// Rules returns the rule table the index was built with
func (i *Index) Rules() *rules.Table {
	return i.table
}

// Kinds returns the requirement kind of every indexed provision
func (i *Index) Kinds() map[string]model.RequirementKind {
	kinds := make(map[string]model.RequirementKind, len(i.entries))
	for _, e := range i.entries {
		kinds[e.Provision.ID] = e.Provision.Kind
	}
	return kinds
}

// Fingerprint identifies the indexed corpus and rules; equal fingerprints map identically
func (i *Index) Fingerprint() string {
	return i.fingerprint
}

func fingerprint(entries []Entry, table *rules.Table) string {
	h := sha256.New()
	for _, e := range entries {
		p := e.Provision
		h.Write([]byte(p.ID))
		h.Write([]byte{0})
		h.Write([]byte(p.Text))
		h.Write([]byte{0})
		h.Write([]byte(p.Kind))
		h.Write([]byte{0})
		h.Write([]byte(strings.Join(p.Keywords, ",")))
		h.Write([]byte{0})
		h.Write([]byte(strings.Join(p.Tags, ",")))
		h.Write([]byte{0})
		for _, a := range p.Audiences {
			h.Write([]byte(a))
			h.Write([]byte{','})
		}
		h.Write([]byte{'\n'})
	}

	names := make([]string, 0, len(table.Synonyms))
	for name := range table.Synonyms {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		h.Write([]byte(name + "=" + table.Synonyms[name] + "\n"))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func mergeTags(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, tag := range list {
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			out = append(out, tag)
		}
	}
	return out
}

func mergeAudiences(lists ...[]model.Audience) []model.Audience {
	seen := make(map[model.Audience]bool)
	var out []model.Audience
	for _, list := range lists {
		for _, a := range list {
			if a == "" || seen[a] {
				continue
			}
			seen[a] = true
			out = append(out, a)
		}
	}
	return out
}

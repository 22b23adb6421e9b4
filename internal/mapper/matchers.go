package mapper

import (
	"fmt"
	"strings"

	"github.com/ppiankov/certmap/internal/index"
	"github.com/ppiankov/certmap/internal/model"
)

// Matcher names, in the order the mapper runs them
const (
	MatcherKeyword       = "keyword"
	MatcherTag           = "tag"
	MatcherAudience      = "audience"
	MatcherNamedCategory = "named_category"
)

// Candidate is one matcher's proposal for a provision
type Candidate struct {
	Confidence model.Confidence
	Rationale  string
	Signals    []string
	Matcher    string
}

// Matcher proposes provision candidates for a question
type Matcher interface {
	Name() string
	// Applies reports whether the question carries the attribute this matcher needs
	Applies(q model.Question) bool
	// Match returns candidates keyed by provision id
	Match(q model.Question) map[string]Candidate
}

// KeywordMatcher counts provision keywords that occur in the question text
type KeywordMatcher struct {
	idx *index.Index
}

// NewKeywordMatcher creates a keyword-overlap matcher over idx
func NewKeywordMatcher(idx *index.Index) *KeywordMatcher {
	return &KeywordMatcher{idx: idx}
}

func (m *KeywordMatcher) Name() string { return MatcherKeyword }

func (m *KeywordMatcher) Applies(q model.Question) bool {
	return strings.TrimSpace(q.Text) != ""
}

func (m *KeywordMatcher) Match(q model.Question) map[string]Candidate {
	text := strings.ToLower(q.Text)
	candidates := make(map[string]Candidate)

	for _, e := range m.idx.Entries() {
		var matched []string
		for _, kw := range e.Provision.Keywords {
			if strings.Contains(text, kw) {
				matched = append(matched, kw)
			}
		}
		if len(matched) == 0 {
			continue
		}

		candidates[e.Provision.ID] = Candidate{
			Confidence: keywordConfidence(len(matched)),
			Rationale:  fmt.Sprintf("Matched %d keywords: %s", len(matched), strings.Join(matched, ", ")),
			Signals:    matched,
			Matcher:    MatcherKeyword,
		}
	}
	return candidates
}

// keywordConfidence maps a match count to a confidence level (1 low, 2 medium, 3+ high)
func keywordConfidence(matches int) model.Confidence {
	switch {
	case matches >= 3:
		return model.ConfidenceHigh
	case matches == 2:
		return model.ConfidenceMedium
	default:
		return model.ConfidenceLow
	}
}

// TagMatcher proposes every provision carrying the question's category tag
type TagMatcher struct {
	idx *index.Index
}

// NewTagMatcher creates a category-tag matcher over idx
func NewTagMatcher(idx *index.Index) *TagMatcher {
	return &TagMatcher{idx: idx}
}

func (m *TagMatcher) Name() string { return MatcherTag }

func (m *TagMatcher) Applies(q model.Question) bool {
	return strings.TrimSpace(q.Tag) != ""
}

func (m *TagMatcher) Match(q model.Question) map[string]Candidate {
	tag := strings.TrimSpace(q.Tag)
	candidates := make(map[string]Candidate)

	for _, e := range m.idx.Entries() {
		for _, t := range e.Provision.Tags {
			if !strings.EqualFold(t, tag) {
				continue
			}
			candidates[e.Provision.ID] = Candidate{
				Confidence: model.ConfidenceHigh,
				Rationale:  fmt.Sprintf("Matched category tag: %s", t),
				Signals:    []string{t},
				Matcher:    MatcherTag,
			}
			break
		}
	}
	return candidates
}

// AudienceMatcher proposes every provision aimed at the question's audience
type AudienceMatcher struct {
	idx *index.Index
}

// NewAudienceMatcher creates an audience matcher over idx
func NewAudienceMatcher(idx *index.Index) *AudienceMatcher {
	return &AudienceMatcher{idx: idx}
}

func (m *AudienceMatcher) Name() string { return MatcherAudience }

func (m *AudienceMatcher) Applies(q model.Question) bool {
	return strings.TrimSpace(string(q.Audience)) != ""
}

func (m *AudienceMatcher) Match(q model.Question) map[string]Candidate {
	candidates := make(map[string]Candidate)

	audience, ok := model.ParseAudience(string(q.Audience))
	if !ok {
		return candidates
	}

	for _, e := range m.idx.Entries() {
		for _, a := range e.Provision.Audiences {
			if a != audience {
				continue
			}
			candidates[e.Provision.ID] = Candidate{
				Confidence: model.ConfidenceMedium,
				Rationale:  fmt.Sprintf("Matched audience: %s", audience),
				Signals:    []string{"audience:" + string(audience)},
				Matcher:    MatcherAudience,
			}
			break
		}
	}
	return candidates
}

// NamedCategoryMatcher resolves a coarse category hint to a prefix and proposes
// every provision under it
type NamedCategoryMatcher struct {
	idx *index.Index
}

// NewNamedCategoryMatcher creates a named-category matcher over idx
func NewNamedCategoryMatcher(idx *index.Index) *NamedCategoryMatcher {
	return &NamedCategoryMatcher{idx: idx}
}

func (m *NamedCategoryMatcher) Name() string { return MatcherNamedCategory }

func (m *NamedCategoryMatcher) Applies(q model.Question) bool {
	return strings.TrimSpace(q.NamedCategory) != ""
}

func (m *NamedCategoryMatcher) Match(q model.Question) map[string]Candidate {
	candidates := make(map[string]Candidate)

	name := strings.TrimSpace(q.NamedCategory)
	prefix, ok := m.idx.Rules().ResolveNamedCategory(name)
	if !ok {
		return candidates
	}

	entries := m.idx.Entries()
	for _, pos := range m.idx.InCategory(prefix) {
		p := entries[pos].Provision
		candidates[p.ID] = Candidate{
			Confidence: model.ConfidenceHigh,
			Rationale:  fmt.Sprintf("Matched named category: %s", name),
			Signals:    []string{name},
			Matcher:    MatcherNamedCategory,
		}
	}
	return candidates
}

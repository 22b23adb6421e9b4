package mapper

import (
	"strings"

	"github.com/ppiankov/certmap/internal/index"
	"github.com/ppiankov/certmap/internal/model"
)

const (
	noteStrong   = "Strong signal match found"
	noteModerate = "Moderate signal match found"
	noteWeak     = "Weak signal match found"
	noteNone     = "no clear mapping found"
)

// Mapper maps questions against a shared, read-only index.
// A Mapper holds no mutable state and is safe for concurrent use.
type Mapper struct {
	idx      *index.Index
	matchers []Matcher
}

// New creates a mapper running the four standard matchers in fixed order
func New(idx *index.Index) *Mapper {
	return &Mapper{
		idx: idx,
		matchers: []Matcher{
			NewKeywordMatcher(idx),
			NewTagMatcher(idx),
			NewAudienceMatcher(idx),
			NewNamedCategoryMatcher(idx),
		},
	}
}

// Index returns the index the mapper reads from
func (m *Mapper) Index() *index.Index {
	return m.idx
}

// MapQuestion maps a single question. It never fails: a question nothing
// matches yields an empty, low-confidence result.
func (m *Mapper) MapQuestion(q model.Question) model.QuestionMappingResult {
	merged := make(map[string]Candidate)
	for _, matcher := range m.matchers {
		if !matcher.Applies(q) {
			continue
		}
		for id, c := range matcher.Match(q) {
			// Ties keep the earlier matcher's proposal
			if cur, ok := merged[id]; ok && c.Confidence.Rank() <= cur.Confidence.Rank() {
				continue
			}
			merged[id] = c
		}
	}

	mappings := make([]model.ProvisionMapping, 0, len(merged))
	for _, e := range m.idx.Entries() {
		c, ok := merged[e.Provision.ID]
		if !ok {
			continue
		}
		mappings = append(mappings, model.ProvisionMapping{
			ProvisionID:   e.Provision.ID,
			ProvisionText: e.Provision.Text,
			Kind:          e.Provision.Kind,
			Confidence:    c.Confidence,
			Rationale:     c.Rationale,
			Signals:       c.Signals,
			Matcher:       c.Matcher,
		})
	}

	confidence, notes := aggregate(mappings)
	return model.QuestionMappingResult{
		QuestionID: q.ID,
		Mappings:   mappings,
		Confidence: confidence,
		Notes:      notes,
	}
}

// MapQuestions maps a batch in input order. Questions with neither an id
// nor text are skipped.
func (m *Mapper) MapQuestions(questions []model.Question) []model.QuestionMappingResult {
	results := make([]model.QuestionMappingResult, 0, len(questions))
	for _, q := range questions {
		if !Mappable(q) {
			continue
		}
		results = append(results, m.MapQuestion(q))
	}
	return results
}

// Mappable reports whether a batch should process q
func Mappable(q model.Question) bool {
	return strings.TrimSpace(q.ID) != "" || strings.TrimSpace(q.Text) != ""
}

// aggregate takes the strongest confidence present; weak signals never dilute a strong one
func aggregate(mappings []model.ProvisionMapping) (model.Confidence, string) {
	if len(mappings) == 0 {
		return model.ConfidenceLow, noteNone
	}

	best := model.ConfidenceLow
	for _, pm := range mappings {
		if pm.Confidence.Rank() > best.Rank() {
			best = pm.Confidence
		}
	}

	switch best {
	case model.ConfidenceHigh:
		return best, noteStrong
	case model.ConfidenceMedium:
		return best, noteModerate
	default:
		return best, noteWeak
	}
}

package corpus

import (
	"fmt"
	"strings"

	"github.com/ppiankov/certmap/internal/model"
)

type provisionRecord struct {
	ID              string   `json:"id" yaml:"id"`
	Text            string   `json:"text" yaml:"text"`
	Kind            string   `json:"kind" yaml:"kind"`
	RequirementType string   `json:"requirement_type" yaml:"requirement_type"` // shall / should
	Keywords        []string `json:"keywords" yaml:"keywords"`
	Tags            []string `json:"tags" yaml:"tags"`
	Audiences       []string `json:"audiences" yaml:"audiences"`
}

func (r provisionRecord) toModel(pos int) (model.Provision, error) {
	id := strings.TrimSpace(r.ID)
	if id == "" {
		return model.Provision{}, fmt.Errorf("provision %d: missing id", pos+1)
	}

	kind := r.Kind
	if kind == "" {
		kind = r.RequirementType
	}

	audiences, err := parseAudiences(r.Audiences)
	if err != nil {
		return model.Provision{}, fmt.Errorf("provision %s: %w", id, err)
	}

	return model.Provision{
		ID:        id,
		Text:      strings.TrimSpace(r.Text),
		Kind:      model.ParseRequirementKind(kind),
		Keywords:  trimAll(r.Keywords),
		Tags:      trimAll(r.Tags),
		Audiences: audiences,
	}, nil
}

type questionRecord struct {
	ID            string `json:"id" yaml:"id"`
	Question      string `json:"question" yaml:"question"`
	Text          string `json:"text" yaml:"text"`
	Tag           string `json:"group_tag" yaml:"group_tag"`
	Audience      string `json:"audience" yaml:"audience"`
	NamedCategory string `json:"named_category" yaml:"named_category"`
}

func (r questionRecord) toModel() model.Question {
	text := r.Question
	if text == "" {
		text = r.Text
	}

	// Unknown audiences are kept verbatim; the mapper ignores them
	audience := model.Audience(strings.TrimSpace(r.Audience))
	if parsed, ok := model.ParseAudience(r.Audience); ok {
		audience = parsed
	}

	return model.Question{
		ID:            strings.TrimSpace(r.ID),
		Text:          strings.TrimSpace(text),
		Tag:           strings.TrimSpace(r.Tag),
		Audience:      audience,
		NamedCategory: strings.TrimSpace(r.NamedCategory),
	}
}

type answerRecord struct {
	questionRecord `yaml:",inline"`
	Answer         string   `json:"answer" yaml:"answer"`
	EvidenceFiles  []string `json:"evidence_files" yaml:"evidence_files"`
	AnsweredBy     string   `json:"answered_by" yaml:"answered_by"`
	Confidence     string   `json:"confidence_level" yaml:"confidence_level"`
}

func (r answerRecord) toModel(pos int) (model.Answer, error) {
	q := r.questionRecord.toModel()
	if q.ID == "" && q.Text == "" {
		return model.Answer{}, fmt.Errorf("answer %d: missing question", pos+1)
	}
	return model.Answer{
		Question:         q,
		Answer:           strings.TrimSpace(r.Answer),
		EvidenceFiles:    trimAll(r.EvidenceFiles),
		AnsweredBy:       strings.TrimSpace(r.AnsweredBy),
		AnswerConfidence: strings.TrimSpace(r.Confidence),
	}, nil
}

type judgmentRecord struct {
	ProvisionID     string   `json:"provision_id" yaml:"provision_id"`
	QuestionID      string   `json:"question_id" yaml:"question_id"`
	Kind            string   `json:"requirement_kind" yaml:"requirement_kind"`
	Status          string   `json:"compliance_status" yaml:"compliance_status"`
	Confidence      string   `json:"confidence_level" yaml:"confidence_level"`
	Score           *int     `json:"score" yaml:"score"`
	Rationale       string   `json:"rationale" yaml:"rationale"`
	Recommendations []string `json:"recommendations" yaml:"recommendations"`
	CriticalIssues  []string `json:"critical_issues" yaml:"critical_issues"`
	NextSteps       []string `json:"next_steps" yaml:"next_steps"`
}

func (r judgmentRecord) toModel(pos int) (model.ComplianceJudgment, error) {
	id := strings.TrimSpace(r.ProvisionID)
	if id == "" {
		return model.ComplianceJudgment{}, fmt.Errorf("judgment %d: missing provision_id", pos+1)
	}

	status := model.ComplianceStatus(strings.ToUpper(strings.TrimSpace(r.Status)))
	if !status.Valid() {
		return model.ComplianceJudgment{}, fmt.Errorf("judgment %s: unknown status %q", id, r.Status)
	}
	if r.Score == nil {
		return model.ComplianceJudgment{}, fmt.Errorf("judgment %s: missing score", id)
	}
	if *r.Score < 0 || *r.Score > 100 {
		return model.ComplianceJudgment{}, fmt.Errorf("judgment %s: score %d outside 0-100", id, *r.Score)
	}

	var kind model.RequirementKind
	if strings.TrimSpace(r.Kind) != "" {
		kind = model.ParseRequirementKind(r.Kind)
	}

	return model.ComplianceJudgment{
		ProvisionID:     id,
		QuestionID:      strings.TrimSpace(r.QuestionID),
		Kind:            kind,
		Status:          status,
		Confidence:      model.Confidence(strings.ToLower(strings.TrimSpace(r.Confidence))),
		Score:           *r.Score,
		Rationale:       r.Rationale,
		Recommendations: r.Recommendations,
		CriticalIssues:  r.CriticalIssues,
		NextSteps:       r.NextSteps,
	}, nil
}

func parseAudiences(labels []string) ([]model.Audience, error) {
	var out []model.Audience
	for _, label := range labels {
		if strings.TrimSpace(label) == "" {
			continue
		}
		a, ok := model.ParseAudience(label)
		if !ok {
			return nil, fmt.Errorf("unknown audience %q", label)
		}
		out = append(out, a)
	}
	return out, nil
}

func trimAll(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func convertProvisions(records []provisionRecord) ([]model.Provision, error) {
	out := make([]model.Provision, 0, len(records))
	for i, r := range records {
		p, err := r.toModel(i)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func convertQuestions(records []questionRecord) []model.Question {
	out := make([]model.Question, 0, len(records))
	for _, r := range records {
		out = append(out, r.toModel())
	}
	return out
}

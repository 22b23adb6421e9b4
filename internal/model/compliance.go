package model

// ComplianceStatus is the verdict an evaluator reached for one provision
type ComplianceStatus string

const (
	StatusCompliant        ComplianceStatus = "COMPLIANT"
	StatusPartial          ComplianceStatus = "PARTIAL"
	StatusNonCompliant     ComplianceStatus = "NON_COMPLIANT"
	StatusInsufficientInfo ComplianceStatus = "INSUFFICIENT_INFO"
)

// Valid reports whether s is one of the four known statuses
func (s ComplianceStatus) Valid() bool {
	switch s {
	case StatusCompliant, StatusPartial, StatusNonCompliant, StatusInsufficientInfo:
		return true
	}
	return false
}

// ComplianceJudgment is one per-provision judgment produced by an external evaluator.
// The aggregator treats its contents as opaque data.
type ComplianceJudgment struct {
	ProvisionID     string           `json:"provision_id" yaml:"provision_id"`
	QuestionID      string           `json:"question_id,omitempty" yaml:"question_id,omitempty"`
	Kind            RequirementKind  `json:"requirement_kind,omitempty" yaml:"requirement_kind,omitempty"` // Empty when unknown
	Status          ComplianceStatus `json:"compliance_status" yaml:"compliance_status"`
	Confidence      Confidence       `json:"confidence_level,omitempty" yaml:"confidence_level,omitempty"`
	Score           int              `json:"score" yaml:"score"` // 0-100
	Rationale       string           `json:"rationale" yaml:"rationale"`
	Recommendations []string         `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
	CriticalIssues  []string         `json:"critical_issues,omitempty" yaml:"critical_issues,omitempty"`
	NextSteps       []string         `json:"next_steps,omitempty" yaml:"next_steps,omitempty"`
}

// Recommendation is the certification outcome
type Recommendation string

const (
	RecommendPass             Recommendation = "PASS"
	RecommendConditional      Recommendation = "CONDITIONAL"
	RecommendFail             Recommendation = "FAIL"
	RecommendInsufficientData Recommendation = "INSUFFICIENT_DATA"
)

// OverallAssessment is the rolled-up compliance outcome across all judgments
type OverallAssessment struct {
	Total                   int            `json:"total_provisions_evaluated"`
	CompliantCount          int            `json:"compliant_count"`
	PartialCount            int            `json:"partial_count"`
	NonCompliantCount       int            `json:"non_compliant_count"`
	InsufficientInfoCount   int            `json:"insufficient_info_count"`
	ShallTotal              int            `json:"shall_provisions_total"`
	ShallCompliant          int            `json:"shall_provisions_compliant"`
	OverallScore            int            `json:"overall_score"`
	Recommendation          Recommendation `json:"certification_recommendation"`
	CriticalGaps            []string       `json:"critical_gaps"`
	PriorityRecommendations []string       `json:"priority_recommendations"`
	Strengths               []string       `json:"strengths"`
	Signals                 []Signal       `json:"signals,omitempty"`
}

// Answer is an organization's free-text response to an audit question
type Answer struct {
	Question         `yaml:",inline"`
	Answer           string   `json:"answer" yaml:"answer"`
	EvidenceFiles    []string `json:"evidence_files,omitempty" yaml:"evidence_files,omitempty"`
	AnsweredBy       string   `json:"answered_by,omitempty" yaml:"answered_by,omitempty"`
	AnswerConfidence string   `json:"confidence_level,omitempty" yaml:"confidence_level,omitempty"` // Respondent's own confidence
}

package model

import "time"

// GapSeverity ranks how badly a missing or weak provision hurts certification
type GapSeverity string

const (
	GapCritical GapSeverity = "critical" // Shall provision missing
	GapHigh     GapSeverity = "high"     // Shall provision partly implemented
	GapMedium   GapSeverity = "medium"   // Should provision missing or minor shall gap
	GapLow      GapSeverity = "low"      // Best-practice improvement
)

// Valid reports whether s is one of the four known severities
func (s GapSeverity) Valid() bool {
	switch s {
	case GapCritical, GapHigh, GapMedium, GapLow:
		return true
	}
	return false
}

// CompletionStatus summarises how much of a questionnaire has been answered
type CompletionStatus struct {
	TotalQuestions    int     `json:"total_questions"`
	AnsweredQuestions int     `json:"answered_questions"`
	CompletionRate    float64 `json:"completion_rate"` // 0-1
}

// NewCompletionStatus computes the completion rate; 0 when there are no questions
func NewCompletionStatus(total, answered int) CompletionStatus {
	s := CompletionStatus{TotalQuestions: total, AnsweredQuestions: answered}
	if total > 0 {
		s.CompletionRate = float64(answered) / float64(total)
	}
	return s
}

// RemediationPlan lists the work needed to close one gap
type RemediationPlan struct {
	ImmediateActions  []string `json:"immediate_actions,omitempty"`
	ShortTermActions  []string `json:"short_term_actions,omitempty"`
	LongTermActions   []string `json:"long_term_actions,omitempty"`
	VerificationSteps []string `json:"verification_steps,omitempty"`
	EstimatedEffort   string   `json:"estimated_effort,omitempty"`
	RequiredResources []string `json:"required_resources,omitempty"`
	SuccessCriteria   string   `json:"success_criteria,omitempty"`
}

// Gap is one provision the organization does not adequately meet
type Gap struct {
	ProvisionID   string          `json:"provision_id"`
	ProvisionText string          `json:"provision_text,omitempty"`
	Severity      GapSeverity     `json:"gap_severity"`
	Description   string          `json:"gap_description"`
	RiskImpact    string          `json:"risk_impact,omitempty"`
	CurrentStatus string          `json:"current_status,omitempty"`
	Remediation   RemediationPlan `json:"remediation_plan"`
	Dependencies  []string        `json:"dependencies,omitempty"`
	QuickWins     []string        `json:"quick_wins,omitempty"`
}

// CategoryCoverage counts addressed provisions within one category
type CategoryCoverage struct {
	Covered int      `json:"covered"`
	Total   int      `json:"total"`
	Gaps    []string `json:"gaps,omitempty"`
}

// RemediationPhase is one step of the remediation roadmap
type RemediationPhase struct {
	Timeline        string   `json:"timeline,omitempty"`
	Actions         []string `json:"actions,omitempty"`
	SuccessCriteria []string `json:"success_criteria,omitempty"`
}

// ResourceRequirements estimates what remediation will take
type ResourceRequirements struct {
	Personnel       []string `json:"personnel,omitempty"`
	ToolsSoftware   []string `json:"tools_software,omitempty"`
	Training        []string `json:"training,omitempty"`
	ExternalSupport []string `json:"external_support,omitempty"`
	EstimatedBudget string   `json:"estimated_budget,omitempty"`
}

// GapSummary is the executive view of a gap analysis
type GapSummary struct {
	TotalProvisions          int                 `json:"total_provisions"`
	AddressedProvisions      int                 `json:"addressed_provisions"`
	GapsBySeverity           map[GapSeverity]int `json:"gap_count_by_severity"`
	CertificationReadiness   string              `json:"certification_readiness,omitempty"` // ready, needs_work, significant_gaps
	EstimatedRemediationTime string              `json:"estimated_remediation_time,omitempty"`
}

// GapAnalysis is the full gap analysis for one organization.
// Error is set when the analysis could not be produced; the other fields are then empty.
type GapAnalysis struct {
	Summary         GapSummary                  `json:"executive_summary"`
	Gaps            []Gap                       `json:"identified_gaps"`
	Coverage        map[string]CategoryCoverage `json:"coverage_by_category"`
	Roadmap         map[string]RemediationPhase `json:"remediation_roadmap"`
	Resources       ResourceRequirements        `json:"resource_requirements"`
	Recommendations []string                    `json:"recommendations"`
	Error           string                      `json:"error,omitempty"`
}

// QuickGapAssessment is the short planning view of the gaps
type QuickGapAssessment struct {
	CertificationBlockers []string `json:"certification_blockers"`
	TopPriorities         []string `json:"top_5_priorities"`
	QuickWins             []string `json:"quick_wins"`
	ReadinessTimeline     string   `json:"estimated_readiness_timeline"`
	NextSteps             []string `json:"next_steps"`
	RiskSummary           string   `json:"risk_summary"`
	Error                 string   `json:"error,omitempty"`
}

// GapReport is the rendered output of a gap analysis run. Exactly one of
// Analysis and Quick is set.
type GapReport struct {
	RunID       string              `json:"run_id"`
	GeneratedAt time.Time           `json:"generated_at"`
	Corpus      CorpusMeta          `json:"corpus"`
	Status      CompletionStatus    `json:"assessment_status"`
	Analysis    *GapAnalysis        `json:"gap_analysis,omitempty"`
	Quick       *QuickGapAssessment `json:"quick_gap_assessment,omitempty"`
}

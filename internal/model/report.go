package model

import "time"

// MappingReport is the rendered output of a batch mapping run
type MappingReport struct {
	RunID       string                  `json:"run_id"`
	GeneratedAt time.Time               `json:"generated_at"`
	Corpus      CorpusMeta              `json:"corpus"`
	Results     []QuestionMappingResult `json:"results"`
	Stats       MappingStats            `json:"statistics"`
}

// AssessmentReport is the rendered output of a compliance aggregation
type AssessmentReport struct {
	RunID       string               `json:"run_id"`
	GeneratedAt time.Time            `json:"generated_at"`
	Judgments   []ComplianceJudgment `json:"judgments"`
	Assessment  OverallAssessment    `json:"assessment"`
}

// CorpusMeta describes the provision corpus a run was mapped against
type CorpusMeta struct {
	Source      string `json:"source,omitempty"`
	Provisions  int    `json:"provisions"`
	Fingerprint string `json:"fingerprint"`
}

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType             `json:"type"`
	Severity    SignalSeverity         `json:"severity"`
	Description string                 `json:"description"`
	Data        map[string]interface{} `json:"data,omitempty"` // Formulas and inputs
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalScoreFormula       SignalType = "score_formula"       // How the overall score was derived
	SignalMandatoryCoverage  SignalType = "mandatory_coverage"  // Shall provisions compliant vs total
	SignalStatusDistribution SignalType = "status_distribution" // Judgments per status
	SignalInsufficientData   SignalType = "insufficient_data"   // No judgments supplied
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

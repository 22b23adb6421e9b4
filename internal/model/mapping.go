package model

// Confidence is a three-level qualitative strength, never a probability
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Rank orders confidence levels; unknown values rank below low
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// ProvisionMapping associates one question with one provision
type ProvisionMapping struct {
	ProvisionID   string          `json:"provision_id"`
	ProvisionText string          `json:"provision_text"`
	Kind          RequirementKind `json:"requirement_kind"`
	Confidence    Confidence      `json:"confidence"`
	Rationale     string          `json:"rationale"`
	Signals       []string        `json:"signals"`           // Matched keywords or sentinels like "audience:IT"
	Matcher       string          `json:"matcher,omitempty"` // Matcher whose proposal was kept
}

// QuestionMappingResult is the ranked set of provisions evidenced by a question
type QuestionMappingResult struct {
	QuestionID string             `json:"question_id"`
	Mappings   []ProvisionMapping `json:"mapped_provisions"`
	Confidence Confidence         `json:"overall_confidence"`
	Notes      string             `json:"notes"`
}

// ProvisionIDs returns the mapped provision ids in result order
func (r QuestionMappingResult) ProvisionIDs() []string {
	ids := make([]string, len(r.Mappings))
	for i, m := range r.Mappings {
		ids[i] = m.ProvisionID
	}
	return ids
}

// MappingStats summarizes a batch of mapping results
type MappingStats struct {
	TotalQuestions      int     `json:"total_questions"`
	HighConfidence      int     `json:"high_confidence_mappings"`
	MediumConfidence    int     `json:"medium_confidence_mappings"`
	LowConfidence       int     `json:"low_confidence_mappings"`
	Unmapped            int     `json:"unmapped_questions"`
	MandatoryMappings   int     `json:"shall_provision_mappings"`
	RecommendedMappings int     `json:"should_provision_mappings"`
	SuccessRate         float64 `json:"mapping_success_rate"`
}

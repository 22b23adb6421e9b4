package mapper

import (
	"testing"

	"github.com/ppiankov/certmap/internal/model"
)

func TestStatistics_SuccessRate(t *testing.T) {
	m := New(testIndex())

	unmapped := make([]model.Question, 5)
	mapped := make([]model.Question, 5)
	for i := range unmapped {
		unmapped[i] = model.Question{ID: "u", Text: "Zzz qqq?"}
		mapped[i] = model.Question{ID: "m", Text: "Do you keep a password?"}
	}

	tests := []struct {
		questions []model.Question
		expected  float64
		desc      string
	}{
		{questions: unmapped, expected: 0.0, desc: "all unmapped"},
		{questions: mapped, expected: 1.0, desc: "all mapped"},
		{questions: nil, expected: 0.0, desc: "empty batch"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			stats := Statistics(m.MapQuestions(tt.questions))
			if stats.SuccessRate != tt.expected {
				t.Errorf("Expected success rate %.1f, got %.2f", tt.expected, stats.SuccessRate)
			}
			if stats.TotalQuestions != len(tt.questions) {
				t.Errorf("Expected %d questions, got %d", len(tt.questions), stats.TotalQuestions)
			}
		})
	}
}

func TestStatistics_Distribution(t *testing.T) {
	results := []model.QuestionMappingResult{
		{
			QuestionID: "q1",
			Confidence: model.ConfidenceHigh,
			Mappings: []model.ProvisionMapping{
				{ProvisionID: "A.1.4a", Kind: model.KindMandatory, Confidence: model.ConfidenceHigh},
				{ProvisionID: "A.8.1b", Kind: model.KindRecommended, Confidence: model.ConfidenceMedium},
			},
		},
		{
			QuestionID: "q2",
			Confidence: model.ConfidenceMedium,
			Mappings: []model.ProvisionMapping{
				{ProvisionID: "A.5.2", Kind: model.KindMandatory, Confidence: model.ConfidenceMedium},
			},
		},
		{QuestionID: "q3", Confidence: model.ConfidenceLow},
		{
			QuestionID: "q4",
			Confidence: model.ConfidenceLow,
			Mappings: []model.ProvisionMapping{
				{ProvisionID: "A.8.1b", Kind: model.KindRecommended, Confidence: model.ConfidenceLow},
			},
		},
	}

	stats := Statistics(results)

	expected := model.MappingStats{
		TotalQuestions:      4,
		HighConfidence:      1,
		MediumConfidence:    1,
		LowConfidence:       2,
		Unmapped:            1,
		MandatoryMappings:   2,
		RecommendedMappings: 2,
		SuccessRate:         0.75,
	}
	if stats != expected {
		t.Errorf("Expected %+v, got %+v", expected, stats)
	}
}

package score

import (
	"reflect"
	"testing"

	"github.com/ppiankov/certmap/internal/model"
)

func judgment(id string, kind model.RequirementKind, status model.ComplianceStatus, score int) model.ComplianceJudgment {
	return model.ComplianceJudgment{ProvisionID: id, Kind: kind, Status: status, Score: score}
}

func TestAggregate_Empty(t *testing.T) {
	result := NewAggregator().Aggregate(nil)

	if result.OverallScore != 0 {
		t.Errorf("Expected score 0, got %d", result.OverallScore)
	}
	if result.Recommendation != model.RecommendInsufficientData {
		t.Errorf("Expected INSUFFICIENT_DATA, got %s", result.Recommendation)
	}
	if result.Total != 0 || result.CompliantCount != 0 || result.ShallTotal != 0 || result.ShallCompliant != 0 {
		t.Errorf("Expected zero counts, got %+v", result)
	}
	if len(result.Signals) != 1 || result.Signals[0].Type != model.SignalInsufficientData {
		t.Errorf("Expected a single insufficient_data signal, got %v", result.Signals)
	}
}

func TestAggregate_AllMandatoryCompliantPass(t *testing.T) {
	result := NewAggregator().Aggregate([]model.ComplianceJudgment{
		judgment("A.1.1", model.KindMandatory, model.StatusCompliant, 90),
		judgment("A.1.2", model.KindMandatory, model.StatusCompliant, 85),
		judgment("A.1.3", model.KindMandatory, model.StatusCompliant, 95),
	})

	if result.OverallScore != 90 {
		t.Errorf("Expected score 90, got %d", result.OverallScore)
	}
	if result.Recommendation != model.RecommendPass {
		t.Errorf("Expected PASS, got %s", result.Recommendation)
	}
	if result.ShallTotal != 3 || result.ShallCompliant != 3 {
		t.Errorf("Expected 3/3 mandatory compliant, got %d/%d", result.ShallCompliant, result.ShallTotal)
	}

	expected := []string{"A.1.1: Excellent compliance", "A.1.3: Excellent compliance"}
	if !reflect.DeepEqual(result.Strengths, expected) {
		t.Errorf("Expected strengths %v, got %v", expected, result.Strengths)
	}
}

func TestAggregate_NonCompliantMandatoryFails(t *testing.T) {
	result := NewAggregator().Aggregate([]model.ComplianceJudgment{
		judgment("A.5.1", model.KindMandatory, model.StatusNonCompliant, 20),
		judgment("A.5.2", model.KindMandatory, model.StatusCompliant, 90),
	})

	if result.OverallScore != 55 {
		t.Errorf("Expected score 55, got %d", result.OverallScore)
	}
	if result.Recommendation != model.RecommendFail {
		t.Errorf("Expected FAIL, got %s", result.Recommendation)
	}
	if result.NonCompliantCount != 1 || result.CompliantCount != 1 {
		t.Errorf("Unexpected status counts: %+v", result)
	}
}

func TestAggregate_Thresholds(t *testing.T) {
	tests := []struct {
		judgments []model.ComplianceJudgment
		score     int
		expected  model.Recommendation
		desc      string
	}{
		{
			judgments: []model.ComplianceJudgment{
				judgment("A.1.1", model.KindMandatory, model.StatusCompliant, 70),
				judgment("A.1.2", model.KindRecommended, model.StatusPartial, 55),
			},
			score:    62,
			expected: model.RecommendConditional,
			desc:     "mandatory compliant, score between 60 and 80",
		},
		{
			judgments: []model.ComplianceJudgment{
				judgment("A.1.1", model.KindMandatory, model.StatusCompliant, 80),
				judgment("A.1.2", model.KindRecommended, model.StatusNonCompliant, 79),
			},
			score:    79,
			expected: model.RecommendConditional,
			desc:     "truncation keeps 79.5 below pass",
		},
		{
			judgments: []model.ComplianceJudgment{
				judgment("A.1.1", model.KindRecommended, model.StatusPartial, 50),
				judgment("A.1.2", model.KindRecommended, model.StatusPartial, 60),
			},
			score:    55,
			expected: model.RecommendFail,
			desc:     "no mandatory judgments, score below 60",
		},
		{
			judgments: []model.ComplianceJudgment{
				judgment("A.1.1", model.KindRecommended, model.StatusNonCompliant, 100),
				judgment("A.1.2", model.KindRecommended, model.StatusPartial, 80),
			},
			score:    90,
			expected: model.RecommendPass,
			desc:     "recommended failures do not block pass",
		},
		{
			judgments: []model.ComplianceJudgment{
				judgment("A.1.1", model.KindMandatory, model.StatusPartial, 95),
			},
			score:    95,
			expected: model.RecommendFail,
			desc:     "partial mandatory fails regardless of score",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			result := NewAggregator().Aggregate(tt.judgments)
			if result.OverallScore != tt.score {
				t.Errorf("Expected score %d, got %d", tt.score, result.OverallScore)
			}
			if result.Recommendation != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, result.Recommendation)
			}
		})
	}
}

func TestAggregate_MandatoryResolution(t *testing.T) {
	judgments := []model.ComplianceJudgment{
		judgment("A.1.1", model.KindRecommended, model.StatusCompliant, 90),
		judgment("A.2.1", "", model.StatusNonCompliant, 40),
		judgment("A.3.1-shall", "", model.StatusCompliant, 90),
		judgment("A.4.1", "", model.StatusCompliant, 90),
	}

	plain := NewAggregator().Aggregate(judgments)
	if plain.ShallTotal != 1 || plain.ShallCompliant != 1 {
		t.Errorf("Expected only the shall-marked id to be mandatory, got %d/%d", plain.ShallCompliant, plain.ShallTotal)
	}

	withKinds := NewAggregator().WithKinds(map[string]model.RequirementKind{
		"A.1.1": model.KindMandatory,
		"A.2.1": model.KindMandatory,
		"A.4.1": model.KindRecommended,
	}).Aggregate(judgments)

	// A.1.1 keeps its own kind; A.2.1 comes from the lookup; A.3.1-shall falls back to the id
	if withKinds.ShallTotal != 2 || withKinds.ShallCompliant != 1 {
		t.Errorf("Expected 1/2 mandatory compliant, got %d/%d", withKinds.ShallCompliant, withKinds.ShallTotal)
	}
	if withKinds.Recommendation != model.RecommendFail {
		t.Errorf("Expected FAIL with a non-compliant mandatory judgment, got %s", withKinds.Recommendation)
	}
}

func TestAggregate_DeduplicatesIssuesAndRecommendations(t *testing.T) {
	judgments := []model.ComplianceJudgment{
		{
			ProvisionID:     "A.8.1",
			Status:          model.StatusPartial,
			Score:           60,
			CriticalIssues:  []string{"No offsite backup", "Restores untested"},
			Recommendations: []string{"Schedule restore tests"},
		},
		{
			ProvisionID:     "A.8.2",
			Status:          model.StatusNonCompliant,
			Score:           30,
			CriticalIssues:  []string{"Restores untested", ""},
			Recommendations: []string{"Schedule restore tests", "Encrypt backups"},
		},
	}

	result := NewAggregator().Aggregate(judgments)

	if !reflect.DeepEqual(result.CriticalGaps, []string{"No offsite backup", "Restores untested"}) {
		t.Errorf("Unexpected critical gaps: %v", result.CriticalGaps)
	}
	if !reflect.DeepEqual(result.PriorityRecommendations, []string{"Schedule restore tests", "Encrypt backups"}) {
		t.Errorf("Unexpected recommendations: %v", result.PriorityRecommendations)
	}
	if len(result.Strengths) != 0 {
		t.Errorf("Expected no strengths, got %v", result.Strengths)
	}
}

func TestAggregate_CountOrdering(t *testing.T) {
	statuses := []model.ComplianceStatus{
		model.StatusCompliant, model.StatusPartial, model.StatusNonCompliant, model.StatusInsufficientInfo,
	}
	kinds := []model.RequirementKind{model.KindMandatory, model.KindRecommended, ""}

	var judgments []model.ComplianceJudgment
	for i := 0; i < 24; i++ {
		judgments = append(judgments, judgment("A.1."+string(rune('a'+i)), kinds[i%3], statuses[i%4], (i*37)%101))

		result := NewAggregator().Aggregate(judgments)
		if !(result.ShallCompliant <= result.ShallTotal && result.ShallTotal <= result.Total) {
			t.Fatalf("Counts out of order at %d judgments: %d <= %d <= %d", len(judgments), result.ShallCompliant, result.ShallTotal, result.Total)
		}
		sum := result.CompliantCount + result.PartialCount + result.NonCompliantCount + result.InsufficientInfoCount
		if sum != result.Total {
			t.Errorf("Expected status counts to sum to %d, got %d", result.Total, sum)
		}
	}
}

func TestAggregate_Signals(t *testing.T) {
	result := NewAggregator().Aggregate([]model.ComplianceJudgment{
		judgment("A.5.1", model.KindMandatory, model.StatusNonCompliant, 20),
		judgment("A.5.2", model.KindMandatory, model.StatusCompliant, 90),
	})

	if len(result.Signals) != 3 {
		t.Fatalf("Expected 3 signals, got %d", len(result.Signals))
	}
	for _, s := range result.Signals {
		if s.Type == model.SignalMandatoryCoverage && s.Severity != model.SeverityCritical {
			t.Errorf("Expected critical mandatory coverage signal, got %s", s.Severity)
		}
		if s.Type == model.SignalScoreFormula && s.Data["formula"] == nil {
			t.Error("Expected score signal to carry its formula")
		}
	}
}

package pipeline

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/certmap/internal/model"
)

func sampleMappingReport() *model.MappingReport {
	return &model.MappingReport{
		RunID:       "run-1",
		GeneratedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Corpus:      model.CorpusMeta{Source: "provisions.yaml", Provisions: 3, Fingerprint: "0123456789abcdef"},
		Results: []model.QuestionMappingResult{
			{
				QuestionID: "Q1",
				Mappings: []model.ProvisionMapping{
					{ProvisionID: "A.1.4a", Kind: model.KindMandatory, Confidence: model.ConfidenceHigh, Rationale: "Matched category tag: TRAINING | HR"},
				},
				Confidence: model.ConfidenceHigh,
				Notes:      "Strong signal match found",
			},
			{QuestionID: "Q2", Confidence: model.ConfidenceLow, Notes: "no clear mapping found"},
		},
		Stats: model.MappingStats{TotalQuestions: 2, HighConfidence: 1, Unmapped: 1, MandatoryMappings: 1, SuccessRate: 0.5},
	}
}

func TestRenderer_MappingMarkdown(t *testing.T) {
	md := NewRenderer(true).MappingMarkdown(sampleMappingReport())

	for _, want := range []string{
		"fingerprint `0123456789ab`",
		"| Success rate | 50.0% |",
		"### Q1 (high)",
		`| A.1.4a | mandatory | high | Matched category tag: TRAINING \| HR |`,
		"### Q2 (low)\n\nno clear mapping found",
		"_Generated by certmap.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Expected markdown to contain %q\n%s", want, md)
		}
	}

	if strings.Contains(NewRenderer(false).MappingMarkdown(sampleMappingReport()), "Generated by certmap") {
		t.Error("Expected footer to be omitted")
	}
}

func TestRenderer_AssessmentMarkdown(t *testing.T) {
	report := &model.AssessmentReport{
		Judgments: []model.ComplianceJudgment{
			{ProvisionID: "A.5.2", Status: model.StatusNonCompliant, Score: 20, Rationale: "No MFA."},
		},
		Assessment: model.OverallAssessment{
			Total:             1,
			NonCompliantCount: 1,
			ShallTotal:        1,
			OverallScore:      20,
			Recommendation:    model.RecommendFail,
			CriticalGaps:      []string{"MFA not enforced"},
		},
	}

	md := NewRenderer(false).AssessmentMarkdown(report)
	for _, want := range []string{
		"**Recommendation: FAIL** (overall score 20/100)",
		"| Shall provisions compliant | 0 of 1 |",
		"## Critical gaps\n\n- MFA not enforced",
		"| A.5.2 | - | NON_COMPLIANT | 20 | No MFA. |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Expected markdown to contain %q\n%s", want, md)
		}
	}
	if strings.Contains(md, "## Strengths") {
		t.Error("Expected empty sections to be omitted")
	}
}

func TestRenderer_RenderJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "mapping.json")

	if err := NewRenderer(true).RenderJSON(sampleMappingReport(), path); err != nil {
		t.Fatalf("RenderJSON failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	var decoded model.MappingReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Report is not valid JSON: %v", err)
	}
	if decoded.RunID != "run-1" || len(decoded.Results) != 2 {
		t.Errorf("Unexpected decoded report: %+v", decoded)
	}
	if !bytes.Contains(data, []byte(`"mapped_provisions"`)) {
		t.Error("Expected mapped_provisions key in JSON output")
	}
}

func TestRenderer_Summaries(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(false)

	r.MappingSummary(&buf, sampleMappingReport())
	if !strings.Contains(buf.String(), "Success rate:   50.0%") {
		t.Errorf("Unexpected mapping summary:\n%s", buf.String())
	}

	buf.Reset()
	r.AssessmentSummary(&buf, &model.AssessmentReport{Assessment: model.OverallAssessment{
		Recommendation: model.RecommendPass,
		OverallScore:   91,
		Strengths:      []string{"A.1.4a: Excellent compliance"},
	}})
	if !strings.Contains(buf.String(), "Assessment: PASS (91/100)") || !strings.Contains(buf.String(), "✓ A.1.4a: Excellent compliance") {
		t.Errorf("Unexpected assessment summary:\n%s", buf.String())
	}
}

func TestRenderer_GapMarkdown(t *testing.T) {
	report := &model.GapReport{
		RunID:       "run-9",
		GeneratedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Status:      model.NewCompletionStatus(4, 3),
		Analysis: &model.GapAnalysis{
			Summary: model.GapSummary{
				GapsBySeverity:           map[model.GapSeverity]int{model.GapCritical: 1},
				CertificationReadiness:   "needs_work",
				EstimatedRemediationTime: "6 weeks",
			},
			Gaps: []model.Gap{{
				ProvisionID: "A.5.2",
				Severity:    model.GapCritical,
				Description: "MFA is not enforced.",
				Remediation: model.RemediationPlan{ImmediateActions: []string{"Enable MFA for admins"}},
			}},
			Recommendations: []string{"Adopt a password manager"},
		},
	}

	md := NewRenderer(false).GapMarkdown(report)
	for _, want := range []string{
		"- Answered: 3 of 4 questions (75%)",
		"**Readiness: needs_work** (estimated remediation 6 weeks)",
		"| critical | 1 |",
		"| low | 0 |",
		"### A.5.2 (critical)\n\nMFA is not enforced.",
		"**Immediate actions**\n\n- Enable MFA for admins",
		"## Recommendations\n\n- Adopt a password manager",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Expected markdown to contain %q\n%s", want, md)
		}
	}
	if strings.Contains(md, "Analysis failed") || strings.Contains(md, "Short-term actions") {
		t.Errorf("Expected empty sections to be omitted\n%s", md)
	}
}

func TestRenderer_GapMarkdown_Quick(t *testing.T) {
	report := &model.GapReport{
		Status: model.NewCompletionStatus(0, 0),
		Quick: &model.QuickGapAssessment{
			CertificationBlockers: []string{"Assessment failed: timeout"},
			ReadinessTimeline:     "Unknown",
			Error:                 "timeout",
		},
	}

	md := NewRenderer(true).GapMarkdown(report)
	for _, want := range []string{
		"> **Assessment failed:** timeout",
		"**Estimated readiness: Unknown**",
		"## Certification blockers\n\n- Assessment failed: timeout",
		"_Generated by certmap.",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Expected markdown to contain %q\n%s", want, md)
		}
	}

	var buf bytes.Buffer
	NewRenderer(false).GapSummary(&buf, report)
	if !strings.Contains(buf.String(), "✗ timeout") || !strings.Contains(buf.String(), "Blockers:       1") {
		t.Errorf("Unexpected gap summary:\n%s", buf.String())
	}
}

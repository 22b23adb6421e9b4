package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/certmap/internal/model"
)

func gapRequest() GapRequest {
	return GapRequest{
		Organization: Organization{Company: "Acme Pte Ltd", TechnicalMaturity: "low"},
		Provisions: []model.Provision{
			{ID: "A.5.2", Text: "Accounts shall use multi-factor authentication.", Kind: model.KindMandatory},
		},
		Answered:   []AnsweredQuestion{{ID: "Q1", Question: "Do you train staff?", Answer: "Yes", Status: "PARTIAL"}},
		Unanswered: []OpenQuestion{{ID: "Q2", Question: "Is MFA enforced?", Provisions: []string{"A.5.2"}}},
		Status:     model.NewCompletionStatus(2, 1),
	}
}

func TestGapAnalyzer_Analyze_Success(t *testing.T) {
	provider := &stubProvider{reply: "```json\n" + `{"gap_analysis": {
  "executive_summary": {"total_provisions": 1, "addressed_provisions": 0, "gap_count_by_severity": {"CRITICAL": 1}, "certification_readiness": "Needs_Work"},
  "identified_gaps": [{"provision_id": " A.5.2 ", "gap_severity": "Critical", "gap_description": "MFA missing",
    "remediation_plan": {"immediate_actions": ["Enable MFA for administrators"]}}],
  "coverage_by_category": {"A.5": {"covered": 0, "total": 1, "gaps": ["A.5.2"]}}
}}` + "\n```"}

	analysis := NewGapAnalyzer(provider, nil, "").Analyze(context.Background(), gapRequest())

	if analysis.Error != "" {
		t.Fatalf("Unexpected error: %s", analysis.Error)
	}
	if len(analysis.Gaps) != 1 || analysis.Gaps[0].ProvisionID != "A.5.2" || analysis.Gaps[0].Severity != model.GapCritical {
		t.Fatalf("Unexpected gaps: %+v", analysis.Gaps)
	}
	if analysis.Summary.GapsBySeverity[model.GapCritical] != 1 {
		t.Errorf("Expected severity counts keyed lowercase, got %v", analysis.Summary.GapsBySeverity)
	}
	if analysis.Summary.CertificationReadiness != "needs_work" {
		t.Errorf("Expected needs_work, got %q", analysis.Summary.CertificationReadiness)
	}
	if analysis.Coverage["A.5"].Total != 1 || analysis.Roadmap == nil || analysis.Recommendations == nil {
		t.Errorf("Expected coverage kept and empty collections filled, got %+v", analysis)
	}

	prompt := provider.prompts[0]
	for _, want := range []string{
		"- Company: Acme Pte Ltd",
		"- Technical maturity: low",
		"- A.5.2 [shall (mandatory)]: Accounts shall use multi-factor authentication.",
		"Compliance status: PARTIAL",
		"- Question Q2: Is MFA enforced?\n  Related provisions: A.5.2",
		"- Completion rate: 50%",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q\n%s", want, prompt)
		}
	}
}

func TestGapAnalyzer_Analyze_Fallbacks(t *testing.T) {
	tests := []struct {
		name      string
		provider  *stubProvider
		errPrefix string
		rec       string
	}{
		{
			name:      "provider error",
			provider:  &stubProvider{err: errors.New("connection refused")},
			errPrefix: "Gap analysis failed: connection refused",
			rec:       "Retry gap analysis with corrected data",
		},
		{
			name:      "no JSON",
			provider:  &stubProvider{reply: "I cannot help with that."},
			errPrefix: "Gap analysis parsing failed: no JSON object in response",
			rec:       "Retry gap analysis",
		},
		{
			name:      "gap without provision",
			provider:  &stubProvider{reply: `{"gap_analysis": {"identified_gaps": [{"gap_severity": "high"}]}}`},
			errPrefix: "Gap analysis parsing failed: gap 1 has no provision_id",
			rec:       "Retry gap analysis",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis := NewGapAnalyzer(tt.provider, nil, "").Analyze(context.Background(), gapRequest())

			if analysis.Error != tt.errPrefix {
				t.Errorf("Expected error %q, got %q", tt.errPrefix, analysis.Error)
			}
			if len(analysis.Recommendations) != 1 || analysis.Recommendations[0] != tt.rec {
				t.Errorf("Expected recommendation %q, got %v", tt.rec, analysis.Recommendations)
			}
			if analysis.Gaps == nil || len(analysis.Gaps) != 0 || analysis.Summary.GapsBySeverity == nil {
				t.Errorf("Expected empty, non-nil collections, got %+v", analysis)
			}
		})
	}
}

func TestGapAnalyzer_QuickAssess(t *testing.T) {
	provider := &stubProvider{reply: `{"quick_gap_assessment": {
  "certification_blockers": ["MFA missing"],
  "top_5_priorities": ["Enable MFA"],
  "quick_wins": ["Turn on MFA in the email suite"],
  "estimated_readiness_timeline": "2 months",
  "next_steps": ["Inventory admin accounts"],
  "risk_summary": "High"
}}`}
	status := model.NewCompletionStatus(10, 4)

	quick := NewGapAnalyzer(provider, nil, "").QuickAssess(context.Background(), "Acme", status, nil)

	if quick.Error != "" || quick.ReadinessTimeline != "2 months" || len(quick.TopPriorities) != 1 {
		t.Errorf("Unexpected quick assessment: %+v", quick)
	}
	prompt := provider.prompts[0]
	if !strings.Contains(prompt, "No provisions data available") || !strings.Contains(prompt, "- Completion rate: 40%") {
		t.Errorf("Unexpected prompt:\n%s", prompt)
	}
}

func TestGapAnalyzer_QuickAssess_Fallback(t *testing.T) {
	for _, provider := range []*stubProvider{
		{err: errors.New("timeout")},
		{reply: `{"something_else": {}}`},
	} {
		quick := NewGapAnalyzer(provider, nil, "").QuickAssess(context.Background(), "Acme", model.CompletionStatus{}, nil)

		if quick.Error == "" || quick.ReadinessTimeline != "Unknown" {
			t.Errorf("Expected fallback assessment, got %+v", quick)
		}
		if len(quick.CertificationBlockers) != 1 || !strings.HasPrefix(quick.CertificationBlockers[0], "Assessment failed: ") {
			t.Errorf("Expected failure reported as a blocker, got %v", quick.CertificationBlockers)
		}
		if quick.RiskSummary != "Cannot assess risk due to system error" {
			t.Errorf("Unexpected risk summary: %q", quick.RiskSummary)
		}
	}
}

func TestParseGapAnalysis(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "empty object", content: `{"gap_analysis": {}}`},
		{name: "missing envelope", content: `{"evaluation": {}}`, wantErr: "response has no gap_analysis object"},
		{name: "malformed", content: `{"gap_analysis": {"identified_gaps": "none"}}`, wantErr: "decode response"},
		{name: "blank provision", content: `{"gap_analysis": {"identified_gaps": [{"provision_id": "A.1.1"}, {"provision_id": "  "}]}}`, wantErr: "gap 2 has no provision_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analysis, err := ParseGapAnalysis(tt.content)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if analysis.Gaps == nil || analysis.Coverage == nil || analysis.Summary.GapsBySeverity == nil {
				t.Errorf("Expected non-nil collections, got %+v", analysis)
			}
		})
	}
}

package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ppiankov/certmap/internal/model"
	"github.com/ppiankov/certmap/internal/worker"
)

type stubProvider struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (s *stubProvider) Name() string                         { return "stub" }
func (s *stubProvider) IsAvailable(ctx context.Context) bool { return true }

func (s *stubProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, req.Prompt)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return &CompletionResponse{Content: s.reply, Model: "stub-model", PromptTokens: 10, CompletionTokens: 5}, nil
}

func trainingRequest() EvaluationRequest {
	return EvaluationRequest{
		QuestionID: "Q1",
		Question:   "Do employees receive cybersecurity training?",
		Answer:     "Yes, annual training with completion records.",
		Provision: model.Provision{
			ID:   "A.1.4a",
			Text: "Staff shall complete awareness training.",
			Kind: model.KindMandatory,
		},
		Organization: Organization{Company: "Acme Pte Ltd", Industry: "Retail"},
	}
}

func TestEvaluator_Evaluate_Success(t *testing.T) {
	provider := &stubProvider{reply: "Here is my assessment:\n```json\n" + `{"evaluation": {
  "compliance_status": "compliant",
  "confidence_level": "High",
  "score": 88.6,
  "rationale": "Completion records cover all staff.",
  "recommendations": ["Keep records for two years"],
  "critical_issues": [],
  "next_steps": ["Schedule next cycle"]
}}` + "\n```"}

	j := NewEvaluator(provider, nil, "").Evaluate(context.Background(), trainingRequest())

	if j.Status != model.StatusCompliant {
		t.Errorf("Expected COMPLIANT, got %s", j.Status)
	}
	if j.Score != 89 {
		t.Errorf("Expected rounded score 89, got %d", j.Score)
	}
	if j.Confidence != model.ConfidenceHigh {
		t.Errorf("Expected high confidence, got %s", j.Confidence)
	}
	if j.ProvisionID != "A.1.4a" || j.QuestionID != "Q1" || j.Kind != model.KindMandatory {
		t.Errorf("Expected request identity copied onto judgment, got %+v", j)
	}
	if len(j.NextSteps) != 1 || j.NextSteps[0] != "Schedule next cycle" {
		t.Errorf("Unexpected next steps: %v", j.NextSteps)
	}

	prompt := provider.prompts[0]
	for _, want := range []string{"A.1.4a", "shall (mandatory)", "Acme Pte Ltd", "Evidence files: none", "Scope: not provided"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q", want)
		}
	}
}

func TestEvaluator_Evaluate_Fallbacks(t *testing.T) {
	tests := []struct {
		provider  *stubProvider
		rationale string
		critical  string
		desc      string
	}{
		{
			provider:  &stubProvider{err: errors.New("connection refused")},
			rationale: "Evaluation failed: connection refused",
			critical:  "System evaluation error",
			desc:      "provider error",
		},
		{
			provider:  &stubProvider{reply: "I cannot evaluate this."},
			rationale: "Evaluation parsing failed: no JSON object in response",
			critical:  "Evaluation system error",
			desc:      "no json",
		},
		{
			provider:  &stubProvider{reply: `{"compliance_status": "MAYBE", "score": 50}`},
			rationale: `Evaluation parsing failed: unknown compliance status "MAYBE"`,
			critical:  "Evaluation system error",
			desc:      "unknown status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			j := NewEvaluator(tt.provider, nil, "").Evaluate(context.Background(), trainingRequest())

			if j.Status != model.StatusInsufficientInfo || j.Score != 0 {
				t.Errorf("Expected INSUFFICIENT_INFO with score 0, got %s/%d", j.Status, j.Score)
			}
			if j.Rationale != tt.rationale {
				t.Errorf("Expected rationale %q, got %q", tt.rationale, j.Rationale)
			}
			if len(j.CriticalIssues) != 1 || j.CriticalIssues[0] != tt.critical {
				t.Errorf("Expected critical issue %q, got %v", tt.critical, j.CriticalIssues)
			}
			if j.ProvisionID != "A.1.4a" || j.Kind != model.KindMandatory {
				t.Errorf("Expected fallback to keep provision identity, got %+v", j)
			}
		})
	}
}

func TestParseJudgment(t *testing.T) {
	tests := []struct {
		content string
		status  model.ComplianceStatus
		score   int
		desc    string
	}{
		{content: `{"compliance_status": "PARTIAL", "score": 55}`, status: model.StatusPartial, score: 55, desc: "flat object"},
		{content: `{"evaluation": {"compliance_status": "NON-COMPLIANT", "score": 10}}`, status: model.StatusNonCompliant, score: 10, desc: "hyphenated status"},
		{content: `{"compliance_status": "COMPLIANT", "score": 140}`, status: model.StatusCompliant, score: 100, desc: "score clamped high"},
		{content: `{"compliance_status": "insufficient info", "score": -3}`, status: model.StatusInsufficientInfo, score: 0, desc: "score clamped low"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			j, err := ParseJudgment(tt.content)
			if err != nil {
				t.Fatalf("ParseJudgment failed: %v", err)
			}
			if j.Status != tt.status || j.Score != tt.score {
				t.Errorf("Expected %s/%d, got %s/%d", tt.status, tt.score, j.Status, j.Score)
			}
			if j.Confidence != model.ConfidenceLow {
				t.Errorf("Expected missing confidence to default to low, got %s", j.Confidence)
			}
		})
	}

	if _, err := ParseJudgment(`{"compliance_status": "COMPLIANT"}`); err == nil {
		t.Error("Expected error for missing score")
	}
	if _, err := ParseJudgment(`{"compliance_status": `); err == nil {
		t.Error("Expected error for truncated object")
	}
}

func TestEvaluator_EvaluateAll(t *testing.T) {
	provider := &stubProvider{reply: `{"compliance_status": "PARTIAL", "score": 60}`}
	evaluator := NewEvaluator(provider, worker.NewLimiter(0, 0), "stub")

	incomplete := trainingRequest()
	incomplete.Answer = "   "
	noProvision := trainingRequest()
	noProvision.Provision = model.Provision{}

	reqs := []EvaluationRequest{trainingRequest(), incomplete, noProvision, trainingRequest()}
	judgments, err := evaluator.EvaluateAll(context.Background(), reqs)
	if err != nil {
		t.Fatalf("EvaluateAll failed: %v", err)
	}
	if len(judgments) != 2 {
		t.Errorf("Expected incomplete requests skipped (2 judgments), got %d", len(judgments))
	}
	if len(provider.prompts) != 2 {
		t.Errorf("Expected 2 provider calls, got %d", len(provider.prompts))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := evaluator.EvaluateAll(ctx, reqs); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

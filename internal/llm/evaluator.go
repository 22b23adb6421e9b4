package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/certmap/internal/logger"
	"github.com/ppiankov/certmap/internal/metrics"
	"github.com/ppiankov/certmap/internal/model"
	"github.com/ppiankov/certmap/internal/worker"
)

// Organization is the context an evaluator needs about the applicant
type Organization struct {
	Company           string `json:"company_name" yaml:"company_name" mapstructure:"company_name"`
	Industry          string `json:"industry" yaml:"industry" mapstructure:"industry"`
	Scope             string `json:"scope_description" yaml:"scope_description" mapstructure:"scope_description"`
	Size              string `json:"company_size,omitempty" yaml:"company_size,omitempty" mapstructure:"company_size"`
	TechnicalMaturity string `json:"technical_maturity,omitempty" yaml:"technical_maturity,omitempty" mapstructure:"technical_maturity"`
}

// EvaluationRequest pairs one answer with one provision it was mapped to
type EvaluationRequest struct {
	QuestionID       string
	Question         string
	Answer           string
	EvidenceFiles    []string
	AnsweredBy       string
	AnswerConfidence string
	Provision        model.Provision
	Organization     Organization
}

// Complete reports whether the request carries enough to be evaluated
func (r EvaluationRequest) Complete() bool {
	return strings.TrimSpace(r.Question) != "" &&
		strings.TrimSpace(r.Answer) != "" &&
		strings.TrimSpace(r.Provision.ID) != ""
}

// Evaluator turns answers into compliance judgments through a Provider.
// Failures never surface as errors; they become INSUFFICIENT_INFO judgments.
type Evaluator struct {
	provider Provider
	limiter  *worker.Limiter
	key      string
	log      *zap.Logger
}

// NewEvaluator creates an evaluator. key selects the limiter bucket; a nil
// limiter disables throttling.
func NewEvaluator(provider Provider, limiter *worker.Limiter, key string) *Evaluator {
	if key == "" {
		key = provider.Name()
	}
	return &Evaluator{
		provider: provider,
		limiter:  limiter,
		key:      key,
		log:      logger.Named("llm"),
	}
}

// Evaluate judges one answer against one provision
func (e *Evaluator) Evaluate(ctx context.Context, req EvaluationRequest) model.ComplianceJudgment {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx, e.key); err != nil {
			return e.failed(req, "call_error", callFailure(err))
		}
	}

	resp, err := e.provider.Complete(ctx, CompletionRequest{
		System: SystemPrompt,
		Prompt: BuildPrompt(req),
		JSON:   true,
	})
	if err != nil {
		return e.failed(req, "call_error", callFailure(err))
	}

	metrics.LLMTokensUsed.WithLabelValues(resp.Model, "prompt").Add(float64(resp.PromptTokens))
	metrics.LLMTokensUsed.WithLabelValues(resp.Model, "completion").Add(float64(resp.CompletionTokens))

	judgment, err := ParseJudgment(resp.Content)
	if err != nil {
		return e.failed(req, "parse_error", parseFailure(err))
	}

	judgment.ProvisionID = req.Provision.ID
	judgment.QuestionID = req.QuestionID
	judgment.Kind = req.Provision.Kind

	metrics.LLMEvaluations.WithLabelValues(e.provider.Name(), "ok").Inc()
	e.log.Debug("provision evaluated",
		zap.String("question", req.QuestionID),
		zap.String("provision", req.Provision.ID),
		zap.String("status", string(judgment.Status)),
		zap.Int("score", judgment.Score))

	return judgment
}

// EvaluateAll evaluates each complete request in order, skipping the rest.
// It stops early only when ctx is done.
func (e *Evaluator) EvaluateAll(ctx context.Context, reqs []EvaluationRequest) ([]model.ComplianceJudgment, error) {
	judgments := make([]model.ComplianceJudgment, 0, len(reqs))
	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			return judgments, err
		}
		if !req.Complete() {
			e.log.Warn("skipping incomplete evaluation request",
				zap.String("question", req.QuestionID),
				zap.String("provision", req.Provision.ID))
			continue
		}
		judgments = append(judgments, e.Evaluate(ctx, req))
	}
	return judgments, nil
}

func (e *Evaluator) failed(req EvaluationRequest, outcome string, j model.ComplianceJudgment) model.ComplianceJudgment {
	metrics.LLMEvaluations.WithLabelValues(e.provider.Name(), outcome).Inc()
	e.log.Warn("evaluation failed",
		zap.String("question", req.QuestionID),
		zap.String("provision", req.Provision.ID),
		zap.String("outcome", outcome),
		zap.String("rationale", j.Rationale))

	j.ProvisionID = req.Provision.ID
	j.QuestionID = req.QuestionID
	j.Kind = req.Provision.Kind
	return j
}

func callFailure(err error) model.ComplianceJudgment {
	return model.ComplianceJudgment{
		Status:          model.StatusInsufficientInfo,
		Confidence:      model.ConfidenceLow,
		Score:           0,
		Rationale:       fmt.Sprintf("Evaluation failed: %v", err),
		Recommendations: []string{"Retry evaluation"},
		CriticalIssues:  []string{"System evaluation error"},
		NextSteps:       []string{"Contact technical support"},
	}
}

func parseFailure(err error) model.ComplianceJudgment {
	return model.ComplianceJudgment{
		Status:          model.StatusInsufficientInfo,
		Confidence:      model.ConfidenceLow,
		Score:           0,
		Rationale:       fmt.Sprintf("Evaluation parsing failed: %v", err),
		Recommendations: []string{"Re-evaluate with clear evidence"},
		CriticalIssues:  []string{"Evaluation system error"},
		NextSteps:       []string{"Retry evaluation"},
	}
}

type evaluationPayload struct {
	Status          string   `json:"compliance_status"`
	Confidence      string   `json:"confidence_level"`
	Score           *float64 `json:"score"`
	Rationale       string   `json:"rationale"`
	Recommendations []string `json:"recommendations"`
	CriticalIssues  []string `json:"critical_issues"`
	NextSteps       []string `json:"next_steps"`
}

// evaluationEnvelope accepts the payload nested under "evaluation" or at top level
type evaluationEnvelope struct {
	Evaluation *evaluationPayload `json:"evaluation"`
	evaluationPayload
}

var statusReplacer = strings.NewReplacer("-", "_", " ", "_")

// ParseJudgment decodes the first {...} block of a model reply.
// Provision, question and kind are left for the caller to fill in.
func ParseJudgment(content string) (model.ComplianceJudgment, error) {
	var env evaluationEnvelope
	if err := decodeObject(content, &env); err != nil {
		return model.ComplianceJudgment{}, err
	}

	payload := env.evaluationPayload
	if env.Evaluation != nil {
		payload = *env.Evaluation
	}

	status := model.ComplianceStatus(statusReplacer.Replace(strings.ToUpper(strings.TrimSpace(payload.Status))))
	if !status.Valid() {
		return model.ComplianceJudgment{}, fmt.Errorf("unknown compliance status %q", payload.Status)
	}
	if payload.Score == nil {
		return model.ComplianceJudgment{}, errors.New("response has no score")
	}
	score := int(math.Round(*payload.Score))
	score = max(0, min(100, score))

	confidence := model.Confidence(strings.ToLower(strings.TrimSpace(payload.Confidence)))
	if confidence.Rank() == 0 {
		confidence = model.ConfidenceLow
	}

	return model.ComplianceJudgment{
		Status:          status,
		Confidence:      confidence,
		Score:           score,
		Rationale:       strings.TrimSpace(payload.Rationale),
		Recommendations: payload.Recommendations,
		CriticalIssues:  payload.CriticalIssues,
		NextSteps:       payload.NextSteps,
	}, nil
}

package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/certmap/internal/logger"
	"github.com/ppiankov/certmap/internal/metrics"
	"github.com/ppiankov/certmap/internal/model"
	"github.com/ppiankov/certmap/internal/worker"
)

// AnsweredQuestion is an answered question with the status its judgments reached
type AnsweredQuestion struct {
	ID       string
	Question string
	Answer   string
	Status   string // Empty when not evaluated
}

// OpenQuestion is an unanswered question with the provisions it maps to
type OpenQuestion struct {
	ID         string
	Question   string
	Provisions []string
}

// GapRequest is everything a gap analysis looks at
type GapRequest struct {
	Organization Organization
	Provisions   []model.Provision
	Answered     []AnsweredQuestion
	Unanswered   []OpenQuestion
	Status       model.CompletionStatus
}

// GapAnalyzer asks a Provider where an organization falls short of the standard.
// Like Evaluator it never returns errors; failures are reported in the result.
type GapAnalyzer struct {
	provider Provider
	limiter  *worker.Limiter
	key      string
	log      *zap.Logger
}

// NewGapAnalyzer creates a gap analyzer; key and limiter behave as in NewEvaluator
func NewGapAnalyzer(provider Provider, limiter *worker.Limiter, key string) *GapAnalyzer {
	if key == "" {
		key = provider.Name()
	}
	return &GapAnalyzer{
		provider: provider,
		limiter:  limiter,
		key:      key,
		log:      logger.Named("llm.gaps"),
	}
}

// Analyze runs the full gap analysis
func (g *GapAnalyzer) Analyze(ctx context.Context, req GapRequest) model.GapAnalysis {
	content, err := g.complete(ctx, BuildGapPrompt(req))
	if err != nil {
		g.failed("full", "call_error", err)
		return failedGapAnalysis(fmt.Sprintf("Gap analysis failed: %v", err), "Retry gap analysis with corrected data")
	}

	analysis, err := ParseGapAnalysis(content)
	if err != nil {
		g.failed("full", "parse_error", err)
		return failedGapAnalysis(fmt.Sprintf("Gap analysis parsing failed: %v", err), "Retry gap analysis")
	}

	metrics.GapAnalyses.WithLabelValues("full", "ok").Inc()
	g.log.Debug("gap analysis complete",
		zap.Int("gaps", len(analysis.Gaps)),
		zap.String("readiness", analysis.Summary.CertificationReadiness))
	return analysis
}

// QuickAssess produces the short planning view
func (g *GapAnalyzer) QuickAssess(ctx context.Context, company string, status model.CompletionStatus, provisions []model.Provision) model.QuickGapAssessment {
	content, err := g.complete(ctx, BuildQuickGapPrompt(company, status, provisions))
	if err == nil {
		var quick model.QuickGapAssessment
		quick, err = ParseQuickGapAssessment(content)
		if err == nil {
			metrics.GapAnalyses.WithLabelValues("quick", "ok").Inc()
			return quick
		}
		g.failed("quick", "parse_error", err)
	} else {
		g.failed("quick", "call_error", err)
	}

	return model.QuickGapAssessment{
		CertificationBlockers: []string{fmt.Sprintf("Assessment failed: %v", err)},
		TopPriorities:         []string{"Fix assessment system"},
		QuickWins:             []string{"Retry assessment"},
		ReadinessTimeline:     "Unknown",
		NextSteps:             []string{"Contact technical support"},
		RiskSummary:           "Cannot assess risk due to system error",
		Error:                 err.Error(),
	}
}

func (g *GapAnalyzer) complete(ctx context.Context, prompt string) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx, g.key); err != nil {
			return "", err
		}
	}

	resp, err := g.provider.Complete(ctx, CompletionRequest{
		System: GapSystemPrompt,
		Prompt: prompt,
		JSON:   true,
	})
	if err != nil {
		return "", err
	}

	metrics.LLMTokensUsed.WithLabelValues(resp.Model, "prompt").Add(float64(resp.PromptTokens))
	metrics.LLMTokensUsed.WithLabelValues(resp.Model, "completion").Add(float64(resp.CompletionTokens))
	return resp.Content, nil
}

func (g *GapAnalyzer) failed(kind, outcome string, err error) {
	metrics.GapAnalyses.WithLabelValues(kind, outcome).Inc()
	g.log.Warn("gap analysis failed",
		zap.String("kind", kind),
		zap.String("outcome", outcome),
		zap.Error(err))
}

func failedGapAnalysis(msg, recommendation string) model.GapAnalysis {
	return model.GapAnalysis{
		Summary:         model.GapSummary{GapsBySeverity: map[model.GapSeverity]int{}},
		Gaps:            []model.Gap{},
		Coverage:        map[string]model.CategoryCoverage{},
		Roadmap:         map[string]model.RemediationPhase{},
		Recommendations: []string{recommendation},
		Error:           msg,
	}
}

type gapPayload struct {
	Summary struct {
		TotalProvisions          int            `json:"total_provisions"`
		AddressedProvisions      int            `json:"addressed_provisions"`
		GapsBySeverity           map[string]int `json:"gap_count_by_severity"`
		CertificationReadiness   string         `json:"certification_readiness"`
		EstimatedRemediationTime string         `json:"estimated_remediation_time"`
	} `json:"executive_summary"`
	Gaps            []model.Gap                       `json:"identified_gaps"`
	Coverage        map[string]model.CategoryCoverage `json:"coverage_by_category"`
	Roadmap         map[string]model.RemediationPhase `json:"remediation_roadmap"`
	Resources       model.ResourceRequirements        `json:"resource_requirements"`
	Recommendations []string                          `json:"recommendations"`
}

// ParseGapAnalysis decodes the "gap_analysis" object in the first {...} block of a reply.
// Every gap must name its provision.
func ParseGapAnalysis(content string) (model.GapAnalysis, error) {
	var env struct {
		GapAnalysis *gapPayload `json:"gap_analysis"`
	}
	if err := decodeObject(content, &env); err != nil {
		return model.GapAnalysis{}, err
	}
	if env.GapAnalysis == nil {
		return model.GapAnalysis{}, errors.New("response has no gap_analysis object")
	}
	p := env.GapAnalysis

	analysis := model.GapAnalysis{
		Summary: model.GapSummary{
			TotalProvisions:          p.Summary.TotalProvisions,
			AddressedProvisions:      p.Summary.AddressedProvisions,
			GapsBySeverity:           make(map[model.GapSeverity]int, len(p.Summary.GapsBySeverity)),
			CertificationReadiness:   strings.ToLower(strings.TrimSpace(p.Summary.CertificationReadiness)),
			EstimatedRemediationTime: p.Summary.EstimatedRemediationTime,
		},
		Gaps:            make([]model.Gap, 0, len(p.Gaps)),
		Coverage:        p.Coverage,
		Roadmap:         p.Roadmap,
		Resources:       p.Resources,
		Recommendations: p.Recommendations,
	}
	for severity, n := range p.Summary.GapsBySeverity {
		analysis.Summary.GapsBySeverity[model.GapSeverity(strings.ToLower(severity))] += n
	}
	for i, gap := range p.Gaps {
		gap.ProvisionID = strings.TrimSpace(gap.ProvisionID)
		if gap.ProvisionID == "" {
			return model.GapAnalysis{}, fmt.Errorf("gap %d has no provision_id", i+1)
		}
		gap.Severity = model.GapSeverity(strings.ToLower(strings.TrimSpace(string(gap.Severity))))
		analysis.Gaps = append(analysis.Gaps, gap)
	}
	if analysis.Coverage == nil {
		analysis.Coverage = map[string]model.CategoryCoverage{}
	}
	if analysis.Roadmap == nil {
		analysis.Roadmap = map[string]model.RemediationPhase{}
	}
	if analysis.Recommendations == nil {
		analysis.Recommendations = []string{}
	}
	return analysis, nil
}

// ParseQuickGapAssessment decodes the "quick_gap_assessment" object of a reply
func ParseQuickGapAssessment(content string) (model.QuickGapAssessment, error) {
	var env struct {
		Quick *model.QuickGapAssessment `json:"quick_gap_assessment"`
	}
	if err := decodeObject(content, &env); err != nil {
		return model.QuickGapAssessment{}, err
	}
	if env.Quick == nil {
		return model.QuickGapAssessment{}, errors.New("response has no quick_gap_assessment object")
	}
	return *env.Quick, nil
}

// decodeObject unmarshals the text between the first '{' and the last '}'
func decodeObject(content string, v any) error {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return errors.New("no JSON object in response")
	}
	if err := json.Unmarshal([]byte(content[start:end+1]), v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

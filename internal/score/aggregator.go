package score

import (
	"fmt"
	"strings"

	"github.com/ppiankov/certmap/internal/model"
)

// Certification thresholds on the overall score
const (
	PassThreshold        = 80
	ConditionalThreshold = 60
	StrengthThreshold    = 90
)

// Aggregator rolls per-provision compliance judgments up into an overall assessment
type Aggregator struct {
	kinds map[string]model.RequirementKind
}

// NewAggregator creates a new aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// WithKinds returns an aggregator that resolves requirement kinds by provision id
// for judgments that do not carry one
func (a *Aggregator) WithKinds(kinds map[string]model.RequirementKind) *Aggregator {
	return &Aggregator{kinds: kinds}
}

// IsMandatory decides whether a judgment concerns a "shall" provision.
// The judgment's own kind wins, then the kind lookup, then a "shall" marker in the id.
func (a *Aggregator) IsMandatory(j model.ComplianceJudgment) bool {
	if j.Kind != "" {
		return j.Kind.IsMandatory()
	}
	if kind, ok := a.kinds[j.ProvisionID]; ok {
		return kind.IsMandatory()
	}
	return strings.Contains(strings.ToLower(j.ProvisionID), "shall")
}

// Aggregate computes the overall score and certification recommendation
func (a *Aggregator) Aggregate(judgments []model.ComplianceJudgment) model.OverallAssessment {
	assessment := model.OverallAssessment{
		CriticalGaps:            []string{},
		PriorityRecommendations: []string{},
		Strengths:               []string{},
	}

	if len(judgments) == 0 {
		assessment.Recommendation = model.RecommendInsufficientData
		assessment.Signals = []model.Signal{{
			Type:        model.SignalInsufficientData,
			Severity:    model.SeverityCritical,
			Description: "No compliance judgments supplied",
			Data:        map[string]interface{}{"judgments": 0},
		}}
		return assessment
	}

	assessment.Total = len(judgments)
	sum := 0
	gaps := newOrderedSet()
	recs := newOrderedSet()

	for _, j := range judgments {
		switch j.Status {
		case model.StatusCompliant:
			assessment.CompliantCount++
		case model.StatusPartial:
			assessment.PartialCount++
		case model.StatusNonCompliant:
			assessment.NonCompliantCount++
		case model.StatusInsufficientInfo:
			assessment.InsufficientInfoCount++
		}

		if a.IsMandatory(j) {
			assessment.ShallTotal++
			if j.Status == model.StatusCompliant {
				assessment.ShallCompliant++
			}
		}

		sum += j.Score
		gaps.add(j.CriticalIssues...)
		recs.add(j.Recommendations...)

		if j.Status == model.StatusCompliant && j.Score >= StrengthThreshold {
			assessment.Strengths = append(assessment.Strengths, fmt.Sprintf("%s: Excellent compliance", j.ProvisionID))
		}
	}

	// Truncating division
	assessment.OverallScore = sum / len(judgments)
	assessment.Recommendation = recommend(assessment.OverallScore, assessment.ShallCompliant == assessment.ShallTotal)
	assessment.CriticalGaps = gaps.items
	assessment.PriorityRecommendations = recs.items

	assessment.Signals = []model.Signal{
		scoreSignal(sum, len(judgments), assessment.OverallScore, assessment.Recommendation),
		mandatorySignal(assessment.ShallCompliant, assessment.ShallTotal),
		distributionSignal(assessment),
	}
	return assessment
}

// recommend applies the thresholds in strict order; any non-compliant mandatory judgment fails
func recommend(score int, mandatoryCompliant bool) model.Recommendation {
	switch {
	case mandatoryCompliant && score >= PassThreshold:
		return model.RecommendPass
	case mandatoryCompliant && score >= ConditionalThreshold:
		return model.RecommendConditional
	default:
		return model.RecommendFail
	}
}

func scoreSignal(sum, count, score int, rec model.Recommendation) model.Signal {
	severity := model.SeverityInfo
	switch rec {
	case model.RecommendConditional:
		severity = model.SeverityWarning
	case model.RecommendFail:
		severity = model.SeverityCritical
	}

	return model.Signal{
		Type:        model.SignalScoreFormula,
		Severity:    severity,
		Description: fmt.Sprintf("Overall score %d from %d judgments", score, count),
		Data: map[string]interface{}{
			"sum":       sum,
			"judgments": count,
			"score":     score,
			"formula":   "floor(sum(scores) / judgments)",
			"pass":      PassThreshold,
			"condition": ConditionalThreshold,
		},
	}
}

func mandatorySignal(compliant, total int) model.Signal {
	severity := model.SeverityInfo
	if compliant < total {
		severity = model.SeverityCritical
	}

	return model.Signal{
		Type:        model.SignalMandatoryCoverage,
		Severity:    severity,
		Description: fmt.Sprintf("Mandatory provisions compliant: %d of %d", compliant, total),
		Data: map[string]interface{}{
			"shall_total":     total,
			"shall_compliant": compliant,
		},
	}
}

func distributionSignal(a model.OverallAssessment) model.Signal {
	severity := model.SeverityInfo
	if a.NonCompliantCount > 0 || a.InsufficientInfoCount > 0 {
		severity = model.SeverityWarning
	}

	return model.Signal{
		Type:     model.SignalStatusDistribution,
		Severity: severity,
		Description: fmt.Sprintf("Judgments: %d compliant, %d partial, %d non-compliant, %d insufficient info",
			a.CompliantCount, a.PartialCount, a.NonCompliantCount, a.InsufficientInfoCount),
		Data: map[string]interface{}{
			"compliant":         a.CompliantCount,
			"partial":           a.PartialCount,
			"non_compliant":     a.NonCompliantCount,
			"insufficient_info": a.InsufficientInfoCount,
			"total":             a.Total,
		},
	}
}

// orderedSet deduplicates strings, keeping first-seen order
type orderedSet struct {
	seen  map[string]bool
	items []string
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]bool), items: []string{}}
}

func (s *orderedSet) add(values ...string) {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || s.seen[v] {
			continue
		}
		s.seen[v] = true
		s.items = append(s.items, v)
	}
}

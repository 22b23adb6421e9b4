package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/certmap/internal/model"
)

const footer = "\n---\n_Generated by certmap. Mappings are keyword and category heuristics; an assessor makes the final call._\n"

// Renderer writes mapping and assessment reports as JSON, Markdown or a console summary
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes any report as indented JSON
func (r *Renderer) RenderJSON(report any, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMappingMarkdown writes a mapping report as Markdown
func (r *Renderer) RenderMappingMarkdown(report *model.MappingReport, path string) error {
	return writeFile(path, []byte(r.MappingMarkdown(report)))
}

// RenderAssessmentMarkdown writes an assessment report as Markdown
func (r *Renderer) RenderAssessmentMarkdown(report *model.AssessmentReport, path string) error {
	return writeFile(path, []byte(r.AssessmentMarkdown(report)))
}

// RenderGapMarkdown writes a gap report as Markdown
func (r *Renderer) RenderGapMarkdown(report *model.GapReport, path string) error {
	return writeFile(path, []byte(r.GapMarkdown(report)))
}

// MappingMarkdown renders a mapping report
func (r *Renderer) MappingMarkdown(report *model.MappingReport) string {
	var b strings.Builder

	b.WriteString("# Question to Provision Mapping\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", report.RunID)
	fmt.Fprintf(&b, "- Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	if report.Corpus.Source != "" {
		fmt.Fprintf(&b, "- Corpus: %s (%d provisions, fingerprint `%s`)\n", report.Corpus.Source, report.Corpus.Provisions, shortFingerprint(report.Corpus.Fingerprint))
	}
	b.WriteString("\n")

	s := report.Stats
	b.WriteString("## Statistics\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Questions | %d |\n", s.TotalQuestions)
	fmt.Fprintf(&b, "| High confidence | %d |\n", s.HighConfidence)
	fmt.Fprintf(&b, "| Medium confidence | %d |\n", s.MediumConfidence)
	fmt.Fprintf(&b, "| Low confidence | %d |\n", s.LowConfidence)
	fmt.Fprintf(&b, "| Unmapped | %d |\n", s.Unmapped)
	fmt.Fprintf(&b, "| Shall mappings | %d |\n", s.MandatoryMappings)
	fmt.Fprintf(&b, "| Should mappings | %d |\n", s.RecommendedMappings)
	fmt.Fprintf(&b, "| Success rate | %.1f%% |\n\n", s.SuccessRate*100)

	b.WriteString("## Questions\n\n")
	for _, result := range report.Results {
		fmt.Fprintf(&b, "### %s (%s)\n\n", orDash(result.QuestionID), result.Confidence)
		fmt.Fprintf(&b, "%s\n\n", result.Notes)
		if len(result.Mappings) == 0 {
			continue
		}
		b.WriteString("| Provision | Kind | Confidence | Rationale |\n|---|---|---|---|\n")
		for _, m := range result.Mappings {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", m.ProvisionID, m.Kind, m.Confidence, escapeCell(m.Rationale))
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString(footer)
	}
	return b.String()
}

// AssessmentMarkdown renders an assessment report
func (r *Renderer) AssessmentMarkdown(report *model.AssessmentReport) string {
	var b strings.Builder
	a := report.Assessment

	b.WriteString("# Compliance Assessment\n\n")
	fmt.Fprintf(&b, "**Recommendation: %s** (overall score %d/100)\n\n", a.Recommendation, a.OverallScore)

	b.WriteString("| Status | Count |\n|---|---|\n")
	fmt.Fprintf(&b, "| Compliant | %d |\n", a.CompliantCount)
	fmt.Fprintf(&b, "| Partial | %d |\n", a.PartialCount)
	fmt.Fprintf(&b, "| Non-compliant | %d |\n", a.NonCompliantCount)
	fmt.Fprintf(&b, "| Insufficient info | %d |\n", a.InsufficientInfoCount)
	fmt.Fprintf(&b, "| Shall provisions compliant | %d of %d |\n\n", a.ShallCompliant, a.ShallTotal)

	writeList(&b, "Critical gaps", a.CriticalGaps)
	writeList(&b, "Priority recommendations", a.PriorityRecommendations)
	writeList(&b, "Strengths", a.Strengths)

	if len(report.Judgments) > 0 {
		b.WriteString("## Judgments\n\n")
		b.WriteString("| Provision | Question | Status | Score | Rationale |\n|---|---|---|---|---|\n")
		for _, j := range report.Judgments {
			fmt.Fprintf(&b, "| %s | %s | %s | %d | %s |\n", j.ProvisionID, orDash(j.QuestionID), j.Status, j.Score, escapeCell(j.Rationale))
		}
		b.WriteString("\n")
	}

	if len(a.Signals) > 0 {
		b.WriteString("## Signals\n\n")
		for _, s := range a.Signals {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n", s.Type, s.Severity, s.Description)
		}
		b.WriteString("\n")
	}

	if r.includeFooter {
		b.WriteString(footer)
	}
	return b.String()
}

// GapMarkdown renders a gap report, full or quick
func (r *Renderer) GapMarkdown(report *model.GapReport) string {
	var b strings.Builder

	b.WriteString("# Gap Analysis\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", report.RunID)
	fmt.Fprintf(&b, "- Generated: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "- Answered: %d of %d questions (%.0f%%)\n\n",
		report.Status.AnsweredQuestions, report.Status.TotalQuestions, report.Status.CompletionRate*100)

	if a := report.Analysis; a != nil {
		if a.Error != "" {
			fmt.Fprintf(&b, "> **Analysis failed:** %s\n\n", a.Error)
		}
		if a.Summary.CertificationReadiness != "" {
			fmt.Fprintf(&b, "**Readiness: %s**", a.Summary.CertificationReadiness)
			if a.Summary.EstimatedRemediationTime != "" {
				fmt.Fprintf(&b, " (estimated remediation %s)", a.Summary.EstimatedRemediationTime)
			}
			b.WriteString("\n\n")
		}

		b.WriteString("| Severity | Gaps |\n|---|---|\n")
		for _, severity := range []model.GapSeverity{model.GapCritical, model.GapHigh, model.GapMedium, model.GapLow} {
			fmt.Fprintf(&b, "| %s | %d |\n", severity, a.Summary.GapsBySeverity[severity])
		}
		b.WriteString("\n")

		if len(a.Gaps) > 0 {
			b.WriteString("## Gaps\n\n")
			for _, gap := range a.Gaps {
				fmt.Fprintf(&b, "### %s (%s)\n\n", gap.ProvisionID, orDash(string(gap.Severity)))
				if gap.Description != "" {
					fmt.Fprintf(&b, "%s\n\n", gap.Description)
				}
				plan := gap.Remediation
				writeSubList(&b, "Immediate actions", plan.ImmediateActions)
				writeSubList(&b, "Short-term actions", plan.ShortTermActions)
				writeSubList(&b, "Long-term actions", plan.LongTermActions)
				writeSubList(&b, "Verification", plan.VerificationSteps)
				writeSubList(&b, "Quick wins", gap.QuickWins)
			}
		}
		writeList(&b, "Recommendations", a.Recommendations)
	}

	if q := report.Quick; q != nil {
		if q.Error != "" {
			fmt.Fprintf(&b, "> **Assessment failed:** %s\n\n", q.Error)
		}
		if q.ReadinessTimeline != "" {
			fmt.Fprintf(&b, "**Estimated readiness: %s**\n\n", q.ReadinessTimeline)
		}
		writeList(&b, "Certification blockers", q.CertificationBlockers)
		writeList(&b, "Top priorities", q.TopPriorities)
		writeList(&b, "Quick wins", q.QuickWins)
		writeList(&b, "Next steps", q.NextSteps)
		if q.RiskSummary != "" {
			fmt.Fprintf(&b, "## Risk\n\n%s\n\n", q.RiskSummary)
		}
	}

	if r.includeFooter {
		b.WriteString(footer)
	}
	return b.String()
}

// MappingSummary prints a short console summary
func (r *Renderer) MappingSummary(w io.Writer, report *model.MappingReport) {
	s := report.Stats
	_, _ = fmt.Fprintf(w, "\n")
	_, _ = fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	_, _ = fmt.Fprintf(w, "  Mapping Summary\n")
	_, _ = fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	_, _ = fmt.Fprintf(w, "\n")
	_, _ = fmt.Fprintf(w, "  Questions:      %d\n", s.TotalQuestions)
	_, _ = fmt.Fprintf(w, "  High / Med / Low: %d / %d / %d\n", s.HighConfidence, s.MediumConfidence, s.LowConfidence)
	_, _ = fmt.Fprintf(w, "  Unmapped:       %d\n", s.Unmapped)
	_, _ = fmt.Fprintf(w, "  Success rate:   %.1f%%\n", s.SuccessRate*100)
	_, _ = fmt.Fprintf(w, "\n")
}

// AssessmentSummary prints a short console summary
func (r *Renderer) AssessmentSummary(w io.Writer, report *model.AssessmentReport) {
	a := report.Assessment
	_, _ = fmt.Fprintf(w, "\n")
	_, _ = fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	_, _ = fmt.Fprintf(w, "  Assessment: %s (%d/100)\n", a.Recommendation, a.OverallScore)
	_, _ = fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	_, _ = fmt.Fprintf(w, "\n")
	_, _ = fmt.Fprintf(w, "  Judgments:      %d\n", a.Total)
	_, _ = fmt.Fprintf(w, "  Shall compliant: %d of %d\n", a.ShallCompliant, a.ShallTotal)
	for _, gap := range a.CriticalGaps {
		_, _ = fmt.Fprintf(w, "  ✗ %s\n", gap)
	}
	for _, s := range a.Strengths {
		_, _ = fmt.Fprintf(w, "  ✓ %s\n", s)
	}
	_, _ = fmt.Fprintf(w, "\n")
}

// GapSummary prints a short console summary
func (r *Renderer) GapSummary(w io.Writer, report *model.GapReport) {
	_, _ = fmt.Fprintf(w, "\n")
	_, _ = fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	_, _ = fmt.Fprintf(w, "  Gap Analysis\n")
	_, _ = fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	_, _ = fmt.Fprintf(w, "\n")
	_, _ = fmt.Fprintf(w, "  Answered:       %d of %d\n", report.Status.AnsweredQuestions, report.Status.TotalQuestions)
	if a := report.Analysis; a != nil {
		if a.Error != "" {
			_, _ = fmt.Fprintf(w, "  ✗ %s\n", a.Error)
		}
		_, _ = fmt.Fprintf(w, "  Gaps:           %d\n", len(a.Gaps))
		if a.Summary.CertificationReadiness != "" {
			_, _ = fmt.Fprintf(w, "  Readiness:      %s\n", a.Summary.CertificationReadiness)
		}
	}
	if q := report.Quick; q != nil {
		if q.Error != "" {
			_, _ = fmt.Fprintf(w, "  ✗ %s\n", q.Error)
		}
		_, _ = fmt.Fprintf(w, "  Blockers:       %d\n", len(q.CertificationBlockers))
		_, _ = fmt.Fprintf(w, "  Readiness:      %s\n", orDash(q.ReadinessTimeline))
	}
	_, _ = fmt.Fprintf(w, "\n")
}

func writeSubList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s**\n\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func writeList(b *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "## %s\n\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

var cellReplacer = strings.NewReplacer("|", "\\|", "\n", " ")

func escapeCell(s string) string {
	return cellReplacer.Replace(s)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}

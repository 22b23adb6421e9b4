package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/certmap/internal/model"
)

// SystemPrompt frames the model as a certification auditor
const SystemPrompt = `You are an accredited cybersecurity auditor assessing an organization for a national cybersecurity self-certification.
You judge one answer against one numbered provision at a time.

Rules:
1. "shall" provisions are mandatory; a gap in one fails certification. "should" provisions are recommended.
2. Only specific, verifiable evidence counts. A policy that exists is not the same as a control that is implemented.
3. Planned or partial implementations are not compliant.
4. Be conservative: when the answer does not let you decide, report INSUFFICIENT_INFO.

Statuses:
- COMPLIANT: fully meets the provision with sufficient evidence
- PARTIAL: meets part of the provision, or evidence is thin
- NON_COMPLIANT: does not meet the provision
- INSUFFICIENT_INFO: the answer is too vague to judge

Reply with a single JSON object and nothing else.`

// BuildPrompt renders the user message for one evaluation
func BuildPrompt(req EvaluationRequest) string {
	var b strings.Builder

	b.WriteString("Evaluate the organization's answer against the provision below.\n\n")

	b.WriteString("Answer:\n")
	fmt.Fprintf(&b, "- Question: %s\n", req.Question)
	fmt.Fprintf(&b, "- Answer: %s\n", req.Answer)
	fmt.Fprintf(&b, "- Evidence files: %s\n", listOrNone(req.EvidenceFiles))
	fmt.Fprintf(&b, "- Answered by: %s\n", orUnknown(req.AnsweredBy))
	fmt.Fprintf(&b, "- Respondent confidence: %s\n\n", orUnknown(req.AnswerConfidence))

	b.WriteString("Provision:\n")
	fmt.Fprintf(&b, "- ID: %s\n", req.Provision.ID)
	fmt.Fprintf(&b, "- Text: %s\n", req.Provision.Text)
	fmt.Fprintf(&b, "- Requirement type: %s\n\n", requirementWord(req.Provision.Kind))

	b.WriteString("Organization:\n")
	fmt.Fprintf(&b, "- Company: %s\n", orUnknown(req.Organization.Company))
	fmt.Fprintf(&b, "- Industry: %s\n", orUnknown(req.Organization.Industry))
	fmt.Fprintf(&b, "- Scope: %s\n\n", orUnknown(req.Organization.Scope))

	b.WriteString(`Respond with:
{
  "evaluation": {
    "compliance_status": "COMPLIANT|PARTIAL|NON_COMPLIANT|INSUFFICIENT_INFO",
    "confidence_level": "high|medium|low",
    "score": 0-100,
    "rationale": "why this status was reached",
    "recommendations": ["steps to reach or keep compliance"],
    "critical_issues": ["gaps that block certification"],
    "next_steps": ["concrete next actions"]
  }
}`)

	return b.String()
}

func requirementWord(kind model.RequirementKind) string {
	if kind.IsMandatory() {
		return "shall (mandatory)"
	}
	return "should (recommended)"
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "not provided"
	}
	return s
}

// GapSystemPrompt frames the model as a certification consultant planning remediation
const GapSystemPrompt = `You are a cybersecurity consultant preparing an organization for a national cybersecurity self-certification.
You find the provisions the organization does not meet yet and plan how to close each gap.

Gap severities:
- critical: a "shall" provision is not addressed at all; certification is blocked
- high: a "shall" provision is only partly implemented
- medium: a "should" provision is missing, or a "shall" provision has minor gaps
- low: an improvement beyond what the standard requires

Plan remediation the organization can realistically carry out given its size and technical maturity.
Pair quick wins with longer-term work, say how closing each gap will be verified, and note gaps that depend on others.

Reply with a single JSON object and nothing else.`

// BuildGapPrompt renders the user message for a full gap analysis
func BuildGapPrompt(req GapRequest) string {
	var b strings.Builder

	b.WriteString("Perform a gap analysis for the organization below.\n\n")

	org := req.Organization
	b.WriteString("Organization:\n")
	fmt.Fprintf(&b, "- Company: %s\n", orUnknown(org.Company))
	fmt.Fprintf(&b, "- Industry: %s\n", orUnknown(org.Industry))
	fmt.Fprintf(&b, "- Size: %s\n", orUnknown(org.Size))
	fmt.Fprintf(&b, "- Technical maturity: %s\n", orDefault(org.TechnicalMaturity, "medium"))
	fmt.Fprintf(&b, "- Certification scope: %s\n\n", orUnknown(org.Scope))

	b.WriteString("Assessment status:\n")
	writeCompletion(&b, req.Status)

	b.WriteString("Provisions:\n")
	writeProvisions(&b, req.Provisions)

	b.WriteString("Answered questions:\n")
	if len(req.Answered) == 0 {
		b.WriteString("No answered questions available\n")
	}
	for _, q := range req.Answered {
		fmt.Fprintf(&b, "Question %s: %s\n", orUnknown(q.ID), q.Question)
		fmt.Fprintf(&b, "Answer: %s\n", q.Answer)
		fmt.Fprintf(&b, "Compliance status: %s\n\n", orDefault(q.Status, "not evaluated"))
	}
	b.WriteString("\n")

	b.WriteString("Unanswered questions:\n")
	if len(req.Unanswered) == 0 {
		b.WriteString("All questions have been answered\n")
	}
	for _, q := range req.Unanswered {
		fmt.Fprintf(&b, "- Question %s: %s\n", orUnknown(q.ID), q.Question)
		if len(q.Provisions) > 0 {
			fmt.Fprintf(&b, "  Related provisions: %s\n", strings.Join(q.Provisions, ", "))
		}
	}
	b.WriteString("\n")

	b.WriteString(`Respond with:
{
  "gap_analysis": {
    "executive_summary": {
      "total_provisions": 0,
      "addressed_provisions": 0,
      "gap_count_by_severity": {"critical": 0, "high": 0, "medium": 0, "low": 0},
      "certification_readiness": "ready|needs_work|significant_gaps",
      "estimated_remediation_time": "weeks or months"
    },
    "identified_gaps": [
      {
        "provision_id": "A.x.y",
        "provision_text": "provision text",
        "gap_severity": "critical|high|medium|low",
        "gap_description": "what is missing or inadequate",
        "risk_impact": "risk if the gap stays open",
        "current_status": "not_addressed|partially_addressed|inadequately_addressed",
        "remediation_plan": {
          "immediate_actions": ["within 1-2 weeks"],
          "short_term_actions": ["within 1-3 months"],
          "long_term_actions": ["after 3 months"],
          "verification_steps": ["how closure is verified"],
          "estimated_effort": "hours, days or weeks",
          "required_resources": ["people, tools, budget"],
          "success_criteria": "measurable criterion"
        },
        "dependencies": ["provisions to address first"],
        "quick_wins": ["easy immediate improvements"]
      }
    ],
    "coverage_by_category": {"A.1": {"covered": 0, "total": 0, "gaps": ["provision ids"]}},
    "remediation_roadmap": {
      "phase_1_critical": {"timeline": "", "actions": [], "success_criteria": []},
      "phase_2_high": {"timeline": "", "actions": [], "success_criteria": []},
      "phase_3_enhancement": {"timeline": "", "actions": [], "success_criteria": []}
    },
    "resource_requirements": {
      "personnel": [], "tools_software": [], "training": [], "external_support": [],
      "estimated_budget": ""
    },
    "recommendations": ["strategic recommendations"]
  }
}`)

	return b.String()
}

// BuildQuickGapPrompt renders the user message for a quick gap assessment
func BuildQuickGapPrompt(company string, status model.CompletionStatus, provisions []model.Provision) string {
	var b strings.Builder

	b.WriteString("Give a rapid gap assessment for immediate planning.\n\n")
	fmt.Fprintf(&b, "Organization: %s\n\n", orUnknown(company))

	b.WriteString("Assessment status:\n")
	writeCompletion(&b, status)

	b.WriteString("Provisions:\n")
	writeProvisions(&b, provisions)

	b.WriteString(`Respond with:
{
  "quick_gap_assessment": {
    "certification_blockers": ["gaps that prevent certification"],
    "top_5_priorities": ["most important gaps to address now"],
    "quick_wins": ["improvements possible this week"],
    "estimated_readiness_timeline": "weeks or months until ready",
    "next_steps": ["immediate next steps"],
    "risk_summary": "overall risk level and key concerns"
  }
}`)

	return b.String()
}

func writeCompletion(b *strings.Builder, s model.CompletionStatus) {
	fmt.Fprintf(b, "- Total questions: %d\n", s.TotalQuestions)
	fmt.Fprintf(b, "- Answered questions: %d\n", s.AnsweredQuestions)
	fmt.Fprintf(b, "- Completion rate: %.0f%%\n\n", s.CompletionRate*100)
}

func writeProvisions(b *strings.Builder, provisions []model.Provision) {
	if len(provisions) == 0 {
		b.WriteString("No provisions data available\n\n")
		return
	}
	for _, p := range provisions {
		fmt.Fprintf(b, "- %s [%s]: %s\n", p.ID, requirementWord(p.Kind), p.Text)
	}
	b.WriteString("\n")
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

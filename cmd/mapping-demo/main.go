// Demo program that maps a handful of sample questions against a small
// provision corpus and aggregates a sample set of judgments.
package main

import (
	"fmt"
	"strings"

	"github.com/ppiankov/certmap/internal/index"
	"github.com/ppiankov/certmap/internal/mapper"
	"github.com/ppiankov/certmap/internal/model"
	"github.com/ppiankov/certmap/internal/score"
)

func main() {
	fmt.Println("=== Question Mapping Demo ===")
	fmt.Println()

	idx := index.Build([]model.Provision{
		{ID: "A.1.4a", Text: "Employees shall be made aware of cybersecurity threats through training.", Kind: model.KindMandatory},
		{ID: "A.2.1", Text: "An up-to-date asset inventory of hardware and software shall be maintained.", Kind: model.KindMandatory},
		{ID: "A.5.3", Text: "Multi-factor authentication should be enabled for administrator accounts.", Kind: model.KindRecommended},
		{ID: "A.8.1", Text: "Essential business data shall be backed up regularly.", Kind: model.KindMandatory},
	}, nil)
	m := mapper.New(idx)

	questions := []model.Question{
		{ID: "Q1", Text: "Do you conduct annual cybersecurity training for employees?"},
		{ID: "Q2", Text: "Who keeps the list of laptops and servers?", Tag: "HW/SW INV"},
		{ID: "Q3", Text: "How are administrators signed in?", Audience: model.AudienceIT},
		{ID: "Q4", Text: "What happens if the office floods?", NamedCategory: "backup"},
		{ID: "Q5", Text: "What colour is the logo?"},
	}

	for _, result := range m.MapQuestions(questions) {
		fmt.Printf("%s: %s (%s)\n", result.QuestionID, result.Notes, result.Confidence)
		fmt.Println(strings.Repeat("-", 60))
		for _, pm := range result.Mappings {
			fmt.Printf("  %-8s %-6s %s\n", pm.ProvisionID, pm.Confidence, pm.Rationale)
		}
		fmt.Println()
	}

	fmt.Println("=== Assessment Demo ===")
	fmt.Println()

	assessment := score.NewAggregator().WithKinds(idx.Kinds()).Aggregate([]model.ComplianceJudgment{
		{ProvisionID: "A.1.4a", Status: model.StatusCompliant, Score: 92},
		{ProvisionID: "A.2.1", Status: model.StatusCompliant, Score: 85},
		{ProvisionID: "A.5.3", Status: model.StatusPartial, Score: 60, Recommendations: []string{"Enable MFA for all admin accounts"}},
		{ProvisionID: "A.8.1", Status: model.StatusCompliant, Score: 88},
	})

	fmt.Printf("Recommendation: %s (score %d/100)\n", assessment.Recommendation, assessment.OverallScore)
	fmt.Printf("Shall provisions compliant: %d of %d\n", assessment.ShallCompliant, assessment.ShallTotal)
	for _, s := range assessment.Strengths {
		fmt.Printf("  ✓ %s\n", s)
	}
	for _, r := range assessment.PriorityRecommendations {
		fmt.Printf("  → %s\n", r)
	}
}

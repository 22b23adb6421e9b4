package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/certmap/internal/corpus"
	"github.com/ppiankov/certmap/internal/model"
	"github.com/ppiankov/certmap/internal/pipeline"
)

var (
	judgmentsPath string
	quickAnalysis bool
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <answers file>",
	Short: "Find certification gaps and plan remediation with an LLM",
	Long: `Analyze sends the questionnaire, the provision corpus and any judgments from
evaluate to an OpenAI-compatible model and asks where the organization falls
short, how severe each gap is and how to close it.

Questions with an empty answer count as unanswered; they are mapped to
provisions first so the model knows what they leave open. With --quick only
blockers, priorities and quick wins are produced.

A failed or unparseable reply is reported in the error field of the report
rather than failing the command.

Example:
  certmap analyze answers.yaml -p provisions.yaml --judgments judgments.json --llm-provider openai
  certmap analyze answers.yaml -p provisions.yaml --quick --company "Acme Pte Ltd" --md gaps.md`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&judgmentsPath, "judgments", "", "judgments from evaluate (.yaml or .json)")
	analyzeCmd.Flags().BoolVar(&quickAnalysis, "quick", false, "produce the short planning view only")
	analyzeCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path")
	analyzeCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	analyzeCmd.Flags().DurationVar(&evalTimeout, "timeout", 10*time.Minute, "total timeout for the analysis")
	analyzeCmd.Flags().StringVar(&evalProvider, "llm-provider", "", "LLM provider (openai, ollama); default from config")
	analyzeCmd.Flags().StringVar(&evalModel, "llm-model", "", "LLM model name; default from config")
	analyzeCmd.Flags().StringVar(&org.Company, "company", "", "company name")
	analyzeCmd.Flags().StringVar(&org.Industry, "industry", "", "industry")
	analyzeCmd.Flags().StringVar(&org.Size, "size", "", "company size (e.g. small, medium)")
	analyzeCmd.Flags().StringVar(&org.TechnicalMaturity, "maturity", "", "technical maturity (low, medium, high)")
	analyzeCmd.Flags().StringVar(&org.Scope, "scope", "", "certification scope description")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if err := requireProvisions(); err != nil {
		return err
	}
	if quickAnalysis && judgmentsPath != "" {
		return fmt.Errorf("--judgments is not used by --quick")
	}

	answers, err := corpus.LoadAnswers(args[0])
	if err != nil {
		return err
	}
	var judgments []model.ComplianceJudgment
	if judgmentsPath != "" {
		if judgments, err = corpus.LoadJudgments(judgmentsPath); err != nil {
			return err
		}
	}

	cfg, err := llmConfig()
	if err != nil {
		return err
	}
	cfg.Storage.Path = ""

	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()

	p, err := pipeline.Load(cfg, provisionsPath)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	var report *model.GapReport
	if quickAnalysis {
		report, err = p.QuickAnalyze(ctx, answers, org)
	} else {
		report, err = p.Analyze(ctx, answers, judgments, org)
	}
	if err != nil {
		return fmt.Errorf("gap analysis failed: %w", err)
	}

	renderer := p.Renderer()
	if outJSON != "" {
		if err := renderer.RenderJSON(report, outJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
	}
	if outMD != "" {
		if err := renderer.RenderGapMarkdown(report, outMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
	}
	if outJSON == "" && outMD == "" {
		if err := printJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	}

	renderer.GapSummary(cmd.ErrOrStderr(), report)
	return nil
}

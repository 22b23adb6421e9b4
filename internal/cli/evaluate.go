package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/certmap/internal/corpus"
	"github.com/ppiankov/certmap/internal/llm"
	"github.com/ppiankov/certmap/internal/model"
	"github.com/ppiankov/certmap/internal/pipeline"
)

var (
	evalTimeout  time.Duration
	evalProvider string
	evalModel    string
	org          llm.Organization
)

// evaluateCmd represents the evaluate command
var evaluateCmd = &cobra.Command{
	Use:   "evaluate <answers file>",
	Short: "Judge answers with an LLM and aggregate the result",
	Long: `Evaluate maps each answered question to provisions, asks an
OpenAI-compatible model to judge the answer against every mapped provision,
and aggregates the judgments as assess does.

Failed or unparseable model replies become INSUFFICIENT_INFO judgments with
score 0; they are never dropped.

Example:
  OPENAI_API_KEY=sk-... certmap evaluate answers.yaml -p provisions.yaml --llm-provider openai
  certmap evaluate answers.json -p provisions.yaml --llm-provider ollama --llm-model llama3.1 --company "Acme Pte Ltd"`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)

	evaluateCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path")
	evaluateCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path")
	evaluateCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	evaluateCmd.Flags().DurationVar(&evalTimeout, "timeout", 30*time.Minute, "total timeout for evaluation")
	evaluateCmd.Flags().StringVar(&evalProvider, "llm-provider", "", "LLM provider (openai, ollama); default from config")
	evaluateCmd.Flags().StringVar(&evalModel, "llm-model", "", "LLM model name; default from config")
	evaluateCmd.Flags().StringVar(&org.Company, "company", "", "company name for the evaluation context")
	evaluateCmd.Flags().StringVar(&org.Industry, "industry", "", "industry for the evaluation context")
	evaluateCmd.Flags().StringVar(&org.Scope, "scope", "", "certification scope description")
	evaluateCmd.Flags().StringVar(&org.Size, "size", "", "company size (e.g. small, medium)")
	evaluateCmd.Flags().StringVar(&org.TechnicalMaturity, "maturity", "", "technical maturity (low, medium, high)")
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	if err := requireProvisions(); err != nil {
		return err
	}

	answers, err := corpus.LoadAnswers(args[0])
	if err != nil {
		return err
	}

	cfg, err := llmConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), evalTimeout)
	defer cancel()

	p, err := pipeline.Load(cfg, provisionsPath)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	report, err := p.Evaluate(ctx, answers, org)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}
	return writeAssessment(cmd, p, report)
}

// llmConfig loads the config with the --llm-* and --no-footer overrides applied
func llmConfig() (*model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if evalProvider != "" {
		cfg.LLM.Provider = evalProvider
	}
	if evalModel != "" {
		cfg.LLM.Model = evalModel
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	applyProviderEnv(cfg)
	return cfg, nil
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ppiankov/certmap/internal/corpus"
	"github.com/ppiankov/certmap/internal/model"
	"github.com/ppiankov/certmap/internal/pipeline"
)

// assessCmd represents the assess command
var assessCmd = &cobra.Command{
	Use:   "assess <judgments file>",
	Short: "Aggregate compliance judgments into a certification recommendation",
	Long: `Assess rolls per-provision compliance judgments (.yaml or .json) up into an
overall score and a PASS / CONDITIONAL / FAIL recommendation.

Judgments without a requirement_kind take it from the provision corpus when
--provisions is given; otherwise a "shall" in the provision id marks it mandatory.

Example:
  certmap assess judgments.yaml
  certmap assess judgments.json -p provisions.yaml --md assessment.md`,
	Args: cobra.ExactArgs(1),
	RunE: runAssess,
}

func init() {
	rootCmd.AddCommand(assessCmd)

	assessCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path")
	assessCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path")
	assessCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
}

func runAssess(cmd *cobra.Command, args []string) error {
	judgments, err := corpus.LoadJudgments(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Storage.Path = ""
	cfg.LLM.Provider = ""
	if noFooter {
		cfg.Output.IncludeFooter = false
	}

	// Without a corpus the aggregator falls back to judgment kinds and ids
	var p *pipeline.Pipeline
	if provisionsPath != "" {
		p, err = pipeline.Load(cfg, provisionsPath)
	} else {
		p, err = pipeline.NewPipeline(cfg, nil, "")
	}
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	report := p.Assess(judgments)
	return writeAssessment(cmd, p, report)
}

func writeAssessment(cmd *cobra.Command, p *pipeline.Pipeline, report *model.AssessmentReport) error {
	renderer := p.Renderer()
	if outJSON != "" {
		if err := renderer.RenderJSON(report, outJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
	}
	if outMD != "" {
		if err := renderer.RenderAssessmentMarkdown(report, outMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
	}
	if outJSON == "" && outMD == "" {
		if err := printJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	}

	renderer.AssessmentSummary(cmd.ErrOrStderr(), report)
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write JSON: %w", err)
	}
	return nil
}

package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/certmap/internal/corpus"
	"github.com/ppiankov/certmap/internal/pipeline"
)

var (
	concurrency  int
	outJSON      string
	outMD        string
	dbPath       string
	noCache      bool
	noFooter     bool
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <questions file>",
	Short: "Map a file of questions in parallel",
	Long: `Batch maps every question in a file onto the provision corpus:
- Questions are read from .yaml, .json, .csv or .html
- Questions are mapped in parallel with a configurable worker count
- Results keep the input order; blank questions are skipped
- Associations are stored in sqlite when --db (or storage.path) is set

Example:
  certmap batch questions.csv -p provisions.yaml
  certmap batch questions.yaml -p provisions.yaml --concurrency 8 --json mapping.json --md mapping.md
  certmap batch questions.yaml -p provisions.yaml --db certmap.db`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path")
	batchCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path")
	batchCmd.Flags().StringVar(&dbPath, "db", "", "sqlite database for question/provision associations")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the mapping result cache")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	if err := requireProvisions(); err != nil {
		return err
	}
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}
	if dbPath != "" {
		cfg.Storage.Path = dbPath
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}

	errOut := cmd.ErrOrStderr()
	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(errOut, "  Questions:    %s\n", file)
		fmt.Fprintf(errOut, "  Provisions:   %s\n", provisionsPath)
		fmt.Fprintf(errOut, "  Workers:      %d\n", cfg.Concurrency.Workers)
		fmt.Fprintf(errOut, "  Cache:        %v\n", cfg.Cache.Enabled)
		fmt.Fprintf(errOut, "\n")
	}

	questions, err := corpus.LoadQuestions(file)
	if err != nil {
		return err
	}

	p, err := pipeline.Load(cfg, provisionsPath)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	report, err := p.MapBatch(ctx, questions)
	if err != nil {
		return fmt.Errorf("batch failed: %w", err)
	}

	renderer := p.Renderer()
	if outJSON != "" {
		if err := renderer.RenderJSON(report, outJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(errOut, "✓ Wrote JSON: %s\n", outJSON)
		}
	}
	if outMD != "" {
		if err := renderer.RenderMappingMarkdown(report, outMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(errOut, "✓ Wrote Markdown: %s\n", outMD)
		}
	}
	if outJSON == "" && outMD == "" {
		if err := printJSON(cmd.OutOrStdout(), report); err != nil {
			return err
		}
	}

	renderer.MappingSummary(errOut, report)
	if cfg.Storage.Path != "" {
		fmt.Fprintf(errOut, "  Stored run %s in %s\n\n", report.RunID, cfg.Storage.Path)
	}
	return nil
}

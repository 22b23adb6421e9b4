package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/certmap/internal/model"
	"github.com/ppiankov/certmap/internal/pipeline"
)

var (
	mapQuestionID string
	mapTag        string
	mapAudience   string
	mapCategory   string
)

// mapCmd represents the map command
var mapCmd = &cobra.Command{
	Use:   "map <question text>",
	Short: "Map one question to provisions",
	Long: `Map a single audit question onto the provision corpus and print the
result as JSON.

Example:
  certmap map -p provisions.yaml "Do you run annual security awareness training?"
  certmap map -p provisions.yaml --tag TRAINING --audience HR "Who delivers the training?"
  certmap map -p provisions.yaml --category backup "How are restores tested?"`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMap,
}

func init() {
	rootCmd.AddCommand(mapCmd)

	mapCmd.Flags().StringVar(&mapQuestionID, "id", "", "question id")
	mapCmd.Flags().StringVar(&mapTag, "tag", "", "category tag hint (e.g. TRAINING)")
	mapCmd.Flags().StringVar(&mapAudience, "audience", "", "audience hint (Owner, IT, HR, Employee, Purchaser)")
	mapCmd.Flags().StringVar(&mapCategory, "category", "", "named category hint (e.g. access, backup)")
}

func runMap(cmd *cobra.Command, args []string) error {
	if err := requireProvisions(); err != nil {
		return err
	}

	q := model.Question{
		ID:            mapQuestionID,
		Tag:           mapTag,
		NamedCategory: mapCategory,
	}
	if len(args) == 1 {
		q.Text = args[0]
	}
	if mapAudience != "" {
		audience, ok := model.ParseAudience(mapAudience)
		if !ok {
			return fmt.Errorf("unknown audience %q", mapAudience)
		}
		q.Audience = audience
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.Storage.Path = ""

	p, err := pipeline.Load(cfg, provisionsPath)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	return printJSON(cmd.OutOrStdout(), p.MapQuestion(q))
}

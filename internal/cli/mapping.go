package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/certmap/internal/corpus"
	"github.com/ppiankov/certmap/internal/storage/sqlite"
)

var (
	listQuestion  string
	listProvision string
)

// mappingCmd represents the mapping command
var mappingCmd = &cobra.Command{
	Use:   "mapping",
	Short: "Inspect and edit stored question/provision associations",
	Long: `Work with the associations that batch --db stores in sqlite.

Manual associations survive later batch runs; associations proposed by a run
are replaced whenever the same question is mapped again.

Example:
  certmap mapping list --db certmap.db --question Q12
  certmap mapping list --db certmap.db --provision A.5.2
  certmap mapping add --db certmap.db -p provisions.yaml Q12 A.5.2
  certmap mapping remove --db certmap.db Q12 A.5.2
  certmap mapping run --db certmap.db 5f0c...`,
}

var mappingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the associations of a question or a provision",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if (listQuestion == "") == (listProvision == "") {
			return fmt.Errorf("exactly one of --question or --provision is required")
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		var associations []sqlite.Association
		if listQuestion != "" {
			associations, err = store.ProvisionsForQuestion(context.Background(), listQuestion)
		} else {
			associations, err = store.QuestionsForProvision(context.Background(), listProvision)
		}
		if err != nil {
			return err
		}
		if associations == nil {
			associations = []sqlite.Association{}
		}
		return printJSON(cmd.OutOrStdout(), associations)
	},
}

var mappingAddCmd = &cobra.Command{
	Use:   "add <question id> <provision id>",
	Short: "Associate a question with a provision by hand",
	Long: `Add a manual association. With --provisions the provision id is checked
against the corpus first.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		questionID, provisionID := args[0], args[1]

		if provisionsPath != "" {
			if err := checkProvision(provisionID); err != nil {
				return err
			}
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		if err := store.CreateMapping(context.Background(), questionID, provisionID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Mapped %s -> %s\n", questionID, provisionID)
		return nil
	},
}

var mappingRemoveCmd = &cobra.Command{
	Use:   "remove <question id> <provision id>",
	Short: "Remove an association",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		questionID, provisionID := args[0], args[1]

		store, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		removed, err := store.DeleteMapping(context.Background(), questionID, provisionID)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("no mapping between %s and %s", questionID, provisionID)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %s -> %s\n", questionID, provisionID)
		return nil
	},
}

var mappingRunCmd = &cobra.Command{
	Use:   "run <run id>",
	Short: "Show a stored batch run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		run, err := store.GetRun(context.Background(), args[0])
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("run %s not found", args[0])
		}
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), run)
	},
}

func init() {
	rootCmd.AddCommand(mappingCmd)
	mappingCmd.AddCommand(mappingListCmd)
	mappingCmd.AddCommand(mappingAddCmd)
	mappingCmd.AddCommand(mappingRemoveCmd)
	mappingCmd.AddCommand(mappingRunCmd)

	mappingCmd.PersistentFlags().StringVar(&dbPath, "db", "", "sqlite database (default from storage.path)")
	mappingListCmd.Flags().StringVar(&listQuestion, "question", "", "question id")
	mappingListCmd.Flags().StringVar(&listProvision, "provision", "", "provision id")
}

// openStore opens the database named by --db or storage.path
func openStore() (*sqlite.Store, error) {
	path := dbPath
	if path == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		path = cfg.Storage.Path
	}
	if path == "" {
		return nil, fmt.Errorf("--db (or storage.path) is required")
	}

	store, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	if err := store.InitSchema(); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

func checkProvision(id string) error {
	provisions, err := corpus.LoadProvisions(provisionsPath)
	if err != nil {
		return err
	}
	for _, p := range provisions {
		if p.ID == id {
			return nil
		}
	}
	return fmt.Errorf("provision %s not found in %s", id, provisionsPath)
}

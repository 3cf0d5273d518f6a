package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/drawdown/internal/source"
	"github.com/theirongolddev/drawdown/internal/store"
)

var (
	importAppend bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load budget and draw request files into the SQLite source",
	Long: "Reads --budget-file and --draws-file (JSON or YAML) and stores them in the\n" +
		"database at --db, ready for --source sqlite. Draw requests replace the stored\n" +
		"batch unless --append is set.",
	RunE: runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importAppend, "append", false, "Append draw requests to the stored batch")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, _ []string) error {
	if cfg.Source.BudgetFile == "" && cfg.Source.DrawsFile == "" {
		return fmt.Errorf("nothing to import: pass --budget-file and/or --draws-file")
	}

	ctx := cmd.Context()
	files := source.File{BudgetPath: cfg.Source.BudgetFile, DrawsPath: cfg.Source.DrawsFile}

	db, err := store.Open(cfg.Source.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if files.BudgetPath != "" {
		b, err := files.GetBudget(ctx)
		if err != nil {
			return err
		}
		if err := db.SaveBudget(ctx, *b); err != nil {
			return err
		}
		logger.Info().Str("file", files.BudgetPath).Int("items", len(b.BudgetItems)).Msg("budget imported")
	}

	if files.DrawsPath != "" {
		reqs, err := files.GetDrawRequests(ctx)
		if err != nil {
			return err
		}
		if !importAppend {
			if err := db.ClearDrawRequests(ctx); err != nil {
				return err
			}
		}
		if err := db.AddDrawRequests(ctx, reqs); err != nil {
			return err
		}
		logger.Info().Str("file", files.DrawsPath).Int("requests", len(reqs)).Msg("draw requests imported")
	}

	n, err := db.DrawRequestCount(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("  Database: %s\n", cfg.Source.DBPath)
	fmt.Printf("  Stored draw requests: %s\n", formatNumber(int64(n)))
	fmt.Println("  Process them with: drawdown --source sqlite")
	return nil
}

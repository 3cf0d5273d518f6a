package cmd

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/drawdown/internal/config"
	"github.com/theirongolddev/drawdown/internal/tui"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Start from the file alone so env and flag overrides are not persisted.
	current, err := config.LoadFile()
	if err != nil {
		current = config.DefaultConfig()
	}

	vals := tui.SetupValuesFrom(current)
	if err := tui.NewSetupForm(&vals).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return err
	}

	vals.Apply(&current)
	if err := current.Validate(); err != nil {
		return err
	}
	if err := config.Save(current); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", config.Path())
	fmt.Println("  Run `drawdown setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}

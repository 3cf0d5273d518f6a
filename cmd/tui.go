package cmd

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/drawdown/internal/pipeline"
	"github.com/theirongolddev/drawdown/internal/state"
	"github.com/theirongolddev/drawdown/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive budget page",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	f, closeFn, err := newFetcher(cfg, zerolog.Nop())
	if err != nil {
		return err
	}
	defer closeFn()

	// Force TrueColor profile so all background styling produces ANSI codes
	lipgloss.SetColorProfile(termenv.TrueColor)

	// Log lines would tear the alt screen.
	st := state.New(state.WithPolicy(pipeline.Policy{LenientMissing: cfg.Validation.LenientMissingFields}))

	app := tui.NewApp(st, f, cfg.Source.Kind)
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}

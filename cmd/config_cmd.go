// Package cmd implements the drawdown CLI commands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/drawdown/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [Source]")
	fmt.Printf("    Kind:         %s\n", cfg.Source.Kind)
	switch cfg.Source.Kind {
	case config.SourceFile:
		fmt.Printf("    Budget file:  %s\n", orUnset(cfg.Source.BudgetFile))
		fmt.Printf("    Draws file:   %s\n", orUnset(cfg.Source.DrawsFile))
	case config.SourceAPI:
		fmt.Printf("    API URL:      %s\n", orUnset(cfg.Source.APIURL))
		if cfg.Source.APIToken != "" {
			fmt.Printf("    API token:    %s\n", maskToken(cfg.Source.APIToken))
		} else {
			fmt.Println("    API token:    not configured")
		}
		fmt.Printf("    Timeout:      %ds\n", cfg.Source.TimeoutSec)
		if cfg.Source.RatePerSec > 0 {
			fmt.Printf("    Rate limit:   %.1f req/s\n", cfg.Source.RatePerSec)
		}
	case config.SourceSQLite:
		fmt.Printf("    Database:     %s\n", cfg.Source.DBPath)
	}
	fmt.Println()

	fmt.Println("  [Validation]")
	fmt.Printf("    Lenient missing fields: %v\n", cfg.Validation.LenientMissingFields)
	fmt.Println()

	fmt.Println("  [Serve]")
	fmt.Printf("    Address:       %s\n", cfg.Serve.Addr)
	fmt.Printf("    Interval:      %ds\n", cfg.Serve.IntervalSec)
	fmt.Printf("    Events buffer: %d\n", cfg.Serve.EventsBuffer)
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Log]")
	fmt.Printf("    Level: %s\n", cfg.Log.Level)
	fmt.Println()

	fmt.Println("  Run `drawdown setup` to reconfigure.")
	return nil
}

func orUnset(s string) string {
	if s == "" {
		return "not set"
	}
	return s
}

func maskToken(key string) string {
	if len(key) > 16 {
		return key[:8] + "..." + key[len(key)-4:]
	}
	if len(key) > 4 {
		return key[:4] + "..."
	}
	return "****"
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/theirongolddev/drawdown/internal/api"
	"github.com/theirongolddev/drawdown/internal/cli"
	"github.com/theirongolddev/drawdown/internal/config"
	"github.com/theirongolddev/drawdown/internal/pipeline"
	"github.com/theirongolddev/drawdown/internal/source"
	"github.com/theirongolddev/drawdown/internal/state"
	"github.com/theirongolddev/drawdown/internal/store"
	"github.com/theirongolddev/drawdown/internal/tui/theme"
)

var (
	flagSource     string
	flagBudgetFile string
	flagDrawsFile  string
	flagAPIURL     string
	flagDBPath     string
	flagLenient    bool
	flagQuiet      bool
	flagLogLevel   string
	flagJSON       bool
)

// cfg is the effective configuration: file, then environment, then flags.
var (
	cfg    config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "drawdown",
	Short: "Budget draw allocator",
	Long: "Validate draw requests against a budget and apply them in effective-date order,\n" +
		"reporting which draws were funded and why the rest were rejected.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runSummary,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagSource, "source", "s", "", "Data source: "+strings.Join(config.SourceKinds, ", "))
	rootCmd.PersistentFlags().StringVar(&flagBudgetFile, "budget-file", "", "Budget JSON/YAML file (file source)")
	rootCmd.PersistentFlags().StringVar(&flagDrawsFile, "draws-file", "", "Draw requests JSON/YAML file (file source)")
	rootCmd.PersistentFlags().StringVar(&flagAPIURL, "api-url", "", "Budget API base URL (api source)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "", "SQLite database path (sqlite source)")
	rootCmd.PersistentFlags().BoolVar(&flagLenient, "lenient", false, "Only validate fields present on each request")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only log warnings and errors")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "Print JSON instead of tables")
}

// setup loads configuration, applies flag overrides and configures logging.
func setup(cmd *cobra.Command, _ []string) error {
	loaded, err := config.Load()
	if err != nil {
		return err
	}
	cfg = loaded
	applyFlags(cmd)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger = newLogger(cfg.Log.Level, flagQuiet)
	theme.SetActive(cfg.Appearance.Theme)
	return nil
}

func applyFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.Source.Kind = flagSource
	}
	if flags.Changed("budget-file") {
		cfg.Source.BudgetFile = flagBudgetFile
	}
	if flags.Changed("draws-file") {
		cfg.Source.DrawsFile = flagDrawsFile
	}
	if flags.Changed("api-url") {
		cfg.Source.APIURL = flagAPIURL
	}
	if flags.Changed("db") {
		cfg.Source.DBPath = flagDBPath
	}
	if flags.Changed("lenient") {
		cfg.Validation.LenientMissingFields = flagLenient
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = flagLogLevel
	}

	// Passing files without --source implies the file source.
	if !flags.Changed("source") && (flags.Changed("budget-file") || flags.Changed("draws-file")) {
		cfg.Source.Kind = config.SourceFile
	}
}

func newLogger(level string, quiet bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if quiet && lvl < zerolog.WarnLevel {
		lvl = zerolog.WarnLevel
	}

	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}

// newFetcher builds the configured source. The returned func releases any
// resources it holds.
func newFetcher(c config.Config, log zerolog.Logger) (state.Fetcher, func(), error) {
	noop := func() {}

	switch c.Source.Kind {
	case config.SourceFixture:
		return source.Fixture{}, noop, nil

	case config.SourceFile:
		if c.Source.BudgetFile == "" || c.Source.DrawsFile == "" {
			return nil, noop, fmt.Errorf("file source needs --budget-file and --draws-file")
		}
		return source.File{BudgetPath: c.Source.BudgetFile, DrawsPath: c.Source.DrawsFile}, noop, nil

	case config.SourceAPI:
		client, err := api.NewClient(c.Source.APIURL, api.Options{
			Token:      c.Source.APIToken,
			Timeout:    time.Duration(c.Source.TimeoutSec) * time.Second,
			RatePerSec: c.Source.RatePerSec,
			Logger:     log.With().Str("component", "api").Logger(),
		})
		if err != nil {
			return nil, noop, err
		}
		return client, noop, nil

	case config.SourceSQLite:
		db, err := store.Open(c.Source.DBPath)
		if err != nil {
			return nil, noop, err
		}
		return db, func() { _ = db.Close() }, nil
	}

	return nil, noop, fmt.Errorf("unknown source kind %q", c.Source.Kind)
}

func newStore() *state.Store {
	return state.New(
		state.WithPolicy(pipeline.Policy{LenientMissing: cfg.Validation.LenientMissingFields}),
		state.WithLogger(logger.With().Str("component", "state").Logger()),
	)
}

// runPass is the shared allocation path used by the one-shot commands.
func runPass(ctx context.Context) (state.Snapshot, error) {
	f, closeFn, err := newFetcher(cfg, logger)
	if err != nil {
		return state.Snapshot{}, err
	}
	defer closeFn()

	st := newStore()
	if _, err := st.Preload(ctx, f); err != nil {
		return state.Snapshot{}, err
	}
	return st.Snapshot(), nil
}

func formatNumber(n int64) string {
	return cli.FormatNumber(n)
}

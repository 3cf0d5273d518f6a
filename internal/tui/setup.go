package tui

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/theirongolddev/drawdown/internal/config"
	"github.com/theirongolddev/drawdown/internal/tui/theme"
)

// SetupValues holds the answers collected by the setup form.
type SetupValues struct {
	Source     string
	BudgetFile string
	DrawsFile  string
	APIURL     string
	APIToken   string
	DBPath     string
	Lenient    bool
	Theme      string
}

// SetupValuesFrom seeds the form with the current configuration.
func SetupValuesFrom(cfg config.Config) SetupValues {
	return SetupValues{
		Source:     cfg.Source.Kind,
		BudgetFile: cfg.Source.BudgetFile,
		DrawsFile:  cfg.Source.DrawsFile,
		APIURL:     cfg.Source.APIURL,
		APIToken:   cfg.Source.APIToken,
		DBPath:     cfg.Source.DBPath,
		Lenient:    cfg.Validation.LenientMissingFields,
		Theme:      cfg.Appearance.Theme,
	}
}

// Apply copies the answers onto cfg. Fields for other source kinds are kept.
func (v SetupValues) Apply(cfg *config.Config) {
	cfg.Source.Kind = v.Source
	switch v.Source {
	case config.SourceFile:
		cfg.Source.BudgetFile = strings.TrimSpace(v.BudgetFile)
		cfg.Source.DrawsFile = strings.TrimSpace(v.DrawsFile)
	case config.SourceAPI:
		cfg.Source.APIURL = strings.TrimSpace(v.APIURL)
		if tok := strings.TrimSpace(v.APIToken); tok != "" {
			cfg.Source.APIToken = tok
		}
	case config.SourceSQLite:
		cfg.Source.DBPath = strings.TrimSpace(v.DBPath)
	}
	cfg.Validation.LenientMissingFields = v.Lenient
	cfg.Appearance.Theme = v.Theme
}

// NewSetupForm builds the first-run form. Source-specific questions only show
// for the chosen source.
func NewSetupForm(v *SetupValues) *huh.Form {
	sourceOpts := []huh.Option[string]{
		huh.NewOption("Built-in demo data", config.SourceFixture),
		huh.NewOption("JSON/YAML files", config.SourceFile),
		huh.NewOption("HTTP API", config.SourceAPI),
		huh.NewOption("SQLite database", config.SourceSQLite),
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to drawdown").
				Description("Draw requests are validated and applied to a budget in date order."),
			huh.NewSelect[string]().
				Title("Where should budgets and draws come from?").
				Options(sourceOpts...).
				Value(&v.Source),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Budget file").
				Placeholder("budget.json").
				Value(&v.BudgetFile).
				Validate(notBlank("budget file")),
			huh.NewInput().
				Title("Draw requests file").
				Placeholder("draws.yaml").
				Value(&v.DrawsFile).
				Validate(notBlank("draw requests file")),
		).WithHideFunc(func() bool { return v.Source != config.SourceFile }),
		huh.NewGroup(
			huh.NewInput().
				Title("API base URL").
				Placeholder("https://budgets.example.com").
				Value(&v.APIURL).
				Validate(validURL),
			huh.NewInput().
				Title("API token").
				Description("Sent as a bearer token. Leave blank to keep the current one.").
				EchoMode(huh.EchoModePassword).
				Value(&v.APIToken),
		).WithHideFunc(func() bool { return v.Source != config.SourceAPI }),
		huh.NewGroup(
			huh.NewInput().
				Title("SQLite database path").
				Value(&v.DBPath).
				Validate(notBlank("database path")),
		).WithHideFunc(func() bool { return v.Source != config.SourceSQLite }),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Only validate fields present on a request?").
				Description("When off, a missing field is reported as an error.").
				Value(&v.Lenient),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(huh.NewOptions(theme.Names()...)...).
				Value(&v.Theme),
		),
	)
}

func notBlank(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}

func validURL(s string) error {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("enter an http(s) URL")
	}
	return nil
}

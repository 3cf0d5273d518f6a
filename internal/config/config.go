// Package config loads and saves drawdown settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

// Source kinds.
const (
	SourceFixture = "fixture"
	SourceFile    = "file"
	SourceAPI     = "api"
	SourceSQLite  = "sqlite"
)

// SourceKinds lists every supported source kind.
var SourceKinds = []string{SourceFixture, SourceFile, SourceAPI, SourceSQLite}

// Config holds all drawdown configuration.
type Config struct {
	Source     SourceConfig     `toml:"source"`
	Validation ValidationConfig `toml:"validation"`
	Serve      ServeConfig      `toml:"serve"`
	Appearance AppearanceConfig `toml:"appearance"`
	Log        LogConfig        `toml:"log"`
}

// SourceConfig selects where budgets and draw requests come from.
type SourceConfig struct {
	Kind       string  `toml:"kind"`
	BudgetFile string  `toml:"budget_file,omitempty"`
	DrawsFile  string  `toml:"draws_file,omitempty"`
	APIURL     string  `toml:"api_url,omitempty"`
	APIToken   string  `toml:"api_token,omitempty"`
	TimeoutSec int     `toml:"timeout_sec,omitempty"`
	RatePerSec float64 `toml:"rate_per_sec,omitempty"`
	DBPath     string  `toml:"db_path,omitempty"`
}

// ValidationConfig controls draw request validation.
type ValidationConfig struct {
	// LenientMissingFields only checks keys present on a request.
	LenientMissingFields bool `toml:"lenient_missing_fields"`
}

// ServeConfig holds settings for the long-running service.
type ServeConfig struct {
	Addr         string `toml:"addr"`
	IntervalSec  int    `toml:"interval_sec"`
	EventsBuffer int    `toml:"events_buffer"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// EnvOverrides are read from the environment and take precedence over the file.
type EnvOverrides struct {
	Source   string `env:"DRAWDOWN_SOURCE"`
	APIURL   string `env:"DRAWDOWN_API_URL"`
	APIToken string `env:"DRAWDOWN_API_TOKEN"`
	DBPath   string `env:"DRAWDOWN_DB"`
	LogLevel string `env:"DRAWDOWN_LOG_LEVEL"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Source: SourceConfig{
			Kind:       SourceFixture,
			TimeoutSec: 10,
			DBPath:     filepath.Join(DataDir(), "drawdown.db"),
		},
		Serve: ServeConfig{
			Addr:         "127.0.0.1:8788",
			IntervalSec:  30,
			EventsBuffer: 200,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "drawdown")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "drawdown")
}

// DataDir returns the XDG-compliant data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "drawdown")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "drawdown")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment overrides are applied either way.
func Load() (Config, error) {
	cfg, err := LoadFile()
	if err != nil {
		return cfg, err
	}
	if err := ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile reads only the config file over the defaults, without environment
// overrides.
func LoadFile() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overlays DRAWDOWN_* environment variables onto cfg.
func ApplyEnv(cfg *Config) error {
	var ov EnvOverrides
	if err := env.Parse(&ov); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if ov.Source != "" {
		cfg.Source.Kind = ov.Source
	}
	if ov.APIURL != "" {
		cfg.Source.APIURL = ov.APIURL
	}
	if ov.APIToken != "" {
		cfg.Source.APIToken = ov.APIToken
	}
	if ov.DBPath != "" {
		cfg.Source.DBPath = ov.DBPath
	}
	if ov.LogLevel != "" {
		cfg.Log.Level = ov.LogLevel
	}
	return nil
}

// Validate checks values that would otherwise fail later with a vaguer error.
func (c Config) Validate() error {
	kind := strings.ToLower(strings.TrimSpace(c.Source.Kind))
	for _, k := range SourceKinds {
		if kind == k {
			return nil
		}
	}
	return fmt.Errorf("unknown source kind %q (want one of %s)", c.Source.Kind, strings.Join(SourceKinds, ", "))
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(Path(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

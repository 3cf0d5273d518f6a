package config

import (
	"os"
	"path/filepath"
	"testing"
)

func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	for _, k := range []string{"DRAWDOWN_SOURCE", "DRAWDOWN_API_URL", "DRAWDOWN_API_TOKEN", "DRAWDOWN_DB", "DRAWDOWN_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if Exists() {
		t.Fatal("Exists() = true before Save")
	}
	if cfg.Source.Kind != SourceFixture {
		t.Errorf("Source.Kind = %q, want fixture", cfg.Source.Kind)
	}
	if cfg.Validation.LenientMissingFields {
		t.Error("LenientMissingFields should default to false")
	}
	if want := filepath.Join(os.Getenv("XDG_DATA_HOME"), "drawdown", "drawdown.db"); cfg.Source.DBPath != want {
		t.Errorf("DBPath = %q, want %q", cfg.Source.DBPath, want)
	}
}

func TestSaveAndLoad(t *testing.T) {
	isolate(t)

	cfg := DefaultConfig()
	cfg.Source.Kind = SourceAPI
	cfg.Source.APIURL = "https://budgets.example.com"
	cfg.Validation.LenientMissingFields = true
	cfg.Serve.IntervalSec = 5
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists() {
		t.Fatal("Exists() = false after Save")
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Source.Kind != SourceAPI || got.Source.APIURL != cfg.Source.APIURL {
		t.Errorf("Source = %+v", got.Source)
	}
	if !got.Validation.LenientMissingFields || got.Serve.IntervalSec != 5 {
		t.Errorf("round trip lost settings: %+v", got)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)

	cfg := DefaultConfig()
	cfg.Source.APIURL = "https://from-file.example.com"
	if err := Save(cfg); err != nil {
		t.Fatal(err)
	}

	t.Setenv("DRAWDOWN_SOURCE", "api")
	t.Setenv("DRAWDOWN_API_URL", "https://from-env.example.com")
	t.Setenv("DRAWDOWN_API_TOKEN", "tok")

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Source.Kind != SourceAPI {
		t.Errorf("Kind = %q, want api", got.Source.Kind)
	}
	if got.Source.APIURL != "https://from-env.example.com" {
		t.Errorf("APIURL = %q, want env value", got.Source.APIURL)
	}
	if got.Source.APIToken != "tok" {
		t.Errorf("APIToken = %q, want tok", got.Source.APIToken)
	}
}

func TestLoad_RejectsUnknownSource(t *testing.T) {
	isolate(t)
	t.Setenv("DRAWDOWN_SOURCE", "carrier-pigeon")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown source kind")
	}
}

func TestLoad_BadTOML(t *testing.T) {
	isolate(t)
	if err := os.MkdirAll(Dir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(Path(), []byte("[source\nkind = "), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadFile_IgnoresEnv(t *testing.T) {
	isolate(t)
	t.Setenv("DRAWDOWN_API_TOKEN", "secret")

	cfg, err := LoadFile()
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Source.APIToken != "" {
		t.Errorf("LoadFile picked up env token %q", cfg.Source.APIToken)
	}
}

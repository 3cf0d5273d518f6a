package tui

import (
	"testing"

	"github.com/theirongolddev/drawdown/internal/config"
)

func TestSetupValuesApply(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Source.APIToken = "old"

	v := SetupValuesFrom(cfg)
	v.Source = config.SourceAPI
	v.APIURL = "  https://budgets.example.com "
	v.APIToken = ""
	v.Lenient = true
	v.Theme = "tokyo-night"
	v.Apply(&cfg)

	if cfg.Source.Kind != config.SourceAPI {
		t.Errorf("Kind = %q", cfg.Source.Kind)
	}
	if cfg.Source.APIURL != "https://budgets.example.com" {
		t.Errorf("APIURL = %q", cfg.Source.APIURL)
	}
	if cfg.Source.APIToken != "old" {
		t.Errorf("blank token should keep the existing one, got %q", cfg.Source.APIToken)
	}
	if !cfg.Validation.LenientMissingFields || cfg.Appearance.Theme != "tokyo-night" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestValidURL(t *testing.T) {
	for _, ok := range []string{"https://a.example.com", "http://127.0.0.1:8080/base"} {
		if err := validURL(ok); err != nil {
			t.Errorf("validURL(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "ftp://x", "example.com", "https://"} {
		if err := validURL(bad); err == nil {
			t.Errorf("validURL(%q) should fail", bad)
		}
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"setuplab/internal/backtest"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Expected default config to be valid, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Backtest.Capital != backtest.DefaultCapital {
		t.Errorf("Expected default capital, got %v", cfg.Backtest.Capital)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
data:
  db: /tmp/bars.db
provider:
  pause: 2s
backtest:
  capital: 50000
  min_ld: 1.5
setups:
  ifr:
    entry: 10
    timeout: null
alert:
  ifr:
    max_to_send: 3
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Data.DB != "/tmp/bars.db" {
		t.Errorf("Expected db override, got %q", cfg.Data.DB)
	}
	if cfg.Data.ListsDir != "lists" {
		t.Errorf("Expected default lists dir kept, got %q", cfg.Data.ListsDir)
	}
	if cfg.Provider.Pause != 2*time.Second {
		t.Errorf("Expected 2s pause, got %v", cfg.Provider.Pause)
	}
	if cfg.Backtest.Capital != 50000 {
		t.Errorf("Expected capital 50000, got %v", cfg.Backtest.Capital)
	}
	if cfg.Backtest.MinLD == nil || *cfg.Backtest.MinLD != 1.5 {
		t.Errorf("Expected min_ld 1.5, got %v", cfg.Backtest.MinLD)
	}
	if cfg.Setups.IFR.Entry != 10 || cfg.Setups.IFR.Period != 2 {
		t.Errorf("Expected entry 10 with default period, got %+v", cfg.Setups.IFR)
	}
	if cfg.Setups.IFR.Timeout != nil {
		t.Error("Expected timeout disabled")
	}
	if cfg.Setups.IFR.TrendFilter == nil {
		t.Error("Expected default trend filter kept")
	}
	if cfg.Alert.IFR.MaxToSend != 3 || cfg.Alert.IFR.SMAPeriod != 200 {
		t.Errorf("Unexpected alert options %+v", cfg.Alert.IFR)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SETUPLAB_DB", "/data/env.db")
	t.Setenv("SETUPLAB_LISTS_DIR", "/data/lists")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Data.DB != "/data/env.db" || cfg.Data.ListsDir != "/data/lists" {
		t.Errorf("Expected env overrides, got %+v", cfg.Data)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("backtest: [1, 2"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Expected a parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero capital", func(c *Config) { c.Backtest.Capital = 0 }},
		{"unknown metric", func(c *Config) { c.Backtest.Metric = "sharpe" }},
		{"bad sweep", func(c *Config) { c.Backtest.Sweep.Step = 0 }},
		{"no windows", func(c *Config) { c.Backtest.Windows = nil }},
		{"bad setup", func(c *Config) { c.Setups.IFR.Period = 0 }},
		{"no years", func(c *Config) { c.Update.Years = 0 }},
		{"inverted emas", func(c *Config) { c.Alert.S123.FastEMA = 90 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected a validation error")
			}
		})
	}
}

func TestSetupReturnsCopy(t *testing.T) {
	cfg := DefaultConfig()
	s, err := cfg.Setup("ifr")
	if err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	s.(*backtest.IFRSetup).Entry = 99
	if cfg.Setups.IFR.Entry == 99 {
		t.Error("Expected the configured setup to be left untouched")
	}

	if _, err := cfg.Setup("nope"); err == nil {
		t.Error("Expected an error for an unknown setup")
	}
}

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"setuplab/internal/alert"
	"setuplab/internal/backtest"
	"setuplab/internal/liquidity"
)

// Config represents the application configuration
type Config struct {
	Data      DataConfig      `yaml:"data"`
	Provider  ProviderConfig  `yaml:"provider"`
	Backtest  BacktestConfig  `yaml:"backtest"`
	Setups    SetupsConfig    `yaml:"setups"`
	Update    UpdateConfig    `yaml:"update"`
	Liquidity LiquidityConfig `yaml:"liquidity"`
	Alert     AlertConfig     `yaml:"alert"`
	Web       WebConfig       `yaml:"web"`
}

// DataConfig holds file locations
type DataConfig struct {
	DB        string `yaml:"db"`         // SQLite bar cache
	ListsDir  string `yaml:"lists_dir"`  // <list>.csv ticker files
	ExportDir string `yaml:"export_dir"` // ranking exports
}

// ProviderConfig holds Yahoo Finance settings
type ProviderConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	Pause    time.Duration `yaml:"pause"`     // between requests
	CacheTTL time.Duration `yaml:"cache_ttl"` // in-memory bar cache, 0 disables
}

// SweepConfig is the threshold grid
type SweepConfig struct {
	Min  float64 `yaml:"min"`
	Max  float64 `yaml:"max"`
	Step float64 `yaml:"step"`
}

// Values expands the grid
func (s SweepConfig) Values() []float64 {
	return backtest.Range(s.Min, s.Max, s.Step)
}

// BacktestConfig holds simulation and ranking settings
type BacktestConfig struct {
	Capital float64     `yaml:"capital"`
	Metric  string      `yaml:"metric"`
	Sweep   SweepConfig `yaml:"sweep"`
	Windows []int       `yaml:"windows"` // years, multi-period ranking
	MinLD   *float64    `yaml:"min_ld,omitempty"`
}

// SetupsConfig holds the default parameters of each setup
type SetupsConfig struct {
	IFR      *backtest.IFRSetup    `yaml:"ifr"`
	Setup123 *backtest.Setup123    `yaml:"123"`
	MaxMin   *backtest.MaxMinSetup `yaml:"maxmin"`
}

// UpdateConfig holds bar cache update settings
type UpdateConfig struct {
	Years int `yaml:"years"`
}

// LiquidityConfig holds liquidity ranking settings
type LiquidityConfig struct {
	Period int `yaml:"period"`
	Top    int `yaml:"top"`
}

// AlertConfig holds the alert scans and their ranking files
type AlertConfig struct {
	IFRFile string           `yaml:"ifr_file"`
	IFR     alert.IFROptions `yaml:"ifr"`
	File123 string           `yaml:"file_123"`
	S123    alert.Options123 `yaml:"123"`
}

// WebConfig holds HTTP API settings
type WebConfig struct {
	Addr     string        `yaml:"addr"`
	CacheTTL time.Duration `yaml:"cache_ttl"` // ranking result cache
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			DB:        "data/setuplab.db",
			ListsDir:  "lists",
			ExportDir: "outputs",
		},
		Provider: ProviderConfig{
			BaseURL:  "https://query1.finance.yahoo.com",
			Timeout:  30 * time.Second,
			Pause:    500 * time.Millisecond,
			CacheTTL: 10 * time.Minute,
		},
		Backtest: BacktestConfig{
			Capital: backtest.DefaultCapital,
			Metric:  string(backtest.MetricProfit),
			Sweep:   SweepConfig{Min: 5, Max: 30, Step: 1},
			Windows: append([]int(nil), backtest.DefaultWindows...),
		},
		Setups: SetupsConfig{
			IFR:      backtest.DefaultIFRSetup(),
			Setup123: backtest.DefaultSetup123(),
			MaxMin:   backtest.DefaultMaxMinSetup(),
		},
		Update: UpdateConfig{
			Years: 10,
		},
		Liquidity: LiquidityConfig{
			Period: liquidity.DefaultPeriod,
			Top:    50,
		},
		Alert: AlertConfig{
			IFRFile: "ranking_rsi.txt",
			IFR:     alert.DefaultIFROptions(),
			File123: "ranking_fundo.txt",
			S123:    alert.DefaultOptions123(),
		},
		Web: WebConfig{
			Addr:     ":8080",
			CacheTTL: 30 * time.Minute,
		},
	}
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	case os.IsNotExist(err):
		// Use defaults if file doesn't exist
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Override with environment variables if set
	if db := os.Getenv("SETUPLAB_DB"); db != "" {
		cfg.Data.DB = db
	}
	if dir := os.Getenv("SETUPLAB_LISTS_DIR"); dir != "" {
		cfg.Data.ListsDir = dir
	}

	return cfg, nil
}

// Setup returns a copy of the configured setup called name
func (c *Config) Setup(name string) (backtest.Setup, error) {
	switch name {
	case "ifr":
		if c.Setups.IFR != nil {
			s := *c.Setups.IFR
			return &s, nil
		}
	case "123":
		if c.Setups.Setup123 != nil {
			s := *c.Setups.Setup123
			return &s, nil
		}
	case "maxmin":
		if c.Setups.MaxMin != nil {
			s := *c.Setups.MaxMin
			return &s, nil
		}
	}
	return backtest.NewSetup(name)
}

// RankOptions returns the multi-period ranking options
func (c *Config) RankOptions() backtest.RankOptions {
	return backtest.RankOptions{Windows: c.Backtest.Windows, MinLD: c.Backtest.MinLD}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error
	if c.Data.DB == "" {
		errs = append(errs, errors.New("data.db is required"))
	}
	if c.Backtest.Capital <= 0 {
		errs = append(errs, errors.New("backtest.capital must be positive"))
	}
	if _, err := backtest.ParseMetric(c.Backtest.Metric); err != nil {
		errs = append(errs, err)
	}
	if s := c.Backtest.Sweep; s.Step <= 0 || s.Min > s.Max {
		errs = append(errs, fmt.Errorf("backtest.sweep: need step > 0 and min <= max, got %v..%v step %v", s.Min, s.Max, s.Step))
	}
	if len(c.Backtest.Windows) == 0 {
		errs = append(errs, errors.New("backtest.windows must not be empty"))
	}
	for _, y := range c.Backtest.Windows {
		if y < 1 {
			errs = append(errs, fmt.Errorf("backtest.windows: %d years is not positive", y))
		}
	}
	for _, s := range []backtest.Setup{c.Setups.IFR, c.Setups.Setup123, c.Setups.MaxMin} {
		if isNil(s) {
			continue
		}
		if err := s.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("setups.%s: %w", s.Name(), err))
		}
	}
	if c.Update.Years < 1 {
		errs = append(errs, errors.New("update.years must be at least 1"))
	}
	if c.Liquidity.Period < 1 {
		errs = append(errs, errors.New("liquidity.period must be at least 1"))
	}
	if c.Alert.IFR.RSIPeriod < 1 || c.Alert.IFR.SMAPeriod < 1 || c.Alert.IFR.EMAPeriod < 1 {
		errs = append(errs, errors.New("alert.ifr periods must be at least 1"))
	}
	if c.Alert.S123.FastEMA < 1 || c.Alert.S123.SlowEMA <= c.Alert.S123.FastEMA {
		errs = append(errs, errors.New("alert.123 needs 1 <= fast_ema < slow_ema"))
	}
	return errors.Join(errs...)
}

// isNil catches typed nil setups left by "ifr: null" in the file
func isNil(s backtest.Setup) bool {
	switch v := s.(type) {
	case *backtest.IFRSetup:
		return v == nil
	case *backtest.Setup123:
		return v == nil
	case *backtest.MaxMinSetup:
		return v == nil
	}
	return s == nil
}

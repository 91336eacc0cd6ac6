// Package config provides configuration management for the paper trading engine.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	apperrors "papertrader/internal/errors"
)

// Config holds all application configuration.
type Config struct {
	Rules    RuleConfig     `mapstructure:"rules"`
	Universe UniverseConfig `mapstructure:"universe"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// RuleConfig holds the locked rule constants. These are versioned and are
// not tunable per run: changing any of them changes Fingerprint, and the
// discipline check in CheckDiscipline gates that change on a minimum
// sample of closed trades.
type RuleConfig struct {
	Version           string  `mapstructure:"version"`
	StopLossPct       float64 `mapstructure:"stop_loss_pct"`
	TargetPct         float64 `mapstructure:"target_pct"`
	MaxHoldingDays    int     `mapstructure:"max_holding_days"`
	RSStrongThreshold float64 `mapstructure:"rs_strong_threshold"`
	RSWeakThreshold   float64 `mapstructure:"rs_weak_threshold"`
	RSLookbackDays    int     `mapstructure:"rs_lookback_days"`
	MinHistoryBars    int     `mapstructure:"min_history_bars"`
	NoMoveBandPct     float64 `mapstructure:"no_move_band_pct"`

	// PositionValue sizes trades; it is not a rule constant and is
	// excluded from the fingerprint.
	PositionValue float64 `mapstructure:"position_value"`
}

// UniverseConfig holds the symbol universe and benchmark.
type UniverseConfig struct {
	Symbols            []string `mapstructure:"symbols"`
	Benchmark          string   `mapstructure:"benchmark"`
	FundamentalDefault string   `mapstructure:"fundamental_default"` // NEUTRAL or FAIL
	Whitelist          []string `mapstructure:"whitelist"`
}

// StorageConfig holds persistence configuration. DataDir is where the
// per-symbol candle CSV files live.
type StorageConfig struct {
	Backend string `mapstructure:"backend"` // "sqlite" or "csv"
	Path    string `mapstructure:"path"`
	DataDir string `mapstructure:"data_dir"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	File    bool   `mapstructure:"file"`
}

// MinClosedTradesForChange is the discipline-lock sample size: rule
// constants may only change after this many closed trades.
const MinClosedTradesForChange = 30

// DefaultRules returns the locked rule constants of the current version.
func DefaultRules() RuleConfig {
	return RuleConfig{
		Version:           "v1",
		StopLossPct:       0.05,
		TargetPct:         0.10,
		MaxHoldingDays:    10,
		RSStrongThreshold: 0.02,
		RSWeakThreshold:   -0.02,
		RSLookbackDays:    20,
		MinHistoryBars:    50,
		NoMoveBandPct:     0.01,
		PositionValue:     100000,
	}
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/papertrader"
	}
	return filepath.Join(home, ".config", "papertrader")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config.toml: %w", err)
		}
		if err := writeTemplate(configDir); err != nil {
			return nil, fmt.Errorf("writing config template: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	rules := DefaultRules()
	v.SetDefault("rules.version", rules.Version)
	v.SetDefault("rules.stop_loss_pct", rules.StopLossPct)
	v.SetDefault("rules.target_pct", rules.TargetPct)
	v.SetDefault("rules.max_holding_days", rules.MaxHoldingDays)
	v.SetDefault("rules.rs_strong_threshold", rules.RSStrongThreshold)
	v.SetDefault("rules.rs_weak_threshold", rules.RSWeakThreshold)
	v.SetDefault("rules.rs_lookback_days", rules.RSLookbackDays)
	v.SetDefault("rules.min_history_bars", rules.MinHistoryBars)
	v.SetDefault("rules.no_move_band_pct", rules.NoMoveBandPct)
	v.SetDefault("rules.position_value", rules.PositionValue)

	v.SetDefault("universe.benchmark", "NIFTY50")
	v.SetDefault("universe.fundamental_default", "NEUTRAL")

	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.path", filepath.Join(DefaultConfigDir(), "papertrader.db"))
	v.SetDefault("storage.data_dir", filepath.Join(DefaultConfigDir(), "data"))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.console", true)
	v.SetDefault("logging.file", true)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PAPERTRADER_STORAGE_BACKEND"); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv("PAPERTRADER_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("PAPERTRADER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	r := c.Rules
	if r.StopLossPct <= 0 || r.StopLossPct >= 1 {
		return apperrors.NewValidationError("rules.stop_loss_pct", r.StopLossPct, "must be in (0, 1)")
	}
	if r.TargetPct <= 0 || r.TargetPct >= 1 {
		return apperrors.NewValidationError("rules.target_pct", r.TargetPct, "must be in (0, 1)")
	}
	if r.MaxHoldingDays <= 0 {
		return apperrors.NewValidationError("rules.max_holding_days", r.MaxHoldingDays, "must be positive")
	}
	if r.RSStrongThreshold <= r.RSWeakThreshold {
		return apperrors.NewValidationError("rules.rs_strong_threshold", r.RSStrongThreshold, "must exceed rs_weak_threshold")
	}
	if r.RSLookbackDays <= 0 {
		return apperrors.NewValidationError("rules.rs_lookback_days", r.RSLookbackDays, "must be positive")
	}
	if r.MinHistoryBars < r.RSLookbackDays+1 {
		return apperrors.NewValidationError("rules.min_history_bars", r.MinHistoryBars, "must cover the RS lookback")
	}
	if r.NoMoveBandPct < 0 || r.NoMoveBandPct >= 0.5 {
		return apperrors.NewValidationError("rules.no_move_band_pct", r.NoMoveBandPct, "must be in [0, 0.5)")
	}
	if r.PositionValue <= 0 {
		return apperrors.NewValidationError("rules.position_value", r.PositionValue, "must be positive")
	}

	switch strings.ToUpper(c.Universe.FundamentalDefault) {
	case "NEUTRAL", "FAIL":
	default:
		return apperrors.NewValidationError("universe.fundamental_default", c.Universe.FundamentalDefault, "must be NEUTRAL or FAIL")
	}

	switch c.Storage.Backend {
	case "sqlite", "csv":
	default:
		return apperrors.NewValidationError("storage.backend", c.Storage.Backend, "must be sqlite or csv")
	}

	return nil
}

// Fingerprint returns a stable hash of the locked rule constants.
// PositionValue is sizing-only and deliberately excluded.
func (r RuleConfig) Fingerprint() string {
	payload := fmt.Sprintf("%.6f|%.6f|%d|%.6f|%.6f|%d|%d|%.6f",
		r.StopLossPct, r.TargetPct, r.MaxHoldingDays,
		r.RSStrongThreshold, r.RSWeakThreshold,
		r.RSLookbackDays, r.MinHistoryBars, r.NoMoveBandPct)
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:8])
}

// CheckDiscipline reports whether the locked constants may change from
// prior to next given the number of closed trades recorded under prior.
// The engine never calls this on its runtime path; it is a governance
// helper for the operator surface.
func CheckDiscipline(prior, next RuleConfig, closedTrades int) error {
	if prior.Fingerprint() == next.Fingerprint() {
		return nil
	}
	if closedTrades < MinClosedTradesForChange {
		return fmt.Errorf("%w: %d of %d", apperrors.ErrDisciplineLocked, closedTrades, MinClosedTradesForChange)
	}
	return nil
}

func writeTemplate(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}
	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	return os.WriteFile(path, []byte(configTemplate), 0644)
}

const configTemplate = `# papertrader configuration

[rules]
# Locked rule constants. Changing any of these requires at least 30
# closed trades under the current version (discipline lock).
version = "v1"
stop_loss_pct = 0.05
target_pct = 0.10
max_holding_days = 10
rs_strong_threshold = 0.02
rs_weak_threshold = -0.02
rs_lookback_days = 20
min_history_bars = 50
no_move_band_pct = 0.01
# Sizing only, not a rule constant.
position_value = 100000

[universe]
symbols = ["RELIANCE", "TCS", "INFY"]
benchmark = "NIFTY50"
# Fundamental state when a symbol has no whitelist/feed entry: NEUTRAL or FAIL.
fundamental_default = "NEUTRAL"
whitelist = []

[storage]
backend = "sqlite" # sqlite or csv
# path = "~/.config/papertrader/papertrader.db"
# data_dir = "~/.config/papertrader/data"

[logging]
level = "info"
console = true
file = true
`

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rustyeddy/riskexec/market"
	"github.com/rustyeddy/riskexec/risk"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config is the complete engine configuration.
type Config struct {
	Account    AccountConfig    `json:"account" yaml:"account"`
	Risk       RiskConfig       `json:"risk" yaml:"risk"`
	Sizing     SizingConfig     `json:"sizing" yaml:"sizing"`
	Venue      VenueConfig      `json:"venue" yaml:"venue"`
	Volatility VolatilityConfig `json:"volatility" yaml:"volatility"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Server     ServerConfig     `json:"server" yaml:"server"`
	Log        LogConfig        `json:"log" yaml:"log"`
}

type AccountConfig struct {
	Mode   string `json:"mode" yaml:"mode"` // practice or real
	Symbol string `json:"symbol" yaml:"symbol"`
}

// RiskConfig holds the tunable risk parameters. The 2:1 reward:risk floor
// and the 2% per-trade cap are not configurable.
type RiskConfig struct {
	MaxRiskPercent  float64 `json:"max_risk_percent" yaml:"max_risk_percent"`
	WinRate         float64 `json:"win_rate" yaml:"win_rate"`
	AvgWinLossRatio float64 `json:"avg_win_loss_ratio" yaml:"avg_win_loss_ratio"`
	KellyFraction   float64 `json:"kelly_fraction" yaml:"kelly_fraction"`
}

type SizingConfig struct {
	Method    string  `json:"method" yaml:"method"` // risk or percent
	Percent   float64 `json:"percent,omitempty" yaml:"percent,omitempty"`
	OrderKind string  `json:"order_kind" yaml:"order_kind"` // market, limit or oco
}

type VenueConfig struct {
	Type        string `json:"type" yaml:"type"` // rest or paper
	PracticeURL string `json:"practice_url,omitempty" yaml:"practice_url,omitempty"`
	RealURL     string `json:"real_url,omitempty" yaml:"real_url,omitempty"`
	TokenEnv    string `json:"token_env,omitempty" yaml:"token_env,omitempty"`
	Timeout     string `json:"timeout,omitempty" yaml:"timeout,omitempty"` // e.g. "10s"

	// PaperBalance seeds both paper accounts.
	PaperBalance float64 `json:"paper_balance,omitempty" yaml:"paper_balance,omitempty"`
}

type VolatilityConfig struct {
	Granularity string `json:"granularity" yaml:"granularity"`
	Period      int    `json:"period" yaml:"period"`
}

type JournalConfig struct {
	Type       string `json:"type" yaml:"type"` // "csv" or "sqlite"
	DBPath     string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	OrdersFile string `json:"orders_file,omitempty" yaml:"orders_file,omitempty"`
}

type ServerConfig struct {
	Addr           string   `json:"addr" yaml:"addr"`
	AllowedOrigins []string `json:"allowed_origins,omitempty" yaml:"allowed_origins,omitempty"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
	File  string `json:"file,omitempty" yaml:"file,omitempty"`
}

// LoadFromFile loads configuration from a file (YAML, falling back to JSON).
// Fields missing from the file keep their Default values.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()

	// Try YAML first, fall back to JSON
	if err := yaml.Unmarshal(data, cfg); err != nil {
		cfg = Default()
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", jerr)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile saves configuration as YAML for .yaml/.yml paths and JSON
// otherwise.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if _, err := market.ParseMode(c.Account.Mode); err != nil {
		return fmt.Errorf("account.mode: %w", err)
	}
	if strings.TrimSpace(c.Account.Symbol) == "" {
		return fmt.Errorf("account.symbol is required")
	}

	if err := c.RiskParameters().Validate(); err != nil {
		return fmt.Errorf("risk: %w", err)
	}

	method, err := risk.ParseSizingMethod(c.Sizing.Method)
	if err != nil {
		return fmt.Errorf("sizing.method: %w", err)
	}
	if method == risk.SizeByBalancePct && (c.Sizing.Percent <= 0 || c.Sizing.Percent > 100) {
		return fmt.Errorf("sizing.percent must be in (0, 100]")
	}
	if _, err := market.ParseOrderKind(c.Sizing.OrderKind); err != nil {
		return fmt.Errorf("sizing.order_kind: %w", err)
	}

	switch c.Venue.Type {
	case "paper":
		if c.Venue.PaperBalance < 0 {
			return fmt.Errorf("venue.paper_balance must not be negative")
		}
	case "rest":
		if c.Venue.PracticeURL == "" && c.Venue.RealURL == "" {
			return fmt.Errorf("venue.practice_url or venue.real_url is required for rest venue")
		}
		if c.Venue.TokenEnv == "" {
			return fmt.Errorf("venue.token_env is required for rest venue")
		}
	default:
		return fmt.Errorf("venue.type must be 'rest' or 'paper'")
	}
	if _, err := c.Timeout(); err != nil {
		return err
	}

	if c.Volatility.Period <= 0 {
		return fmt.Errorf("volatility.period must be positive")
	}

	if c.Journal.Type != "csv" && c.Journal.Type != "sqlite" {
		return fmt.Errorf("journal.type must be 'csv' or 'sqlite'")
	}
	if c.Journal.Type == "csv" && c.Journal.OrdersFile == "" {
		return fmt.Errorf("journal orders_file required for CSV type")
	}
	if c.Journal.Type == "sqlite" && c.Journal.DBPath == "" {
		return fmt.Errorf("journal db_path required for SQLite type")
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	return nil
}

// Mode returns the parsed account mode. Call Validate first.
func (c *Config) Mode() market.Mode {
	m, _ := market.ParseMode(c.Account.Mode)
	return m
}

func (c *Config) RiskParameters() risk.RiskParameters {
	return risk.RiskParameters{
		MaxRiskPercent:  decimal.NewFromFloat(c.Risk.MaxRiskPercent),
		WinRate:         decimal.NewFromFloat(c.Risk.WinRate),
		AvgWinLossRatio: decimal.NewFromFloat(c.Risk.AvgWinLossRatio),
		KellyFraction:   decimal.NewFromFloat(c.Risk.KellyFraction),
	}
}

// Timeout parses venue.timeout, defaulting to 30s when unset.
func (c *Config) Timeout() (time.Duration, error) {
	if c.Venue.Timeout == "" {
		return 30 * time.Second, nil
	}
	d, err := time.ParseDuration(c.Venue.Timeout)
	if err != nil {
		return 0, fmt.Errorf("venue.timeout: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("venue.timeout must be positive")
	}
	return d, nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Mode:   "practice",
			Symbol: "BTCUSDT",
		},
		Risk: RiskConfig{
			MaxRiskPercent:  1.0,
			WinRate:         0.55,
			AvgWinLossRatio: 1.5,
			KellyFraction:   0.25,
		},
		Sizing: SizingConfig{
			Method:    "risk",
			OrderKind: "market",
		},
		Venue: VenueConfig{
			Type:         "paper",
			TokenEnv:     "RISKEXEC_TOKEN",
			Timeout:      "10s",
			PaperBalance: 10000,
		},
		Volatility: VolatilityConfig{
			Granularity: "H1",
			Period:      14,
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./orders.db",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Engine struct {
	Path      string `yaml:"path"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

type Backtest struct {
	Symbol         string  `yaml:"symbol"`
	InitialCapital float64 `yaml:"initial_capital"`
	PositionSize   float64 `yaml:"position_size"`
	RiskFreeRate   float64 `yaml:"risk_free_rate"`
}

type Strategy struct {
	Name        string  `yaml:"name"` // ma_cross | rsi
	ShortWindow int     `yaml:"short_window"`
	LongWindow  int     `yaml:"long_window"`
	RSIPeriod   int     `yaml:"rsi_period"`
	RSILower    float64 `yaml:"rsi_lower"`
	RSIUpper    float64 `yaml:"rsi_upper"`
}

type AlphaVantage struct {
	APIKey             string `yaml:"api_key"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
}

type Data struct {
	CSVPath      string       `yaml:"csv_path"`
	SampleDays   int          `yaml:"sample_days"`
	AlphaVantage AlphaVantage `yaml:"alphavantage"`
}

type Root struct {
	Engine   Engine   `yaml:"engine"`
	Backtest Backtest `yaml:"backtest"`
	Strategy Strategy `yaml:"strategy"`
	Data     Data     `yaml:"data"`
}

// Load reads the YAML config at path and applies defaults and environment
// overrides. An empty path returns the defaulted config.
func Load(path string) (Root, error) {
	var c Root
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return c, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return c, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyDefaults(&c)
	applyEnvOverrides(&c)
	return c, nil
}

func applyDefaults(c *Root) {
	if c.Engine.TimeoutMs == 0 {
		c.Engine.TimeoutMs = 60000
	}
	if c.Backtest.InitialCapital == 0 {
		c.Backtest.InitialCapital = 100000
	}
	if c.Backtest.PositionSize == 0 {
		c.Backtest.PositionSize = 0.1
	}
	if c.Backtest.RiskFreeRate == 0 {
		c.Backtest.RiskFreeRate = 0.02
	}
	if c.Strategy.Name == "" {
		c.Strategy.Name = "ma_cross"
	}
	if c.Data.SampleDays == 0 {
		c.Data.SampleDays = 252
	}
	if c.Data.AlphaVantage.RateLimitPerMinute == 0 {
		c.Data.AlphaVantage.RateLimitPerMinute = 5
	}
	if c.Data.AlphaVantage.TimeoutSeconds == 0 {
		c.Data.AlphaVantage.TimeoutSeconds = 10
	}
}

func applyEnvOverrides(c *Root) {
	if v := os.Getenv("ENGINE_PATH"); v != "" {
		c.Engine.Path = v
	}
	if v := os.Getenv("AV_API_KEY"); v != "" {
		c.Data.AlphaVantage.APIKey = v
	}
}

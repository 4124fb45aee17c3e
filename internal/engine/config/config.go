package config

import (
	"time"

	"golang-stock-trend/pkg/config"
)

// YahooFinance holds the configuration for the Yahoo Finance API.
type YahooFinance struct {
	BaseURL             string `mapstructure:"base_url"`
	MaxRequestPerMinute int    `mapstructure:"max_request_per_minute"`
}

// Market holds the fixed market symbols the sentiment aggregator reads.
type Market struct {
	BenchmarkSymbol  string `mapstructure:"benchmark_symbol"`
	VolatilitySymbol string `mapstructure:"volatility_symbol"`
}

// Quotes holds the quote cache configuration.
type Quotes struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// Sync holds the catalog sync scheduler configuration.
type Sync struct {
	Enabled         bool          `mapstructure:"enabled"`
	CronExpression  string        `mapstructure:"cron_expression"`
	PollingInterval time.Duration `mapstructure:"polling_interval"`
	HistoryRange    string        `mapstructure:"history_range"`
}

// Telegram holds configuration for the Telegram notifier.
type Telegram struct {
	Enabled  bool   `mapstructure:"enabled"`
	BotToken string `mapstructure:"bot_token"`
	ChatID   int64  `mapstructure:"chat_id"`
}

// CatalogEntry is one instrument in the popular-quotes catalog.
type CatalogEntry struct {
	Symbol string `mapstructure:"symbol"`
	Name   string `mapstructure:"name"`
}

// CatalogSector groups catalog entries under a display sector.
type CatalogSector struct {
	Name   string         `mapstructure:"name"`
	Stocks []CatalogEntry `mapstructure:"stocks"`
}

// Config holds the full configuration for the engine service.
type Config struct {
	App          config.App      `mapstructure:"app"`
	Logger       config.Logger   `mapstructure:"logger"`
	Database     config.Database `mapstructure:"database"`
	Redis        config.Redis    `mapstructure:"redis"`
	YahooFinance YahooFinance    `mapstructure:"yahoo_finance"`
	Market       Market          `mapstructure:"market"`
	Quotes       Quotes          `mapstructure:"quotes"`
	Sync         Sync            `mapstructure:"sync"`
	Telegram     Telegram        `mapstructure:"telegram"`
	Catalog      []CatalogSector `mapstructure:"catalog"`
}

// Load loads the engine configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.YahooFinance.BaseURL == "" {
		c.YahooFinance.BaseURL = "https://query1.finance.yahoo.com"
	}
	if c.YahooFinance.MaxRequestPerMinute <= 0 {
		c.YahooFinance.MaxRequestPerMinute = 60
	}
	if c.Market.BenchmarkSymbol == "" {
		c.Market.BenchmarkSymbol = "^NSEI"
	}
	if c.Market.VolatilitySymbol == "" {
		c.Market.VolatilitySymbol = "^INDIAVIX"
	}
	if c.Quotes.TTL <= 0 {
		c.Quotes.TTL = 5 * time.Minute
	}
	if c.Sync.CronExpression == "" {
		c.Sync.CronExpression = "0 18 * * 1-5"
	}
	if c.Sync.PollingInterval <= 0 {
		c.Sync.PollingInterval = time.Minute
	}
	if c.Sync.HistoryRange == "" {
		c.Sync.HistoryRange = "3mo"
	}
}

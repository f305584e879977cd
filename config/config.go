package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Optionflow OptionflowConfig `yaml:"optionflow"`
	Channels   ChannelsConfig   `yaml:"channels"`
	Feed       FeedConfig       `yaml:"feed"`
	Ledgers    LedgersConfig    `yaml:"ledgers"`
	Dashboard  DashboardConfig  `yaml:"dashboard"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

type OptionflowConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type ChannelsConfig struct {
	RawBuffer int `yaml:"raw_buffer"`
}

// FeedConfig describes the upstream flow-feed connection and the
// subscription handshake sent after each successful open.
type FeedConfig struct {
	URL              string        `yaml:"url"`
	ReconnectDelay   time.Duration `yaml:"reconnect_delay"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	FuturesSymbols   []string      `yaml:"futures_symbols"`
	EquitySymbols    []string      `yaml:"equity_symbols"`
}

// LedgersConfig holds the bounded capacities for the event ledgers.
type LedgersConfig struct {
	Trades     int `yaml:"trades"`
	Prints     int `yaml:"prints"`
	AutoTrades int `yaml:"auto_trades"`
}

// DashboardConfig controls the JSON snapshot API consumed by the
// presentation layer.
type DashboardConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

// MetricsConfig controls optional CloudWatch metric publishing.
type MetricsConfig struct {
	CloudWatchEnabled bool   `yaml:"cloudwatch_enabled"`
	Region            string `yaml:"region"`
	Namespace         string `yaml:"namespace"`
}

// Defaults applied when the file leaves a value unset.
const (
	defaultRawBuffer        = 1000
	defaultReconnectDelay   = 3 * time.Second
	defaultHandshakeTimeout = 10 * time.Second
	defaultTradeCapacity    = 200
	defaultPrintCapacity    = 200
	defaultAutoCapacity     = 50
)

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment overrides for deployment specific values
	if v := os.Getenv("FEED_URL"); v != "" {
		config.Feed.URL = strings.TrimSpace(v)
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		config.Metrics.Region = strings.TrimSpace(v)
	}

	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Channels.RawBuffer <= 0 {
		cfg.Channels.RawBuffer = defaultRawBuffer
	}
	if cfg.Feed.ReconnectDelay <= 0 {
		cfg.Feed.ReconnectDelay = defaultReconnectDelay
	}
	if cfg.Feed.HandshakeTimeout <= 0 {
		cfg.Feed.HandshakeTimeout = defaultHandshakeTimeout
	}
	if cfg.Ledgers.Trades <= 0 {
		cfg.Ledgers.Trades = defaultTradeCapacity
	}
	if cfg.Ledgers.Prints <= 0 {
		cfg.Ledgers.Prints = defaultPrintCapacity
	}
	if cfg.Ledgers.AutoTrades <= 0 {
		cfg.Ledgers.AutoTrades = defaultAutoCapacity
	}
	if cfg.Dashboard.Enabled && cfg.Dashboard.Address == "" {
		cfg.Dashboard.Address = ":8090"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Feed.URL == "" {
		return fmt.Errorf("feed.url is required")
	}
	if !strings.HasPrefix(cfg.Feed.URL, "ws://") && !strings.HasPrefix(cfg.Feed.URL, "wss://") {
		return fmt.Errorf("feed.url must be a ws:// or wss:// endpoint, got %q", cfg.Feed.URL)
	}
	if env := AppEnvironment(); IsProductionLike(env) && !strings.HasPrefix(cfg.Feed.URL, "wss://") {
		return fmt.Errorf("feed.url must use wss:// in the %s environment", env)
	}
	if len(cfg.Feed.FuturesSymbols) == 0 && len(cfg.Feed.EquitySymbols) == 0 {
		return fmt.Errorf("feed subscription is empty: configure futures_symbols or equity_symbols")
	}
	if cfg.Metrics.CloudWatchEnabled && cfg.Metrics.Namespace == "" {
		return fmt.Errorf("metrics.namespace is required when cloudwatch is enabled")
	}
	return nil
}

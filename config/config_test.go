package config

import (
	"os"
	"testing"
	"time"
)

// writeTempConfig creates a minimal configuration file required for
// LoadConfig and returns its path.
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	f, err := os.CreateTemp("", "cfg-*.yml")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	return f.Name()
}

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t, `optionflow:
  name: "TestApp"
  version: "1.0"
channels:
  raw_buffer: 16
feed:
  url: "wss://example.com/flow"
  reconnect_delay: 3s
  futures_symbols: ["ES", "NQ"]
  equity_symbols: ["SPY"]
ledgers:
  trades: 200
  prints: 200
  auto_trades: 50
`)
	defer os.Remove(path)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Optionflow.Name != "TestApp" {
		t.Errorf("unexpected name: %s", cfg.Optionflow.Name)
	}
	if cfg.Feed.ReconnectDelay != 3*time.Second {
		t.Errorf("unexpected reconnect delay: %v", cfg.Feed.ReconnectDelay)
	}
	if cfg.Ledgers.AutoTrades != 50 {
		t.Errorf("unexpected auto trade capacity: %d", cfg.Ledgers.AutoTrades)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeTempConfig(t, `feed:
  url: "ws://localhost:9000/flow"
  equity_symbols: ["SPY"]
`)
	defer os.Remove(path)
	t.Setenv(appEnvVar, "")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Feed.ReconnectDelay != defaultReconnectDelay {
		t.Errorf("expected default reconnect delay, got %v", cfg.Feed.ReconnectDelay)
	}
	if cfg.Ledgers.Trades != defaultTradeCapacity || cfg.Ledgers.Prints != defaultPrintCapacity {
		t.Errorf("expected default ledger capacities, got %+v", cfg.Ledgers)
	}
	if cfg.Ledgers.AutoTrades != defaultAutoCapacity {
		t.Errorf("expected default auto trade capacity, got %d", cfg.Ledgers.AutoTrades)
	}
	if cfg.Channels.RawBuffer != defaultRawBuffer {
		t.Errorf("expected default raw buffer, got %d", cfg.Channels.RawBuffer)
	}
}

func TestLoadConfigRejectsBadFeedURL(t *testing.T) {
	path := writeTempConfig(t, `feed:
  url: "https://example.com/flow"
  equity_symbols: ["SPY"]
`)
	defer os.Remove(path)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for non-websocket feed url")
	}
}

func TestLoadConfigRequiresTLSWhenProductionLike(t *testing.T) {
	path := writeTempConfig(t, `feed:
  url: "ws://localhost:9000/flow"
  equity_symbols: ["SPY"]
`)
	defer os.Remove(path)

	t.Setenv(appEnvVar, "prod")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for plaintext feed url in production")
	}

	t.Setenv(appEnvVar, "dev")
	if _, err := LoadConfig(path); err != nil {
		t.Fatalf("development should allow ws://: %v", err)
	}
}

func TestLoadConfigRejectsEmptySubscription(t *testing.T) {
	path := writeTempConfig(t, `feed:
  url: "wss://example.com/flow"
`)
	defer os.Remove(path)

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for empty subscription")
	}
}

func TestAppEnvironment(t *testing.T) {
	t.Setenv(appEnvVar, "prod")
	if env := AppEnvironment(); env != EnvironmentProduction {
		t.Fatalf("expected production, got %s", env)
	}
	t.Setenv(appEnvVar, "")
	if env := AppEnvironment(); env != EnvironmentDevelopment {
		t.Fatalf("expected development default, got %s", env)
	}
	if !IsProductionLike(EnvironmentStaging) {
		t.Fatal("staging should be production-like")
	}
	if IsProductionLike(EnvironmentDevelopment) {
		t.Fatal("development should not be production-like")
	}
}

package models

import (
	"math"
	"testing"
)

func TestDecodeEnvelope(t *testing.T) {
	typ, ok := DecodeEnvelope([]byte(`{"type":"CALL","conid":100}`))
	if !ok || typ != TypeCall {
		t.Fatalf("expected CALL, got %q ok=%v", typ, ok)
	}
	if _, ok := DecodeEnvelope([]byte(`{"conid":100}`)); ok {
		t.Fatal("expected missing type to be rejected")
	}
	if _, ok := DecodeEnvelope([]byte(`not json`)); ok {
		t.Fatal("expected malformed payload to be rejected")
	}
}

func TestTradeSummaryPnL(t *testing.T) {
	trade := TradeSummary{
		EntryPrice:   2.00,
		CurrentPrice: 3.00,
		Size:         5,
	}
	if got := trade.DollarPnL(); got != 500.00 {
		t.Fatalf("dollar pnl: expected 500.00, got %v", got)
	}
	if got := trade.PercentPnL(); math.Abs(got-50.0) > 1e-9 {
		t.Fatalf("percent pnl: expected 50.0, got %v", got)
	}
}

func TestTradeSummaryPnLMissingEntry(t *testing.T) {
	trade := TradeSummary{CurrentPrice: 1.25, Size: 3}
	if got := trade.PercentPnL(); got != 0 {
		t.Fatalf("expected zero percent pnl without entry price, got %v", got)
	}
}

func TestEffectiveMultiplier(t *testing.T) {
	trade := TradeSummary{}
	if got := trade.EffectiveMultiplier(); got != DefaultMultiplier {
		t.Fatalf("expected default multiplier %d, got %v", DefaultMultiplier, got)
	}
	trade.Multiplier = 10
	if got := trade.EffectiveMultiplier(); got != 10 {
		t.Fatalf("expected explicit multiplier 10, got %v", got)
	}
}

func TestUnknownMapping(t *testing.T) {
	m := UnknownMapping(42)
	if m.Symbol != "Unknown" || m.InstrumentClass != ClassOption {
		t.Fatalf("unexpected placeholder mapping: %+v", m)
	}
}

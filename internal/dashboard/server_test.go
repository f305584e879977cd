package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"optionflow/config"
	"optionflow/logger"
	"optionflow/models"
	"optionflow/session"
)

func newTestServer(t *testing.T) (*Server, *session.State) {
	t.Helper()
	state := session.NewState(&config.Config{
		Ledgers: config.LedgersConfig{Trades: 10, Prints: 10, AutoTrades: 5},
	})
	srv := NewServer(config.DashboardConfig{Enabled: true, Address: ":0"}, state, logger.GetLogger())
	if srv == nil {
		t.Fatal("expected a server when enabled")
	}
	return srv, state
}

func doGet(t *testing.T, srv *Server, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	router, err := srv.buildRouter()
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)

	var body map[string]any
	if w.Code == http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return w, body
}

func TestNewServerDisabled(t *testing.T) {
	srv := NewServer(config.DashboardConfig{Enabled: false}, nil, logger.GetLogger())
	if srv != nil {
		t.Fatal("disabled dashboard should yield a nil server")
	}
	if srv.Address() != "" {
		t.Fatal("nil server address should be empty")
	}
}

func TestStateEndpoint(t *testing.T) {
	srv, state := newTestServer(t)
	state.SetConnected(true)
	state.ReplaceStats(models.StatsSnapshot{Wins: 2})

	w, body := doGet(t, srv, "/api/state")
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", w.Code)
	}
	if body["connected"] != true {
		t.Fatalf("expected connected true, got %v", body["connected"])
	}
	stats, ok := body["stats"].(map[string]any)
	if !ok || stats["wins"].(float64) != 2 {
		t.Fatalf("unexpected stats payload: %v", body["stats"])
	}
}

func TestTradesEndpointJoinsMappingAndPnL(t *testing.T) {
	srv, state := newTestServer(t)
	state.UpsertMapping(models.InstrumentMapping{
		Conid:           100,
		Symbol:          "SPY",
		Strike:          450,
		Expiry:          "20260918",
		InstrumentClass: models.ClassOption,
	})
	state.RecordTrade(&models.TradeSummary{ID: "t1", Conid: 100, Size: 10, EntryPrice: 1.50})
	last := 2.00
	state.ApplyOptionQuote(models.Quote{Conid: 100, Last: &last})

	_, body := doGet(t, srv, "/api/trades")
	rows, ok := body["trades"].([]any)
	if !ok || len(rows) != 1 {
		t.Fatalf("unexpected trades payload: %v", body)
	}
	row := rows[0].(map[string]any)
	if row["symbol"] != "SPY" {
		t.Fatalf("expected mapping join, got %v", row["symbol"])
	}
	if got := row["dollarPnl"].(float64); got != 500.00 {
		t.Fatalf("expected dollar pnl 500.00, got %v", got)
	}
}

func TestTradesEndpointUnknownMapping(t *testing.T) {
	srv, state := newTestServer(t)
	state.RecordTrade(&models.TradeSummary{ID: "t1", Conid: 999, Size: 1, EntryPrice: 1})

	_, body := doGet(t, srv, "/api/trades")
	row := body["trades"].([]any)[0].(map[string]any)
	if row["symbol"] != "Unknown" {
		t.Fatalf("expected Unknown placeholder, got %v", row["symbol"])
	}
}

func TestQuoteEndpoint(t *testing.T) {
	srv, state := newTestServer(t)
	last := 450.10
	state.ApplyUnderlyingQuote(models.Quote{Conid: 1, Last: &last})

	w, body := doGet(t, srv, "/api/quotes/1")
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", w.Code)
	}
	if _, ok := body["underlying"]; !ok {
		t.Fatalf("expected underlying quote in payload: %v", body)
	}

	w, _ = doGet(t, srv, "/api/quotes/abc")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad conid, got %d", w.Code)
	}
}

func TestNormalizeAddress(t *testing.T) {
	cases := map[string]string{
		"":               "0.0.0.0:8090",
		":9000":          "0.0.0.0:9000",
		"127.0.0.1":      "127.0.0.1:8090",
		"127.0.0.1:9001": "127.0.0.1:9001",
		"localhost":      "localhost:8090",
	}
	for in, want := range cases {
		if got := normalizeAddress(in); got != want {
			t.Errorf("normalizeAddress(%q) = %q, want %q", in, got, want)
		}
	}
}

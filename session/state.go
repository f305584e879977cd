package session

import (
	"sync"

	appconfig "optionflow/config"
	"optionflow/logger"
	"optionflow/models"
)

// State is the in-memory session view maintained from the flow feed: the
// identifier directory, the bounded event ledgers, the live quote overlays
// and the latest trading stats snapshot. Dispatch is the single writer; the
// dashboard reads concurrently, so access is guarded by a RWMutex.
//
// Nothing in the state survives the session. There is no persistence.
type State struct {
	mu sync.RWMutex

	directory map[int64]models.InstrumentMapping

	trades     *Ledger[*models.TradeSummary]
	autoTrades *Ledger[*models.TradeSummary]
	prints     *Ledger[models.Print]

	optionQuotes     map[int64]models.Quote
	underlyingQuotes map[int64]models.Quote

	stats     *models.StatsSnapshot
	connected bool

	log *logger.Log
}

// NewState creates an empty session state with the configured ledger
// capacities.
func NewState(cfg *appconfig.Config) *State {
	return &State{
		directory:        make(map[int64]models.InstrumentMapping),
		trades:           NewLedger[*models.TradeSummary](cfg.Ledgers.Trades),
		autoTrades:       NewLedger[*models.TradeSummary](cfg.Ledgers.AutoTrades),
		prints:           NewLedger[models.Print](cfg.Ledgers.Prints),
		optionQuotes:     make(map[int64]models.Quote),
		underlyingQuotes: make(map[int64]models.Quote),
		log:              logger.GetLogger(),
	}
}

// UpsertMapping stores or overwrites the metadata for an instrument id.
// Mappings are never removed during a session.
func (s *State) UpsertMapping(m models.InstrumentMapping) {
	s.mu.Lock()
	s.directory[m.Conid] = m
	s.mu.Unlock()
}

// LookupMapping returns the metadata for an instrument id, or the Unknown
// placeholder when the id has not been seen. It never fails.
func (s *State) LookupMapping(conid int64) models.InstrumentMapping {
	s.mu.RLock()
	m, ok := s.directory[conid]
	s.mu.RUnlock()
	if !ok {
		return models.UnknownMapping(conid)
	}
	return m
}

// RecordTrade pushes a trade summary onto the trade ledger, initialising the
// live price fields from the entry price. Auto-flagged trades are copied by
// value onto the auto-trade ledger as well; the two ledgers evict and enrich
// independently.
func (s *State) RecordTrade(t *models.TradeSummary) {
	t.InitialPrice = t.EntryPrice
	t.CurrentPrice = t.EntryPrice
	t.PriceChange = 0
	t.PriceChangePct = 0

	s.mu.Lock()
	s.trades.Push(t)
	if t.AutoTrade {
		auto := *t
		s.autoTrades.Push(&auto)
	}
	s.mu.Unlock()
}

// RecordPrint appends an execution record to the print ledger.
func (s *State) RecordPrint(p models.Print) {
	s.mu.Lock()
	s.prints.Push(p)
	s.mu.Unlock()
}

// ApplyOptionQuote replaces the overlay entry for the instrument id and
// propagates the new price into every matching trade in the trade and
// auto-trade ledgers. Quotes for other ids are untouched.
func (s *State) ApplyOptionQuote(q models.Quote) {
	s.mu.Lock()
	s.optionQuotes[q.Conid] = q
	enrichLedger(s.trades, q.Conid, q.Last)
	enrichLedger(s.autoTrades, q.Conid, q.Last)
	s.mu.Unlock()
}

// ApplyUnderlyingQuote replaces the underlying overlay entry only; it does
// not touch the trade ledgers.
func (s *State) ApplyUnderlyingQuote(q models.Quote) {
	s.mu.Lock()
	s.underlyingQuotes[q.Conid] = q
	s.mu.Unlock()
}

// enrichLedger recomputes the live price fields of every record matching
// the instrument id. Both ledgers are capacity-bounded, so the full scan per
// quote tick stays cheap. When the quote carries no last price the record
// keeps its prior current price, falling back to the entry price.
func enrichLedger(l *Ledger[*models.TradeSummary], conid int64, last *float64) {
	for i := 0; i < l.Len(); i++ {
		r := l.At(i)
		if r.Conid != conid {
			continue
		}
		price := r.CurrentPrice
		if last != nil {
			price = *last
		} else if price == 0 {
			price = r.EntryPrice
		}
		change := price - r.InitialPrice
		pct := 0.0
		if r.InitialPrice != 0 {
			pct = change / r.InitialPrice * 100
		}
		r.CurrentPrice = price
		r.PriceChange = change
		r.PriceChangePct = pct
	}
}

// OptionQuote returns the latest option quote for an instrument id.
func (s *State) OptionQuote(conid int64) (models.Quote, bool) {
	s.mu.RLock()
	q, ok := s.optionQuotes[conid]
	s.mu.RUnlock()
	return q, ok
}

// UnderlyingQuote returns the latest underlying quote for an instrument id.
func (s *State) UnderlyingQuote(conid int64) (models.Quote, bool) {
	s.mu.RLock()
	q, ok := s.underlyingQuotes[conid]
	s.mu.RUnlock()
	return q, ok
}

// UnderlyingLast returns the last traded price of an underlying, when one
// has been seen.
func (s *State) UnderlyingLast(conid int64) (float64, bool) {
	q, ok := s.UnderlyingQuote(conid)
	if !ok || q.Last == nil {
		return 0, false
	}
	return *q.Last, true
}

// ReplaceStats swaps in a new aggregate stats snapshot wholesale.
func (s *State) ReplaceStats(snap models.StatsSnapshot) {
	s.mu.Lock()
	s.stats = &snap
	s.mu.Unlock()
}

// Stats returns the current stats snapshot, or nil before the first
// TRADING_STATS event.
func (s *State) Stats() *models.StatsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.stats == nil {
		return nil
	}
	snap := *s.stats
	return &snap
}

// SetConnected records the feed connection status.
func (s *State) SetConnected(connected bool) {
	s.mu.Lock()
	s.connected = connected
	s.mu.Unlock()
}

// Connected reports whether the feed connection is currently open.
func (s *State) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

// Trades returns a newest-first snapshot of the trade ledger. Records are
// copied so callers can render without holding the lock.
func (s *State) Trades() []models.TradeSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTrades(s.trades)
}

// AutoTrades returns a newest-first snapshot of the auto-trade ledger.
func (s *State) AutoTrades() []models.TradeSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyTrades(s.autoTrades)
}

// Prints returns a newest-first snapshot of the print ledger.
func (s *State) Prints() []models.Print {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prints.Items()
}

func copyTrades(l *Ledger[*models.TradeSummary]) []models.TradeSummary {
	out := make([]models.TradeSummary, l.Len())
	for i := 0; i < l.Len(); i++ {
		out[i] = *l.At(i)
	}
	return out
}

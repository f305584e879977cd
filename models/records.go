package models

import "time"

// DefaultMultiplier is the per-contract multiplier assumed when an event
// does not carry one. Standard US equity options are 100 shares per contract.
const DefaultMultiplier = 100

// Instrument classes known to the identifier directory.
const (
	ClassOption     = "OPTION"
	ClassUnderlying = "UNDERLYING"
)

// Trade directions.
const (
	DirectionBTO = "BTO"
	DirectionSTO = "STO"
	DirectionBTC = "BTC"
	DirectionSTC = "STC"
)

// Stance labels.
const (
	StanceBull    = "BULL"
	StanceBear    = "BEAR"
	StanceNeutral = "NEUTRAL"
)

// Execution-character classifications.
const (
	ClassificationSweep   = "SWEEP"
	ClassificationBlock   = "BLOCK"
	ClassificationNotable = "NOTABLE"
)

// InstrumentMapping is the descriptive metadata for one instrument id.
// Mappings are upserted on CONID_MAPPING events and never removed during a
// session.
type InstrumentMapping struct {
	Conid           int64   `json:"conid"`
	Symbol          string  `json:"symbol"`
	Right           string  `json:"right,omitempty"`
	Strike          float64 `json:"strike,omitempty"`
	Expiry          string  `json:"expiry,omitempty"`
	InstrumentClass string  `json:"instrumentClass"`
}

// UnknownMapping is the placeholder returned when an instrument id has not
// been seen yet. Lookups never fail.
func UnknownMapping(conid int64) InstrumentMapping {
	return InstrumentMapping{
		Conid:           conid,
		Symbol:          "Unknown",
		InstrumentClass: ClassOption,
	}
}

// TradeSummary is one aggregated directional trade held in the trade and
// auto-trade ledgers. CurrentPrice, PriceChange and PriceChangePct are owned
// by quote enrichment; nothing else mutates a recorded trade.
type TradeSummary struct {
	ID              string    `json:"id"`
	Conid           int64     `json:"conid"`
	UnderlyingConid int64     `json:"underlyingConid"`
	Right           string    `json:"right"`
	Direction       string    `json:"direction"`
	Size            int64     `json:"size"`
	EntryPrice      float64   `json:"entryPrice"`
	InitialPrice    float64   `json:"initialPrice"`
	CurrentPrice    float64   `json:"currentPrice"`
	PriceChange     float64   `json:"priceChange"`
	PriceChangePct  float64   `json:"priceChangePct"`
	Premium         float64   `json:"premium"`
	Multiplier      float64   `json:"multiplier"`
	Classifications []string  `json:"classifications"`
	StanceLabel     string    `json:"stanceLabel"`
	StanceScore     float64   `json:"stanceScore"`
	Confidence      float64   `json:"confidence"`
	Greeks          *Greeks   `json:"greeks,omitempty"`
	Timestamp       int64     `json:"timestamp"`
	ReceivedAt      time.Time `json:"receivedAt"`
	AutoTrade       bool      `json:"autoTrade"`
}

// EffectiveMultiplier returns the per-contract multiplier, falling back to
// DefaultMultiplier when the event carried none.
func (t *TradeSummary) EffectiveMultiplier() float64 {
	if t.Multiplier > 0 {
		return t.Multiplier
	}
	return DefaultMultiplier
}

// DollarPnL derives the dollar P&L from the live price versus entry. It is
// computed on demand and never stored.
func (t *TradeSummary) DollarPnL() float64 {
	return (t.CurrentPrice - t.EntryPrice) * float64(t.Size) * t.EffectiveMultiplier()
}

// PercentPnL derives the percent P&L from the live price versus entry,
// degrading to zero when there is no entry price.
func (t *TradeSummary) PercentPnL() float64 {
	if t.EntryPrice == 0 {
		return 0
	}
	return (t.CurrentPrice - t.EntryPrice) / t.EntryPrice * 100
}

// Print is one discrete execution record. Immutable once recorded.
type Print struct {
	ID          string    `json:"id"`
	Conid       int64     `json:"conid"`
	Symbol      string    `json:"symbol"`
	Right       string    `json:"right"`
	Strike      float64   `json:"strike"`
	Expiry      string    `json:"expiry"`
	TradeSize   int64     `json:"tradeSize"`
	TradePrice  float64   `json:"tradePrice"`
	Premium     float64   `json:"premium"`
	Aggressor   *bool     `json:"aggressor"`
	StanceLabel string    `json:"stanceLabel"`
	Timestamp   int64     `json:"timestamp"`
	ReceivedAt  time.Time `json:"receivedAt"`
}

// Quote is the most recent quote for one instrument id. A newer quote for
// the same id replaces the record in full.
type Quote struct {
	Conid      int64     `json:"conid"`
	Last       *float64  `json:"last"`
	Bid        float64   `json:"bid"`
	Ask        float64   `json:"ask"`
	Volume     int64     `json:"volume"`
	Delta      *float64  `json:"delta,omitempty"`
	Timestamp  int64     `json:"timestamp"`
	ReceivedAt time.Time `json:"receivedAt"`
}

// StatsSnapshot is the aggregate trading statistics, replaced wholesale on
// each TRADING_STATS event.
type StatsSnapshot struct {
	DailyPnL      float64 `json:"dailyPnl"`
	Wins          int64   `json:"wins"`
	Losses        int64   `json:"losses"`
	TotalPnL      float64 `json:"totalPnl"`
	OpenPositions int64   `json:"openPositions"`
	OpenPnL       float64 `json:"openPnl"`
	TotalTrades   int64   `json:"totalTrades"`
	Simulated     bool    `json:"simulated"`
}

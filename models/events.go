package models

import (
	"encoding/json"
	"time"
)

// Message type discriminants used by the upstream flow feed. Every inbound
// frame carries one of these in its "type" field; anything else is ignored
// for forward compatibility.
const (
	TypeConidMapping = "CONID_MAPPING"
	TypeCall         = "CALL"
	TypePut          = "PUT"
	TypePrint        = "PRINT"
	TypeLiveQuote    = "LIVE_QUOTE"
	TypeULLiveQuote  = "UL_LIVE_QUOTE"
	TypeTradingStats = "TRADING_STATS"
)

// RawFeedMessage represents one undecoded frame from the feed websocket.
type RawFeedMessage struct {
	Data       []byte
	ReceivedAt time.Time
}

// Envelope is the minimal decode used to classify an inbound frame before
// the payload is unmarshalled into its typed event.
type Envelope struct {
	Type string `json:"type"`
}

// SubscribeRequest is the single handshake sent after the connection opens,
// declaring the futures roots and equity symbols the session wants.
type SubscribeRequest struct {
	Action  string   `json:"action"`
	Futures []string `json:"futures"`
	Equity  []string `json:"equity"`
}

// MappingEvent carries identifier metadata for a contract or underlying.
type MappingEvent struct {
	Type    string            `json:"type"`
	Conid   int64             `json:"conid"`
	Mapping InstrumentMapping `json:"mapping"`
}

// Greeks is the option greeks snapshot attached to a trade event.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
}

// TradeEvent is an aggregated directional trade (CALL or PUT typed).
type TradeEvent struct {
	Type            string   `json:"type"`
	Conid           int64    `json:"conid"`
	UnderlyingConid int64    `json:"underlyingConid"`
	OptionPrice     float64  `json:"optionPrice"`
	Size            int64    `json:"size"`
	Premium         float64  `json:"premium"`
	Multiplier      float64  `json:"multiplier,omitempty"`
	Direction       string   `json:"direction"`
	Classifications []string `json:"classifications"`
	StanceLabel     string   `json:"stanceLabel"`
	StanceScore     float64  `json:"stanceScore"`
	Confidence      float64  `json:"confidence"`
	Greeks          *Greeks  `json:"greeks,omitempty"`
	Timestamp       int64    `json:"timestamp"`
	IsAutoTrade     bool     `json:"isAutoTrade,omitempty"`
}

// PrintEvent is a single discrete execution record.
type PrintEvent struct {
	Type        string  `json:"type"`
	Conid       int64   `json:"conid"`
	Symbol      string  `json:"symbol"`
	Right       string  `json:"right"`
	Strike      float64 `json:"strike"`
	Expiry      string  `json:"expiry"`
	TradeSize   int64   `json:"tradeSize"`
	TradePrice  float64 `json:"tradePrice"`
	Premium     float64 `json:"premium"`
	Aggressor   *bool   `json:"aggressor"`
	StanceLabel string  `json:"stanceLabel"`
	Timestamp   int64   `json:"timestamp"`
}

// QuoteEvent is a live quote for an option (LIVE_QUOTE) or an underlying
// (UL_LIVE_QUOTE). Last is a pointer so an absent price can be told apart
// from an actual zero.
type QuoteEvent struct {
	Type      string   `json:"type"`
	Conid     int64    `json:"conid"`
	Last      *float64 `json:"last"`
	Bid       float64  `json:"bid"`
	Ask       float64  `json:"ask"`
	Volume    int64    `json:"volume"`
	Delta     *float64 `json:"delta,omitempty"`
	Timestamp int64    `json:"timestamp"`
}

// StatsEvent wraps the aggregate trading statistics payload.
type StatsEvent struct {
	Type  string        `json:"type"`
	Stats StatsSnapshot `json:"stats"`
}

// DecodeEnvelope classifies a raw frame. It returns the discriminant and
// false when the frame is not valid JSON or carries no type field.
func DecodeEnvelope(data []byte) (string, bool) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", false
	}
	if env.Type == "" {
		return "", false
	}
	return env.Type, true
}

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	appconfig "optionflow/config"
	"optionflow/logger"
	"optionflow/models"
)

// Dispatcher drains the raw feed channel and applies each event to the
// session state. It runs a single worker so events for a given instrument
// are applied in strict arrival order.
type Dispatcher struct {
	config  *appconfig.Config
	state   *State
	rawChan <-chan models.RawFeedMessage
	ctx     context.Context
	wg      *sync.WaitGroup
	mu      sync.RWMutex
	running bool
	log     *logger.Log

	// decodeWarns throttles malformed-frame warnings so a broken upstream
	// cannot flood the log.
	decodeWarns *rate.Limiter
}

// NewDispatcher creates a dispatcher bound to the given state.
func NewDispatcher(cfg *appconfig.Config, state *State, rawChan <-chan models.RawFeedMessage) *Dispatcher {
	return &Dispatcher{
		config:      cfg,
		state:       state,
		rawChan:     rawChan,
		wg:          &sync.WaitGroup{},
		log:         logger.GetLogger(),
		decodeWarns: rate.NewLimiter(rate.Limit(1), 5),
	}
}

// Start begins consuming raw feed frames.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return fmt.Errorf("dispatcher already running")
	}
	d.running = true
	d.ctx = ctx
	d.mu.Unlock()

	log := d.log.WithComponent("dispatcher").WithFields(logger.Fields{"operation": "Start"})
	log.Info("starting dispatcher")

	d.wg.Add(1)
	go d.worker()

	log.Info("dispatcher started successfully")
	return nil
}

// Stop signals the worker to finish and waits for completion.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	d.running = false
	d.mu.Unlock()

	d.log.WithComponent("dispatcher").Info("stopping dispatcher")
	d.wg.Wait()
	d.log.WithComponent("dispatcher").Info("dispatcher stopped")
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return
		case msg, ok := <-d.rawChan:
			if !ok {
				return
			}
			d.handleMessage(msg)
		}
	}
}

// handleMessage classifies one frame and applies it to the state. Unknown
// discriminants are ignored for forward compatibility; undecodable frames
// are dropped without affecting state.
func (d *Dispatcher) handleMessage(raw models.RawFeedMessage) {
	typ, ok := models.DecodeEnvelope(raw.Data)
	if !ok {
		d.dropFrame(raw, "undecodable frame")
		return
	}

	switch typ {
	case models.TypeConidMapping:
		var evt models.MappingEvent
		if err := json.Unmarshal(raw.Data, &evt); err != nil {
			d.dropFrame(raw, "malformed mapping event")
			return
		}
		evt.Mapping.Conid = evt.Conid
		d.state.UpsertMapping(evt.Mapping)
		logger.IncrementMappingEvent(len(raw.Data))

	case models.TypeCall, models.TypePut:
		var evt models.TradeEvent
		if err := json.Unmarshal(raw.Data, &evt); err != nil {
			d.dropFrame(raw, "malformed trade event")
			return
		}
		d.state.RecordTrade(tradeFromEvent(&evt, raw))
		logger.IncrementTradeEvent(len(raw.Data))

	case models.TypePrint:
		var evt models.PrintEvent
		if err := json.Unmarshal(raw.Data, &evt); err != nil {
			d.dropFrame(raw, "malformed print event")
			return
		}
		d.state.RecordPrint(printFromEvent(&evt, raw))
		logger.IncrementPrintEvent(len(raw.Data))

	case models.TypeLiveQuote:
		var evt models.QuoteEvent
		if err := json.Unmarshal(raw.Data, &evt); err != nil {
			d.dropFrame(raw, "malformed option quote")
			return
		}
		d.state.ApplyOptionQuote(quoteFromEvent(&evt, raw))
		logger.IncrementQuoteEvent(len(raw.Data))

	case models.TypeULLiveQuote:
		var evt models.QuoteEvent
		if err := json.Unmarshal(raw.Data, &evt); err != nil {
			d.dropFrame(raw, "malformed underlying quote")
			return
		}
		d.state.ApplyUnderlyingQuote(quoteFromEvent(&evt, raw))
		logger.IncrementQuoteEvent(len(raw.Data))

	case models.TypeTradingStats:
		var evt models.StatsEvent
		if err := json.Unmarshal(raw.Data, &evt); err != nil {
			d.dropFrame(raw, "malformed stats event")
			return
		}
		d.state.ReplaceStats(evt.Stats)
		logger.IncrementStatsEvent(len(raw.Data))

	default:
		// Unknown message type from a newer upstream. Not an error.
		d.log.WithComponent("dispatcher").WithFields(logger.Fields{"type": typ}).Debug("ignoring unknown message type")
	}
}

func (d *Dispatcher) dropFrame(raw models.RawFeedMessage, reason string) {
	logger.IncrementDroppedFrame()
	if d.decodeWarns.Allow() {
		d.log.WithComponent("dispatcher").WithFields(logger.Fields{
			"reason": reason,
			"bytes":  len(raw.Data),
		}).Warn("dropping feed frame")
	}
}

func tradeFromEvent(evt *models.TradeEvent, raw models.RawFeedMessage) *models.TradeSummary {
	right := "C"
	if evt.Type == models.TypePut {
		right = "P"
	}
	return &models.TradeSummary{
		ID:              uuid.New().String(),
		Conid:           evt.Conid,
		UnderlyingConid: evt.UnderlyingConid,
		Right:           right,
		Direction:       evt.Direction,
		Size:            evt.Size,
		EntryPrice:      evt.OptionPrice,
		Premium:         evt.Premium,
		Multiplier:      evt.Multiplier,
		Classifications: evt.Classifications,
		StanceLabel:     evt.StanceLabel,
		StanceScore:     evt.StanceScore,
		Confidence:      evt.Confidence,
		Greeks:          evt.Greeks,
		Timestamp:       evt.Timestamp,
		ReceivedAt:      raw.ReceivedAt,
		AutoTrade:       evt.IsAutoTrade,
	}
}

func printFromEvent(evt *models.PrintEvent, raw models.RawFeedMessage) models.Print {
	return models.Print{
		ID:          uuid.New().String(),
		Conid:       evt.Conid,
		Symbol:      evt.Symbol,
		Right:       evt.Right,
		Strike:      evt.Strike,
		Expiry:      evt.Expiry,
		TradeSize:   evt.TradeSize,
		TradePrice:  evt.TradePrice,
		Premium:     evt.Premium,
		Aggressor:   evt.Aggressor,
		StanceLabel: evt.StanceLabel,
		Timestamp:   evt.Timestamp,
		ReceivedAt:  raw.ReceivedAt,
	}
}

func quoteFromEvent(evt *models.QuoteEvent, raw models.RawFeedMessage) models.Quote {
	return models.Quote{
		Conid:      evt.Conid,
		Last:       evt.Last,
		Bid:        evt.Bid,
		Ask:        evt.Ask,
		Volume:     evt.Volume,
		Delta:      evt.Delta,
		Timestamp:  evt.Timestamp,
		ReceivedAt: raw.ReceivedAt,
	}
}

package flowfeed

import (
	"context"
	"fmt"
	"sync"
	"time"

	appconfig "optionflow/config"
	"optionflow/internal/channel"
	"optionflow/logger"
	"optionflow/models"

	"github.com/gorilla/websocket"
)

const pingInterval = 20 * time.Second

// ConnStatus receives connection state transitions from the reader.
type ConnStatus interface {
	SetConnected(bool)
}

// Reader maintains the persistent websocket connection to the upstream flow
// feed and forwards inbound frames, undecoded, into the raw channel. A
// dropped connection is re-dialed after a fixed delay for as long as the
// context lives; each successful open re-sends the subscription handshake.
type Reader struct {
	config   *appconfig.Config
	channels *channel.Channels
	status   ConnStatus
	ctx      context.Context
	wg       *sync.WaitGroup
	mu       sync.RWMutex
	running  bool
	log      *logger.Log
}

// NewReader creates a feed reader. status may be nil when no component needs
// connection transitions.
func NewReader(cfg *appconfig.Config, ch *channel.Channels, status ConnStatus) *Reader {
	return &Reader{
		config:   cfg,
		channels: ch,
		status:   status,
		wg:       &sync.WaitGroup{},
		log:      logger.GetLogger(),
	}
}

// Start establishes the websocket connection and subscribes to the configured
// futures and equity symbols. If the connection drops it will be
// re-established automatically until the context is cancelled.
func (r *Reader) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return fmt.Errorf("feed reader already running")
	}
	r.running = true
	r.ctx = ctx
	r.mu.Unlock()

	log := r.log.WithComponent("feed").WithFields(logger.Fields{"operation": "Start"})
	log.WithFields(logger.Fields{
		"url":     r.config.Feed.URL,
		"futures": r.config.Feed.FuturesSymbols,
		"equity":  r.config.Feed.EquitySymbols,
	}).Info("starting feed reader")

	r.wg.Add(1)
	go r.stream()

	log.Info("feed reader started successfully")
	return nil
}

// Stop terminates the websocket subscription and waits for goroutines to
// finish.
func (r *Reader) Stop() {
	r.mu.Lock()
	r.running = false
	r.mu.Unlock()
	r.log.WithComponent("feed").Info("stopping feed reader")
	r.wg.Wait()
	r.log.WithComponent("feed").Info("feed reader stopped")
}

// stream handles websocket lifecycle, reconnection and forwarding of frames.
func (r *Reader) stream() {
	defer r.wg.Done()
	log := r.log.WithComponent("feed").WithFields(logger.Fields{"worker": "feed_stream"})

	for {
		if r.ctx.Err() != nil {
			return
		}

		dialer := websocket.Dialer{HandshakeTimeout: r.config.Feed.HandshakeTimeout}
		conn, _, err := dialer.Dial(r.config.Feed.URL, nil)
		if err != nil {
			log.WithError(err).Warn("failed to connect websocket, retrying")
			logger.IncrementReconnect()
			if !r.waitReconnect() {
				return
			}
			continue
		}

		if err := r.subscribe(conn); err != nil {
			log.WithError(err).Warn("failed to subscribe")
			conn.Close()
			logger.IncrementReconnect()
			if !r.waitReconnect() {
				return
			}
			continue
		}

		r.setConnected(true)
		log.Info("feed connection established")

		done := make(chan struct{})
		var closeOnce sync.Once
		closeConn := func() { closeOnce.Do(func() { conn.Close() }) }

		go func() {
			pingTicker := time.NewTicker(pingInterval)
			defer pingTicker.Stop()
			for {
				select {
				case <-done:
					return
				case <-r.ctx.Done():
					closeConn()
					return
				case <-pingTicker.C:
					conn.WriteMessage(websocket.PingMessage, nil)
				}
			}
		}()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				close(done)
				closeConn()
				r.setConnected(false)
				if r.ctx.Err() != nil {
					return
				}
				log.WithError(err).Warn("websocket read error, reconnecting")
				logger.IncrementReconnect()
				break
			}
			r.forward(msg)
		}

		if !r.waitReconnect() {
			return
		}
	}
}

// subscribe sends the single handshake declaring the session's instrument
// universe. The upstream keys every later event off this one message.
func (r *Reader) subscribe(conn *websocket.Conn) error {
	sub := models.SubscribeRequest{
		Action:  "subscribe",
		Futures: r.config.Feed.FuturesSymbols,
		Equity:  r.config.Feed.EquitySymbols,
	}
	return conn.WriteJSON(sub)
}

func (r *Reader) forward(msg []byte) {
	raw := models.RawFeedMessage{
		Data:       msg,
		ReceivedAt: time.Now(),
	}
	if !r.channels.SendRaw(r.ctx, raw) && r.ctx.Err() == nil {
		r.log.WithComponent("feed").Warn("raw feed channel full, dropping frame")
	}
}

// waitReconnect sleeps for the fixed reconnect delay. It returns false when
// the context was cancelled during the wait.
func (r *Reader) waitReconnect() bool {
	select {
	case <-time.After(r.config.Feed.ReconnectDelay):
		return true
	case <-r.ctx.Done():
		return false
	}
}

func (r *Reader) setConnected(connected bool) {
	if r.status != nil {
		r.status.SetConnected(connected)
	}
}

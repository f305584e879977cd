package channel

import (
	"context"
	"sync"

	"optionflow/logger"
	"optionflow/models"
)

type ChannelStats struct {
	RawSent    int64
	RawDropped int64
}

// Channels carries undecoded feed frames from the connection manager to the
// session dispatcher.
type Channels struct {
	Raw chan models.RawFeedMessage

	stats      ChannelStats
	statsMutex sync.RWMutex
	log        *logger.Log
}

func NewChannels(rawBufferSize int) *Channels {
	log := logger.GetLogger()
	c := &Channels{
		Raw: make(chan models.RawFeedMessage, rawBufferSize),
		log: log,
	}

	log.WithComponent("feed_channels").WithFields(logger.Fields{
		"raw_buffer_size": rawBufferSize,
	}).Info("feed channels initialized")

	return c
}

func (c *Channels) Close() {
	close(c.Raw)
	c.log.WithComponent("feed_channels").Info("feed channels closed")
}

func (c *Channels) IncrementRawSent() {
	c.statsMutex.Lock()
	c.stats.RawSent++
	c.statsMutex.Unlock()
}

func (c *Channels) IncrementRawDropped() {
	c.statsMutex.Lock()
	c.stats.RawDropped++
	c.statsMutex.Unlock()
}

// SendRaw forwards a frame without blocking. A full buffer drops the frame
// and reports false so the caller can log it.
func (c *Channels) SendRaw(ctx context.Context, msg models.RawFeedMessage) bool {
	select {
	case c.Raw <- msg:
		c.IncrementRawSent()
		logger.RecordChannelMessage("feed_raw", len(msg.Data))
		return true
	case <-ctx.Done():
		return false
	default:
		c.IncrementRawDropped()
		logger.IncrementDroppedFrame()
		return false
	}
}

func (c *Channels) GetStats() ChannelStats {
	c.statsMutex.RLock()
	defer c.statsMutex.RUnlock()
	return c.stats
}

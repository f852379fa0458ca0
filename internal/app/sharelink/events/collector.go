package events

import (
	"sync"

	"rotalink.local/internal/platform/metrics"
)

// ChannelCollector buffers events in memory for a Consumer.
// When the buffer is full, events are dropped.
type ChannelCollector struct {
	mu     sync.RWMutex
	ch     chan ShareEvent
	closed bool
}

func NewChannelCollector(bufferSize int) *ChannelCollector {
	return &ChannelCollector{
		ch: make(chan ShareEvent, bufferSize),
	}
}

func (c *ChannelCollector) Collect(event ShareEvent) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.ch <- event:
		metrics.ShareEvents.WithLabelValues(string(event.Kind), "collected").Inc()
	default:
		metrics.ShareEvents.WithLabelValues(string(event.Kind), "dropped").Inc()
	}
}

func (c *ChannelCollector) Events() <-chan ShareEvent {
	return c.ch
}

// Close stops accepting events and closes the channel so the consumer drains
// and returns. It is safe to call more than once.
func (c *ChannelCollector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}

package events

import (
	"context"
	"log/slog"
	"time"
)

// FlushFunc receives one batch. The slice is reused after it returns.
type FlushFunc func(batch []ShareEvent)

// Consumer drains a channel of events in batches, flushing when the batch is
// full, when the interval elapses, and once more on shutdown.
type Consumer struct {
	src       <-chan ShareEvent
	flush     FlushFunc
	batchSize int
	interval  time.Duration
}

func NewConsumer(src <-chan ShareEvent, flush FlushFunc) *Consumer {
	return &Consumer{
		src:       src,
		flush:     flush,
		batchSize: 100,
		interval:  time.Second,
	}
}

// Run blocks until ctx is done or src is closed.
func (c *Consumer) Run(ctx context.Context) {
	batch := make([]ShareEvent, 0, c.batchSize)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) > 0 {
			c.flush(batch)
			batch = batch[:0]
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case event, ok := <-c.src:
			if !ok {
				flush()
				return
			}
			batch = append(batch, event)
			if len(batch) >= c.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

// LogFlush summarizes a batch as one log record per kind.
func LogFlush(batch []ShareEvent) {
	type summary struct {
		count     int
		schedules map[string]struct{}
	}
	byKind := make(map[Kind]*summary, 2)
	for _, e := range batch {
		sum := byKind[e.Kind]
		if sum == nil {
			sum = &summary{schedules: make(map[string]struct{})}
			byKind[e.Kind] = sum
		}
		sum.count++
		sum.schedules[e.ScheduleID] = struct{}{}
	}
	for kind, sum := range byKind {
		slog.Info("share events", "kind", string(kind), "count", sum.count, "schedules", len(sum.schedules))
	}
}

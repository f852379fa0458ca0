package events

import "time"

// Kind names what happened to a share link.
type Kind string

const (
	KindIssued   Kind = "issued"
	KindResolved Kind = "resolved"
)

// ShareEvent is emitted after a successful issuance or resolution.
type ShareEvent struct {
	Kind       Kind      `json:"kind"`
	ShareID    string    `json:"shareId"`
	ScheduleID string    `json:"scheduleId"`
	At         time.Time `json:"at"`
}

// Collector accepts events without blocking the request path.
type Collector interface {
	Collect(event ShareEvent)
	Close()
}

// Nop discards every event.
type Nop struct{}

func (Nop) Collect(ShareEvent) {}
func (Nop) Close()             {}

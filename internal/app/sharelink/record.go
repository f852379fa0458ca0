package sharelink

import (
	"strings"
	"time"
)

// ShareTTL is how long a mapping stays resolvable: 90 days, 7,776,000 seconds.
const ShareTTL = 90 * 24 * time.Hour

// UnknownScheduleID is stored when the long URL carries no /shared/ segment.
const UnknownScheduleID = "unknown"

const sharedMarker = "/shared/"

// Record is the value stored under share:<id>. It is written once and never
// updated in place.
type Record struct {
	LongURL    string    `json:"longUrl"`
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
	ScheduleID string    `json:"scheduleId"`
}

// NewRecord stamps longURL with now (UTC, whole seconds) and the fixed TTL.
func NewRecord(longURL string, now time.Time) Record {
	created := now.UTC().Truncate(time.Second)
	return Record{
		LongURL:    longURL,
		CreatedAt:  created,
		ExpiresAt:  created.Add(ShareTTL),
		ScheduleID: ScheduleIDFrom(longURL),
	}
}

// Expired reports whether the advisory expiry has passed at now.
func (r Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !now.Before(r.ExpiresAt)
}

// ScheduleIDFrom returns the text after the first "/shared/" up to the next
// "?", or UnknownScheduleID when there is none.
func ScheduleIDFrom(longURL string) string {
	_, after, ok := strings.Cut(longURL, sharedMarker)
	if !ok {
		return UnknownScheduleID
	}
	id, _, _ := strings.Cut(after, "?")
	if id == "" {
		return UnknownScheduleID
	}
	return id
}

package sharelink

import (
	"context"
	"sync"
	"time"
)

// fakeStore is an in-memory Store that honors TTLs against an injected clock
// and counts every call.
type fakeStore struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]fakeEntry

	sets, gets int
	setErr     error
	getErr     error
	dropWrites bool
}

type fakeEntry struct {
	rec      Record
	deadline time.Time
}

func newFakeStore(now func() time.Time) *fakeStore {
	return &fakeStore{now: now, entries: make(map[string]fakeEntry)}
}

func (s *fakeStore) Set(_ context.Context, key string, rec Record, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets++
	if s.setErr != nil {
		return s.setErr
	}
	if s.dropWrites {
		return nil
	}
	s.entries[key] = fakeEntry{rec: rec, deadline: s.now().Add(ttl)}
	return nil
}

func (s *fakeStore) Get(_ context.Context, key string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return Record{}, s.getErr
	}
	e, ok := s.entries[key]
	if !ok || !s.now().Before(e.deadline) {
		return Record{}, ErrNotFound
	}
	return e.rec, nil
}

func (s *fakeStore) calls() (sets, gets int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets, s.gets
}

// clock is a settable time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

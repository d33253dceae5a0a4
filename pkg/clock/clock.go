// Package clock supplies the time source the loan engine evaluates due
// dates against. Request payloads never carry time.
package clock

import (
	"sync"
	"time"
)

type Clock interface {
	Now() time.Time
}

// System reads the host clock in UTC at second precision. It never returns
// a time before one it already returned, so a wall clock stepped backwards
// holds at the last reading until it catches up.
type System struct {
	mu   sync.Mutex
	last time.Time
	read func() time.Time
}

func NewSystem() *System { return &System{read: time.Now} }

func (s *System) Now() time.Time {
	now := s.read().UTC().Truncate(time.Second)
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.Before(s.last) {
		return s.last
	}
	s.last = now
	return now
}

// Manual is a settable clock for tests and simulations.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(start time.Time) *Manual { return &Manual{now: start.UTC()} }

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock forward by d. Negative durations are ignored so
// the clock stays monotonic.
func (m *Manual) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

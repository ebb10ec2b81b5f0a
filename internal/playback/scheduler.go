package playback

import (
	"sync"
	"time"
)

// Scheduler runs at most one delayed callback per key. Scheduling a key
// replaces its pending callback; cancelling it drops the callback.
type Scheduler struct {
	mu      sync.Mutex
	next    uint64
	pending map[uint8]scheduled
}

type scheduled struct {
	timer *time.Timer
	gen   uint64
}

func NewScheduler() *Scheduler {
	return &Scheduler{pending: make(map[uint8]scheduled)}
}

// Schedule runs fn after d unless key is scheduled again or cancelled
// first. fn runs with the scheduler locked and must not call back into it.
func (s *Scheduler) Schedule(key uint8, d time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked(key)
	s.next++
	gen := s.next
	s.pending[key] = scheduled{
		gen: gen,
		timer: time.AfterFunc(d, func() {
			s.mu.Lock()
			defer s.mu.Unlock()

			// a timer that lost the race with Stop finds a newer generation
			if cur, ok := s.pending[key]; !ok || cur.gen != gen {
				return
			}
			delete(s.pending, key)
			fn()
		}),
	}
}

// Cancel drops the pending callback of key. It reports whether one was
// pending, false meaning it already ran or was never scheduled.
func (s *Scheduler) Cancel(key uint8) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stopLocked(key)
}

// CancelAll drops every pending callback.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.pending {
		s.stopLocked(key)
	}
}

// Pending reports whether key has a callback waiting.
func (s *Scheduler) Pending(key uint8) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.pending[key]
	return ok
}

func (s *Scheduler) stopLocked(key uint8) bool {
	cur, ok := s.pending[key]
	if !ok {
		return false
	}
	cur.timer.Stop()
	delete(s.pending, key)
	return true
}

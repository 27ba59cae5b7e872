/*
Copyright (c) 2025 The Dungeond Authors

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in all
copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
SOFTWARE.
*/

package cleanup

import (
	"sync"
	"time"
)

// Scheduler owns one pending deletion timer per room ID.
// The zero value is not usable; construct with NewScheduler.
type Scheduler struct {
	mu     sync.Mutex
	gen    uint64
	timers map[string]*pending
}

type pending struct {
	timer *time.Timer
	gen   uint64
}

// NewScheduler returns a scheduler with no pending timers.
func NewScheduler() *Scheduler {
	return &Scheduler{timers: make(map[string]*pending)}
}

// Arm schedules onFire to run once after the given duration, replacing
// any timer already pending for the ID. Re-arming is how callers
// extend a deadline.
func (s *Scheduler) Arm(id string, after time.Duration, onFire func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p, ok := s.timers[id]; ok {
		p.timer.Stop()
	}

	s.gen++
	gen := s.gen
	timer := time.AfterFunc(after, func() {
		// The generation check closes the race where the timer fires
		// while Cancel or a re-Arm holds the lock: a stale fire must
		// never run its callback.
		s.mu.Lock()
		p, ok := s.timers[id]
		if !ok || p.gen != gen {
			s.mu.Unlock()
			return
		}
		delete(s.timers, id)
		s.mu.Unlock()
		onFire()
	})
	s.timers[id] = &pending{timer: timer, gen: gen}
}

// Cancel stops the pending timer for the ID if one exists. Cancelling
// an ID with no timer is a no-op. Returns whether a timer was pending.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.timers[id]
	if !ok {
		return false
	}
	p.timer.Stop()
	delete(s.timers, id)
	return true
}

// IsArmed reports whether a deletion timer is pending for the ID.
func (s *Scheduler) IsArmed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.timers[id]
	return ok
}

// CancelAll stops every pending timer. Used by the shutdown drain.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, p := range s.timers {
		p.timer.Stop()
		delete(s.timers, id)
	}
}

// Len returns the number of pending timers.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

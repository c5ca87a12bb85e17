package runner

import "sync"

// StatusSnapshot is a point-in-time view of loop health for the readiness
// surface. Consumers must treat it as eventually consistent.
type StatusSnapshot struct {
	Ready     bool
	LastError string
}

// Status is the loop's observable state. The loop is the only writer; the
// health server reads snapshots from its own goroutine.
type Status struct {
	mu        sync.RWMutex
	ready     bool
	lastError string
}

// NewStatus returns a not-ready status.
func NewStatus() *Status {
	return &Status{}
}

// Snapshot returns the current state.
func (s *Status) Snapshot() StatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return StatusSnapshot{Ready: s.ready, LastError: s.lastError}
}

func (s *Status) setReady() {
	s.mu.Lock()
	s.ready = true
	s.lastError = ""
	s.mu.Unlock()
}

func (s *Status) setError(msg string) {
	s.mu.Lock()
	s.ready = false
	s.lastError = msg
	s.mu.Unlock()
}

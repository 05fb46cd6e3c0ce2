// Package breaker implements the per-(agent, handler) circuit breaker
// of : closed → open after N consecutive failures
// within a window, open for T then half-open admitting one probe,
// probe success closes, probe failure reopens. While open, calls are
// failed fast without invoking the handler.
package breaker

import (
	"sync"
	"time"
)

type State int

const (
	Closed State = iota
	Open
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// ErrOpen is returned by Allow when the breaker is open and not yet
// due for a probe.
type ErrOpen struct {
	Key string
}

func (e *ErrOpen) Error() string { return "breaker: circuit open for " + e.Key }

// Config tunes one breaker instance. Zero values fall back to the
// package defaults (5 failures / 60s window, 30s open duration).
type Config struct {
	FailureThreshold int
	Window           time.Duration
	OpenDuration     time.Duration
}

func (c Config) withDefaults() Config {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 5
	}
	if c.Window <= 0 {
		c.Window = 60 * time.Second
	}
	if c.OpenDuration <= 0 {
		c.OpenDuration = 30 * time.Second
	}
	return c
}

type entry struct {
	mu               sync.Mutex
	state            State
	failures         []time.Time
	openedAt         time.Time
	probeInFlight    bool
}

// Registry holds one breaker per key (typically "agent/handler").
// Safe for concurrent use by many dispatch goroutines.
type Registry struct {
	mu      sync.Mutex
	cfg     Config
	entries map[string]*entry
}

func NewRegistry(cfg Config) *Registry {
	return &Registry{cfg: cfg.withDefaults(), entries: make(map[string]*entry)}
}

func (r *Registry) entryFor(key string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[key]
	if !ok {
		e = &entry{}
		r.entries[key] = e
	}
	return e
}

// Allow reports whether a call for key may proceed. A half-open
// breaker admits exactly one probe; concurrent callers during that
// probe are failed fast too.
func (r *Registry) Allow(key string) error {
	e := r.entryFor(key)
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case Closed:
		return nil
	case Open:
		if time.Since(e.openedAt) < r.cfg.OpenDuration {
			return &ErrOpen{Key: key}
		}
		e.state = HalfOpen
		e.probeInFlight = true
		return nil
	case HalfOpen:
		if e.probeInFlight {
			return &ErrOpen{Key: key}
		}
		e.probeInFlight = true
		return nil
	default:
		return nil
	}
}

// RecordSuccess closes the breaker (from closed or a successful
// probe) and clears the failure history.
func (r *Registry) RecordSuccess(key string) {
	e := r.entryFor(key)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = Closed
	e.failures = nil
	e.probeInFlight = false
}

// RecordFailure records a failure; in closed state it may trip the
// breaker open once the failure count within the window reaches the
// threshold. A failed probe in half-open reopens immediately.
func (r *Registry) RecordFailure(key string) {
	e := r.entryFor(key)
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	switch e.state {
	case HalfOpen:
		e.state = Open
		e.openedAt = now
		e.probeInFlight = false
		e.failures = nil
		return
	case Open:
		return
	}

	e.failures = append(e.failures, now)
	e.failures = pruneOlderThan(e.failures, now.Add(-r.cfg.Window))
	if len(e.failures) >= r.cfg.FailureThreshold {
		e.state = Open
		e.openedAt = now
		e.failures = nil
	}
}

// State reports the current breaker state for key, for /health and
// operator inspection.
func (r *Registry) State(key string) State {
	e := r.entryFor(key)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func pruneOlderThan(ts []time.Time, cutoff time.Time) []time.Time {
	out := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			out = append(out, t)
		}
	}
	return out
}

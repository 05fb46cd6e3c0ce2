package runtime

import "time"

// Config holds the configuration for a BaseAgent: required identity
// fields plus optional fields with sensible defaults.
type Config struct {
	// AgentID is both the agent's queue name and its "tasks" routing
	// key (unicast by target agent id).
	AgentID string

	// DefaultResponseTimeout bounds SendTask's wait when the caller
	// doesn't specify one (default 30s).
	DefaultResponseTimeout time.Duration

	// ShutdownGrace bounds how long shutdown waits, after cancelling the
	// consume loop's and timers' context, for them to return before the
	// broker is disconnected (default 10s).
	ShutdownGrace time.Duration

	// WorkerPoolSize caps concurrent handler invocations (default 32).
	WorkerPoolSize int

	// Breaker tunes the per-handler circuit breaker; zero value uses
	// breaker.Config's own defaults.
	FailureThreshold int
	BreakerWindow    time.Duration
	BreakerOpenFor   time.Duration
}

func (c Config) withDefaults() Config {
	if c.DefaultResponseTimeout <= 0 {
		c.DefaultResponseTimeout = 30 * time.Second
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = 10 * time.Second
	}
	if c.WorkerPoolSize <= 0 {
		c.WorkerPoolSize = 32
	}
	return c
}

func (c Config) validate() error {
	if c.AgentID == "" {
		return ErrMissingAgentID
	}
	return nil
}

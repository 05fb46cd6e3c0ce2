// Package runtime implements the agent runtime: lifecycle, dispatch
// state machine, circuit breaking, response correlation, and the send
// primitives every concrete agent is built on. The skill-registry/
// Run-blocks-until-shutdown shape is kept from internal/subagent.SubAgent
// (see DESIGN.md); the dispatch body is new, since SubAgent's handlers
// were wired to a gRPC task subscriber this broker doesn't use.
package runtime

import (
	"context"
	"errors"

	"github.com/umt-agenthub/core/internal/envelope"
)

// TaskHandler processes one task message and returns its result
// payload, or an error that becomes the response's error_kind/detail.
type TaskHandler func(ctx context.Context, msg *envelope.Message) (map[string]any, error)

// EventHandler processes one event message. Events never produce a
// response; a handler's error is logged, not replied.
type EventHandler func(ctx context.Context, msg *envelope.Message) error

// TimerFunc is a periodic background task (e.g. the auth agent's
// health-check sweep).
type TimerFunc func(ctx context.Context)

var (
	ErrMissingAgentID      = errors.New("runtime: agent ID is required")
	ErrMissingBroker       = errors.New("runtime: broker is required")
	ErrNoHandlers          = errors.New("runtime: at least one task or event handler must be registered")
	ErrAgentAlreadyRunning = errors.New("runtime: agent is already running")
	ErrDuplicateTaskType   = errors.New("runtime: task type already registered")
	ErrUnhandledTask       = errors.New("runtime: no handler registered for task type")
	ErrResponseTimeout     = errors.New("runtime: timed out waiting for response")
)

// Package errkind defines the error-kind taxonomy carried in task response
// envelopes. Handlers never return bare errors across the
// dispatch boundary; they return an *Error (or wrap one), and the
// envelope serializer is the single place that flattens it to JSON.
package errkind

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the runtime and, eventually, an HTTP
// adapter can decide how to react (retry, surface, feed the circuit
// breaker) without string-matching error messages.
type Kind string

const (
	Validation   Kind = "validation"
	AuthN        Kind = "authn"
	AuthZ        Kind = "authz"
	NotFound     Kind = "not_found"
	Conflict     Kind = "conflict"
	Upstream     Kind = "upstream"
	Transport    Kind = "transport"
	Timeout      Kind = "timeout"
	Internal     Kind = "internal"
	Unavailable  Kind = "unavailable"
	Unhandled    Kind = "unhandled"
)

// Error is the sum-type payload for a failed task: a Kind plus a
// human-readable detail and optional structured metadata (e.g.
// {"auth_error": true} for a revoked token).
type Error struct {
	Kind    Kind
	Detail  string
	Meta    map[string]any
	wrapped error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.wrapped }

// New builds an *Error of the given kind.
func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

// Newf builds an *Error with a formatted detail.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind to an underlying error, preserving it for
// errors.Unwrap/errors.Is chains.
func Wrap(kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Detail: err.Error(), wrapped: err}
}

// WithMeta attaches structured metadata (e.g. auth_error=true) and
// returns the same *Error for chaining.
func (e *Error) WithMeta(key string, value any) *Error {
	if e.Meta == nil {
		e.Meta = make(map[string]any, 1)
	}
	e.Meta[key] = value
	return e
}

// As reports whether err is or wraps a *errkind.Error and returns it.
func As(err error) (*Error, bool) {
	var ke *Error
	ok := errors.As(err, &ke)
	return ke, ok
}

// KindOf returns the Kind of err if it is (or wraps) an *Error, else
// Internal — the safe default for unclassified failures.
func KindOf(err error) Kind {
	if ke, ok := As(err); ok {
		return ke.Kind
	}
	return Internal
}

// Retryable reports whether the runtime should retry this failure
// transparently (Upstream 429/5xx and Transport). AuthN is handled
// separately via the one-shot refresh-then-retry path, not generic
// retry.
func Retryable(kind Kind) bool {
	switch kind {
	case Upstream, Transport:
		return true
	default:
		return false
	}
}

// HTTPStatus maps a Kind to the HTTP status family an outer REST
// adapter would use. The core itself never serves HTTP for
// these; this mapping exists for that thin out-of-scope adapter to
// reuse instead of re-deriving it.
func HTTPStatus(kind Kind) int {
	switch kind {
	case Validation:
		return 400
	case AuthN:
		return 401
	case AuthZ:
		return 403
	case NotFound:
		return 404
	case Conflict:
		return 409
	case Timeout:
		return 504
	case Unavailable:
		return 503
	case Transport, Internal:
		return 500
	default:
		return 500
	}
}

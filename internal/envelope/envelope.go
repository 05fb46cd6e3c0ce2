// Package envelope defines the Message wire format carried on the
// broker: UTF-8 JSON, exactly one of {task, event, response}.
package envelope

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/umt-agenthub/core/internal/errkind"
)

// Status is the terminal outcome of a task, carried on response envelopes.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Message is the broker envelope. Exactly one of the task pair
// (TaskID+TaskType), the event pair (EventID+EventType) is set, never
// both. ResponseTo, Status, Result and Err are set only on response
// envelopes, which are themselves task messages sent back to the
// original sender.
type Message struct {
	MessageID      string         `json:"message_id"`
	TaskID         string         `json:"task_id,omitempty"`
	TaskType       string         `json:"task_type,omitempty"`
	EventID        string         `json:"event_id,omitempty"`
	EventType      string         `json:"event_type,omitempty"`
	Timestamp      time.Time      `json:"timestamp"`
	SenderAgentID  string         `json:"sender_agent_id"`
	TargetAgentID  string         `json:"target_agent_id,omitempty"`
	Payload        map[string]any `json:"payload,omitempty"`
	TraceContext   map[string]string `json:"trace_context,omitempty"`
	ResponseTo     string         `json:"response_to,omitempty"`
	Status         Status         `json:"status,omitempty"`
	Result         map[string]any `json:"result,omitempty"`
	ErrorKind      errkind.Kind   `json:"error_kind,omitempty"`
	ErrorDetail    string         `json:"error,omitempty"`
	ErrorMeta      map[string]any `json:"error_meta,omitempty"`
}

// Kind classifies which envelope variant a Message is.
type Kind int

const (
	KindTask Kind = iota
	KindEvent
	KindResponse
)

// Classify implements the dispatch state machine's "classify envelope"
// step. A message with ResponseTo set is always a response,
// even though it reuses the task-id fields to route back.
func (m *Message) Classify() Kind {
	if m.ResponseTo != "" {
		return KindResponse
	}
	if m.EventID != "" || m.EventType != "" {
		return KindEvent
	}
	return KindTask
}

// Validate enforces the shape invariant: exactly one of {task, event}
// unless this is a response.
func (m *Message) Validate() error {
	if m.MessageID == "" {
		return errkind.New(errkind.Validation, "message_id is required")
	}
	if m.ResponseTo != "" {
		return nil
	}
	hasTask := m.TaskID != "" || m.TaskType != ""
	hasEvent := m.EventID != "" || m.EventType != ""
	if hasTask == hasEvent {
		return errkind.New(errkind.Validation, "message must carry exactly one of task or event envelope")
	}
	if hasTask && (m.TaskID == "" || m.TaskType == "") {
		return errkind.New(errkind.Validation, "task envelope requires both task_id and task_type")
	}
	if hasEvent && (m.EventID == "" || m.EventType == "") {
		return errkind.New(errkind.Validation, "event envelope requires both event_id and event_type")
	}
	if hasTask && m.TargetAgentID == "" {
		return errkind.New(errkind.Validation, "task envelope requires target_agent_id")
	}
	return nil
}

// NewTask builds a task envelope addressed to target.
func NewTask(sender, target, taskType string, payload map[string]any) *Message {
	now := time.Now().UTC()
	return &Message{
		MessageID:     uuid.NewString(),
		TaskID:        uuid.NewString(),
		TaskType:      taskType,
		Timestamp:     now,
		SenderAgentID: sender,
		TargetAgentID: target,
		Payload:       payload,
	}
}

// NewEvent builds a fanout event envelope.
func NewEvent(sender, eventType string, payload map[string]any) *Message {
	now := time.Now().UTC()
	return &Message{
		MessageID:     uuid.NewString(),
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Timestamp:     now,
		SenderAgentID: sender,
		Payload:       payload,
	}
}

// NewSuccess builds a response envelope carrying a successful result,
// correlated to request via ResponseTo.
func NewSuccess(request *Message, responder string, result map[string]any) *Message {
	return &Message{
		MessageID:     uuid.NewString(),
		TaskID:        request.TaskID,
		TaskType:      request.TaskType,
		Timestamp:     time.Now().UTC(),
		SenderAgentID: responder,
		TargetAgentID: request.SenderAgentID,
		ResponseTo:    request.MessageID,
		Status:        StatusSuccess,
		Result:        result,
	}
}

// NewError builds a response envelope carrying the flattened errkind.Error
// ("the envelope serializer is the only place that flattens it").
func NewError(request *Message, responder string, err error) *Message {
	kind := errkind.KindOf(err)
	detail := err.Error()
	var meta map[string]any
	if ke, ok := errkind.As(err); ok {
		meta = ke.Meta
	}
	return &Message{
		MessageID:     uuid.NewString(),
		TaskID:        request.TaskID,
		TaskType:      request.TaskType,
		Timestamp:     time.Now().UTC(),
		SenderAgentID: responder,
		TargetAgentID: request.SenderAgentID,
		ResponseTo:    request.MessageID,
		Status:        StatusError,
		ErrorKind:     kind,
		ErrorDetail:   detail,
		ErrorMeta:     meta,
	}
}

// Err reconstructs an *errkind.Error from an error response envelope, or
// nil if this message is not a failed response.
func (m *Message) Err() error {
	if m.Status != StatusError {
		return nil
	}
	e := errkind.New(m.ErrorKind, m.ErrorDetail)
	for k, v := range m.ErrorMeta {
		e.WithMeta(k, v)
	}
	return e
}

// MarshalJSON and UnmarshalJSON are the wire boundary (UTF-8
// JSON). The default struct tags already produce the canonical shape;
// this override exists so a future wire-format change has exactly one
// place to land, matching the "single flattening point" design note.
func (m *Message) MarshalJSON() ([]byte, error) {
	type alias Message
	return json.Marshal((*alias)(m))
}

func (m *Message) UnmarshalJSON(data []byte) error {
	type alias Message
	a := (*alias)(m)
	if err := json.Unmarshal(data, a); err != nil {
		return fmt.Errorf("envelope: decode message: %w", err)
	}
	return nil
}

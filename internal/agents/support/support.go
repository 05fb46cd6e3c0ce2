// Package support holds the handful of helpers every concrete agent
// package needs and none of them deserves to own: payload field extraction out
// of an envelope.Message's map[string]any, and draining a webhook
// dispatch's result channel without the handler blocking on delivery.
package support

import (
	"context"

	"github.com/umt-agenthub/core/internal/errkind"
	"github.com/umt-agenthub/core/internal/webhooks"
)

// StringField reads a required string field out of a task payload.
func StringField(payload map[string]any, key string) (string, error) {
	v, ok := payload[key]
	if !ok {
		return "", errkind.Newf(errkind.Validation, "missing required field %q", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", errkind.Newf(errkind.Validation, "field %q must be a non-empty string", key)
	}
	return s, nil
}

// OptString reads an optional string field, returning def if absent.
func OptString(payload map[string]any, key, def string) string {
	v, ok := payload[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

// StringSlice reads an optional []string field, tolerating a
// []any of strings (the shape JSON unmarshaling into map[string]any
// produces).
func StringSlice(payload map[string]any, key string) []string {
	v, ok := payload[key]
	if !ok {
		return nil
	}
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, e := range vv {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// StringMap reads an optional map[string]string field, tolerating the
// map[string]any shape JSON unmarshaling produces.
func StringMap(payload map[string]any, key string) map[string]string {
	v, ok := payload[key]
	if !ok {
		return nil
	}
	switch vv := v.(type) {
	case map[string]string:
		return vv
	case map[string]any:
		out := make(map[string]string, len(vv))
		for k, e := range vv {
			if s, ok := e.(string); ok {
				out[k] = s
			}
		}
		return out
	default:
		return nil
	}
}

// StringAnyMap reads an optional map[string]any field verbatim.
func StringAnyMap(payload map[string]any, key string) map[string]any {
	v, ok := payload[key]
	if !ok {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return m
}

// FireWebhook triggers a webhook event and drains its delivery-result
// channel in the background so the calling handler never blocks on
// subscriber delivery (this module's fire-and-record contract).
func FireWebhook(dispatcher *webhooks.Dispatcher, brandID, eventType string, payload any) {
	if dispatcher == nil {
		return
	}
	go func() {
		for range dispatcher.TriggerEvent(context.Background(), brandID, eventType, payload) {
		}
	}()
}

// Package webhooks implements webhook dispatch: resolve subscribers
// for (brand_id, event_type), build the canonical envelope, sign it
// if a secret is configured, and POST fire-and-record — the
// triggering operation never blocks on delivery.
package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// WildcardEventType subscribes a Webhook to every event type.
const WildcardEventType = "*"

// Webhook is a registered subscriber.
type Webhook struct {
	WebhookID  string
	BrandID    string
	URL        string
	EventTypes []string // subscribed_events; WildcardEventType matches any
	Secret     string   // empty: unsigned delivery
	Active     bool
}

// Subscribes reports whether eventType matches w's subscribed set:
// exact membership, or the wildcard entry.
func (w Webhook) Subscribes(eventType string) bool {
	for _, et := range w.EventTypes {
		if et == eventType || et == WildcardEventType {
			return true
		}
	}
	return false
}

// Registry resolves subscribers; the runner wires a pgx-backed
// implementation.
type Registry interface {
	Subscribers(ctx context.Context, brandID, eventType string) ([]Webhook, error)
}

// DeliveryResult is logged for observability; it is
// never returned to the event-emitting caller.
type DeliveryResult struct {
	WebhookID  string
	StatusCode int
	Err        error
	Duration   time.Duration
}

// envelope is the canonical wire body every subscriber receives.
type envelope struct {
	EventType string    `json:"event_type"`
	WebhookID string    `json:"webhook_id"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Dispatcher fires webhook deliveries. No retries live in the core
// ("consumers are expected to be idempotent").
type Dispatcher struct {
	registry Registry
	http     *http.Client
	logger   *slog.Logger
}

func NewDispatcher(registry Registry, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry: registry,
		http:     &http.Client{Timeout: 10 * time.Second},
		logger:   logger,
	}
}

// TriggerEvent resolves subscribers for (brandID, eventType) and
// delivers to each in turn from one background goroutine; it returns
// as soon as that goroutine has started, not when deliveries complete.
// The returned channel is unbuffered and yields one DeliveryResult
// per subscriber, so each delivery after the first waits until the
// previous result has been received: callers must drain it.
func (d *Dispatcher) TriggerEvent(ctx context.Context, brandID, eventType string, payload any) <-chan DeliveryResult {
	results := make(chan DeliveryResult)
	go func() {
		defer close(results)
		subs, err := d.registry.Subscribers(ctx, brandID, eventType)
		if err != nil {
			d.logger.ErrorContext(ctx, "webhook subscriber lookup failed", "brand_id", brandID, "event_type", eventType, "error", err)
			return
		}
		for _, sub := range subs {
			if !sub.Active {
				continue
			}
			// Detached from ctx: the triggering request's cancellation
			// must not cut short a webhook POST already underway.
			deliverCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			result := d.deliver(deliverCtx, sub, eventType, payload)
			cancel()
			d.record(result)
			results <- result
		}
	}()
	return results
}

func (d *Dispatcher) deliver(ctx context.Context, sub Webhook, eventType string, payload any) DeliveryResult {
	start := time.Now()
	body, err := json.Marshal(envelope{
		EventType: eventType,
		WebhookID: sub.WebhookID,
		Timestamp: time.Now().UTC(),
		Data:      payload,
	})
	if err != nil {
		return DeliveryResult{WebhookID: sub.WebhookID, Err: err, Duration: time.Since(start)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.URL, bytes.NewReader(body))
	if err != nil {
		return DeliveryResult{WebhookID: sub.WebhookID, Err: err, Duration: time.Since(start)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Event", eventType)
	if sub.Secret != "" {
		req.Header.Set("X-Webhook-Signature", sign(sub.Secret, body))
	}

	resp, err := d.http.Do(req)
	if err != nil {
		return DeliveryResult{WebhookID: sub.WebhookID, Err: err, Duration: time.Since(start)}
	}
	defer resp.Body.Close()
	return DeliveryResult{WebhookID: sub.WebhookID, StatusCode: resp.StatusCode, Duration: time.Since(start)}
}

func (d *Dispatcher) record(r DeliveryResult) {
	if r.Err != nil {
		d.logger.Warn("webhook delivery failed", "webhook_id", r.WebhookID, "error", r.Err, "duration", r.Duration)
		return
	}
	d.logger.Info("webhook delivered", "webhook_id", r.WebhookID, "status_code", r.StatusCode, "duration", r.Duration)
}

// sign computes base64(HMAC-SHA256(secret, body)).
func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// NewWebhookID is a convenience for callers registering a new
// subscriber.
func NewWebhookID() string { return uuid.NewString() }

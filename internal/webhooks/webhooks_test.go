package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	subs []Webhook
}

func (f fakeRegistry) Subscribers(_ context.Context, brandID, eventType string) ([]Webhook, error) {
	var out []Webhook
	for _, s := range f.subs {
		if s.BrandID == brandID && s.Subscribes(eventType) {
			out = append(out, s)
		}
	}
	return out, nil
}

func drain(t *testing.T, ch <-chan DeliveryResult) []DeliveryResult {
	t.Helper()
	var out []DeliveryResult
	for r := range ch {
		out = append(out, r)
	}
	return out
}

func TestTriggerEvent_SignsBodyWhenSecretSet(t *testing.T) {
	var gotSig, gotEventHeader, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get("X-Webhook-Signature")
		gotEventHeader = r.Header.Get("X-Webhook-Event")
		var buf [1024]byte
		n, _ := r.Body.Read(buf[:])
		gotBody = string(buf[:n])
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	reg := fakeRegistry{subs: []Webhook{
		{WebhookID: "w1", BrandID: "b1", URL: srv.URL, EventTypes: []string{"content.published"}, Secret: "shh", Active: true},
	}}
	d := NewDispatcher(reg, nil)
	results := drain(t, d.TriggerEvent(context.Background(), "b1", "content.published", map[string]any{"content_id": "c1"}))

	require.Len(t, results, 1)
	assert.Equal(t, http.StatusOK, results[0].StatusCode)
	assert.NotEmpty(t, gotSig)
	assert.Equal(t, "content.published", gotEventHeader)

	mac := hmac.New(sha256.New, []byte("shh"))
	mac.Write([]byte(gotBody))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	assert.Equal(t, want, gotSig)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(gotBody), &decoded))
	assert.Equal(t, "content.published", decoded["event_type"])
}

func TestTriggerEvent_NoSecretMeansNoSignatureHeaderButEventHeaderStillSet(t *testing.T) {
	var gotSig, gotEventHeader string
	var sawSigHeader bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig, sawSigHeader = r.Header.Get("X-Webhook-Signature"), r.Header.Get("X-Webhook-Signature") != ""
		gotEventHeader = r.Header.Get("X-Webhook-Event")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	reg := fakeRegistry{subs: []Webhook{
		{WebhookID: "w1", BrandID: "b1", URL: srv.URL, EventTypes: []string{"content.published"}, Active: true},
	}}
	d := NewDispatcher(reg, nil)
	drain(t, d.TriggerEvent(context.Background(), "b1", "content.published", nil))

	assert.False(t, sawSigHeader)
	assert.Empty(t, gotSig)
	assert.Equal(t, "content.published", gotEventHeader)
}

func TestTriggerEvent_OneSubscriberFailureDoesNotAffectOthers(t *testing.T) {
	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ok.Close()

	reg := fakeRegistry{subs: []Webhook{
		{WebhookID: "bad", BrandID: "b1", URL: "http://127.0.0.1:1", EventTypes: []string{"e"}, Active: true},
		{WebhookID: "good", BrandID: "b1", URL: ok.URL, EventTypes: []string{"e"}, Active: true},
	}}
	d := NewDispatcher(reg, nil)
	results := drain(t, d.TriggerEvent(context.Background(), "b1", "e", nil))

	require.Len(t, results, 2)
	var sawGood, sawBadErr bool
	for _, r := range results {
		if r.WebhookID == "good" && r.StatusCode == http.StatusOK {
			sawGood = true
		}
		if r.WebhookID == "bad" && r.Err != nil {
			sawBadErr = true
		}
	}
	assert.True(t, sawGood)
	assert.True(t, sawBadErr)
}

func TestTriggerEvent_InactiveSubscriberSkipped(t *testing.T) {
	reg := fakeRegistry{subs: []Webhook{
		{WebhookID: "w1", BrandID: "b1", URL: "http://127.0.0.1:1", EventTypes: []string{"e"}, Active: false},
	}}
	d := NewDispatcher(reg, nil)
	results := drain(t, d.TriggerEvent(context.Background(), "b1", "e", nil))
	assert.Empty(t, results)
}

func TestTriggerEvent_WildcardSubscriberMatchesAnyEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	reg := fakeRegistry{subs: []Webhook{
		{WebhookID: "w1", BrandID: "b1", URL: srv.URL, EventTypes: []string{WildcardEventType}, Active: true},
	}}
	d := NewDispatcher(reg, nil)
	results := drain(t, d.TriggerEvent(context.Background(), "b1", "content.published", nil))

	require.Len(t, results, 1)
	assert.Equal(t, http.StatusOK, results[0].StatusCode)
}

func TestWebhook_SubscribesMatchesSetOrWildcard(t *testing.T) {
	exact := Webhook{EventTypes: []string{"content.published", "user.created"}}
	assert.True(t, exact.Subscribes("content.published"))
	assert.False(t, exact.Subscribes("integration.failure"))

	wildcard := Webhook{EventTypes: []string{WildcardEventType}}
	assert.True(t, wildcard.Subscribes("anything"))
}

package contentcreation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"

	"github.com/umt-agenthub/core/internal/errkind"
)

// OpenAIGenerator is a Generator backed by the OpenAI chat completions
// API, used when OPENAI_API_KEY is configured. It asks the model for a
// JSON object with "title" and "body" fields and fails closed (an
// error, triggering the template fallback in GenerateVariations) on
// any transport error, non-2xx response, or unparseable body.
type OpenAIGenerator struct {
	http    *retryablehttp.Client
	baseURL string
	apiKey  string
	model   string
}

// NewOpenAIGenerator builds an OpenAIGenerator against the standard
// OpenAI API endpoint, retrying transport errors and 429/5xx
// responses up to twice with its own short backoff (below), not the
// 30/60/120 s schedule integrations.Client uses for upstream adapters.
func NewOpenAIGenerator(apiKey string, logger *slog.Logger) *OpenAIGenerator {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 2
	rc.HTTPClient.Timeout = 20 * time.Second
	rc.Backoff = func(_, _ time.Duration, attemptNum int, _ *http.Response) time.Duration {
		return time.Duration(1<<uint(attemptNum)) * time.Second
	}
	rc.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			return true, nil
		}
		return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500, nil
	}
	if logger != nil {
		rc.Logger = slogGenLogger{logger}
	} else {
		rc.Logger = nil
	}
	return &OpenAIGenerator{
		http:    rc,
		baseURL: "https://api.openai.com/v1",
		apiKey:  apiKey,
		model:   "gpt-4o-mini",
	}
}

type slogGenLogger struct{ l *slog.Logger }

func (s slogGenLogger) Error(msg string, kv ...any) { s.l.Error(msg, kv...) }
func (s slogGenLogger) Info(msg string, kv ...any)  { s.l.Info(msg, kv...) }
func (s slogGenLogger) Debug(msg string, kv ...any) { s.l.Debug(msg, kv...) }
func (s slogGenLogger) Warn(msg string, kv ...any)  { s.l.Warn(msg, kv...) }

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type generatedVariation struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Generate builds a prompt from brief+guidelines+approach, asks the
// model for a JSON {"title","body"} object, and parses it. Any
// transport error, non-2xx response, or malformed JSON is returned as
// an error, so GenerateVariations falls back to its template.
func (g *OpenAIGenerator) Generate(ctx context.Context, projectType, topic, approach string, brief, guidelines map[string]any) (string, string, error) {
	reqBody := chatCompletionRequest{
		Model: g.model,
		Messages: []chatMessage{
			{Role: "system", Content: "You write marketing content. Respond with a JSON object containing exactly two fields: \"title\" and \"body\"."},
			{Role: "user", Content: buildPrompt(projectType, topic, approach, brief, guidelines)},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", "", errkind.Wrap(errkind.Internal, err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", strings.NewReader(string(payload)))
	if err != nil {
		return "", "", errkind.Wrap(errkind.Transport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.http.Do(req)
	if err != nil {
		return "", "", errkind.Wrap(errkind.Transport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", "", errkind.Newf(errkind.Upstream, "openai: unexpected status %d", resp.StatusCode)
	}

	var out chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", "", errkind.Wrap(errkind.Upstream, err)
	}
	if len(out.Choices) == 0 {
		return "", "", errkind.New(errkind.Upstream, "openai: empty choices")
	}

	var variation generatedVariation
	if err := json.Unmarshal([]byte(out.Choices[0].Message.Content), &variation); err != nil {
		return "", "", errkind.Wrap(errkind.Upstream, err)
	}
	if variation.Title == "" {
		return "", "", errkind.New(errkind.Upstream, "openai: missing title in response")
	}
	return variation.Title, variation.Body, nil
}

func buildPrompt(projectType, topic, approach string, brief, guidelines map[string]any) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a %s about %q using a %s approach.\n", projectType, topic, approach)
	if len(brief) > 0 {
		fmt.Fprintf(&b, "Brief: %v\n", brief)
	}
	if len(guidelines) > 0 {
		fmt.Fprintf(&b, "Brand guidelines: %v\n", guidelines)
	}
	return b.String()
}

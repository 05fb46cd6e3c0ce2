package integrations

import (
	"context"
	"fmt"
	"time"
)

// verbSupport records which verbs a platform implements; unsupported
// verbs return *ErrUnsupported rather than a runtime
// error.
type verbSupport struct {
	schedule bool
	update   bool
	fetch    bool
	delete   bool
}

// restAdapter is the shared REST-over-HTTP skeleton every concrete
// platform adapter below configures with its own endpoints and
// request/response shaping, centralizing the publish/schedule/update/
// fetch/delete/health-check contract so each platform only overrides
// endpoint paths and payload shape.
type restAdapter struct {
	platform    string
	category    Category
	client      *Client
	healthPath  string
	publishPath string
	support     verbSupport

	// buildPublishBody turns Content into the platform's publish
	// payload shape; defaults to a generic envelope if nil.
	buildPublishBody func(Content) any
}

func (a *restAdapter) Platform() string   { return a.platform }
func (a *restAdapter) Category() Category { return a.category }

func (a *restAdapter) Publish(ctx context.Context, content Content) (Result, error) {
	body := a.publishBody(content)
	var raw map[string]any
	_, err := a.client.Do(ctx, "POST", a.publishPath, body, &raw)
	if err != nil {
		return Result{Status: "error", Detail: err.Error()}, err
	}
	return resultFromRaw(raw), nil
}

func (a *restAdapter) Schedule(ctx context.Context, content Content, when time.Time) (Result, error) {
	if !a.support.schedule {
		return Result{Status: "unsupported"}, &ErrUnsupported{Platform: a.platform, Verb: "Schedule"}
	}
	body := a.publishBody(content)
	if m, ok := body.(map[string]any); ok {
		m["scheduled_at"] = when.UTC().Format(time.RFC3339)
	}
	var raw map[string]any
	_, err := a.client.Do(ctx, "POST", a.publishPath, body, &raw)
	if err != nil {
		return Result{Status: "error", Detail: err.Error()}, err
	}
	return resultFromRaw(raw), nil
}

func (a *restAdapter) Update(ctx context.Context, id string, content Content) (Result, error) {
	if !a.support.update {
		return Result{Status: "unsupported"}, &ErrUnsupported{Platform: a.platform, Verb: "Update"}
	}
	body := a.publishBody(content)
	var raw map[string]any
	_, err := a.client.Do(ctx, "PUT", fmt.Sprintf("%s/%s", a.publishPath, id), body, &raw)
	if err != nil {
		return Result{Status: "error", Detail: err.Error()}, err
	}
	return resultFromRaw(raw), nil
}

func (a *restAdapter) Fetch(ctx context.Context, id string) (Result, error) {
	if !a.support.fetch {
		return Result{Status: "unsupported"}, &ErrUnsupported{Platform: a.platform, Verb: "Fetch"}
	}
	var raw map[string]any
	_, err := a.client.Do(ctx, "GET", fmt.Sprintf("%s/%s", a.publishPath, id), nil, &raw)
	if err != nil {
		return Result{Status: "error", Detail: err.Error()}, err
	}
	return resultFromRaw(raw), nil
}

func (a *restAdapter) Delete(ctx context.Context, id string) (Result, error) {
	if !a.support.delete {
		return Result{Status: "unsupported"}, &ErrUnsupported{Platform: a.platform, Verb: "Delete"}
	}
	_, err := a.client.Do(ctx, "DELETE", fmt.Sprintf("%s/%s", a.publishPath, id), nil, nil)
	if err != nil {
		return Result{Status: "error", Detail: err.Error()}, err
	}
	return Result{Status: "success", PlatformID: id}, nil
}

func (a *restAdapter) CheckHealth(ctx context.Context) (HealthVerdict, error) {
	return a.client.HealthCheck(ctx, a.healthPath)
}

func (a *restAdapter) publishBody(content Content) any {
	if a.buildPublishBody != nil {
		return a.buildPublishBody(content)
	}
	return map[string]any{
		"title": content.Title,
		"body":  content.Body,
		"media": content.Media,
	}
}

func resultFromRaw(raw map[string]any) Result {
	r := Result{Status: "success", Raw: raw}
	if id, ok := raw["id"]; ok {
		r.PlatformID = fmt.Sprint(id)
	}
	if url, ok := raw["url"].(string); ok {
		r.URL = url
	}
	return r
}

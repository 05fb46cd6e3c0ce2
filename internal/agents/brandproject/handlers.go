package brandproject

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/google/uuid"

	"github.com/umt-agenthub/core/internal/agents/support"
	"github.com/umt-agenthub/core/internal/audit"
	"github.com/umt-agenthub/core/internal/envelope"
	"github.com/umt-agenthub/core/internal/errkind"
	"github.com/umt-agenthub/core/internal/webhooks"
)

// handleOnboardBrand creates a Brand, enriching from website_url when
// provided. Enrichment failures degrade to empty
// enrichment rather than failing the onboard.
func (a *Agent) handleOnboardBrand(ctx context.Context, msg *envelope.Message) (map[string]any, error) {
	name, err := support.StringField(msg.Payload, "company_name")
	if err != nil {
		return nil, err
	}
	userID := support.OptString(msg.Payload, "user_id", "")
	websiteURL := support.OptString(msg.Payload, "website_url", "")
	callerGuidelines := support.StringAnyMap(msg.Payload, "brand_guidelines")

	var description, logoURL string
	guidelines := map[string]any{}
	var socialLinks map[string]string

	if websiteURL != "" {
		enrichment, err := EnrichFromWebsite(ctx, a.http, websiteURL)
		if err != nil {
			a.Logger().WarnContext(ctx, "website enrichment failed, degrading to empty enrichment", "website_url", websiteURL, "error", err)
		} else {
			description = enrichment.Description
			logoURL = enrichment.LogoURL
			socialLinks = enrichment.SocialLinks
			guidelines["color_palette"] = enrichment.Colors
			guidelines["fonts"] = enrichment.Fonts
		}
	}
	// Caller-provided guidelines win over enrichment on key conflict.
	for k, v := range callerGuidelines {
		guidelines[k] = v
	}

	now := time.Now().UTC()
	b := &Brand{
		BrandID:     uuid.NewString(),
		Name:        name,
		WebsiteURL:  websiteURL,
		Description: description,
		LogoURL:     logoURL,
		Guidelines:  guidelines,
		SocialLinks: socialLinks,
		CreatedBy:   userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.brands.Create(ctx, b); err != nil {
		return nil, err
	}
	a.record(ctx, b.BrandID, userID, "brand.onboard", "brand", b.BrandID, map[string]any{"name": name, "website_url": websiteURL})

	return map[string]any{"brand_id": b.BrandID, "brand": brandSummary(b)}, nil
}

func (a *Agent) handleUpdateBrand(ctx context.Context, msg *envelope.Message) (map[string]any, error) {
	brandID, err := support.StringField(msg.Payload, "brand_id")
	if err != nil {
		return nil, err
	}
	b, err := a.brands.Get(ctx, brandID)
	if err != nil {
		return nil, err
	}
	if name := support.OptString(msg.Payload, "name", ""); name != "" {
		b.Name = name
	}
	if desc := support.OptString(msg.Payload, "description", ""); desc != "" {
		b.Description = desc
	}
	if guidelines := support.StringAnyMap(msg.Payload, "brand_guidelines"); guidelines != nil {
		if b.Guidelines == nil {
			b.Guidelines = map[string]any{}
		}
		for k, v := range guidelines {
			b.Guidelines[k] = v
		}
	}
	b.UpdatedAt = time.Now().UTC()
	if err := a.brands.Update(ctx, b); err != nil {
		return nil, err
	}
	a.record(ctx, brandID, support.OptString(msg.Payload, "user_id", ""), "brand.update", "brand", brandID, nil)
	return map[string]any{"brand": brandSummary(b)}, nil
}

func (a *Agent) handleGetBrandInfo(ctx context.Context, msg *envelope.Message) (map[string]any, error) {
	brandID, err := support.StringField(msg.Payload, "brand_id")
	if err != nil {
		return nil, err
	}
	b, err := a.brands.Get(ctx, brandID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"brand": brandSummary(b)}, nil
}

func (a *Agent) handleCreateProject(ctx context.Context, msg *envelope.Message) (map[string]any, error) {
	brandID, err := support.StringField(msg.Payload, "brand_id")
	if err != nil {
		return nil, err
	}
	projectType, err := support.StringField(msg.Payload, "project_type")
	if err != nil {
		return nil, err
	}
	name, err := support.StringField(msg.Payload, "name")
	if err != nil {
		return nil, err
	}
	if _, err := a.brands.Get(ctx, brandID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &Project{
		ProjectID:   uuid.NewString(),
		BrandID:     brandID,
		ProjectType: projectType,
		Name:        name,
		Status:      ProjectStatusDraft,
		AssignedTo:  support.OptString(msg.Payload, "assigned_to", ""),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.projects.Create(ctx, p); err != nil {
		return nil, err
	}
	a.record(ctx, brandID, support.OptString(msg.Payload, "user_id", ""), "project.create", "project", p.ProjectID, map[string]any{"project_type": projectType})
	return map[string]any{"project_id": p.ProjectID, "project": projectSummary(p)}, nil
}

func (a *Agent) handleUpdateProject(ctx context.Context, msg *envelope.Message) (map[string]any, error) {
	projectID, err := support.StringField(msg.Payload, "project_id")
	if err != nil {
		return nil, err
	}
	p, err := a.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if name := support.OptString(msg.Payload, "name", ""); name != "" {
		p.Name = name
	}
	if status := support.OptString(msg.Payload, "status", ""); status != "" {
		p.Status = status
	}
	p.UpdatedAt = time.Now().UTC()
	if err := a.projects.Update(ctx, p); err != nil {
		return nil, err
	}
	a.record(ctx, p.BrandID, support.OptString(msg.Payload, "user_id", ""), "project.update", "project", projectID, nil)
	return map[string]any{"project": projectSummary(p)}, nil
}

func (a *Agent) handleGetProjectInfo(ctx context.Context, msg *envelope.Message) (map[string]any, error) {
	projectID, err := support.StringField(msg.Payload, "project_id")
	if err != nil {
		return nil, err
	}
	p, err := a.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return map[string]any{"project": projectSummary(p)}, nil
}

func (a *Agent) handleAssignProject(ctx context.Context, msg *envelope.Message) (map[string]any, error) {
	projectID, err := support.StringField(msg.Payload, "project_id")
	if err != nil {
		return nil, err
	}
	assignee, err := support.StringField(msg.Payload, "assigned_to")
	if err != nil {
		return nil, err
	}
	p, err := a.projects.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	p.AssignedTo = assignee
	p.UpdatedAt = time.Now().UTC()
	if err := a.projects.Update(ctx, p); err != nil {
		return nil, err
	}
	a.record(ctx, p.BrandID, support.OptString(msg.Payload, "user_id", ""), "project.assign", "project", projectID, map[string]any{"assigned_to": assignee})
	return map[string]any{"project": projectSummary(p)}, nil
}

func (a *Agent) handleGetBrandProjects(ctx context.Context, msg *envelope.Message) (map[string]any, error) {
	brandID, err := support.StringField(msg.Payload, "brand_id")
	if err != nil {
		return nil, err
	}
	projects, err := a.projects.ListByBrand(ctx, brandID)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(projects))
	for _, p := range projects {
		out = append(out, projectSummary(p))
	}
	return map[string]any{"projects": out}, nil
}

func (a *Agent) handleGetProjectTypes(ctx context.Context, _ *envelope.Message) (map[string]any, error) {
	types, err := a.projectTypes.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(types))
	for _, t := range types {
		out = append(out, map[string]any{"key": t.Key, "name": t.Name, "description": t.Description})
	}
	return map[string]any{"project_types": out}, nil
}

func (a *Agent) handleCreateProjectType(ctx context.Context, msg *envelope.Message) (map[string]any, error) {
	key, err := support.StringField(msg.Payload, "key")
	if err != nil {
		return nil, err
	}
	name, err := support.StringField(msg.Payload, "name")
	if err != nil {
		return nil, err
	}
	pt := ProjectType{Key: key, Name: name, Description: support.OptString(msg.Payload, "description", "")}
	if err := a.projectTypes.Create(ctx, pt); err != nil {
		return nil, err
	}
	return map[string]any{"project_type": map[string]any{"key": pt.Key, "name": pt.Name, "description": pt.Description}}, nil
}

// handleUploadBrandLogo validates extension/size, writes the new
// logo, swaps the Brand record, and only then deletes the old file
// ("atomically replaces ... old file deleted only after
// the record is updated").
func (a *Agent) handleUploadBrandLogo(ctx context.Context, msg *envelope.Message) (map[string]any, error) {
	brandID, err := support.StringField(msg.Payload, "brand_id")
	if err != nil {
		return nil, err
	}
	filename, err := support.StringField(msg.Payload, "filename")
	if err != nil {
		return nil, err
	}
	dataB64, err := support.StringField(msg.Payload, "data_base64")
	if err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(dataB64)
	if err != nil {
		return nil, errkind.New(errkind.Validation, "invalid base64 logo data")
	}

	b, err := a.brands.Get(ctx, brandID)
	if err != nil {
		return nil, err
	}
	previousLogoURL := b.LogoURL

	newURL, err := a.logos.Save(ctx, brandID, filename, data)
	if err != nil {
		return nil, err
	}

	b.LogoURL = newURL
	b.UpdatedAt = time.Now().UTC()
	if err := a.brands.Update(ctx, b); err != nil {
		return nil, err
	}

	if previousLogoURL != "" && previousLogoURL != newURL {
		if err := a.logos.Delete(ctx, previousLogoURL); err != nil {
			a.Logger().WarnContext(ctx, "failed to delete previous logo", "brand_id", brandID, "error", err)
		}
	}

	a.record(ctx, brandID, support.OptString(msg.Payload, "user_id", ""), "brand.logo_upload", "brand", brandID, map[string]any{"logo_url": newURL})
	return map[string]any{"logo_url": newURL}, nil
}

func (a *Agent) handleDeleteBrandLogo(ctx context.Context, msg *envelope.Message) (map[string]any, error) {
	brandID, err := support.StringField(msg.Payload, "brand_id")
	if err != nil {
		return nil, err
	}
	b, err := a.brands.Get(ctx, brandID)
	if err != nil {
		return nil, err
	}
	if b.LogoURL == "" {
		return map[string]any{"status": "no_logo"}, nil
	}
	oldURL := b.LogoURL
	b.LogoURL = ""
	b.UpdatedAt = time.Now().UTC()
	if err := a.brands.Update(ctx, b); err != nil {
		return nil, err
	}
	if err := a.logos.Delete(ctx, oldURL); err != nil {
		a.Logger().WarnContext(ctx, "failed to delete logo file", "brand_id", brandID, "error", err)
	}
	a.record(ctx, brandID, support.OptString(msg.Payload, "user_id", ""), "brand.logo_delete", "brand", brandID, nil)
	return map[string]any{"status": "deleted"}, nil
}

func (a *Agent) handleHealthCheck(_ context.Context, _ *envelope.Message) (map[string]any, error) {
	return map[string]any{"status": "healthy", "agent": AgentID}, nil
}

func (a *Agent) handleRegisterWebhook(ctx context.Context, msg *envelope.Message) (map[string]any, error) {
	if a.webhookWriter == nil {
		return nil, errkind.New(errkind.Internal, "brandproject: no webhook writer configured")
	}
	brandID, err := support.StringField(msg.Payload, "brand_id")
	if err != nil {
		return nil, err
	}
	url, err := support.StringField(msg.Payload, "url")
	if err != nil {
		return nil, err
	}
	eventTypes := support.StringSlice(msg.Payload, "event_types")
	if len(eventTypes) == 0 {
		// back-compat single-event form.
		single, err := support.StringField(msg.Payload, "event_type")
		if err != nil {
			return nil, errkind.New(errkind.Validation, "brandproject: event_types (or event_type) is required")
		}
		eventTypes = []string{single}
	}
	secret := support.OptString(msg.Payload, "secret", "")

	w, err := a.webhookWriter.Register(ctx, webhooks.Webhook{
		BrandID: brandID, URL: url, EventTypes: eventTypes, Secret: secret,
	})
	if err != nil {
		return nil, err
	}
	a.record(ctx, brandID, support.OptString(msg.Payload, "user_id", ""), "webhook.register", "webhook", w.WebhookID, map[string]any{"event_types": eventTypes})
	return map[string]any{"webhook_id": w.WebhookID}, nil
}

func (a *Agent) handleUnregisterWebhook(ctx context.Context, msg *envelope.Message) (map[string]any, error) {
	if a.webhookWriter == nil {
		return nil, errkind.New(errkind.Internal, "brandproject: no webhook writer configured")
	}
	webhookID, err := support.StringField(msg.Payload, "webhook_id")
	if err != nil {
		return nil, err
	}
	if err := a.webhookWriter.Unregister(ctx, webhookID); err != nil {
		return nil, err
	}
	a.record(ctx, support.OptString(msg.Payload, "brand_id", ""), support.OptString(msg.Payload, "user_id", ""), "webhook.unregister", "webhook", webhookID, nil)
	return map[string]any{"status": "unregistered"}, nil
}

// handleUserCreatedEvent notifies subscribers via webhook.
func (a *Agent) handleUserCreatedEvent(_ context.Context, msg *envelope.Message) error {
	brandID := support.OptString(msg.Payload, "brand_id", "")
	support.FireWebhook(a.webhook, brandID, "user.created", msg.Payload)
	return nil
}

// handleContentPublishedEvent advances the project to published if
// it isn't already there, then notifies via webhook.
func (a *Agent) handleContentPublishedEvent(ctx context.Context, msg *envelope.Message) error {
	projectID := support.OptString(msg.Payload, "project_id", "")
	if projectID == "" {
		return nil
	}
	p, err := a.projects.Get(ctx, projectID)
	if err != nil {
		return err
	}
	if p.Status != ProjectStatusPublished {
		p.Status = ProjectStatusPublished
		p.UpdatedAt = time.Now().UTC()
		if err := a.projects.Update(ctx, p); err != nil {
			return err
		}
	}
	support.FireWebhook(a.webhook, p.BrandID, "content.published", msg.Payload)
	return nil
}

func (a *Agent) record(ctx context.Context, brandID, actorID, action, targetType, targetID string, detail map[string]any) {
	if a.auditLog == nil {
		return
	}
	if actorID == "" {
		actorID = AgentID
	}
	if err := a.auditLog.Record(ctx, audit.NewEntry(brandID, actorID, action, targetType, targetID, detail)); err != nil {
		a.Logger().ErrorContext(ctx, "audit record failed", "action", action, "error", err)
	}
}

func brandSummary(b *Brand) map[string]any {
	return map[string]any{
		"brand_id":     b.BrandID,
		"name":         b.Name,
		"website_url":  b.WebsiteURL,
		"description":  b.Description,
		"logo_url":     b.LogoURL,
		"guidelines":   b.Guidelines,
		"social_links": b.SocialLinks,
	}
}

func projectSummary(p *Project) map[string]any {
	return map[string]any{
		"project_id":   p.ProjectID,
		"brand_id":     p.BrandID,
		"project_type": p.ProjectType,
		"name":         p.Name,
		"status":       p.Status,
		"assigned_to":  p.AssignedTo,
	}
}

package brandproject

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/umt-agenthub/core/internal/audit"
	"github.com/umt-agenthub/core/internal/broker"
	"github.com/umt-agenthub/core/internal/runtime"
	"github.com/umt-agenthub/core/internal/webhooks"
)

const AgentID = "brand_project"

// Agent is the Brand & Project handler registry.
type Agent struct {
	*runtime.BaseAgent

	brands        BrandRepository
	projects      ProjectRepository
	projectTypes  ProjectTypeRegistry
	logos         LogoStore
	webhookWriter webhooks.Writer
	webhook       *webhooks.Dispatcher
	auditLog      audit.Log
	http          *http.Client
}

// Deps bundles brandproject's external collaborators.
type Deps struct {
	Brands        BrandRepository
	Projects      ProjectRepository
	ProjectTypes  ProjectTypeRegistry
	Logos         LogoStore
	WebhookWriter webhooks.Writer
	Webhook       *webhooks.Dispatcher
	AuditLog      audit.Log
}

func New(cfg runtime.Config, b broker.Broker, logger *slog.Logger, deps Deps) (*Agent, error) {
	cfg.AgentID = AgentID
	base, err := runtime.New(cfg, b, logger)
	if err != nil {
		return nil, err
	}
	if deps.Brands == nil {
		deps.Brands = NewMemBrandRepository()
	}
	if deps.Projects == nil {
		deps.Projects = NewMemProjectRepository()
	}
	if deps.ProjectTypes == nil {
		deps.ProjectTypes = NewCacheProjectTypeRegistry(nil)
	}
	if deps.Logos == nil {
		deps.Logos = NewFileLogoStore("/uploads/logos", nil, 0)
	}

	a := &Agent{
		BaseAgent:     base,
		brands:        deps.Brands,
		projects:      deps.Projects,
		projectTypes:  deps.ProjectTypes,
		logos:         deps.Logos,
		webhookWriter: deps.WebhookWriter,
		webhook:       deps.Webhook,
		auditLog:      deps.AuditLog,
		http:          &http.Client{Timeout: 10 * time.Second},
	}
	a.registerHandlers()
	return a, nil
}

func (a *Agent) registerHandlers() {
	a.MustRegisterTask("onboard_brand", a.handleOnboardBrand)
	a.MustRegisterTask("update_brand", a.handleUpdateBrand)
	a.MustRegisterTask("get_brand_info", a.handleGetBrandInfo)
	a.MustRegisterTask("create_project", a.handleCreateProject)
	a.MustRegisterTask("update_project", a.handleUpdateProject)
	a.MustRegisterTask("get_project_info", a.handleGetProjectInfo)
	a.MustRegisterTask("assign_project", a.handleAssignProject)
	a.MustRegisterTask("get_brand_projects", a.handleGetBrandProjects)
	a.MustRegisterTask("get_project_types", a.handleGetProjectTypes)
	a.MustRegisterTask("create_project_type", a.handleCreateProjectType)
	a.MustRegisterTask("upload_brand_logo", a.handleUploadBrandLogo)
	a.MustRegisterTask("delete_brand_logo", a.handleDeleteBrandLogo)
	a.MustRegisterTask("health_check", a.handleHealthCheck)
	a.MustRegisterTask("register_webhook", a.handleRegisterWebhook)
	a.MustRegisterTask("unregister_webhook", a.handleUnregisterWebhook)

	a.RegisterEvent("user_created", a.handleUserCreatedEvent)
	a.RegisterEvent("content_published", a.handleContentPublishedEvent)
}

// Command agenthub-runner is the process supervisor: it boots the selected
// set of marketing-automation agents, each its own scheduling unit
// sharing one in-process broker, ensures the umt schema exists, and
// shuts every agent down gracefully on SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/umt-agenthub/core/internal/agents/adcontent"
	"github.com/umt-agenthub/core/internal/agents/authintegration"
	"github.com/umt-agenthub/core/internal/agents/brandproject"
	"github.com/umt-agenthub/core/internal/agents/contentcreation"
	"github.com/umt-agenthub/core/internal/agents/strategy"
	"github.com/umt-agenthub/core/internal/apikeys"
	"github.com/umt-agenthub/core/internal/audit"
	"github.com/umt-agenthub/core/internal/broker"
	"github.com/umt-agenthub/core/internal/cache"
	"github.com/umt-agenthub/core/internal/config"
	"github.com/umt-agenthub/core/internal/credentials"
	"github.com/umt-agenthub/core/internal/integrations"
	"github.com/umt-agenthub/core/internal/observability"
	"github.com/umt-agenthub/core/internal/runtime"
	"github.com/umt-agenthub/core/internal/webhooks"
)

const (
	exitOK             = 0
	exitMisconfigured  = 1
	exitSchemaInitFail = 2
)

// interStartDelay avoids a broker-connect thundering herd across
// agents started in the same process.
const interStartDelay = time.Second

func main() {
	os.Exit(run())
}

func run() int {
	allAgentsFlag := flag.Bool("all-agents", false, "start every known agent")
	migrationsPath := flag.String("migrations", "migrations", "path to the umt schema migrations")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("component", "agenthub-runner")

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded, using process environment", "error", err)
	}

	cfg := config.Load()

	names, err := selectAgentNames(cfg, *allAgentsFlag)
	if err != nil {
		logger.Error("no agents selected", "error", err)
		return exitMisconfigured
	}

	deps, err := buildSharedDeps(cfg, logger, *migrationsPath)
	if err != nil {
		if errors.Is(err, errSchemaInit) {
			logger.Error("schema init failed", "error", err)
			return exitSchemaInitFail
		}
		logger.Error("misconfiguration", "error", err)
		return exitMisconfigured
	}
	defer deps.close()

	deps.healthSrv.AddChecker("broker", observability.NewBasicHealthChecker("broker", func(ctx context.Context) error {
		return deps.b.Connect(ctx)
	}))
	if deps.pool != nil {
		deps.healthSrv.AddChecker("database", observability.NewBasicHealthChecker("database", func(ctx context.Context) error {
			return deps.pool.Ping(ctx)
		}))
	}
	go func() {
		if err := deps.healthSrv.Start(context.Background()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("health server stopped", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = deps.healthSrv.Shutdown(shutdownCtx)
		_ = deps.obs.Shutdown(shutdownCtx)
	}()

	runners := make(map[string]interface {
		Run(ctx context.Context) error
	}, len(names))
	for _, name := range names {
		r, err := buildAgent(name, deps, logger)
		if err != nil {
			logger.Error("failed to build agent", "agent", name, "error", err)
			return exitMisconfigured
		}
		runners[name] = r
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	var wg sync.WaitGroup
	errs := make(chan error, len(runners))
	i := 0
	for name, r := range runners {
		if i > 0 {
			time.Sleep(interStartDelay)
		}
		i++
		wg.Add(1)
		go func(name string, r interface{ Run(ctx context.Context) error }) {
			defer wg.Done()
			logger.Info("starting agent", "agent", name)
			if err := r.Run(ctx); err != nil {
				logger.Error("agent exited with error", "agent", name, "error", err)
				errs <- err
				return
			}
			logger.Info("agent stopped", "agent", name)
		}(name, r)
	}

	wg.Wait()
	close(errs)
	for range errs {
		return exitMisconfigured
	}
	return exitOK
}

var allAgentNames = []string{
	authintegration.AgentID,
	brandproject.AgentID,
	strategy.AgentID,
	contentcreation.AgentID,
	adcontent.AgentID,
}

func selectAgentNames(cfg *config.AppConfig, allAgentsFlag bool) ([]string, error) {
	if allAgentsFlag || cfg.AllAgents {
		return allAgentNames, nil
	}
	if len(cfg.AgentNames) > 0 {
		return cfg.AgentNames, nil
	}
	if cfg.AgentName != "" {
		return []string{cfg.AgentName}, nil
	}
	return nil, fmt.Errorf("set AGENT_NAME, AGENT_NAMES, or --all-agents")
}

var errSchemaInit = errors.New("schema init")

// sharedDeps bundles the collaborators every agent composition draws
// from, wired once per process: the broker, credential store,
// repositories and cache are all shared by every agent.
type sharedDeps struct {
	cfg         *config.AppConfig
	logger      *slog.Logger
	b           broker.Broker
	pool        *pgxpool.Pool
	store       *credentials.Store
	credRepo    credentials.Repository
	refresh     *credentials.RefreshCoordinator
	auditLog    audit.Log
	webhookReg  webhooks.Registry
	webhookW    webhooks.Writer
	webhookDisp *webhooks.Dispatcher
	cache       cache.Cache
	apiKeys     apikeys.Repository
	obs         *observability.Observability
	metrics     *observability.MetricsManager
	healthSrv   *observability.HealthServer
	contentGen  contentcreation.Generator
}

func (d *sharedDeps) close() {
	if d.pool != nil {
		d.pool.Close()
	}
}

func buildSharedDeps(cfg *config.AppConfig, logger *slog.Logger, migrationsPath string) (*sharedDeps, error) {
	d := &sharedDeps{cfg: cfg, logger: logger, b: broker.NewInProcessBroker(logger)}

	obs, err := observability.NewObservability(observability.DefaultConfig("agenthub-runner"))
	if err != nil {
		return nil, fmt.Errorf("observability: %w", err)
	}
	d.obs = obs
	mm, err := observability.NewMetricsManager(obs.Meter)
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	d.metrics = mm
	if ib, ok := d.b.(*broker.InProcessBroker); ok {
		ib.SetMetrics(mm)
	}
	d.healthSrv = observability.NewHealthServer(cfg.GetHealthPort("broker"), cfg.ServiceName, cfg.ServiceVersion)

	if cfg.OpenAIAPIKey != "" {
		d.contentGen = contentcreation.NewOpenAIGenerator(cfg.OpenAIAPIKey, logger)
	}

	if cfg.DatabaseURL != "" {
		if err := runMigrations(cfg.DatabaseURL, migrationsPath); err != nil {
			return nil, fmt.Errorf("%w: %v", errSchemaInit, err)
		}
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("%w: connect: %v", errSchemaInit, err)
		}
		d.pool = pool
		d.credRepo = credentials.NewPGRepository(pool)
		d.auditLog = audit.NewPGStore(pool)
		reg := webhooks.NewPGRegistry(pool)
		d.webhookReg, d.webhookW = reg, reg
		d.apiKeys = apikeys.NewPGRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, running with in-memory persistence (state is lost on restart)")
		d.credRepo = credentials.NewMemRepository()
		d.auditLog = audit.NewMemLog()
		reg := webhooks.NewMemRegistry()
		d.webhookReg, d.webhookW = reg, reg
		d.apiKeys = apikeys.NewMemRepository()
	}

	if cfg.CredentialProcessSecret == "" {
		return nil, fmt.Errorf("CREDENTIAL_SECRET must be set")
	}
	store, err := credentials.NewStore(cfg.CredentialProcessSecret)
	if err != nil {
		return nil, err
	}
	d.store = store
	d.refresh = credentials.NewRefreshCoordinator(store, d.credRepo, logger)

	d.webhookDisp = webhooks.NewDispatcher(d.webhookReg, logger)

	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisCache(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("cache: %w", err)
		}
		d.cache = rc
	} else {
		d.cache = cache.NewMemCache()
	}

	return d, nil
}

func runMigrations(databaseURL, migrationsPath string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("up: %w", err)
	}
	return nil
}

// newAdapterFactory builds the integration Adapter-opening closure every agent
// that talks to a platform shares, mirroring authintegration's
// per-agent newAdapter but reusable across agents since the store and
// refresh coordinator are process-shared.
func newAdapterFactory(d *sharedDeps) func(ctx context.Context, in *credentials.Integration) (integrations.Adapter, error) {
	return func(ctx context.Context, in *credentials.Integration) (integrations.Adapter, error) {
		opened, err := d.store.OpenFields(in.Credentials)
		if err != nil {
			return nil, err
		}
		refreshFn := func(ctx context.Context) (string, error) {
			if err := d.refresh.ForceRefresh(ctx, in.IntegrationID); err != nil {
				return "", err
			}
			fresh, err := d.credRepo.Get(ctx, in.IntegrationID)
			if err != nil {
				return "", err
			}
			return d.store.Open(fresh.Credentials["access_token"])
		}
		return integrations.NewAdapter(in.Platform, integrations.Credentials(opened), refreshFn, d.logger)
	}
}

func buildAgent(name string, d *sharedDeps, logger *slog.Logger) (interface{ Run(ctx context.Context) error }, error) {
	base := runtime.Config{
		DefaultResponseTimeout: 30 * time.Second,
		ShutdownGrace:          10 * time.Second,
		WorkerPoolSize:         32,
	}

	switch name {
	case authintegration.AgentID:
		a, err := authintegration.New(base, d.b, logger, authintegration.Deps{
			Store:               d.store,
			Repo:                d.credRepo,
			Refresh:             d.refresh,
			Webhook:             d.webhookDisp,
			AuditLog:            d.auditLog,
			HealthCheckInterval: d.cfg.HealthCheckInterval,
		})
		if err != nil {
			return nil, err
		}
		a.SetMetrics(d.metrics)
		return a, nil
	case brandproject.AgentID:
		a, err := brandproject.New(base, d.b, logger, brandproject.Deps{
			Brands:        brandproject.NewMemBrandRepository(),
			Projects:      brandproject.NewMemProjectRepository(),
			ProjectTypes:  brandproject.NewCacheProjectTypeRegistry(d.cache),
			Logos:         brandproject.NewFileLogoStore("/uploads/logos", nil, 0),
			WebhookWriter: d.webhookW,
			Webhook:       d.webhookDisp,
			AuditLog:      d.auditLog,
		})
		if err != nil {
			return nil, err
		}
		a.SetMetrics(d.metrics)
		return a, nil
	case strategy.AgentID:
		a, err := strategy.New(base, d.b, logger, strategy.Deps{AuditLog: d.auditLog})
		if err != nil {
			return nil, err
		}
		a.SetMetrics(d.metrics)
		return a, nil
	case contentcreation.AgentID:
		a, err := contentcreation.New(base, d.b, logger, contentcreation.Deps{AuditLog: d.auditLog, Generator: d.contentGen})
		if err != nil {
			return nil, err
		}
		a.SetMetrics(d.metrics)
		return a, nil
	case adcontent.AgentID:
		a, err := adcontent.New(base, d.b, logger, adcontent.Deps{
			AdapterFactory:     newAdapterFactory(d),
			Credentials:        d.credRepo,
			Cache:              d.cache,
			Tracker:            adcontent.NewMemTracker(),
			AuditLog:           d.auditLog,
			MonitoringInterval: d.cfg.MonitoringInterval,
		})
		if err != nil {
			return nil, err
		}
		a.SetMetrics(d.metrics)
		return a, nil
	default:
		return nil, fmt.Errorf("unknown agent %q", name)
	}
}

package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	governanceengine "agora/contexts/association-governance/governance-engine"
	"agora/contexts/association-governance/governance-engine/adapters/identity"
	"agora/contexts/association-governance/governance-engine/adapters/memory"
	"agora/contexts/association-governance/governance-engine/adapters/metrics"
	postgresadapter "agora/contexts/association-governance/governance-engine/adapters/postgres"
	"agora/contexts/association-governance/governance-engine/application/workers"
	"agora/contexts/association-governance/governance-engine/ports"
	"agora/internal/platform/config"
	"agora/internal/platform/db"
	"agora/internal/platform/httpserver"
	"agora/internal/platform/messaging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	database *db.Database
	accounts *serviceAccounts
	// embedded runs the worker loops in-process when storage is in-memory.
	embedded *WorkerApp
	logger   *slog.Logger
}

type WorkerApp struct {
	database      *db.Database
	bus           *messaging.Bus
	accounts      *serviceAccounts
	outboxRelay   workers.OutboxRelay
	sweeper       workers.RoundSweeper
	audit         workers.AuditConsumer
	sweepEnabled  bool
	sweepInterval time.Duration
	relayInterval time.Duration
	logger        *slog.Logger
}

// runtime is the storage-backed part shared by the API and worker builds.
type runtime struct {
	database *db.Database
	store    governanceengine.Store
	outbox   ports.OutboxRepository
	clock    ports.Clock
	idGen    ports.IDGenerator
}

// serviceAccounts registers the system actors once per process.
type serviceAccounts struct {
	registry ports.ServiceAccountRegistry
	clock    ports.Clock
	once     sync.Once
	err      error
}

func (s *serviceAccounts) Ensure(ctx context.Context) error {
	s.once.Do(func() {
		s.err = governanceengine.RegisterServiceAccounts(ctx, s.registry, s.clock)
	})
	return s.err
}

func BuildAPI(cfg config.Config, logger *slog.Logger) (*APIApp, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("service", cfg.ServiceName, "process", "api")

	rt, err := openRuntime(cfg, logger)
	if err != nil {
		return nil, err
	}
	policies, err := config.LoadPolicies(cfg.PolicyFile)
	if err != nil {
		_ = rt.database.Close()
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	module := governanceengine.NewModule(governanceengine.Dependencies{
		Store:          rt.store,
		Identity:       buildIdentity(cfg, logger),
		Policies:       policies,
		Metrics:        metrics.NewRecorder(registry),
		Clock:          rt.clock,
		IDGen:          rt.idGen,
		IdempotencyTTL: cfg.IdempotencyTTL,
		Logger:         logger,
	})

	app := &APIApp{
		server:   httpserver.New(module, registry, logger, normalizeAddr(cfg.HTTPPort)),
		database: rt.database,
		accounts: &serviceAccounts{registry: rt.store, clock: rt.clock},
		logger:   logger,
	}
	if rt.database == nil {
		app.embedded = buildWorkerLoops(cfg, rt, module, logger)
		app.embedded.accounts = app.accounts
	}
	return app, nil
}

func BuildWorker(cfg config.Config, logger *slog.Logger) (*WorkerApp, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("service", cfg.ServiceName, "process", "worker")
	if cfg.DatabaseDriver() == "memory" {
		return nil, errors.New("worker requires AGORA_POSTGRES_DSN or AGORA_SQLITE_PATH")
	}

	rt, err := openRuntime(cfg, logger)
	if err != nil {
		return nil, err
	}
	policies, err := config.LoadPolicies(cfg.PolicyFile)
	if err != nil {
		_ = rt.database.Close()
		return nil, err
	}
	module := governanceengine.NewModule(governanceengine.Dependencies{
		Store:    rt.store,
		Identity: identity.StaticResolver{},
		Policies: policies,
		Clock:    rt.clock,
		IDGen:    rt.idGen,
		Logger:   logger,
	})
	app := buildWorkerLoops(cfg, rt, module, logger)
	app.database = rt.database
	app.accounts = &serviceAccounts{registry: rt.store, clock: rt.clock}
	return app, nil
}

// Migrate creates the governance tables on the configured database.
func Migrate(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	database, err := db.Connect(cfg.PostgresDSN, cfg.SQLitePath)
	if err != nil {
		return err
	}
	defer database.Close()
	if err := database.Migrate(ctx, postgresadapter.Models()...); err != nil {
		return err
	}
	logger.Info("governance schema migrated",
		"event", "bootstrap_migrate_completed",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"driver", database.Driver,
	)
	return nil
}

func openRuntime(cfg config.Config, logger *slog.Logger) (runtime, error) {
	if cfg.DatabaseDriver() == "memory" {
		logger.Warn("no database configured, governance state is kept in memory",
			"event", "bootstrap_memory_store",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		store := memory.NewStore()
		return runtime{store: store, outbox: store, clock: store, idGen: store}, nil
	}

	database, err := db.Connect(cfg.PostgresDSN, cfg.SQLitePath)
	if err != nil {
		return runtime{}, err
	}
	repo := postgresadapter.NewRepository(database.DB, logger)
	if database.Driver == "sqlite" {
		if err := repo.AutoMigrate(context.Background()); err != nil {
			_ = database.Close()
			return runtime{}, fmt.Errorf("migrate embedded sqlite: %w", err)
		}
	}
	return runtime{
		database: database,
		store:    repo,
		outbox:   repo,
		clock:    postgresadapter.SystemClock{},
		idGen:    postgresadapter.UUIDGenerator{},
	}, nil
}

func buildIdentity(cfg config.Config, logger *slog.Logger) ports.IdentityResolver {
	if strings.TrimSpace(cfg.JWTSecret) == "" {
		logger.Warn("no JWT secret configured, bearer values are trusted as member ids",
			"event", "bootstrap_static_identity",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
		return identity.StaticResolver{}
	}
	return identity.JWTResolver{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		Leeway:   30 * time.Second,
	}
}

func buildWorkerLoops(cfg config.Config, rt runtime, module governanceengine.Module, logger *slog.Logger) *WorkerApp {
	bus := messaging.NewBus(cfg.KafkaBrokers, logger)
	return &WorkerApp{
		bus: bus,
		outboxRelay: workers.OutboxRelay{
			Outbox:    rt.outbox,
			Publisher: bus,
			Clock:     rt.clock,
			BatchSize: cfg.OutboxBatchSize,
			Logger:    logger,
		},
		sweeper: workers.RoundSweeper{
			Elections:   rt.store,
			Motions:     rt.store,
			ElectionSvc: module.Handler.Elections,
			MotionSvc:   module.Handler.Motions,
			Clock:       rt.clock,
			BatchSize:   cfg.OutboxBatchSize,
			AutoResolve: cfg.AutoResolveRounds,
			Logger:      logger,
		},
		audit: workers.AuditConsumer{
			Subscriber: bus,
			Dedup:      rt.store,
			Clock:      rt.clock,
			DedupTTL:   7 * 24 * time.Hour,
			Disabled:   !cfg.EnableAuditConsumer,
			Logger:     logger,
		},
		sweepEnabled:  cfg.EnableRoundSweeper,
		sweepInterval: positive(cfg.SweepInterval, 30*time.Second),
		relayInterval: positive(cfg.RelayInterval, 2*time.Second),
		logger:        logger,
	}
}

func (a *APIApp) Run(ctx context.Context) error {
	if err := a.accounts.Ensure(ctx); err != nil {
		return err
	}
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"embedded_workers", a.embedded != nil,
	)
	if a.embedded == nil {
		return a.server.Start(ctx)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.server.Start(gctx) })
	g.Go(func() error { return a.embedded.Run(gctx) })
	return g.Wait()
}

func (a *APIApp) Close() error {
	if a.database != nil {
		return a.database.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.accounts.Ensure(ctx); err != nil {
		return err
	}
	if err := w.audit.Start(ctx); err != nil {
		return err
	}
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"sweep_interval", w.sweepInterval.String(),
		"relay_interval", w.relayInterval.String(),
		"sweeper_enabled", w.sweepEnabled,
	)

	g, gctx := errgroup.WithContext(ctx)
	if w.sweepEnabled {
		g.Go(func() error {
			return every(gctx, w.sweepInterval, func(ctx context.Context) {
				if _, err := w.sweeper.RunOnce(ctx); err != nil {
					w.logLoopError("round_sweeper", err)
				}
			})
		})
	}
	g.Go(func() error {
		return every(gctx, w.relayInterval, func(ctx context.Context) {
			if err := w.outboxRelay.RunOnce(ctx); err != nil {
				w.logLoopError("outbox_relay", err)
			}
		})
	})
	err := g.Wait()
	w.bus.Wait()
	return err
}

// RunOnce performs a single sweep and relay pass.
func (w *WorkerApp) RunOnce(ctx context.Context) error {
	if err := w.accounts.Ensure(ctx); err != nil {
		return err
	}
	var errs []error
	if w.sweepEnabled {
		if _, err := w.sweeper.RunOnce(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if err := w.outboxRelay.RunOnce(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (w *WorkerApp) Close() error {
	if w.database != nil {
		return w.database.Close()
	}
	return nil
}

func (w *WorkerApp) logLoopError(loop string, err error) {
	w.logger.Error("worker loop pass failed",
		"event", "bootstrap_worker_pass_failed",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"loop", loop,
		"error", err.Error(),
	)
}

// every runs fn immediately and then on each tick until ctx is done.
func every(ctx context.Context, interval time.Duration, fn func(context.Context)) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		fn(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func positive(value time.Duration, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return value
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadbroker_backend/internal/adapters/directory"
	"leadbroker_backend/internal/adapters/storage"
	"leadbroker_backend/internal/admin"
	"leadbroker_backend/internal/agencies"
	"leadbroker_backend/internal/agents"
	"leadbroker_backend/internal/email"
	"leadbroker_backend/internal/events"
	apphttp "leadbroker_backend/internal/http"
	"leadbroker_backend/internal/http/router"
	"leadbroker_backend/internal/leads"
	leadrepo "leadbroker_backend/internal/leads/repository"
	leadsvc "leadbroker_backend/internal/leads/service"
	"leadbroker_backend/internal/notification"
	"leadbroker_backend/internal/offers"
	"leadbroker_backend/internal/scheduler"
	"leadbroker_backend/platform/config"
	"leadbroker_backend/platform/db"
	"leadbroker_backend/platform/logger"
	"leadbroker_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	followUpScheduler, closeScheduler := initFollowUpScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	importArchive := initImportArchive(ctx, cfg, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	agenciesModule := agencies.NewModule(pool, cfg, val)
	agentsModule := agents.NewModule(pool, val)

	agencyDirectory := directory.NewAgencyDirectory(agenciesModule.Service())
	agentDirectory := directory.NewAgentDirectory(agentsModule.Service())

	leadsDeps := leads.Deps{
		Agencies:  agencyDirectory,
		Agents:    agentDirectory,
		Bus:       eventBus,
		Logger:    log,
		Validator: val,
	}
	if followUpScheduler != nil {
		leadsDeps.Scheduler = followUpScheduler
	}
	if importArchive != nil {
		leadsDeps.Archive = importArchive
	}
	leadsModule := leads.NewModule(pool, leadsDeps)
	offersModule := offers.NewModule(pool, val)
	adminModule := admin.NewModule(pool)

	// Notification module subscribes to domain events (not HTTP-facing).
	var sender email.Sender
	if cfg.GetEmailEnabled() {
		sender = email.NewSMTPSender(cfg)
	}
	notification.NewModule(eventBus, sender, leadrepo.New(pool), agentDirectory, log)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			agenciesModule,
			agentsModule,
			leadsModule,
			offersModule,
			adminModule,
		},
	}

	engine := router.New(app)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: engine}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
}

func initFollowUpScheduler(cfg config.SchedulerConfig, log *logger.Logger) (leadsvc.FollowUpScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; follow-up reminders disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize follow-up scheduler client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func initImportArchive(ctx context.Context, cfg config.StorageConfig, log *logger.Logger) *storage.ImportArchive {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; import archiving disabled")
		return nil
	}

	archive, err := storage.NewImportArchive(cfg)
	if err != nil {
		log.Error("failed to initialize import archive", "error", err)
		return nil
	}
	if err := withRetry(ctx, log, "ensure import bucket", 5, 2*time.Second, func() error {
		return archive.EnsureBucket(ctx)
	}); err != nil {
		log.Error("failed to ensure import bucket exists", "error", err)
		return nil
	}

	log.Info("import archive initialized", "bucket", cfg.GetMinioBucketLeadImports())
	return archive
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("%s: %w", name, lastErr)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/containerd/log"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"filemeta/docs"
	"filemeta/internal/config"
	"filemeta/internal/database"
	"filemeta/internal/database/migration"
	handlers "filemeta/internal/http/handler"
	"filemeta/internal/http/middleware"
	"filemeta/internal/logging"
	"filemeta/internal/otel"
	"filemeta/internal/repository"
	"filemeta/internal/repository/memory"
	"filemeta/internal/repository/postgres"
	"filemeta/internal/service"
	"filemeta/internal/storage"
	"filemeta/internal/trigger"
)

// @title filemeta
// @version 1.0
// @description Blob-triggered functions: metadata reports and byte copies.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	if err := logging.Setup(cfg.Log, os.Stdout); err != nil {
		log.L.WithError(err).Fatal("invalid logging configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.G(ctx).WithError(err).Fatal("filemeta exited")
	}
}

func run(ctx context.Context, cfg *config.AppConfig) error {
	shutdownTracing, err := otel.Init(ctx)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.G(ctx).WithError(err).Warn("tracing shutdown")
		}
	}()

	regs, err := service.Registrations(cfg.Functions)
	if err != nil {
		return err
	}
	if len(regs) == 0 {
		return errors.New("no functions enabled")
	}

	store, source, err := newStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	triggers, outputs := service.Containers(regs)
	for _, c := range append(append([]string{}, triggers...), outputs...) {
		if err := store.EnsureContainer(ctx, c); err != nil {
			return fmt.Errorf("ensure container %q: %w", c, err)
		}
	}

	repo, closeRepo, err := newRepository(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("repository: %w", err)
	}
	defer closeRepo()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := service.NewMetrics(reg)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	promMiddleware, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	svc := service.NewFunctionService(store, repo, metrics, regs...)

	var listener *trigger.Listener
	if cfg.Trigger.Listen {
		if source == nil {
			return fmt.Errorf("TRIGGER_LISTEN requires the minio storage backend, got %q", cfg.Storage.Backend)
		}
		listener = trigger.NewListener(source, svc, triggers, cfg.Trigger.Concurrency)
	}
	for _, r := range regs {
		log.G(ctx).WithField("function", r.Func.Name()).WithField("binding", r.Binding.String()).Info("function registered")
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handlers.ErrorHandler(),
		DisableStartupMessage: true,
	})

	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and attaches it to the context logger
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())
	app.Use(promMiddleware.Handler())

	handlers.RegisterRoutes(app, svc, reg)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host", cfg.AppHost)
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		addr := ":" + cfg.Port
		log.G(ctx).WithField("addr", addr).Info("http server listening")
		return app.Listen(addr)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.G(ctx).Info("shutting down http server")
		return app.ShutdownWithTimeout(10 * time.Second)
	})

	if listener != nil {
		g.Go(func() error {
			return listener.Run(gctx)
		})
	}

	return g.Wait()
}

// newStorage builds the configured backend. The notification source is only
// available with MinIO.
func newStorage(cfg config.StorageConfig) (storage.Storage, trigger.NotificationSource, error) {
	switch strings.ToLower(cfg.Backend) {
	case "minio", "":
		m, err := storage.NewMinIO(cfg.MinIO)
		if err != nil {
			return nil, nil, err
		}
		return m, m.Client(), nil
	case "azure":
		a, err := storage.NewAzure(cfg.Azure)
		if err != nil {
			return nil, nil, err
		}
		return a, nil, nil
	case "memory":
		return storage.NewMemory(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// newRepository opens PostgreSQL when configured and falls back to an in-memory history.
func newRepository(ctx context.Context, cfg config.DatabaseConfig) (repository.InvocationRepository, func(), error) {
	if !cfg.Enabled() {
		log.G(ctx).Warn("DB_HOST not set, invocation history is kept in memory")
		return memory.NewInvocationMemory(), func() {}, nil
	}

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := migration.EnsureMigrated(ctx, db, cfg.Host); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return postgres.NewInvocationPostgres(db), func() { _ = db.Close() }, nil
}

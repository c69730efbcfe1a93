package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/CalTopSoft/backend-devhub/internal/assets"
	"github.com/CalTopSoft/backend-devhub/internal/config"
	"github.com/CalTopSoft/backend-devhub/internal/database"
	"github.com/CalTopSoft/backend-devhub/internal/database/migration"
	handlers "github.com/CalTopSoft/backend-devhub/internal/http/handler"
	"github.com/CalTopSoft/backend-devhub/internal/http/middleware"
	"github.com/CalTopSoft/backend-devhub/internal/notify"
	"github.com/CalTopSoft/backend-devhub/internal/otel"
	"github.com/CalTopSoft/backend-devhub/internal/repository/postgres"
	"github.com/CalTopSoft/backend-devhub/internal/scan"
	"github.com/CalTopSoft/backend-devhub/internal/service"
	"github.com/CalTopSoft/backend-devhub/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("invalid timezone %q: %v", cfg.Timezone, err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Tracing first, so DB and HTTP clients pick up the global provider
	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	// PostgreSQL connection (pgx via database/sql, instrumented with otelsql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Malware scanning: REST client, redis-backed verdict cache, and the
	// orchestrator enforcing rate and quota limits
	scanClient, err := scan.NewHTTPClient(cfg.Scan)
	if err != nil {
		log.Fatalf("failed to initialize scan client: %v", err)
	}
	verdictCache, err := scan.NewRedisCache(cfg.Redis, cfg.Scan.VerdictTTL)
	if err != nil {
		log.Fatalf("failed to initialize verdict cache: %v", err)
	}
	orchestrator := scan.NewOrchestrator(scanClient, verdictCache, cfg.Scan, loc, logger)

	// Domain wiring
	projRepo := postgres.NewProjectPostgres(db)
	assetMgr := assets.NewManager(objStore, logger)
	notifier := notify.NewLogNotifier(logger)
	projSvc := service.NewProjectService(projRepo, objStore, assetMgr, orchestrator, notifier, logger)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    256 << 20, // uploaded code archives can be large
	})

	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())
	app.Use(otelfiber.Middleware())

	registry := prometheus.NewRegistry()
	promMw, err := middleware.NewPrometheusMiddleware(registry)
	if err != nil {
		log.Fatalf("failed to initialize prometheus middleware: %v", err)
	}
	app.Use(promMw.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	handlers.RegisterRoutes(app, db, projSvc)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

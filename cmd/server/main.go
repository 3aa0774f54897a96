package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/literexia/assignment-engine/internal/config"
	"github.com/literexia/assignment-engine/internal/database"
	"github.com/literexia/assignment-engine/internal/handler"
	"github.com/literexia/assignment-engine/internal/logger"
	"github.com/literexia/assignment-engine/internal/middleware"
	"github.com/literexia/assignment-engine/internal/policy"
	"github.com/literexia/assignment-engine/internal/repository"
	"github.com/literexia/assignment-engine/internal/router"
	"github.com/literexia/assignment-engine/internal/service"
	"github.com/literexia/assignment-engine/internal/upstream"
	"github.com/literexia/assignment-engine/internal/validator"
	"github.com/literexia/assignment-engine/internal/worker"
	"github.com/literexia/assignment-engine/internal/workflow"
)

// sources bundles the backend the services read from and submit to.
type sources struct {
	catalog  service.CatalogSource
	content  service.ContentSource
	progress service.ProgressSource
	sink     service.AssignmentSink
}

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("data_source", string(cfg.DataSource)).
		Msg("Starting assignment engine")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Load Catalog Policy ───────────────────────────────────────────
	pol, err := policy.Load(cfg.CatalogPolicyFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", cfg.CatalogPolicyFile).Msg("Failed to load catalog policy")
	}

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Select Data Source ────────────────────────────────────────────
	var src sources
	switch cfg.DataSource {
	case config.DataSourceMongo:
		mongoClient, db, err := database.NewMongoDatabase(ctx, cfg, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
		}
		defer func() {
			disconnectCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			_ = mongoClient.Disconnect(disconnectCtx)
		}()

		assignmentRepo := repository.NewMongoAssignmentRepository(db)
		if err := assignmentRepo.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to create MongoDB indexes")
		}

		src = sources{
			catalog:  repository.NewMongoCatalogRepository(db),
			content:  repository.NewMongoContentRepository(db),
			progress: repository.NewMongoProgressRepository(db),
			sink:     assignmentRepo,
		}

	default:
		client := upstream.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamAPIKey,
			upstream.WithTimeout(cfg.UpstreamTimeout),
			upstream.WithRetries(cfg.UpstreamRetries, 200*time.Millisecond),
			upstream.WithLogger(log),
		)
		src = sources{catalog: client, content: client, progress: client, sink: client}
	}

	// ─── Initialize Repositories ───────────────────────────────────────
	workflowStore := repository.NewWorkflowStore(rdb, cfg.WorkflowTTL)
	contentCache := repository.NewContentCache(rdb, cfg.ContentCacheTTL)
	eventBus := repository.NewEventBus(rdb, log)
	auditQueue := repository.NewAuditQueue(rdb)
	auditRepo := repository.NewAuditRepository(pool)

	// ─── Initialize Services ──────────────────────────────────────────
	progressService := service.NewProgressService(src.progress, log)
	catalogService := service.NewCatalogService(src.catalog, progressService, pol, log)
	contentService := service.NewContentService(src.content, contentCache, log)
	assignmentService := service.NewAssignmentService(src.sink, auditQueue, log)

	controller := workflow.NewController(catalogService, contentService, assignmentService, eventBus, workflow.Options{
		PlaceholderPrefix:     cfg.PlaceholderPrefix,
		EmptyAssessmentPolicy: workflow.ParseEmptyAssessmentPolicy(cfg.EmptyAssessmentPolicy),
	}, log)
	workflowService := service.NewWorkflowService(workflowStore, controller, catalogService, progressService, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Catalog:  handler.NewCatalogHandler(catalogService),
		Content:  handler.NewContentHandler(contentService),
		Workflow: handler.NewWorkflowHandler(workflowService, log),
		History:  handler.NewHistoryHandler(auditRepo, log),
		Health:   handler.NewHealthHandler(string(cfg.DataSource), auditQueue),
		WS:       handler.NewWSHandler(workflowService, eventBus, log, cfg.AllowedOrigins),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	var workers sync.WaitGroup

	auditWorker := worker.NewAuditWorker(auditRepo, rdb, log)
	workers.Add(1)
	go func() {
		defer workers.Done()
		auditWorker.Start(workerCtx)
	}()

	// ─── Setup Router ──────────────────────────────────────────────────
	commitLimiter := middleware.NewRateLimiter(ctx, cfg.CommitRateLimit, time.Minute)
	r := router.SetupRouter(handlers, commitLimiter, cfg, log)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop the audit worker; it flushes its pending batch before returning.
	workerCancel()
	workers.Wait()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

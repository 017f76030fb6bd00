package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attachments-api/config"
	"attachments-api/internal/handlers"
	"attachments-api/internal/middleware"
	"attachments-api/internal/repositories"
	"attachments-api/internal/services"
	"attachments-api/internal/taskqueue"
	"attachments-api/pkg/memorydb"
	"attachments-api/pkg/objectstore"
	"attachments-api/pkg/postgres"
	"attachments-api/pkg/servicetitan"

	"github.com/joho/godotenv"

	"github.com/gin-gonic/gin"
)

// upstreamDirectory adapts the per-tenant client cache to the service
// layer's interface.
type upstreamDirectory struct {
	registry *servicetitan.Registry
}

func (d upstreamDirectory) ForTenant(tenant string) (services.UpstreamClient, error) {
	return d.registry.ForTenant(tenant)
}

func main() {
	// Load .env file
	if err := godotenv.Load(".env"); err == nil {
		log.Println("Loaded .env")
	} else {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.LoadConfig()

	ctx := context.Background()

	// Initialize database
	db, err := postgres.NewDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize Redis (task queue backend)
	redisClient, err := memorydb.NewRedisClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connection established successfully")

	// Initialize object store
	store, err := objectstore.NewClient(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize object store: %v", err)
	}

	// Initialize repositories
	repos := repositories.NewRepositories(db)

	// Initialize services
	registry := servicetitan.NewRegistry(cfg)
	fanout := services.NewFanOutEngine(store, repos.Attachment, cfg.Worker.MaxWorkers)
	ingestService := services.NewIngestService(repos.Status, upstreamDirectory{registry}, fanout, cfg)
	healthService := services.NewHealthService(db, redisClient)

	// Initialize task queue
	enqueuer := taskqueue.NewEnqueuer(redisClient, cfg.Worker.QueueKey)
	dispatcher := taskqueue.NewDispatcher(redisClient, cfg.Worker.QueueKey, cfg.Worker.TargetURL)

	// Initialize handlers
	taskHandler := handlers.NewTaskHandler(ingestService, enqueuer)
	statusHandler := handlers.NewStatusHandler(repos.Status, repos.Attachment)
	healthHandler := handlers.NewHealthHandler(healthService)

	// Setup router
	router := setupRouter(cfg, taskHandler, statusHandler, healthHandler)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on %s:%s", cfg.Server.Host, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Start delivering queued tasks once the server is accepting requests
	dispatcher.Start()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	dispatcher.Stop()

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

func setupRouter(
	cfg *config.Config,
	taskHandler *handlers.TaskHandler,
	statusHandler *handlers.StatusHandler,
	healthHandler *handlers.HealthHandler,
) *gin.Engine {
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	router.Use(middleware.ErrorMiddleware())

	router.GET("/health", healthHandler.Check)

	// Task queue delivery target
	router.POST("/tasks/process-job", taskHandler.Process)

	// Consumer surface
	jobs := router.Group("/jobs")
	{
		jobs.POST("/enqueue", taskHandler.Enqueue)
		jobs.GET("/:job_id/status", statusHandler.GetStatus)
		jobs.GET("/:job_id/attachments", statusHandler.ListAttachments)
	}

	return router
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/simulation-suite/internal/agents"
	"github.com/jwebster45206/simulation-suite/internal/config"
	"github.com/jwebster45206/simulation-suite/internal/handlers"
	"github.com/jwebster45206/simulation-suite/internal/logger"
	"github.com/jwebster45206/simulation-suite/internal/middleware"
	"github.com/jwebster45206/simulation-suite/internal/services"
	"github.com/jwebster45206/simulation-suite/internal/services/events"
	"github.com/jwebster45206/simulation-suite/internal/services/lock"
	"github.com/jwebster45206/simulation-suite/internal/services/queue"
	"github.com/jwebster45206/simulation-suite/internal/storage"
	"github.com/jwebster45206/simulation-suite/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Simulation Suite API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"llm_provider", cfg.LLMProvider,
		"model_name", cfg.ModelName)

	llmService, err := services.NewLLMService(cfg, log)
	if err != nil {
		log.Error("Failed to create LLM service", "error", err)
		os.Exit(1)
	}

	store, err := storage.NewRedisStorage(cfg.RedisURL, cfg.SessionTTL, log)
	if err != nil {
		log.Error("Failed to create storage", "error", err)
		os.Exit(1)
	}
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	// Initialize the model on startup
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	if err := llmService.InitModel(ctx, cfg.ModelName); err != nil {
		log.Error("Failed to initialize LLM model", "error", err, "model", cfg.ModelName)
		os.Exit(1)
	}

	// Queue, locks and events share the storage connection pool
	rdb := store.Client()
	roundQueue := queue.NewRoundQueue(queue.NewClientFromRedis(rdb, log))
	broadcaster := events.NewBroadcaster(rdb, log)
	locker := lock.NewRedisLocker(rdb, "api-"+uuid.NewString()[:8], cfg.RoundTimeout+lock.DefaultTTL)

	processor := worker.NewRoundProcessor(
		store,
		llmService,
		locker,
		broadcaster,
		roundQueue,
		agents.Options{WorldStateInterval: cfg.WorldStateInterval},
		cfg.RoundTimeout,
		log,
	)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(store, roundQueue, log)
	mux.Handle("/health", healthHandler)

	sessionHandler := handlers.NewSessionHandler(store, processor, roundQueue, broadcaster, log)
	mux.Handle("/v1/sessions", sessionHandler)
	mux.Handle("/v1/sessions/", sessionHandler)

	eventsHandler := handlers.NewEventsHandler(rdb, log)
	mux.Handle("/v1/events/sessions/", eventsHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: synchronous rounds and SSE streams run long
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/simulation-suite/internal/agents"
	"github.com/jwebster45206/simulation-suite/internal/config"
	"github.com/jwebster45206/simulation-suite/internal/logger"
	"github.com/jwebster45206/simulation-suite/internal/services"
	"github.com/jwebster45206/simulation-suite/internal/services/events"
	"github.com/jwebster45206/simulation-suite/internal/services/lock"
	"github.com/jwebster45206/simulation-suite/internal/services/queue"
	"github.com/jwebster45206/simulation-suite/internal/storage"
	"github.com/jwebster45206/simulation-suite/internal/worker"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Simulation Suite Worker",
		"environment", cfg.Environment,
		"concurrency", cfg.WorkerConcurrency)

	store, err := storage.NewRedisStorage(cfg.RedisURL, cfg.SessionTTL, log)
	if err != nil {
		log.Error("Failed to create storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing storage connection", "error", err)
		}
	}()

	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()
	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage service initialized successfully")

	llmService, err := services.NewLLMService(cfg, log)
	if err != nil {
		log.Error("Failed to create LLM service", "error", err)
		os.Exit(1)
	}

	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer initCancel()
	if err := llmService.InitModel(initCtx, cfg.ModelName); err != nil {
		log.Error("Failed to initialize LLM model", "error", err, "model", cfg.ModelName)
		os.Exit(1)
	}
	log.Info("LLM service initialized successfully", "model", cfg.ModelName)

	rdb := store.Client()
	roundQueue := queue.NewRoundQueue(queue.NewClientFromRedis(rdb, log))
	broadcaster := events.NewBroadcaster(rdb, log)

	baseID := os.Getenv("WORKER_ID")
	if baseID == "" {
		baseID = worker.NewWorkerID()
	}

	workers := make([]*worker.Worker, cfg.WorkerConcurrency)
	for i := range workers {
		id := baseID
		if cfg.WorkerConcurrency > 1 {
			id = fmt.Sprintf("%s-%d", baseID, i+1)
		}
		locker := lock.NewRedisLocker(rdb, id, cfg.RoundTimeout+lock.DefaultTTL)
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
		workers[i] = worker.New(roundQueue, processor, log, id)
	}

	var g errgroup.Group
	for _, w := range workers {
		g.Go(w.Start)
	}
	log.Info("Workers started, waiting for requests...", "count", len(workers))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Worker shutdown signal received")

	for _, w := range workers {
		w.Stop()
	}
	if err := g.Wait(); err != nil {
		log.Error("Worker error", "error", err)
	}

	log.Info("Worker exited")
}

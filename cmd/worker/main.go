package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"quantumelodic/internal/config"
	"quantumelodic/internal/kv"
	"quantumelodic/internal/logging"
	"quantumelodic/internal/storage"
	"quantumelodic/internal/worker"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format)

	pool, err := kv.Connect(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer pool.Close()
	if err := kv.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}
	store := kv.NewPostgres(pool)

	objectStore, err := storage.NewMinioStore(cfg)
	if err != nil {
		log.Fatalf("init storage: %v", err)
	}
	gateway := storage.NewGateway(objectStore, cfg, logger)
	gateway.EnsureBuckets(ctx)

	server := asynq.NewServer(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, asynq.Config{
		Concurrency: cfg.Worker.Concurrency,
	})
	processor := worker.NewProcessor(gateway, store, logger)

	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()

	logger.Info("worker started", "concurrency", cfg.Worker.Concurrency)
	if err := server.Run(processor.Handler()); err != nil {
		logger.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}

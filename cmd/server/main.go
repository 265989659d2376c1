package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"quantumelodic/internal/api"
	"quantumelodic/internal/config"
	"quantumelodic/internal/contacts"
	"quantumelodic/internal/kv"
	"quantumelodic/internal/logging"
	"quantumelodic/internal/resolver"
	"quantumelodic/internal/storage"
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
	// Best effort: bucket init failures are logged, never fatal.
	gateway.EnsureBuckets(ctx)

	res := resolver.New(gateway, cfg.SignedURLTTL, logger)
	contactLog := contacts.NewLog(store)

	tasks := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer tasks.Close()

	srv := api.New(cfg, gateway, res, contactLog, store, tasks, logger)
	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

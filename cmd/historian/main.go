// cmd/historian is an asynchronous historian service that pops auction action records from a
// Redis queue and persists them to PostgreSQL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/cricket-auction/internal/config"
	"github.com/jason-s-yu/cricket-auction/internal/database"
	"github.com/jason-s-yu/cricket-auction/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	log.SetLevel(cfg.LogLevel)
	if !cfg.Postgres.Enabled() || !cfg.Redis.Enabled() {
		log.Fatal("historian needs both PG_HOST and REDIS_ADDR")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.Postgres.DSN())
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer pool.Close()
	if err := database.EnsureSchema(ctx, pool); err != nil {
		log.Fatalf("%v", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to Redis at %s: %v", cfg.Redis.Addr, err)
	}

	svc := historian.New(rdb, database.NewActionStore(pool), historian.Options{
		QueueName:     cfg.Redis.Queue,
		BatchSize:     cfg.Historian.BatchSize,
		FlushInterval: cfg.Historian.FlushInterval,
		Inactivity:    cfg.Historian.Inactivity,
	})
	log.Infof("historian consuming %q (batch=%d, flush=%s, inactivity=%s)",
		cfg.Redis.Queue, cfg.Historian.BatchSize, cfg.Historian.FlushInterval, cfg.Historian.Inactivity)
	svc.Run(ctx)
	log.Info("historian stopped")
}

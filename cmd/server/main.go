// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/cricket-auction/internal/auth"
	"github.com/jason-s-yu/cricket-auction/internal/cache"
	"github.com/jason-s-yu/cricket-auction/internal/catalog"
	"github.com/jason-s-yu/cricket-auction/internal/config"
	"github.com/jason-s-yu/cricket-auction/internal/database"
	"github.com/jason-s-yu/cricket-auction/internal/game"
	"github.com/jason-s-yu/cricket-auction/internal/handlers"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions, err := newSessionIssuer(cfg.TokenExpire)
	if err != nil {
		logger.Fatalf("session keys: %v", err)
	}

	storeCfg := game.StoreConfig{Rules: cfg.Rules, Logger: logger}

	src, cleanup, err := newCatalogSource(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("catalog: %v", err)
	}
	defer cleanup()
	if src != nil {
		storeCfg.Catalog = catalog.NewCachedSource(src, cfg.CatalogTTL)
	} else {
		logger.Warn("no CATALOG_FILE or PG_HOST configured; draw_pools will fail until one is set")
	}

	if cfg.Redis.Enabled() {
		pub, err := cache.Connect(ctx, cache.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB, Queue: cfg.Redis.Queue})
		if err != nil {
			// The action log is best effort; rooms run without it.
			logger.Warnf("action log disabled: %v", err)
		} else {
			defer pub.Close()
			storeCfg.Publisher = pub
			logger.Infof("publishing actions to redis list %q", cfg.Redis.Queue)
		}
	}

	srv := handlers.NewServer(game.NewRoomStore(storeCfg), sessions, logger)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warnf("shutdown: %v", err)
		}
	}()

	logger.Infof("Running on %s", httpServer.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatalf("server exited: %v", err)
	}
	logger.Info("server stopped")
}

// newSessionIssuer loads the signing keys named by AUTH_PRIVATE_KEY_PATH and
// AUTH_PUBLIC_KEY_PATH, or generates a throwaway pair when they are unset.
func newSessionIssuer(expire time.Duration) (*auth.SessionIssuer, error) {
	priv, pub := os.Getenv("AUTH_PRIVATE_KEY_PATH"), os.Getenv("AUTH_PUBLIC_KEY_PATH")
	if priv != "" && pub != "" {
		return auth.NewSessionIssuerFromPath(priv, pub, expire)
	}
	return auth.NewSessionIssuer(expire)
}

// newCatalogSource prefers a JSON file over the database. It returns a nil source when
// neither is configured.
func newCatalogSource(ctx context.Context, cfg config.Config, logger *logrus.Logger) (catalog.Source, func(), error) {
	if cfg.CatalogFile != "" {
		logger.Infof("loading catalog from %s", cfg.CatalogFile)
		return catalog.FileSource{Path: cfg.CatalogFile}, func() {}, nil
	}
	if !cfg.Postgres.Enabled() {
		return nil, func() {}, nil
	}
	pool, err := database.Connect(ctx, cfg.Postgres.DSN())
	if err != nil {
		return nil, nil, err
	}
	if err := database.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return catalog.NewPostgresSource(pool), pool.Close, nil
}

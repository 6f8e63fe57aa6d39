package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	mcache "github.com/tbessa/game-wager-platform-poc/internal/marketplace-service/cache"
	mhttp "github.com/tbessa/game-wager-platform-poc/internal/marketplace-service/http"
	"github.com/tbessa/game-wager-platform-poc/internal/marketplace-service/repo"
	scache "github.com/tbessa/game-wager-platform-poc/internal/shared/cache"
	"github.com/tbessa/game-wager-platform-poc/internal/shared/config"
	"github.com/tbessa/game-wager-platform-poc/internal/shared/db"
	"github.com/tbessa/game-wager-platform-poc/internal/shared/logger"
	"github.com/tbessa/game-wager-platform-poc/internal/shared/metrics"
)

func main() {
	if os.Getenv("SERVICE_NAME") == "" {
		_ = os.Setenv("SERVICE_NAME", "marketplace-service")
	}
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	rdb, err := scache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	api := mhttp.NewServer(log, repo.NewPostgres(pg), mcache.New(rdb))

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return err
		}
		return rdb.Ping(ctx).Err()
	})

	addr := ":" + cfg.HTTPPort
	log.Info("marketplace-service listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, api.Router()); err != nil && err != http.ErrServerClosed {
		log.Fatal("api", zap.Error(err))
	}
}

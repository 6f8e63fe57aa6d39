package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/tbessa/game-wager-platform-poc/internal/match-service/catalog"
	kpub "github.com/tbessa/game-wager-platform-poc/internal/match-service/producer"
	"github.com/tbessa/game-wager-platform-poc/internal/match-service/session"
	"github.com/tbessa/game-wager-platform-poc/internal/match-service/ws"
	"github.com/tbessa/game-wager-platform-poc/internal/shared/config"
	"github.com/tbessa/game-wager-platform-poc/internal/shared/kafka"
	"github.com/tbessa/game-wager-platform-poc/internal/shared/logger"
	"github.com/tbessa/game-wager-platform-poc/internal/shared/metrics"
)

func main() {
	if os.Getenv("SERVICE_NAME") == "" {
		_ = os.Setenv("SERVICE_NAME", "match-service")
	}
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	// Catálogo de variantes; cai no default embutido se o arquivo não existir
	cat, err := catalog.LoadFile(cfg.GameCatalogPath)
	if err != nil {
		log.Warn("game catalog load failed, using defaults",
			zap.String("path", cfg.GameCatalogPath), zap.Error(err))
		cat = catalog.Default()
	}
	log.Info("game catalog loaded", zap.Int("variants", len(cat.Variants)))

	// Kafka writer (match_result)
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMatchResult)
	defer writer.Close()
	publ := kpub.NewKafkaPublisher(writer, cfg.TopicMatchResult)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mgr := session.NewManager(cat, log)
	mgr.StartJanitor(ctx, time.Minute, 2*time.Hour)

	hub := ws.NewHub(mgr, publ, log, func(*http.Request) bool { return true })

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/game", hub.HandleWS)

	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: mux,
	}

	metrics.StartMetricsServer(cfg.MetricsPort, func(context.Context) error { return nil })

	go func() {
		log.Info("match-service listening", zap.String("addr", apiSrv.Addr))
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("api", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = apiSrv.Shutdown(shutCtx)
}

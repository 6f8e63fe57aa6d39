package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/tbessa/game-wager-platform-poc/internal/pool-service/repo"
	"github.com/tbessa/game-wager-platform-poc/internal/pool-service/wallet"
	"github.com/tbessa/game-wager-platform-poc/internal/settlement"
	"github.com/tbessa/game-wager-platform-poc/internal/shared/config"
	"github.com/tbessa/game-wager-platform-poc/internal/shared/db"
	"github.com/tbessa/game-wager-platform-poc/internal/shared/kafka"
	"github.com/tbessa/game-wager-platform-poc/internal/shared/logger"
	"github.com/tbessa/game-wager-platform-poc/internal/shared/metrics"
)

var (
	resultsConsumed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_results_consumed_total",
		Help: "Eventos match_result consumidos do Kafka",
	})
	poolsSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "settlement_pools_settled_total",
		Help: "Pools liquidados com sucesso",
	})
	settleErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_errors_total",
		Help: "Erros de liquidação por etapa",
	}, []string{"stage"})
)

func main() {
	if os.Getenv("SERVICE_NAME") == "" {
		_ = os.Setenv("SERVICE_NAME", "settlement-worker")
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

	// Kafka: consome match_result, publica pool_settled, DLQ para venenosas
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicMatchResult, "settlement-worker")
	defer reader.Close()

	settledWriter := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicPoolSettled)
	defer settledWriter.Close()

	var dlqWriter *kafka.Writer
	if cfg.TopicMatchResultDLQ != "" {
		dlqWriter = kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicMatchResultDLQ)
		defer dlqWriter.Close()
	}

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		return pg.PingContext(ctx)
	})

	worker := &settlement.Worker{
		Log:    log,
		Store:  repo.NewPostgres(pg),
		Wallet: wallet.New(cfg.WalletURL),
		Publ:   settlement.NewKafkaPublisher(settledWriter),
		Reader: reader,
		DLQ:    dlqWriter,

		OnConsumed: resultsConsumed.Inc,
		OnSettled:  poolsSettled.Inc,
		OnError: func(stage string) {
			settleErrors.WithLabelValues(stage).Inc()
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("settlement-worker started",
		zap.String("consume", cfg.TopicMatchResult),
		zap.String("publish", cfg.TopicPoolSettled),
	)
	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal("worker", zap.Error(err))
	}
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/tbessa/game-wager-platform-poc/internal/pool-service/cache"
	"github.com/tbessa/game-wager-platform-poc/internal/pool-service/engine"
	phttp "github.com/tbessa/game-wager-platform-poc/internal/pool-service/http"
	kpub "github.com/tbessa/game-wager-platform-poc/internal/pool-service/producer"
	"github.com/tbessa/game-wager-platform-poc/internal/pool-service/repo"
	"github.com/tbessa/game-wager-platform-poc/internal/pool-service/wallet"
	"github.com/tbessa/game-wager-platform-poc/internal/pool-service/ws"
	scache "github.com/tbessa/game-wager-platform-poc/internal/shared/cache"
	"github.com/tbessa/game-wager-platform-poc/internal/shared/config"
	"github.com/tbessa/game-wager-platform-poc/internal/shared/db"
	"github.com/tbessa/game-wager-platform-poc/internal/shared/kafka"
	"github.com/tbessa/game-wager-platform-poc/internal/shared/logger"
	"github.com/tbessa/game-wager-platform-poc/internal/shared/metrics"
	"github.com/tbessa/game-wager-platform-poc/pkg/contracts/events"
)

func main() {
	if os.Getenv("SERVICE_NAME") == "" {
		_ = os.Setenv("SERVICE_NAME", "pool-service")
	}
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(fmt.Errorf("logger init: %w", err))
	}
	defer log.Sync()

	// Postgres
	pg, err := db.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		log.Fatal("pg connect", zap.Error(err))
	}
	defer pg.Close()

	// Redis (cache de odds + Pub/Sub de broadcast)
	rdb, err := scache.ConnectRedis(cfg.RedisAddr)
	if err != nil {
		log.Fatal("redis connect", zap.Error(err))
	}
	defer rdb.Close()

	// Kafka writer (bet_placed)
	writer := kafka.NewWriter(cfg.KafkaBrokers, cfg.TopicBetPlaced)
	defer writer.Close()

	// deps
	repository := repo.NewPostgres(pg)
	registry := engine.NewRegistry(cfg.PlatformFeeBps)
	oddsCache := cache.New(rdb)
	wcli := wallet.New(cfg.WalletURL)
	publ := kpub.NewKafkaPublisher(writer, cfg.TopicBetPlaced)
	bcast := kpub.NewOddsBroadcaster(rdb, cfg.RedisPubSubChannel)

	// Reidrata os pools ativos a partir do banco antes de aceitar apostas
	if err := restorePools(context.Background(), log, repository, registry); err != nil {
		log.Fatal("restore pools", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// WS hub alimentado pelo canal Pub/Sub de odds
	hub := ws.NewHub(func(*http.Request) bool { return true })
	ws.StartRedisSubscriber(ctx, rdb, cfg.RedisPubSubChannel, hub, log)

	// Consome pool_settled para fechar o pool em memória e derrubar o cache;
	// sem isso o serviço seguiria cotando odds de pool já liquidado.
	// Group id por instância: cada réplica mantém seu próprio registry e
	// precisa ver todas as liquidações, não dividir as partições com as outras
	settledReader := kafka.NewReader(cfg.KafkaBrokers, cfg.TopicPoolSettled, kafka.InstanceGroupID("pool-service-settled"))
	defer settledReader.Close()
	go consumeSettled(ctx, log, settledReader, registry, oddsCache)

	api := phttp.NewServer(log, repository, registry, oddsCache, wcli, publ, bcast, cfg.PlatformFeeBps)

	mux := http.NewServeMux()
	mux.Handle("/", api.Router())
	mux.HandleFunc("/ws", hub.HandleWS)

	apiSrv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: mux,
	}

	metrics.StartMetricsServer(cfg.MetricsPort, func(ctx context.Context) error {
		if err := pg.PingContext(ctx); err != nil {
			return fmt.Errorf("pg: %w", err)
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		return nil
	})

	go func() {
		log.Info("pool-service listening", zap.String("addr", apiSrv.Addr))
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

// consumeSettled escuta pool_settled e desativa o pool correspondente.
func consumeSettled(ctx context.Context, log *zap.Logger, r *kafkago.Reader, reg *engine.Registry, c *cache.Cache) {
	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Warn("pool_settled read", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		var ev events.PoolSettled
		if jerr := json.Unmarshal(msg.Value, &ev); jerr != nil {
			log.Error("unmarshal pool_settled", zap.Error(jerr))
			continue
		}
		reg.Deactivate(ev.MatchID)
		_ = c.Invalidate(ctx, ev.MatchID)
		log.Info("pool closed", zap.String("matchId", ev.MatchID),
			zap.String("winner", ev.WinningOutcome))
	}
}

// restorePools reconstrói o estado em memória dos pools ativos. Sem isso,
// um restart do serviço cotaria odds zeradas para pools com apostas abertas.
func restorePools(ctx context.Context, log *zap.Logger, r *repo.Postgres, reg *engine.Registry) error {
	pools, err := r.ListActivePools(ctx)
	if err != nil {
		return err
	}
	for _, p := range pools {
		rows, err := r.ListMatchBets(ctx, p.MatchID)
		if err != nil {
			return err
		}
		bets := make([]engine.Bet, 0, len(rows))
		for _, b := range rows {
			if b.Status != engine.StatusPending {
				continue
			}
			bets = append(bets, engine.Bet{
				ID:            b.ID,
				UserID:        b.UserID,
				MatchID:       b.MatchID,
				Outcome:       b.Outcome,
				StakeLamports: b.StakeLamports,
				OddsValue:     b.OddsValue,
				Status:        b.Status,
			})
		}
		reg.Restore(p.MatchID, p.Active, bets)
		log.Info("pool restored", zap.String("matchId", p.MatchID), zap.Int("bets", len(bets)))
	}
	return nil
}

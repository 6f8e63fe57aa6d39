package main

import (
	"context"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/tbessa/game-wager-platform-poc/internal/gateway"
	"github.com/tbessa/game-wager-platform-poc/internal/shared/config"
	"github.com/tbessa/game-wager-platform-poc/internal/shared/logger"
	"github.com/tbessa/game-wager-platform-poc/internal/shared/metrics"
)

func rp(to string) *httputil.ReverseProxy {
	u, _ := url.Parse(to)
	return httputil.NewSingleHostReverseProxy(u)
}

func main() {
	if os.Getenv("SERVICE_NAME") == "" {
		_ = os.Setenv("SERVICE_NAME", "api-gateway")
	}
	cfg := config.Load()
	log, _ := logger.New(cfg.ServiceName, cfg.Env)
	defer log.Sync()

	// targets
	matchURL := os.Getenv("MATCH_URL")
	if matchURL == "" {
		matchURL = "http://localhost:8084"
	}
	marketURL := os.Getenv("MARKET_URL")
	if marketURL == "" {
		marketURL = "http://localhost:8085"
	}
	pool := rp(cfg.PoolURL)
	wallet := rp(cfg.WalletURL)
	match := rp(matchURL)
	market := rp(marketURL)

	mux := http.NewServeMux()

	// pools e apostas (ex.: /api/pools/* -> pool-service)
	mux.Handle("/api/pools/", http.StripPrefix("/api/pools", pool))

	// wallet (ex.: /api/wallet/* -> wallet-service)
	mux.Handle("/api/wallet/", http.StripPrefix("/api/wallet", wallet))

	// partidas (ex.: /api/match/* -> match-service, inclui upgrade WS)
	mux.Handle("/api/match/", http.StripPrefix("/api/match", match))

	// marketplace (ex.: /api/market/* -> marketplace-service)
	mux.Handle("/api/market/", http.StripPrefix("/api/market", market))

	// rate limit por IP na borda
	rps, _ := strconv.ParseFloat(getEnv("GATEWAY_RATE_RPS", "20"), 64)
	burst, _ := strconv.Atoi(getEnv("GATEWAY_RATE_BURST", "40"))
	limiter := gateway.NewLimiter(rps, burst)

	done := make(chan struct{})
	defer close(done)
	limiter.StartSweeper(done, time.Minute, 10*time.Minute)

	metrics.StartMetricsServer(cfg.MetricsPort, func(context.Context) error { return nil })

	addr := ":" + cfg.HTTPPort
	log.Info("api-gateway listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, withCORS(limiter.Middleware(mux))); err != nil && err != http.ErrServerClosed {
		log.Fatal("gateway failed", zap.Error(err))
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tbessa/game-wager-platform-poc/internal/pool-service/dto"
	"github.com/tbessa/game-wager-platform-poc/internal/pool-service/engine"
	"github.com/tbessa/game-wager-platform-poc/internal/pool-service/repo"
	"github.com/tbessa/game-wager-platform-poc/pkg/contracts/events"
)

// tolerância de divergência entre a odd vista pelo cliente e a corrente
const oddsDriftTolerance = 0.01

// Publisher abstrai a publicação dos eventos do pool-service
type Publisher interface {
	PublishBetPlaced(context.Context, events.BetPlaced) error
}

// Broadcaster abstrai o envio de snapshots de odds para o canal Pub/Sub
type Broadcaster interface {
	PublishOdds(context.Context, events.PoolOddsUpdate) error
}

// BetStore é o recorte do repositório de pools usado pela API
type BetStore interface {
	EnsurePool(ctx context.Context, matchID string, feeBps int64) error
	CreateBet(ctx context.Context, b *repo.BetRow) (string, error)
	DeleteBet(ctx context.Context, betID string) error
	GetBet(ctx context.Context, betID string) (repo.BetRow, error)
}

// WalletClient é o recorte do cliente de carteira usado na criação da aposta
type WalletClient interface {
	Reserve(ctx context.Context, userID string, lamports int64, externalRef string) (string, error)
	Refund(ctx context.Context, userID, externalRef string) error
}

// OddsCache é o recorte do cache de odds usado pela API
type OddsCache interface {
	GetOdds(ctx context.Context, matchID string, dst any) (bool, error)
	SetOdds(ctx context.Context, matchID string, v any, ttl time.Duration) error
}

// Server expõe a API REST do pool de apostas
type Server struct {
	log      *zap.Logger
	repo     BetStore
	registry *engine.Registry
	cache    OddsCache
	wcli     WalletClient
	publ     Publisher
	bcast    Broadcaster
	feeBps   int64
}

func NewServer(
	log *zap.Logger,
	r BetStore,
	reg *engine.Registry,
	c OddsCache,
	w WalletClient,
	p Publisher,
	b Broadcaster,
	feeBps int64,
) *Server {
	return &Server{log: log, repo: r, registry: reg, cache: c, wcli: w, publ: p, bcast: b, feeBps: feeBps}
}

// Router retorna o roteador HTTP com os endpoints do pool
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/pools/{matchId}/bets", s.placeBet) // registra aposta no pool
	r.Get("/v1/pools/{matchId}", s.getPool)        // resumo do pool
	r.Get("/v1/pools/{matchId}/odds", s.getOdds)   // odds corrente
	r.Get("/v1/bets/{id}", s.getBetStatus)         // status de uma aposta
	return r
}

func (s *Server) placeBet(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchId")

	var req dto.PlaceBetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if matchID == "" || req.UserID == "" || req.Outcome == "" || req.StakeLamports <= 0 || req.OddsValue <= 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if !validOutcome(req.Outcome) {
		http.Error(w, "invalid outcome", http.StatusBadRequest)
		return
	}

	// 1) Valida a odd que o cliente viu contra a corrente do pool
	current := s.registry.CurrentOdds(matchID)[req.Outcome]
	if math.Abs(current-req.OddsValue) > oddsDriftTolerance {
		writeJSONStatus(w, http.StatusConflict, map[string]any{
			"error":        "odds changed",
			"current_odds": current,
		})
		return
	}

	// 2) Reserva o stake antes de persistir qualquer coisa (external_ref =
	// id da aposta, gerado aqui). Reserva recusada não deixa rastro: sem
	// linha PENDING não há o que o worker liquidar nem o que o restart
	// recontar nas odds.
	betID := uuid.NewString()
	if _, err := s.wcli.Reserve(r.Context(), req.UserID, req.StakeLamports, betID); err != nil {
		http.Error(w, "wallet reserve failed", http.StatusConflict)
		return
	}

	// 3) Garante o pool e cria a aposta PENDING; falha aqui devolve a
	// reserva pra não prender saldo sem aposta correspondente
	if err := s.repo.EnsurePool(r.Context(), matchID, s.feeBps); err != nil {
		s.releaseReserve(r.Context(), req.UserID, betID)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if _, err := s.repo.CreateBet(r.Context(), &repo.BetRow{
		ID:            betID,
		UserID:        req.UserID,
		MatchID:       matchID,
		Outcome:       req.Outcome,
		StakeLamports: req.StakeLamports,
		OddsValue:     current,
	}); err != nil {
		s.releaseReserve(r.Context(), req.UserID, betID)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// 4) Aplica o stake no pool em memória; pool fechado desfaz reserva e linha
	if _, err := s.registry.Place(matchID, req.Outcome, req.StakeLamports); err != nil {
		s.releaseReserve(r.Context(), req.UserID, betID)
		if derr := s.repo.DeleteBet(r.Context(), betID); derr != nil {
			s.log.Error("bet rollback failed", zap.String("betId", betID), zap.Error(derr))
		}
		if errors.Is(err, engine.ErrPoolClosed) {
			http.Error(w, "pool closed", http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// 5) Publica bet_placed e o snapshot de odds
	_ = s.publ.PublishBetPlaced(r.Context(), events.BetPlaced{
		BetID:         betID,
		UserID:        req.UserID,
		MatchID:       matchID,
		Outcome:       req.Outcome,
		StakeLamports: req.StakeLamports,
		OddsValue:     current,
		ReservedRef:   betID,
	})
	s.broadcastOdds(r.Context(), matchID)

	writeJSON(w, dto.PlaceBetResponse{
		BetID:     betID,
		Status:    engine.StatusPending,
		OddsValue: current,
	})
}

// releaseReserve devolve a reserva de uma aposta que não chegou a valer
func (s *Server) releaseReserve(ctx context.Context, userID, betID string) {
	if err := s.wcli.Refund(ctx, userID, betID); err != nil {
		s.log.Error("reserve rollback failed", zap.String("betId", betID), zap.Error(err))
	}
}

// broadcastOdds atualiza o cache e publica o snapshot corrente no Pub/Sub
func (s *Server) broadcastOdds(ctx context.Context, matchID string) {
	pool, ok := s.registry.Snapshot(matchID)
	if !ok {
		return
	}
	upd := events.PoolOddsUpdate{
		MatchID:       matchID,
		Odds:          pool.OddsSnapshot(),
		TotalLamports: pool.TotalLamports,
		BetsCount:     pool.BetsCount,
		UpdatedAt:     time.Now().UTC(),
	}
	_ = s.cache.SetOdds(ctx, matchID, upd, 30*time.Second)
	if err := s.bcast.PublishOdds(ctx, upd); err != nil {
		s.log.Warn("odds broadcast publish failed", zap.Error(err))
	}
}

// getPool retorna o resumo do pool da partida
func (s *Server) getPool(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchId")
	pool, ok := s.registry.Snapshot(matchID)
	if !ok {
		http.Error(w, "pool not found", http.StatusNotFound)
		return
	}
	writeJSON(w, dto.PoolResponse{
		MatchID:       matchID,
		TotalLamports: pool.TotalLamports,
		BetsCount:     pool.BetsCount,
		Outcomes:      pool.Outcomes,
		Odds:          pool.OddsSnapshot(),
		Active:        pool.Active,
	})
}

// getOdds retorna as odds da partida, preferencialmente do cache
func (s *Server) getOdds(w http.ResponseWriter, r *http.Request) {
	matchID := chi.URLParam(r, "matchId")

	var fromCache events.PoolOddsUpdate
	if ok, _ := s.cache.GetOdds(r.Context(), matchID, &fromCache); ok {
		writeJSON(w, dto.OddsResponse{
			MatchID:   matchID,
			Odds:      fromCache.Odds,
			UpdatedAt: fromCache.UpdatedAt.Format(time.RFC3339),
		})
		return
	}

	odds := s.registry.CurrentOdds(matchID)
	writeJSON(w, dto.OddsResponse{
		MatchID:   matchID,
		Odds:      odds,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// getBetStatus retorna o estado atual de uma aposta
func (s *Server) getBetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	b, err := s.repo.GetBet(r.Context(), id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, dto.BetStatusResponse{
		BetID:         b.ID,
		MatchID:       b.MatchID,
		Outcome:       b.Outcome,
		StakeLamports: b.StakeLamports,
		OddsValue:     b.OddsValue,
		Status:        b.Status,
	})
}

func validOutcome(o string) bool {
	for _, known := range engine.DefaultOutcomes {
		if o == known {
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

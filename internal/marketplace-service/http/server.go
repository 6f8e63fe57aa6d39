package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/tbessa/game-wager-platform-poc/internal/marketplace-service/cache"
	"github.com/tbessa/game-wager-platform-poc/internal/marketplace-service/dto"
	"github.com/tbessa/game-wager-platform-poc/internal/marketplace-service/pricing"
	"github.com/tbessa/game-wager-platform-poc/internal/marketplace-service/repo"
)

// TTL curto: a página de listings ativas muda a cada compra/cancelamento
const activeListingsTTL = 15 * time.Second

// Server expõe a API REST do marketplace de NFTs
type Server struct {
	log   *zap.Logger
	repo  *repo.Postgres
	cache *cache.Cache
}

func NewServer(log *zap.Logger, r *repo.Postgres, c *cache.Cache) *Server {
	return &Server{log: log, repo: r, cache: c}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Post("/v1/listings", s.createListing)
	r.Get("/v1/listings", s.listActive)
	r.Get("/v1/listings/{id}", s.getListing)
	r.Post("/v1/listings/{id}/buy", s.buyListing)
	r.Post("/v1/listings/{id}/cancel", s.cancelListing)
	r.Get("/v1/listings/suggest-price", s.suggestPrice)
	return r
}

func (s *Server) createListing(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if req.SellerID == "" || req.MintAddress == "" || req.PriceLamports <= 0 {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	l, err := s.repo.CreateListing(r.Context(), req.SellerID, req.MintAddress, req.PriceLamports)
	if err != nil {
		if errors.Is(err, repo.ErrMintListed) {
			http.Error(w, "mint already listed", http.StatusConflict)
			return
		}
		s.log.Error("create listing failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.invalidateActive(r.Context())
	writeJSONStatus(w, http.StatusCreated, dto.ListingOf(l))
}

func (s *Server) listActive(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	// Página padrão servida do cache; consultas com limit explícito vão no banco
	if limit == 0 {
		var cached []dto.ListingResponse
		if ok, _ := s.cache.GetActive(r.Context(), &cached); ok {
			writeJSON(w, cached)
			return
		}
	}

	rows, err := s.repo.ListActive(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]dto.ListingResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.ListingOf(&rows[i]))
	}
	if limit == 0 {
		_ = s.cache.SetActive(r.Context(), out, activeListingsTTL)
	}
	writeJSON(w, out)
}

func (s *Server) getListing(w http.ResponseWriter, r *http.Request) {
	l, err := s.repo.GetListing(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, dto.ListingOf(l))
}

func (s *Server) buyListing(w http.ResponseWriter, r *http.Request) {
	var req dto.BuyListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.BuyerID == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	l, err := s.repo.Buy(r.Context(), chi.URLParam(r, "id"), req.BuyerID)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, repo.ErrNotActive):
			http.Error(w, "listing not active", http.StatusConflict)
		case errors.Is(err, repo.ErrOwnListing):
			http.Error(w, "cannot buy own listing", http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	s.invalidateActive(r.Context())
	writeJSON(w, dto.ListingOf(l))
}

func (s *Server) cancelListing(w http.ResponseWriter, r *http.Request) {
	var req dto.CancelListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SellerID == "" {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	l, err := s.repo.Cancel(r.Context(), chi.URLParam(r, "id"), req.SellerID)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			http.Error(w, "not found", http.StatusNotFound)
		case errors.Is(err, repo.ErrNotSeller):
			http.Error(w, "not the seller", http.StatusForbidden)
		case errors.Is(err, repo.ErrNotActive):
			http.Error(w, "listing not active", http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	s.invalidateActive(r.Context())
	writeJSON(w, dto.ListingOf(l))
}

// suggestPrice sugere um preco de listagem a partir das vendas recentes,
// opcionalmente restritas a uma mint
func (s *Server) suggestPrice(w http.ResponseWriter, r *http.Request) {
	mint := r.URL.Query().Get("mint")
	limit, _ := strconv.Atoi(r.URL.Query().Get("samples"))
	prices, err := s.repo.RecentSalePrices(r.Context(), mint, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, pricing.Suggest(prices))
}

func (s *Server) invalidateActive(ctx context.Context) {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("listings cache invalidate", zap.Error(err))
	}
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

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tbessa/game-wager-platform-poc/internal/pool-service/cache"
	"github.com/tbessa/game-wager-platform-poc/internal/pool-service/dto"
	"github.com/tbessa/game-wager-platform-poc/internal/pool-service/engine"
	"github.com/tbessa/game-wager-platform-poc/internal/pool-service/repo"
	"github.com/tbessa/game-wager-platform-poc/internal/pool-service/wallet"
	"github.com/tbessa/game-wager-platform-poc/pkg/contracts/events"
)

const sol = int64(1_000_000_000)

// fakeBetStore registra a ordem das chamadas pra validar o fluxo de criação
type fakeBetStore struct {
	ops       []string
	created   []repo.BetRow
	deleted   []string
	createErr error
}

func (f *fakeBetStore) EnsurePool(_ context.Context, _ string, _ int64) error {
	f.ops = append(f.ops, "ensure_pool")
	return nil
}

func (f *fakeBetStore) CreateBet(_ context.Context, b *repo.BetRow) (string, error) {
	f.ops = append(f.ops, "create_bet")
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, *b)
	return b.ID, nil
}

func (f *fakeBetStore) DeleteBet(_ context.Context, betID string) error {
	f.ops = append(f.ops, "delete_bet")
	f.deleted = append(f.deleted, betID)
	return nil
}

func (f *fakeBetStore) GetBet(_ context.Context, _ string) (repo.BetRow, error) {
	return repo.BetRow{}, repo.ErrNotFound
}

type fakeWallet struct {
	ops        []string
	reserveErr error
	reserved   []string // external_refs reservados
	refunded   []string
}

func (f *fakeWallet) Reserve(_ context.Context, _ string, _ int64, ref string) (string, error) {
	f.ops = append(f.ops, "reserve")
	if f.reserveErr != nil {
		return "", f.reserveErr
	}
	f.reserved = append(f.reserved, ref)
	return "res-" + ref, nil
}

func (f *fakeWallet) Refund(_ context.Context, _ string, ref string) error {
	f.ops = append(f.ops, "refund")
	f.refunded = append(f.refunded, ref)
	return nil
}

type fakePublisher struct{ placed []events.BetPlaced }

func (f *fakePublisher) PublishBetPlaced(_ context.Context, e events.BetPlaced) error {
	f.placed = append(f.placed, e)
	return nil
}

type fakeBroadcaster struct{ sent []events.PoolOddsUpdate }

func (f *fakeBroadcaster) PublishOdds(_ context.Context, e events.PoolOddsUpdate) error {
	f.sent = append(f.sent, e)
	return nil
}

type fakeCache struct{}

func (fakeCache) GetOdds(_ context.Context, _ string, _ any) (bool, error) { return false, nil }
func (fakeCache) SetOdds(_ context.Context, _ string, _ any, _ time.Duration) error {
	return nil
}

type serverFixture struct {
	srv      *Server
	store    *fakeBetStore
	wcli     *fakeWallet
	publ     *fakePublisher
	registry *engine.Registry
}

func newFixture() *serverFixture {
	store := &fakeBetStore{}
	wcli := &fakeWallet{}
	publ := &fakePublisher{}
	registry := engine.NewRegistry(250)
	srv := NewServer(zap.NewNop(), store, registry, fakeCache{}, wcli, publ, &fakeBroadcaster{}, 250)
	return &serverFixture{srv: srv, store: store, wcli: wcli, publ: publ, registry: registry}
}

func placeBetReq(t *testing.T, fx *serverFixture, matchID string, body dto.PlaceBetRequest) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/pools/"+matchID+"/bets", bytes.NewReader(b))
	rec := httptest.NewRecorder()
	fx.srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestPlaceBet_ReservesBeforePersisting(t *testing.T) {
	fx := newFixture()

	rec := placeBetReq(t, fx, "MATCH_1", dto.PlaceBetRequest{
		UserID: "alice", Outcome: "player1", StakeLamports: sol, OddsValue: 2.0,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// a reserva vem antes de qualquer escrita no banco
	require.GreaterOrEqual(t, len(fx.wcli.ops), 1)
	assert.Equal(t, "reserve", fx.wcli.ops[0])
	assert.Equal(t, []string{"ensure_pool", "create_bet"}, fx.store.ops)

	// reserva e aposta compartilham a mesma referência
	var res dto.PlaceBetResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, fx.store.created, 1)
	assert.Equal(t, res.BetID, fx.store.created[0].ID)
	assert.Equal(t, []string{res.BetID}, fx.wcli.reserved)
}

func TestPlaceBet_ReserveFailureLeavesNoBet(t *testing.T) {
	fx := newFixture()
	fx.wcli.reserveErr = errors.New("insufficient funds")

	rec := placeBetReq(t, fx, "MATCH_1", dto.PlaceBetRequest{
		UserID: "alice", Outcome: "player1", StakeLamports: sol, OddsValue: 2.0,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// sem reserva não pode sobrar aposta PENDING: o worker liquidaria (e
	// pagaria) uma aposta que nunca teve saldo bloqueado
	assert.Empty(t, fx.store.ops)
	assert.Empty(t, fx.store.created)
	assert.Empty(t, fx.publ.placed)

	// o pool em memória também não pode ter contado o stake
	snap, ok := fx.registry.Snapshot("MATCH_1")
	if ok {
		assert.Zero(t, snap.TotalLamports)
	}
}

func TestPlaceBet_PoolClosedRollsBackReserveAndBet(t *testing.T) {
	fx := newFixture()
	// fecha o pool antes da aposta: Place vai recusar
	fx.registry.Restore("MATCH_1", false, nil)

	rec := placeBetReq(t, fx, "MATCH_1", dto.PlaceBetRequest{
		UserID: "alice", Outcome: "player1", StakeLamports: sol, OddsValue: 2.0,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// reserva devolvida e linha removida
	require.Len(t, fx.wcli.refunded, 1)
	require.Len(t, fx.store.deleted, 1)
	assert.Equal(t, fx.wcli.refunded[0], fx.store.deleted[0])
	assert.Empty(t, fx.publ.placed)
}

func TestPlaceBet_PersistFailureReleasesReserve(t *testing.T) {
	fx := newFixture()
	fx.store.createErr = errors.New("pg down")

	rec := placeBetReq(t, fx, "MATCH_1", dto.PlaceBetRequest{
		UserID: "alice", Outcome: "player1", StakeLamports: sol, OddsValue: 2.0,
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Len(t, fx.wcli.refunded, 1)
}

func TestPlaceBet_OddsDriftRejected(t *testing.T) {
	fx := newFixture()

	rec := placeBetReq(t, fx, "MATCH_1", dto.PlaceBetRequest{
		UserID: "alice", Outcome: "player1", StakeLamports: sol, OddsValue: 3.5,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, fx.wcli.ops)
	assert.Empty(t, fx.store.ops)
}

// os tipos concretos de produção satisfazem os recortes usados pelo Server
var (
	_ BetStore     = (*repo.Postgres)(nil)
	_ WalletClient = (*wallet.Client)(nil)
	_ OddsCache    = (*cache.Cache)(nil)
)

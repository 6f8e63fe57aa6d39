package settlement

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tbessa/game-wager-platform-poc/internal/pool-service/engine"
	"github.com/tbessa/game-wager-platform-poc/internal/pool-service/repo"
	"github.com/tbessa/game-wager-platform-poc/pkg/contracts/events"
)

const sol = int64(1_000_000_000)

type fakeStore struct {
	pool    repo.PoolRow
	poolErr error
	bets    []repo.BetRow
	applied []engine.Settlement
}

func (f *fakeStore) GetPool(_ context.Context, _ string) (repo.PoolRow, error) {
	return f.pool, f.poolErr
}

func (f *fakeStore) ListMatchBets(_ context.Context, _ string) ([]repo.BetRow, error) {
	return f.bets, nil
}

func (f *fakeStore) ApplySettlement(_ context.Context, s engine.Settlement) error {
	f.applied = append(f.applied, s)
	return nil
}

type walletCall struct {
	op     string
	userID string
	amount int64
	ref    string
}

type fakeWallet struct {
	calls     []walletCall
	commitErr error
	refundErr error
	creditErr error
}

func (f *fakeWallet) Commit(_ context.Context, userID, ref string) error {
	f.calls = append(f.calls, walletCall{op: "commit", userID: userID, ref: ref})
	return f.commitErr
}

func (f *fakeWallet) Refund(_ context.Context, userID, ref string) error {
	f.calls = append(f.calls, walletCall{op: "refund", userID: userID, ref: ref})
	return f.refundErr
}

func (f *fakeWallet) Credit(_ context.Context, userID string, amount int64, ref string) error {
	f.calls = append(f.calls, walletCall{op: "credit", userID: userID, amount: amount, ref: ref})
	return f.creditErr
}

func (f *fakeWallet) ops() []string {
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, c.op)
	}
	return out
}

type fakePublisher struct{ published []events.PoolSettled }

func (f *fakePublisher) PublishPoolSettled(_ context.Context, e events.PoolSettled) error {
	f.published = append(f.published, e)
	return nil
}

func newTestWorker(store *fakeStore, wallet *fakeWallet, publ *fakePublisher) *Worker {
	return &Worker{Log: zap.NewNop(), Store: store, Wallet: wallet, Publ: publ}
}

func activePool(feeBps int64) repo.PoolRow {
	return repo.PoolRow{MatchID: "MATCH_1", FeeBps: feeBps, Active: true}
}

func TestProcessResult_SettlesAndPaysWinners(t *testing.T) {
	store := &fakeStore{
		pool: activePool(250),
		bets: []repo.BetRow{
			{ID: "b1", UserID: "u1", MatchID: "MATCH_1", Outcome: "player1", StakeLamports: sol, Status: "PENDING"},
			{ID: "b2", UserID: "u2", MatchID: "MATCH_1", Outcome: "player2", StakeLamports: 3 * sol, Status: "PENDING"},
		},
	}
	wallet := &fakeWallet{}
	publ := &fakePublisher{}
	w := newTestWorker(store, wallet, publ)

	err := w.ProcessResult(context.Background(), events.MatchResult{MatchID: "MATCH_1", WinningOutcome: "player1"})
	require.NoError(t, err)

	require.Len(t, store.applied, 1)
	s := store.applied[0]
	assert.Equal(t, "player1", s.WinningOutcome)
	assert.Equal(t, 1, s.Winners)
	assert.Equal(t, 1, s.Losers)

	// u1 venceu: commit da reserva + crédito do payout; u2 perdeu: só commit
	ops := map[string][]string{}
	var credited int64
	for _, c := range wallet.calls {
		ops[c.userID] = append(ops[c.userID], c.op)
		if c.op == "credit" {
			credited = c.amount
		}
	}
	assert.Equal(t, []string{"commit", "credit"}, ops["u1"])
	assert.Equal(t, []string{"commit"}, ops["u2"])

	// payout = stake + (3 SOL - taxa de 2.5%)
	expected := sol + 3*sol - (3 * sol * 250 / 10000)
	assert.Equal(t, expected, credited)

	require.Len(t, publ.published, 1)
	assert.Equal(t, s.FeeLamports, publ.published[0].FeeLamports)
}

func TestProcessResult_NoWinnersRefundsReservations(t *testing.T) {
	store := &fakeStore{
		pool: activePool(250),
		bets: []repo.BetRow{
			{ID: "b1", UserID: "u1", MatchID: "MATCH_1", Outcome: "player1", StakeLamports: sol, Status: "PENDING"},
			{ID: "b2", UserID: "u2", MatchID: "MATCH_1", Outcome: "player2", StakeLamports: sol, Status: "PENDING"},
		},
	}
	wallet := &fakeWallet{}
	publ := &fakePublisher{}
	w := newTestWorker(store, wallet, publ)

	err := w.ProcessResult(context.Background(), events.MatchResult{MatchID: "MATCH_1", WinningOutcome: "draw"})
	require.NoError(t, err)

	for _, c := range wallet.calls {
		assert.Equal(t, "refund", c.op)
	}
	assert.Len(t, wallet.calls, 2)
}

func TestProcessResult_WalletFailureSurfaces(t *testing.T) {
	store := &fakeStore{
		pool: activePool(250),
		bets: []repo.BetRow{
			{ID: "b1", UserID: "u1", MatchID: "MATCH_1", Outcome: "player1", StakeLamports: sol, Status: "PENDING"},
			{ID: "b2", UserID: "u2", MatchID: "MATCH_1", Outcome: "player2", StakeLamports: 3 * sol, Status: "PENDING"},
		},
	}
	wallet := &fakeWallet{commitErr: errors.New("wallet 502")}
	publ := &fakePublisher{}
	w := newTestWorker(store, wallet, publ)

	err := w.ProcessResult(context.Background(), events.MatchResult{MatchID: "MATCH_1", WinningOutcome: "player1"})
	require.Error(t, err)

	// commit recusado (ex: reserva inexistente) não pode virar prêmio:
	// nenhum crédito acontece e o erro sobe pro retry/DLQ em vez de sumir
	assert.NotContains(t, wallet.ops(), "credit")
	assert.Empty(t, publ.published)
}

func TestProcessResult_RedeliveryRepeatsWalletPass(t *testing.T) {
	store := &fakeStore{
		pool: repo.PoolRow{
			MatchID:        "MATCH_1",
			FeeBps:         250,
			Active:         false,
			WinningOutcome: sql.NullString{String: "player1", Valid: true},
		},
		bets: []repo.BetRow{
			{ID: "b1", UserID: "u1", MatchID: "MATCH_1", Outcome: "player1", StakeLamports: sol, Status: "WON"},
			{ID: "b2", UserID: "u2", MatchID: "MATCH_1", Outcome: "player2", StakeLamports: 3 * sol, Status: "LOST"},
		},
	}
	wallet := &fakeWallet{}
	publ := &fakePublisher{}
	w := newTestWorker(store, wallet, publ)

	err := w.ProcessResult(context.Background(), events.MatchResult{MatchID: "MATCH_1", WinningOutcome: "player1"})
	require.NoError(t, err)

	// o pool não é liquidado de novo nem o evento republicado, mas o
	// acerto de carteira (idempotente) roda inteiro: é ele que recupera
	// payouts perdidos quando a carteira caiu na primeira passada
	assert.Empty(t, store.applied)
	assert.Empty(t, publ.published)

	ops := map[string][]string{}
	for _, c := range wallet.calls {
		ops[c.userID] = append(ops[c.userID], c.op)
	}
	assert.Equal(t, []string{"commit", "credit"}, ops["u1"])
	assert.Equal(t, []string{"commit"}, ops["u2"])
}

func TestProcessResult_SettledPoolWithoutOutcomeIsNoop(t *testing.T) {
	store := &fakeStore{pool: repo.PoolRow{MatchID: "MATCH_1", FeeBps: 250, Active: false}}
	wallet := &fakeWallet{}
	publ := &fakePublisher{}
	w := newTestWorker(store, wallet, publ)

	err := w.ProcessResult(context.Background(), events.MatchResult{MatchID: "MATCH_1", WinningOutcome: "player1"})
	require.NoError(t, err)

	assert.Empty(t, store.applied)
	assert.Empty(t, wallet.calls)
	assert.Empty(t, publ.published)
}

func TestProcessResult_NoPoolIsNoop(t *testing.T) {
	store := &fakeStore{poolErr: repo.ErrNotFound}
	w := newTestWorker(store, &fakeWallet{}, &fakePublisher{})

	err := w.ProcessResult(context.Background(), events.MatchResult{MatchID: "MATCH_X", WinningOutcome: "player1"})
	assert.NoError(t, err)
	assert.Empty(t, store.applied)
}

func TestProcessResult_IgnoresNonPendingBets(t *testing.T) {
	store := &fakeStore{
		pool: activePool(250),
		bets: []repo.BetRow{
			{ID: "b1", UserID: "u1", MatchID: "MATCH_1", Outcome: "player1", StakeLamports: sol, Status: "PENDING"},
			{ID: "b2", UserID: "u2", MatchID: "MATCH_1", Outcome: "player1", StakeLamports: sol, Status: "WON"},
		},
	}
	wallet := &fakeWallet{}
	w := newTestWorker(store, wallet, &fakePublisher{})

	err := w.ProcessResult(context.Background(), events.MatchResult{MatchID: "MATCH_1", WinningOutcome: "player1"})
	require.NoError(t, err)

	require.Len(t, store.applied, 1)
	assert.Len(t, store.applied[0].Payouts, 1) // só a PENDING entra na liquidação
}

// garante que o tipo concreto do repo satisfaz o recorte usado pelo worker
var _ BetStore = (*repo.Postgres)(nil)

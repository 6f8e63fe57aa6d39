package engine

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sol = int64(1_000_000_000) // 1 SOL em lamports

func TestOdds_DefaultWhenNoStake(t *testing.T) {
	assert.Equal(t, 2.0, Odds(0, 0))
	assert.Equal(t, 2.0, Odds(5*sol, 0))

	p := Pool{Outcomes: map[string]int64{"player1": 3 * sol}, TotalLamports: 3 * sol}
	assert.Equal(t, 2.0, p.Odds("player2"))
}

func TestOdds_AlwaysWithinBounds(t *testing.T) {
	// distribuições variadas: a odd nunca sai de [1.1, 10.0]
	totals := []int64{1, sol, 7 * sol, 500 * sol, 100_000 * sol}
	stakes := []int64{1, sol / 100, sol, 3 * sol, 99_999 * sol}
	for _, total := range totals {
		for _, stake := range stakes {
			if stake > total {
				continue
			}
			odd := Odds(total, stake)
			assert.GreaterOrEqual(t, odd, OddsFloor, "total=%d stake=%d", total, stake)
			assert.LessOrEqual(t, odd, OddsCeil, "total=%d stake=%d", total, stake)
		}
	}
}

func TestOdds_BalancedPoolExample(t *testing.T) {
	// 1 SOL em A e 1 SOL em B => ambas ~2.0
	p := Pool{
		Outcomes:      map[string]int64{"player1": sol, "player2": sol},
		TotalLamports: 2 * sol,
	}
	assert.InDelta(t, 2.0, p.Odds("player1"), 1e-9)
	assert.InDelta(t, 2.0, p.Odds("player2"), 1e-9)

	// +10 SOL em A => A bate no piso, B no teto
	p.Outcomes["player1"] += 10 * sol
	p.TotalLamports += 10 * sol
	assert.Equal(t, OddsFloor, p.Odds("player1")) // 12/11 < 1.1
	assert.Equal(t, OddsCeil, p.Odds("player2"))  // 12/1 > 10
}

func TestRegistry_PlaceIncrementsTotals(t *testing.T) {
	r := NewRegistry(250)

	_, err := r.Place("MATCH_001", "player1", 3*sol)
	require.NoError(t, err)
	_, err = r.Place("MATCH_001", "player2", sol)
	require.NoError(t, err)

	p, ok := r.Snapshot("MATCH_001")
	require.True(t, ok)
	assert.Equal(t, 4*sol, p.TotalLamports)
	assert.Equal(t, 2, p.BetsCount)
	assert.Equal(t, 3*sol, p.Outcomes["player1"])
	assert.True(t, p.Active)
}

func TestRegistry_QuotedOddIsPreStake(t *testing.T) {
	r := NewRegistry(250)

	// pool vazio: primeira cotação é a odd default
	odd, err := r.Place("MATCH_002", "player1", sol)
	require.NoError(t, err)
	assert.Equal(t, DefaultOdds, odd)

	// segunda aposta no mesmo lado vê a odd vigente antes do próprio stake
	odd, err = r.Place("MATCH_002", "player1", sol)
	require.NoError(t, err)
	assert.Equal(t, OddsFloor, odd) // 1/1 clampado pra 1.1
}

func TestRegistry_InvalidPlacements(t *testing.T) {
	r := NewRegistry(250)

	_, err := r.Place("M", "player1", 0)
	assert.ErrorIs(t, err, ErrInvalidStake)
	_, err = r.Place("M", "player1", -sol)
	assert.ErrorIs(t, err, ErrInvalidStake)
	_, err = r.Place("M", "", sol)
	assert.ErrorIs(t, err, ErrInvalidOutcome)

	_, err = r.Place("M", "player1", sol)
	require.NoError(t, err)
	r.Deactivate("M")
	_, err = r.Place("M", "player1", sol)
	assert.ErrorIs(t, err, ErrPoolClosed)

	p, _ := r.Snapshot("M")
	assert.False(t, p.Active)
}

func TestRegistry_ConcurrentPlace(t *testing.T) {
	r := NewRegistry(250)

	const workers = 16
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			outcome := "player1"
			if n%2 == 1 {
				outcome = "player2"
			}
			for i := 0; i < perWorker; i++ {
				_, err := r.Place("MATCH_CC", outcome, sol)
				assert.NoError(t, err)
			}
		}(w)
	}
	wg.Wait()

	p, ok := r.Snapshot("MATCH_CC")
	require.True(t, ok)
	assert.Equal(t, int64(workers*perWorker)*sol, p.TotalLamports)
	assert.Equal(t, workers*perWorker, p.BetsCount)
}

func TestSettle_ProportionalSplit(t *testing.T) {
	bets := []Bet{
		{ID: "b1", UserID: "u1", Outcome: "player1", StakeLamports: sol},
		{ID: "b2", UserID: "u2", Outcome: "player1", StakeLamports: 3 * sol},
		{ID: "b3", UserID: "u3", Outcome: "player2", StakeLamports: 4 * sol},
	}

	s := Settle("M", bets, "player1", 250) // taxa 2.5%

	// pool perdedor = 4 SOL, taxa = 0.1 SOL, distribuível = 3.9 SOL
	assert.Equal(t, int64(0.025*float64(4*sol)), s.FeeLamports)
	assert.Equal(t, 2, s.Winners)
	assert.Equal(t, 1, s.Losers)

	byBet := map[string]Payout{}
	for _, p := range s.Payouts {
		byBet[p.BetID] = p
	}

	// u1 tem 1/4 do lado vencedor, u2 tem 3/4
	assert.InDelta(t, 0.975*float64(sol), float64(byBet["b1"].PrizeLamports), 1.0)
	assert.InDelta(t, 2.925*float64(sol), float64(byBet["b2"].PrizeLamports), 1.0)
	assert.Equal(t, sol+byBet["b1"].PrizeLamports, byBet["b1"].PayoutLamports)
	assert.Equal(t, int64(0), byBet["b3"].PayoutLamports)
}

func TestSettle_PayoutConservation(t *testing.T) {
	// soma dos payouts == stakes vencedores + (pool perdedor - taxa), com tolerância de arredondamento
	bets := []Bet{
		{ID: "b1", Outcome: "player1", StakeLamports: 7 * sol / 10},
		{ID: "b2", Outcome: "player1", StakeLamports: 13 * sol / 7},
		{ID: "b3", Outcome: "player2", StakeLamports: 5 * sol / 3},
		{ID: "b4", Outcome: "draw", StakeLamports: 2 * sol},
		{ID: "b5", Outcome: "player1", StakeLamports: sol / 97},
	}

	s := Settle("M", bets, "player1", 300)

	var winStakes, loseStakes int64
	for _, b := range bets {
		if b.Outcome == "player1" {
			winStakes += b.StakeLamports
		} else {
			loseStakes += b.StakeLamports
		}
	}

	var paid int64
	for _, p := range s.Payouts {
		paid += p.PayoutLamports
	}
	expected := winStakes + loseStakes - s.FeeLamports

	// cada vencedor arredonda pra baixo, então a sobra fica abaixo de 1 lamport por vencedor
	assert.InDelta(t, float64(expected), float64(paid), float64(s.Winners))
	assert.Equal(t, paid, s.PaidOutLamports)
}

func TestSettle_EveryBetTerminal(t *testing.T) {
	bets := make([]Bet, 0, 30)
	for i := 0; i < 30; i++ {
		bets = append(bets, Bet{
			ID:            fmt.Sprintf("b%d", i),
			Outcome:       DefaultOutcomes[i%3],
			StakeLamports: int64(i+1) * sol / 10,
		})
	}

	s := Settle("M", bets, "draw", 250)

	require.Len(t, s.Payouts, len(bets))
	for _, p := range s.Payouts {
		assert.Contains(t, []string{StatusWon, StatusLost}, p.Status)
	}
	assert.Equal(t, len(bets), s.Winners+s.Losers)
}

func TestSettle_NoWinnersRefundsEveryone(t *testing.T) {
	bets := []Bet{
		{ID: "b1", Outcome: "player1", StakeLamports: 2 * sol},
		{ID: "b2", Outcome: "player2", StakeLamports: 3 * sol},
	}

	s := Settle("M", bets, "draw", 250)

	assert.Equal(t, int64(0), s.FeeLamports)
	assert.Equal(t, 5*sol, s.PaidOutLamports)
	for _, p := range s.Payouts {
		assert.Equal(t, StatusRefunded, p.Status)
		assert.Equal(t, p.StakeLamports, p.PayoutLamports)
	}
}

func TestRegistry_RestoreRebuildsPool(t *testing.T) {
	r := NewRegistry(250)
	r.Restore("MATCH_R", true, []Bet{
		{Outcome: "player1", StakeLamports: 2 * sol},
		{Outcome: "player2", StakeLamports: sol},
		{Outcome: "player1", StakeLamports: sol},
	})

	p, ok := r.Snapshot("MATCH_R")
	require.True(t, ok)
	assert.Equal(t, 4*sol, p.TotalLamports)
	assert.Equal(t, 3, p.BetsCount)
	assert.Equal(t, 3*sol, p.Outcomes["player1"])

	odds := r.CurrentOdds("MATCH_R")
	assert.InDelta(t, 4.0/3.0, odds["player1"], 1e-9)
	assert.InDelta(t, 4.0, odds["player2"], 1e-9)
	assert.Equal(t, DefaultOdds, odds["draw"])
}

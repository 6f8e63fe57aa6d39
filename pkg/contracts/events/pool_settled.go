package events

import "time"

// Evento emitido pelo settlement-worker após liquidar o pool de uma partida.
type PoolSettled struct {
	MatchID         string    `json:"match_id"`
	WinningOutcome  string    `json:"winning_outcome"`
	PaidOutLamports int64     `json:"paid_out_lamports"`
	FeeLamports     int64     `json:"fee_lamports"`
	Winners         int       `json:"winners"`
	Losers          int       `json:"losers"`
	Ts              time.Time `json:"ts"`
}

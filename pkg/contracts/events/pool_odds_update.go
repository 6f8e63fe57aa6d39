package events

import "time"

// Snapshot de odds de um pool, publicado no canal Redis Pub/Sub
// e repassado aos clientes WebSocket do pool-service.
type PoolOddsUpdate struct {
	MatchID       string             `json:"match_id"`
	Odds          map[string]float64 `json:"odds"` // outcome -> odd
	TotalLamports int64              `json:"total_lamports"`
	BetsCount     int                `json:"bets_count"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

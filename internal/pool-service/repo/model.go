package repo

import (
	"database/sql"
	"time"
)

// BetRow é a aposta persistida no Postgres.
type BetRow struct {
	ID            string
	UserID        string
	MatchID       string
	Outcome       string
	StakeLamports int64
	OddsValue     float64
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PoolRow é o registro do pool de uma partida.
type PoolRow struct {
	MatchID        string
	FeeBps         int64
	Active         bool
	WinningOutcome sql.NullString
	SettledAt      sql.NullTime
}

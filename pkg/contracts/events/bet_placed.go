package events

type BetPlaced struct {
	BetID         string  `json:"bet_id"`
	UserID        string  `json:"user_id"`
	MatchID       string  `json:"match_id"`
	Outcome       string  `json:"outcome"` // "player1" | "player2" | "draw"
	StakeLamports int64   `json:"stake_lamports"`
	OddsValue     float64 `json:"odds_value"`
	ReservedRef   string  `json:"reserved_ref"` // external_ref usado na reserva da carteira (betID)
	TsUnixMs      int64   `json:"ts_unix_ms"`
}

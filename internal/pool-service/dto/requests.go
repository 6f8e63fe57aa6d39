package dto

type PlaceBetRequest struct {
	UserID        string  `json:"userId"`
	Outcome       string  `json:"outcome"` // "player1" | "player2" | "draw"
	StakeLamports int64   `json:"stake_lamports"`
	OddsValue     float64 `json:"odds_value"` // odd que o cliente viu
}

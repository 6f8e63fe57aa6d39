package dto

type PlaceBetResponse struct {
	BetID     string  `json:"betId"`
	Status    string  `json:"status"` // PENDING
	OddsValue float64 `json:"odds_value"`
	Message   string  `json:"message,omitempty"`
}

type BetStatusResponse struct {
	BetID         string  `json:"betId"`
	MatchID       string  `json:"matchId"`
	Outcome       string  `json:"outcome"`
	StakeLamports int64   `json:"stake_lamports"`
	OddsValue     float64 `json:"odds_value"`
	Status        string  `json:"status"`
}

type PoolResponse struct {
	MatchID       string             `json:"matchId"`
	TotalLamports int64              `json:"total_lamports"`
	BetsCount     int                `json:"bets_count"`
	Outcomes      map[string]int64   `json:"outcomes"`
	Odds          map[string]float64 `json:"odds"`
	Active        bool               `json:"active"`
}

type OddsResponse struct {
	MatchID   string             `json:"matchId"`
	Odds      map[string]float64 `json:"odds"`
	UpdatedAt string             `json:"updatedAt"`
}

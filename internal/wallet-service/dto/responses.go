package dto

type WalletResponse struct {
	UserID          string `json:"userId"`
	WalletID        string `json:"walletId"`
	BalanceLamports int64  `json:"balance_lamports"`
}

type ReservationResponse struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
}

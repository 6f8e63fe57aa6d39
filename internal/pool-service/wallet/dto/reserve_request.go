package dto

// ReserveRequest representa o payload para reservar saldo no wallet-service.
type ReserveRequest struct {
	UserID         string `json:"userId"`
	AmountLamports int64  `json:"amount_lamports"`
	ExternalRef    string `json:"external_ref"`
}

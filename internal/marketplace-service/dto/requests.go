package dto

type CreateListingRequest struct {
	SellerID      string `json:"sellerId"`
	MintAddress   string `json:"mint_address"`
	PriceLamports int64  `json:"price_lamports"`
}

type BuyListingRequest struct {
	BuyerID string `json:"buyerId"`
}

type CancelListingRequest struct {
	SellerID string `json:"sellerId"`
}

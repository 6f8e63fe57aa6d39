package dto

import (
	"time"

	"github.com/tbessa/game-wager-platform-poc/internal/marketplace-service/repo"
)

type ListingResponse struct {
	ID            string     `json:"id"`
	SellerID      string     `json:"sellerId"`
	MintAddress   string     `json:"mint_address"`
	PriceLamports int64      `json:"price_lamports"`
	Status        string     `json:"status"`
	BuyerID       string     `json:"buyerId,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	SoldAt        *time.Time `json:"sold_at,omitempty"`
}

func ListingOf(l *repo.ListingRow) ListingResponse {
	resp := ListingResponse{
		ID:            l.ID,
		SellerID:      l.SellerID,
		MintAddress:   l.MintAddress,
		PriceLamports: l.PriceLamports,
		Status:        l.Status,
		CreatedAt:     l.CreatedAt,
	}
	if l.BuyerID.Valid {
		resp.BuyerID = l.BuyerID.String
	}
	if l.SoldAt.Valid {
		t := l.SoldAt.Time
		resp.SoldAt = &t
	}
	return resp
}

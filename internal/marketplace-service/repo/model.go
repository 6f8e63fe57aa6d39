package repo

import (
	"database/sql"
	"time"
)

const (
	StatusActive    = "ACTIVE"
	StatusSold      = "SOLD"
	StatusCancelled = "CANCELLED"
)

type ListingRow struct {
	ID            string
	SellerID      string
	MintAddress   string
	PriceLamports int64
	Status        string
	BuyerID       sql.NullString
	CreatedAt     time.Time
	SoldAt        sql.NullTime
}

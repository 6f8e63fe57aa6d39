package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrNotFound   = errors.New("listing nao encontrada")
	ErrNotActive  = errors.New("listing nao esta ativa")
	ErrNotSeller  = errors.New("usuario nao e o vendedor da listing")
	ErrOwnListing = errors.New("vendedor nao pode comprar a propria listing")
	ErrMintListed = errors.New("mint ja possui listing ativa")
)

type Postgres struct {
	DB *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{DB: db}
}

func (p *Postgres) CreateListing(ctx context.Context, sellerID, mintAddress string, priceLamports int64) (*ListingRow, error) {
	// Uma mint so pode ter uma listing ativa por vez.
	var existing int
	err := p.DB.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM listings WHERE mint_address=$1 AND status=$2`,
		mintAddress, StatusActive).Scan(&existing)
	if err != nil {
		return nil, fmt.Errorf("verificando listing ativa: %w", err)
	}
	if existing > 0 {
		return nil, ErrMintListed
	}

	id := uuid.NewString()
	row := p.DB.QueryRowContext(ctx, `
		INSERT INTO listings (id, seller_id, mint_address, price_lamports, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, seller_id, mint_address, price_lamports, status, buyer_id, created_at, sold_at
	`, id, sellerID, mintAddress, priceLamports, StatusActive)

	return scanListing(row)
}

func (p *Postgres) GetListing(ctx context.Context, id string) (*ListingRow, error) {
	row := p.DB.QueryRowContext(ctx, `
		SELECT id, seller_id, mint_address, price_lamports, status, buyer_id, created_at, sold_at
		FROM listings WHERE id=$1
	`, id)

	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return l, err
}

func (p *Postgres) ListActive(ctx context.Context, limit int) ([]ListingRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := p.DB.QueryContext(ctx, `
		SELECT id, seller_id, mint_address, price_lamports, status, buyer_id, created_at, sold_at
		FROM listings WHERE status=$1
		ORDER BY created_at DESC
		LIMIT $2
	`, StatusActive, limit)
	if err != nil {
		return nil, fmt.Errorf("listando listings ativas: %w", err)
	}
	defer rows.Close()

	var out []ListingRow
	for rows.Next() {
		var l ListingRow
		if err := rows.Scan(&l.ID, &l.SellerID, &l.MintAddress, &l.PriceLamports,
			&l.Status, &l.BuyerID, &l.CreatedAt, &l.SoldAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Buy marca a listing como vendida. O UPDATE condicional no status garante
// que duas compras concorrentes nao vendam a mesma listing duas vezes.
func (p *Postgres) Buy(ctx context.Context, id, buyerID string) (*ListingRow, error) {
	l, err := p.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.SellerID == buyerID {
		return nil, ErrOwnListing
	}

	res, err := p.DB.ExecContext(ctx, `
		UPDATE listings SET status=$1, buyer_id=$2, sold_at=NOW()
		WHERE id=$3 AND status=$4
	`, StatusSold, buyerID, id, StatusActive)
	if err != nil {
		return nil, fmt.Errorf("comprando listing: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotActive
	}

	return p.GetListing(ctx, id)
}

func (p *Postgres) Cancel(ctx context.Context, id, sellerID string) (*ListingRow, error) {
	l, err := p.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.SellerID != sellerID {
		return nil, ErrNotSeller
	}

	res, err := p.DB.ExecContext(ctx, `
		UPDATE listings SET status=$1 WHERE id=$2 AND status=$3
	`, StatusCancelled, id, StatusActive)
	if err != nil {
		return nil, fmt.Errorf("cancelando listing: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotActive
	}

	return p.GetListing(ctx, id)
}

// RecentSalePrices retorna os precos das ultimas vendas, mais recentes
// primeiro. mint vazio considera vendas de qualquer mint.
func (p *Postgres) RecentSalePrices(ctx context.Context, mint string, limit int) ([]int64, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := p.DB.QueryContext(ctx, `
		SELECT price_lamports FROM listings
		WHERE status=$1 AND ($2='' OR mint_address=$2)
		ORDER BY sold_at DESC
		LIMIT $3
	`, StatusSold, mint, limit)
	if err != nil {
		return nil, fmt.Errorf("buscando vendas recentes: %w", err)
	}
	defer rows.Close()

	var prices []int64
	for rows.Next() {
		var price int64
		if err := rows.Scan(&price); err != nil {
			return nil, err
		}
		prices = append(prices, price)
	}
	return prices, rows.Err()
}

func scanListing(row *sql.Row) (*ListingRow, error) {
	var l ListingRow
	err := row.Scan(&l.ID, &l.SellerID, &l.MintAddress, &l.PriceLamports,
		&l.Status, &l.BuyerID, &l.CreatedAt, &l.SoldAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

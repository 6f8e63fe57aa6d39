package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/tbessa/game-wager-platform-poc/internal/pool-service/engine"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadySettled = errors.New("pool already settled")
)

// Postgres implementa a persistência de pools e apostas
type Postgres struct{ db *sql.DB }

// NewPostgres retorna uma instância do repositório de pools
func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db} }

// EnsurePool garante a existência do registro do pool da partida
func (p *Postgres) EnsurePool(ctx context.Context, matchID string, feeBps int64) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO pools (match_id, fee_bps, active)
		VALUES ($1, $2, true)
		ON CONFLICT (match_id) DO NOTHING`,
		matchID, feeBps,
	)
	return err
}

// CreateBet insere uma nova aposta com status PENDING. O chamador pode
// fixar o id (a reserva de carteira usa o id da aposta como external_ref
// e precisa dele antes da inserção); vazio gera um novo.
func (p *Postgres) CreateBet(ctx context.Context, b *BetRow) (string, error) {
	id := b.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO bets (id,user_id,match_id,outcome,stake_lamports,odds_value,status)
		VALUES ($1,$2,$3,$4,$5,$6,'PENDING')`,
		id, b.UserID, b.MatchID, b.Outcome, b.StakeLamports, b.OddsValue,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// DeleteBet remove uma aposta que não chegou a entrar no pool (rollback
// de criação). Só remove PENDING: status terminal nunca é apagado.
func (p *Postgres) DeleteBet(ctx context.Context, betID string) error {
	_, err := p.db.ExecContext(ctx, `DELETE FROM bets WHERE id=$1 AND status='PENDING'`, betID)
	return err
}

// GetBet retorna uma aposta pelo id
func (p *Postgres) GetBet(ctx context.Context, betID string) (BetRow, error) {
	var b BetRow
	err := p.db.QueryRowContext(ctx, `
		SELECT id,user_id,match_id,outcome,stake_lamports,odds_value,status,created_at,updated_at
		FROM bets WHERE id=$1`, betID).
		Scan(&b.ID, &b.UserID, &b.MatchID, &b.Outcome, &b.StakeLamports, &b.OddsValue, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return BetRow{}, ErrNotFound
	}
	return b, err
}

// ListMatchBets retorna todas as apostas de uma partida
func (p *Postgres) ListMatchBets(ctx context.Context, matchID string) ([]BetRow, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id,user_id,match_id,outcome,stake_lamports,odds_value,status,created_at,updated_at
		FROM bets WHERE match_id=$1 ORDER BY created_at`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BetRow
	for rows.Next() {
		var b BetRow
		if err := rows.Scan(&b.ID, &b.UserID, &b.MatchID, &b.Outcome, &b.StakeLamports, &b.OddsValue, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetPool retorna o registro do pool da partida
func (p *Postgres) GetPool(ctx context.Context, matchID string) (PoolRow, error) {
	var pr PoolRow
	err := p.db.QueryRowContext(ctx, `
		SELECT match_id, fee_bps, active, winning_outcome, settled_at
		FROM pools WHERE match_id=$1`, matchID).
		Scan(&pr.MatchID, &pr.FeeBps, &pr.Active, &pr.WinningOutcome, &pr.SettledAt)
	if err == sql.ErrNoRows {
		return PoolRow{}, ErrNotFound
	}
	return pr, err
}

// ListActivePools retorna as partidas com pool ainda aberto (usado no startup
// do pool-service para reconstruir o estado em memória)
func (p *Postgres) ListActivePools(ctx context.Context) ([]PoolRow, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT match_id, fee_bps, active, winning_outcome, settled_at
		FROM pools WHERE active ORDER BY match_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PoolRow
	for rows.Next() {
		var pr PoolRow
		if err := rows.Scan(&pr.MatchID, &pr.FeeBps, &pr.Active, &pr.WinningOutcome, &pr.SettledAt); err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}

// ApplySettlement grava o resultado da liquidação em uma transação única:
// fecha o pool e marca o status terminal de cada aposta.
// Idempotente: se o pool já foi fechado, retorna ErrAlreadySettled sem tocar nada.
func (p *Postgres) ApplySettlement(ctx context.Context, s engine.Settlement) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE pools SET active=false, winning_outcome=$1, settled_at=NOW()
		WHERE match_id=$2 AND active`,
		s.WinningOutcome, s.MatchID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAlreadySettled
	}

	for _, payout := range s.Payouts {
		if _, err := tx.ExecContext(ctx, `
			UPDATE bets SET status=$1, updated_at=NOW() WHERE id=$2`,
			payout.Status, payout.BetID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

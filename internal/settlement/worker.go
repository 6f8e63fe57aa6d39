package settlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/tbessa/game-wager-platform-poc/internal/pool-service/engine"
	"github.com/tbessa/game-wager-platform-poc/internal/pool-service/repo"
	sharedkafka "github.com/tbessa/game-wager-platform-poc/internal/shared/kafka"
	"github.com/tbessa/game-wager-platform-poc/pkg/contracts/events"
)

// BetStore é o recorte do repositório de pools usado na liquidação
type BetStore interface {
	GetPool(ctx context.Context, matchID string) (repo.PoolRow, error)
	ListMatchBets(ctx context.Context, matchID string) ([]repo.BetRow, error)
	ApplySettlement(ctx context.Context, s engine.Settlement) error
}

// WalletClient é o recorte do cliente de carteira usado na liquidação
type WalletClient interface {
	Commit(ctx context.Context, userID, externalRef string) error
	Refund(ctx context.Context, userID, externalRef string) error
	Credit(ctx context.Context, userID string, lamports int64, externalRef string) error
}

// Publisher publica o evento pool_settled
type Publisher interface {
	PublishPoolSettled(ctx context.Context, e events.PoolSettled) error
}

// Worker consome match_result e liquida o pool correspondente:
// 1. Carrega o pool e as apostas PENDING da partida
// 2. Calcula os payouts (engine.Settle) e grava os status terminais
// 3. Efetiva/reembolsa as reservas e credita os prêmios na carteira
// 4. Publica pool_settled
// Reentrega da mensagem é segura: pool já fechado repete apenas o acerto
// de carteira, que é idempotente por external_ref.
type Worker struct {
	Log    *zap.Logger
	Store  BetStore
	Wallet WalletClient
	Publ   Publisher

	Reader *kafka.Reader
	DLQ    *kafka.Writer

	// callbacks de métricas (opcionais)
	OnConsumed func()
	OnSettled  func()
	OnError    func(stage string)
}

// Run é o loop principal do worker. Sai quando o contexto for cancelado.
func (w *Worker) Run(ctx context.Context) error {
	for {
		msg, err := w.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.Log.Warn("kafka read", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		w.markConsumed()

		var res events.MatchResult
		if jerr := json.Unmarshal(msg.Value, &res); jerr != nil {
			w.Log.Error("unmarshal match_result", zap.Error(jerr))
			w.markError("decode")
			continue
		}

		if err := w.processWithRetry(ctx, res); err != nil {
			w.Log.Error("settle match", zap.String("matchId", res.MatchID), zap.Error(err))
			w.markError("settle")
			if w.DLQ != nil {
				_ = sharedkafka.WriteJSON(ctx, w.DLQ, res.MatchID, msg.Value)
			}
		}
	}
}

// processWithRetry tenta a liquidação algumas vezes antes de mandar pra DLQ
func (w *Worker) processWithRetry(ctx context.Context, res events.MatchResult) error {
	const retries = 3
	var err error
	for i := 0; i < retries; i++ {
		if err = w.ProcessResult(ctx, res); err == nil {
			return nil
		}
		time.Sleep(time.Duration(300*(i+1)) * time.Millisecond)
	}
	return err
}

// ProcessResult liquida o pool de uma partida terminada.
func (w *Worker) ProcessResult(ctx context.Context, res events.MatchResult) error {
	pool, err := w.Store.GetPool(ctx, res.MatchID)
	if errors.Is(err, repo.ErrNotFound) {
		// ninguém apostou nessa partida
		w.Log.Debug("no pool for match", zap.String("matchId", res.MatchID))
		return nil
	}
	if err != nil {
		return err
	}

	rows, err := w.Store.ListMatchBets(ctx, res.MatchID)
	if err != nil {
		return err
	}

	if !pool.Active {
		// Reentrega de um pool já fechado. Os status terminais já estão no
		// banco, mas uma queda da carteira na primeira passada pode ter
		// deixado acertos pendentes: recalcula os payouts com o resultado
		// gravado e repete o acerto, que é idempotente por external_ref.
		if !pool.WinningOutcome.Valid {
			w.Log.Warn("settled pool without recorded outcome", zap.String("matchId", res.MatchID))
			return nil
		}
		settled := toEngineBets(rows, func(st string) bool { return st != engine.StatusPending })
		s := engine.Settle(res.MatchID, settled, pool.WinningOutcome.String, pool.FeeBps)
		w.Log.Info("pool already settled, repeating wallet pass",
			zap.String("matchId", res.MatchID), zap.Int("bets", len(settled)))
		return w.settleWallets(ctx, s)
	}

	bets := toEngineBets(rows, func(st string) bool { return st == engine.StatusPending })
	s := engine.Settle(res.MatchID, bets, res.WinningOutcome, pool.FeeBps)

	if err := w.Store.ApplySettlement(ctx, s); err != nil {
		if errors.Is(err, repo.ErrAlreadySettled) {
			// outro worker fechou o pool no meio do caminho; repetir o
			// acerto de carteira aqui é seguro e cobre queda do vencedor
			return w.settleWallets(ctx, s)
		}
		return err
	}

	if err := w.settleWallets(ctx, s); err != nil {
		return err
	}

	if err := w.Publ.PublishPoolSettled(ctx, events.PoolSettled{
		MatchID:         s.MatchID,
		WinningOutcome:  s.WinningOutcome,
		PaidOutLamports: s.PaidOutLamports,
		FeeLamports:     s.FeeLamports,
		Winners:         s.Winners,
		Losers:          s.Losers,
		Ts:              time.Now().UTC(),
	}); err != nil {
		w.Log.Warn("pool_settled publish", zap.Error(err))
	}

	w.markSettled()
	w.Log.Info("pool settled",
		zap.String("matchId", s.MatchID),
		zap.String("winner", s.WinningOutcome),
		zap.Int64("paidOut", s.PaidOutLamports),
		zap.Int64("fee", s.FeeLamports),
	)
	return nil
}

// settleWallets faz o acerto de carteira da liquidação. O stake foi
// reservado na criação da aposta (external_ref = betID): perdedor e
// vencedor têm a reserva efetivada; vencedor recebe o payout inteiro como
// crédito; reembolso devolve a reserva. Qualquer falha interrompe a
// passada e sobe pro retry/DLQ — como cada operação é idempotente por
// external_ref, repetir a passada inteira depois é seguro. O commit vem
// antes do crédito: sem reserva efetivada não pode haver prêmio.
func (w *Worker) settleWallets(ctx context.Context, s engine.Settlement) error {
	for _, payout := range s.Payouts {
		switch payout.Status {
		case engine.StatusRefunded:
			if err := w.Wallet.Refund(ctx, payout.UserID, payout.BetID); err != nil {
				return fmt.Errorf("wallet refund bet %s: %w", payout.BetID, err)
			}
		case engine.StatusLost:
			if err := w.Wallet.Commit(ctx, payout.UserID, payout.BetID); err != nil {
				return fmt.Errorf("wallet commit bet %s: %w", payout.BetID, err)
			}
		case engine.StatusWon:
			if err := w.Wallet.Commit(ctx, payout.UserID, payout.BetID); err != nil {
				return fmt.Errorf("wallet commit bet %s: %w", payout.BetID, err)
			}
			if err := w.Wallet.Credit(ctx, payout.UserID, payout.PayoutLamports, payout.BetID); err != nil {
				return fmt.Errorf("wallet credit bet %s: %w", payout.BetID, err)
			}
		}
	}
	return nil
}

func toEngineBets(rows []repo.BetRow, keep func(status string) bool) []engine.Bet {
	bets := make([]engine.Bet, 0, len(rows))
	for _, r := range rows {
		if !keep(r.Status) {
			continue
		}
		bets = append(bets, engine.Bet{
			ID:            r.ID,
			UserID:        r.UserID,
			MatchID:       r.MatchID,
			Outcome:       r.Outcome,
			StakeLamports: r.StakeLamports,
			OddsValue:     r.OddsValue,
			Status:        r.Status,
		})
	}
	return bets
}

func (w *Worker) markConsumed() {
	if w.OnConsumed != nil {
		w.OnConsumed()
	}
}

func (w *Worker) markSettled() {
	if w.OnSettled != nil {
		w.OnSettled()
	}
}

func (w *Worker) markError(stage string) {
	if w.OnError != nil {
		w.OnError(stage)
	}
}

package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tbessa/game-wager-platform-poc/internal/shared/kafka"
	"github.com/tbessa/game-wager-platform-poc/pkg/contracts/events"
	"github.com/tbessa/game-wager-platform-poc/pkg/contracts/topics"
)

func settleCmd() *cobra.Command {
	var outcome string

	cmd := &cobra.Command{
		Use:   "settle <matchId>",
		Short: "Força a liquidação publicando um match_result administrativo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch outcome {
			case "player1", "player2", "draw":
			default:
				return errors.New("outcome deve ser player1, player2 ou draw")
			}

			w := kafka.NewWriter(kafkaBrokers, topics.MatchResult)
			defer w.Close()

			ev := events.MatchResult{
				MatchID:        args[0],
				WinningOutcome: outcome,
				Reason:         "forced",
				Ts:             time.Now().UTC(),
			}
			payload, _ := json.Marshal(ev)

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := kafka.WriteJSON(ctx, w, ev.MatchID, payload); err != nil {
				return err
			}

			fmt.Printf("match_result publicado: %s -> %s\n", ev.MatchID, ev.WinningOutcome)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outcome, "outcome", "o", "", "resultado vencedor (obrigatório)")
	_ = cmd.MarkFlagRequired("outcome")
	return cmd
}

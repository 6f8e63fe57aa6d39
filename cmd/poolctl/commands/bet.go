package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func betCmd() *cobra.Command {
	var outcome string

	cmd := &cobra.Command{
		Use:   "bet <matchId> <userId> <lamports>",
		Short: "Registra uma aposta no pool da partida",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			matchID, userID := args[0], args[1]
			stake, err := strconv.ParseInt(args[2], 10, 64)
			if err != nil || stake <= 0 {
				return errors.New("lamports deve ser um inteiro positivo")
			}

			// Busca a odd corrente: o pool-service exige a odd vista pelo cliente
			var odds struct {
				Odds map[string]float64 `json:"odds"`
			}
			if err := getJSON(poolURL+"/v1/pools/"+matchID+"/odds", &odds); err != nil {
				return err
			}
			quoted, ok := odds.Odds[outcome]
			if !ok {
				return fmt.Errorf("resultado desconhecido: %s", outcome)
			}

			var out struct {
				BetID     string  `json:"betId"`
				Status    string  `json:"status"`
				OddsValue float64 `json:"odds_value"`
			}
			err = postJSON(poolURL+"/v1/pools/"+matchID+"/bets", map[string]any{
				"userId":         userID,
				"outcome":        outcome,
				"stake_lamports": stake,
				"odds_value":     quoted,
			}, &out)
			if err != nil {
				return err
			}

			fmt.Printf("aposta %s registrada (%s) odd %.2f\n", out.BetID, out.Status, out.OddsValue)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outcome, "outcome", "o", "player1", "resultado apostado (player1|player2|draw)")
	return cmd
}

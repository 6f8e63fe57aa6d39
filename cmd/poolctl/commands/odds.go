package commands

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func oddsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "odds <matchId>",
		Short: "Mostra o pool e as odds correntes de uma partida",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var pool struct {
				MatchID       string             `json:"matchId"`
				TotalLamports int64              `json:"total_lamports"`
				BetsCount     int                `json:"bets_count"`
				Outcomes      map[string]int64   `json:"outcomes"`
				Odds          map[string]float64 `json:"odds"`
				Active        bool               `json:"active"`
			}
			if err := getJSON(poolURL+"/v1/pools/"+args[0], &pool); err != nil {
				return err
			}

			names := make([]string, 0, len(pool.Odds))
			for o := range pool.Odds {
				names = append(names, o)
			}
			sort.Strings(names)

			table := tablewriter.NewWriter(os.Stdout)
			table.Header("Outcome", "Stake (lamports)", "Odd")
			for _, o := range names {
				table.Append(o,
					strconv.FormatInt(pool.Outcomes[o], 10),
					fmt.Sprintf("%.2f", pool.Odds[o]),
				)
			}
			table.Render()

			status := "ABERTO"
			if !pool.Active {
				status = "FECHADO"
			}
			fmt.Printf("total: %d lamports | apostas: %d | %s\n",
				pool.TotalLamports, pool.BetsCount, status)
			return nil
		},
	}
}

package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func walletCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Consulta e movimenta carteiras",
	}
	cmd.AddCommand(walletShowCmd(), walletDepositCmd())
	return cmd
}

func walletShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <userId>",
		Short: "Mostra o saldo da carteira",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var out struct {
				UserID          string `json:"userId"`
				WalletID        string `json:"walletId"`
				BalanceLamports int64  `json:"balance_lamports"`
			}
			if err := getJSON(walletURL+"/wallet?userId="+args[0], &out); err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.Header("User", "Wallet", "Balance (lamports)")
			table.Append(out.UserID, out.WalletID,
				strconv.FormatInt(out.BalanceLamports, 10),
			)
			table.Render()
			return nil
		},
	}
}

func walletDepositCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deposit <userId> <lamports>",
		Short: "Deposita lamports na carteira",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || amount <= 0 {
				return errors.New("lamports deve ser um inteiro positivo")
			}

			var out struct {
				BalanceLamports int64 `json:"balance_lamports"`
			}
			err = postJSON(walletURL+"/wallet/deposit", map[string]any{
				"userId":          args[0],
				"amount_lamports": amount,
			}, &out)
			if err != nil {
				return err
			}
			fmt.Printf("novo saldo: %d lamports\n", out.BalanceLamports)
			return nil
		},
	}
}

func getJSON(url string, out any) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errors.New("http " + resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func postJSON(url string, payload map[string]any, out any) error {
	body, _ := json.Marshal(payload)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return errors.New("http " + resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

package commands

import (
	"github.com/spf13/cobra"
)

var (
	poolURL      string
	walletURL    string
	kafkaBrokers string
)

// Execute monta a árvore de comandos do poolctl e executa.
func Execute() error {
	root := &cobra.Command{
		Use:   "poolctl",
		Short: "Admin CLI da plataforma de apostas em partidas de tabuleiro",
	}

	root.PersistentFlags().StringVar(&poolURL, "pool-url", "http://localhost:8083", "base URL do pool-service")
	root.PersistentFlags().StringVar(&walletURL, "wallet-url", "http://localhost:8082", "base URL do wallet-service")
	root.PersistentFlags().StringVar(&kafkaBrokers, "brokers", "localhost:9092", "brokers Kafka (para settle)")

	root.AddCommand(walletCmd(), betCmd(), oddsCmd(), settleCmd())
	return root.Execute()
}

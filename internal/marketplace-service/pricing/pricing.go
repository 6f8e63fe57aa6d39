package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Suggestion é a sugestão de preço de listagem calculada sobre vendas recentes.
type Suggestion struct {
	Samples           int   `json:"samples"`
	MeanLamports      int64 `json:"mean_lamports"`
	StdDevLamports    int64 `json:"stddev_lamports"`
	SuggestedLamports int64 `json:"suggested_lamports"`
}

// Suggest calcula média e desvio padrão dos preços de venda recentes e
// sugere a média como preço de listagem. Sem amostras, retorna zero.
func Suggest(prices []int64) Suggestion {
	if len(prices) == 0 {
		return Suggestion{}
	}

	xs := make([]float64, len(prices))
	for i, p := range prices {
		xs[i] = float64(p)
	}

	mean := stat.Mean(xs, nil)
	sd := 0.0
	if len(xs) > 1 {
		sd = stat.StdDev(xs, nil)
	}

	return Suggestion{
		Samples:           len(prices),
		MeanLamports:      int64(math.Round(mean)),
		StdDevLamports:    int64(math.Round(sd)),
		SuggestedLamports: int64(math.Round(mean)),
	}
}

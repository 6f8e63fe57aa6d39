package engine

import (
	"errors"
	"sync"
)

// Limites de odds do pool dinâmico. A odd de um resultado é o inverso da
// participação dele no pool (total/stake), presa entre o piso e o teto.
const (
	OddsFloor   = 1.1
	OddsCeil    = 10.0
	DefaultOdds = 2.0 // quando ninguém apostou no resultado
)

// Status terminais e intermediários de uma aposta.
const (
	StatusPending  = "PENDING"
	StatusWon      = "WON"
	StatusLost     = "LOST"
	StatusRefunded = "REFUNDED"
)

// DefaultOutcomes são os resultados possíveis de uma partida de tabuleiro.
var DefaultOutcomes = []string{"player1", "player2", "draw"}

var (
	ErrPoolClosed     = errors.New("pool closed")
	ErrInvalidStake   = errors.New("invalid stake")
	ErrInvalidOutcome = errors.New("invalid outcome")
)

// Bet é uma aposta individual dentro de um pool.
type Bet struct {
	ID            string
	UserID        string
	MatchID       string
	Outcome       string
	StakeLamports int64
	OddsValue     float64 // odd cotada no momento da aposta
	Status        string
}

// Pool agrega as apostas de uma partida por resultado.
type Pool struct {
	MatchID       string
	FeeBps        int64
	Outcomes      map[string]int64 // resultado -> stake acumulado
	TotalLamports int64
	BetsCount     int
	Active        bool
}

// Odds calcula a odd de um resultado a partir dos lamports acumulados.
// total/stake preso em [OddsFloor, OddsCeil]; DefaultOdds sem stake no resultado.
func Odds(totalLamports, stakeOnOutcome int64) float64 {
	if stakeOnOutcome <= 0 {
		return DefaultOdds
	}
	odd := float64(totalLamports) / float64(stakeOnOutcome)
	if odd < OddsFloor {
		return OddsFloor
	}
	if odd > OddsCeil {
		return OddsCeil
	}
	return odd
}

// Odds retorna a odd corrente de um resultado do pool.
func (p *Pool) Odds(outcome string) float64 {
	return Odds(p.TotalLamports, p.Outcomes[outcome])
}

// OddsSnapshot retorna as odds de todos os resultados conhecidos do pool,
// sempre incluindo os resultados padrão (ficam em DefaultOdds sem stake).
func (p *Pool) OddsSnapshot() map[string]float64 {
	out := make(map[string]float64, len(DefaultOutcomes))
	for _, o := range DefaultOutcomes {
		out[o] = p.Odds(o)
	}
	for o := range p.Outcomes {
		out[o] = p.Odds(o)
	}
	return out
}

// Payout é o resultado da liquidação para uma aposta.
type Payout struct {
	BetID          string
	UserID         string
	StakeLamports  int64
	PrizeLamports  int64 // parcela do pool perdedor (0 para perdedores)
	PayoutLamports int64 // stake devolvido + prêmio (0 para perdedores)
	Status         string
}

// Settlement resume a liquidação de um pool.
type Settlement struct {
	MatchID         string
	WinningOutcome  string
	Payouts         []Payout
	FeeLamports     int64
	PaidOutLamports int64
	Winners         int
	Losers          int
}

// Settle distribui o pool perdedor (menos a taxa da plataforma) entre os
// vencedores, proporcional ao stake de cada um dentro do lado vencedor.
// Toda aposta sai com exatamente um status terminal. Se ninguém acertou o
// resultado, todas as apostas são reembolsadas e nenhuma taxa é cobrada.
// Função pura: não toca estado compartilhado nem persistência.
func Settle(matchID string, bets []Bet, winningOutcome string, feeBps int64) Settlement {
	var winTotal, loseTotal int64
	for _, b := range bets {
		if b.Outcome == winningOutcome {
			winTotal += b.StakeLamports
		} else {
			loseTotal += b.StakeLamports
		}
	}

	s := Settlement{
		MatchID:        matchID,
		WinningOutcome: winningOutcome,
		Payouts:        make([]Payout, 0, len(bets)),
	}

	if winTotal == 0 {
		// Ninguém no lado vencedor: reembolso integral, sem taxa.
		for _, b := range bets {
			s.Payouts = append(s.Payouts, Payout{
				BetID:          b.ID,
				UserID:         b.UserID,
				StakeLamports:  b.StakeLamports,
				PayoutLamports: b.StakeLamports,
				Status:         StatusRefunded,
			})
			s.PaidOutLamports += b.StakeLamports
		}
		return s
	}

	s.FeeLamports = loseTotal * feeBps / 10000
	distributable := loseTotal - s.FeeLamports

	for _, b := range bets {
		if b.Outcome != winningOutcome {
			s.Payouts = append(s.Payouts, Payout{
				BetID:         b.ID,
				UserID:        b.UserID,
				StakeLamports: b.StakeLamports,
				Status:        StatusLost,
			})
			s.Losers++
			continue
		}

		prize := int64(float64(distributable) * float64(b.StakeLamports) / float64(winTotal))
		s.Payouts = append(s.Payouts, Payout{
			BetID:          b.ID,
			UserID:         b.UserID,
			StakeLamports:  b.StakeLamports,
			PrizeLamports:  prize,
			PayoutLamports: b.StakeLamports + prize,
			Status:         StatusWon,
		})
		s.PaidOutLamports += b.StakeLamports + prize
		s.Winners++
	}

	return s
}

// Registry mantém os pools ativos em memória, protegidos por mutex.
// A fonte de verdade é o Postgres; o registry é reconstruído no startup
// via Restore e serve leituras de odds sem tocar o banco.
type Registry struct {
	mu     sync.RWMutex
	pools  map[string]*Pool
	feeBps int64
}

func NewRegistry(feeBps int64) *Registry {
	return &Registry{
		pools:  make(map[string]*Pool),
		feeBps: feeBps,
	}
}

func (r *Registry) getOrCreateLocked(matchID string) *Pool {
	p, ok := r.pools[matchID]
	if !ok {
		p = &Pool{
			MatchID:  matchID,
			FeeBps:   r.feeBps,
			Outcomes: make(map[string]int64),
			Active:   true,
		}
		r.pools[matchID] = p
	}
	return p
}

// Place registra um stake no pool da partida e retorna a odd cotada
// (a odd vigente antes do stake entrar, que é a vista pelo apostador).
func (r *Registry) Place(matchID, outcome string, stakeLamports int64) (float64, error) {
	if stakeLamports <= 0 {
		return 0, ErrInvalidStake
	}
	if outcome == "" {
		return 0, ErrInvalidOutcome
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.getOrCreateLocked(matchID)
	if !p.Active {
		return 0, ErrPoolClosed
	}

	quoted := p.Odds(outcome)
	p.Outcomes[outcome] += stakeLamports
	p.TotalLamports += stakeLamports
	p.BetsCount++
	return quoted, nil
}

// Snapshot retorna uma cópia do pool (sem aliasing do mapa interno).
func (r *Registry) Snapshot(matchID string) (Pool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.pools[matchID]
	if !ok {
		return Pool{}, false
	}
	cp := *p
	cp.Outcomes = make(map[string]int64, len(p.Outcomes))
	for k, v := range p.Outcomes {
		cp.Outcomes[k] = v
	}
	return cp, true
}

// CurrentOdds retorna as odds correntes da partida. Pool inexistente
// equivale a pool vazio: todos os resultados em DefaultOdds.
func (r *Registry) CurrentOdds(matchID string) map[string]float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.pools[matchID]
	if !ok {
		empty := Pool{Outcomes: map[string]int64{}}
		return empty.OddsSnapshot()
	}
	return p.OddsSnapshot()
}

// Deactivate fecha o pool para novas apostas (liquidação em andamento).
func (r *Registry) Deactivate(matchID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p, ok := r.pools[matchID]; ok {
		p.Active = false
	}
}

// Restore reconstrói o pool de uma partida a partir das apostas persistidas.
// Usado no startup do pool-service para sobreviver a restarts.
func (r *Registry) Restore(matchID string, active bool, bets []Bet) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := &Pool{
		MatchID:  matchID,
		FeeBps:   r.feeBps,
		Outcomes: make(map[string]int64),
		Active:   active,
	}
	for _, b := range bets {
		p.Outcomes[b.Outcome] += b.StakeLamports
		p.TotalLamports += b.StakeLamports
		p.BetsCount++
	}
	r.pools[matchID] = p
}

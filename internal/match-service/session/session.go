package session

import (
	"time"

	"github.com/tbessa/game-wager-platform-poc/internal/match-service/catalog"
)

// Status possíveis de uma sessão de partida.
const (
	StatusWaiting  = "WAITING"
	StatusActive   = "ACTIVE"
	StatusFinished = "FINISHED"
)

// Motivos de término.
const (
	ReasonResign    = "resign"
	ReasonMoveLimit = "move_limit"
)

// AIUserID identifica o oponente IA no segundo assento.
const AIUserID = "ai"

// Move é um lance no tabuleiro (coordenadas zero-based).
type Move struct {
	UserID string `json:"userId"`
	FromX  int    `json:"fromX"`
	FromY  int    `json:"fromY"`
	ToX    int    `json:"toX"`
	ToY    int    `json:"toY"`
}

// Session é o estado de uma partida em andamento.
// Mutação sempre através do Manager, que segura o lock.
type Session struct {
	ID        string
	Variant   catalog.Variant
	Players   [2]string // [0] = player1, [1] = player2 (vazio enquanto WAITING)
	VsAI      bool
	Moves     []Move
	Turn      int // índice do jogador da vez
	Status    string
	Winner    string // "player1" | "player2" | "draw" quando FINISHED
	Reason    string
	CreatedAt time.Time
}

// seat retorna o índice do jogador na sessão, ou -1
func (s *Session) seat(userID string) int {
	for i, p := range s.Players {
		if p != "" && p == userID {
			return i
		}
	}
	return -1
}

// outcomeFor converte o índice do assento no resultado do pool
func outcomeFor(seat int) string {
	if seat == 0 {
		return "player1"
	}
	return "player2"
}

package dto

import "github.com/tbessa/game-wager-platform-poc/internal/match-service/session"

// ClientMsg representa uma mensagem recebida do cliente WebSocket
// Type: create | join | move | resign | ping
type ClientMsg struct {
	Type    string        `json:"type"`
	MatchID string        `json:"matchId,omitempty"`
	UserID  string        `json:"userId,omitempty"`
	Variant string        `json:"variant,omitempty"` // requerido em create
	VsAI    bool          `json:"vsAi,omitempty"`
	Move    *session.Move `json:"move,omitempty"` // requerido em move
}

// SessionState é a projeção do estado da sessão enviada aos clientes
type SessionState struct {
	MatchID  string        `json:"matchId"`
	Status   string        `json:"status"`
	Players  []string      `json:"players"`
	Turn     int           `json:"turn"`
	Moves    int           `json:"moves"`
	LastMove *session.Move `json:"lastMove,omitempty"`
	Winner   string        `json:"winner,omitempty"`
	Reason   string        `json:"reason,omitempty"`
}

// ServerMsg representa uma mensagem enviada ao cliente WebSocket
// Type: created | joined | state | finished | pong | error
type ServerMsg struct {
	Type    string        `json:"type"`
	MatchID string        `json:"matchId,omitempty"`
	State   *SessionState `json:"state,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// StateOf projeta a sessão no formato enviado pelo WebSocket
func StateOf(s session.Session) *SessionState {
	st := &SessionState{
		MatchID: s.ID,
		Status:  s.Status,
		Players: []string{s.Players[0], s.Players[1]},
		Turn:    s.Turn,
		Moves:   len(s.Moves),
		Winner:  s.Winner,
		Reason:  s.Reason,
	}
	if n := len(s.Moves); n > 0 {
		st.LastMove = &s.Moves[n-1]
	}
	return st
}

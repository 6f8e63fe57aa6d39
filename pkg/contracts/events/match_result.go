package events

import "time"

// Evento emitido pelo match-service quando uma partida termina.
// WinningOutcome: "player1" | "player2" | "draw"
type MatchResult struct {
	MatchID        string    `json:"match_id"`
	WinningOutcome string    `json:"winning_outcome"`
	Reason         string    `json:"reason,omitempty"` // "resign" | "move_limit" | "forced"
	MovesPlayed    int       `json:"moves_played"`
	Ts             time.Time `json:"ts"`
}

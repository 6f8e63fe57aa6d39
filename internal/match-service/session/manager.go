package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tbessa/game-wager-platform-poc/internal/match-service/catalog"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionFull      = errors.New("session full")
	ErrAlreadyInSession = errors.New("player already in a session")
	ErrNotParticipant   = errors.New("player not in this session")
	ErrNotYourTurn      = errors.New("not your turn")
	ErrSessionNotActive = errors.New("session not active")
	ErrOutOfBounds      = errors.New("move out of board bounds")
)

// Manager gerencia as sessões de partida ativas em memória.
// sessions: matchID -> estado; playerToSession: userID -> matchID
type Manager struct {
	mu              sync.RWMutex
	sessions        map[string]*Session
	playerToSession map[string]string
	catalog         *catalog.Catalog
	log             *zap.Logger
}

func NewManager(cat *catalog.Catalog, log *zap.Logger) *Manager {
	return &Manager{
		sessions:        make(map[string]*Session),
		playerToSession: make(map[string]string),
		catalog:         cat,
		log:             log,
	}
}

// generateMatchID gera um identificador de partida aleatório
func generateMatchID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return "match_" + hex.EncodeToString(b)
}

// Create abre uma sessão nova. Com vsAI, o segundo assento é preenchido
// pelo oponente IA e a partida já começa ACTIVE.
func (m *Manager) Create(userID, variantName string, vsAI bool) (Session, error) {
	variant, err := m.catalog.Get(variantName)
	if err != nil {
		return Session{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, busy := m.playerToSession[userID]; busy {
		return Session{}, ErrAlreadyInSession
	}

	s := &Session{
		ID:        generateMatchID(),
		Variant:   variant,
		VsAI:      vsAI,
		Status:    StatusWaiting,
		CreatedAt: time.Now().UTC(),
	}
	s.Players[0] = userID
	if vsAI {
		s.Players[1] = AIUserID
		s.Status = StatusActive
	}

	m.sessions[s.ID] = s
	m.playerToSession[userID] = s.ID
	m.log.Info("session created",
		zap.String("matchId", s.ID),
		zap.String("variant", variant.Name),
		zap.Bool("vsAi", vsAI),
	)
	return m.snapshotLocked(s), nil
}

// Join ocupa o segundo assento de uma sessão WAITING.
func (m *Manager) Join(matchID, userID string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[matchID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if _, busy := m.playerToSession[userID]; busy {
		return Session{}, ErrAlreadyInSession
	}
	if s.Players[1] != "" {
		return Session{}, ErrSessionFull
	}

	s.Players[1] = userID
	s.Status = StatusActive
	m.playerToSession[userID] = matchID
	m.log.Info("session joined", zap.String("matchId", matchID), zap.String("userId", userID))
	return m.snapshotLocked(s), nil
}

// ApplyMove valida e registra um lance. Validação rasa de propósito:
// alternância de turno e limites do tabuleiro (sem regras de jogo).
// Retorna o estado resultante e se a partida terminou neste lance.
func (m *Manager) ApplyMove(matchID, userID string, mv Move) (Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[matchID]
	if !ok {
		return Session{}, false, ErrSessionNotFound
	}
	if s.Status != StatusActive {
		return Session{}, false, ErrSessionNotActive
	}
	seat := s.seat(userID)
	if seat < 0 {
		return Session{}, false, ErrNotParticipant
	}
	if seat != s.Turn {
		return Session{}, false, ErrNotYourTurn
	}
	if !inBounds(mv, s.Variant.BoardSize) {
		return Session{}, false, ErrOutOfBounds
	}

	mv.UserID = userID
	m.appendMoveLocked(s, mv)

	return m.snapshotLocked(s), s.Status == StatusFinished, nil
}

// ApplyAIMove gera e aplica o lance do oponente IA, se for a vez dele.
// O atraso de resposta (ai_delay_ms da variante) fica a cargo do chamador.
func (m *Manager) ApplyAIMove(matchID string) (Session, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[matchID]
	if !ok {
		return Session{}, false, ErrSessionNotFound
	}
	if s.Status != StatusActive || !s.VsAI || s.Turn != 1 {
		return Session{}, false, ErrNotYourTurn
	}

	var last *Move
	if n := len(s.Moves); n > 0 {
		last = &s.Moves[n-1]
	}
	m.appendMoveLocked(s, RandomWalkMove(s.Variant.BoardSize, last))

	return m.snapshotLocked(s), s.Status == StatusFinished, nil
}

// appendMoveLocked registra o lance, alterna o turno e aplica o limite de lances
func (m *Manager) appendMoveLocked(s *Session, mv Move) {
	s.Moves = append(s.Moves, mv)
	s.Turn = 1 - s.Turn

	if len(s.Moves) >= s.Variant.MoveLimit {
		s.Status = StatusFinished
		s.Winner = "draw"
		s.Reason = ReasonMoveLimit
		m.releaseSeatsLocked(s)
	}
}

// Resign encerra a partida com vitória do oponente.
func (m *Manager) Resign(matchID, userID string) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[matchID]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if s.Status == StatusFinished {
		return Session{}, ErrSessionNotActive
	}
	seat := s.seat(userID)
	if seat < 0 {
		return Session{}, ErrNotParticipant
	}

	s.Status = StatusFinished
	s.Winner = outcomeFor(1 - seat)
	s.Reason = ReasonResign
	m.releaseSeatsLocked(s)
	m.log.Info("session resigned",
		zap.String("matchId", matchID),
		zap.String("userId", userID),
		zap.String("winner", s.Winner),
	)
	return m.snapshotLocked(s), nil
}

// Get retorna uma cópia do estado da sessão.
func (m *Manager) Get(matchID string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[matchID]
	if !ok {
		return Session{}, false
	}
	return m.snapshotLocked(s), true
}

// releaseSeatsLocked libera os jogadores para novas partidas
func (m *Manager) releaseSeatsLocked(s *Session) {
	for _, p := range s.Players {
		if p != "" && p != AIUserID {
			delete(m.playerToSession, p)
		}
	}
}

// snapshotLocked copia a sessão sem aliasing do slice de lances
func (m *Manager) snapshotLocked(s *Session) Session {
	cp := *s
	cp.Moves = append([]Move(nil), s.Moves...)
	return cp
}

// StartJanitor remove sessões terminadas ou abandonadas periodicamente.
func (m *Manager) StartJanitor(ctx context.Context, every, maxAge time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.sweep(maxAge)
			}
		}
	}()
}

func (m *Manager) sweep(maxAge time.Duration) {
	cutoff := time.Now().UTC().Add(-maxAge)

	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		if s.Status == StatusFinished || s.CreatedAt.Before(cutoff) {
			m.releaseSeatsLocked(s)
			delete(m.sessions, id)
		}
	}
}

func inBounds(mv Move, boardSize int) bool {
	coords := []int{mv.FromX, mv.FromY, mv.ToX, mv.ToY}
	for _, c := range coords {
		if c < 0 || c >= boardSize {
			return false
		}
	}
	return true
}

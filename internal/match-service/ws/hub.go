package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tbessa/game-wager-platform-poc/internal/match-service/dto"
	"github.com/tbessa/game-wager-platform-poc/internal/match-service/session"
	"github.com/tbessa/game-wager-platform-poc/pkg/contracts/events"
)

// ResultPublisher abstrai a publicação do resultado da partida
type ResultPublisher interface {
	PublishMatchResult(context.Context, events.MatchResult) error
}

const writeTimeout = 2 * time.Second

// client serializa as escritas de uma conexão. gorilla/websocket permite um
// único escritor por vez, e o lance atrasado da IA escreve em paralelo com
// as respostas do loop de leitura (pong, state, error).
type client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *client) write(msg dto.ServerMsg) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(msg)
}

// Hub gerencia as conexões WebSocket das partidas e repassa lances
// entre os participantes. conns: matchID -> conexões observando a partida
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	conns    map[string]map[*client]string // client -> userID
	mgr      *session.Manager
	publ     ResultPublisher
	log      *zap.Logger
}

func NewHub(mgr *session.Manager, publ ResultPublisher, log *zap.Logger, allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     allowOrigin,
		},
		conns: make(map[string]map[*client]string),
		mgr:   mgr,
		publ:  publ,
		log:   log,
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão de partida
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	cl := &client{conn: conn}
	defer func() {
		h.detach(cl)
		_ = conn.Close()
	}()

	for {
		var msg dto.ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		h.dispatch(r.Context(), cl, msg)
	}
}

func (h *Hub) dispatch(ctx context.Context, cl *client, msg dto.ClientMsg) {
	switch msg.Type {
	case "create":
		s, err := h.mgr.Create(msg.UserID, msg.Variant, msg.VsAI)
		if err != nil {
			h.sendError(cl, err)
			return
		}
		h.attach(s.ID, cl, msg.UserID)
		h.send(cl, dto.ServerMsg{Type: "created", MatchID: s.ID, State: dto.StateOf(s)})

	case "join":
		s, err := h.mgr.Join(msg.MatchID, msg.UserID)
		if err != nil {
			h.sendError(cl, err)
			return
		}
		h.attach(s.ID, cl, msg.UserID)
		h.broadcast(s.ID, dto.ServerMsg{Type: "joined", MatchID: s.ID, State: dto.StateOf(s)})

	case "move":
		if msg.Move == nil {
			h.sendError(cl, session.ErrOutOfBounds)
			return
		}
		s, finished, err := h.mgr.ApplyMove(msg.MatchID, msg.UserID, *msg.Move)
		if err != nil {
			h.sendError(cl, err)
			return
		}
		h.broadcast(s.ID, dto.ServerMsg{Type: "state", MatchID: s.ID, State: dto.StateOf(s)})
		if finished {
			h.finish(ctx, s)
			return
		}
		if s.VsAI && s.Turn == 1 {
			go h.aiReply(s.ID, s.Variant.AIDelayMs)
		}

	case "resign":
		s, err := h.mgr.Resign(msg.MatchID, msg.UserID)
		if err != nil {
			h.sendError(cl, err)
			return
		}
		h.finish(ctx, s)

	case "ping":
		h.send(cl, dto.ServerMsg{Type: "pong"})
	}
}

// aiReply aplica o lance da IA após o atraso configurado na variante
func (h *Hub) aiReply(matchID string, delayMs int) {
	time.Sleep(time.Duration(delayMs) * time.Millisecond)

	s, finished, err := h.mgr.ApplyAIMove(matchID)
	if err != nil {
		// partida terminou ou o turno mudou enquanto a IA "pensava"
		return
	}
	h.broadcast(matchID, dto.ServerMsg{Type: "state", MatchID: matchID, State: dto.StateOf(s)})
	if finished {
		h.finish(context.Background(), s)
	}
}

// finish publica o resultado pro settlement e avisa os participantes
func (h *Hub) finish(ctx context.Context, s session.Session) {
	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := h.publ.PublishMatchResult(pctx, events.MatchResult{
		MatchID:        s.ID,
		WinningOutcome: s.Winner,
		Reason:         s.Reason,
		MovesPlayed:    len(s.Moves),
	}); err != nil {
		h.log.Error("match result publish failed", zap.String("matchId", s.ID), zap.Error(err))
	}

	h.broadcast(s.ID, dto.ServerMsg{Type: "finished", MatchID: s.ID, State: dto.StateOf(s)})
	h.log.Info("match finished",
		zap.String("matchId", s.ID),
		zap.String("winner", s.Winner),
		zap.String("reason", s.Reason),
	)
}

func (h *Hub) attach(matchID string, cl *client, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[matchID]; !ok {
		h.conns[matchID] = make(map[*client]string)
	}
	h.conns[matchID][cl] = userID
}

// detach remove a conexão de todas as partidas observadas
func (h *Hub) detach(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for matchID, set := range h.conns {
		delete(set, cl)
		if len(set) == 0 {
			delete(h.conns, matchID)
		}
	}
}

func (h *Hub) broadcast(matchID string, msg dto.ServerMsg) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.conns[matchID]))
	for c := range h.conns[matchID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.send(c, msg)
	}
}

func (h *Hub) send(cl *client, msg dto.ServerMsg) {
	if err := cl.write(msg); err != nil {
		h.log.Warn("ws write failed", zap.Error(err))
	}
}

func (h *Hub) sendError(cl *client, err error) {
	h.send(cl, dto.ServerMsg{Type: "error", Error: err.Error()})
}

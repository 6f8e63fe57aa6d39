package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tbessa/game-wager-platform-poc/internal/match-service/catalog"
	"github.com/tbessa/game-wager-platform-poc/internal/match-service/dto"
	"github.com/tbessa/game-wager-platform-poc/internal/match-service/session"
	"github.com/tbessa/game-wager-platform-poc/pkg/contracts/events"
)

type stubPublisher struct{ results []events.MatchResult }

func (s *stubPublisher) PublishMatchResult(_ context.Context, r events.MatchResult) error {
	s.results = append(s.results, r)
	return nil
}

func newTestHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	cat, err := catalog.Parse([]byte(
		"variants:\n  - name: mini\n    board_size: 5\n    move_limit: 60\n    ai_delay_ms: 10\n"))
	require.NoError(t, err)

	mgr := session.NewManager(cat, zap.NewNop())
	hub := NewHub(mgr, &stubPublisher{}, zap.NewNop(), func(*http.Request) bool { return true })
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// A resposta da IA chega por uma goroutine própria depois do atraso da
// variante, enquanto o loop de leitura segue respondendo pings na mesma
// conexão. As escritas concorrentes têm que sair serializadas (com -race
// este teste pega escrita simultânea na conexão).
func TestHandleWS_DelayedAIReplySharesConnWithPings(t *testing.T) {
	_, srv := newTestHub(t)
	conn := dialWS(t, srv)

	require.NoError(t, conn.WriteJSON(dto.ClientMsg{
		Type: "create", UserID: "alice", Variant: "mini", VsAI: true,
	}))

	var created dto.ServerMsg
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&created))
	require.Equal(t, "created", created.Type)
	matchID := created.MatchID

	require.NoError(t, conn.WriteJSON(dto.ClientMsg{
		Type: "move", MatchID: matchID, UserID: "alice",
		Move: &session.Move{UserID: "alice", FromX: 0, FromY: 0, ToX: 0, ToY: 1},
	}))
	// pings disputando a conexão com o state do lance e o da IA
	for i := 0; i < 5; i++ {
		require.NoError(t, conn.WriteJSON(dto.ClientMsg{Type: "ping"}))
	}

	var sawPong, sawAIMove bool
	deadline := time.Now().Add(3 * time.Second)
	for !sawAIMove && time.Now().Before(deadline) {
		var msg dto.ServerMsg
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, conn.ReadJSON(&msg))
		switch msg.Type {
		case "pong":
			sawPong = true
		case "state":
			if msg.State != nil && msg.State.Moves == 2 {
				sawAIMove = true
				assert.Zero(t, msg.State.Turn) // vez devolvida pro humano
			}
		}
	}
	assert.True(t, sawPong)
	assert.True(t, sawAIMove, "lance da IA não chegou pela conexão")
}

func TestHandleWS_PingBeforeAnyMatch(t *testing.T) {
	_, srv := newTestHub(t)
	conn := dialWS(t, srv)

	require.NoError(t, conn.WriteJSON(dto.ClientMsg{Type: "ping"}))

	var msg dto.ServerMsg
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "pong", msg.Type)
}

package relay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"garage-chat/internal/config"
	"garage-chat/internal/dto"
	"garage-chat/internal/middleware"
	"garage-chat/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRelayServer(t *testing.T) (*httptest.Server, *Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default().Relay
	hub := startHub(t)
	h := NewHandler(hub, cfg, zap.NewNop())

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Recovery(zap.NewNop()))
	h.RegisterRoutes(router, router.Group("/api/v1"))

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, hub
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestRelayEndToEnd(t *testing.T) {
	srv, hub := newRelayServer(t)

	alice := dial(t, srv)
	bob := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, 5*time.Millisecond)

	frame, err := dto.NewEvent(dto.EventSendMessage, models.ChatMessage{
		Text:      "xe em bị kêu ở bánh trước",
		IsUser:    true,
		UserID:    "u-alice",
		UserName:  "Alice",
		Timestamp: "2024-05-12T08:30:00Z",
	})
	require.NoError(t, err)
	require.NoError(t, alice.WriteMessage(websocket.TextMessage, frame))

	bob.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, got, err := bob.ReadMessage()
	require.NoError(t, err)

	ev, err := dto.DecodeEvent(got)
	require.NoError(t, err)
	assert.Equal(t, dto.EventReceiveMessage, ev.Event)

	var msg models.ChatMessage
	require.NoError(t, json.Unmarshal(ev.Data, &msg))
	assert.Equal(t, "xe em bị kêu ở bánh trước", msg.Text)
	assert.True(t, msg.IsUser)
	assert.Equal(t, "u-alice", msg.UserID)

	// người gửi không nhận lại tin của mình
	alice.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = alice.ReadMessage()
	assert.Error(t, err)
}

func TestRelaySkipsMalformedFrames(t *testing.T) {
	srv, hub := newRelayServer(t)

	alice := dial(t, srv)
	bob := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, alice.WriteMessage(websocket.TextMessage, []byte(`{"event":"typing","data":{}}`)))
	frame, _ := dto.NewEvent(dto.EventSendMessage, models.ChatMessage{Text: "sau frame hỏng"})
	require.NoError(t, alice.WriteMessage(websocket.TextMessage, frame))

	bob.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, got, err := bob.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(got), "sau frame hỏng")
}

func TestRelayDisconnectUnregisters(t *testing.T) {
	srv, hub := newRelayServer(t)

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	require.Eventually(t, func() bool { return hub.Count() == 0 }, time.Second, 5*time.Millisecond)
}

func TestRelayStatsEndpoint(t *testing.T) {
	srv, hub := newRelayServer(t)
	dial(t, srv)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)

	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, srv.URL+"/api/v1/relay/stats", nil)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body struct {
		Success bool           `json:"success"`
		Data    dto.RelayStats `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, 1, body.Data.ConnectedClients)
}

func TestRelayRejectsAfterShutdown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil, zap.NewNop())
	go hub.Run(ctx)
	cancel()
	require.Eventually(t, hub.Stopped, time.Second, 5*time.Millisecond)

	router := gin.New()
	NewHandler(hub, config.Default().Relay, zap.NewNop()).RegisterRoutes(router, router.Group("/api/v1"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "UNAVAILABLE")
}

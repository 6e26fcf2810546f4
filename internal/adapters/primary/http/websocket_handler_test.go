package http

import (
	"context"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wsAdapter "github.com/lorrc/user-directory/internal/adapters/primary/websocket"
	"github.com/lorrc/user-directory/internal/core/domain"
)

func newWebSocketServer(t *testing.T, cfg WebSocketConfig) (*httptest.Server, *wsAdapter.Hub) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := wsAdapter.NewHub(nil, testLogger())
	go hub.Run(ctx)

	server := httptest.NewServer(NewWebSocketHandler(hub, cfg, testLogger()))
	t.Cleanup(server.Close)
	return server, hub
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func TestWebSocketHandler_StreamsEvents(t *testing.T) {
	server, hub := newWebSocketServer(t, WebSocketConfig{})

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(server), nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, time.Second, 10*time.Millisecond)

	sent := domain.Event{Type: domain.EventUserRestored, Version: 12, Status: domain.StatusReady, UserID: "u2"}
	require.NoError(t, hub.Broadcast(sent))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var received domain.Event
	require.NoError(t, conn.ReadJSON(&received))
	assert.Equal(t, sent, received)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "PING"}))
	require.NoError(t, conn.ReadJSON(&received))
	assert.Equal(t, domain.EventType("PONG"), received.Type)
}

func TestWebSocketHandler_Origins(t *testing.T) {
	tests := []struct {
		name    string
		cfg     WebSocketConfig
		origin  string
		allowed bool
	}{
		{name: "no origin header", cfg: WebSocketConfig{}, origin: "", allowed: true},
		{name: "listed origin", cfg: WebSocketConfig{AllowedOrigins: []string{"https://app.example.com"}}, origin: "https://app.example.com", allowed: true},
		{name: "wildcard subdomain", cfg: WebSocketConfig{AllowedOrigins: []string{"*.example.com"}}, origin: "https://viewer.example.com", allowed: true},
		{name: "wildcard apex", cfg: WebSocketConfig{AllowedOrigins: []string{"*.example.com"}}, origin: "https://example.com", allowed: true},
		{name: "lookalike domain", cfg: WebSocketConfig{AllowedOrigins: []string{"*.example.com"}}, origin: "https://badexample.com", allowed: false},
		{name: "unlisted origin", cfg: WebSocketConfig{AllowedOrigins: []string{"https://app.example.com"}}, origin: "https://evil.test", allowed: false},
		{name: "development allows all", cfg: WebSocketConfig{IsDevelopment: true}, origin: "http://localhost:5173", allowed: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, _ := newWebSocketServer(t, tt.cfg)

			header := stdhttp.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			conn, resp, err := websocket.DefaultDialer.Dial(wsURL(server), header)
			if resp != nil {
				defer resp.Body.Close()
			}

			if tt.allowed {
				require.NoError(t, err)
				_ = conn.Close()
				return
			}
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, stdhttp.StatusForbidden, resp.StatusCode)
		})
	}
}

package server

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Tyrowin/wsrelay/internal/config"
	"github.com/Tyrowin/wsrelay/internal/relay"
	"github.com/gorilla/websocket"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

const testOrigin = "http://localhost:8001"

// newTestServer starts the relay routes on an httptest server. mutate, when
// not nil, adjusts the default configuration first.
func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, string) {
	t.Helper()

	cfg := config.Default()
	cfg.AllowedOrigins = testOrigin
	if mutate != nil {
		mutate(&cfg)
	}

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	s := New(cfg, relay.New(log), log)
	ts := httptest.NewServer(s.Routes())
	t.Cleanup(func() {
		s.closeClients()
		ts.Close()
	})

	return s, ts.URL
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http") + "/ws"
}

// dial opens a WebSocket connection with the allowed test origin.
func dial(t *testing.T, httpURL string) *websocket.Conn {
	t.Helper()

	conn, resp, err := dialWithOrigin(httpURL, testOrigin)
	if resp != nil {
		_ = resp.Body.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func dialWithOrigin(httpURL, origin string) (*websocket.Conn, *http.Response, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	headers := http.Header{}
	if origin != "" {
		headers.Set("Origin", origin)
	}
	return dialer.Dial(wsURL(httpURL), headers)
}

func sendJoin(t *testing.T, conn *websocket.Conn, name string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]string{"type": relay.TypeJoin, "username": name}))
}

func sendChat(t *testing.T, conn *websocket.Conn, content string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]string{"type": relay.TypeMessage, "content": content}))
}

// readNotice reads the next notice, failing after two seconds.
func readNotice(t *testing.T, conn *websocket.Conn) relay.Notice {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var notice relay.Notice
	require.NoError(t, conn.ReadJSON(&notice))
	return notice
}

// expectNotice reads the next notice and checks sender and content.
func expectNotice(t *testing.T, conn *websocket.Conn, sender, content string) relay.Notice {
	t.Helper()

	notice := readNotice(t, conn)
	require.Equal(t, relay.TypeMessage, notice.Type)
	require.Equal(t, sender, notice.Sender)
	require.Equal(t, content, notice.Content)
	require.Positive(t, notice.Timestamp)
	return notice
}

// expectNoMessage fails if anything arrives on conn within timeout.
func expectNoMessage(t *testing.T, conn *websocket.Conn, timeout time.Duration) {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	_, data, err := conn.ReadMessage()
	require.Error(t, err, "unexpected message: %s", data)
}

// closeNormally sends a close frame and closes the socket.
func closeNormally(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	err := conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	require.NoError(t, err)
	require.NoError(t, conn.Close())
}

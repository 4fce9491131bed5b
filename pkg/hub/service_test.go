package hub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/NotCoffee418/conso_prod_reconciler/pkg/logger"
	"github.com/NotCoffee418/conso_prod_reconciler/pkg/metrics"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type message struct {
	Type string `json:"type"`
	N    int    `json:"n"`
}

func newServer(t *testing.T, origins []string) (*Hub, *httptest.Server) {
	t.Helper()
	h := New(logger.Nop(), metrics.New(), origins)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = h.ServeWS(w, r, message{Type: "hello"})
	}))
	t.Cleanup(func() {
		h.Close()
		srv.Close()
	})
	return h, srv
}

func dial(t *testing.T, srv *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Count() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_GreetsAndBroadcasts(t *testing.T) {
	h, srv := newServer(t, []string{"*"})
	a := dial(t, srv, nil)
	b := dial(t, srv, nil)

	var got message
	require.NoError(t, a.ReadJSON(&got))
	assert.Equal(t, "hello", got.Type)
	require.NoError(t, b.ReadJSON(&got))

	waitForClients(t, h, 2)
	require.NoError(t, h.Broadcast(message{Type: "result", N: 7}))

	for _, conn := range []*websocket.Conn{a, b} {
		require.NoError(t, conn.ReadJSON(&got))
		assert.Equal(t, message{Type: "result", N: 7}, got)
	}
}

func TestHub_RemovesClosedClients(t *testing.T) {
	h, srv := newServer(t, []string{"*"})
	conn := dial(t, srv, nil)
	waitForClients(t, h, 1)

	conn.Close()
	waitForClients(t, h, 0)
	assert.NoError(t, h.Broadcast(message{Type: "result"}))
}

func TestHub_RejectsUnknownOrigin(t *testing.T) {
	_, srv := newServer(t, []string{"http://dashboard.local"})
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn := dial(t, srv, http.Header{"Origin": {"http://dashboard.local"}})
	var got message
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "hello", got.Type)
}

package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainquest/platform/internal/auth"
	"github.com/chainquest/platform/internal/infra"
)

func wsTestServer(t *testing.T) (*httptest.Server, *infra.WSHub, *auth.JWTManager) {
	t.Helper()
	hub := infra.NewWSHub(noopLogger())
	jwtMgr := auth.NewJWTManager("0123456789abcdef0123456789abcdef", time.Hour, time.Hour)
	srv := httptest.NewServer(auth.AuthenticatePlayer(jwtMgr)(http.HandlerFunc(NewWSHandler(hub).Connect)))
	t.Cleanup(srv.Close)
	return srv, hub, jwtMgr
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWSConnectDeliversPlayerNotifications(t *testing.T) {
	srv, hub, jwtMgr := wsTestServer(t)

	playerID := uuid.New()
	token, err := jwtMgr.GenerateToken(auth.RealmPlayer, playerID, "p@test.io", "")
	require.NoError(t, err)

	header := http.Header{"Authorization": []string{"Bearer " + token}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	// The server goroutine joins the room right after the handshake.
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.NotifyPlayer(playerID, "cq.player.leveled_up", map[string]int{"to_level": 2})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg infra.WSMessage
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, "cq.player.leveled_up", msg.Event)
}

func TestWSConnectNotDeliveredAcrossPlayers(t *testing.T) {
	srv, hub, jwtMgr := wsTestServer(t)

	playerID := uuid.New()
	token, err := jwtMgr.GenerateToken(auth.RealmPlayer, playerID, "p@test.io", "")
	require.NoError(t, err)

	header := http.Header{"Authorization": []string{"Bearer " + token}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.NotifyPlayer(uuid.New(), "cq.player.leveled_up", nil)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "another player's notification must not reach this connection")
}

func TestWSConnectRejectsMissingToken(t *testing.T) {
	srv, _, _ := wsTestServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWSDisconnectLeavesRoom(t *testing.T) {
	srv, hub, jwtMgr := wsTestServer(t)

	playerID := uuid.New()
	token, err := jwtMgr.GenerateToken(auth.RealmPlayer, playerID, "p@test.io", "")
	require.NoError(t, err)

	header := http.Header{"Authorization": []string{"Bearer " + token}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.RoomCount() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool { return hub.RoomCount() == 0 }, time.Second, 10*time.Millisecond)
}

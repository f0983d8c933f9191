package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cardtable-online/internal/client"
	"cardtable-online/internal/jsonrpc"
	"cardtable-online/internal/lobby"
	"cardtable-online/internal/rpc"
)

type testServer struct {
	srv   *Server
	http  *httptest.Server
	wsURL string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	srv, err := New(Config{ReadLimit: 2048})
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &testServer{
		srv:   srv,
		http:  ts,
		wsURL: "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws",
	}
}

func (ts *testServer) dial(t *testing.T) *client.Client {
	t.Helper()
	c, err := client.Dial(ts.wsURL)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func (ts *testServer) dialSession(t *testing.T, sessionID string) *client.Client {
	t.Helper()
	c, err := client.Dial(ts.wsURL + "?sessionId=" + sessionID)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func login(t *testing.T, c *client.Client, nickname string) lobby.Identity {
	t.Helper()
	var identity lobby.Identity
	require.NoError(t, c.Call("user_set_name", map[string]any{"nickname": nickname}, &identity))
	return identity
}

func TestWelcomeNotification(t *testing.T) {
	ts := newTestServer(t)
	c := ts.dial(t)

	n, err := c.NextNotification()
	require.NoError(t, err)
	assert.Equal(t, "system", n.Method)

	var notice rpc.SystemNotice
	require.NoError(t, json.Unmarshal(n.Params, &notice))
	assert.Equal(t, "connected", notice.Code)
	assert.Equal(t, "Welcome to the game server", notice.Message)
}

func TestPing(t *testing.T) {
	ts := newTestServer(t)
	c := ts.dial(t)

	var notice rpc.SystemNotice
	require.NoError(t, c.Call("ping", nil, &notice))
	assert.Equal(t, "pong", notice.Code)
}

func TestUnknownMethod(t *testing.T) {
	ts := newTestServer(t)
	c := ts.dial(t)

	err := c.Call("no_such_method", nil, nil)
	var rpcErr *client.RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, jsonrpc.CodeMethodNotFound, rpcErr.Code)
	assert.Equal(t, "Method not found", rpcErr.Message)
}

func TestMalformedPayload(t *testing.T) {
	ts := newTestServer(t)
	c := ts.dial(t)

	require.NoError(t, c.Send([]byte(`{"jsonrpc":"2.0",`)))
	rpcErr, err := c.NextError()
	require.NoError(t, err)
	assert.Equal(t, jsonrpc.CodeParseError, rpcErr.Code)
	assert.Equal(t, "Parse error", rpcErr.Message)

	// Valid JSON that is not a JSON-RPC frame.
	require.NoError(t, c.Send([]byte(`{"jsonrpc":"2.0","id":1}`)))
	rpcErr, err = c.NextError()
	require.NoError(t, err)
	assert.Equal(t, jsonrpc.CodeInvalidRequest, rpcErr.Code)
	assert.Equal(t, "Invalid Request", rpcErr.Message)

	// The connection survives both.
	var notice rpc.SystemNotice
	require.NoError(t, c.Call("ping", nil, &notice))
	assert.Equal(t, "pong", notice.Code)
}

func TestInvalidParams(t *testing.T) {
	ts := newTestServer(t)
	c := ts.dial(t)
	login(t, c, "Alice")

	err := c.Call("room_join", map[string]any{"room_id": "not-a-number"}, nil)
	var rpcErr *client.RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, jsonrpc.CodeInvalidParams, rpcErr.Code)
	assert.Equal(t, "Invalid params", rpcErr.Message)
}

func TestSetName(t *testing.T) {
	ts := newTestServer(t)

	alice := login(t, ts.dial(t), "Alice")
	assert.Equal(t, int64(1), alice.ID)
	assert.Equal(t, "Alice", alice.Username)

	bob := login(t, ts.dial(t), "Bob")
	assert.Equal(t, int64(2), bob.ID)

	err := ts.dial(t).Call("user_set_name", map[string]any{"nickname": "Alice"}, nil)
	var rpcErr *client.RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, jsonrpc.CodeServerError, rpcErr.Code)
	assert.Equal(t, "UserExists", rpcErr.Message)
}

func TestLobbyFlow(t *testing.T) {
	ts := newTestServer(t)

	aliceConn := ts.dial(t)
	bobConn := ts.dial(t)
	charlieConn := ts.dial(t)

	alice := login(t, aliceConn, "Alice")
	bob := login(t, bobConn, "Bob")
	login(t, charlieConn, "Charlie")

	var detail lobby.Detail
	require.NoError(t, aliceConn.Call("room_create", map[string]any{
		"name":         "Friday Night",
		"player_limit": 4,
	}, &detail))
	assert.Equal(t, uint32(1), detail.ID)
	assert.Equal(t, "Friday Night", detail.Name)
	assert.Equal(t, lobby.RoomWaiting, detail.State)
	assert.Equal(t, alice.ID, detail.HostID)
	require.Len(t, detail.Players, 1)
	assert.True(t, detail.Players[0].IsHost)

	require.NoError(t, bobConn.Call("room_join", map[string]any{"room_id": detail.ID}, &detail))
	require.NoError(t, charlieConn.Call("room_join", map[string]any{"room_id": detail.ID}, &detail))
	require.Len(t, detail.Players, 3)

	var list struct {
		Rooms []lobby.Summary `json:"rooms"`
	}
	require.NoError(t, charlieConn.Call("room_list", nil, &list))
	require.Len(t, list.Rooms, 1)
	assert.Equal(t, 3, list.Rooms[0].PlayerCount)
	assert.Equal(t, 4, list.Rooms[0].PlayerLimit)

	// Starting before everyone is prepared, or from a non-host, fails.
	err := aliceConn.Call("room_start", nil, nil)
	var rpcErr *client.RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, "PlayersNotReady", rpcErr.Message)

	for _, c := range []*client.Client{aliceConn, bobConn, charlieConn} {
		require.NoError(t, c.Call("room_ready", map[string]any{"prepared": true}, &detail))
	}
	for _, p := range detail.Players {
		assert.Equal(t, lobby.PlayerPrepared, p.State)
	}

	err = bobConn.Call("room_start", nil, nil)
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, jsonrpc.CodeServerError, rpcErr.Code)
	assert.Equal(t, "NotHost", rpcErr.Message)

	require.NoError(t, aliceConn.Call("room_start", nil, &detail))
	assert.Equal(t, lobby.RoomInGame, detail.State)

	round := ts.srv.rooms.Round(detail.ID)
	require.NotNil(t, round)
	assert.Equal(t, 3, round.Table().SeatedCount())

	// The room is closed to late joiners once in game.
	lateConn := ts.dial(t)
	login(t, lateConn, "Dave")
	err = lateConn.Call("room_join", map[string]any{"room_id": detail.ID}, nil)
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, "RoomInProgress", rpcErr.Message)

	// Leaving an in-progress room is allowed.
	var left struct {
		RoomID uint32 `json:"room_id"`
	}
	require.NoError(t, bobConn.Call("room_leave", nil, &left))
	assert.Equal(t, detail.ID, left.RoomID)

	remaining, err2 := ts.srv.rooms.Detail(detail.ID)
	require.NoError(t, err2)
	for _, p := range remaining.Players {
		assert.NotEqual(t, bob.ID, p.UserID)
	}
}

func TestHostMigration(t *testing.T) {
	ts := newTestServer(t)

	aliceConn := ts.dial(t)
	bobConn := ts.dial(t)
	login(t, aliceConn, "Alice")
	bob := login(t, bobConn, "Bob")

	var detail lobby.Detail
	require.NoError(t, aliceConn.Call("room_create", map[string]any{"player_limit": 4}, &detail))
	assert.Equal(t, "Room 1", detail.Name)
	require.NoError(t, bobConn.Call("room_join", map[string]any{"room_id": detail.ID}, &detail))

	require.NoError(t, aliceConn.Call("room_leave", nil, nil))

	detail, err := ts.srv.rooms.Detail(detail.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, detail.HostID)
	require.Len(t, detail.Players, 1)
	assert.True(t, detail.Players[0].IsHost)
}

func TestInvalidPlayerLimit(t *testing.T) {
	ts := newTestServer(t)
	c := ts.dial(t)
	login(t, c, "Alice")

	err := c.Call("room_create", map[string]any{"player_limit": 1}, nil)
	var rpcErr *client.RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, jsonrpc.CodeServerError, rpcErr.Code)
	assert.Equal(t, "InvalidPlayerLimit", rpcErr.Message)
}

func TestConfigUpdate(t *testing.T) {
	ts := newTestServer(t)

	aliceConn := ts.dial(t)
	bobConn := ts.dial(t)
	login(t, aliceConn, "Alice")
	login(t, bobConn, "Bob")

	var detail lobby.Detail
	require.NoError(t, aliceConn.Call("room_create", map[string]any{"player_limit": 4}, &detail))
	require.NoError(t, bobConn.Call("room_join", map[string]any{"room_id": detail.ID}, &detail))

	require.NoError(t, aliceConn.Call("room_config_update", map[string]any{"player_limit": 3}, &detail))
	assert.Equal(t, 3, detail.PlayerLimit)

	err := bobConn.Call("room_config_update", map[string]any{"player_limit": 3}, nil)
	var rpcErr *client.RPCError
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, "NotHost", rpcErr.Message)
}

func TestDisconnectEvictsFromRoom(t *testing.T) {
	ts := newTestServer(t)

	aliceConn := ts.dial(t)
	bobConn := ts.dial(t)
	login(t, aliceConn, "Alice")
	bob := login(t, bobConn, "Bob")

	var detail lobby.Detail
	require.NoError(t, aliceConn.Call("room_create", map[string]any{"player_limit": 4}, &detail))
	require.NoError(t, bobConn.Call("room_join", map[string]any{"room_id": detail.ID}, &detail))

	roomID := detail.ID
	require.NoError(t, aliceConn.Close())

	require.Eventually(t, func() bool {
		d, err := ts.srv.rooms.Detail(roomID)
		return err == nil && d.HostID == bob.ID && len(d.Players) == 1
	}, 2*time.Second, 10*time.Millisecond)
}

func TestReconnectResumesIdentity(t *testing.T) {
	ts := newTestServer(t)

	first := ts.dialSession(t, "sess-resume")
	login(t, first, "Alice")
	require.NoError(t, first.Close())

	// Teardown has finished once the hub has dropped the client.
	require.Eventually(t, func() bool {
		return ts.srv.hub.ClientCount() == 0
	}, 2*time.Second, 10*time.Millisecond)

	second := ts.dialSession(t, "sess-resume")
	var detail lobby.Detail
	require.NoError(t, second.Call("room_create", map[string]any{"player_limit": 2}, &detail))
	require.Len(t, detail.Players, 1)
	assert.Equal(t, "Alice", detail.Players[0].Username)
}

func TestHTTPEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.http.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))

	c := ts.dial(t)
	var notice rpc.SystemNotice
	require.NoError(t, c.Call("ping", nil, &notice))

	resp, err = http.Get(ts.http.URL + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "lobby_connections_total 1")
	assert.Contains(t, string(body), `lobby_rpc_calls_total{method="ping"} 1`)
}

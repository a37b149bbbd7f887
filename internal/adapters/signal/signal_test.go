package signal

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/Karaoke/internal/app"
	"github.com/dkeye/Karaoke/internal/app/orch"
	"github.com/dkeye/Karaoke/internal/auth"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	srv    *httptest.Server
	orch   *orch.Orchestrator
	tokens *auth.Tokens
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	rooms := app.NewRoomStore(nil, app.DefaultOptions())
	t.Cleanup(rooms.Close)
	rooms.Create("ABCDE", "host")

	tokens, err := auth.NewTokens("test-secret")
	require.NoError(t, err)
	o := orch.New(rooms, nil, nil)
	o.Verifier = tokens

	ctl := NewSignalWSController(o, Settings{MessagesPerSecond: 100})
	r := gin.New()
	r.GET("/ws/:roomCode", func(c *gin.Context) { ctl.HandleSignal(context.Background(), c) })

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, orch: o, tokens: tokens}
}

func (ts *testServer) dial(t *testing.T, code string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.srv.URL, "http") + "/ws/" + code
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func readMsg(t *testing.T, ws *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func send(t *testing.T, ws *websocket.Conn, v any) {
	t.Helper()
	require.NoError(t, ws.WriteJSON(v))
}

func TestLegacyMobileHello(t *testing.T) {
	ts := newTestServer(t)
	ws := ts.dial(t, "abcde")

	send(t, ws, map[string]any{"type": "HELLO", "role": "mobile", "name": "Ana", "userId": "u1"})

	assert.Equal(t, "PARTICIPANTS", readMsg(t, ws)["type"])
	hello := readMsg(t, ws)
	assert.Equal(t, "HELLO", hello["type"])
	assert.Equal(t, "ABCDE", hello["roomCode"])
	assert.Equal(t, "mobile", hello["role"])
	assert.Equal(t, "Ana", hello["name"])
	assert.Equal(t, "u1", hello["odUserId"])

	state := readMsg(t, ws)
	assert.Equal(t, "STATE", state["type"])
	inner := state["state"].(map[string]any)
	assert.Equal(t, "ABCDE", inner["roomCode"])
	assert.Nil(t, inner["nowPlaying"])

	parts := readMsg(t, ws)
	assert.Equal(t, "PARTICIPANTS", parts["type"])
	list := parts["participants"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "Ana", list[0].(map[string]any)["name"])
}

func TestTokenHelloAssignsNickname(t *testing.T) {
	ts := newTestServer(t)
	first := ts.dial(t, "ABCDE")
	send(t, first, map[string]any{"type": "HELLO", "role": "mobile", "name": "Ana", "userId": "u1"})
	for i := 0; i < 4; i++ {
		readMsg(t, first)
	}

	token, err := ts.tokens.IssueTV("ABCDE")
	require.NoError(t, err)
	tv := ts.dial(t, "ABCDE")
	send(t, tv, map[string]any{"type": "HELLO", "token": token})
	hello := readMsg(t, tv)
	assert.Equal(t, "HELLO", hello["type"])
	assert.Equal(t, "tv", hello["role"])
	assert.Equal(t, "tv_ABCDE", hello["odUserId"])
	assert.Equal(t, "STATE", readMsg(t, tv)["type"])
	assert.Equal(t, "PARTICIPANTS", readMsg(t, tv)["type"])
}

func TestWrongRoomTokenCloses(t *testing.T) {
	ts := newTestServer(t)
	token, err := ts.tokens.IssueTV("ZZZZZ")
	require.NoError(t, err)

	ws := ts.dial(t, "ABCDE")
	send(t, ws, map[string]any{"type": "HELLO", "token": token})
	msg := readMsg(t, ws)
	assert.Equal(t, "ERROR", msg["type"])
	assert.Equal(t, "wrong_room", msg["error"])

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = ws.ReadMessage()
	assert.Error(t, err)
}

func TestInvalidTokenCloses(t *testing.T) {
	ts := newTestServer(t)
	ws := ts.dial(t, "ABCDE")
	send(t, ws, map[string]any{"type": "HELLO", "token": "garbage"})
	msg := readMsg(t, ws)
	assert.Equal(t, "ERROR", msg["type"])
	assert.Equal(t, "invalid_token", msg["error"])
}

func TestUnknownRoom(t *testing.T) {
	ts := newTestServer(t)
	ws := ts.dial(t, "ZZZZZ")
	msg := readMsg(t, ws)
	assert.Equal(t, "ERROR", msg["type"])
	assert.Equal(t, "room_not_found", msg["error"])
}

func TestOtherMessagesAreAcked(t *testing.T) {
	ts := newTestServer(t)
	ws := ts.dial(t, "ABCDE")
	send(t, ws, map[string]any{"type": "PING"})
	assert.Equal(t, "ACK", readMsg(t, ws)["type"])
}

func TestDisconnectKeepsParticipantVisible(t *testing.T) {
	ts := newTestServer(t)
	ws := ts.dial(t, "ABCDE")
	send(t, ws, map[string]any{"type": "HELLO", "role": "mobile", "name": "Ana", "userId": "u1"})
	for i := 0; i < 4; i++ {
		readMsg(t, ws)
	}
	require.NoError(t, ws.Close())

	require.Eventually(t, func() bool {
		r, ok := ts.orch.Rooms.Get("ABCDE")
		if !ok {
			return false
		}
		var online int
		ts.orch.Rooms.DoIfPresent(r.Code(), func(lr *app.LiveRoom) { online = lr.OnlineParticipants() })
		return online == 0
	}, 2*time.Second, 10*time.Millisecond)

	parts, err := ts.orch.Participants(context.Background(), "ABCDE")
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, "Ana", parts[0].Name)
}

func TestWindowLimiter(t *testing.T) {
	rl := NewWindowLimiter(2, time.Second)
	now := time.Unix(1000, 0)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	now = now.Add(1500 * time.Millisecond)
	assert.True(t, rl.Allow("a"))

	rl.Forget("a")
	assert.True(t, rl.Allow("a"))
	assert.True(t, NewWindowLimiter(0, time.Second).Allow("x"))
}

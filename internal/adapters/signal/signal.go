package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Karaoke/internal/app/orch"
	"github.com/dkeye/Karaoke/internal/core"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Settings tunes every socket the controller accepts.
type Settings struct {
	ReadLimit         int64
	PingPeriod        time.Duration
	WriteWait         time.Duration
	SendBuffer        int
	MessagesPerSecond int
}

func (s Settings) withDefaults() Settings {
	if s.ReadLimit <= 0 {
		s.ReadLimit = 32768
	}
	if s.PingPeriod <= 0 {
		s.PingPeriod = 54 * time.Second
	}
	if s.WriteWait <= 0 {
		s.WriteWait = 5 * time.Second
	}
	if s.SendBuffer <= 0 {
		s.SendBuffer = 32
	}
	return s
}

// pongWait must exceed PingPeriod so one missed pong is tolerated.
func (s Settings) pongWait() time.Duration { return s.PingPeriod * 10 / 9 }

type SignalWSController struct {
	Orch     *orch.Orchestrator
	settings Settings
}

func NewSignalWSController(o *orch.Orchestrator, s Settings) *SignalWSController {
	return &SignalWSController{Orch: o, settings: s.withDefaults()}
}

// WsSignalConn is the core.SignalConnection over one websocket. Frames are
// queued on send and written by writePump.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame
	sid  string

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

// Close stops accepting frames; writePump flushes what is queued and closes the socket.
func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := c.GetString("client_token")
	code := domain.NormalizeCode(c.Param("roomCode"))
	log.Info().Str("module", "signal").Str("sid", sid).Str("room", string(code)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.settings.SendBuffer),
		sid:  sid,
	}
	go ctl.writePump(conn)

	if err := ctl.Orch.Open(ctx, code); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", sid).Str("room", string(code)).Msg("open room")
		ctl.sendError(conn, err)
		conn.Close()
		return
	}

	go ctl.readPump(ctx, code, conn)
}

package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/Karaoke/internal/app"
	"github.com/dkeye/Karaoke/internal/app/orch"
	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(c *WsSignalConn) {
	ticker := time.NewTicker(ctl.settings.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.settings.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Str("sid", c.sid).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.settings.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("sid", c.sid).Msg("ping failed")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, code domain.RoomCode, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", c.sid).Str("room", string(code)).Msg("readPump closing")
		ctl.Orch.Leave(ctx, code, c)
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.settings.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.settings.pongWait()))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.settings.pongWait()))
	})

	limiter := NewWindowLimiter(ctl.settings.MessagesPerSecond, time.Second)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn().Err(err).Str("module", "signal").Str("sid", c.sid).Msg("readPump read error")
			}
			return
		}
		if !limiter.Allow(c.sid) {
			log.Warn().Str("module", "signal").Str("sid", c.sid).Msg("message rate exceeded, dropping")
			continue
		}
		if !ctl.handleMessage(ctx, code, c, data) {
			return
		}
	}
}

type envelope struct {
	Type   string `json:"type"`
	Token  string `json:"token,omitempty"`
	Role   string `json:"role,omitempty"`
	Name   string `json:"name,omitempty"`
	UserID string `json:"userId,omitempty"`
}

// handleMessage reports false when the socket must be closed.
func (ctl *SignalWSController) handleMessage(ctx context.Context, code domain.RoomCode, c *WsSignalConn, data []byte) bool {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", c.sid).Msg("bad json")
		return true
	}

	switch env.Type {
	case app.MsgHello:
		return ctl.handleHello(ctx, code, c, env)
	default:
		ctl.sendJSON(c, app.AckMessage{Type: app.MsgAck})
		return true
	}
}

func (ctl *SignalWSController) handleHello(ctx context.Context, code domain.RoomCode, c *WsSignalConn, env envelope) bool {
	res, err := ctl.Orch.Hello(ctx, code, c, orch.HelloRequest{
		Token:  env.Token,
		Role:   env.Role,
		Name:   env.Name,
		UserID: env.UserID,
	})
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", c.sid).Str("room", string(code)).Msg("hello rejected")
		ctl.sendError(c, err)
		return false
	}
	log.Info().Str("module", "signal").Str("sid", c.sid).Str("room", string(code)).
		Str("role", string(res.Role)).Str("name", res.Name).Msg("hello")
	return true
}

func (ctl *SignalWSController) sendJSON(c *WsSignalConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

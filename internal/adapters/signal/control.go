package signal

import (
	"github.com/dkeye/Karaoke/internal/app"
	"github.com/dkeye/Karaoke/internal/domain"
)

func (ctl *SignalWSController) sendError(c *WsSignalConn, err error) {
	ctl.sendJSON(c, app.ErrorMessage{
		Type:    app.MsgError,
		Error:   domain.Code(err),
		Message: domain.Message(err),
	})
}

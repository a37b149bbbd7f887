package http

import (
	"errors"
	"io"

	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/gin-gonic/gin"
)

// bindBody decodes an optional JSON body; a missing body leaves v zeroed.
func bindBody(c *gin.Context, v any) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, domain.WithMessage(domain.ErrValidation, "JSON inválido"))
		return false
	}
	return true
}

func roomCode(c *gin.Context) domain.RoomCode {
	return domain.NormalizeCode(c.Param("roomCode"))
}

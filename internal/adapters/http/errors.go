package http

import (
	"errors"
	"net/http"

	"github.com/dkeye/Karaoke/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func statusOf(code string) int {
	switch code {
	case "room_not_found", "not_found", "user_not_found":
		return http.StatusNotFound
	case "cooldown":
		return http.StatusTooManyRequests
	case "unauthorized", "invalid_token", "invalid_password", "invalid_credentials", "no_password":
		return http.StatusUnauthorized
	case "forbidden", "wrong_room":
		return http.StatusForbidden
	case "email_registered":
		return http.StatusConflict
	case "internal_error":
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}

// writeError renders err as {"error": code, "message"?: text}.
func writeError(c *gin.Context, err error) {
	code := domain.Code(err)
	status := statusOf(code)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("request failed")
	}

	body := gin.H{"error": code}
	if msg := domain.Message(err); msg != "" {
		body["message"] = msg
	}
	var cd *domain.CooldownError
	if errors.As(err, &cd) {
		body["cooldownMs"] = cd.Window.Milliseconds()
	}
	if code == "email_registered" {
		body["requiresLogin"] = true
	}
	c.AbortWithStatusJSON(status, body)
}

package http

import (
	"strings"

	"github.com/dkeye/Karaoke/internal/core"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	clientTokenKey = "client_token"
	principalKey   = "principal"
)

// ClientTokenMiddleware keeps a stable anonymous id in the session cookie
// for log correlation.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		token, _ := session.Get(clientTokenKey).(string)
		if token == "" {
			token = uuid.NewString()
			session.Set(clientTokenKey, token)
			if err := session.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("save session")
			}
		}
		c.Set(clientTokenKey, token)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// BearerAuth attaches the verified principal when a valid token is present.
// It never rejects; handlers decide what they require.
func BearerAuth(verifier core.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := bearerToken(c); token != "" && verifier != nil {
			p, err := verifier.Verify(token)
			if err != nil {
				log.Debug().Err(err).Str("module", "adapters.http").Str("sid", c.GetString(clientTokenKey)).Msg("bearer rejected")
			} else {
				c.Set(principalKey, p)
			}
		}
		c.Next()
	}
}

// userPrincipal returns the caller when it authenticated with a user token.
func userPrincipal(c *gin.Context) *core.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*core.Principal)
	if p == nil || p.Kind != core.PrincipalUser {
		return nil
	}
	return p
}

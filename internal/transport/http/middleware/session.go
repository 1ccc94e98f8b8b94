package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	"notewise/internal/pkg/jwtutil"
	"notewise/internal/transport/http/response"
)

const ContextSessionIDKey = "session_id"

// SessionToken requires a bearer session token and exposes its session id to
// handlers.
func SessionToken(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
		if authHeader == "" {
			response.Error(c, 401, response.CodeUnauthorized, "missing authorization header")
			c.Abort()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(authHeader, prefix) {
			response.Error(c, 401, response.CodeUnauthorized, "invalid authorization scheme")
			c.Abort()
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, prefix))
		claims, err := jwtutil.ParseToken(secret, token)
		if err != nil || claims.SessionID == "" {
			response.Error(c, 401, response.CodeUnauthorized, "invalid or expired session token")
			c.Abort()
			return
		}

		c.Set(ContextSessionIDKey, claims.SessionID)
		c.Next()
	}
}

func SessionID(c *gin.Context) (string, bool) {
	id := c.GetString(ContextSessionIDKey)
	return id, id != ""
}

// InternalToken guards service-to-service routes with a shared secret. An
// empty token leaves the route open.
func InternalToken(token string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			c.Next()
			return
		}
		got := c.GetHeader("X-Internal-Token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			response.Bare(c, 403, "forbidden")
			c.Abort()
			return
		}
		c.Next()
	}
}

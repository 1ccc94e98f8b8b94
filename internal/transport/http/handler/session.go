package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"notewise/internal/pkg/jwtutil"
	"notewise/internal/transport/http/response"
)

type SessionHandler struct {
	secret string
	ttl    time.Duration
}

type SessionResponse struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

func NewSessionHandler(secret string, ttl time.Duration) *SessionHandler {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &SessionHandler{secret: secret, ttl: ttl}
}

// Issue starts a new anonymous session.
func (h *SessionHandler) Issue(c *gin.Context) {
	sessionID := uuid.NewString()
	token, err := jwtutil.GenerateToken(h.secret, h.ttl, sessionID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "issue session failed")
		return
	}
	response.OK(c, SessionResponse{
		Token:     token,
		SessionID: sessionID,
		ExpiresAt: time.Now().Add(h.ttl),
	})
}

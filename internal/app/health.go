package app

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ifitclub/ifit-agent/internal/session"
)

// HealthChecker reports process liveness plus the session lifecycle state,
// so a shell polling /health can tell "up and logged out" from "not up".
type HealthChecker struct {
	sessions *session.Manager
}

func NewHealthChecker(sessions *session.Manager) *HealthChecker {
	return &HealthChecker{
		sessions: sessions,
	}
}

func (h *HealthChecker) Handler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "pass",
		"session": h.sessions.State().String(),
	})
}

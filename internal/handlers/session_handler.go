package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"chatauth/internal/services"
)

// SessionHandler — read-only проекции для отчётности, не часть протокола.
type SessionHandler struct {
	Sessions *services.SessionService
}

func NewSessionHandler(sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{Sessions: sessions}
}

func (h *SessionHandler) GetByCorrelationID(c *gin.Context) {
	correlationID := c.Param("correlation_id")
	if correlationID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "correlation_id required"})
		return
	}

	sess, err := h.Sessions.FindByCorrelationID(c.Request.Context(), correlationID)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *SessionHandler) Stats(c *gin.Context) {
	counts, err := h.Sessions.CountByStatus(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats failed"})
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (h *SessionHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

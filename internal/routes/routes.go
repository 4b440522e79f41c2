package routes

import (
	"github.com/gin-gonic/gin"

	"chatauth/internal/handlers"
)

func SetupRoutes(r *gin.Engine, sessionHandler *handlers.SessionHandler) *gin.Engine {
	r.GET("/health", sessionHandler.Health)

	sessions := r.Group("/sessions")
	{
		sessions.GET("/stats", sessionHandler.Stats)
		sessions.GET("/:correlation_id", sessionHandler.GetByCorrelationID)
	}

	return r
}

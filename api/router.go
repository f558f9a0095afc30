package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"api_pos/internal/bridge"
)

// InitRoutes registers the channel endpoint, the receipt download and the
// liveness probe on the given Gin engine.
func InitRoutes(e *gin.Engine, b *bridge.Bridge, logger *zap.Logger) {
	e.Use(requestID(), accessLog(logger), gin.Recovery())

	handler := NewChannelHandler(b, logger)

	e.POST("/channels/:channel/:method", handler.handleCommand)
	e.GET("/ventas/:id/boleta", handler.handleReceipt)

	e.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
}

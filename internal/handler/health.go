package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthCheck is the public liveness probe under /api.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

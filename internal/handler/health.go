package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health - liveness-проба.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "tracker-service",
		"time":    time.Now().Unix(),
	})
}

// Ready - readiness-проба.
func Ready(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

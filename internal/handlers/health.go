package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Version is stamped at build time via -ldflags.
var Version = "1.0.0"

// Health handles GET /health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"version":   Version,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

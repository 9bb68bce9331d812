package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mixmaster1989/XOBot/internal/services"
)

const defaultHistoryLimit = 10

// UserHandler handles user stats and history reads.
type UserHandler struct {
	games *services.GameService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(games *services.GameService) *UserHandler {
	return &UserHandler{games: games}
}

// GetStats handles GET /user/stats/:user_id. Unknown users get zero-valued
// stats; no row is created by reading.
func (h *UserHandler) GetStats(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id must be an integer"})
		return
	}

	stats, err := h.games.GetStats(c.Request.Context(), userID, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetHistory handles GET /user/history/:user_id, newest games first.
func (h *UserHandler) GetHistory(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id must be an integer"})
		return
	}

	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	games, err := h.games.GetRecentGames(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"games":   games,
	})
}

package handlers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mixmaster1989/XOBot/internal/auth"
	"github.com/mixmaster1989/XOBot/internal/ratelimit"
	"github.com/mixmaster1989/XOBot/internal/services"
)

// GameHandler handles the win/lose endpoints called by the webapp.
type GameHandler struct {
	games   *services.GameService
	limiter *ratelimit.Limiter
}

// NewGameHandler creates a new GameHandler
func NewGameHandler(games *services.GameService, limiter *ratelimit.Limiter) *GameHandler {
	return &GameHandler{games: games, limiter: limiter}
}

type gameRequest struct {
	UserID    int64       `json:"user_id"`
	Username  string      `json:"username"`
	Timestamp interface{} `json:"timestamp"` // client-side clock, accepted and ignored
}

// bindGameRequest parses the body and runs the shared gate checks. A false
// return means a response has already been written.
func (h *GameHandler) bindGameRequest(c *gin.Context) (*gameRequest, bool) {
	var req gameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No data provided"})
		return nil, false
	}

	if req.UserID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return nil, false
	}

	// When auth is enforced the body's user_id must be the verified one.
	if authID, ok := auth.GetUserID(c); ok && authID != req.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "user_id does not match authenticated user"})
		return nil, false
	}

	if !h.limiter.Allow(req.UserID, time.Now()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
		return nil, false
	}

	return &req, true
}

// Win handles POST /game/win: records the win, issues a promo code when the
// daily quota allows, and notifies the player.
func (h *GameHandler) Win(c *gin.Context) {
	req, ok := h.bindGameRequest(c)
	if !ok {
		return
	}

	result, err := h.games.RecordWin(c.Request.Context(), req.UserID, req.Username, time.Now())
	if err != nil {
		if errors.Is(err, services.ErrGenerationExhausted) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate promo code"})
			return
		}
		log.Printf("Error recording win for user %d: %v", req.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record game"})
		return
	}

	if result.LimitReached {
		c.JSON(http.StatusOK, gin.H{
			"status":        "ok",
			"message_sent":  true,
			"promo_code":    nil,
			"limit_reached": true,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"promo_code": result.PromoCode,
	})
}

// Lose handles POST /game/lose: records the loss and notifies the player.
func (h *GameHandler) Lose(c *gin.Context) {
	req, ok := h.bindGameRequest(c)
	if !ok {
		return
	}

	if err := h.games.RecordLoss(c.Request.Context(), req.UserID, req.Username, time.Now()); err != nil {
		log.Printf("Error recording loss for user %d: %v", req.UserID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record game"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Loss recorded",
	})
}

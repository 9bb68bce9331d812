package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mixmaster1989/XOBot/internal/auth"
	"github.com/mixmaster1989/XOBot/internal/repository"
)

// AuthHandler exchanges Telegram WebApp init data for a session token.
type AuthHandler struct {
	ledger   *repository.Ledger
	botToken string
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(ledger *repository.Ledger, botToken string) *AuthHandler {
	return &AuthHandler{ledger: ledger, botToken: botToken}
}

// TelegramLogin handles POST /auth/telegram. The init data signature is
// verified against the bot token before the embedded user_id is trusted.
func (h *AuthHandler) TelegramLogin(c *gin.Context) {
	var req struct {
		InitData string `json:"init_data" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "init_data is required"})
		return
	}

	if h.botToken == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Authentication is not configured"})
		return
	}

	tgUser, err := auth.ValidateInitData(req.InitData, h.botToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid init data"})
		return
	}

	user, err := h.ledger.GetOrCreateUser(c.Request.Context(), tgUser.ID, tgUser.Username, tgUser.FirstName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
		return
	}

	token, err := auth.GenerateToken(tgUser.ID, tgUser.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

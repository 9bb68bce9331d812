package notify

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// sendTimeout bounds the synchronous Telegram call so a slow API never holds
// a game request hostage. Delivery is best-effort.
const sendTimeout = 5 * time.Second

// Notifier delivers a text message to a user on the messaging platform.
// Failures are for logging, never for rolling back recorded game state.
type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// TelegramNotifier sends messages through the Telegram Bot API.
type TelegramNotifier struct {
	api *tgbotapi.BotAPI
}

// NewTelegramNotifier builds a notifier over an existing bot client.
func NewTelegramNotifier(api *tgbotapi.BotAPI) *TelegramNotifier {
	return &TelegramNotifier{api: api}
}

// NewTelegramNotifierFromToken builds a notifier with its own short-timeout
// HTTP client, so sends inside game requests never inherit the long-poll
// client's budget.
func NewTelegramNotifierFromToken(token string) (*TelegramNotifier, error) {
	client := &http.Client{Timeout: sendTimeout}
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}
	return &TelegramNotifier{api: api}, nil
}

// SendMessage delivers one Markdown message to the chat.
func (n *TelegramNotifier) SendMessage(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message to %d: %w", chatID, err)
	}
	return nil
}

// NopNotifier logs instead of sending. Used when no bot token is configured,
// mirroring local development without Telegram access.
type NopNotifier struct{}

func (NopNotifier) SendMessage(_ context.Context, chatID int64, text string) error {
	log.Printf("[notify] no bot token set, message for %d: %s", chatID, text)
	return nil
}

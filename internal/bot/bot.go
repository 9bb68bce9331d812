package bot

import (
	"context"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mixmaster1989/XOBot/internal/config"
	"github.com/mixmaster1989/XOBot/internal/repository"
	"github.com/mixmaster1989/XOBot/internal/services"
)

// Bot is the Telegram command surface: it registers users, launches the
// mini-app and answers stats queries from the same ledger the API writes.
type Bot struct {
	api    *tgbotapi.BotAPI
	ledger *repository.Ledger
	games  *services.GameService
	cfg    *config.Config
}

// New creates a Bot over an existing Telegram client.
func New(api *tgbotapi.BotAPI, ledger *repository.Ledger, games *services.GameService, cfg *config.Config) *Bot {
	return &Bot{
		api:    api,
		ledger: ledger,
		games:  games,
		cfg:    cfg,
	}
}

// Run long-polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30

	updates := b.api.GetUpdatesChan(updateConfig)
	log.Printf("Bot started as @%s", b.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			log.Println("Bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.IsCommand():
		b.handleCommand(ctx, update.Message)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	var err error
	switch msg.Command() {
	case "start":
		err = b.handleStart(ctx, msg)
	case "play":
		err = b.handlePlay(msg)
	case "help":
		err = b.handleHelp(msg)
	case "history":
		err = b.handleHistory(ctx, msg)
	case "promo_info":
		err = b.handlePromoInfo(ctx, msg)
	default:
		return // unknown commands are ignored
	}

	if err != nil {
		log.Printf("Error handling /%s from user %d: %v", msg.Command(), msg.From.ID, err)
	}
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	// Acknowledge first so the client stops its spinner.
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.Printf("Error answering callback: %v", err)
	}

	if query.Data == "stats" {
		if err := b.handleStatsCallback(ctx, query); err != nil {
			log.Printf("Error handling stats callback for user %d: %v", query.From.ID, err)
		}
	}
}

func (b *Bot) reply(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	_, err := b.api.Send(msg)
	return err
}

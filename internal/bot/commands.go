package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mixmaster1989/XOBot/internal/models"
)

const historyLimit = 5

// playKeyboard links to the mini-app with a URL button; the pinned Telegram
// client predates Bot API 6.0 web-app buttons.
func (b *Bot) playKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🎮 Play", b.cfg.Telegram.WebAppURL+"/"),
		),
	)
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	user := msg.From
	if _, err := b.ledger.GetOrCreateUser(ctx, user.ID, user.UserName, user.FirstName); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}

	text := fmt.Sprintf(`👋 Hi, %s!

Welcome to *Tic-Tac-Toe*! ✨

🎮 Play against the AI and win promo codes!

*How it works:*
• Tap "🎮 Play" below
• Win games to earn promo codes
• Up to %d codes per day 🎁

Good luck! 🍀`, user.FirstName, b.cfg.Promo.MaxPerDay)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🎮 Play", b.cfg.Telegram.WebAppURL+"/"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Stats", "stats"),
		),
	)

	return b.reply(msg.Chat.ID, text, &keyboard)
}

func (b *Bot) handlePlay(msg *tgbotapi.Message) error {
	keyboard := b.playKeyboard()
	return b.reply(msg.Chat.ID, "Tap the button below to start playing! 🎮", &keyboard)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := fmt.Sprintf(`📖 *Tic-Tac-Toe rules*

*Goal:*
Be the first to place 3 of your marks in a row — horizontally, vertically or diagonally.

*How to play:*
1. You play ⭕
2. The AI plays ❌
3. Take turns
4. First line of 3 wins

*Promo codes:*
• Each win earns a %d-character promo code
• Up to %d codes per day
• Codes are valid for %d days

*Commands:*
/start — start here
/play — launch the game
/history — your stats and recent games
/promo_info — promo code status
/help — this message

Good luck! 🎯`, b.cfg.Promo.CodeLength, b.cfg.Promo.MaxPerDay, b.cfg.Promo.ExpiryDays)

	return b.reply(msg.Chat.ID, text, nil)
}

func (b *Bot) handleHistory(ctx context.Context, msg *tgbotapi.Message) error {
	text, err := b.statsText(ctx, msg.From.ID)
	if err != nil {
		return err
	}
	return b.reply(msg.Chat.ID, text, nil)
}

func (b *Bot) handlePromoInfo(ctx context.Context, msg *tgbotapi.Message) error {
	stats, err := b.games.GetStats(ctx, msg.From.ID, time.Now())
	if err != nil {
		return err
	}

	text := fmt.Sprintf(`🎟️ *Promo codes*

*Limits:*
• Up to %d codes per day
• Codes are valid for %d days

*Your day so far:*
• Received: %d/%d
• Remaining: %d

*How to get one:*
1. Launch the game with /play
2. Beat the AI
3. The code shows up on screen and arrives here

Play and win! 🎯`,
		b.cfg.Promo.MaxPerDay, b.cfg.Promo.ExpiryDays,
		stats.CodesToday, b.cfg.Promo.MaxPerDay, stats.CodesRemainingToday)

	return b.reply(msg.Chat.ID, text, nil)
}

func (b *Bot) handleStatsCallback(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	text, err := b.statsText(ctx, query.From.ID)
	if err != nil {
		return err
	}

	keyboard := b.playKeyboard()

	// Callbacks can arrive for messages the bot can no longer see (deleted
	// or too old); answer with a fresh message instead of editing.
	if query.Message == nil {
		return b.reply(query.From.ID, text, &keyboard)
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(
		query.Message.Chat.ID, query.Message.MessageID, text, keyboard,
	)
	edit.ParseMode = tgbotapi.ModeMarkdown
	_, err = b.api.Send(edit)
	return err
}

// statsText renders stats plus the last games, shared by /history and the
// stats button.
func (b *Bot) statsText(ctx context.Context, userID int64) (string, error) {
	now := time.Now()
	stats, err := b.games.GetStats(ctx, userID, now)
	if err != nil {
		return "", err
	}
	recent, err := b.games.GetRecentGames(ctx, userID, historyLimit)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 *Your stats*\n\n")
	fmt.Fprintf(&sb, "🏆 Wins: %d\n", stats.TotalWins)
	fmt.Fprintf(&sb, "😔 Losses: %d\n", stats.TotalLosses)
	fmt.Fprintf(&sb, "🎟️ Codes today: %d/%d\n\n", stats.CodesToday, b.cfg.Promo.MaxPerDay)
	fmt.Fprintf(&sb, "*Last %d games:*", historyLimit)

	if len(recent) == 0 {
		sb.WriteString("\nNo games yet — go play! 🎮")
		return sb.String(), nil
	}

	for i, game := range recent {
		emoji, label := "🤝", "Draw"
		switch game.Result {
		case models.GameOutcomeWin:
			emoji, label = "🏆", "Win"
		case models.GameOutcomeLoss:
			emoji, label = "😔", "Loss"
		}
		fmt.Fprintf(&sb, "\n%d. %s %s", i+1, emoji, label)
		if game.PromoCode != nil {
			fmt.Fprintf(&sb, " — `%s`", *game.PromoCode)
		}
	}

	return sb.String(), nil
}

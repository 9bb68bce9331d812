package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mixmaster1989/XOBot/internal/models"
	"github.com/mixmaster1989/XOBot/internal/notify"
	"github.com/mixmaster1989/XOBot/internal/repository"
)

// GameService records game outcomes and drives promo issuance plus the
// best-effort Telegram notification for each result.
type GameService struct {
	ledger   *repository.Ledger
	promos   *PromoService
	notifier notify.Notifier
}

// NewGameService creates a GameService.
func NewGameService(ledger *repository.Ledger, promos *PromoService, notifier notify.Notifier) *GameService {
	return &GameService{
		ledger:   ledger,
		promos:   promos,
		notifier: notifier,
	}
}

// WinResult is the outcome of recording a win.
type WinResult struct {
	PromoCode    string
	LimitReached bool
}

// RecordWin upserts the user, tries to issue a promo code, appends the WIN to
// the game log and notifies the player. The quota branch is a normal outcome,
// not an error; the game is logged either way.
func (s *GameService) RecordWin(ctx context.Context, userID int64, username string, now time.Time) (*WinResult, error) {
	user, err := s.ledger.GetOrCreateUser(ctx, userID, username, "")
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	code, err := s.promos.IssueFor(ctx, userID, now)
	if errors.Is(err, ErrDailyLimitReached) {
		if err := s.ledger.RecordGame(ctx, userID, models.GameOutcomeWin, nil, now); err != nil {
			return nil, err
		}
		s.send(ctx, userID, "🎉 *You won!*\n\nBut you've hit today's promo code limit.\nUp to 3 codes per day 😊")
		return &WinResult{LimitReached: true}, nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.ledger.RecordGame(ctx, userID, models.GameOutcomeWin, &code, now); err != nil {
		return nil, err
	}

	message := fmt.Sprintf(
		"🎉 *%s, you won!*\n\n🎁 Your promo code: `%s`\n\n⏰ *Valid for 30 days!*",
		displayName(user), code,
	)
	s.send(ctx, userID, message)

	return &WinResult{PromoCode: code}, nil
}

// RecordLoss upserts the user, appends the LOSS and notifies the player.
func (s *GameService) RecordLoss(ctx context.Context, userID int64, username string, now time.Time) error {
	user, err := s.ledger.GetOrCreateUser(ctx, userID, username, "")
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}

	if err := s.ledger.RecordGame(ctx, userID, models.GameOutcomeLoss, nil, now); err != nil {
		return err
	}

	message := fmt.Sprintf(
		"😔 *%s, not this time!*\n\nBetter luck next round — play again and grab that promo code! 💪",
		displayName(user),
	)
	s.send(ctx, userID, message)
	return nil
}

// GetStats returns the user's aggregate stats.
func (s *GameService) GetStats(ctx context.Context, userID int64, now time.Time) (*repository.Stats, error) {
	return s.ledger.GetStats(ctx, userID, now)
}

// GetRecentGames returns up to limit recent games, newest first.
func (s *GameService) GetRecentGames(ctx context.Context, userID int64, limit int) ([]models.GameResult, error) {
	return s.ledger.GetRecentGames(ctx, userID, limit)
}

// send delivers a notification and only logs on failure. The recorded game
// state is authoritative whether or not the message arrives.
func (s *GameService) send(ctx context.Context, userID int64, text string) {
	if err := s.notifier.SendMessage(ctx, userID, text); err != nil {
		log.Printf("Warning: notification to user %d failed: %v", userID, err)
	}
}

func displayName(user *models.User) string {
	if user.FirstName != nil && *user.FirstName != "" {
		return *user.FirstName
	}
	if user.Username != nil && *user.Username != "" {
		return *user.Username
	}
	return "Player"
}

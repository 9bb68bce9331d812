package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/mixmaster1989/XOBot/internal/config"
	"github.com/mixmaster1989/XOBot/internal/promo"
	"github.com/mixmaster1989/XOBot/internal/repository"
)

// maxGenerateAttempts bounds the collision retry loop. At 36^5 codes the
// loop exhausting is an operational signal, not an expected outcome.
const maxGenerateAttempts = 10

var (
	// ErrDailyLimitReached means the user already received the maximum number
	// of codes today. Not a failure: callers still record the win.
	ErrDailyLimitReached = errors.New("daily promo code limit reached")

	// ErrGenerationExhausted means every generated candidate collided with an
	// existing code. Surfaced as a server error and logged for the operator.
	ErrGenerationExhausted = errors.New("failed to generate a unique promo code")
)

// PromoService issues promo codes: quota gate first, then a generate and
// insert loop retried on collisions.
type PromoService struct {
	ledger *repository.Ledger
	cfg    config.PromoConfig

	// Serializes quota-check + insert so two concurrent wins for the same
	// user cannot both observe "under quota" and issue a fourth code.
	mu sync.Mutex

	// Swappable in tests to force collisions.
	newCode func(length int) (string, error)
}

// NewPromoService creates a PromoService over the ledger.
func NewPromoService(ledger *repository.Ledger, cfg config.PromoConfig) *PromoService {
	return &PromoService{
		ledger:  ledger,
		cfg:     cfg,
		newCode: promo.Generate,
	}
}

// CountIssuedToday returns how many codes the user received today.
func (s *PromoService) CountIssuedToday(ctx context.Context, userID int64, now time.Time) (int, error) {
	return s.ledger.CountIssuedToday(ctx, userID, now)
}

// CanIssue reports whether the user is still under today's quota.
func (s *PromoService) CanIssue(ctx context.Context, userID int64, now time.Time) (bool, error) {
	count, err := s.ledger.CountIssuedToday(ctx, userID, now)
	if err != nil {
		return false, err
	}
	return count < s.cfg.MaxPerDay, nil
}

// RemainingToday returns how many codes the user may still receive today.
func (s *PromoService) RemainingToday(ctx context.Context, userID int64, now time.Time) (int, error) {
	count, err := s.ledger.CountIssuedToday(ctx, userID, now)
	if err != nil {
		return 0, err
	}
	remaining := s.cfg.MaxPerDay - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// IssueFor issues a new code for the user, or ErrDailyLimitReached when the
// quota is spent, or ErrGenerationExhausted when every candidate collided.
func (s *PromoService) IssueFor(ctx context.Context, userID int64, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ok, err := s.CanIssue(ctx, userID, now)
	if err != nil {
		return "", fmt.Errorf("quota check failed: %w", err)
	}
	if !ok {
		return "", ErrDailyLimitReached
	}

	expiresAt := now.AddDate(0, 0, s.cfg.ExpiryDays)

	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		code, err := s.newCode(s.cfg.CodeLength)
		if err != nil {
			return "", fmt.Errorf("code generation failed: %w", err)
		}

		err = s.ledger.RecordCode(ctx, code, userID, now, expiresAt)
		if err == nil {
			log.Printf("Issued promo code %s for user %d", code, userID)
			return code, nil
		}
		if errors.Is(err, repository.ErrDuplicateCode) {
			continue
		}
		return "", err
	}

	log.Printf("Promo code generation exhausted %d attempts for user %d", maxGenerateAttempts, userID)
	return "", ErrGenerationExhausted
}

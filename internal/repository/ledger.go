package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mixmaster1989/XOBot/internal/models"

	"gorm.io/gorm"
)

// ErrDuplicateCode is returned by RecordCode when the code string already
// exists in the ledger. Callers retry with a fresh code instead of failing.
var ErrDuplicateCode = errors.New("promo code already exists")

// Stats is the read-only aggregate returned by GetStats.
type Stats struct {
	UserID              int64 `json:"user_id"`
	TotalWins           int   `json:"total_wins"`
	TotalLosses         int   `json:"total_losses"`
	CodesToday          int   `json:"codes_today"`
	CodesRemainingToday int   `json:"codes_remaining_today"`
}

// Ledger is the persistent record of users, issued codes and game outcomes.
// It is the source of truth for code uniqueness and daily counts.
type Ledger struct {
	db        *gorm.DB
	maxPerDay int
}

// NewLedger creates a Ledger over the given database handle.
func NewLedger(db *gorm.DB, maxPerDay int) *Ledger {
	return &Ledger{db: db, maxPerDay: maxPerDay}
}

// GetOrCreateUser returns the user row, creating it on first contact.
// For an existing row only NULL name fields are backfilled from non-empty
// arguments; a repeat call never duplicates or overwrites.
func (l *Ledger) GetOrCreateUser(ctx context.Context, userID int64, username, firstName string) (*models.User, error) {
	var user models.User
	err := l.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error

	if err == nil {
		updates := map[string]interface{}{}
		if user.Username == nil && username != "" {
			updates["username"] = username
		}
		if user.FirstName == nil && firstName != "" {
			updates["first_name"] = firstName
		}
		if len(updates) > 0 {
			if err := l.db.WithContext(ctx).Model(&user).Updates(updates).Error; err != nil {
				return nil, fmt.Errorf("failed to backfill user %d: %w", userID, err)
			}
			if username != "" {
				user.Username = &username
			}
			if firstName != "" {
				user.FirstName = &firstName
			}
		}
		return &user, nil
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user = models.User{UserID: userID}
	if username != "" {
		user.Username = &username
	}
	if firstName != "" {
		user.FirstName = &firstName
	}

	if err := l.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user %d: %w", userID, err)
	}
	return &user, nil
}

// RecordCode inserts an issued code for the user. A collision with an
// existing code string comes back as ErrDuplicateCode; any other failure is
// fatal for the request.
func (l *Ledger) RecordCode(ctx context.Context, code string, userID int64, now time.Time, expiresAt time.Time) error {
	row := models.PromoCode{
		Code:        code,
		UserID:      userID,
		GeneratedAt: now,
		ExpiresAt:   expiresAt,
	}

	err := l.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateCode
	}
	if err != nil {
		return fmt.Errorf("failed to record promo code: %w", err)
	}
	return nil
}

// CountIssuedToday counts codes generated for the user since local midnight.
func (l *Ledger) CountIssuedToday(ctx context.Context, userID int64, now time.Time) (int, error) {
	var count int64
	err := l.db.WithContext(ctx).
		Model(&models.PromoCode{}).
		Where("user_id = ? AND generated_at >= ?", userID, startOfDay(now)).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count today's codes: %w", err)
	}
	return int(count), nil
}

// RecordGame appends a game outcome and bumps the matching counter on the
// user row inside one transaction, so a crash cannot leave a history row
// without its counter increment or vice versa.
func (l *Ledger) RecordGame(ctx context.Context, userID int64, result models.GameOutcome, promoCode *string, now time.Time) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		game := models.GameResult{
			UserID:    userID,
			Result:    result,
			Timestamp: now,
			PromoCode: promoCode,
		}
		if err := tx.Create(&game).Error; err != nil {
			return fmt.Errorf("failed to append game result: %w", err)
		}

		var column string
		switch result {
		case models.GameOutcomeWin:
			column = "wins"
		case models.GameOutcomeLoss:
			column = "losses"
		default:
			return nil // draws are logged but not counted
		}

		if err := tx.Model(&models.User{}).Where("user_id = ?", userID).
			Update(column, gorm.Expr(column+" + 1")).Error; err != nil {
			return fmt.Errorf("failed to increment %s for user %d: %w", column, userID, err)
		}
		return nil
	})
}

// GetStats returns the aggregate for a user. An unknown user gets zero-valued
// stats with the full daily allowance; no row is created by reading.
func (l *Ledger) GetStats(ctx context.Context, userID int64, now time.Time) (*Stats, error) {
	stats := &Stats{
		UserID:              userID,
		CodesRemainingToday: l.maxPerDay,
	}

	var user models.User
	err := l.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return stats, nil
	}
	if err != nil {
		return nil, err
	}

	codesToday, err := l.CountIssuedToday(ctx, userID, now)
	if err != nil {
		return nil, err
	}

	stats.TotalWins = user.Wins
	stats.TotalLosses = user.Losses
	stats.CodesToday = codesToday
	stats.CodesRemainingToday = l.maxPerDay - codesToday
	if stats.CodesRemainingToday < 0 {
		stats.CodesRemainingToday = 0
	}
	return stats, nil
}

// GetRecentGames returns up to limit games for the user, newest first.
func (l *Ledger) GetRecentGames(ctx context.Context, userID int64, limit int) ([]models.GameResult, error) {
	var games []models.GameResult
	err := l.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&games).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent games: %w", err)
	}
	return games, nil
}

// startOfDay truncates to local midnight. The quota window is the server's
// calendar day, matching what the bot reports to users.
func startOfDay(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mixmaster1989/XOBot/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	// Named in-memory database so every test gets its own isolated schema
	// while gorm's pooled connections still see the same data.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.PromoCode{},
		&models.GameResult{},
	)
	if err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}

	return db
}

func TestGetOrCreateUserIdempotent(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db, 3)
	ctx := context.Background()

	first, err := ledger.GetOrCreateUser(ctx, 1, "", "")
	if err != nil {
		t.Fatalf("GetOrCreateUser failed: %v", err)
	}
	if first.Username != nil || first.FirstName != nil {
		t.Errorf("expected nil name fields on first contact, got %v / %v", first.Username, first.FirstName)
	}

	// Second call backfills the still-NULL name fields.
	second, err := ledger.GetOrCreateUser(ctx, 1, "alice", "Alice")
	if err != nil {
		t.Fatalf("second GetOrCreateUser failed: %v", err)
	}
	if second.UserID != first.UserID {
		t.Errorf("expected same user id, got %d and %d", first.UserID, second.UserID)
	}
	if second.Username == nil || *second.Username != "alice" {
		t.Errorf("expected username backfilled to alice, got %v", second.Username)
	}

	// A third call with a different name must not overwrite.
	third, err := ledger.GetOrCreateUser(ctx, 1, "mallory", "Mallory")
	if err != nil {
		t.Fatalf("third GetOrCreateUser failed: %v", err)
	}
	if third.Username == nil || *third.Username != "alice" {
		t.Errorf("expected username to stay alice, got %v", third.Username)
	}

	var count int64
	db.Model(&models.User{}).Where("user_id = ?", 1).Count(&count)
	if count != 1 {
		t.Errorf("expected exactly 1 user row, got %d", count)
	}
}

func TestRecordCodeDuplicate(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db, 3)
	ctx := context.Background()
	now := time.Now()
	expires := now.AddDate(0, 0, 30)

	if _, err := ledger.GetOrCreateUser(ctx, 1, "", ""); err != nil {
		t.Fatalf("GetOrCreateUser failed: %v", err)
	}
	if _, err := ledger.GetOrCreateUser(ctx, 2, "", ""); err != nil {
		t.Fatalf("GetOrCreateUser failed: %v", err)
	}

	if err := ledger.RecordCode(ctx, "K7M2X", 1, now, expires); err != nil {
		t.Fatalf("first RecordCode failed: %v", err)
	}

	// Same code for a different user must still be rejected: uniqueness is
	// global, not per user.
	err := ledger.RecordCode(ctx, "K7M2X", 2, now, expires)
	if !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}

	if err := ledger.RecordCode(ctx, "B3C9Q", 2, now, expires); err != nil {
		t.Fatalf("RecordCode with fresh code failed: %v", err)
	}
}

func TestCountIssuedTodayWindow(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db, 3)
	ctx := context.Background()
	now := time.Now()

	if _, err := ledger.GetOrCreateUser(ctx, 1, "", ""); err != nil {
		t.Fatalf("GetOrCreateUser failed: %v", err)
	}

	// Two codes today, one yesterday.
	if err := ledger.RecordCode(ctx, "AAAA1", 1, now, now.AddDate(0, 0, 30)); err != nil {
		t.Fatalf("RecordCode failed: %v", err)
	}
	if err := ledger.RecordCode(ctx, "AAAA2", 1, now.Add(-time.Minute), now.AddDate(0, 0, 30)); err != nil {
		t.Fatalf("RecordCode failed: %v", err)
	}
	yesterday := now.AddDate(0, 0, -1)
	if err := ledger.RecordCode(ctx, "AAAA3", 1, yesterday, yesterday.AddDate(0, 0, 30)); err != nil {
		t.Fatalf("RecordCode failed: %v", err)
	}

	count, err := ledger.CountIssuedToday(ctx, 1, now)
	if err != nil {
		t.Fatalf("CountIssuedToday failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 codes inside today's window, got %d", count)
	}
}

func TestRecordGameIncrementsCounters(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db, 3)
	ctx := context.Background()
	now := time.Now()

	if _, err := ledger.GetOrCreateUser(ctx, 1, "", ""); err != nil {
		t.Fatalf("GetOrCreateUser failed: %v", err)
	}

	code := "K7M2X"
	if err := ledger.RecordGame(ctx, 1, models.GameOutcomeWin, &code, now); err != nil {
		t.Fatalf("RecordGame(WIN) failed: %v", err)
	}
	if err := ledger.RecordGame(ctx, 1, models.GameOutcomeLoss, nil, now); err != nil {
		t.Fatalf("RecordGame(LOSS) failed: %v", err)
	}
	if err := ledger.RecordGame(ctx, 1, models.GameOutcomeLoss, nil, now); err != nil {
		t.Fatalf("RecordGame(LOSS) failed: %v", err)
	}

	var user models.User
	if err := db.Where("user_id = ?", 1).First(&user).Error; err != nil {
		t.Fatalf("failed to load user: %v", err)
	}
	if user.Wins != 1 || user.Losses != 2 {
		t.Errorf("expected 1 win / 2 losses, got %d / %d", user.Wins, user.Losses)
	}

	// Counters must equal the game log, the derivable reconciliation check.
	var wins, losses int64
	db.Model(&models.GameResult{}).Where("user_id = ? AND result = ?", 1, models.GameOutcomeWin).Count(&wins)
	db.Model(&models.GameResult{}).Where("user_id = ? AND result = ?", 1, models.GameOutcomeLoss).Count(&losses)
	if int(wins) != user.Wins || int(losses) != user.Losses {
		t.Errorf("counters diverge from log: %d/%d vs %d/%d", user.Wins, user.Losses, wins, losses)
	}
}

func TestGetStatsUnknownUser(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db, 3)
	ctx := context.Background()

	stats, err := ledger.GetStats(ctx, 999, time.Now())
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.TotalWins != 0 || stats.TotalLosses != 0 || stats.CodesToday != 0 {
		t.Errorf("expected zero-valued stats, got %+v", stats)
	}
	if stats.CodesRemainingToday != 3 {
		t.Errorf("expected full daily allowance 3, got %d", stats.CodesRemainingToday)
	}

	// Reading stats must not create a row as a side effect.
	var count int64
	db.Model(&models.User{}).Where("user_id = ?", 999).Count(&count)
	if count != 0 {
		t.Errorf("GetStats created a user row")
	}
}

func TestGetRecentGamesOrderAndLimit(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedger(db, 3)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	if _, err := ledger.GetOrCreateUser(ctx, 1, "", ""); err != nil {
		t.Fatalf("GetOrCreateUser failed: %v", err)
	}

	for i := 0; i < 7; i++ {
		outcome := models.GameOutcomeLoss
		if i%2 == 0 {
			outcome = models.GameOutcomeWin
		}
		if err := ledger.RecordGame(ctx, 1, outcome, nil, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("RecordGame failed: %v", err)
		}
	}

	games, err := ledger.GetRecentGames(ctx, 1, 5)
	if err != nil {
		t.Fatalf("GetRecentGames failed: %v", err)
	}
	if len(games) != 5 {
		t.Fatalf("expected 5 games, got %d", len(games))
	}
	for i := 1; i < len(games); i++ {
		if games[i].Timestamp.After(games[i-1].Timestamp) {
			t.Errorf("games not ordered newest first at index %d", i)
		}
	}
}

package bot

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mixmaster1989/XOBot/internal/config"
	"github.com/mixmaster1989/XOBot/internal/models"
	"github.com/mixmaster1989/XOBot/internal/notify"
	"github.com/mixmaster1989/XOBot/internal/repository"
	"github.com/mixmaster1989/XOBot/internal/services"
)

// stubTelegram answers the minimal Bot API shapes the client needs and counts
// the methods it saw.
type stubTelegram struct {
	mu      sync.Mutex
	methods []string
}

func (s *stubTelegram) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		method := parts[len(parts)-1]

		s.mu.Lock()
		s.methods = append(s.methods, method)
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch method {
		case "getMe":
			w.Write([]byte(`{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"XOBot","user_name":"xobot"}}`))
		case "sendMessage", "editMessageText":
			w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":1,"chat":{"id":42,"type":"private"}}}`))
		default:
			w.Write([]byte(`{"ok":true,"result":true}`))
		}
	}
}

func (s *stubTelegram) count(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, m := range s.methods {
		if m == method {
			n++
		}
	}
	return n
}

func setupTestDB(t *testing.T) *gorm.DB {
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

func setupTestBot(t *testing.T) (*Bot, *stubTelegram) {
	t.Helper()

	stub := &stubTelegram{}
	srv := httptest.NewServer(stub.handler())
	t.Cleanup(srv.Close)

	api, err := tgbotapi.NewBotAPIWithClient("42:TEST", srv.URL+"/bot%s/%s", srv.Client())
	if err != nil {
		t.Fatalf("failed to build stub client: %v", err)
	}

	cfg := &config.Config{
		Telegram: config.TelegramConfig{WebAppURL: "https://example.com/webapp"},
		Promo:    config.PromoConfig{CodeLength: 5, ExpiryDays: 30, MaxPerDay: 3},
	}

	ledger := repository.NewLedger(setupTestDB(t), cfg.Promo.MaxPerDay)
	promos := services.NewPromoService(ledger, cfg.Promo)
	games := services.NewGameService(ledger, promos, notify.NopNotifier{})

	return New(api, ledger, games, cfg), stub
}

// The pinned client predates web-app buttons, so the keyboards must launch
// the mini-app through plain URL buttons.
func TestKeyboardsUseURLButtons(t *testing.T) {
	b, _ := setupTestBot(t)

	keyboard := b.playKeyboard()
	if len(keyboard.InlineKeyboard) == 0 || len(keyboard.InlineKeyboard[0]) == 0 {
		t.Fatal("play keyboard has no buttons")
	}

	button := keyboard.InlineKeyboard[0][0]
	if button.URL == nil {
		t.Fatal("play button must carry a URL")
	}
	if want := b.cfg.Telegram.WebAppURL + "/"; *button.URL != want {
		t.Errorf("play button URL = %q, want %q", *button.URL, want)
	}
}

func TestStartRepliesWithKeyboard(t *testing.T) {
	b, stub := setupTestBot(t)

	msg := &tgbotapi.Message{
		From: &tgbotapi.User{ID: 42, FirstName: "Alice", UserName: "alice"},
		Chat: &tgbotapi.Chat{ID: 42},
		Text: "/start",
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: 6},
		},
	}

	if err := b.handleStart(context.Background(), msg); err != nil {
		t.Fatalf("handleStart failed: %v", err)
	}
	if got := stub.count("sendMessage"); got != 1 {
		t.Errorf("expected 1 sendMessage, got %d", got)
	}

	user, err := b.ledger.GetOrCreateUser(context.Background(), 42, "", "")
	if err != nil {
		t.Fatalf("GetOrCreateUser failed: %v", err)
	}
	if user.FirstName == nil || *user.FirstName != "Alice" {
		t.Error("/start should register the user with their name")
	}
}

// Callbacks can reference messages the bot no longer sees; the handler must
// answer with a fresh message instead of editing.
func TestStatsCallbackWithoutMessage(t *testing.T) {
	b, stub := setupTestBot(t)

	query := &tgbotapi.CallbackQuery{
		ID:   "cb-1",
		From: &tgbotapi.User{ID: 42, FirstName: "Alice"},
		Data: "stats",
	}

	b.handleCallback(context.Background(), query)

	if got := stub.count("answerCallbackQuery"); got != 1 {
		t.Errorf("expected the callback to be acknowledged, got %d answers", got)
	}
	if got := stub.count("sendMessage"); got != 1 {
		t.Errorf("expected a fresh stats message, got %d sends", got)
	}
	if got := stub.count("editMessageText"); got != 0 {
		t.Errorf("expected no edit without an original message, got %d", got)
	}
}

func TestStatsCallbackEditsOriginalMessage(t *testing.T) {
	b, stub := setupTestBot(t)

	query := &tgbotapi.CallbackQuery{
		ID:   "cb-2",
		From: &tgbotapi.User{ID: 42, FirstName: "Alice"},
		Data: "stats",
		Message: &tgbotapi.Message{
			MessageID: 7,
			Chat:      &tgbotapi.Chat{ID: 42},
		},
	}

	b.handleCallback(context.Background(), query)

	if got := stub.count("editMessageText"); got != 1 {
		t.Errorf("expected the original message to be edited, got %d edits", got)
	}
	if got := stub.count("sendMessage"); got != 0 {
		t.Errorf("expected no fresh message when editing, got %d sends", got)
	}
}

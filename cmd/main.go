package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mixmaster1989/XOBot/internal/auth"
	"github.com/mixmaster1989/XOBot/internal/bot"
	"github.com/mixmaster1989/XOBot/internal/config"
	"github.com/mixmaster1989/XOBot/internal/database"
	"github.com/mixmaster1989/XOBot/internal/handlers"
	"github.com/mixmaster1989/XOBot/internal/notify"
	"github.com/mixmaster1989/XOBot/internal/ratelimit"
	"github.com/mixmaster1989/XOBot/internal/repository"
	"github.com/mixmaster1989/XOBot/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.SecretKey)

	// Connect to database and run migrations
	if err := database.Connect(cfg.Database); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Telegram client is optional: without a token the API still runs and
	// notifications go to the log instead.
	var tgAPI *tgbotapi.BotAPI
	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.Telegram.BotToken != "" {
		client := &http.Client{Timeout: 35 * time.Second} // above long-poll timeout
		tgAPI, err = tgbotapi.NewBotAPIWithClient(cfg.Telegram.BotToken, tgbotapi.APIEndpoint, client)
		if err != nil {
			log.Fatalf("Failed to create telegram client: %v", err)
		}
		// Notifications run inside game requests, so they get their own
		// short-timeout client rather than the long-poll one above.
		tgNotifier, err := notify.NewTelegramNotifierFromToken(cfg.Telegram.BotToken)
		if err != nil {
			log.Fatalf("Failed to create telegram notifier: %v", err)
		}
		notifier = tgNotifier
	} else {
		log.Println("BOT_TOKEN not set, running without Telegram")
	}

	// Initialize services
	ledger := repository.NewLedger(database.GetDB(), cfg.Promo.MaxPerDay)
	promoService := services.NewPromoService(ledger, cfg.Promo)
	gameService := services.NewGameService(ledger, promoService, notifier)
	limiter := ratelimit.NewLimiter(cfg.RateLimit.PerMinute, time.Minute)

	// Initialize handlers
	gameHandler := handlers.NewGameHandler(gameService, limiter)
	userHandler := handlers.NewUserHandler(gameService)
	authHandler := handlers.NewAuthHandler(ledger, cfg.Telegram.BotToken)

	// Set up Gin router
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", handlers.Health)

	// Authentication route (public)
	router.POST("/auth/telegram", authHandler.TelegramLogin)

	// API routes
	api := router.Group("/api")
	api.GET("/health", handlers.Health)
	api.GET("/user/stats/:user_id", userHandler.GetStats)
	api.GET("/user/history/:user_id", userHandler.GetHistory)

	game := api.Group("/game")
	if cfg.App.RequireAuth {
		game.Use(auth.Middleware())
	}
	game.POST("/win", gameHandler.Win)
	game.POST("/lose", gameHandler.Lose)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Start the bot command loop
	botCtx, stopBot := context.WithCancel(context.Background())
	defer stopBot()
	if tgAPI != nil {
		tgBot := bot.New(tgAPI, ledger, gameService, cfg)
		go tgBot.Run(botCtx)
	}

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	stopBot()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Telegram  TelegramConfig
	Server    ServerConfig
	Database  DatabaseConfig
	Promo     PromoConfig
	RateLimit RateLimitConfig
	App       AppConfig
}

// TelegramConfig holds bot credentials and mini-app URLs
type TelegramConfig struct {
	BotToken  string
	WebAppURL string
	APIURL    string
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

// DatabaseConfig holds storage settings. Path is the sqlite file used by
// default; URL switches the ledger to postgres when set.
type DatabaseConfig struct {
	Path string
	URL  string
}

// PromoConfig holds promo code issuance settings
type PromoConfig struct {
	CodeLength int
	ExpiryDays int
	MaxPerDay  int
}

// RateLimitConfig holds per-user request limits
type RateLimitConfig struct {
	PerMinute int
}

// AppConfig holds application-specific settings
type AppConfig struct {
	SecretKey   string
	RequireAuth bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Telegram: TelegramConfig{
			BotToken:  getEnv("BOT_TOKEN", ""),
			WebAppURL: getEnv("WEBAPP_URL", "http://localhost:8080/webapp"),
			APIURL:    getEnv("API_URL", "http://localhost:8080/api"),
		},
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "https://web.telegram.org")),
		},
		Database: DatabaseConfig{
			Path: getEnv("DB_PATH", "xobot.db"),
			URL:  getEnv("DATABASE_URL", ""),
		},
		Promo: PromoConfig{
			CodeLength: getEnvInt("PROMO_CODE_LENGTH", 5),
			ExpiryDays: getEnvInt("PROMO_CODE_EXPIRY_DAYS", 30),
			MaxPerDay:  getEnvInt("MAX_PROMO_CODES_PER_DAY", 3),
		},
		RateLimit: RateLimitConfig{
			PerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 10),
		},
		App: AppConfig{
			SecretKey:   getEnv("SECRET_KEY", "dev-secret-key-change-in-production"),
			RequireAuth: getEnvBool("REQUIRE_AUTH", false),
		},
	}

	if config.Promo.CodeLength <= 0 {
		return nil, fmt.Errorf("PROMO_CODE_LENGTH must be positive")
	}
	if config.Promo.MaxPerDay <= 0 {
		return nil, fmt.Errorf("MAX_PROMO_CODES_PER_DAY must be positive")
	}
	if config.App.RequireAuth && config.Telegram.BotToken == "" {
		return nil, fmt.Errorf("REQUIRE_AUTH needs BOT_TOKEN to verify init data")
	}

	return config, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable with a fallback default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvBool gets a boolean environment variable with a fallback default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

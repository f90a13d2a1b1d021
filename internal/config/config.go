package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
// Values are loaded from environment variables with sensible defaults.
type Config struct {
	// Servers
	WalletPort  int
	GatewayPort int
	LogLevel    string

	// Database
	DBConnStr string

	// Gateway → wallet engine
	WalletURL      string
	HTTPTimeout    time.Duration
	MaxRetries     int
	InitialBackoff time.Duration

	// Token delivery
	TokenWebhookURL string

	// ReturnTokenInResponse echoes the confirmation token in the
	// synchronous start-payment response. Development shortcut; in
	// production the token travels only through the notifier.
	ReturnTokenInResponse bool
}

// Load reads configuration from the environment, consulting a .env file
// first when present (real env vars win).
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		WalletPort:  getEnvInt("WALLET_PORT", 8080),
		GatewayPort: getEnvInt("GATEWAY_PORT", 8081),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DBConnStr: dbConnStr(),

		WalletURL:      getEnv("WALLET_URL", "http://localhost:8080"),
		HTTPTimeout:    getEnvDuration("HTTP_TIMEOUT", 10*time.Second),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),

		TokenWebhookURL: getEnv("TOKEN_WEBHOOK_URL", ""),

		ReturnTokenInResponse: getEnvBool("WALLET_RETURN_TOKEN", true),
	}
}

// dbConnStr returns DB_CONN_STR when set, otherwise assembles a DSN from
// the individual DB_* variables (Docker friendly).
func dbConnStr() string {
	if s := os.Getenv("DB_CONN_STR"); s != "" {
		return s
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_USER", "postgres"),
		getEnv("DB_PASSWORD", "postgres"),
		getEnv("DB_NAME", "wallet"),
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultAPIURL    = "http://localhost:8000/api/v1"
	defaultSecretKey = "supersecret"
)

type Config struct {
	// Server
	APIPort                  int
	SecretKey                string
	AccessTokenExpireMinutes int
	CORSAllowOrigin          string
	DataMode                 string
	LogLevel                 string

	// Database
	DBDriver   string
	SQLitePath string
	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	// Notifications
	WebhookURL string
	BotName    string

	// Auth rate limiting (per client IP)
	AuthRateLimitRPS   float64
	AuthRateLimitBurst int
	// Comma-separated IPs/CIDRs whose X-Forwarded-For is believed
	TrustedProxies string

	// Per-user trade limits, 0 disables
	MaxDailyTrades  int
	MaxPositionSize float64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		APIPort:                  envInt("API_PORT", 8000),
		SecretKey:                envStr("SECRET_KEY", defaultSecretKey),
		AccessTokenExpireMinutes: envInt("ACCESS_TOKEN_EXPIRE_MINUTES", 60*24),
		CORSAllowOrigin:          envStr("CORS_ALLOW_ORIGIN", "*"),
		DataMode:                 strings.ToLower(envStr("DATA_MODE", "real")),
		LogLevel:                 envStr("LOG_LEVEL", "info"),

		DBDriver:   strings.ToLower(envStr("DB_DRIVER", "sqlite")),
		SQLitePath: envStr("SQLITE_DB", "./trading_journal.db"),
		DBHost:     envStr("DB_HOST", "localhost"),
		DBPort:     envInt("DB_PORT", 5432),
		DBName:     envStr("DB_NAME", "trading_journal"),
		DBUser:     envStr("DB_USER", ""),
		DBPassword: envStr("DB_PASSWORD", ""),

		WebhookURL: envStr("WEBHOOK_URL", ""),
		BotName:    envStr("BOT_NAME", "TradeJournal"),

		AuthRateLimitRPS:   envFloat("AUTH_RATE_LIMIT_RPS", 5),
		AuthRateLimitBurst: envInt("AUTH_RATE_LIMIT_BURST", 10),
		TrustedProxies:     envStr("TRUSTED_PROXIES", ""),

		MaxDailyTrades:  envInt("MAX_DAILY_TRADES", 0),
		MaxPositionSize: envFloat("MAX_POSITION_SIZE", 0),
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string

	switch c.DBDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			errs = append(errs, "SQLITE_DB is required when DB_DRIVER=sqlite")
		}
	case "postgres":
		if c.DBUser == "" {
			errs = append(errs, "DB_USER is required when DB_DRIVER=postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("DB_DRIVER must be sqlite or postgres, got %q", c.DBDriver))
	}

	switch c.DataMode {
	case "test", "seed", "real":
	default:
		errs = append(errs, fmt.Sprintf("DATA_MODE must be test, seed or real, got %q", c.DataMode))
	}

	if c.AccessTokenExpireMinutes <= 0 {
		errs = append(errs, "ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if c.SecretKey == defaultSecretKey {
		log.Warn().Msg("SECRET_KEY not set, signing tokens with the development default")
	}
	if c.MaxDailyTrades < 0 || c.MaxPositionSize < 0 {
		errs = append(errs, "MAX_DAILY_TRADES and MAX_POSITION_SIZE must not be negative")
	}
	if c.AuthRateLimitRPS <= 0 {
		log.Warn().Msg("AUTH_RATE_LIMIT_RPS <= 0, login and signup are not rate limited")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func (c *Config) Print() {
	log.Info().
		Int("port", c.APIPort).
		Str("db_driver", c.DBDriver).
		Str("data_mode", c.DataMode).
		Str("cors_origin", c.CORSAllowOrigin).
		Int("token_ttl_min", c.AccessTokenExpireMinutes).
		Str("webhook", boolLabel(c.WebhookURL != "", "configured", "not set")).
		Str("trusted_proxies", boolLabel(c.TrustedProxies != "", c.TrustedProxies, "none")).
		Int("max_daily_trades", c.MaxDailyTrades).
		Float64("max_position_size", c.MaxPositionSize).
		Msg("journal API configuration")
}

// DSN returns the driver-specific data source name.
func (c *Config) DSN() string {
	if c.DBDriver == "postgres" {
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
			c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
	}
	return c.SQLitePath
}

// ClientConfig configures the journal CLI.
type ClientConfig struct {
	APIURL      string
	SessionFile string
	RedisAddr   string
	LogLevel    string
}

func LoadClient() *ClientConfig {
	_ = godotenv.Load()

	url := envStr("JOURNAL_API_URL", envStr("VITE_API_URL", DefaultAPIURL))
	return &ClientConfig{
		APIURL:      strings.TrimRight(url, "/"),
		SessionFile: envStr("JOURNAL_SESSION_FILE", defaultSessionFile()),
		RedisAddr:   envStr("REDIS_ADDR", ""),
		LogLevel:    envStr("LOG_LEVEL", "warn"),
	}
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "tradejournal", "session.yaml")
}

// SetupLogging points the global zerolog logger at a console writer on
// stderr with the given level. Unknown levels fall back to info.
func SetupLogging(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func boolLabel(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

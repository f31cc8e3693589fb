package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds environment-driven configuration.
type Config struct {
	Addr        string
	Store       string // "postgres" or "memory"
	DatabaseURL string
	RedisURL    string
	LogLevel    string

	JWTSecret     string
	JWTExpiresIn  time.Duration
	ResetTokenTTL time.Duration
	// ExposeResetToken keeps returning the raw reset token from
	// forgot-password, since no mail delivery exists yet.
	ExposeResetToken bool
	AdminEmails      []string

	AuthRateLimit  int
	AuthRateWindow time.Duration
}

// Load reads configuration from environment variables.
func Load() (Config, error) {
	cfg := Config{
		Addr:        firstNonEmpty(os.Getenv("MOBCOMMERCE_ADDR"), portAddr(os.Getenv("PORT")), ":3000"),
		Store:       strings.ToLower(firstNonEmpty(os.Getenv("STORE"), "postgres")),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		LogLevel:    firstNonEmpty(os.Getenv("LOG_LEVEL"), "info"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		AdminEmails: splitList(os.Getenv("ADMIN_EMAILS")),
	}

	var err error
	if cfg.JWTExpiresIn, err = parseDuration("JWT_EXPIRES_IN", "7d"); err != nil {
		return Config{}, err
	}
	if cfg.ResetTokenTTL, err = parseDuration("RESET_TOKEN_TTL", "1h"); err != nil {
		return Config{}, err
	}
	if cfg.AuthRateWindow, err = parseDuration("AUTH_RATE_WINDOW", "1m"); err != nil {
		return Config{}, err
	}
	if cfg.AuthRateLimit, err = parseInt("AUTH_RATE_LIMIT", 10); err != nil {
		return Config{}, err
	}
	if cfg.ExposeResetToken, err = parseBool("EXPOSE_RESET_TOKEN", true); err != nil {
		return Config{}, err
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is not set")
	}
	switch cfg.Store {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is not set")
		}
	case "memory":
	default:
		return Config{}, fmt.Errorf("STORE must be postgres or memory, got %q", cfg.Store)
	}

	return cfg, nil
}

// ParseDuration accepts Go durations plus the "<n>d" day form used by
// JWT_EXPIRES_IN in older deployments ("7d").
func ParseDuration(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if n, ok := strings.CutSuffix(v, "d"); ok {
		days, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("invalid day duration %q", v)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(v)
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := ParseDuration(firstNonEmpty(os.Getenv(key), def))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func parseBool(key string, def bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func portAddr(port string) string {
	if port == "" {
		return ""
	}
	return ":" + port
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultAccessTTL      = "30m"
	defaultRefreshTTL     = "720h"
	defaultBcryptCost     = "10"
	defaultHTTPAddr       = ":8080"
	defaultAPIURL         = "http://localhost:8080"
	defaultCookieSecure   = "false"
	defaultCookieSameSite = "Lax"
	defaultCookiePath     = "/"
	defaultRotation       = "true"
	defaultMailDriver     = "console"
	defaultSMTPPort       = "587"
	defaultMailTimeout    = "10s"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	APIURL      string
	DatabaseURL string
	LogLevel    slog.Level

	JWTAccessSecret  string
	JWTRefreshSecret string
	JWTAccessTTL     time.Duration
	JWTRefreshTTL    time.Duration
	BcryptCost       int

	// RefreshRotationRevokesOld deletes the presented refresh token when a
	// new one is issued from it.
	RefreshRotationRevokesOld bool

	CookieSecure   bool
	CookieSameSite string
	CookiePath     string

	CORSAllowedOrigins []string

	Mail MailConfig
}

type MailConfig struct {
	Driver   string
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// Timeout bounds one activation mail delivery.
	Timeout time.Duration
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the config from the process environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		AppEnv:           strings.ToLower(strings.TrimSpace(getEnv("APP_ENV", "dev"))),
		HTTPAddr:         strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr)),
		APIURL:           strings.TrimSpace(getEnv("API_URL", defaultAPIURL)),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTAccessSecret:  strings.TrimSpace(os.Getenv("JWT_SECRET_ACCESS")),
		JWTRefreshSecret: strings.TrimSpace(os.Getenv("JWT_SECRET_REFRESH")),
		CookieSecure:     parseBoolEnv("COOKIE_SECURE", defaultCookieSecure),
		CookieSameSite:   strings.TrimSpace(getEnv("COOKIE_SAMESITE", defaultCookieSameSite)),
		CookiePath:       strings.TrimSpace(getEnv("COOKIE_PATH", defaultCookiePath)),

		RefreshRotationRevokesOld: parseBoolEnv("REFRESH_ROTATION_REVOKES_OLD", defaultRotation),
	}

	var err error
	if cfg.LogLevel, err = parseLevelEnv("LOG_LEVEL"); err != nil {
		return nil, err
	}
	if cfg.JWTAccessTTL, err = parseDurationEnv("JWT_EXPIRATION_ACCESS", defaultAccessTTL); err != nil {
		return nil, err
	}
	if cfg.JWTRefreshTTL, err = parseDurationEnv("JWT_EXPIRATION_REFRESH", defaultRefreshTTL); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = parseIntEnv("BCRYPT_COST", defaultBcryptCost); err != nil {
		return nil, err
	}

	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	cfg.Mail = MailConfig{
		Driver:   strings.ToLower(strings.TrimSpace(getEnv("MAIL_DRIVER", defaultMailDriver))),
		Host:     strings.TrimSpace(os.Getenv("SMTP_HOST")),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     strings.TrimSpace(os.Getenv("MAIL_FROM")),
	}
	if cfg.Mail.Port, err = parseIntEnv("SMTP_PORT", defaultSMTPPort); err != nil {
		return nil, err
	}
	if cfg.Mail.Timeout, err = parseDurationEnv("MAIL_TIMEOUT", defaultMailTimeout); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.JWTAccessSecret == "" {
		return fmt.Errorf("JWT_SECRET_ACCESS must be set")
	}
	if cfg.JWTRefreshSecret == "" {
		return fmt.Errorf("JWT_SECRET_REFRESH must be set")
	}
	if cfg.JWTAccessSecret == cfg.JWTRefreshSecret {
		return fmt.Errorf("JWT_SECRET_ACCESS and JWT_SECRET_REFRESH must differ")
	}
	if cfg.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_EXPIRATION_ACCESS must be > 0")
	}
	if cfg.JWTRefreshTTL <= 0 {
		return fmt.Errorf("JWT_EXPIRATION_REFRESH must be > 0")
	}
	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if cfg.CookiePath == "" {
		return fmt.Errorf("COOKIE_PATH must not be empty")
	}
	sameSite := strings.ToLower(cfg.CookieSameSite)
	if sameSite != "lax" && sameSite != "none" && sameSite != "strict" {
		return fmt.Errorf("COOKIE_SAMESITE must be one of: Lax, None, Strict")
	}
	if sameSite == "none" && !cfg.CookieSecure {
		return fmt.Errorf("COOKIE_SECURE must be true when COOKIE_SAMESITE=None")
	}

	if cfg.Mail.Timeout <= 0 {
		return fmt.Errorf("MAIL_TIMEOUT must be > 0")
	}

	switch cfg.Mail.Driver {
	case "console":
	case "smtp":
		if cfg.Mail.Host == "" {
			return fmt.Errorf("SMTP_HOST must be set when MAIL_DRIVER=smtp")
		}
		if cfg.Mail.From == "" {
			return fmt.Errorf("MAIL_FROM must be set when MAIL_DRIVER=smtp")
		}
	default:
		return fmt.Errorf("MAIL_DRIVER must be one of: console, smtp")
	}

	if IsProdLike(cfg.AppEnv) && !cfg.CookieSecure {
		return fmt.Errorf("in prod/release COOKIE_SECURE must be true")
	}
	return nil
}

func IsProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseLevelEnv(name string) (slog.Level, error) {
	var level slog.Level
	value := strings.TrimSpace(getEnv(name, "info"))
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return level, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

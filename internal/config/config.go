package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the bot.
type Config struct {
	TelegramToken string
	DatabaseURL   string
	DigestTime    string // HH:MM, local time
	Timezone      *time.Location
}

// Load reads configuration from the environment, honoring a local
// .env file when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		TelegramToken: strings.TrimSpace(os.Getenv("TELEGRAM_TOKEN")),
		DatabaseURL:   strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DigestTime:    strings.TrimSpace(os.Getenv("DIGEST_TIME")),
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "daylog.db"
	}
	if cfg.DigestTime == "" {
		cfg.DigestTime = "08:00"
	}
	if _, err := time.Parse("15:04", cfg.DigestTime); err != nil {
		return cfg, fmt.Errorf("DIGEST_TIME %q: expected HH:MM", cfg.DigestTime)
	}

	loc := time.Local
	if tz := strings.TrimSpace(os.Getenv("TIMEZONE")); tz != "" {
		parsed, err := time.LoadLocation(tz)
		if err != nil {
			return cfg, fmt.Errorf("TIMEZONE %q: %w", tz, err)
		}
		loc = parsed
	}
	cfg.Timezone = loc

	if cfg.TelegramToken == "" {
		return cfg, fmt.Errorf("TELEGRAM_TOKEN is required")
	}

	return cfg, nil
}

// config/overlay.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// OverlayEnv loads envFile (missing is fine) and copies secrets from the
// environment into cfg. Secrets never live in config.yml.
func OverlayEnv(cfg *Config, envFile string) error {
	if envFile != "" {
		// Missing .env should not kill startup
		_ = godotenv.Load(envFile)
	}

	if v := strings.TrimSpace(os.Getenv("EMAIL_ADDRESS")); v != "" {
		cfg.Mail.Username = v
	}
	if v := os.Getenv("EMAIL_PASSWORD"); v != "" {
		cfg.Mail.Password = v
	}
	if v := strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")); v != "" {
		cfg.Notify.Telegram.Token = v
	}
	if v := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err)
		}
		cfg.Notify.Telegram.ChatID = id
	}
	return nil
}

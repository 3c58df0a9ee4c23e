package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"jobapply-engine/internal/config"
)

const (
	// “Service” groups your app’s secrets in the OS keychain.
	KeyringService = "jobhunt"
)

// ErrNoPassword means neither the keychain nor the environment holds the
// SMTP password.
var ErrNoPassword = errors.New("SMTP password not found (set it in keychain or EMAIL_PASSWORD in .env)")

// SMTPPassword returns the mail account password. The keychain wins over
// EMAIL_PASSWORD so a stale .env cannot shadow a rotated app password.
func SMTPPassword(cfg config.Config) (string, error) {
	// 1) Keyring first (recommended)
	if account := SMTPKeyringAccount(cfg); account != "" {
		pw, err := keyring.Get(KeyringService, account)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}

	// 2) .env / environment
	if strings.TrimSpace(cfg.Mail.Password) != "" {
		return cfg.Mail.Password, nil
	}
	return "", ErrNoPassword
}

func SetSMTPPassword(cfg config.Config, password string) error {
	account := SMTPKeyringAccount(cfg)
	if account == "" {
		return errors.New("mail username is empty, set EMAIL_ADDRESS or mail.username")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, account, password)
}

func DeleteSMTPPassword(cfg config.Config) error {
	account := SMTPKeyringAccount(cfg)
	if account == "" {
		return errors.New("mail username is empty, set EMAIL_ADDRESS or mail.username")
	}
	return keyring.Delete(KeyringService, account)
}

// SMTPKeyringAccount is "" until a mail username is configured.
func SMTPKeyringAccount(cfg config.Config) string {
	user := strings.TrimSpace(cfg.Mail.Username)
	if user == "" {
		return ""
	}
	return fmt.Sprintf("jobhunt:smtp:%s@%s", user, cfg.Mail.SMTPHost)
}

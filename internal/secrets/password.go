package secrets

import (
	"errors"
	"fmt"
	"strings"

	"jobwatch-engine/internal/config"

	"github.com/zalando/go-keyring"
)

const (
	// "Service" groups the app's secrets in the OS keychain.
	KeyringService = "jobwatch"
)

var ErrNoSMTPPassword = errors.New("SMTP password not found (set it in keychain or via env)")

// GetSMTPPassword returns the configured password, falling back to the keychain.
func GetSMTPPassword(cfg config.EmailConfig) (string, error) {
	if strings.TrimSpace(cfg.Password) != "" {
		return cfg.Password, nil
	}

	pw, err := keyring.Get(KeyringService, SMTPKeyringAccount(cfg))
	if err == nil && strings.TrimSpace(pw) != "" {
		return pw, nil
	}
	return "", ErrNoSMTPPassword
}

func SetSMTPPassword(cfg config.EmailConfig, password string) error {
	if strings.TrimSpace(cfg.Username) == "" || strings.TrimSpace(cfg.SMTPHost) == "" {
		return errors.New("smtp username and host are required")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, SMTPKeyringAccount(cfg), password)
}

func DeleteSMTPPassword(cfg config.EmailConfig) error {
	return keyring.Delete(KeyringService, SMTPKeyringAccount(cfg))
}

func SMTPKeyringAccount(cfg config.EmailConfig) string {
	return fmt.Sprintf(
		"jobwatch:smtp:%s@%s",
		cfg.Username,
		cfg.SMTPHost,
	)
}

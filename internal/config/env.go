package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvDataDir        = "JOBWATCH_DATA_DIR"
	EnvSourceURL      = "JOBWATCH_SOURCE_URL"
	EnvSMTPUser       = "JOBWATCH_SMTP_USER"
	EnvSMTPPass       = "JOBWATCH_SMTP_PASS"
	EnvEmailTo        = "JOBWATCH_EMAIL_TO"
	EnvTelegramToken  = "JOBWATCH_TELEGRAM_TOKEN"
	EnvTelegramChatID = "JOBWATCH_TELEGRAM_CHAT_ID"
)

// LoadDotEnv loads .env files if present. Already-set variables win.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// ApplyEnv overrides secrets and endpoints from the environment.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv(EnvSourceURL); v != "" {
		cfg.Source.URL = v
	}
	if v := os.Getenv(EnvSMTPUser); v != "" {
		cfg.Notify.Email.Username = v
	}
	if v := os.Getenv(EnvSMTPPass); v != "" {
		cfg.Notify.Email.Password = v
	}
	if v := os.Getenv(EnvEmailTo); v != "" {
		var to []string
		for _, addr := range strings.Split(v, ",") {
			if addr = strings.TrimSpace(addr); addr != "" {
				to = append(to, addr)
			}
		}
		cfg.Notify.Email.To = to
	}
	if v := os.Getenv(EnvTelegramToken); v != "" {
		cfg.Notify.Telegram.Token = v
	}
	if v := os.Getenv(EnvTelegramChatID); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.New("invalid " + EnvTelegramChatID + ": " + err.Error())
		}
		cfg.Notify.Telegram.ChatID = id
	}
	return nil
}

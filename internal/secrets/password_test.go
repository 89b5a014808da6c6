package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"jobwatch-engine/internal/config"
)

func TestSMTPPasswordFromKeychain(t *testing.T) {
	keyring.MockInit()

	cfg := config.EmailConfig{Username: "me@example.com", SMTPHost: "smtp.example.com"}
	_, err := GetSMTPPassword(cfg)
	assert.ErrorIs(t, err, ErrNoSMTPPassword)

	require.NoError(t, SetSMTPPassword(cfg, "s3cret"))
	pw, err := GetSMTPPassword(cfg)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pw)

	require.NoError(t, DeleteSMTPPassword(cfg))
	_, err = GetSMTPPassword(cfg)
	assert.Error(t, err)
}

func TestSMTPPasswordConfigWins(t *testing.T) {
	keyring.MockInit()
	cfg := config.EmailConfig{Username: "me", SMTPHost: "h", Password: "inline"}
	pw, err := GetSMTPPassword(cfg)
	require.NoError(t, err)
	assert.Equal(t, "inline", pw)
}

func TestSetSMTPPasswordValidates(t *testing.T) {
	keyring.MockInit()
	assert.Error(t, SetSMTPPassword(config.EmailConfig{}, "x"))
	assert.Error(t, SetSMTPPassword(config.EmailConfig{Username: "u", SMTPHost: "h"}, " "))
	assert.Equal(t, "jobwatch:smtp:u@h", SMTPKeyringAccount(config.EmailConfig{Username: "u", SMTPHost: "h"}))
}

package main

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobwatch-engine/internal/config"
	"jobwatch-engine/internal/store"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestChannelsFollowConfig(t *testing.T) {
	cfg := config.Default()
	assert.Empty(t, channels(cfg, quiet()))

	cfg.Notify.Email.Enabled = true
	cfg.Notify.Telegram.Enabled = true
	chs := channels(cfg, quiet())
	require.Len(t, chs, 2)
	assert.Equal(t, "email", chs[0].Name())
	assert.Equal(t, "telegram", chs[1].Name())
}

func TestBackendSelection(t *testing.T) {
	cfg := config.Default()
	cfg.App.DataDir = t.TempDir()

	be, closeFn, err := backend(cfg)
	require.NoError(t, err)
	assert.IsType(t, &store.JSONNotified{}, be)
	assert.NoError(t, closeFn())

	cfg.Store.Backend = config.BackendSQLite
	be, closeFn, err = backend(cfg)
	require.NoError(t, err)
	assert.IsType(t, &store.SQLiteNotified{}, be)
	assert.FileExists(t, filepath.Join(cfg.App.DataDir, "jobwatch.db"))
	assert.NoError(t, closeFn())
}

func TestBuildWithoutChannels(t *testing.T) {
	cfg := config.Default()
	cfg.App.DataDir = t.TempDir()

	a, err := build(cfg, quiet(), false)
	require.NoError(t, err)
	defer a.close()
	assert.NotNil(t, a.runner)
	assert.False(t, a.runner.Running())
	assert.Equal(t, "idle", a.runner.Status().State)
}

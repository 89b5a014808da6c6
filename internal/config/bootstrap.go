package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const UserConfigName = "config.yml"

// EnsureUserConfig returns dataDir/config.yml, creating it on first start.
// The shipped file at defaultPath is copied when it exists and parses;
// otherwise Default() is written.
func EnsureUserConfig(dataDir string, defaultPath string) (string, error) {
	userPath := filepath.Join(dataDir, UserConfigName)

	switch _, err := os.Stat(userPath); {
	case err == nil:
		return userPath, nil
	case !errors.Is(err, os.ErrNotExist):
		return "", err
	}

	shipped, err := os.ReadFile(defaultPath)
	if errors.Is(err, os.ErrNotExist) {
		cfg := Default()
		cfg.App.DataDir = dataDir
		return userPath, SaveAtomic(userPath, cfg)
	}
	if err != nil {
		return "", err
	}

	var probe Config
	if err := yaml.Unmarshal(shipped, &probe); err != nil {
		return "", fmt.Errorf("default config %s: %w", defaultPath, err)
	}

	tmp := userPath + ".tmp"
	if err := os.WriteFile(tmp, shipped, 0o644); err != nil {
		return "", err
	}
	return userPath, os.Rename(tmp, userPath)
}

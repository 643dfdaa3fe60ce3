package appdirs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	envHomeOverride    = "DOMINO_HOME"
	envConfigOverride  = "DOMINO_CONFIG_DIR"
	envDataOverride    = "DOMINO_DATA_DIR"
	envProfileOverride = "DOMINO_PROFILE_DIR"
)

func BaseDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(envHomeOverride)); dir != "" {
		return filepath.Clean(dir), nil
	}

	if cfgDir, err := os.UserConfigDir(); err == nil && strings.TrimSpace(cfgDir) != "" {
		return filepath.Join(cfgDir, "domino"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		if err == nil {
			err = errors.New("empty home directory")
		}
		return "", fmt.Errorf("determine domino base dir: %w", err)
	}

	return filepath.Join(home, ".domino"), nil
}

// ConfigDir holds the optional config file read at startup.
func ConfigDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(envConfigOverride)); dir != "" {
		return filepath.Clean(dir), nil
	}

	return BaseDir()
}

// DataDir holds mutable state such as the snapshot database.
func DataDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(envDataOverride)); dir != "" {
		return filepath.Clean(dir), nil
	}

	base, err := BaseDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(base, "data"), nil
}

// ProfileDir holds the headless browser profile used by rendered fetches.
func ProfileDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(envProfileOverride)); dir != "" {
		return filepath.Clean(dir), nil
	}

	base, err := BaseDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(base, "profile"), nil
}

func EnsureDir(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("ensure dir: empty path")
	}
	return os.MkdirAll(path, 0o755)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "domino.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DOMINO_HOME", t.TempDir())
	t.Cleanup(Reset)

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.UserAgent != DefaultUserAgent {
		t.Errorf("unexpected user agent: %q", cfg.UserAgent)
	}
	if cfg.TimeoutSecs != DefaultTimeoutSecs {
		t.Errorf("unexpected timeout: %d", cfg.TimeoutSecs)
	}
	if cfg.ServeAddr != DefaultServeAddr {
		t.Errorf("unexpected serve addr: %q", cfg.ServeAddr)
	}
	if cfg.Verbose || cfg.Render {
		t.Error("expected verbose and render off by default")
	}
	if cfg.SnapshotDB == "" {
		t.Error("expected a derived snapshot db path")
	}
	if FileUsed() != "" {
		t.Errorf("expected no config file, got %q", FileUsed())
	}
}

func TestLoadReadsConfigFileFromConfigDir(t *testing.T) {
	dir := writeConfigFile(t, "user_agent: filebot\ntimeout: 7\n")
	t.Setenv("DOMINO_HOME", t.TempDir())
	t.Setenv("DOMINO_CONFIG_DIR", dir)
	t.Cleanup(Reset)

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.UserAgent != "filebot" {
		t.Errorf("expected file value, got %q", cfg.UserAgent)
	}
	if cfg.TimeoutSecs != 7 {
		t.Errorf("expected file timeout, got %d", cfg.TimeoutSecs)
	}
	if FileUsed() != filepath.Join(dir, "domino.yaml") {
		t.Errorf("unexpected file used: %q", FileUsed())
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := writeConfigFile(t, "user_agent: filebot\n")
	t.Setenv("DOMINO_HOME", t.TempDir())
	t.Setenv("DOMINO_CONFIG_DIR", dir)
	t.Setenv("DOMINO_USER_AGENT", "envbot")
	t.Cleanup(Reset)

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.UserAgent != "envbot" {
		t.Errorf("expected env value to win, got %q", cfg.UserAgent)
	}
}

func TestChangedFlagsOverrideEverything(t *testing.T) {
	dir := writeConfigFile(t, "user_agent: filebot\nverbose: true\n")
	t.Setenv("DOMINO_HOME", t.TempDir())
	t.Setenv("DOMINO_CONFIG_DIR", dir)
	t.Setenv("DOMINO_USER_AGENT", "envbot")
	t.Cleanup(Reset)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("user-agent", DefaultUserAgent, "")
	flags.Bool("verbose", false, "")
	if err := flags.Set("user-agent", "flagbot"); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	cfg, err := Load("", flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.UserAgent != "flagbot" {
		t.Errorf("expected flag value to win, got %q", cfg.UserAgent)
	}
	// The verbose flag was registered but never set, so the file wins.
	if !cfg.Verbose {
		t.Error("expected unchanged flag to leave the file value in place")
	}
}

func TestExplicitConfigFilePath(t *testing.T) {
	dir := writeConfigFile(t, "serve_addr: :9999\n")
	t.Setenv("DOMINO_HOME", t.TempDir())
	t.Cleanup(Reset)

	cfg, err := Load(filepath.Join(dir, "domino.yaml"), nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ServeAddr != ":9999" {
		t.Errorf("expected explicit file value, got %q", cfg.ServeAddr)
	}
}

func TestMissingExplicitFileFails(t *testing.T) {
	t.Setenv("DOMINO_HOME", t.TempDir())
	t.Cleanup(Reset)

	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil); err == nil {
		t.Error("expected an error for a missing explicit config file")
	}
}

package appdirs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBaseDirHonorsHomeOverride(t *testing.T) {
	t.Setenv("DOMINO_HOME", "/tmp/custom-home/")

	dir, err := BaseDir()
	if err != nil {
		t.Fatalf("base dir: %v", err)
	}
	if dir != filepath.Clean("/tmp/custom-home/") {
		t.Errorf("expected cleaned override, got %q", dir)
	}
}

func TestDerivedDirsNestUnderBase(t *testing.T) {
	t.Setenv("DOMINO_HOME", "/tmp/base")
	t.Setenv("DOMINO_CONFIG_DIR", "")
	t.Setenv("DOMINO_DATA_DIR", "")
	t.Setenv("DOMINO_PROFILE_DIR", "")

	cfg, err := ConfigDir()
	if err != nil {
		t.Fatalf("config dir: %v", err)
	}
	if cfg != filepath.Clean("/tmp/base") {
		t.Errorf("expected config dir to be the base, got %q", cfg)
	}

	data, err := DataDir()
	if err != nil {
		t.Fatalf("data dir: %v", err)
	}
	if data != filepath.Join("/tmp/base", "data") {
		t.Errorf("unexpected data dir %q", data)
	}

	profile, err := ProfileDir()
	if err != nil {
		t.Fatalf("profile dir: %v", err)
	}
	if profile != filepath.Join("/tmp/base", "profile") {
		t.Errorf("unexpected profile dir %q", profile)
	}
}

func TestDerivedDirOverrides(t *testing.T) {
	t.Setenv("DOMINO_HOME", "/tmp/base")
	t.Setenv("DOMINO_DATA_DIR", "/var/lib/domino")

	data, err := DataDir()
	if err != nil {
		t.Fatalf("data dir: %v", err)
	}
	if data != filepath.Clean("/var/lib/domino") {
		t.Errorf("expected override to win, got %q", data)
	}
}

func TestEnsureDir(t *testing.T) {
	if err := EnsureDir(""); err == nil {
		t.Error("expected an error for an empty path")
	}

	target := filepath.Join(t.TempDir(), "a", "b")
	if err := EnsureDir(target); err != nil {
		t.Fatalf("ensure dir: %v", err)
	}
	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		t.Errorf("expected directory at %s, err=%v", target, err)
	}
}

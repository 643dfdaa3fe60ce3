package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"domino/internal/appdirs"
)

const (
	DefaultUserAgent   = "Mozilla/5.0 (compatible; DominoBot/1.0; +https://example.com)"
	DefaultTimeoutSecs = 30
	DefaultServeAddr   = ":8700"
)

// Config is the resolved runtime configuration.
type Config struct {
	UserAgent   string `koanf:"user_agent"`
	TimeoutSecs int    `koanf:"timeout"`
	Render      bool   `koanf:"render"`
	ServeAddr   string `koanf:"serve_addr"`
	SnapshotDB  string `koanf:"snapshot_db"`
	Verbose     bool   `koanf:"verbose"`
}

var (
	k              = koanf.New(".")
	configFileUsed string
)

// Reset clears the loaded state between test scenarios.
func Reset() {
	k = koanf.New(".")
	configFileUsed = ""
}

// FileUsed reports the config file the last Load read, if any.
func FileUsed() string {
	return configFileUsed
}

// Load resolves the configuration. Precedence, highest first: flags,
// DOMINO_ environment variables, config file, defaults. Only flags the user
// actually set override lower layers.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")
	configFileUsed = ""

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"user_agent":  DefaultUserAgent,
		"timeout":     DefaultTimeoutSecs,
		"render":      false,
		"serve_addr":  DefaultServeAddr,
		"snapshot_db": "",
		"verbose":     false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if cfgFile == "" {
		cfgFile = findConfigFile()
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
		configFileUsed = cfgFile
	}

	if err := k.Load(env.Provider("DOMINO_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "DOMINO_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if cfg.SnapshotDB == "" {
		dataDir, err := appdirs.DataDir()
		if err != nil {
			return nil, err
		}
		cfg.SnapshotDB = filepath.Join(dataDir, "snapshots.db")
	}

	return &cfg, nil
}

// findConfigFile looks for domino.yaml or domino.yml under the config dir.
func findConfigFile() string {
	dir, err := appdirs.ConfigDir()
	if err != nil {
		return ""
	}
	for _, name := range []string{"domino.yaml", "domino.yml"} {
		candidate := filepath.Join(dir, name)
		if _, statErr := os.Stat(candidate); statErr == nil {
			return candidate
		}
	}
	return ""
}

package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const DefaultAPIURL = "http://localhost:5000"

// FileConfig is the tracker CLI config, kept under the user's config dir.
type FileConfig struct {
	APIURL string `toml:"api_url"`
	Token  string `toml:"token"`
	Email  string `toml:"email,omitempty"`
}

func configHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

func DefaultConfigPath() string {
	return filepath.Join(configHome(), "calispro", "tracker.toml")
}

// LoadConfig reads the config at path. A missing file yields the defaults.
func LoadConfig(path string) (FileConfig, error) {
	cfg := FileConfig{APIURL: DefaultAPIURL}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return FileConfig{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	return cfg, nil
}

// SaveConfig writes the config readable by the owner only, it holds the token.
func SaveConfig(path string, cfg FileConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode config: %w", err)
	}
	return f.Close()
}

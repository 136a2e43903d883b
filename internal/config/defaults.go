package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/nikbrunner/aidir/internal/model"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Backend:      BackendSQLite,
		SQLitePath:   filepath.Join(configDir(), "catalog.db"),
		PollInterval: 2 * time.Second,
		Logo: LogoConfig{
			BaseURL: model.DefaultLogoBaseURL,
			Suffix:  model.DefaultLogoSuffix,
		},
		Popular: PopularConfig{
			Limit:     6,
			MinRating: 4.7,
		},
		Cull: CullConfig{
			ExcludeDomains: []string{"github.com", "gitlab.com"},
			Concurrency:    10,
			Timeout:        10 * time.Second,
			RatePerSecond:  20,
			RateBurst:      5,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
		Log: LogConfig{
			File:  filepath.Join(configDir(), "aidir.log"),
			Level: "info",
		},
	}
}

// DefaultPath returns the default config path: ~/.config/aidir/config.yaml
func DefaultPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "aidir")
}

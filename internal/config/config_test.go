package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nikbrunner/aidir/internal/model"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Backend != BackendSQLite {
		t.Errorf("expected default backend %q, got %q", BackendSQLite, cfg.Backend)
	}
	if cfg.Popular.Limit != 6 {
		t.Errorf("expected default popular.limit 6, got %d", cfg.Popular.Limit)
	}
	if cfg.Popular.MinRating != 4.7 {
		t.Errorf("expected default popular.min_rating 4.7, got %v", cfg.Popular.MinRating)
	}
	if cfg.Logo.BaseURL != model.DefaultLogoBaseURL || cfg.Logo.Suffix != model.DefaultLogoSuffix {
		t.Errorf("unexpected logo defaults: %+v", cfg.Logo)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	original := DefaultConfig()
	original.Backend = BackendFirestore
	original.Firestore.ProjectID = "ai-tools-data"
	original.Popular.Limit = 3
	original.PollInterval = 5 * time.Second
	original.Cull.ExcludeDomains = []string{"internal.example"}
	original.Client.APIKey = "key"

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Backend != BackendFirestore {
		t.Errorf("backend: got %q", loaded.Backend)
	}
	if loaded.Firestore.ProjectID != "ai-tools-data" {
		t.Errorf("firestore.project_id: got %q", loaded.Firestore.ProjectID)
	}
	if loaded.Popular.Limit != 3 {
		t.Errorf("popular.limit: got %d", loaded.Popular.Limit)
	}
	if loaded.PollInterval != 5*time.Second {
		t.Errorf("poll_interval: got %v", loaded.PollInterval)
	}
	if len(loaded.Cull.ExcludeDomains) != 1 || loaded.Cull.ExcludeDomains[0] != "internal.example" {
		t.Errorf("cull.exclude_domains: got %v", loaded.Cull.ExcludeDomains)
	}
	if loaded.Client.APIKey != "key" {
		t.Errorf("client.api_key: got %q", loaded.Client.APIKey)
	}
}

func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nonexistent.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if cfg.Popular.Limit != 6 {
		t.Errorf("expected defaults, got popular.limit %d", cfg.Popular.Limit)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Load should not create the file")
	}
}

func TestLoadOrCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aidir", "config.yaml")

	if _, err := LoadOrCreate(path); err != nil {
		t.Fatalf("LoadOrCreate failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected config file to be created: %v", err)
	}
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "popular:\n  min_rating: 4.2\ncull:\n  exclude_domains: [a.example]\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Popular.MinRating != 4.2 {
		t.Errorf("popular.min_rating: got %v", cfg.Popular.MinRating)
	}
	if cfg.Popular.Limit != 6 {
		t.Errorf("popular.limit should keep its default, got %d", cfg.Popular.Limit)
	}
	if len(cfg.Cull.ExcludeDomains) != 1 {
		t.Errorf("exclude_domains should be replaced, got %v", cfg.Cull.ExcludeDomains)
	}
	if cfg.Cull.Timeout != 10*time.Second {
		t.Errorf("cull.timeout should keep its default, got %v", cfg.Cull.Timeout)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("AIDIR_BACKEND", "memory")
	t.Setenv("AIDIR_POPULAR__LIMIT", "9")
	t.Setenv("AIDIR_USER_ID", "u42")
	t.Setenv("AIDIR_CULL__TIMEOUT", "3s")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Backend != BackendMemory {
		t.Errorf("backend: got %q", cfg.Backend)
	}
	if cfg.Popular.Limit != 9 {
		t.Errorf("popular.limit: got %d", cfg.Popular.Limit)
	}
	if cfg.UserID != "u42" {
		t.Errorf("user_id: got %q", cfg.UserID)
	}
	if cfg.Cull.Timeout != 3*time.Second {
		t.Errorf("cull.timeout: got %v", cfg.Cull.Timeout)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Backend = "postgres" }},
		{"firestore without project", func(c *Config) { c.Backend = BackendFirestore }},
		{"sqlite without path", func(c *Config) { c.SQLitePath = "" }},
		{"negative limit", func(c *Config) { c.Popular.Limit = -1 }},
		{"rating above five", func(c *Config) { c.Popular.MinRating = 5.5 }},
		{"negative concurrency", func(c *Config) { c.MaxConcurrency = -2 }},
		{"negative cull rate", func(c *Config) { c.Cull.RatePerSecond = -1 }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestClientConfigMissing(t *testing.T) {
	c := ClientConfig{APIKey: "k", ProjectID: "p"}

	missing := c.Missing()

	if len(missing) != 2 || missing[0] != "auth_domain" || missing[1] != "database_url" {
		t.Errorf("unexpected missing fields: %v", missing)
	}
}

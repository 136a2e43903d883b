package config

import "time"

// Backend names a document store implementation.
type Backend string

const (
	BackendSQLite    Backend = "sqlite"
	BackendFirestore Backend = "firestore"
	BackendMemory    Backend = "memory"
)

// Config is the top-level aidir configuration, corresponding to config.yaml.
type Config struct {
	Backend        Backend         `yaml:"backend" koanf:"backend"`
	SQLitePath     string          `yaml:"sqlite_path" koanf:"sqlite_path"`
	PollInterval   time.Duration   `yaml:"poll_interval" koanf:"poll_interval"`
	Firestore      FirestoreConfig `yaml:"firestore" koanf:"firestore"`
	Logo           LogoConfig      `yaml:"logo" koanf:"logo"`
	Popular        PopularConfig   `yaml:"popular" koanf:"popular"`
	UserID         string          `yaml:"user_id" koanf:"user_id"`
	UserEmail      string          `yaml:"user_email" koanf:"user_email"`
	Cull           CullConfig      `yaml:"cull" koanf:"cull"`
	Server         ServerConfig    `yaml:"server" koanf:"server"`
	Log            LogConfig       `yaml:"log" koanf:"log"`
	MaxConcurrency int             `yaml:"max_concurrency" koanf:"max_concurrency"`
	Client         ClientConfig    `yaml:"client" koanf:"client"`
}

// FirestoreConfig selects the Firestore project.
type FirestoreConfig struct {
	ProjectID       string `yaml:"project_id" koanf:"project_id"`
	CredentialsFile string `yaml:"credentials_file" koanf:"credentials_file"`
}

// LogoConfig controls how logo file names become URLs.
type LogoConfig struct {
	BaseURL string `yaml:"base_url" koanf:"base_url"`
	Suffix  string `yaml:"suffix" koanf:"suffix"`
}

// PopularConfig tunes the popular tools selection.
type PopularConfig struct {
	Limit     int     `yaml:"limit" koanf:"limit"`
	MinRating float64 `yaml:"min_rating" koanf:"min_rating"`
}

// CullConfig tunes website checks.
type CullConfig struct {
	ExcludeDomains []string      `yaml:"exclude_domains" koanf:"exclude_domains"`
	Concurrency    int           `yaml:"concurrency" koanf:"concurrency"`
	Timeout        time.Duration `yaml:"timeout" koanf:"timeout"`
	RatePerSecond  float64       `yaml:"rate_per_second" koanf:"rate_per_second"` // 0 = unlimited
	RateBurst      int           `yaml:"rate_burst" koanf:"rate_burst"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr           string   `yaml:"addr" koanf:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins" koanf:"allowed_origins"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	File  string `yaml:"file" koanf:"file"`
	Level string `yaml:"level" koanf:"level"`
}

// ClientConfig is the public web client configuration served by the API.
type ClientConfig struct {
	APIKey            string `yaml:"api_key" koanf:"api_key" json:"apiKey"`
	AuthDomain        string `yaml:"auth_domain" koanf:"auth_domain" json:"authDomain"`
	ProjectID         string `yaml:"project_id" koanf:"project_id" json:"projectId"`
	DatabaseURL       string `yaml:"database_url" koanf:"database_url" json:"databaseURL"`
	StorageBucket     string `yaml:"storage_bucket" koanf:"storage_bucket" json:"storageBucket,omitempty"`
	MessagingSenderID string `yaml:"messaging_sender_id" koanf:"messaging_sender_id" json:"messagingSenderId,omitempty"`
	AppID             string `yaml:"app_id" koanf:"app_id" json:"appId,omitempty"`
}

// Missing returns the koanf keys of required client fields that are empty.
func (c ClientConfig) Missing() []string {
	var missing []string
	if c.APIKey == "" {
		missing = append(missing, "api_key")
	}
	if c.AuthDomain == "" {
		missing = append(missing, "auth_domain")
	}
	if c.ProjectID == "" {
		missing = append(missing, "project_id")
	}
	if c.DatabaseURL == "" {
		missing = append(missing, "database_url")
	}
	return missing
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/guestbook/config.yaml"

// Config holds all guestbook configuration.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Schema  SchemaConfig  `yaml:"schema"`
	Storage StorageConfig `yaml:"storage"`
	Server  ServerConfig  `yaml:"server"`
	Admin   AdminConfig   `yaml:"admin"`
	Kiosk   KioskConfig   `yaml:"kiosk"`
	Logging LoggingConfig `yaml:"logging"`
}

type SiteConfig struct {
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
	Locale   string `yaml:"locale"`
}

// SchemaConfig describes the survey categories. Bump Version whenever the
// canonical lists change so exported reports can be told apart.
type SchemaConfig struct {
	Version         int               `yaml:"version"`
	Genders         []string          `yaml:"genders"`
	AgeBrackets     []string          `yaml:"age_brackets"`
	Purposes        []string          `yaml:"purposes"`
	FallbackPurpose string            `yaml:"fallback_purpose"`
	LocationEnabled bool              `yaml:"location_enabled"`
	Locations       []string          `yaml:"locations"`
	Aliases         map[string]string `yaml:"aliases"`
}

type StorageConfig struct {
	Backend           string `yaml:"backend"`
	Path              string `yaml:"path"`
	CSVFile           string `yaml:"csv_file"`
	SQLiteFile        string `yaml:"sqlite_file"`
	SQLiteJournalMode string `yaml:"sqlite_journal_mode"`
	PostgresDSN       string `yaml:"postgres_dsn"`
}

type ServerConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	GinMode     string `yaml:"gin_mode"`
	AllowOrigin string `yaml:"allow_origin"`
}

type AdminConfig struct {
	Username        string `yaml:"username"`
	PasswordHash    string `yaml:"password_hash"`
	TokenSecret     string `yaml:"token_secret"`
	TokenTTLMinutes int    `yaml:"token_ttl_minutes"`
	CookieName      string `yaml:"cookie_name"`
}

type KioskConfig struct {
	SubmitAttempts int `yaml:"submit_attempts"`
	RetryDelayMS   int `yaml:"retry_delay_ms"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Storage backends understood by storage.Open.
const (
	BackendCSV      = "csv"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read, contains invalid YAML,
// or describes an unusable schema.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the settings that the rest of the program relies on.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendCSV, BackendSQLite, BackendPostgres:
	default:
		return fmt.Errorf("invalid config: unknown storage backend %q", c.Storage.Backend)
	}
	switch c.Site.Locale {
	case "ko", "en":
	default:
		return fmt.Errorf("invalid config: unsupported locale %q", c.Site.Locale)
	}
	if len(c.Schema.Genders) == 0 || len(c.Schema.AgeBrackets) == 0 {
		return fmt.Errorf("invalid config: schema needs genders and age_brackets")
	}
	if len(c.Schema.Purposes) > 0 && !slices.Contains(c.Schema.Purposes, c.Schema.FallbackPurpose) {
		return fmt.Errorf("invalid config: fallback_purpose %q is not one of the purposes", c.Schema.FallbackPurpose)
	}
	if c.Schema.LocationEnabled && len(c.Schema.Locations) == 0 {
		return fmt.Errorf("invalid config: location_enabled requires locations")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server port %d out of range", c.Server.Port)
	}
	switch c.Server.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid config: unknown gin_mode %q", c.Server.GinMode)
	}
	return nil
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := ExpandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		// The file may later hold the admin password hash.
		if err := os.WriteFile(path, data, 0600); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}

// DataPath joins name onto the expanded storage directory.
func (s StorageConfig) DataPath(name string) (string, error) {
	dir, err := ExpandPath(s.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

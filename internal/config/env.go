package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that override file settings. Secrets are meant to
// live here rather than in config.yaml.
const (
	EnvConfigPath   = "GUESTBOOK_CONFIG"
	EnvBackend      = "GUESTBOOK_STORAGE_BACKEND"
	EnvDataPath     = "GUESTBOOK_DATA_PATH"
	EnvPostgresDSN  = "GUESTBOOK_POSTGRES_DSN"
	EnvPort         = "GUESTBOOK_PORT"
	EnvAdminUser    = "GUESTBOOK_ADMIN_USERNAME"
	EnvAdminHash    = "GUESTBOOK_ADMIN_PASSWORD_HASH"
	EnvTokenSecret  = "GUESTBOOK_TOKEN_SECRET"
	EnvLogLevel     = "GUESTBOOK_LOG_LEVEL"
	EnvLogFormat    = "GUESTBOOK_LOG_FORMAT"
	defaultEnvFiles = ".env"
)

// LoadEnvFile loads KEY=VALUE pairs from path (".env" when empty) into the
// process environment. A missing file is not an error. Variables already
// set in the environment win.
func LoadEnvFile(path string) error {
	if path == "" {
		path = defaultEnvFiles
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with any GUESTBOOK_* variables that are set.
func ApplyEnv(cfg *Config) error {
	if v := os.Getenv(EnvBackend); v != "" {
		cfg.Storage.Backend = v
	}
	if v := os.Getenv(EnvDataPath); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv(EnvPostgresDSN); v != "" {
		cfg.Storage.PostgresDSN = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: invalid port %q", EnvPort, v)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv(EnvAdminUser); v != "" {
		cfg.Admin.Username = v
	}
	if v := os.Getenv(EnvAdminHash); v != "" {
		cfg.Admin.PasswordHash = v
	}
	if v := os.Getenv(EnvTokenSecret); v != "" {
		cfg.Admin.TokenSecret = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Logging.Format = v
	}
	return cfg.Validate()
}

// Resolve loads the env file, picks the config path (explicit flag, then
// GUESTBOOK_CONFIG, then the default location), loads it and applies
// environment overrides.
func Resolve(path, envFile string) (*Config, error) {
	if err := LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	var (
		cfg *Config
		err error
	)
	if path == "" {
		cfg, err = LoadOrCreate()
	} else {
		expanded, expErr := ExpandPath(path)
		if expErr != nil {
			return nil, expErr
		}
		cfg, err = LoadOrCreateAt(expanded)
	}
	if err != nil {
		return nil, err
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Package config reads carteira.yaml and the environment overrides that
// apply to it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/carteira-dev/carteira/internal/logger"
)

// FileName is the config file at the repository root.
const FileName = "carteira.yaml"

// Storage backends.
const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

// Environment keys that override the file.
const (
	EnvBackend    = "CARTEIRA_BACKEND"
	EnvSQLitePath = "CARTEIRA_SQLITE_PATH"
	EnvLogLevel   = "CARTEIRA_LOG_LEVEL"
	EnvPIN        = "CARTEIRA_PIN"
)

// Config represents carteira.yaml.
type Config struct {
	Profile  ProfileConfig  `yaml:"profile"`
	Storage  StorageConfig  `yaml:"storage"`
	Security SecurityConfig `yaml:"security"`
	Logging  LoggingConfig  `yaml:"logging"`
	Git      GitConfig      `yaml:"git"`
}

// ProfileConfig identifies the owner of the data.
type ProfileConfig struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email,omitempty"`
}

// StorageConfig selects where entries, cards and invoices live.
type StorageConfig struct {
	Backend    string `yaml:"backend"`
	SQLitePath string `yaml:"sqlite_path,omitempty"` // relative to the repository root
}

// SecurityConfig holds the PIN hash. An empty hash disables the lock.
type SecurityConfig struct {
	PINHash string `yaml:"pin_hash,omitempty"`
}

// LoggingConfig sets the log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Path returns the config file of a repository.
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, FileName)
}

// Load reads a carteira.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendCSV
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config for a new repository.
func Default(name, backend string) *Config {
	if backend == "" {
		backend = BackendCSV
	}
	cfg := &Config{
		Profile: ProfileConfig{Name: name},
		Storage: StorageConfig{Backend: backend},
		Logging: LoggingConfig{Level: "info"},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "carteira",
			AuthorEmail: "carteira@localhost",
		},
	}
	if backend == BackendSQLite {
		cfg.Storage.SQLitePath = "carteira.db"
	}
	return cfg
}

// Validate reports every problem in cfg at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.Backend {
	case BackendCSV:
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			errs = append(errs, errors.New("storage.sqlite_path is required for the sqlite backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.backend %q must be %q or %q", c.Storage.Backend, BackendCSV, BackendSQLite))
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if c.Git.AutoCommit && (c.Git.AuthorName == "" || c.Git.AuthorEmail == "") {
		errs = append(errs, errors.New("git.author_name and git.author_email are required when git.auto_commit is on"))
	}
	return errors.Join(errs...)
}

// Env holds the overrides found in the environment.
type Env struct {
	Backend    string
	SQLitePath string
	LogLevel   string
	PIN        string
}

// LoadEnv reads <repoRoot>/.env if present, then lets the process
// environment override it. The process environment is never modified.
func LoadEnv(repoRoot string) (Env, error) {
	vars, err := godotenv.Read(filepath.Join(repoRoot, ".env"))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Env{}, fmt.Errorf("reading .env: %w", err)
		}
		vars = map[string]string{}
	}
	get := func(key string) string {
		if v, ok := os.LookupEnv(key); ok {
			return v
		}
		return vars[key]
	}
	return Env{
		Backend:    get(EnvBackend),
		SQLitePath: get(EnvSQLitePath),
		LogLevel:   get(EnvLogLevel),
		PIN:        get(EnvPIN),
	}, nil
}

// Apply copies the non-empty overrides into c.
func (c *Config) Apply(env Env) {
	if env.Backend != "" {
		c.Storage.Backend = env.Backend
	}
	if env.SQLitePath != "" {
		c.Storage.SQLitePath = env.SQLitePath
	}
	if env.LogLevel != "" {
		c.Logging.Level = env.LogLevel
	}
}

// SQLitePath resolves the database path against repoRoot.
func (c *Config) SQLitePath(repoRoot string) string {
	if filepath.IsAbs(c.Storage.SQLitePath) {
		return c.Storage.SQLitePath
	}
	return filepath.Join(repoRoot, c.Storage.SQLitePath)
}

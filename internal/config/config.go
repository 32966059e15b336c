package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the top-level folio.yaml configuration. Environment
// variables (FOLIO_*) override values from the file.
type Config struct {
	Ledger LedgerConfig `yaml:"ledger"`
	Log    LogConfig    `yaml:"log"`
	Git    GitConfig    `yaml:"git"`
}

// LedgerConfig locates the ledger database and its text-tree export.
type LedgerConfig struct {
	DBPath       string `yaml:"db_path"       env:"FOLIO_DB"`
	ExportDir    string `yaml:"export_dir"    env:"FOLIO_EXPORT_DIR"`
	BaseCurrency string `yaml:"base_currency" env:"FOLIO_BASE_CURRENCY"`
	// AutoCreate controls whether appends may create accounts and
	// instruments on first reference.
	AutoCreate bool `yaml:"auto_create" env:"FOLIO_AUTO_CREATE"`
}

// LogConfig controls the CLI's structured logging.
type LogConfig struct {
	Level  string `yaml:"level"  env:"FOLIO_LOG_LEVEL"`
	Format string `yaml:"format" env:"FOLIO_LOG_FORMAT"` // json, console
}

// GitConfig controls version control of the exported text tree.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a folio.yaml file and applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("applying env overrides: %w", err)
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

// Default returns a Config with sensible defaults for a new workspace.
func Default() *Config {
	return &Config{
		Ledger: LedgerConfig{
			DBPath:       "ledger.db",
			ExportDir:    "ledger-data",
			BaseCurrency: "USD",
			AutoCreate:   true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Git: GitConfig{
			AutoCommit:  false,
			AuthorName:  "folio",
			AuthorEmail: "folio@localhost",
		},
	}
}

package config

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/pseudomuto/groundskeeper/pkg/consts"
	"gopkg.in/yaml.v3"
)

type (
	// Database holds the connection settings for the target database.
	Database struct {
		// Driver selects the backend: "sqlite" or "postgres"
		Driver string `yaml:"driver"`

		// DSN is the connection string. It may be overridden at the command
		// line or through GROUNDSKEEPER_DSN
		DSN string `yaml:"dsn,omitempty"`

		// LedgerTable overrides the migration ledger table name
		LedgerTable string `yaml:"ledger_table,omitempty"`
	}

	// Config represents the project configuration (groundskeeper.yaml).
	Config struct {
		// Database contains connection settings
		Database Database `yaml:"database"`

		// Dirs lists candidate migration directories in preference order; the
		// first one that exists and is readable is used
		Dirs []string `yaml:"dirs"`

		// DumpDir is the directory holding dump migration scripts
		DumpDir string `yaml:"dump_dir,omitempty"`

		// CommentPrefixes overrides the script parser's full-line comment
		// prefixes
		CommentPrefixes []string `yaml:"comment_prefixes,omitempty"`
	}
)

// LoadConfig parses a project configuration from the provided io.Reader.
//
// The function expects YAML-formatted configuration data. Missing optional
// values are filled with defaults: sqlite driver, the reserved ledger table
// name, and the standard comment prefixes.
//
// Example:
//
//	yamlData := `
//	database:
//	  driver: postgres
//	  dsn: postgres://localhost/app?sslmode=disable
//	dirs:
//	  - db/migrations
//	  - /usr/share/app/migrations
//	`
//
//	cfg, err := config.LoadConfig(strings.NewReader(yamlData))
//	if err != nil {
//		return err
//	}
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.LedgerTable == "" {
		cfg.Database.LedgerTable = consts.DefaultLedgerTable
	}
	if len(cfg.CommentPrefixes) == 0 {
		cfg.CommentPrefixes = consts.DefaultCommentPrefixes
	}

	return &cfg, nil
}

// LoadConfigFile loads a project configuration from the specified file path.
// This is a convenience function that opens the file and calls LoadConfig.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadConfig(f)
}

package config_test

import (
	_ "embed"
	"os"
	"path/filepath"
	"strings"
	"testing"

	. "github.com/pseudomuto/groundskeeper/pkg/config"
	"github.com/pseudomuto/groundskeeper/pkg/consts"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/groundskeeper.yaml
var testConfigYAML string

func TestLoadConfig(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		cfg, err := LoadConfig(strings.NewReader(testConfigYAML))
		require.NoError(t, err)
		validateTestConfig(t, cfg)
	})

	t.Run("defaults fill missing values", func(t *testing.T) {
		cfg, err := LoadConfig(strings.NewReader("dirs:\n  - db/migrations\n"))
		require.NoError(t, err)
		require.Equal(t, "sqlite", cfg.Database.Driver)
		require.Equal(t, consts.DefaultLedgerTable, cfg.Database.LedgerTable)
		require.Equal(t, consts.DefaultCommentPrefixes, cfg.CommentPrefixes)
		require.Empty(t, cfg.Database.DSN)
		require.Empty(t, cfg.DumpDir)
	})

	t.Run("error", func(t *testing.T) {
		cfg, err := LoadConfig(strings.NewReader("invalid: yaml: ["))
		require.Error(t, err)
		require.Nil(t, cfg)
		require.Contains(t, err.Error(), "failed to unmarshal config")
	})
}

func TestLoadConfigFile(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "groundskeeper.yaml")
		require.NoError(t, os.WriteFile(path, []byte(testConfigYAML), consts.ModeFile))

		cfg, err := LoadConfigFile(path)
		require.NoError(t, err)
		validateTestConfig(t, cfg)
	})

	t.Run("missing file", func(t *testing.T) {
		cfg, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		require.Nil(t, cfg)
		require.Contains(t, err.Error(), "failed to open file")
	})
}

func validateTestConfig(t *testing.T, cfg *Config) {
	t.Helper()

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "postgres://localhost:5432/app?sslmode=disable", cfg.Database.DSN)
	require.Equal(t, "schema_migrations", cfg.Database.LedgerTable)
	require.Equal(t, []string{"db/migrations", "/usr/share/app/migrations"}, cfg.Dirs)
	require.Equal(t, "db/dumps", cfg.DumpDir)
	require.Equal(t, []string{"--", "#"}, cfg.CommentPrefixes)
}

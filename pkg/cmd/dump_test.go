package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pseudomuto/groundskeeper/pkg/consts"
	"github.com/pseudomuto/groundskeeper/pkg/db"
	"github.com/stretchr/testify/require"
)

func TestDumpCommand(t *testing.T) {
	cfg, migrations := newTestConfig(t)
	writeMigration(t, migrations, "0001_create_accounts.sql", "CREATE TABLE accounts (id INTEGER PRIMARY KEY, email TEXT);\n")

	dumps := filepath.Join(filepath.Dir(migrations), "dumps")
	require.NoError(t, os.Mkdir(dumps, consts.ModeDir))
	require.NoError(t, os.WriteFile(
		filepath.Join(dumps, "seed_accounts.sql"),
		[]byte("INSERT INTO accounts (id, email) VALUES (1, 'alice@example.com');\n"),
		consts.ModeFile,
	))
	cfg.DumpDir = dumps

	require.NoError(t, runCommand(t, migrate(migrateParams{Config: cfg})))
	require.NoError(t, runCommand(t, dump(dumpParams{Config: cfg})))

	sess, err := db.Open(context.Background(), cfg.Database.Driver, cfg.Database.DSN)
	require.NoError(t, err)
	defer func() { _ = sess.Close() }()

	n, err := sess.QueryScalarLong(context.Background(), "SELECT COUNT(*) FROM accounts")
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestDumpCommandDryRun(t *testing.T) {
	cfg, migrations := newTestConfig(t)

	dumps := filepath.Join(filepath.Dir(migrations), "dumps")
	require.NoError(t, os.Mkdir(dumps, consts.ModeDir))
	require.NoError(t, os.WriteFile(
		filepath.Join(dumps, "anything.sql"),
		[]byte("INSERT INTO missing VALUES (1);\n"),
		consts.ModeFile,
	))
	cfg.DumpDir = dumps

	// Dry run never opens the database, so the broken script is harmless.
	require.NoError(t, runCommand(t, dump(dumpParams{Config: cfg}), "--dry-run"))
}

func TestDumpCommandNoDumpDir(t *testing.T) {
	cfg, _ := newTestConfig(t)

	err := runCommand(t, dump(dumpParams{Config: cfg}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "no dump_dir configured")
}

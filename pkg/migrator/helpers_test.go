package migrator_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/pseudomuto/groundskeeper/pkg/consts"
	"github.com/pseudomuto/groundskeeper/pkg/db"
	"github.com/stretchr/testify/require"
)

// openTestSession opens an in-memory sqlite session that lives for the
// duration of the test.
func openTestSession(t *testing.T) *db.Session {
	t.Helper()

	sess, err := db.Open(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Close() })

	return sess
}

// writeScript drops a migration script into dir and returns its file name.
func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()

	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), consts.ModeFile))
	return name
}

// quietLogger discards all output so failure-path tests don't spam the console.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

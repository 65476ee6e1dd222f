package migrator_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pseudomuto/groundskeeper/pkg/consts"
	. "github.com/pseudomuto/groundskeeper/pkg/migrator"
	"github.com/stretchr/testify/require"
)

func TestScriptParser(t *testing.T) {
	parser := NewScriptParser()

	t.Run("splits statements on terminators", func(t *testing.T) {
		script := strings.Join([]string{
			"-- create the base table",
			"CREATE TABLE t (a INT);",
			"INSERT INTO t VALUES",
			"(1);",
			"",
		}, "\n")

		statements, err := parser.Parse(strings.NewReader(script))
		require.NoError(t, err)
		require.Equal(t, []string{
			"CREATE TABLE t (a INT)",
			"INSERT INTO t VALUES (1)",
		}, statements)
	})

	t.Run("coalesces multi-line statements with single spaces", func(t *testing.T) {
		script := "CREATE TABLE accounts (\n  id INTEGER,\n  name TEXT\n);\n"

		statements, err := parser.Parse(strings.NewReader(script))
		require.NoError(t, err)
		require.Equal(t, []string{"CREATE TABLE accounts ( id INTEGER, name TEXT )"}, statements)
	})

	t.Run("skips blank lines and comments", func(t *testing.T) {
		script := strings.Join([]string{
			"/* block style note",
			"# inline hash note",
			"-- dash note",
			"",
			"   ",
			"SELECT 1;",
		}, "\n")

		statements, err := parser.Parse(strings.NewReader(script))
		require.NoError(t, err)
		require.Equal(t, []string{"SELECT 1"}, statements)
	})

	t.Run("discards an unterminated trailing statement", func(t *testing.T) {
		script := "CREATE TABLE t (a INT);\nINSERT INTO t VALUES (1)\n"

		statements, err := parser.Parse(strings.NewReader(script))
		require.NoError(t, err)
		require.Equal(t, []string{"CREATE TABLE t (a INT)"}, statements)
	})

	t.Run("empty and all-comment input yield no statements", func(t *testing.T) {
		for _, script := range []string{"", "\n\n", "-- nothing here\n# still nothing\n"} {
			statements, err := parser.Parse(strings.NewReader(script))
			require.NoError(t, err)
			require.Empty(t, statements)
		}
	})

	t.Run("custom comment prefixes replace the defaults", func(t *testing.T) {
		custom := NewScriptParser("//")

		statements, err := custom.Parse(strings.NewReader("// skipped\n-- kept;\nSELECT 1;"))
		require.NoError(t, err)
		require.Equal(t, []string{"-- kept", "SELECT 1"}, statements)
	})
}

func TestScriptParserParseFile(t *testing.T) {
	parser := NewScriptParser()

	t.Run("success", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "0001_init.sql")
		require.NoError(t, os.WriteFile(path, []byte("SELECT 1;\nSELECT 2;\n"), consts.ModeFile))

		statements, err := parser.ParseFile(path)
		require.NoError(t, err)
		require.Equal(t, []string{"SELECT 1", "SELECT 2"}, statements)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := parser.ParseFile(filepath.Join(t.TempDir(), "nope.sql"))
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to open script")
	})
}

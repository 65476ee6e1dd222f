package migrator_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/pseudomuto/groundskeeper/pkg/consts"
	. "github.com/pseudomuto/groundskeeper/pkg/migrator"
	"github.com/stretchr/testify/require"
)

func TestLedgerDefaults(t *testing.T) {
	sess := openTestSession(t)

	ledger := NewLedger(sess, "", quietLogger())
	require.Equal(t, consts.DefaultLedgerTable, ledger.Table())

	named := NewLedger(sess, "schema_migrations", quietLogger())
	require.Equal(t, "schema_migrations", named.Table())
}

func TestLedgerEnsureTable(t *testing.T) {
	ctx := context.Background()
	sess := openTestSession(t)
	ledger := NewLedger(sess, "", quietLogger())

	require.NoError(t, ledger.EnsureTable(ctx))

	// A second call is a cached no-op; a second ledger instance over the same
	// connection hits the existing table and must swallow the create failure.
	require.NoError(t, ledger.EnsureTable(ctx))
	require.NoError(t, NewLedger(sess, "", quietLogger()).EnsureTable(ctx))
}

func TestLedgerCurrentVersion(t *testing.T) {
	ctx := context.Background()
	sess := openTestSession(t)
	ledger := NewLedger(sess, "", quietLogger())

	t.Run("missing table reads as version 0", func(t *testing.T) {
		require.EqualValues(t, 0, ledger.CurrentVersion(ctx))
	})

	t.Run("empty table reads as version 0", func(t *testing.T) {
		require.NoError(t, ledger.EnsureTable(ctx))
		require.EqualValues(t, 0, ledger.CurrentVersion(ctx))
	})

	t.Run("reads the maximum version", func(t *testing.T) {
		require.NoError(t, ledger.Lock(ctx, NewVersioned(1, "first", "0001_first.sql")))
		require.NoError(t, ledger.Unlock(ctx, 1))
		require.NoError(t, ledger.Lock(ctx, NewVersioned(2, "second", "0002_second.sql")))
		require.NoError(t, ledger.Unlock(ctx, 2))

		require.EqualValues(t, 2, ledger.CurrentVersion(ctx))
	})
}

func TestLedgerLocking(t *testing.T) {
	ctx := context.Background()
	sess := openTestSession(t)
	ledger := NewLedger(sess, "", quietLogger())

	t.Run("missing table reads as unlocked", func(t *testing.T) {
		require.False(t, ledger.IsLocked(ctx))
	})

	t.Run("lock row flips the signal, unlock clears it", func(t *testing.T) {
		require.NoError(t, ledger.EnsureTable(ctx))
		require.False(t, ledger.IsLocked(ctx))

		require.NoError(t, ledger.Lock(ctx, NewVersioned(1, "first", "0001_first.sql")))
		require.True(t, ledger.IsLocked(ctx))

		require.NoError(t, ledger.Unlock(ctx, 1))
		require.False(t, ledger.IsLocked(ctx))
	})

	t.Run("duplicate version cannot lock twice", func(t *testing.T) {
		require.Error(t, ledger.Lock(ctx, NewVersioned(1, "again", "0001_first.sql")))
	})
}

func TestLedgerEntries(t *testing.T) {
	ctx := context.Background()
	sess := openTestSession(t)
	ledger := NewLedger(sess, "", quietLogger())

	require.NoError(t, ledger.EnsureTable(ctx))

	entries, err := ledger.Entries(ctx)
	require.NoError(t, err)
	require.Empty(t, entries)

	// Insert out of order; Entries must come back sorted by version. One row
	// stays in flight to prove Created scans as nil.
	require.NoError(t, ledger.Lock(ctx, NewVersioned(2, "it's second", "0002_second.sql")))
	require.NoError(t, ledger.Unlock(ctx, 2))
	require.NoError(t, ledger.Lock(ctx, NewVersioned(1, "first", "0001_first.sql")))

	entries, err = ledger.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	require.EqualValues(t, 1, entries[0].ID)
	require.Equal(t, "first", entries[0].Description)
	require.Equal(t, "0001_first.sql", entries[0].File)
	require.Nil(t, entries[0].Created)

	require.EqualValues(t, 2, entries[1].ID)
	require.Equal(t, "it's second", entries[1].Description)
	require.NotNil(t, entries[1].Created)
	require.Positive(t, *entries[1].Created)
}

func TestLedgerConcurrentSignal(t *testing.T) {
	// Two ledgers over the same connection see each other's lock rows. This is
	// the crash-recovery scenario: a row left with a NULL created timestamp by
	// one runner blocks the next one.
	ctx := context.Background()
	sess := openTestSession(t)

	first := NewLedger(sess, "", quietLogger())
	require.NoError(t, first.EnsureTable(ctx))
	require.NoError(t, first.Lock(ctx, NewVersioned(1, "first", "0001_first.sql")))

	second := NewLedger(sess, "", quietLogger())
	require.NoError(t, second.EnsureTable(ctx))
	require.True(t, second.IsLocked(ctx))
}

func TestLedgerDDLIsolation(t *testing.T) {
	// Distinct table names produce independent ledgers on one database.
	ctx := context.Background()
	sess := openTestSession(t)

	a := NewLedger(sess, "ledger_a", quietLogger())
	b := NewLedger(sess, "ledger_b", quietLogger())
	require.NoError(t, a.EnsureTable(ctx))
	require.NoError(t, b.EnsureTable(ctx))

	require.NoError(t, a.Lock(ctx, NewVersioned(1, "first", "0001_first.sql")))
	require.NoError(t, a.Unlock(ctx, 1))

	require.EqualValues(t, 1, a.CurrentVersion(ctx))
	require.EqualValues(t, 0, b.CurrentVersion(ctx))

	for _, stmt := range b.DDL() {
		require.NotContains(t, stmt, "ledger_a", fmt.Sprintf("statement leaked the wrong table: %s", stmt))
	}
}

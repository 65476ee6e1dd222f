package migrator

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/groundskeeper/pkg/consts"
	"github.com/pseudomuto/groundskeeper/pkg/db"
)

// Ledger column names. The table name itself is configurable; the columns are
// part of the wire format and fixed.
const (
	colID          = "migration_id"
	colDescription = "migration_description"
	colFile        = "migration_file"
	colCreated     = "migration_created"
)

type (
	// Ledger is the persisted metadata table recording one row per applied or
	// in-flight versioned migration. A row with a NULL created timestamp marks
	// a migration that is currently (or was, at crash time) being applied;
	// this NULL is the advisory lock signal. A fully committed migration
	// always has a non-NULL created timestamp.
	Ledger struct {
		conn         db.Conn
		table        string
		logger       *slog.Logger
		bootstrapped bool

		// now is swappable for tests.
		now func() time.Time
	}

	// Entry is one ledger row. Created is nil while the migration is
	// in-flight.
	Entry struct {
		ID          int64
		Description string
		File        string
		Created     *int64
	}
)

// NewLedger creates a ledger over the given connection. An empty table name
// selects the default (`$migration`).
func NewLedger(conn db.Conn, table string, logger *slog.Logger) *Ledger {
	if table == "" {
		table = consts.DefaultLedgerTable
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{conn: conn, table: table, logger: logger, now: time.Now}
}

// Table returns the ledger's table name.
func (l *Ledger) Table() string { return l.table }

// DDL returns the statements EnsureTable attempts: the ledger table creation
// and the secondary index on the created column.
func (l *Ledger) DDL() []string {
	table := l.conn.EscapeIdentifier(l.table)
	index := l.conn.EscapeIdentifier(l.table + "_created")

	return []string{
		fmt.Sprintf(
			"CREATE TABLE %s (%s INTEGER NOT NULL, %s VARCHAR(190) NOT NULL, %s VARCHAR(190) NOT NULL, %s INTEGER NULL, PRIMARY KEY (%s))",
			table, colID, colDescription, colFile, colCreated, colID,
		),
		fmt.Sprintf("CREATE INDEX %s ON %s (%s)", index, table, colCreated),
	}
}

// EnsureTable bootstraps the ledger table. It is idempotent and runs at most
// once per Ledger instance; the outcome is cached. A creation failure is
// swallowed and taken to mean the table already exists (the only bootstrap
// failure that may be swallowed).
func (l *Ledger) EnsureTable(ctx context.Context) error {
	if l.bootstrapped {
		return nil
	}

	ddl := l.DDL()
	if _, err := l.conn.Execute(ctx, ddl[0]); err != nil {
		l.logger.Debug("ledger table creation failed, assuming it exists", "table", l.table, "error", err)
		l.bootstrapped = true
		return nil
	}

	if _, err := l.conn.Execute(ctx, ddl[1]); err != nil {
		l.logger.Debug("ledger index creation failed", "table", l.table, "error", err)
	}

	l.bootstrapped = true
	return nil
}

// CurrentVersion returns MAX(migration_id) over the ledger, or 0 when the
// table is empty or the query fails for any reason. An absent table and "no
// migrations applied yet" are treated identically. Never errors.
func (l *Ledger) CurrentVersion(ctx context.Context) int64 {
	stmt := fmt.Sprintf("SELECT MAX(%s) FROM %s", colID, l.conn.EscapeIdentifier(l.table))

	v, err := l.conn.QueryScalarLong(ctx, stmt)
	if err != nil {
		l.logger.Debug("version query failed, treating as version 0", "error", err)
		return 0
	}
	return v
}

// IsLocked reports whether at least one ledger row has a NULL created
// timestamp. A query failure is treated as "not locked" (fail open: an
// unreadable ledger cannot be trusted to block anything). This is a
// best-effort advisory signal, not a mutex; it does not prevent two runners
// from racing to insert the same next version. Single-writer operation is
// assumed.
func (l *Ledger) IsLocked(ctx context.Context) bool {
	stmt := fmt.Sprintf(
		"SELECT COUNT(*) FROM %s WHERE %s IS NULL",
		l.conn.EscapeIdentifier(l.table), colCreated,
	)

	v, err := l.conn.QueryScalarLong(ctx, stmt)
	if err != nil {
		l.logger.Debug("lock query failed, treating as unlocked", "error", err)
		return false
	}
	return v > 0
}

// Lock inserts the ledger row for the migration with a NULL created timestamp.
// Called inside the migration's transaction, immediately before the script
// runs, so a rollback removes the row again.
func (l *Ledger) Lock(ctx context.Context, m *VersionedMigration) error {
	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s, %s, %s, %s) VALUES (%s, %s, %s, NULL)",
		l.conn.EscapeIdentifier(l.table),
		colID, colDescription, colFile, colCreated,
		strconv.FormatInt(m.Version(), 10),
		l.conn.EscapeValue(m.Description()),
		l.conn.EscapeValue(m.File()),
	)

	if _, err := l.conn.Execute(ctx, stmt); err != nil {
		return errors.Wrapf(err, "failed to lock ledger for version %d", m.Version())
	}
	return nil
}

// Unlock stamps the row's created timestamp, marking the migration applied.
// Called inside the migration's transaction, immediately after a successful
// post-hook.
func (l *Ledger) Unlock(ctx context.Context, version int64) error {
	stmt := fmt.Sprintf(
		"UPDATE %s SET %s = %d WHERE %s = %d",
		l.conn.EscapeIdentifier(l.table),
		colCreated, l.now().Unix(),
		colID, version,
	)

	if _, err := l.conn.Execute(ctx, stmt); err != nil {
		return errors.Wrapf(err, "failed to unlock ledger for version %d", version)
	}
	return nil
}

// Entries returns all ledger rows ordered by version.
func (l *Ledger) Entries(ctx context.Context) ([]Entry, error) {
	stmt := fmt.Sprintf(
		"SELECT %s, %s, %s, %s FROM %s ORDER BY %s ASC",
		colID, colDescription, colFile, colCreated,
		l.conn.EscapeIdentifier(l.table), colID,
	)

	rows, err := l.conn.QueryRows(ctx, stmt)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read ledger entries")
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Description, &e.File, &e.Created); err != nil {
			return nil, errors.Wrap(err, "failed to scan ledger entry")
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate ledger entries")
	}
	return entries, nil
}

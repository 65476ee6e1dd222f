package db

import "context"

type (
	// Conn is the connection capability the migration engine depends on.
	//
	// It is intentionally minimal: the engine builds all of its SQL as literal
	// statement text (interpolated through the escape functions) and executes it
	// serially over a single session. Implementations are not required to be
	// safe for concurrent use; the engine uses one Conn exclusively per run.
	//
	// Begin, Commit and Rollback delimit one all-or-nothing unit of work per
	// migration. Auto-commit must be suspended between Begin and Commit/Rollback
	// so that the boundary is meaningful.
	Conn interface {
		// Execute runs a single SQL statement and returns the affected row
		// count. Drivers that do not report row counts for a statement kind
		// (typically DDL) return 0.
		Execute(ctx context.Context, stmt string) (int64, error)

		// QueryScalarLong runs a query expected to yield a single integer
		// value. A NULL result scans as 0. Callers that can tolerate failure
		// (version lookup, lock check) substitute their own safe default when
		// an error is returned.
		QueryScalarLong(ctx context.Context, stmt string) (int64, error)

		// QueryRows runs a query and returns a row cursor. Used by hooks and
		// dump-migration predicates, not by the core loop itself.
		QueryRows(ctx context.Context, stmt string) (Rows, error)

		// EscapeIdentifier quotes a table or column name for safe
		// interpolation into statement text.
		EscapeIdentifier(name string) string

		// EscapeValue quotes a string value for safe interpolation into
		// statement text.
		EscapeValue(value string) string

		// EscapeLikePattern escapes LIKE wildcards in a value so it matches
		// literally.
		EscapeLikePattern(value string) string

		// Begin opens a transaction on the session.
		Begin(ctx context.Context) error

		// Commit commits the open transaction.
		Commit(ctx context.Context) error

		// Rollback rolls back the open transaction.
		Rollback(ctx context.Context) error
	}

	// Rows is the cursor surface returned by Conn.QueryRows. *sql.Rows
	// satisfies it directly.
	Rows interface {
		Next() bool
		Scan(dest ...any) error
		Close() error
		Err() error
	}
)

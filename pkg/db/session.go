package db

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	_ "github.com/lib/pq"  // postgres driver
	_ "modernc.org/sqlite" // sqlite driver
)

// Session adapts a dedicated database/sql connection to the Conn capability.
//
// The session pins a single connection out of the pool so that transaction
// control statements (BEGIN/COMMIT/ROLLBACK) and every statement in between run
// on the same underlying database session. The migration engine uses the
// session exclusively and serially; Session is not safe for concurrent use.
type Session struct {
	pool    *sql.DB
	conn    *sql.Conn
	dialect Dialect
}

// Open opens a database handle for the given driver name and DSN, checks a
// dedicated connection out of the pool, and returns a Session bound to it.
//
// Example:
//
//	sess, err := db.Open(ctx, "sqlite", "file:app.db")
//	if err != nil {
//		return err
//	}
//	defer sess.Close()
func Open(ctx context.Context, driver, dsn string) (*Session, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}

	pool, err := sql.Open(dialect.Name(), dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s database", driver)
	}

	conn, err := pool.Conn(ctx)
	if err != nil {
		_ = pool.Close()
		return nil, errors.Wrapf(err, "failed to acquire %s connection", driver)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		_ = pool.Close()
		return nil, errors.Wrapf(err, "failed to ping %s database", driver)
	}

	return &Session{pool: pool, conn: conn, dialect: dialect}, nil
}

// NewSession wraps an already-checked-out connection. The caller retains
// ownership of the pool; Close only releases the connection.
func NewSession(conn *sql.Conn, dialect Dialect) *Session {
	return &Session{conn: conn, dialect: dialect}
}

// Close releases the pinned connection and, when the session owns it, the
// underlying pool.
func (s *Session) Close() error {
	err := s.conn.Close()
	if s.pool != nil {
		if perr := s.pool.Close(); err == nil {
			err = perr
		}
	}
	return err
}

// Execute runs a single statement and returns the affected row count. A driver
// that cannot report row counts for the statement kind yields 0.
func (s *Session) Execute(ctx context.Context, stmt string) (int64, error) {
	res, err := s.conn.ExecContext(ctx, stmt)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to execute: %s", stmt)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return affected, nil
}

// QueryScalarLong runs a query expected to return one integer. NULL scans as 0.
func (s *Session) QueryScalarLong(ctx context.Context, stmt string) (int64, error) {
	var v sql.NullInt64
	if err := s.conn.QueryRowContext(ctx, stmt).Scan(&v); err != nil {
		return 0, errors.Wrapf(err, "failed to query scalar: %s", stmt)
	}
	if !v.Valid {
		return 0, nil
	}
	return v.Int64, nil
}

// QueryRows runs a query and returns the cursor.
func (s *Session) QueryRows(ctx context.Context, stmt string) (Rows, error) {
	rows, err := s.conn.QueryContext(ctx, stmt)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query: %s", stmt)
	}
	return rows, nil
}

// EscapeIdentifier quotes an identifier for the session's dialect.
func (s *Session) EscapeIdentifier(name string) string {
	return s.dialect.QuoteIdentifier(name)
}

// EscapeValue quotes a string literal for the session's dialect.
func (s *Session) EscapeValue(value string) string {
	return s.dialect.QuoteValue(value)
}

// EscapeLikePattern escapes LIKE wildcards for the session's dialect.
func (s *Session) EscapeLikePattern(value string) string {
	return s.dialect.EscapeLikePattern(value)
}

// Begin opens a transaction on the pinned connection, suspending auto-commit
// until Commit or Rollback.
func (s *Session) Begin(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, "BEGIN"); err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	return nil
}

// Commit commits the open transaction.
func (s *Session) Commit(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, "COMMIT"); err != nil {
		return errors.Wrap(err, "failed to commit transaction")
	}
	return nil
}

// Rollback rolls back the open transaction.
func (s *Session) Rollback(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, "ROLLBACK"); err != nil {
		return errors.Wrap(err, "failed to rollback transaction")
	}
	return nil
}

var _ Conn = (*Session)(nil)

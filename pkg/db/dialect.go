package db

import (
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

type (
	// Dialect handles the per-backend pieces of SQL generation: identifier and
	// value quoting, and LIKE pattern escaping. Everything else the engine
	// emits is plain SQL-92 and runs unchanged on both supported backends.
	Dialect interface {
		// Name returns the database/sql driver name this dialect pairs with.
		Name() string

		// QuoteIdentifier quotes a single identifier (no qualification).
		QuoteIdentifier(name string) string

		// QuoteValue quotes a string literal.
		QuoteValue(value string) string

		// EscapeLikePattern escapes %, _ and the escape character itself so a
		// value matches literally inside a LIKE pattern.
		EscapeLikePattern(value string) string
	}

	sqliteDialect   struct{}
	postgresDialect struct{}
)

// DialectFor returns the dialect registered for the given driver name.
// Supported drivers are "sqlite" and "postgres".
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "sqlite":
		return sqliteDialect{}, nil
	case "postgres":
		return postgresDialect{}, nil
	default:
		return nil, errors.Errorf("unsupported driver: %s", driver)
	}
}

func (sqliteDialect) Name() string { return "sqlite" }

func (sqliteDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (sqliteDialect) QuoteValue(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func (sqliteDialect) EscapeLikePattern(value string) string {
	return escapeLike(value)
}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}

func (postgresDialect) QuoteValue(value string) string {
	return pq.QuoteLiteral(value)
}

func (postgresDialect) EscapeLikePattern(value string) string {
	return escapeLike(value)
}

// escapeLike escapes LIKE metacharacters with a backslash. Callers pairing the
// result with a LIKE expression are expected to add an ESCAPE '\' clause where
// the backend does not default to it.
func escapeLike(value string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(value)
}

// Package db provides the database connection capability consumed by the
// migration engine.
//
// The engine never touches database/sql directly; it talks to the small Conn
// interface defined here (execute statement, query scalar, query rows, escape
// identifier/value/LIKE pattern, transaction boundary). Session adapts a
// dedicated database/sql connection to that interface, with per-backend
// escaping handled by a Dialect.
//
// Two dialects are provided out of the box:
//   - sqlite (modernc.org/sqlite, pure Go)
//   - postgres (github.com/lib/pq)
package db

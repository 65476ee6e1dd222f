// Package migrator implements the schema migration engine: versioned and dump
// migration descriptors, the SQL script parser, the persisted migration ledger,
// and the Migrator that applies migrations one transaction at a time.
//
// The engine consumes only the db.Conn capability and exposes two entry points
// (run versioned migrations, run dump migrations) plus a current-version query.
// Versioned migrations are ordered and gap-checked against the ledger; dump
// migrations decide their own applicability through a predicate and are never
// tracked in the ledger.
//
// Concurrency model: one Migrator, one connection, one migration at a time.
// The ledger's NULL created timestamp acts as a best-effort advisory lock
// against a second coordinated run; it is not a true mutex and single-writer
// operation is assumed.
package migrator

package migrator

import (
	"context"

	"github.com/pseudomuto/groundskeeper/pkg/db"
)

type (
	// Hook is a side-effecting procedure invoked before or after a migration's
	// script body, inside the migration's transaction. Hooks receive the same
	// connection capability the script runs on.
	Hook func(ctx context.Context, conn db.Conn) error

	// Predicate decides whether a dump migration still needs to run. It is
	// evaluated outside any transaction; returning false skips the migration
	// without error.
	Predicate func(ctx context.Context, conn db.Conn) bool

	// Migration is the capability surface shared by the two descriptor
	// variants. The interface is closed: only VersionedMigration and
	// DumpMigration implement it.
	//
	// Descriptors are immutable once constructed; the engine only reads them.
	Migration interface {
		// Description returns the human-readable description.
		Description() string

		// File returns the script file name relative to the base path.
		File() string

		hooks() (pre, post Hook)
	}

	// descriptor carries the fields common to both variants.
	descriptor struct {
		description string
		file        string
		pre         Hook
		post        Hook
	}

	// Option configures hooks on a descriptor at construction time.
	Option func(*descriptor)

	// VersionedMigration is an ordered migration identified by a positive
	// numeric version. Versions must be dense and strictly increasing with
	// respect to the ledger's current maximum; the Migrator enforces this at
	// run time.
	VersionedMigration struct {
		descriptor
		version int64
	}

	// DumpMigration is an unordered, conditionally re-runnable migration. Its
	// predicate is the idempotency mechanism; it has no ledger row.
	DumpMigration struct {
		descriptor
		executable Predicate
	}
)

// WithPreHook sets the hook invoked before the script body.
func WithPreHook(h Hook) Option {
	return func(d *descriptor) { d.pre = h }
}

// WithPostHook sets the hook invoked after the script body.
func WithPostHook(h Hook) Option {
	return func(d *descriptor) { d.post = h }
}

// NewVersioned creates a versioned migration descriptor.
//
// Example:
//
//	m := migrator.NewVersioned(3, "add accounts table", "0003_add_accounts.sql",
//		migrator.WithPostHook(seedAccounts),
//	)
func NewVersioned(version int64, description, file string, opts ...Option) *VersionedMigration {
	m := &VersionedMigration{
		descriptor: descriptor{description: description, file: file},
		version:    version,
	}

	for _, opt := range opts {
		opt(&m.descriptor)
	}
	return m
}

// NewDump creates a dump migration descriptor. A nil predicate means the
// migration is always executable.
//
// Example:
//
//	m := migrator.NewDump("backfill emails", "backfill_emails.sql",
//		func(ctx context.Context, conn db.Conn) bool {
//			n, err := conn.QueryScalarLong(ctx, "SELECT COUNT(*) FROM accounts WHERE email IS NULL")
//			return err == nil && n > 0
//		},
//	)
func NewDump(description, file string, executable Predicate, opts ...Option) *DumpMigration {
	m := &DumpMigration{
		descriptor: descriptor{description: description, file: file},
		executable: executable,
	}

	for _, opt := range opts {
		opt(&m.descriptor)
	}
	return m
}

// Description returns the human-readable description.
func (d descriptor) Description() string { return d.description }

// File returns the script file name relative to the base path.
func (d descriptor) File() string { return d.file }

func (d descriptor) hooks() (Hook, Hook) { return d.pre, d.post }

// Version returns the migration's numeric version.
func (m *VersionedMigration) Version() int64 { return m.version }

// Executable reports whether the migration should run against the given
// connection. With no predicate configured it always returns true.
func (m *DumpMigration) Executable(ctx context.Context, conn db.Conn) bool {
	if m.executable == nil {
		return true
	}
	return m.executable(ctx, conn)
}

var (
	_ Migration = (*VersionedMigration)(nil)
	_ Migration = (*DumpMigration)(nil)
)

package migrator

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/groundskeeper/pkg/db"
)

type (
	// Migrator applies migrations against a single database connection, one
	// transaction per migration. It is synchronous and single-threaded by
	// design: migrations run strictly one at a time in the order described by
	// their descriptors, and every database call blocks the calling goroutine.
	//
	// A Migrator instance is safe to reuse across invocations (per-attempt
	// state is local to each run), but must not be shared between goroutines.
	//
	// Example usage:
	//
	//	m := migrator.New(migrator.Config{
	//		Conn:     sess,
	//		BasePath: "db/migrations",
	//	})
	//
	//	err := m.RunVersioned(ctx, []*migrator.VersionedMigration{
	//		migrator.NewVersioned(1, "create accounts", "0001_create_accounts.sql"),
	//		migrator.NewVersioned(2, "add account index", "0002_add_account_index.sql"),
	//	})
	Migrator struct {
		conn     db.Conn
		ledger   *Ledger
		parser   *ScriptParser
		basePath string
		logger   *slog.Logger
	}

	// Config contains the options for creating a Migrator.
	Config struct {
		// Conn is the connection the whole run executes on. Required.
		Conn db.Conn

		// BasePath is the directory script file names resolve against.
		BasePath string

		// LedgerTable overrides the ledger table name. Empty selects the
		// default.
		LedgerTable string

		// CommentPrefixes overrides the script parser's full-line comment
		// prefixes. Empty selects the defaults.
		CommentPrefixes []string

		// Logger receives progress and summary output. Nil selects
		// slog.Default().
		Logger *slog.Logger
	}

	// attempt is the per-migration-attempt scratch state: which migration is
	// running, the phase reached, and the statements executed so far. It is
	// local to each attempt, never a shared field, so the engine stays
	// reusable across invocations.
	attempt struct {
		version     int64
		description string
		phase       Phase
		executed    []string
	}
)

// New creates a Migrator from the given configuration.
func New(cfg Config) *Migrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Migrator{
		conn:     cfg.Conn,
		ledger:   NewLedger(cfg.Conn, cfg.LedgerTable, logger),
		basePath: cfg.BasePath,
		parser:   NewScriptParser(cfg.CommentPrefixes...),
		logger:   logger,
	}
}

// CurrentVersion returns the ledger's current maximum version, or 0 when no
// migrations have been applied.
func (m *Migrator) CurrentVersion(ctx context.Context) int64 {
	_ = m.ledger.EnsureTable(ctx)
	return m.ledger.CurrentVersion(ctx)
}

// RunVersioned applies a collection of versioned migrations in order.
//
// For each descriptor: a non-positive version aborts the run (it could never
// apply, only be skipped forever); the run aborts if the ledger is locked;
// versions at or below the ledger's current maximum are skipped; the next
// version must be exactly current+1 or the run aborts with a ContinuityError. Each applied
// migration runs inside its own transaction covering the ledger lock row, the
// pre-hook, the script body, the post-hook and the unlock stamp, so a failure
// anywhere rolls all of it back and leaves no trace in the ledger. The first
// failure aborts the remainder of the run.
func (m *Migrator) RunVersioned(ctx context.Context, migrations []*VersionedMigration) error {
	if len(migrations) == 0 {
		return errors.WithStack(ErrNoMigrations)
	}

	return m.run(ctx, "versioned", func(ctx context.Context) error {
		version := m.ledger.CurrentVersion(ctx)

		for _, mig := range migrations {
			if mig.Version() <= 0 {
				return errors.Errorf("migration version must be positive, got %d (%s)", mig.Version(), mig.Description())
			}

			if m.ledger.IsLocked(ctx) {
				return errors.Wrapf(ErrLedgerLocked, "cannot apply version %d", mig.Version())
			}

			if mig.Version() <= version {
				m.logger.Info("skipping migration, already applied",
					"version", mig.Version(),
					"description", mig.Description(),
				)
				continue
			}

			next := version + 1
			if mig.Version() != next {
				return &ContinuityError{Version: mig.Version(), Expected: next}
			}

			if err := m.applyVersioned(ctx, mig); err != nil {
				return err
			}
			version = next
		}

		return nil
	})
}

// RunDump applies a collection of dump migrations in input order. Descriptors
// whose predicate returns false are skipped without opening a transaction; the
// rest run inside one transaction each (pre-hook, script body, post-hook) with
// no ledger row. The first failure aborts the remainder of the run.
func (m *Migrator) RunDump(ctx context.Context, migrations []*DumpMigration) error {
	if len(migrations) == 0 {
		return errors.WithStack(ErrNoMigrations)
	}

	return m.run(ctx, "dump", func(ctx context.Context) error {
		for _, mig := range migrations {
			if !mig.Executable(ctx, m.conn) {
				m.logger.Info("skipping dump migration, not executable",
					"description", mig.Description(),
					"file", mig.File(),
				)
				continue
			}

			if err := m.applyDump(ctx, mig); err != nil {
				return err
			}
		}

		return nil
	})
}

// run bootstraps the ledger, invokes fn, and always emits the final summary,
// success or failure, as the last action before the error propagates.
func (m *Migrator) run(ctx context.Context, kind string, fn func(context.Context) error) (err error) {
	start := time.Now()
	m.logger.Info("starting migration run", "kind", kind, "base_path", m.basePath)

	defer func() {
		end := time.Now()
		m.logger.Info("migration run finished",
			"kind", kind,
			"started", start.Format(time.RFC3339),
			"ended", end.Format(time.RFC3339),
			"duration", end.Sub(start),
			"ok", err == nil,
		)
	}()

	if err = m.ledger.EnsureTable(ctx); err != nil {
		return err
	}

	return fn(ctx)
}

// applyVersioned runs one versioned migration inside its own transaction.
func (m *Migrator) applyVersioned(ctx context.Context, mig *VersionedMigration) error {
	m.logger.Info("applying migration",
		"version", mig.Version(),
		"description", mig.Description(),
		"file", mig.File(),
	)

	return m.transact(ctx, mig.Version(), mig.Description(), func(ctx context.Context, at *attempt) error {
		at.phase = PhaseLock
		if err := m.ledger.Lock(ctx, mig); err != nil {
			return err
		}

		if err := m.runBody(ctx, mig, at); err != nil {
			return err
		}

		at.phase = PhaseUnlock
		return m.ledger.Unlock(ctx, mig.Version())
	})
}

// applyDump runs one dump migration inside its own transaction. No ledger row
// is written; the descriptor's predicate is its idempotency mechanism.
func (m *Migrator) applyDump(ctx context.Context, mig *DumpMigration) error {
	m.logger.Info("applying dump migration",
		"description", mig.Description(),
		"file", mig.File(),
	)

	return m.transact(ctx, 0, mig.Description(), func(ctx context.Context, at *attempt) error {
		return m.runBody(ctx, mig, at)
	})
}

// runBody executes the pre-hook, script body and post-hook phases shared by
// both migration kinds.
func (m *Migrator) runBody(ctx context.Context, mig Migration, at *attempt) error {
	pre, post := mig.hooks()

	at.phase = PhasePre
	if pre != nil {
		if err := pre(ctx, m.conn); err != nil {
			return err
		}
	}

	at.phase = PhaseExec
	if err := m.runScript(ctx, mig, at); err != nil {
		return err
	}

	at.phase = PhasePost
	if post != nil {
		if err := post(ctx, m.conn); err != nil {
			return err
		}
	}

	return nil
}

// transact wraps fn in a transaction, converting any failure into a
// MigrationError carrying the phase reached and the statements executed. A
// rollback failure is logged, never allowed to mask the original error; a
// commit that fails with no prior error is escalated.
func (m *Migrator) transact(ctx context.Context, version int64, description string, fn func(context.Context, *attempt) error) error {
	if err := m.conn.Begin(ctx); err != nil {
		return err
	}

	at := &attempt{version: version, description: description}
	if err := fn(ctx, at); err != nil {
		if rbErr := m.conn.Rollback(ctx); rbErr != nil {
			m.logger.Error("rollback failed after migration error",
				"version", version,
				"description", description,
				"error", rbErr,
			)
		}

		return &MigrationError{
			Version:     version,
			Description: description,
			Phase:       at.phase,
			Executed:    at.executed,
			Err:         err,
		}
	}

	if err := m.conn.Commit(ctx); err != nil {
		if rbErr := m.conn.Rollback(ctx); rbErr != nil {
			m.logger.Error("rollback failed after commit error",
				"version", version,
				"description", description,
				"error", rbErr,
			)
		}

		return &MigrationError{
			Version:     version,
			Description: description,
			Phase:       PhaseCommit,
			Executed:    at.executed,
			Err:         errors.Wrap(err, "commit failed with no prior error"),
		}
	}

	return nil
}

// runScript loads, parses and executes the migration's script, accumulating
// each executed statement into the attempt for diagnostics and reporting
// coarse progress in 10% increments.
func (m *Migrator) runScript(ctx context.Context, mig Migration, at *attempt) error {
	statements, err := m.parser.ParseFile(filepath.Join(m.basePath, mig.File()))
	if err != nil {
		return err
	}

	if len(statements) == 0 {
		// Lenient policy: an empty plan is a no-op body, not an error. The
		// hooks may be the actual payload.
		m.logger.Warn("migration plan is empty, nothing to execute", "file", mig.File())
		return nil
	}

	reported := 0
	for i, stmt := range statements {
		if _, err := m.conn.Execute(ctx, stmt); err != nil {
			return err
		}
		at.executed = append(at.executed, stmt)

		if decile := (i + 1) * 10 / len(statements); decile > reported {
			reported = decile
			m.logger.Info("migration progress",
				"version", at.version,
				"description", at.description,
				"file", mig.File(),
				"percent", reported*10,
				"statements", i+1,
				"total", len(statements),
			)
		}
	}

	return nil
}

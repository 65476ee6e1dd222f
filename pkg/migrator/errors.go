package migrator

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Phase identifies where in a migration's lifecycle a failure occurred.
// Versioned migrations move through locking, pre-migration, executing,
// post-migration, unlocking and commit; dump migrations skip the ledger
// phases.
type Phase string

const (
	// PhaseLock covers inserting the ledger row with a NULL created timestamp.
	PhaseLock Phase = "locking"

	// PhasePre covers the pre-migration hook.
	PhasePre Phase = "pre-migration"

	// PhaseExec covers loading, parsing and executing the script body.
	PhaseExec Phase = "executing"

	// PhasePost covers the post-migration hook.
	PhasePost Phase = "post-migration"

	// PhaseUnlock covers stamping the ledger row's created timestamp.
	PhaseUnlock Phase = "unlocking"

	// PhaseCommit covers the final commit. A commit that fails with no prior
	// error is escalated rather than swallowed, since it suggests trouble at
	// the database level.
	PhaseCommit Phase = "commit"
)

var (
	// ErrLedgerLocked is returned when at least one ledger row has a NULL
	// created timestamp, meaning another run is (or was, at crash time)
	// mid-flight. The caller must retry the whole invocation later.
	ErrLedgerLocked = errors.New("migration ledger is locked")

	// ErrNoMigrationPath is returned when none of the candidate base paths is
	// an existing, readable directory.
	ErrNoMigrationPath = errors.New("no valid migration path found")

	// ErrNoMigrations is returned when an empty descriptor collection is
	// passed to a run entry point.
	ErrNoMigrations = errors.New("no migrations provided")
)

type (
	// ContinuityError reports a version gap or duplicate in a versioned run.
	// It indicates an authoring mistake upstream, not a transient condition.
	ContinuityError struct {
		// Version is the offending descriptor's version.
		Version int64

		// Expected is the only version the ledger would have accepted next.
		Expected int64
	}

	// MigrationError reports a failed migration attempt: which migration, in
	// which phase, with an echo of the statements already executed so an
	// operator can pinpoint the failing statement on a partially-effective
	// backend. The migration's transaction has been rolled back by the time
	// this error is returned.
	MigrationError struct {
		// Version is the migration's version, or 0 for a dump migration.
		Version int64

		// Description is the migration's human-readable description.
		Description string

		// Phase is the lifecycle phase that failed.
		Phase Phase

		// Executed lists the statements that had already run in this attempt.
		Executed []string

		// Err is the underlying cause.
		Err error
	}
)

func (e *ContinuityError) Error() string {
	return fmt.Sprintf(
		"migration version continuity violated: got version %d, expected %d (versions must advance by exactly 1 with no gaps)",
		e.Version, e.Expected,
	)
}

func (e *MigrationError) Error() string {
	var b strings.Builder
	if e.Version > 0 {
		fmt.Fprintf(&b, "migration %d (%s) failed during %s: %v", e.Version, e.Description, e.Phase, e.Err)
	} else {
		fmt.Fprintf(&b, "dump migration (%s) failed during %s: %v", e.Description, e.Phase, e.Err)
	}

	if len(e.Executed) > 0 {
		fmt.Fprintf(&b, "; %d statement(s) executed before failure:", len(e.Executed))
		for i, stmt := range e.Executed {
			fmt.Fprintf(&b, "\n  [%d] %s", i+1, stmt)
		}
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *MigrationError) Unwrap() error { return e.Err }

package migrator

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/groundskeeper/pkg/db"
)

type (
	// Runner is the thin facade callers use: it resolves a base directory
	// among candidates and wires a Migrator over the given connection. The
	// two migration kinds have separate entry points and are never mixed
	// within one invocation.
	Runner struct {
		conn   db.Conn
		paths  []string
		cfg    Config
		logger *slog.Logger
	}

	// RunnerConfig contains the options for creating a Runner.
	RunnerConfig struct {
		// Conn is the connection migrations execute on. Required.
		Conn db.Conn

		// Paths are the candidate base directories, in preference order. The
		// first one that exists and is readable wins.
		Paths []string

		// LedgerTable overrides the ledger table name.
		LedgerTable string

		// CommentPrefixes overrides the script comment prefixes.
		CommentPrefixes []string

		// Logger receives progress and summary output.
		Logger *slog.Logger
	}
)

// NewRunner creates a Runner from the given configuration.
func NewRunner(cfg RunnerConfig) *Runner {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		conn:  cfg.Conn,
		paths: cfg.Paths,
		cfg: Config{
			Conn:            cfg.Conn,
			LedgerTable:     cfg.LedgerTable,
			CommentPrefixes: cfg.CommentPrefixes,
			Logger:          logger,
		},
		logger: logger,
	}
}

// RunVersioned resolves the base path and applies the versioned migrations.
// No database interaction happens when path resolution fails.
func (r *Runner) RunVersioned(ctx context.Context, migrations []*VersionedMigration) error {
	m, err := r.migrator()
	if err != nil {
		return err
	}
	return m.RunVersioned(ctx, migrations)
}

// RunDump resolves the base path and applies the dump migrations. No database
// interaction happens when path resolution fails.
func (r *Runner) RunDump(ctx context.Context, migrations []*DumpMigration) error {
	m, err := r.migrator()
	if err != nil {
		return err
	}
	return m.RunDump(ctx, migrations)
}

// CurrentVersion returns the ledger's current maximum version.
func (r *Runner) CurrentVersion(ctx context.Context) int64 {
	cfg := r.cfg
	return New(cfg).CurrentVersion(ctx)
}

func (r *Runner) migrator() (*Migrator, error) {
	base, err := ResolveBasePath(r.paths...)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("resolved migration base path", "path", base)

	cfg := r.cfg
	cfg.BasePath = base
	return New(cfg), nil
}

// ResolveBasePath returns the first candidate that exists and is a readable
// directory, or ErrNoMigrationPath when none qualifies.
func ResolveBasePath(candidates ...string) (string, error) {
	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			continue
		}

		if _, err := os.ReadDir(path); err != nil {
			continue
		}
		return path, nil
	}

	return "", errors.Wrapf(ErrNoMigrationPath, "candidates: %s", strings.Join(candidates, ", "))
}

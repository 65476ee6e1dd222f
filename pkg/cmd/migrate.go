package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/pseudomuto/groundskeeper/pkg/config"
	"github.com/pseudomuto/groundskeeper/pkg/migrator"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type migrateParams struct {
	fx.In

	Config *config.Config
}

// migrate creates the migrate command for applying pending versioned
// migrations.
//
// Migration files are loaded from the first configured directory that exists
// and follow the naming convention: <version>_<description>.sql (for example
// 0003_add_accounts.sql). Each migration is executed atomically inside its own
// transaction; the first failure rolls back and stops the run.
//
// Example usage:
//
//	# Apply all pending migrations
//	groundskeeper migrate --dsn postgres://localhost/app --driver postgres
//
//	# Show what would be executed without applying
//	groundskeeper migrate --dsn file:app.db --dry-run
func migrate(p migrateParams) *cli.Command {
	return &cli.Command{
		Name:    "migrate",
		Aliases: []string{"apply"},
		Usage:   "Apply pending versioned migrations",
		Description: `Apply all pending versioned migrations to the configured database.

Migrations are applied in strictly increasing version order with no gaps.
Each migration runs inside its own transaction covering the ledger entry, the
script body and any hooks, so a failure anywhere leaves no trace. A ledger row
without a completion timestamp marks an in-flight or crashed run and blocks
further execution until resolved.`,
		Before: requireConfig(p.Config),
		Flags: []cli.Flag{
			dsnFlag,
			driverFlag,
			dryRunFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runMigrate(ctx, cmd, p)
		},
	}
}

func runMigrate(ctx context.Context, cmd *cli.Command, p migrateParams) error {
	slog.Info("Starting migration run", "dry_run", cmd.Bool("dry-run"))

	base, err := migrator.ResolveBasePath(p.Config.Dirs...)
	if err != nil {
		return err
	}

	migrations, err := migrator.ScanVersioned(base)
	if err != nil {
		return errors.Wrap(err, "failed to load migrations")
	}

	if len(migrations) == 0 {
		fmt.Printf("No migrations found in %s\n", base)
		return nil
	}

	sess, err := openSession(ctx, cmd, p.Config)
	if err != nil {
		return errors.Wrap(err, "failed to connect to database")
	}
	defer func() { _ = sess.Close() }()

	runner := migrator.NewRunner(migrator.RunnerConfig{
		Conn:            sess,
		Paths:           []string{base},
		LedgerTable:     p.Config.Database.LedgerTable,
		CommentPrefixes: p.Config.CommentPrefixes,
	})

	if cmd.Bool("dry-run") {
		return dryRunMigrate(ctx, runner, migrations)
	}

	before := runner.CurrentVersion(ctx)
	if err := runner.RunVersioned(ctx, migrations); err != nil {
		return err
	}

	after := runner.CurrentVersion(ctx)
	if after > before {
		fmt.Printf("Applied %d migration(s); ledger now at version %d\n", after-before, after)
	} else {
		fmt.Println("All migrations are up to date.")
	}
	return nil
}

func dryRunMigrate(ctx context.Context, runner *migrator.Runner, migrations []*migrator.VersionedMigration) error {
	current := runner.CurrentVersion(ctx)

	fmt.Println("Dry run: showing migrations that would be executed")
	fmt.Println()

	pending := 0
	for _, m := range migrations {
		if m.Version() <= current {
			fmt.Printf("  -  %d %s (already applied)\n", m.Version(), m.Description())
			continue
		}

		fmt.Printf("  >  %d %s (%s)\n", m.Version(), m.Description(), m.File())
		pending++
	}

	fmt.Println()
	fmt.Printf("Summary: %d migration(s) would be executed, %d already applied\n",
		pending, len(migrations)-pending)
	return nil
}

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

type dumpParams struct {
	fx.In

	Config *config.Config
}

// dump creates the dump command for applying dump migrations: unordered,
// conditionally re-runnable scripts that decide their own applicability and
// are never tracked in the ledger.
func dump(p dumpParams) *cli.Command {
	return &cli.Command{
		Name:  "dump",
		Usage: "Apply dump migrations",
		Description: `Apply every dump migration script from the configured dump directory, in
lexical order. Dump migrations carry no version and no ledger entry; scripts
scanned from disk always run, while programmatic descriptors may attach a
predicate to skip themselves. Each script runs inside its own transaction.`,
		Before: requireConfig(p.Config),
		Flags: []cli.Flag{
			dsnFlag,
			driverFlag,
			dryRunFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runDump(ctx, cmd, p)
		},
	}
}

func runDump(ctx context.Context, cmd *cli.Command, p dumpParams) error {
	if p.Config.DumpDir == "" {
		return errors.New("no dump_dir configured in groundskeeper.yaml")
	}

	slog.Info("Starting dump migration run", "dir", p.Config.DumpDir, "dry_run", cmd.Bool("dry-run"))

	migrations, err := migrator.ScanDump(p.Config.DumpDir)
	if err != nil {
		return errors.Wrap(err, "failed to load dump migrations")
	}

	if len(migrations) == 0 {
		fmt.Printf("No dump migrations found in %s\n", p.Config.DumpDir)
		return nil
	}

	if cmd.Bool("dry-run") {
		fmt.Println("Dry run: dump migrations that would be executed")
		fmt.Println()
		for _, m := range migrations {
			fmt.Printf("  >  %s (%s)\n", m.Description(), m.File())
		}
		return nil
	}

	sess, err := openSession(ctx, cmd, p.Config)
	if err != nil {
		return errors.Wrap(err, "failed to connect to database")
	}
	defer func() { _ = sess.Close() }()

	runner := migrator.NewRunner(migrator.RunnerConfig{
		Conn:            sess,
		Paths:           []string{p.Config.DumpDir},
		LedgerTable:     p.Config.Database.LedgerTable,
		CommentPrefixes: p.Config.CommentPrefixes,
	})

	if err := runner.RunDump(ctx, migrations); err != nil {
		return err
	}

	fmt.Printf("Applied %d dump migration(s)\n", len(migrations))
	return nil
}

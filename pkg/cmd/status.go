package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/groundskeeper/pkg/config"
	"github.com/pseudomuto/groundskeeper/pkg/migrator"
	"github.com/urfave/cli/v3"
	"go.uber.org/fx"
)

type statusParams struct {
	fx.In

	Config *config.Config
}

// status creates the status command, reporting the ledger's current version,
// its lock state, and the applied migration history.
func status(p statusParams) *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show current migration version and ledger state",
		Before: requireConfig(p.Config),
		Flags: []cli.Flag{
			dsnFlag,
			driverFlag,
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runStatus(ctx, cmd, p)
		},
	}
}

func runStatus(ctx context.Context, cmd *cli.Command, p statusParams) error {
	sess, err := openSession(ctx, cmd, p.Config)
	if err != nil {
		return errors.Wrap(err, "failed to connect to database")
	}
	defer func() { _ = sess.Close() }()

	ledger := migrator.NewLedger(sess, p.Config.Database.LedgerTable, nil)

	fmt.Printf("Current version: %d\n", ledger.CurrentVersion(ctx))
	if ledger.IsLocked(ctx) {
		fmt.Println("Ledger: LOCKED (a migration is in flight or a previous run crashed)")
	} else {
		fmt.Println("Ledger: unlocked")
	}

	entries, err := ledger.Entries(ctx)
	if err != nil {
		// Missing ledger table on a fresh database is not an error here.
		fmt.Println("No migration history.")
		return nil
	}

	if len(entries) == 0 {
		fmt.Println("No migrations applied yet.")
		return nil
	}

	fmt.Println()
	fmt.Println("Applied migrations:")
	for _, e := range entries {
		applied := "in flight"
		if e.Created != nil {
			applied = time.Unix(*e.Created, 0).UTC().Format(time.RFC3339)
		}
		fmt.Printf("  %4d  %-40s  %s\n", e.ID, e.Description, applied)
	}

	return nil
}

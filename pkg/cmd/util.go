package cmd

import (
	"context"

	"github.com/pkg/errors"
	"github.com/pseudomuto/groundskeeper/pkg/config"
	"github.com/pseudomuto/groundskeeper/pkg/db"
	"github.com/urfave/cli/v3"
)

var (
	dsnFlag = &cli.StringFlag{
		Name:    "dsn",
		Aliases: []string{"u"},
		Usage:   "database connection string",
		Sources: cli.EnvVars("GROUNDSKEEPER_DSN"),
		Config: cli.StringConfig{
			TrimSpace: true,
		},
	}

	driverFlag = &cli.StringFlag{
		Name:  "driver",
		Usage: "database driver (sqlite or postgres)",
		Config: cli.StringConfig{
			TrimSpace: true,
		},
	}

	dryRunFlag = &cli.BoolFlag{
		Name:  "dry-run",
		Usage: "Show what would be executed without applying changes",
		Value: false,
	}
)

// openSession resolves driver and DSN from flags with config fallback and
// opens a dedicated database session.
func openSession(ctx context.Context, cmd *cli.Command, cfg *config.Config) (*db.Session, error) {
	driver := cmd.String("driver")
	dsn := cmd.String("dsn")

	if cfg != nil {
		if driver == "" {
			driver = cfg.Database.Driver
		}
		if dsn == "" {
			dsn = cfg.Database.DSN
		}
	}

	if dsn == "" {
		return nil, errors.New("no DSN configured: set --dsn, GROUNDSKEEPER_DSN, or database.dsn in groundskeeper.yaml")
	}

	return db.Open(ctx, driver, dsn)
}

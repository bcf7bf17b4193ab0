// cmd/mosaic/main.go
//
// Mosaic entry point.
//
// Context
// -------
// One binary carries the server and its operations toolkit: `serve`
// boots the multi-tenant HTTP stack, `migrate` manages the schema,
// `seed` inserts first-boot rows, and `doctor` runs the diagnostics
// checks from the command line.  Every subcommand starts from the same
// core boot (config, logger, audit, database, migration runner) so an
// operator sees identical behavior no matter which door they enter.
//
// Notes
// -----
//   - Subcommand failures return errors; main prints them once and
//     exits non-zero.  No command calls os.Exit deeper in.
//   - Oxford commas, two spaces after periods.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mosaic-cms/mosaic/components/admin"
	"github.com/mosaic-cms/mosaic/components/portal"
	"github.com/mosaic-cms/mosaic/internal/config"
	"github.com/mosaic-cms/mosaic/internal/database"
	"github.com/mosaic-cms/mosaic/internal/logger"
	"github.com/mosaic-cms/mosaic/internal/migrate"
)

var rootCmd = &cobra.Command{
	Use:           "mosaic",
	Short:         "Multi-tenant CMS server and operations toolkit",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, doctorCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "mosaic:", err)
		os.Exit(1)
	}
}

// core is the boot surface every subcommand shares: config, logger,
// control database, and a migration runner over the full migration set.
type core struct {
	cfg    *config.Config
	log    *zap.SugaredLogger
	db     *sqlx.DB
	runner *migrate.Runner
}

func openCore(ctx context.Context) (*core, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Paths.Root, cfg.Log.Level, runningInTTY())
	if err != nil {
		return nil, fmt.Errorf("start logger: %w", err)
	}

	findings := config.Audit(cfg)
	for _, f := range findings {
		if f.Severity == config.SeverityFatal {
			log.Errorw("config audit", "finding", f.String())
		} else {
			log.Warnw("config audit", "finding", f.String())
		}
	}
	if cfg.Env == "production" && config.HasFatal(findings) {
		return nil, fmt.Errorf("config audit found placeholder secrets, refusing to run in production")
	}

	db, err := database.OpenWithOptions(cfg.Database.DSN,
		cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	migs := append(migrate.All(), componentMigrations(db, log)...)
	return &core{
		cfg:    cfg,
		log:    log,
		db:     db,
		runner: migrate.NewRunner(db, log, migs),
	}, nil
}

func (c *core) close() {
	c.db.Close()
	_ = c.log.Sync()
}

// componentMigrations collects tables owned by components rather than
// the core schema.  Migration lists are static, so the request-path
// dependencies stay nil here; serve wires the real components.
func componentMigrations(db *sqlx.DB, log *zap.SugaredLogger) []migrate.Migration {
	var migs []migrate.Migration
	migs = append(migs, admin.New(db, log, nil, nil, nil, nil, nil, nil, nil).Migrations()...)
	migs = append(migs, portal.New(db, log, nil, nil, nil).Migrations()...)
	return migs
}

// runningInTTY reports whether stdout is a character device, which turns
// on the console log tee next to the JSON file sink.
func runningInTTY() bool {
	fi, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

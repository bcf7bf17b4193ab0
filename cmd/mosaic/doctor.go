// cmd/mosaic/doctor.go
//
// Install health from the command line.  Runs the same checks the
// diagnostics listener serves, prints one line per check, and exits
// non-zero when anything failed outright.
package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mosaic-cms/mosaic/internal/diagnostics"
	"github.com/mosaic-cms/mosaic/internal/session"
	"github.com/mosaic-cms/mosaic/internal/theme"
	"github.com/mosaic-cms/mosaic/internal/view"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run every diagnostics check and report",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		c, err := openCore(ctx)
		if err != nil {
			return err
		}
		defer c.close()

		// A session store that will not even construct is itself a
		// finding; report it and keep probing everything else.
		var storeNote string
		store, err := newSessionStore(ctx, c.cfg)
		if err != nil {
			storeNote = err.Error()
			store = session.NewMemoryStore(0)
		}
		defer store.Close()

		themes := theme.NewManager(filepath.Join(c.cfg.Paths.Root, "themes"),
			view.BaseFuncs(), c.log)

		checks := diagnostics.Checks(c.cfg, c.db, c.runner, store, themes)
		rep := diagnostics.Build(ctx, c.cfg.Env, checks)
		if storeNote != "" {
			rep.Checks = append(rep.Checks, diagnostics.Result{
				Name:   "sessions (configured store)",
				Status: diagnostics.StatusFail,
				Detail: storeNote,
			})
		}

		for _, res := range rep.Checks {
			fmt.Printf("%-5s %-14s %s\n",
				strings.ToUpper(string(res.Status)), res.Name, res.Detail)
		}
		fmt.Printf("\n%s environment, worst status %s, %s\n",
			rep.Env, rep.Worst(), rep.Elapsed.Round(time.Millisecond))

		if rep.Failed() {
			return errors.New("diagnostics reported failures")
		}
		return nil
	},
}

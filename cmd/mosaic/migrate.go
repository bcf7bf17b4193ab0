// cmd/mosaic/migrate.go
//
// Schema management: apply, inspect, repair, and hand-mark migrations.
// Repair exists for the day the schema and the history table disagree,
// a table present with no history row, or the reverse; it reconciles
// in both directions instead of wedging every later migration.
package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := openCore(cmd.Context())
		if err != nil {
			return err
		}
		defer c.close()

		applied, recovered, err := c.runner.Up(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("applied %d migration(s), recovered %d\n", applied, recovered)
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the state of every migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := openCore(cmd.Context())
		if err != nil {
			return err
		}
		defer c.close()

		rows, err := c.runner.Status(cmd.Context())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTATE\tAPPLIED")
		for _, row := range rows {
			applied := "-"
			if !row.AppliedAt.IsZero() {
				applied = row.AppliedAt.Format(time.RFC3339)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\n", row.ID, row.State, applied)
		}
		return tw.Flush()
	},
}

var migrateRepairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Reconcile migration history with the actual schema",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := openCore(cmd.Context())
		if err != nil {
			return err
		}
		defer c.close()

		actions, err := c.runner.Repair(cmd.Context())
		if err != nil {
			return err
		}
		if len(actions) == 0 {
			fmt.Println("nothing to repair")
			return nil
		}
		for _, a := range actions {
			fmt.Printf("%s: %s\n", a.ID, a.Action)
		}
		return nil
	},
}

var migrateMarkAppliedCmd = &cobra.Command{
	Use:   "mark-applied <id>",
	Short: "Record a migration as applied without running its DDL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCore(cmd.Context())
		if err != nil {
			return err
		}
		defer c.close()

		if err := c.runner.MarkApplied(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("marked %s as applied\n", args[0])
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd, migrateRepairCmd, migrateMarkAppliedCmd)
}

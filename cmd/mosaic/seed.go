// cmd/mosaic/seed.go
//
// First-boot rows from the command line: roles, the base theme catalog
// entry, the bootstrap administrator, and the localhost demo site.  The
// same code runs at serve time when database.seed is on; the command
// exists for installs that keep the flag off.
package main

import (
	"github.com/spf13/cobra"

	"github.com/mosaic-cms/mosaic/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert first-boot rows (roles, base theme, admin, demo site)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, err := openCore(cmd.Context())
		if err != nil {
			return err
		}
		defer c.close()
		return seed.Run(cmd.Context(), c.db, c.log)
	},
}

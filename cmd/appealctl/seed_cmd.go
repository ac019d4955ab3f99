package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/campus-appeals-api/internal/database"
)

func newSeedCmd(c *cli) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert canonical roles, default modules and issue categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := c.db()
			if err != nil {
				return err
			}
			if migrate {
				if err := database.Migrate(db); err != nil {
					return err
				}
			}

			report, err := database.Seed(cmd.Context(), db)
			if err != nil {
				return err
			}
			c.logger.Info().
				Int("roles", report.Roles).
				Int("modules", report.Modules).
				Int("role_modules", report.RoleModules).
				Int("permissions", report.Permissions).
				Int("issue_types", report.IssueTypes).
				Int("windows", report.Windows).
				Msg("seed complete")

			fmt.Fprintf(cmd.OutOrStdout(), "roles=%d modules=%d role_modules=%d permissions=%d issue_types=%d windows=%d\n",
				report.Roles, report.Modules, report.RoleModules, report.Permissions, report.IssueTypes, report.Windows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", false, "run migrations before seeding")
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/noah-isme/campus-appeals-api/internal/database"
)

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the schema and its unique indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := c.db()
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			c.logger.Info().Int("models", len(database.Models())).Msg("schema migrated")
			fmt.Fprintln(cmd.OutOrStdout(), "migrated")
			return nil
		},
	}
}

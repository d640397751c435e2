package main

import "github.com/spf13/cobra"

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := c.openRepository(cmd.Context(), true)
			if err != nil {
				return err
			}
			return db.Close()
		},
	}
}

package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Copy products and users from the sheets into the database",
		Long: `migrate upserts every product (by combo) and user (by username) found in
the spreadsheet into the relational database. Rows without a key are
skipped; rows that fail are listed in the report.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, cleanup, err := root.bootstrap(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			m, err := c.Migrator(ctx)
			if err != nil {
				return err
			}
			report, err := m.Run(ctx)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
}

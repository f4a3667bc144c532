package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/jszwec/csvutil"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-sheet-catalog/catalog"
)

func newExportCmd(root *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the public catalog as CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			c, cleanup, err := root.bootstrap(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			snap, err := c.Catalog().Get(ctx)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				return writeCSV(cmd.OutOrStdout(), snap.Products)
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			if err := writeCSV(f, snap.Products); err != nil {
				_ = f.Close()
				return err
			}
			return f.Close()
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "destination file (default stdout)")
	return cmd
}

// writeCSV writes products with a header row, which is written even for an
// empty catalog. Pricing notices are omitted.
func writeCSV(w io.Writer, products []catalog.PublicProduct) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if err := enc.EncodeHeader(catalog.PublicProduct{}); err != nil {
		return fmt.Errorf("export: header: %w", err)
	}
	if err := enc.Encode(products); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	cw.Flush()
	return cw.Error()
}

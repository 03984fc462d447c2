package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/outreach/internal/ingest"
)

func newImportCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <contacts.yaml>",
		Short: "Create NEW contacts from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			entries, err := ingest.Parse(f)
			if err != nil {
				return err
			}

			a, err := loadApp(ctx, root)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, a.close(ctx)) }()

			res, err := ingest.Import(ctx, a.store, entries, a.log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created=%d skipped=%d\n", res.Created, res.Skipped)
			return nil
		},
	}
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/outreach/internal/ingest"
	"github.com/dmitrymomot/outreach/pkg/summarize"
)

func newEnrichCmd(root *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Summarize the articles of NEW contacts into merge tags",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			ctx := cmd.Context()

			a, err := loadApp(ctx, root)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, a.close(ctx)) }()

			s, err := summarize.New(a.cfg.AI)
			if err != nil {
				return err
			}

			res, err := ingest.Enrich(ctx, a.store, s, limit, a.log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enriched=%d skipped=%d failed=%d\n", res.Enriched, res.Skipped, res.Failed)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "max NEW contacts to look at")
	return cmd
}

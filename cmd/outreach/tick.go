package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newTickCmd(root *rootOptions) *cobra.Command {
	var batch int

	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Run one scheduler pass and exit",
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			ctx := cmd.Context()

			a, err := loadApp(ctx, root)
			if err != nil {
				return err
			}
			defer func() { err = errors.Join(err, a.close(ctx)) }()

			sched, err := a.scheduler()
			if err != nil {
				return err
			}

			if batch <= 0 {
				batch = a.cfg.Scheduler.BatchSize
			}
			report, err := sched.Run(ctx, batch)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if report.NothingDue() {
				fmt.Fprintln(out, "nothing due")
				return nil
			}
			for _, d := range report.Sent {
				fmt.Fprintf(out, "sent %-5s %s %s -> %s\n", d.Template, d.Email, d.From, d.To)
			}
			for _, f := range report.Failed {
				fmt.Fprintf(out, "fail %s %s: %v\n", f.Email, f.State, f.Err)
			}
			fmt.Fprintf(out, "due=%d sent=%d failed=%d skipped=%d\n",
				report.Due, len(report.Sent), len(report.Failed), len(report.Skipped))
			return nil
		},
	}
	cmd.Flags().IntVar(&batch, "batch", 0, "max contacts in this pass (default SCHEDULER_BATCH_SIZE)")
	return cmd
}

package tasks

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/outreach/pkg/logger"
	"github.com/dmitrymomot/outreach/pkg/scheduler"
)

// RunSequenceName is the job name of the periodic pass.
const RunSequenceName = "run_sequence"

// Runner runs one scheduler pass.
type Runner interface {
	Run(ctx context.Context, maxBatch int) (*scheduler.Report, error)
}

// RunSequence fires a scheduler pass on a cron schedule.
type RunSequence struct {
	runner   Runner
	schedule string
	batch    int
	log      *slog.Logger
}

// NewRunSequence creates the periodic pass task.
func NewRunSequence(runner Runner, schedule string, batch int, log *slog.Logger) *RunSequence {
	if log == nil {
		log = logger.NewNope()
	}
	return &RunSequence{runner: runner, schedule: schedule, batch: batch, log: log}
}

func (t *RunSequence) Name() string     { return RunSequenceName }
func (t *RunSequence) Schedule() string { return t.schedule }

// Handle runs the pass. Per-contact failures are part of the report;
// only a failed due query fails the job.
func (t *RunSequence) Handle(ctx context.Context) error {
	report, err := t.runner.Run(ctx, t.batch)
	if err != nil {
		return err
	}

	if len(report.Failed) > 0 {
		attrs := make([]any, 0, len(report.Failed))
		for _, f := range report.Failed {
			attrs = append(attrs, slog.String(f.ContactID, f.Err.Error()))
		}
		t.log.WarnContext(ctx, "pass finished with failures",
			slog.String("run_id", report.RunID),
			slog.Group("failed", attrs...),
		)
	}
	return nil
}

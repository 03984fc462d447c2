package job

import (
	"context"
	"testing"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCronSchedule(t *testing.T) {
	t.Parallel()

	from := time.Date(2025, 3, 10, 9, 7, 0, 0, time.UTC)

	tests := []struct {
		expr string
		want time.Time
	}{
		{"*/15 * * * *", time.Date(2025, 3, 10, 9, 15, 0, 0, time.UTC)},
		{"0 * * * *", time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)},
		{"30 14 * * *", time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)},
		{"@hourly", time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()

			schedule, err := parseCronSchedule(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, schedule.Next(from))
		})
	}
}

func TestValidateSchedule(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateSchedule("*/15 * * * *"))

	for _, expr := range []string{"", "* * *", "61 * * * *", "every 15 minutes", "0 0 * * * *"} {
		assert.ErrorIs(t, ValidateSchedule(expr), ErrInvalidSchedule, expr)
	}
}

func TestPeriodicJob_InvalidSchedule(t *testing.T) {
	t.Parallel()

	_, err := periodicJob(scheduleConfig{name: "run_sequence", schedule: "nope"})
	require.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestNewManager_NilPool(t *testing.T) {
	t.Parallel()

	_, err := NewManager(nil)
	require.ErrorIs(t, err, ErrPoolRequired)
}

func TestTaskWorker_Timeout(t *testing.T) {
	t.Parallel()

	registry := newTaskRegistry()
	registry.register("run_sequence", &scheduledTaskExecutor{handler: func(context.Context) error { return nil }})
	registry.register("send_reply_template", newTaskWrapper[replyPayload](&replyTask{}))
	w := &taskWorker{registry: registry}

	job := func(name string) *river.Job[taskArgs] {
		return &river.Job[taskArgs]{JobRow: &rivertype.JobRow{}, Args: taskArgs{TaskName: name}}
	}

	assert.Equal(t, time.Duration(-1), w.Timeout(job("run_sequence")), "scheduled passes never time out")
	assert.Zero(t, w.Timeout(job("send_reply_template")), "queued tasks keep the client default")
	assert.Zero(t, w.Timeout(job("unknown")))
}

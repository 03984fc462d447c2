package job

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
	"github.com/robfig/cron/v3"
)

type scheduledHandler func(ctx context.Context) error

//nolint:betteralign // all fields contain pointers, no optimization possible
type scheduleConfig struct {
	handler  scheduledHandler
	name     string
	schedule string
}

type scheduledTaskExecutor struct {
	handler scheduledHandler
}

func (e *scheduledTaskExecutor) Execute(ctx context.Context, _ json.RawMessage) error {
	return e.handler(ctx)
}

type cronScheduleAdapter struct {
	schedule cron.Schedule
}

func (a *cronScheduleAdapter) Next(current time.Time) time.Time {
	return a.schedule.Next(current)
}

var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// ValidateSchedule reports whether expr is an accepted cron expression.
func ValidateSchedule(expr string) error {
	if _, err := cronParser.Parse(expr); err != nil {
		return errors.Join(ErrInvalidSchedule, err)
	}
	return nil
}

func parseCronSchedule(expr string) (river.PeriodicSchedule, error) {
	schedule, err := cronParser.Parse(expr)
	if err != nil {
		return nil, err
	}
	return &cronScheduleAdapter{schedule: schedule}, nil
}

func periodicJob(sched scheduleConfig) (*river.PeriodicJob, error) {
	cronSchedule, err := parseCronSchedule(sched.schedule)
	if err != nil {
		return nil, errors.Join(ErrInvalidSchedule, err)
	}

	return river.NewPeriodicJob(
		cronSchedule,
		func() (river.JobArgs, *river.InsertOpts) {
			// Unique per task so a slow pass does not pile up ticks behind it.
			return &taskArgs{TaskName: sched.name}, &river.InsertOpts{
				MaxAttempts: 1,
				UniqueOpts: river.UniqueOpts{
					ByArgs: true,
					ByState: []rivertype.JobState{
						rivertype.JobStateAvailable,
						rivertype.JobStatePending,
						rivertype.JobStateRunning,
						rivertype.JobStateScheduled,
					},
				},
			}
		},
		&river.PeriodicJobOpts{RunOnStart: false},
	), nil
}

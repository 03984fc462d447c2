package job

import "errors"

var (
	// ErrUnknownTask is returned when a job names a task that was never registered.
	ErrUnknownTask = errors.New("job: unknown task")

	// ErrInvalidPayload is returned when a task payload cannot be
	// unmarshaled into the expected type.
	ErrInvalidPayload = errors.New("job: invalid payload")

	ErrAlreadyStarted = errors.New("job: already started")
	ErrNotStarted     = errors.New("job: not started")

	// ErrPoolRequired is returned by NewManager without a database pool.
	ErrPoolRequired = errors.New("job: pool is required")

	ErrInvalidSchedule = errors.New("job: invalid cron schedule")
	ErrMigrate         = errors.New("job: failed to migrate queue schema")
)

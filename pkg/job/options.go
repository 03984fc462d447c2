package job

import (
	"context"
	"log/slog"
)

type config struct {
	registry   *taskRegistry
	queues     map[string]int
	logger     *slog.Logger
	schedules  []scheduleConfig
	maxWorkers int
}

func newConfig() *config {
	return &config{
		registry: newTaskRegistry(),
		queues:   make(map[string]int),
	}
}

// Option configures the job manager.
type Option func(*config)

// WithTask registers a task whose Handle takes a JSON-decoded payload P.
// P cannot be inferred from the method set, so it is spelled out:
//
//	job.WithTask[tasks.SendReplyTemplatePayload](tasks.NewSendReplyTemplate(followUps))
func WithTask[P any, T interface {
	Name() string
	Handle(context.Context, P) error
}](task T) Option {
	return func(c *config) {
		c.registry.register(task.Name(), newTaskWrapper[P, T](task))
	}
}

// WithScheduledTask registers a periodic task.
// Schedule() returns a five-field cron expression (min hour day month weekday).
// Periodic jobs are inserted by the elected leader only, so a cluster
// fires each tick once.
//
//	job.WithScheduledTask(tasks.NewRunSequence(sched, "*/15 * * * *", 50, log))
func WithScheduledTask[T interface {
	Name() string
	Schedule() string
	Handle(context.Context) error
}](task T) Option {
	return func(c *config) {
		c.schedules = append(c.schedules, scheduleConfig{
			name:     task.Name(),
			schedule: task.Schedule(),
			handler:  task.Handle,
		})
	}
}

// WithQueue configures a named queue with the given number of workers.
func WithQueue(name string, workers int) Option {
	return func(c *config) {
		if workers > 0 {
			c.queues[name] = workers
		}
	}
}

// WithLogger sets the logger for job processing.
// If not set, a noop logger is used.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxWorkers sets the worker count of the default queue. Default 10.
func WithMaxWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}

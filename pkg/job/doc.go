// Package job runs background tasks on River, a PostgreSQL-backed queue.
//
// Two kinds of tasks are registered with [NewManager]:
//
//   - one-off tasks ([WithTask]) with a typed JSON payload, inserted with
//     [Manager.Enqueue]
//   - periodic tasks ([WithScheduledTask]) fired on a cron expression
//
// All tasks share one River job kind; the task name stored in the job
// arguments selects the handler.
//
// # Periodic tasks
//
// River elects a leader among running managers and only the leader
// inserts periodic jobs, so a deployment with several replicas fires each
// tick once. A periodic job is also unique while a previous one is still
// queued or running, which keeps a slow pass from stacking ticks behind it.
//
//	m, err := job.NewManager(pool,
//		job.WithLogger(log),
//		job.WithScheduledTask(tasks.NewRunSequence(sched, "*/15 * * * *", 50, log)),
//		job.WithTask[tasks.SendReplyTemplatePayload](tasks.NewSendReplyTemplate(followUps)),
//	)
//
// # Deduplication
//
// [UniqueFor] with [UniqueKey] drops a job while another one with the same
// task name and key was inserted within the period. A dropped job is not an
// error.
//
// # Schema
//
// River's tables are created by [Migrate] (rivermigrate), separately from
// the application's goose migrations.
package job

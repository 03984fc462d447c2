package job

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type replyPayload struct {
	ContactID string `json:"contact_id"`
	Template  string `json:"template"`
}

type replyTask struct {
	got   replyPayload
	calls int
	err   error
}

func (t *replyTask) Name() string { return "send_reply_template" }

func (t *replyTask) Handle(_ context.Context, p replyPayload) error {
	t.calls++
	t.got = p
	return t.err
}

type tickTask struct {
	schedule string
	calls    int
}

func (t *tickTask) Name() string     { return "run_sequence" }
func (t *tickTask) Schedule() string { return t.schedule }
func (t *tickTask) Handle(context.Context) error {
	t.calls++
	return nil
}

func TestTaskWrapper_DecodesPayload(t *testing.T) {
	t.Parallel()

	task := &replyTask{}
	w := newTaskWrapper[replyPayload](task)

	raw, err := json.Marshal(replyPayload{ContactID: "c-1", Template: "R1s"})
	require.NoError(t, err)

	require.NoError(t, w.Execute(context.Background(), raw))
	assert.Equal(t, 1, task.calls)
	assert.Equal(t, replyPayload{ContactID: "c-1", Template: "R1s"}, task.got)
}

func TestTaskWrapper_EmptyPayload(t *testing.T) {
	t.Parallel()

	task := &replyTask{}
	w := newTaskWrapper[replyPayload](task)

	require.NoError(t, w.Execute(context.Background(), nil))
	assert.Equal(t, replyPayload{}, task.got)
}

func TestTaskWrapper_InvalidPayload(t *testing.T) {
	t.Parallel()

	task := &replyTask{}
	w := newTaskWrapper[replyPayload](task)

	err := w.Execute(context.Background(), json.RawMessage(`{"contact_id":`))
	require.ErrorIs(t, err, ErrInvalidPayload)
	assert.Zero(t, task.calls)
}

func TestTaskRegistry(t *testing.T) {
	t.Parallel()

	cfg := newConfig()
	WithTask[replyPayload](&replyTask{})(cfg)
	WithScheduledTask(&tickTask{schedule: "*/15 * * * *"})(cfg)

	_, ok := cfg.registry.get("send_reply_template")
	assert.True(t, ok)
	_, ok = cfg.registry.get("run_sequence")
	assert.False(t, ok, "scheduled tasks are registered by NewManager")

	require.Len(t, cfg.schedules, 1)
	assert.Equal(t, "run_sequence", cfg.schedules[0].name)
	assert.Equal(t, "*/15 * * * *", cfg.schedules[0].schedule)
	assert.Equal(t, []string{"send_reply_template"}, cfg.registry.names())
}

func TestScheduledTaskExecutor_IgnoresPayload(t *testing.T) {
	t.Parallel()

	task := &tickTask{}
	executor := &scheduledTaskExecutor{handler: task.Handle}

	require.NoError(t, executor.Execute(context.Background(), []byte(`{"ignored":true}`)))
	assert.Equal(t, 1, task.calls)
}

func TestOptions(t *testing.T) {
	t.Parallel()

	cfg := newConfig()
	WithQueue("mail", 4)(cfg)
	WithQueue("ignored", 0)(cfg)
	WithMaxWorkers(3)(cfg)
	WithMaxWorkers(-1)(cfg)
	WithLogger(nil)(cfg)

	assert.Equal(t, map[string]int{"mail": 4}, cfg.queues)
	assert.Equal(t, 3, cfg.maxWorkers)
	assert.Nil(t, cfg.logger)
}

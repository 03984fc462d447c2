package tasks_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/outreach/internal/tasks"
	"github.com/dmitrymomot/outreach/pkg/inbound"
	"github.com/dmitrymomot/outreach/pkg/job"
	"github.com/dmitrymomot/outreach/pkg/scheduler"
	"github.com/dmitrymomot/outreach/pkg/sequence"
)

type mockRunner struct {
	mock.Mock
}

func (m *mockRunner) Run(ctx context.Context, maxBatch int) (*scheduler.Report, error) {
	args := m.Called(ctx, maxBatch)
	r, _ := args.Get(0).(*scheduler.Report)
	return r, args.Error(1)
}

func TestRunSequence(t *testing.T) {
	t.Parallel()

	t.Run("passes batch size and ignores per-contact failures", func(t *testing.T) {
		t.Parallel()

		runner := &mockRunner{}
		runner.On("Run", mock.Anything, 25).Return(&scheduler.Report{
			RunID:  "run-1",
			Due:    2,
			Failed: []scheduler.Failure{{ContactID: "c-1", Err: errors.New("smtp down")}},
		}, nil)

		task := tasks.NewRunSequence(runner, "*/15 * * * *", 25, nil)
		assert.Equal(t, tasks.RunSequenceName, task.Name())
		assert.Equal(t, "*/15 * * * *", task.Schedule())
		require.NoError(t, job.ValidateSchedule(task.Schedule()))

		require.NoError(t, task.Handle(context.Background()))
		runner.AssertExpectations(t)
	})

	t.Run("due query failure fails the job", func(t *testing.T) {
		t.Parallel()

		runner := &mockRunner{}
		runner.On("Run", mock.Anything, 50).Return(&scheduler.Report{}, scheduler.ErrQueryDue)

		err := tasks.NewRunSequence(runner, "@hourly", 50, nil).Handle(context.Background())
		require.ErrorIs(t, err, scheduler.ErrQueryDue)
	})
}

type mockTemplateSender struct {
	mock.Mock
}

func (m *mockTemplateSender) Send(ctx context.Context, contactID string, code sequence.TemplateCode) error {
	return m.Called(ctx, contactID, code).Error(0)
}

func TestSendReplyTemplate(t *testing.T) {
	t.Parallel()

	sender := &mockTemplateSender{}
	sender.On("Send", mock.Anything, "c-1", sequence.TemplateR1s).Return(nil)
	sender.On("Send", mock.Anything, "c-2", sequence.TemplateR2s).Return(errors.New("rejected"))

	task := tasks.NewSendReplyTemplate(sender)
	assert.Equal(t, tasks.SendReplyTemplateName, task.Name())

	require.NoError(t, task.Handle(context.Background(), tasks.SendReplyTemplatePayload{ContactID: "c-1", Template: sequence.TemplateR1s}))
	require.Error(t, task.Handle(context.Background(), tasks.SendReplyTemplatePayload{ContactID: "c-2", Template: sequence.TemplateR2s}))

	err := task.Handle(context.Background(), tasks.SendReplyTemplatePayload{ContactID: "c-3", Template: sequence.TemplateE1})
	require.ErrorIs(t, err, job.ErrInvalidPayload)

	err = task.Handle(context.Background(), tasks.SendReplyTemplatePayload{Template: sequence.TemplateR1s})
	require.ErrorIs(t, err, job.ErrInvalidPayload)

	sender.AssertNumberOfCalls(t, "Send", 2)
}

type mockEnqueuer struct {
	mock.Mock
}

func (m *mockEnqueuer) Enqueue(ctx context.Context, name string, payload any, opts ...job.EnqueueOption) error {
	return m.Called(ctx, name, payload, len(opts)).Error(0)
}

func TestQueuedFollowUps(t *testing.T) {
	t.Parallel()

	enq := &mockEnqueuer{}
	enq.On("Enqueue", mock.Anything, tasks.SendReplyTemplateName,
		tasks.SendReplyTemplatePayload{ContactID: "c-9", Template: sequence.TemplateR1s}, 3).Return(nil)

	var f inbound.FollowUps = tasks.NewQueuedFollowUps(enq)
	require.NoError(t, f.ReplyReceived(context.Background(), "c-9"))
	enq.AssertExpectations(t)
}

package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/outreach/pkg/contact"
	"github.com/dmitrymomot/outreach/pkg/logger"
	"github.com/dmitrymomot/outreach/pkg/mailer"
	"github.com/dmitrymomot/outreach/pkg/sequence"
)

// Store is the slice of contact.Store a pass needs.
type Store interface {
	Due(ctx context.Context, now time.Time, limit int) ([]contact.Contact, error)
	Get(ctx context.Context, id string) (*contact.Contact, error)
	Apply(ctx context.Context, id string, u contact.Update) error
}

// Renderer resolves a template code and merge values into email content.
type Renderer interface {
	Render(code string, values map[string]string) (*mailer.Message, error)
}

// Scheduler runs batch passes over due contacts.
type Scheduler struct {
	store    Store
	machine  *sequence.Machine
	renderer Renderer
	sender   mailer.Sender

	clock       Clock
	log         *slog.Logger
	concurrency int
	claimer     Claimer
	claimTTL    time.Duration
	defaults    map[string]string
	replyTo     string
}

// New creates a Scheduler. All collaborators are required.
func New(store Store, machine *sequence.Machine, renderer Renderer, sender mailer.Sender, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:       store,
		machine:     machine,
		renderer:    renderer,
		sender:      sender,
		clock:       SystemClock,
		log:         logger.NewNope(),
		concurrency: 1,
		claimTTL:    DefaultClaimTTL,
		defaults:    defaultMergeValues(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run performs one pass: every contact due at the clock's now, up to
// maxBatch, gets its next template and moves one state forward.
//
// A contact that fails at any step is logged, reported and left as it
// was, so it is picked up again next pass. Only a failed due query is
// returned as an error. Once ctx is done no further contact is started;
// a send already accepted by the provider is still persisted.
func (s *Scheduler) Run(ctx context.Context, maxBatch int) (*Report, error) {
	if maxBatch <= 0 {
		maxBatch = DefaultBatchSize
	}

	now := s.clock.Now().UTC()
	report := &Report{RunID: uuid.NewString(), StartedAt: now}
	ctx = logger.WithRunID(ctx, report.RunID)

	due, err := s.store.Due(ctx, now, maxBatch)
	if err != nil {
		s.log.ErrorContext(ctx, "due query failed", slog.String("error", err.Error()))
		return report, errors.Join(ErrQueryDue, err)
	}

	report.Due = len(due)
	if len(due) == 0 {
		s.log.InfoContext(ctx, "nothing due")
		return report, nil
	}

	outcomes := make([]outcome, len(due))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, c := range due {
		g.Go(func() error {
			outcomes[i] = s.process(ctx, now, c)
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range outcomes {
		switch {
		case o.skipped:
			report.Skipped = append(report.Skipped, o.contactID)
		case o.failure != nil:
			report.Failed = append(report.Failed, *o.failure)
		case o.delivery != nil:
			report.Sent = append(report.Sent, *o.delivery)
		}
	}

	s.log.InfoContext(ctx, "pass finished",
		slog.Int("due", report.Due),
		slog.Int("sent", len(report.Sent)),
		slog.Int("failed", len(report.Failed)),
		slog.Int("skipped", len(report.Skipped)),
	)

	return report, nil
}

type outcome struct {
	contactID string
	delivery  *Delivery
	failure   *Failure
	skipped   bool
}

func (s *Scheduler) process(ctx context.Context, now time.Time, c contact.Contact) (out outcome) {
	out.contactID = c.ID
	ctx = logger.WithContactID(ctx, c.ID)

	sent := false
	fail := func(err error) outcome {
		s.log.ErrorContext(ctx, "contact step failed",
			slog.String("email", c.Email),
			slog.String("state", c.State.String()),
			slog.Bool("sent_not_persisted", sent),
			slog.String("error", err.Error()),
		)
		out.failure = &Failure{
			ContactID:        c.ID,
			Email:            c.Email,
			State:            c.State,
			Err:              err,
			SentNotPersisted: sent,
		}
		return out
	}

	defer func() {
		if r := recover(); r != nil {
			out = fail(fmt.Errorf("%w: %v", ErrPanic, r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	if s.claimer != nil {
		release, ok, err := s.claimer.Claim(ctx, "outreach:contact:"+c.ID, s.claimTTL)
		if err != nil {
			return fail(errors.Join(ErrClaim, err))
		}
		if !ok {
			s.log.DebugContext(ctx, "contact held by another pass")
			out.skipped = true
			return out
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.log.WarnContext(ctx, "failed to release claim", slog.String("error", err.Error()))
			}
		}()
	}

	// The due snapshot may predate another pass or a reply.
	fresh, err := s.store.Get(ctx, c.ID)
	if err != nil {
		return fail(err)
	}
	if fresh.State != c.State || !fresh.NextActionAt.Equal(c.NextActionAt) {
		s.log.DebugContext(ctx, "contact changed since due query",
			slog.String("state", fresh.State.String()),
		)
		out.skipped = true
		return out
	}
	c = *fresh

	code, err := s.machine.PickTemplate(c.State)
	if err != nil {
		return fail(err)
	}

	msg, err := s.renderer.Render(code.String(), s.mergeValues(c))
	if err != nil {
		return fail(err)
	}

	messageID, err := s.sender.Send(ctx, &mailer.Email{
		To:      []string{c.Email},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
		ReplyTo: s.replyTo,
		Tags:    mailer.StepTags(c.ID, code.String()),
	})
	if err != nil {
		return fail(errors.Join(mailer.ErrSendFailed, err))
	}
	// The provider accepted the email, even without an id to record.
	sent = true
	if messageID == "" {
		return fail(ErrEmptyMessageID)
	}

	next, err := s.machine.Advance(c.State, sequence.SignalTimer)
	if err != nil {
		return fail(err)
	}

	nextActionAt := next.Wait.DueAt(now)
	if err := s.store.Apply(context.WithoutCancel(ctx), c.ID, contact.Update{
		From:         c.State,
		State:        next.State,
		NextActionAt: nextActionAt,
		Append: &contact.SentMessage{
			ProviderMessageID: messageID,
			TemplateCode:      code,
			SentAt:            now,
		},
	}); err != nil {
		return fail(err)
	}

	s.log.InfoContext(ctx, "step sent",
		slog.String("email", c.Email),
		slog.String("template", code.String()),
		slog.String("message_id", messageID),
		slog.String("from", c.State.String()),
		slog.String("to", next.State.String()),
		slog.String("wait", next.Wait.String()),
	)

	out.delivery = &Delivery{
		ContactID:         c.ID,
		Email:             c.Email,
		Template:          code,
		ProviderMessageID: messageID,
		From:              c.State,
		To:                next.State,
		NextActionAt:      nextActionAt,
	}
	return out
}

// mergeValues layers defaults, then non-empty profile fields, then merge tags.
func (s *Scheduler) mergeValues(c contact.Contact) map[string]string {
	values := maps.Clone(s.defaults)
	if values == nil {
		values = make(map[string]string, len(c.MergeTags)+2)
	}
	if c.FirstName != "" {
		values["first_name"] = c.FirstName
	}
	if c.Publication != "" {
		values["publication"] = c.Publication
	}
	maps.Copy(values, c.MergeTags)
	return values
}

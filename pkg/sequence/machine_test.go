package sequence_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/outreach/pkg/sequence"
)

var nonTerminal = []sequence.State{
	sequence.StateNew,
	sequence.StateE1Sent,
	sequence.StateR1CSent,
	sequence.StateR2CSent,
	sequence.StateR2CSSent,
}

func TestAdvance_ReplyPositive(t *testing.T) {
	t.Parallel()

	m := sequence.MustNew()
	for _, s := range nonTerminal {
		tr, err := m.Advance(s, sequence.SignalReplyPositive)
		require.NoError(t, err, s)
		assert.Equal(t, sequence.StateReplied, tr.State, s)
		assert.False(t, tr.Wait.Timed(), s)
		assert.Zero(t, tr.Wait.Hours(), s)
	}
}

func TestAdvance_ReplyNegativeAndOOO(t *testing.T) {
	t.Parallel()

	m := sequence.MustNew()
	for _, s := range nonTerminal {
		for _, sig := range []sequence.Signal{sequence.SignalReplyNegative, sequence.SignalReplyOOO} {
			tr, err := m.Advance(s, sig)
			require.NoError(t, err)
			assert.Equal(t, sequence.StateStopped, tr.State)
			assert.False(t, tr.Wait.Timed())
			assert.Zero(t, tr.Wait.Hours())
		}
	}
}

func TestAdvance_Timer(t *testing.T) {
	t.Parallel()

	m := sequence.MustNew()

	tests := []struct {
		from  sequence.State
		to    sequence.State
		hours float64
		timed bool
	}{
		{sequence.StateNew, sequence.StateE1Sent, 48, true},
		{sequence.StateE1Sent, sequence.StateR1CSent, 72, true},
		{sequence.StateR1CSent, sequence.StateR2CSent, 72, true},
		{sequence.StateR2CSent, sequence.StateR2CSSent, 0, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from), func(t *testing.T) {
			t.Parallel()

			tr, err := m.Advance(tt.from, sequence.SignalTimer)
			require.NoError(t, err)
			assert.Equal(t, tt.to, tr.State)
			assert.Equal(t, tt.timed, tr.Wait.Timed())
			assert.InDelta(t, tt.hours, tr.Wait.Hours(), 0.0001)
		})
	}
}

func TestAdvance_SoftCloseIsUnreachable(t *testing.T) {
	t.Parallel()

	m := sequence.MustNew()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tr, err := m.Advance(sequence.StateR2CSent, sequence.SignalTimer)
	require.NoError(t, err)
	require.Equal(t, sequence.StateR2CSSent, tr.State)

	due := tr.Wait.DueAt(now)
	assert.Equal(t, sequence.Never, due)
	// Far beyond any sum of ordinary dwell times.
	assert.True(t, due.After(now.Add(100*365*24*time.Hour)))
}

func TestAdvance_TimerUndefined(t *testing.T) {
	t.Parallel()

	m := sequence.MustNew()
	for _, s := range []sequence.State{sequence.StateR2CSSent, sequence.StateReplied, sequence.StateStopped} {
		_, err := m.Advance(s, sequence.SignalTimer)
		require.ErrorIs(t, err, sequence.ErrUndefinedTransition, s)

		var te *sequence.TransitionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, s, te.State)
		assert.Equal(t, sequence.SignalTimer, te.Signal)
		assert.Contains(t, err.Error(), string(s))
		assert.Contains(t, err.Error(), "timer")
	}
}

func TestAdvance_TerminalRejectsReplies(t *testing.T) {
	t.Parallel()

	m := sequence.MustNew()
	for _, s := range []sequence.State{sequence.StateReplied, sequence.StateStopped} {
		_, err := m.Advance(s, sequence.SignalReplyPositive)
		require.ErrorIs(t, err, sequence.ErrUndefinedTransition)
	}
}

func TestAdvance_InvalidInputs(t *testing.T) {
	t.Parallel()

	m := sequence.MustNew()

	_, err := m.Advance("BOGUS", sequence.SignalTimer)
	require.ErrorIs(t, err, sequence.ErrUndefinedTransition)

	_, err = m.Advance(sequence.StateNew, "reply_maybe")
	require.ErrorIs(t, err, sequence.ErrUndefinedTransition)
	assert.Contains(t, err.Error(), "reply_maybe")
}

func TestPickTemplate(t *testing.T) {
	t.Parallel()

	m := sequence.MustNew()

	defined := map[sequence.State]sequence.TemplateCode{
		sequence.StateNew:     sequence.TemplateE1,
		sequence.StateE1Sent:  sequence.TemplateR1c,
		sequence.StateR1CSent: sequence.TemplateR2c,
		sequence.StateR2CSent: sequence.TemplateR2cs,
	}
	for s, want := range defined {
		got, err := m.PickTemplate(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	for _, s := range []sequence.State{sequence.StateR2CSSent, sequence.StateReplied, sequence.StateStopped, "BOGUS"} {
		_, err := m.PickTemplate(s)
		require.ErrorIs(t, err, sequence.ErrNoTemplate, s)
	}
}

func TestMachine_IsPure(t *testing.T) {
	t.Parallel()

	m := sequence.MustNew()
	signals := []sequence.Signal{
		sequence.SignalTimer,
		sequence.SignalReplyPositive,
		sequence.SignalReplyNegative,
		sequence.SignalReplyOOO,
	}

	for _, s := range sequence.States {
		c1, err1 := m.PickTemplate(s)
		c2, err2 := m.PickTemplate(s)
		assert.Equal(t, c1, c2)
		assert.Equal(t, err1, err2)

		for _, sig := range signals {
			t1, e1 := m.Advance(s, sig)
			t2, e2 := m.Advance(s, sig)
			assert.Equal(t, t1, t2)
			assert.Equal(t, e1, e2)
		}
	}
}

func TestNew_DwellOverrides(t *testing.T) {
	t.Parallel()

	t.Run("shortens timed states", func(t *testing.T) {
		t.Parallel()

		m, err := sequence.New(sequence.WithDwell(sequence.StateE1Sent, 4*time.Second))
		require.NoError(t, err)

		tr, err := m.Advance(sequence.StateNew, sequence.SignalTimer)
		require.NoError(t, err)
		d, ok := tr.Wait.Duration()
		assert.True(t, ok)
		assert.Equal(t, 4*time.Second, d)

		// Other states keep their defaults.
		assert.Equal(t, sequence.Wait(sequence.DefaultDwellR1CSent), m.DwellFor(sequence.StateR1CSent))
	})

	t.Run("rejects states without a timer", func(t *testing.T) {
		t.Parallel()

		for _, s := range []sequence.State{sequence.StateNew, sequence.StateR2CSSent, sequence.StateReplied} {
			_, err := sequence.New(sequence.WithDwell(s, time.Hour))
			require.ErrorIs(t, err, sequence.ErrInvalidDwellOverride, s)
		}
	})

	t.Run("rejects negative durations", func(t *testing.T) {
		t.Parallel()

		_, err := sequence.New(sequence.WithDwells(map[sequence.State]time.Duration{
			sequence.StateR1CSent: -time.Minute,
		}))
		require.ErrorIs(t, err, sequence.ErrInvalidDwellOverride)
	})

	t.Run("overrides do not leak between machines", func(t *testing.T) {
		t.Parallel()

		_ = sequence.MustNew(sequence.WithDwell(sequence.StateE1Sent, time.Second))
		m := sequence.MustNew()
		assert.Equal(t, sequence.Wait(sequence.DefaultDwellE1Sent), m.DwellFor(sequence.StateE1Sent))
	})
}

func TestReplyTemplate(t *testing.T) {
	t.Parallel()

	code, err := sequence.ReplyTemplate(sequence.SignalReplyPositive)
	require.NoError(t, err)
	assert.Equal(t, sequence.TemplateR1s, code)

	_, err = sequence.ReplyTemplate(sequence.SignalReplyNegative)
	require.ErrorIs(t, err, sequence.ErrNoTemplate)
}

func TestParseStateAndSignal(t *testing.T) {
	t.Parallel()

	for _, s := range sequence.States {
		got, err := sequence.ParseState(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
	_, err := sequence.ParseState("new")
	require.ErrorIs(t, err, sequence.ErrInvalidState)

	sig, err := sequence.ParseSignal("reply_ooo")
	require.NoError(t, err)
	assert.Equal(t, sequence.SignalReplyOOO, sig)
	assert.True(t, sig.IsReply())

	_, err = sequence.ParseSignal("bounce")
	require.ErrorIs(t, err, sequence.ErrInvalidSignal)
}

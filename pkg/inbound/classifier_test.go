package inbound_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/outreach/pkg/inbound"
	"github.com/dmitrymomot/outreach/pkg/sequence"
)

func TestKeywordClassifier(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		subject string
		text    string
		want    sequence.Signal
	}{
		{"interested", "Re: Quick question", "Sounds great, send me the data.", sequence.SignalReplyPositive},
		{"empty body", "", "", sequence.SignalReplyPositive},
		{"out of office subject", "Out of Office: back Monday", "", sequence.SignalReplyOOO},
		{"automatic reply", "Automatic reply", "I am away.", sequence.SignalReplyOOO},
		{"on leave", "Re: hi", "I'm on leave until June.", sequence.SignalReplyOOO},
		{"auto-reply", "", "This is an AUTO-REPLY.", sequence.SignalReplyOOO},
		{"unsubscribe", "Re: hi", "Please unsubscribe me", sequence.SignalReplyNegative},
		{"not interested", "", "Not interested, thanks.", sequence.SignalReplyNegative},
		{"remove me", "", "remove me from your list", sequence.SignalReplyNegative},
		{"stop emailing", "", "Stop emailing me.", sequence.SignalReplyNegative},
		{"no thanks", "", "No thanks!", sequence.SignalReplyNegative},
		{"ooo wins over negative", "Out of office", "unsubscribe link below", sequence.SignalReplyOOO},
	}

	c := inbound.NewKeywordClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := c.Classify(context.Background(), inbound.Message{Subject: tt.subject, Text: tt.text})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeywordClassifier_CustomMarkers(t *testing.T) {
	t.Parallel()

	c := &inbound.KeywordClassifier{Negative: []string{"Pas Intéressé"}}

	got, err := c.Classify(context.Background(), inbound.Message{Text: "pas intéressé, merci"})
	require.NoError(t, err)
	assert.Equal(t, sequence.SignalReplyNegative, got)

	got, err = c.Classify(context.Background(), inbound.Message{Text: "out of office"})
	require.NoError(t, err)
	assert.Equal(t, sequence.SignalReplyPositive, got)
}

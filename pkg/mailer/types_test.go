package mailer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSimpleTags_CreatesPresenceOnlyTags(t *testing.T) {
	t.Parallel()

	tags := SimpleTags("outreach", "timer")

	require.Len(t, tags, 2)
	require.Equal(t, struct{}{}, tags["outreach"])
	require.Equal(t, struct{}{}, tags["timer"])
}

func TestSimpleTags_EmptyList(t *testing.T) {
	t.Parallel()

	tags := SimpleTags()

	require.NotNil(t, tags)
	require.Empty(t, tags)
}

func TestStepTags(t *testing.T) {
	t.Parallel()

	tags := StepTags("c-1", "E1")

	require.Equal(t, "c-1", tags["contact_id"])
	require.Equal(t, "E1", tags["template"])
}

func TestRecipient(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Jad <jad@example.com>", Recipient("Jad", "jad@example.com"))
	require.Equal(t, "jad@example.com", Recipient("", "jad@example.com"))
}

package inbound

import (
	"context"
	"strings"

	"github.com/dmitrymomot/outreach/pkg/sequence"
)

// Classifier maps a reply to one of the reply signals.
type Classifier interface {
	Classify(ctx context.Context, msg Message) (sequence.Signal, error)
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(ctx context.Context, msg Message) (sequence.Signal, error)

func (f ClassifierFunc) Classify(ctx context.Context, msg Message) (sequence.Signal, error) {
	return f(ctx, msg)
}

var (
	defaultOOOMarkers = []string{
		"out of office",
		"auto-reply",
		"automatic reply",
		"on leave",
	}
	defaultNegativeMarkers = []string{
		"unsubscribe",
		"not interested",
		"remove me",
		"stop emailing",
		"no thanks",
	}
)

// KeywordClassifier looks for marker phrases in the subject and text.
// Out-of-office markers win over negative ones; anything else is positive.
type KeywordClassifier struct {
	OOO      []string
	Negative []string
}

// NewKeywordClassifier returns a classifier with the built-in marker lists.
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		OOO:      defaultOOOMarkers,
		Negative: defaultNegativeMarkers,
	}
}

// Classify implements Classifier.
func (k *KeywordClassifier) Classify(_ context.Context, msg Message) (sequence.Signal, error) {
	haystack := strings.ToLower(msg.Subject + "\n" + msg.Text)

	switch {
	case containsAny(haystack, k.OOO):
		return sequence.SignalReplyOOO, nil
	case containsAny(haystack, k.Negative):
		return sequence.SignalReplyNegative, nil
	default:
		return sequence.SignalReplyPositive, nil
	}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if m != "" && strings.Contains(s, strings.ToLower(m)) {
			return true
		}
	}
	return false
}

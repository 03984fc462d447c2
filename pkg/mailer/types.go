package mailer

import "fmt"

// Tags represents email tags/categories that can be either presence-only
// (using struct{}{}) or key-value pairs (using string values).
// Providers without tag support ignore them.
type Tags map[string]any

// SimpleTags creates presence-only tags from a list of tag names.
func SimpleTags(names ...string) Tags {
	t := make(Tags, len(names))
	for _, n := range names {
		t[n] = struct{}{}
	}
	return t
}

// StepTags tags a sequence email with its contact and template code,
// so provider events can be traced back to the step that produced them.
func StepTags(contactID, templateCode string) Tags {
	return Tags{
		"contact_id": contactID,
		"template":   templateCode,
	}
}

// Recipient formats a name and email into RFC 5322 address format.
// Returns "Name <email>" if name is provided, otherwise just email.
func Recipient(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

// Email represents a fully-prepared email message ready for sending.
type Email struct {
	Headers map[string]string // Custom headers
	Tags    Tags              // Provider-specific tags/categories
	Subject string            // Email subject
	HTML    string            // HTML body content
	Text    string            // Plain text alternative
	From    string            // Override default sender (if provider allows)
	ReplyTo string            // Reply-to address
	To      []string          // Recipients (at least one required)
}

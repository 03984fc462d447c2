// Package mailer renders sequence templates and hands the result to an email provider.
//
// The package separates email sending (via providers) from template
// resolution, so providers can be swapped while templates stay the same.
//
// # Architecture
//
//   - Sender: interface that email providers implement; returns the provider message id
//   - Renderer: resolves a template code plus merge values into subject and body
//   - Mailer: high-level client combining Sender and Renderer
//
// Providers live in sub-packages: [github.com/dmitrymomot/outreach/pkg/mailer/resend]
// and [github.com/dmitrymomot/outreach/pkg/mailer/smtp].
//
// # Templates
//
// A template code maps to a Markdown file <code>.md with YAML frontmatter:
//
//	---
//	Subject: Quick question re your {{.publication}} piece
//	---
//
//	Hi {{.first_name}},
//
//	{{.article_summary}}
//
// Placeholders are text/template field lookups on the merge map. A
// placeholder without a value fails the render with [ErrRenderFailed];
// nothing is ever sent with a hole in it. Files are read once per code and
// kept parsed for the life of the Renderer.
//
// Merge values are stripped of markup before they reach the HTML body.
// The subject and the plain text alternative use them verbatim.
//
// # Usage
//
//	sender := resend.New(resend.Config{
//		APIKey:      os.Getenv("RESEND_API_KEY"),
//		SenderEmail: "jad@example.com",
//	})
//	renderer := mailer.NewRendererWithConfig(templates.FS, mailer.RendererConfig{
//		Layout: "base.html",
//	})
//	m := mailer.New(sender, renderer, mailer.Config{})
//
//	id, err := m.Send(ctx, mailer.SendParams{
//		To:       "alice@example.com",
//		Template: "R1s",
//		Data:     map[string]string{"first_name": "Alice"},
//	})
//
// # Errors
//
//   - ErrNoRecipient: No recipient specified
//   - ErrNoSubject: No subject in frontmatter and no fallback
//   - ErrNoContent: No HTML content provided
//   - ErrTemplateNotFound: Template store has no file for the code
//   - ErrLayoutNotFound: Layout file not found
//   - ErrRenderFailed: Template rendering failed, including missing merge values
//   - ErrSendFailed: Email sending failed
//   - ErrInvalidFrontmatter: Invalid YAML frontmatter
package mailer

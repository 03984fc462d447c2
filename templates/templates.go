// Package templates embeds the default outreach email set.
//
// Each sequence step has a <code>.md file (E1, R1c, R2c, R2cs) and the
// reply-triggered codes have their own (R1s, R2s). Bodies are Markdown;
// layouts/base.html wraps the rendered HTML.
package templates

import "embed"

// FS holds the embedded templates, suitable for mailer.NewRenderer.
//
//go:embed *.md layouts/*.html
var FS embed.FS

// DefaultLayout is the layout applied when a template names none.
const DefaultLayout = "base.html"

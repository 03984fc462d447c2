package mailer

// Config holds mailer configuration.
// Embed this in your app config for env parsing with caarlos0/env.
type Config struct {
	// Used when a template has no Subject in its frontmatter. Empty means such templates fail.
	FallbackSubject string `env:"MAILER_FALLBACK_SUBJECT"`
	// Layout wrapped around every rendered body. Empty disables layouts.
	DefaultLayout string `env:"MAILER_DEFAULT_LAYOUT" envDefault:"base.html"`
	ReplyTo       string `env:"MAILER_REPLY_TO"`
}

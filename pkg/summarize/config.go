package summarize

import "time"

// Config holds the chat endpoint settings.
// Defaults target Gemini's OpenAI-compatible API.
type Config struct {
	APIKey  string        `env:"GEMINI_KEY"`
	BaseURL string        `env:"AI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta/openai/"`
	Model   string        `env:"AI_MODEL" envDefault:"gemini-2.0-flash"`
	Timeout time.Duration `env:"AI_TIMEOUT" envDefault:"15s"`
}

// Enabled reports whether an API key is configured.
func (c Config) Enabled() bool {
	return c.APIKey != ""
}

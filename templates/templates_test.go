package templates_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/outreach/pkg/mailer"
	"github.com/dmitrymomot/outreach/pkg/sequence"
	"github.com/dmitrymomot/outreach/templates"
)

func TestEmbeddedTemplatesRender(t *testing.T) {
	t.Parallel()

	r := mailer.NewRendererWithConfig(templates.FS, mailer.RendererConfig{Layout: templates.DefaultLayout})
	values := map[string]string{
		"first_name":       "Alice",
		"publication":      "Wired",
		"article_summary":  "Open data is getting harder to find.",
		"probing_question": "Are you planning a follow-up?",
	}

	subjects := map[sequence.TemplateCode]string{
		sequence.TemplateE1:   "Quick question re your Wired piece",
		sequence.TemplateR1c:  "Following up on my last note",
		sequence.TemplateR2c:  "Another angle you might like",
		sequence.TemplateR2cs: "One last resource for your story",
		sequence.TemplateR1s:  "Materials you asked for",
		sequence.TemplateR2s:  "Data & methodology inside",
	}

	for code, want := range subjects {
		t.Run(string(code), func(t *testing.T) {
			t.Parallel()

			msg, err := r.Render(string(code), values)
			require.NoError(t, err)
			require.Equal(t, want, msg.Subject)
			require.Contains(t, msg.HTML, "<!DOCTYPE html>")
			require.Contains(t, msg.HTML, "Alice")
		})
	}
}

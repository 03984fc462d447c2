package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"maps"
	"path"
	"sync"
	texttemplate "text/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// Renderer resolves template codes into subjects and bodies.
// Templates are Markdown files with YAML frontmatter, named <code><ext>,
// read once from the template store and kept parsed for the process lifetime.
type Renderer struct {
	fs     fs.FS
	md     goldmark.Markdown
	policy *bluemonday.Policy
	config RendererConfig

	// Caches hold parsed structure only, never rendered output.
	templateCache map[string]*cachedTemplate
	layoutCache   map[string]*template.Template

	mu sync.RWMutex
}

type cachedTemplate struct {
	front   Frontmatter
	subject *texttemplate.Template // nil when the frontmatter has no Subject
	body    *texttemplate.Template
}

// RendererConfig configures the renderer.
type RendererConfig struct {
	TemplateDir     string // Default: "."
	LayoutDir       string // Default: "layouts"
	Extension       string // Default: ".md"
	Layout          string // Layout applied when the template names none; empty disables layouts
	FallbackSubject string // Subject used when the template has none
}

// Message is a fully rendered email content.
type Message struct {
	Subject string
	HTML    string
	Text    string // Markdown after substitution, before HTML conversion
}

// NewRenderer creates a new renderer with default config.
func NewRenderer(filesystem fs.FS) *Renderer {
	return NewRendererWithConfig(filesystem, RendererConfig{})
}

// NewRendererWithConfig creates a new renderer with custom config.
func NewRendererWithConfig(filesystem fs.FS, cfg RendererConfig) *Renderer {
	if cfg.TemplateDir == "" {
		cfg.TemplateDir = "."
	}
	if cfg.LayoutDir == "" {
		cfg.LayoutDir = "layouts"
	}
	if cfg.Extension == "" {
		cfg.Extension = ".md"
	}

	return &Renderer{
		fs:            filesystem,
		md:            goldmark.New(),
		policy:        bluemonday.StrictPolicy(),
		config:        cfg,
		templateCache: make(map[string]*cachedTemplate),
		layoutCache:   make(map[string]*template.Template),
	}
}

// Subject returns the subject line of code with values substituted.
func (r *Renderer) Subject(code string, values map[string]string) (string, error) {
	cached, err := r.getTemplate(code)
	if err != nil {
		return "", err
	}
	return r.subject(code, cached, values)
}

// Body returns the HTML body of code with values substituted.
func (r *Renderer) Body(code string, values map[string]string) (string, error) {
	cached, err := r.getTemplate(code)
	if err != nil {
		return "", err
	}
	html, _, err := r.body(code, cached, values)
	return html, err
}

// Render resolves subject, HTML and plain text body of code in one call.
// Every placeholder must have a value; a missing one fails with ErrRenderFailed.
func (r *Renderer) Render(code string, values map[string]string) (*Message, error) {
	cached, err := r.getTemplate(code)
	if err != nil {
		return nil, err
	}

	subject, err := r.subject(code, cached, values)
	if err != nil {
		return nil, err
	}

	html, text, err := r.body(code, cached, values)
	if err != nil {
		return nil, err
	}

	return &Message{Subject: subject, HTML: html, Text: text}, nil
}

func (r *Renderer) subject(code string, cached *cachedTemplate, values map[string]string) (string, error) {
	tmpl := cached.subject
	if tmpl == nil {
		if r.config.FallbackSubject == "" {
			return "", fmt.Errorf("%w: %s", ErrNoSubject, code)
		}
		var err error
		tmpl, err = parseStrict("subject", r.config.FallbackSubject)
		if err != nil {
			return "", fmt.Errorf("%w: fallback subject: %v", ErrRenderFailed, err)
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, values); err != nil {
		return "", fmt.Errorf("%w: %s subject: %v", ErrRenderFailed, code, err)
	}
	return buf.String(), nil
}

// body returns the HTML and the plain text rendition of the template body.
// The HTML rendition substitutes sanitized values; the text one uses them verbatim.
func (r *Renderer) body(code string, cached *cachedTemplate, values map[string]string) (string, string, error) {
	var text bytes.Buffer
	if err := cached.body.Execute(&text, values); err != nil {
		return "", "", fmt.Errorf("%w: %s body: %v", ErrRenderFailed, code, err)
	}

	var markdown bytes.Buffer
	if err := cached.body.Execute(&markdown, r.sanitize(values)); err != nil {
		return "", "", fmt.Errorf("%w: %s body: %v", ErrRenderFailed, code, err)
	}

	var content bytes.Buffer
	if err := r.md.Convert(markdown.Bytes(), &content); err != nil {
		return "", "", fmt.Errorf("%w: %s: failed to convert markdown: %v", ErrRenderFailed, code, err)
	}

	layout := cached.front.Layout
	if layout == "" {
		layout = r.config.Layout
	}
	if layout == "" {
		return content.String(), text.String(), nil
	}

	layoutTmpl, err := r.getLayout(layout)
	if err != nil {
		return "", "", err
	}

	var final bytes.Buffer
	if err := layoutTmpl.Execute(&final, map[string]any{
		"Content": template.HTML(content.String()),
		"Subject": cached.front.Subject,
	}); err != nil {
		return "", "", fmt.Errorf("%w: failed to execute layout %s: %v", ErrRenderFailed, layout, err)
	}

	return final.String(), text.String(), nil
}

// sanitize strips markup from merge values before they reach the HTML body.
func (r *Renderer) sanitize(values map[string]string) map[string]string {
	clean := make(map[string]string, len(values))
	maps.Copy(clean, values)
	for k, v := range clean {
		clean[k] = r.policy.Sanitize(v)
	}
	return clean
}

// getTemplate returns a cached template or loads, parses and caches it.
func (r *Renderer) getTemplate(code string) (*cachedTemplate, error) {
	r.mu.RLock()
	if cached, ok := r.templateCache[code]; ok {
		r.mu.RUnlock()
		return cached, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock
	if cached, ok := r.templateCache[code]; ok {
		return cached, nil
	}

	name := path.Join(r.config.TemplateDir, code+r.config.Extension)
	content, err := fs.ReadFile(r.fs, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateNotFound, code, err)
	}

	parsed, err := ParseTemplate(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRenderFailed, code, err)
	}

	cached := &cachedTemplate{front: parsed.Frontmatter}

	cached.body, err = parseStrict(code, parsed.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: failed to parse body: %v", ErrRenderFailed, code, err)
	}
	if parsed.Frontmatter.Subject != "" {
		cached.subject, err = parseStrict(code+":subject", parsed.Frontmatter.Subject)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: failed to parse subject: %v", ErrRenderFailed, code, err)
		}
	}

	r.templateCache[code] = cached
	return cached, nil
}

// getLayout returns a cached layout template or parses and caches it.
func (r *Renderer) getLayout(name string) (*template.Template, error) {
	r.mu.RLock()
	if cached, ok := r.layoutCache[name]; ok {
		r.mu.RUnlock()
		return cached, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	if cached, ok := r.layoutCache[name]; ok {
		return cached, nil
	}

	content, err := fs.ReadFile(r.fs, path.Join(r.config.LayoutDir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLayoutNotFound, name, err)
	}

	layoutTmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse layout: %v", ErrRenderFailed, err)
	}

	r.layoutCache[name] = layoutTmpl
	return layoutTmpl, nil
}

// parseStrict parses a text template that fails on any placeholder without a value.
func parseStrict(name, text string) (*texttemplate.Template, error) {
	return texttemplate.New(name).Option("missingkey=error").Parse(text)
}

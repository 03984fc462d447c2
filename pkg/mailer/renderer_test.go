package mailer

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func pitchFS() fstest.MapFS {
	return fstest.MapFS{
		"layouts/base.html": &fstest.MapFile{
			Data: []byte(`<html><body>{{.Content}}</body></html>`),
		},
		"E1.md": &fstest.MapFile{
			Data: []byte(`---
Subject: Quick question re your {{.publication}} piece
---
Hi **{{.first_name}}**,

{{.article_summary}}
`),
		},
		"nosubject.md": &fstest.MapFile{
			Data: []byte(`Hello {{.first_name}}`),
		},
	}
}

func TestRenderer_Render(t *testing.T) {
	t.Parallel()

	r := NewRendererWithConfig(pitchFS(), RendererConfig{Layout: "base.html"})

	msg, err := r.Render("E1", map[string]string{
		"first_name":      "Alice",
		"publication":     "TechCrunch",
		"article_summary": "Start-ups race to automate outreach.",
	})
	require.NoError(t, err)

	require.Equal(t, "Quick question re your TechCrunch piece", msg.Subject)
	require.Contains(t, msg.HTML, "<html><body>")
	require.Contains(t, msg.HTML, "<strong>Alice</strong>")
	require.Contains(t, msg.Text, "Hi **Alice**,")
	require.NotContains(t, msg.Text, "<strong>")
}

func TestRenderer_SubjectAndBody(t *testing.T) {
	t.Parallel()

	r := NewRenderer(pitchFS())
	values := map[string]string{"first_name": "Bo", "publication": "Wired", "article_summary": "x"}

	subject, err := r.Subject("E1", values)
	require.NoError(t, err)
	require.Equal(t, "Quick question re your Wired piece", subject)

	body, err := r.Body("E1", values)
	require.NoError(t, err)
	require.Contains(t, body, "<strong>Bo</strong>")
	require.NotContains(t, body, "<html>", "no layout configured")
}

func TestRenderer_MissingMergeValue(t *testing.T) {
	t.Parallel()

	r := NewRenderer(pitchFS())

	_, err := r.Subject("E1", map[string]string{"first_name": "Alice"})
	require.ErrorIs(t, err, ErrRenderFailed)
	require.Contains(t, err.Error(), "publication")

	_, err = r.Render("E1", map[string]string{"first_name": "Alice", "publication": "Wired"})
	require.ErrorIs(t, err, ErrRenderFailed)
	require.Contains(t, err.Error(), "article_summary")
}

func TestRenderer_TemplateNotFound(t *testing.T) {
	t.Parallel()

	r := NewRenderer(pitchFS())

	_, err := r.Render("R9", nil)
	require.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestRenderer_LayoutNotFound(t *testing.T) {
	t.Parallel()

	r := NewRendererWithConfig(pitchFS(), RendererConfig{Layout: "missing.html"})

	_, err := r.Render("nosubject", map[string]string{"first_name": "A"})
	require.ErrorIs(t, err, ErrNoSubject)

	_, err = r.Body("nosubject", map[string]string{"first_name": "A"})
	require.ErrorIs(t, err, ErrLayoutNotFound)
}

func TestRenderer_FallbackSubject(t *testing.T) {
	t.Parallel()

	r := NewRendererWithConfig(pitchFS(), RendererConfig{FallbackSubject: "A note for {{.first_name}}"})

	subject, err := r.Subject("nosubject", map[string]string{"first_name": "Alice"})
	require.NoError(t, err)
	require.Equal(t, "A note for Alice", subject)
}

func TestRenderer_SanitizesMergeValuesInHTML(t *testing.T) {
	t.Parallel()

	r := NewRenderer(fstest.MapFS{
		"x.md": &fstest.MapFile{Data: []byte("---\nSubject: {{.name}}\n---\nHi {{.name}}")},
	})

	msg, err := r.Render("x", map[string]string{"name": `<script>alert(1)</script>Eve`})
	require.NoError(t, err)
	require.NotContains(t, msg.HTML, "<script>")
	require.Contains(t, msg.HTML, "Eve")
	// Plain text and subject keep the value verbatim.
	require.Contains(t, msg.Text, "<script>")
	require.Contains(t, msg.Subject, "Eve")
}

func TestRenderer_CachesTemplates(t *testing.T) {
	t.Parallel()

	var reads atomic.Int32
	cfs := &countingFS{MapFS: pitchFS(), reads: &reads}
	r := NewRendererWithConfig(cfs, RendererConfig{Layout: "base.html"})

	values := map[string]string{"first_name": "A", "publication": "B", "article_summary": "C"}
	for range 5 {
		_, err := r.Render("E1", values)
		require.NoError(t, err)
	}

	// One read for the template, one for the layout.
	require.Equal(t, int32(2), reads.Load())
}

func TestRenderer_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	r := NewRendererWithConfig(pitchFS(), RendererConfig{Layout: "base.html"})

	var wg sync.WaitGroup
	errs := make(chan error, 50)

	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := fmt.Sprintf("user%d", i)
			msg, err := r.Render("E1", map[string]string{
				"first_name":      name,
				"publication":     "P",
				"article_summary": "S",
			})
			if err != nil {
				errs <- err
				return
			}
			if !strings.Contains(msg.HTML, name) {
				errs <- fmt.Errorf("render %d: missing %s", i, name)
			}
		}(i)
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent render failed: %v", err)
	}
}

// countingFS wraps MapFS and counts ReadFile calls.
type countingFS struct {
	fstest.MapFS
	reads *atomic.Int32
}

func (c *countingFS) ReadFile(name string) ([]byte, error) {
	c.reads.Add(1)
	return c.MapFS.ReadFile(name)
}

func TestRenderer_SubjectStartingWithAction(t *testing.T) {
	t.Parallel()

	r := NewRenderer(fstest.MapFS{
		"x.md": &fstest.MapFile{Data: []byte("---\nSubject: {{.first_name}}, quick question\n---\nHi")},
	})

	msg, err := r.Render("x", map[string]string{"first_name": "Alice"})
	require.NoError(t, err)
	require.Equal(t, "Alice, quick question", msg.Subject)
}

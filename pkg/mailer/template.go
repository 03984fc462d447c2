package mailer

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// frontmatterDelimiter opens and closes the YAML header of a template file.
var frontmatterDelimiter = []byte("---")

// Frontmatter holds the recognized header fields of a template file.
type Frontmatter struct {
	Subject string `yaml:"Subject"`
	Layout  string `yaml:"Layout"`
}

// Template is a raw template file split into its header and Markdown body.
type Template struct {
	Frontmatter Frontmatter
	Body        string
}

// ParseTemplate splits raw template content into frontmatter and body.
// Content without a leading delimiter is treated as body only.
func ParseTemplate(content []byte) (*Template, error) {
	if !bytes.HasPrefix(content, frontmatterDelimiter) {
		return &Template{Body: string(content)}, nil
	}

	rest := bytes.TrimLeft(bytes.TrimPrefix(content, frontmatterDelimiter), "\r\n")
	if len(rest) == 0 {
		return nil, fmt.Errorf("%w: no content after opening delimiter", ErrInvalidFrontmatter)
	}

	end := bytes.Index(rest, frontmatterDelimiter)
	if end == -1 {
		return nil, fmt.Errorf("%w: closing delimiter not found", ErrInvalidFrontmatter)
	}

	header := rest[:end]
	body := rest[end+len(frontmatterDelimiter):]
	switch {
	case bytes.HasPrefix(body, []byte("\r\n")):
		body = body[2:]
	case bytes.HasPrefix(body, []byte("\n")):
		body = body[1:]
	}

	fm, err := parseFrontmatter(header)
	if err != nil {
		return nil, err
	}

	return &Template{Frontmatter: fm, Body: string(body)}, nil
}

// parseFrontmatter decodes the header as YAML, except that an unquoted
// Subject or Layout holding a template action is taken verbatim. Plain YAML
// would read "Subject: {{.name}}" as a flow mapping.
func parseFrontmatter(header []byte) (Frontmatter, error) {
	var (
		fm   Frontmatter
		rest [][]byte
	)
	for line := range bytes.Lines(header) {
		line = bytes.TrimRight(line, "\r\n")
		key, value, ok := bytes.Cut(line, []byte(":"))
		if ok && isTemplateAction(value) {
			switch string(key) {
			case "Subject":
				fm.Subject = string(bytes.TrimSpace(value))
				continue
			case "Layout":
				fm.Layout = string(bytes.TrimSpace(value))
				continue
			}
		}
		rest = append(rest, line)
	}

	doc := bytes.Join(rest, []byte("\n"))
	if len(bytes.TrimSpace(doc)) == 0 {
		return fm, nil
	}
	if err := yaml.Unmarshal(doc, &fm); err != nil {
		return Frontmatter{}, fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
	}
	return fm, nil
}

func isTemplateAction(value []byte) bool {
	v := bytes.TrimSpace(value)
	if len(v) == 0 || v[0] == '"' || v[0] == '\'' {
		return false
	}
	return bytes.Contains(v, []byte("{{"))
}

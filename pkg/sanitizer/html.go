package sanitizer

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy *bluemonday.Policy
	initOnce     sync.Once
)

func initPolicies() {
	initOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
		strictPolicy.AddSpaceWhenStrippingTag(true)
	})
}

// StripHTML turns an HTML email body into plain text: tags are removed,
// entities decoded and runs of whitespace collapsed to one space.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}
	initPolicies()
	text := html.UnescapeString(strictPolicy.Sanitize(s))
	return strings.Join(strings.Fields(text), " ")
}

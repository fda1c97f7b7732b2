// Package sanitize cleans user supplied HTML before it is stored.
package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	richText = newRichTextPolicy()
	strict   = bluemonday.StrictPolicy()
)

func newRichTextPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.RequireNoFollowOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// RichText keeps formatting markup (paragraphs, links, emphasis, lists) and
// strips everything else.
func RichText(html string) string {
	return strings.TrimSpace(richText.Sanitize(html))
}

// Text strips all markup.
func Text(html string) string {
	return strings.TrimSpace(strict.Sanitize(html))
}

package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRichText(t *testing.T) {
	out := RichText(`<p onclick="x()">Hello <script>alert(1)</script><strong>world</strong></p>`)
	assert.Equal(t, "<p>Hello <strong>world</strong></p>", out)

	out = RichText(`<a href="https://example.com">link</a>`)
	assert.Contains(t, out, "nofollow")
	assert.Contains(t, out, `target="_blank"`)
}

func TestText(t *testing.T) {
	assert.Equal(t, "Breaking news", Text("  <h1>Breaking <em>news</em></h1> "))
	assert.Equal(t, "", Text("<script>alert(1)</script>"))
}

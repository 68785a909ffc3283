package hosting

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderInjectsAssets(t *testing.T) {
	html := "<html><head><title>x</title></head><body><p>hi</p></body></html>"
	out := Render(html, "p{color:red}", "alert(1)")

	assert.Contains(t, out, "<style>p{color:red}</style>")
	assert.Less(t, strings.Index(out, "<style>"), strings.Index(out, "</head>"))
	assert.Contains(t, out, "<script>alert(1)</script>\n</body>")
}

func TestRenderOnlyFirstOccurrence(t *testing.T) {
	html := "<head></head><body><pre>&lt;/body&gt;</pre></body><template></body></template>"
	out := Render(html, "", "go()")
	assert.Equal(t, 1, strings.Count(out, "<script>go()</script>"))
	assert.True(t, strings.HasPrefix(out[strings.Index(out, "<body>"):], "<body><pre>&lt;/body&gt;</pre><script>go()</script>"))
}

func TestRenderCaseInsensitiveAndFragments(t *testing.T) {
	out := Render("<HTML><HEAD></HEAD><BODY></BODY></HTML>", "a{}", "b()")
	assert.Contains(t, out, "<style>a{}</style>")
	assert.Contains(t, out, "<script>b()</script>\n</BODY>")

	frag := Render("<h1>bare</h1>", "h1{}", "c()")
	assert.True(t, strings.HasPrefix(frag, "<style>h1{}</style>"))
	assert.True(t, strings.HasSuffix(frag, "<script>c()</script>\n"))
}

func TestErrorPagesAreRTL(t *testing.T) {
	for _, page := range []string{NotFoundPage, ErrorPage} {
		assert.Contains(t, page, `dir="rtl"`)
		assert.True(t, strings.HasPrefix(page, "<!DOCTYPE html>"))
	}
}

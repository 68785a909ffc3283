package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "html tagged", in: "```html\n<!DOCTYPE html>\n<html></html>\n```", want: "<!DOCTYPE html>\n<html></html>"},
		{name: "bare fence", in: "```\nbody { margin: 0; }\n```\n", want: "body { margin: 0; }"},
		{name: "javascript tag with crlf", in: "```javascript\r\nconsole.log(1);\r\n```", want: "console.log(1);"},
		{name: "leading whitespace before fence", in: "  \n```css\na{}\n```", want: "a{}"},
		{name: "clean text untouched", in: "<p>hello</p>\n", want: "<p>hello</p>\n"},
		{name: "inner backticks kept", in: "const s = `x`;", want: "const s = `x`;"},
		{name: "empty", in: "", want: ""},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, StripCodeFences(tc.in))
		})
	}
}

func TestStripCodeFencesIdempotent(t *testing.T) {
	inputs := []string{
		"<!DOCTYPE html><html lang=\"ar\" dir=\"rtl\"></html>",
		":root { --accent: #f60; }\n",
		"document.querySelectorAll('a').forEach(a => a.addEventListener('click', go));",
		"```json\n{\"html\":\"<p></p>\"}\n```",
	}
	for _, in := range inputs {
		once := StripCodeFences(in)
		assert.Equal(t, once, StripCodeFences(once))
	}
}

package agents

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeModelJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want Artifacts
	}{
		{"plain", `{"html":"<p>a</p>","css":"p{}","js":""}`, Artifacts{HTML: "<p>a</p>", CSS: "p{}"}},
		{"fenced", "```json\n{\"html\":\"x\"}\n```", Artifacts{HTML: "x"}},
		{"prose around", "Here you go:\n{\"css\":\"a{}\"}\nEnjoy!", Artifacts{CSS: "a{}"}},
		{"braces in strings", `Sure {"js":"if (a) { b() }","html":"}{"} trailing {`, Artifacts{JS: "if (a) { b() }", HTML: "}{"}},
		{"escaped quotes", `{"html":"<a href=\"/x\">{</a>"} done`, Artifacts{HTML: `<a href="/x">{</a>`}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got Artifacts
			require.NoError(t, decodeModelJSON(tt.in, &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeModelJSONFailures(t *testing.T) {
	t.Parallel()

	for _, in := range []string{
		"",
		"no json at all",
		`{"html": "truncated`,
		"```json\n```",
	} {
		var got Artifacts
		assert.Error(t, decodeModelJSON(in, &got), in)
	}
}

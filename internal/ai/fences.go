package ai

import "regexp"

var (
	openingFence = regexp.MustCompile("^\\s*```[A-Za-z0-9_+.#-]*[ \\t]*\\r?\\n?")
	closingFence = regexp.MustCompile("\\r?\\n?[ \\t]*```\\s*$")
)

// StripCodeFences removes a Markdown fence (bare or language-tagged) wrapped
// around s. Text without a leading or trailing fence is returned unchanged.
func StripCodeFences(s string) string {
	out := openingFence.ReplaceAllString(s, "")
	return closingFence.ReplaceAllString(out, "")
}

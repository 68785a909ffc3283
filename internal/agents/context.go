package agents

// Artifacts is the code of one page
type Artifacts struct {
	HTML string `json:"html"`
	CSS  string `json:"css"`
	JS   string `json:"js"`
}

// BuildContext is the in-process blackboard passed between steps of one
// run. The project row is a write-only projection of it.
type BuildContext struct {
	ProjectID string
	OwnerID   string
	Idea      string

	Artifacts
	Published bool
}

// mergeNonEmpty takes each field from next unless it is blank
func (a Artifacts) mergeNonEmpty(next Artifacts) Artifacts {
	if !isBlank(next.HTML) {
		a.HTML = next.HTML
	}
	if !isBlank(next.CSS) {
		a.CSS = next.CSS
	}
	if !isBlank(next.JS) {
		a.JS = next.JS
	}
	return a
}

func (a Artifacts) empty() bool {
	return isBlank(a.HTML) && isBlank(a.CSS) && isBlank(a.JS)
}

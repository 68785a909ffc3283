package agents

import (
	"fmt"
	"strings"
	"text/template"
)

// Role selects a prompt template
type Role string

const (
	RoleHTML     Role = "html"
	RoleCSS      Role = "css"
	RoleJS       Role = "js"
	RoleReview   Role = "review"
	RoleContinue Role = "continue"
)

// PromptData is what templates may reference
type PromptData struct {
	Idea    string
	Message string
	Artifacts
}

const noPlaceholders = `CRITICAL - content:
- Write real, detailed and realistic content
- Never use placeholders or dummy examples such as "Example 1", "Site 1", "Article 1" or "Item 1"
- Use real names and realistic information that fit the idea
- If the idea is about websites, name real existing websites; if about products, real products; if about people, real people
- Every heading, paragraph and description must be complete, with no shortcuts`

var promptSources = map[Role]string{
	RoleHTML: `You are an agent specialized in modern, creative HTML. Write clean, well-organized HTML5 for the idea below:

- Use modern HTML5 for an Arabic page (lang="ar" dir="rtl")
- Add meta tags suitable for SEO
- Use semantic HTML (header, main, section, article, footer)
- Add data attributes to interactive elements
- Keep a clear structure that is easy to style and script
- Give important elements descriptive classes

{{.NoPlaceholders}}

Idea: {{.Idea}}

Return only the code, without explanations or comments.`,

	RoleCSS: `You are an agent specialized in creative, modern CSS. Write a professional stylesheet for the HTML below:

- A very modern design with harmonious, attractive colors
- Distinctive linear and radial gradients
- Layered box and text shadows for depth
- Smooth animations and transitions on every interactive element
- Modern features such as backdrop-filter, clip-path and transform
- Distinct hover effects (scale, rotate, color changes)
- @keyframes animations for important elements: fade-in on appear, slide-in from the sides, pulse and bounce for buttons, animated background gradients
- Smooth scrolling and scroll animations
- CSS Grid and Flexbox for layout
- Full RTL and Arabic support
- Fully responsive
- CSS variables for colors and repeated values

Design around the real content of the HTML and pick colors that fit it.

HTML:
{{.HTML}}

Idea: {{.Idea}}

Return only the code, without explanations or comments.`,

	RoleJS: `You are an agent specialized in modern, interactive JavaScript. Write JavaScript for the page below:

- Scroll effects: reveal elements as they enter the viewport and a sticky header
- Form validation with clear, friendly messages
- Smooth navigation between sections and an active link indicator
- A mobile menu toggle
- Counters, sliders or tabs where the markup suggests them
- Modern ES6+ syntax, no external libraries, run after DOMContentLoaded

{{.NoPlaceholders}}

HTML:
{{.HTML}}

CSS:
{{.CSS}}

Idea: {{.Idea}}

Return only the code, without explanations or comments.`,

	RoleReview: `You are a senior reviewer of web projects. Review and improve the code below and return a corrected version.

Checklist:
1. Every section has entrance animations and interactive elements have hover and focus states
2. Accessibility: alt text, aria labels, sufficient contrast, keyboard navigation
3. RTL correctness for Arabic content in markup and styles
4. Responsive layout on mobile, tablet and desktop
5. No leftover placeholders, dummy text or broken references between HTML, CSS and JS

{{.NoPlaceholders}}

HTML:
{{.HTML}}

CSS:
{{.CSS}}

JavaScript:
{{.JS}}

Idea: {{.Idea}}

Return a single JSON object only, without markdown or explanations:
{"html": "full improved HTML", "css": "full improved CSS", "js": "full improved JavaScript"}`,

	RoleContinue: `You are an AI agent that modifies websites based on user requests.

Current project code:
HTML:
` + "```html" + `
{{.HTML}}
` + "```" + `

CSS:
` + "```css" + `
{{.CSS}}
` + "```" + `

JavaScript:
` + "```javascript" + `
{{.JS}}
` + "```" + `

User request: {{.Message}}

Your task:
1. Understand the request precisely
2. Change the HTML, CSS or JavaScript as needed
3. Keep the existing code and only add or change what was asked
4. Make sure the changes work and fit the rest of the code
5. Use modern techniques and best practices
6. Add tasteful effects and animation where appropriate
7. Keep Arabic (RTL) support in every change

{{.NoPlaceholders}}

Return the modified code as JSON only, without explanations:
{"html": "full modified HTML", "css": "full modified CSS", "js": "full modified JavaScript", "message": "a short note describing what changed"}`,
}

// continueSystemPrompt is sent as the system turn for continuation requests
const continueSystemPrompt = "You are an AI agent that modifies websites based on user requests. Return only JSON as instructed, without any explanation or comments."

var promptRegistry = buildRegistry()

func buildRegistry() map[Role]*template.Template {
	reg := make(map[Role]*template.Template, len(promptSources))
	for role, src := range promptSources {
		reg[role] = template.Must(template.New(string(role)).Option("missingkey=error").Parse(src))
	}
	return reg
}

// RenderPrompt fills the template registered for role
func RenderPrompt(role Role, data PromptData) (string, error) {
	tmpl, ok := promptRegistry[role]
	if !ok {
		return "", fmt.Errorf("no prompt template for role %q", role)
	}
	var b strings.Builder
	err := tmpl.Execute(&b, struct {
		PromptData
		NoPlaceholders string
	}{data, noPlaceholders})
	if err != nil {
		return "", fmt.Errorf("render %s prompt: %w", role, err)
	}
	return b.String(), nil
}

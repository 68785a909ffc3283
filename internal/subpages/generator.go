package subpages

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"codeplay/internal/ai"
	"codeplay/internal/logging"
	"codeplay/internal/metrics"
	"codeplay/pkg/models"

	"go.uber.org/zap"
)

// Defaults for Options fields left at zero
const (
	DefaultMinChars     = 800
	DefaultMaxTokens    = 16000
	DefaultContextChars = 1500
	defaultTemperature  = 0.7
)

// Store is the persistence the materializer needs
type Store interface {
	SubpageRoutes(ctx context.Context, parentID string) ([]string, error)
	InsertMany(ctx context.Context, rows []*models.Project) error
}

// Options tunes planning and the quality gate
type Options struct {
	FallbackRoutes []string
	MinChars       int
	MaxTokens      int
	ContextChars   int
	Now            func() time.Time
}

// Parent is the reviewed main page the subpages derive from
type Parent struct {
	ProjectID string
	OwnerID   string
	Idea      string
	HTML      string
	CSS       string
	JS        string
}

// Page is one planned subpage
type Page struct {
	Route     string
	Name      string
	Kind      PageKind
	Generated bool
}

// Materializer plans, generates and stores subpages for a parent project
type Materializer struct {
	store Store
	llm   ai.Completer
	opts  Options
	log   *zap.Logger
}

// NewMaterializer builds a Materializer. llm may be nil, in which case
// every page gets the placeholder template.
func NewMaterializer(store Store, llm ai.Completer, opts Options) *Materializer {
	if opts.MinChars <= 0 {
		opts.MinChars = DefaultMinChars
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.ContextChars <= 0 {
		opts.ContextChars = DefaultContextChars
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Materializer{
		store: store,
		llm:   llm,
		opts:  opts,
		log:   logging.L().With(zap.String("component", "subpages")),
	}
}

// Plan returns the routes still to be created for parent
func (m *Materializer) Plan(ctx context.Context, parent Parent) ([]Page, bool, error) {
	existing, err := m.store.SubpageRoutes(ctx, parent.ProjectID)
	if err != nil {
		return nil, false, fmt.Errorf("load existing subpages: %w", err)
	}
	routes, usedFallback := Plan(DiscoverLinks(parent.HTML), m.opts.FallbackRoutes, existing)

	pages := make([]Page, 0, len(routes))
	for _, r := range routes {
		pages = append(pages, Page{Route: r, Name: PageName(r), Kind: Classify(r)})
	}
	return pages, usedFallback, nil
}

// Build generates markup for every page, one at a time, and returns the
// rows ready for insertion. A page that fails generation or the quality
// gate gets the placeholder template and Generated stays false.
func (m *Materializer) Build(ctx context.Context, parent Parent, pages []Page) ([]*models.Project, error) {
	rows := make([]*models.Project, 0, len(pages))
	for i := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := &pages[i]

		html, ok := m.generate(ctx, parent, *p)
		if ok {
			p.Generated = true
			metrics.Get().SubpagesCreated.WithLabelValues(p.Kind.String(), "generated").Inc()
		} else {
			placeholder, err := m.placeholder(parent.Idea, p.Name)
			if err != nil {
				return nil, err
			}
			html = placeholder
			metrics.Get().SubpagesCreated.WithLabelValues(p.Kind.String(), "placeholder").Inc()
		}
		rows = append(rows, newRow(parent, *p, html))
	}
	return rows, nil
}

// Insert stores rows in one batch
func (m *Materializer) Insert(ctx context.Context, rows []*models.Project) error {
	if err := m.store.InsertMany(ctx, rows); err != nil {
		return fmt.Errorf("insert subpages: %w", err)
	}
	return nil
}

func (m *Materializer) generate(ctx context.Context, parent Parent, page Page) (string, bool) {
	if m.llm == nil {
		return "", false
	}
	out, err := m.llm.Complete(ctx, ai.CompletionRequest{
		Prompt:          m.prompt(parent, page),
		Temperature:     defaultTemperature,
		MaxOutputTokens: m.opts.MaxTokens,
	})
	if err != nil {
		m.log.Warn("subpage generation failed, using placeholder",
			zap.String("route", page.Route), zap.Error(err))
		return "", false
	}
	out = strings.TrimSpace(ai.StripCodeFences(out))
	if !m.acceptable(out) {
		m.log.Warn("subpage output rejected, using placeholder",
			zap.String("route", page.Route), zap.Int("chars", len(out)))
		return "", false
	}
	return out, true
}

// acceptable is the quality gate for generated pages
func (m *Materializer) acceptable(out string) bool {
	if len(out) < m.opts.MinChars {
		return false
	}
	lower := strings.ToLower(out)
	return strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html")
}

func (m *Materializer) prompt(parent Parent, page Page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a complete, standalone HTML page for the project: %s\n\n", parent.Idea)
	fmt.Fprintf(&b, "Page name: %s\nPage route: %s\n\n", page.Name, page.Route)
	fmt.Fprintf(&b, "Main page context (for consistent branding):\n%s\n\n", truncateRunes(parent.HTML, m.opts.ContextChars))
	fmt.Fprintf(&b, "Content requirements (at least %d words):\n%s\n\n", page.Kind.MinWords(), page.Kind.Requirements(page.Name))
	b.WriteString(`Technical requirements:
- Start with <!DOCTYPE html> and <html lang="ar" dir="rtl">
- meta charset UTF-8, viewport, a description of 120 to 160 characters, 15 to 20 keywords and author
- Open Graph tags (og:title, og:description, og:type)
- Semantic HTML5: header, nav, main, article, section, aside, footer
- A navigation bar linking to the home page, about and contact
- A breadcrumb trail
- A complete footer
- Basic inline CSS so the page renders on its own

Return the HTML only, without markdown code fences.`)
	return b.String()
}

var placeholderTmpl = template.Must(template.New("placeholder").Parse(`<!DOCTYPE html>
<html lang="ar" dir="rtl">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <meta name="description" content="{{.Page}} - {{.Idea}}">
  <title>{{.Page}} - {{.Idea}}</title>
</head>
<body>
  <nav><a href="/">الرئيسية</a></nav>
  <main>
    <h1>{{.Page}}</h1>
    <p>مرحباً بك في صفحة {{.Page}}.</p>
    <p>هذه الصفحة جزء من مشروع {{.Idea}}.</p>
    <section>
      <h2>محتوى الصفحة</h2>
      <p>يمكنك تخصيص محتوى هذه الصفحة من خلال المحرر.</p>
    </section>
  </main>
  <footer><p>&copy; {{.Year}} {{.Idea}}</p></footer>
</body>
</html>
`))

func (m *Materializer) placeholder(idea, pageName string) (string, error) {
	var buf bytes.Buffer
	err := placeholderTmpl.Execute(&buf, struct {
		Page, Idea string
		Year       int
	}{pageName, idea, m.opts.Now().Year()})
	if err != nil {
		return "", fmt.Errorf("render placeholder: %w", err)
	}
	return buf.String(), nil
}

func newRow(parent Parent, page Page, html string) *models.Project {
	route := page.Route
	parentID := parent.ProjectID
	return &models.Project{
		UserID:          parent.OwnerID,
		ProjectName:     parent.Idea + " - " + page.Name,
		HTMLCode:        html,
		CSSCode:         parent.CSS,
		JSCode:          parent.JS,
		ParentProjectID: &parentID,
		SubpageRoute:    &route,
		IsSubpage:       true,
		IsPublished:     true,
		ShowInCommunity: false,
	}
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

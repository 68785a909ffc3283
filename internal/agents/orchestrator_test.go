package agents

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"codeplay/internal/ai"
	"codeplay/internal/store"
	"codeplay/internal/subpages"
	"codeplay/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	stubHTML = `<!DOCTYPE html><html lang="ar" dir="rtl"><body><h1>Crumbs</h1></body></html>`
	stubCSS  = `body { direction: rtl; }`
	stubJS   = `document.addEventListener("DOMContentLoaded", () => {});`
)

var reviewJSON = `{"html": "<!DOCTYPE html><html lang=\"ar\" dir=\"rtl\"><body><h1>Crumbs</h1></body></html>", "css": "body { direction: rtl; }", "js": "document.addEventListener(\"DOMContentLoaded\", () => {});"}`

func happyProvider() *scriptedProvider {
	return newScriptedProvider().
		on(RoleHTML, reply{text: fenced("html", stubHTML)}).
		on(RoleCSS, reply{text: fenced("css", stubCSS)}).
		on(RoleJS, reply{text: fenced("javascript", stubJS)}).
		on(RoleReview, reply{text: fenced("json", reviewJSON)})
}

type fixture struct {
	projects *memProjects
	primary  *scriptedProvider
	creds    *poolCreds
	hub      *Hub
	orch     *Orchestrator
}

func newFixture(primary *scriptedProvider, fallback ai.Completer, pages SubpageMaterializer) *fixture {
	f := &fixture{
		projects: newMemProjects(&models.Project{ID: "p1", UserID: "owner", ProjectName: "bakery"}),
		primary:  primary,
		creds:    &poolCreds{size: 3},
		hub:      NewHub(),
	}
	gen := ai.NewGenerator(primary, f.creds, fallback, noSleep())
	f.orch = NewOrchestrator(f.projects, gen, pages, f.hub)
	return f
}

func (f *fixture) run(t *testing.T) (*BuildResult, error) {
	t.Helper()
	return f.orch.Run(context.Background(), BuildRequest{ProjectID: "p1", Idea: "a bakery landing page", OwnerID: "owner"})
}

func (f *fixture) committed() (statuses []models.BuildStatus, progress []int) {
	for _, u := range f.projects.updates {
		if s, ok := u["ai_agents_status"]; ok {
			statuses = append(statuses, s.(models.BuildStatus))
			progress = append(progress, u["ai_agents_progress"].(int))
		}
	}
	return statuses, progress
}

func TestRunCompletesBakeryPage(t *testing.T) {
	f := newFixture(happyProvider(), nil, nil)

	res, err := f.run(t)
	require.NoError(t, err)

	p, err := f.projects.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, p.AIAgentsStatus)
	assert.Equal(t, 100, p.AIAgentsProgress)
	assert.True(t, p.IsPublished)
	assert.Equal(t, stubHTML, p.HTMLCode)
	assert.Equal(t, stubCSS, p.CSSCode)
	assert.Equal(t, stubJS, p.JSCode)
	assert.Equal(t, "a bakery landing page", p.AIAgentsIdea)
	assert.Equal(t, Artifacts{HTML: stubHTML, CSS: stubCSS, JS: stubJS}, res.Artifacts)

	statuses, progress := f.committed()
	assert.Equal(t, []models.BuildStatus{
		models.StatusHTML, models.StatusCSS, models.StatusJS,
		models.StatusReview, models.StatusPublish, models.StatusCompleted,
	}, statuses)
	assert.Equal(t, []int{10, 35, 60, 80, 95, 100}, progress)
	assert.Len(t, res.Transitions, 6)
}

func TestArtifactsCommittedWithNextStatus(t *testing.T) {
	f := newFixture(happyProvider(), nil, nil)
	_, err := f.run(t)
	require.NoError(t, err)

	u := f.projects.updates
	require.Len(t, u, 6)
	assert.Equal(t, stubHTML, u[1]["html_code"])
	assert.Equal(t, models.StatusCSS, u[1]["ai_agents_status"])
	assert.Equal(t, stubCSS, u[2]["css_code"])
	assert.Equal(t, stubJS, u[3]["js_code"])
	assert.Contains(t, u[4], "html_code")
	assert.Equal(t, true, u[5]["is_published"])
	for _, fields := range u {
		assert.NotEqual(t, models.StatusFailed, fields["ai_agents_status"])
	}
}

func TestRunRotatesOnceOnQuota(t *testing.T) {
	primary := happyProvider().on(RoleHTML,
		reply{status: http.StatusTooManyRequests},
		reply{text: fenced("html", "<html>second</html>")},
	)
	f := newFixture(primary, nil, nil)

	res, err := f.run(t)
	require.NoError(t, err)

	assert.Equal(t, 1, f.projects.countMessages("p1", "switched to API key"))
	assert.Equal(t, 1, f.projects.countMessages("p1", "API key #2"))
	assert.Equal(t, []string{"key1", "key2"}, f.primary.keys[:2])
	assert.Equal(t, "key2", f.primary.keys[len(f.primary.keys)-1], "later steps keep the rotated key")

	// review echoes the stub HTML, so check the HTML step's own commit
	assert.Equal(t, "<html>second</html>", f.projects.updates[1]["html_code"])
	assert.NotEmpty(t, res.Artifacts.HTML)
}

func TestReviewPassThroughOnInvalidJSON(t *testing.T) {
	primary := happyProvider().on(RoleReview, reply{text: "Looks great, nothing to change!"})
	f := newFixture(primary, nil, nil)

	res, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, Artifacts{HTML: stubHTML, CSS: stubCSS, JS: stubJS}, res.Artifacts)
	assert.Equal(t, 1, f.projects.countMessages("p1", msgReviewSkipped))
	assert.Zero(t, f.projects.countMessages("p1", msgReviewDone))

	p, _ := f.projects.Get(context.Background(), "p1")
	assert.Equal(t, models.StatusCompleted, p.AIAgentsStatus)
}

func TestReviewKeepsFieldsTheModelLeftEmpty(t *testing.T) {
	primary := happyProvider().on(RoleReview, reply{text: `{"html": "", "css": "body{color:red}"}`})
	f := newFixture(primary, nil, nil)

	res, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, stubHTML, res.Artifacts.HTML)
	assert.Equal(t, "body{color:red}", res.Artifacts.CSS)
	assert.Equal(t, stubJS, res.Artifacts.JS)
}

func TestReviewRetriesThenPassesThrough(t *testing.T) {
	primary := happyProvider().on(RoleReview, reply{status: http.StatusTooManyRequests})
	f := newFixture(primary, nil, nil)

	res, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, stubCSS, res.Artifacts.CSS)
	assert.Equal(t, 3, f.primary.calls[RoleReview])
	assert.Equal(t, 2, f.projects.countMessages("p1", "switched to API key"))
	assert.Equal(t, 2, f.projects.countMessages("p1", "Retrying the review"))
}

func TestStepFailureLeavesPartialBuild(t *testing.T) {
	primary := happyProvider().on(RoleCSS, reply{status: http.StatusInternalServerError})
	f := newFixture(primary, nil, nil)

	res, err := f.run(t)
	require.Error(t, err)
	assert.Nil(t, res)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, models.StatusCSS, stepErr.Status)
	assert.Equal(t, AgentCSS, stepErr.Agent)

	p, _ := f.projects.Get(context.Background(), "p1")
	assert.Equal(t, models.StatusCSS, p.AIAgentsStatus)
	assert.Equal(t, 35, p.AIAgentsProgress)
	assert.Equal(t, stubHTML, p.HTMLCode)
	assert.False(t, p.IsPublished)
	assert.Equal(t, 1, f.projects.countMessages("p1", "Build stopped"))
}

func TestFallbackProviderRescuesStep(t *testing.T) {
	primary := happyProvider().on(RoleJS, reply{status: http.StatusInternalServerError})
	fallback := newScriptedProvider().on(RoleJS, reply{text: "console.log('fallback')"})
	f := newFixture(primary, fallback, nil)

	_, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, "console.log('fallback')", f.projects.updates[3]["js_code"])
	assert.Equal(t, 1, f.projects.countMessages("p1", msgFallbackUsed))
}

func TestCommitFailureIsFatal(t *testing.T) {
	f := newFixture(happyProvider(), nil, nil)
	f.projects.updateErr = func(fields store.Fields) error {
		if fields["ai_agents_status"] == models.StatusJS {
			return errors.New("db down")
		}
		return nil
	}

	_, err := f.run(t)
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, models.StatusCSS, stepErr.Status)
	assert.ErrorContains(t, err, "db down")
}

func TestRunRejectsOtherOwnerAndEmptyIdea(t *testing.T) {
	f := newFixture(happyProvider(), nil, nil)

	_, err := f.orch.Run(context.Background(), BuildRequest{ProjectID: "p1", Idea: "x", OwnerID: "intruder"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.orch.Run(context.Background(), BuildRequest{ProjectID: "p1", Idea: "  ", OwnerID: "owner"})
	assert.ErrorIs(t, err, ErrEmptyIdea)

	_, err = f.orch.Run(context.Background(), BuildRequest{ProjectID: "nope", Idea: "x", OwnerID: "owner"})
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Empty(t, f.projects.updates)
}

type fakePages struct {
	planned   []subpages.Page
	insertErr error
	panics    bool
	inserted  []*models.Project
}

func (p *fakePages) Plan(context.Context, subpages.Parent) ([]subpages.Page, bool, error) {
	if p.panics {
		panic("boom")
	}
	return p.planned, false, nil
}

func (p *fakePages) Build(_ context.Context, parent subpages.Parent, pages []subpages.Page) ([]*models.Project, error) {
	rows := make([]*models.Project, len(pages))
	for i, pg := range pages {
		route := pg.Route
		rows[i] = &models.Project{UserID: parent.OwnerID, SubpageRoute: &route, IsSubpage: true}
	}
	return rows, nil
}

func (p *fakePages) Insert(_ context.Context, rows []*models.Project) error {
	if p.insertErr != nil {
		return p.insertErr
	}
	p.inserted = append(p.inserted, rows...)
	return nil
}

func TestSubpagesCreatedAfterPublish(t *testing.T) {
	pages := &fakePages{planned: []subpages.Page{{Route: "/about"}, {Route: "/faq"}}}
	f := newFixture(happyProvider(), nil, pages)

	res, err := f.run(t)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Subpages)
	assert.NoError(t, res.SubpageErr)
	assert.Len(t, pages.inserted, 2)
	assert.Equal(t, 1, f.projects.countMessages("p1", "Creating 2 subpages"))
	assert.Equal(t, 1, f.projects.countMessages("p1", "Created 2 subpages"))
}

func TestSubpageFailureKeepsPublication(t *testing.T) {
	for name, pages := range map[string]*fakePages{
		"insert error": {planned: []subpages.Page{{Route: "/about"}}, insertErr: errors.New("duplicate route")},
		"panic":        {panics: true},
	} {
		pages := pages
		t.Run(name, func(t *testing.T) {
			f := newFixture(happyProvider(), nil, pages)
			res, err := f.run(t)
			require.NoError(t, err)
			assert.Error(t, res.SubpageErr)
			assert.Zero(t, res.Subpages)

			p, _ := f.projects.Get(context.Background(), "p1")
			assert.True(t, p.IsPublished)
			assert.Equal(t, models.StatusCompleted, p.AIAgentsStatus)
			assert.Equal(t, 1, f.projects.countMessages("p1", "Couldn't create subpages"))
		})
	}
}

func TestNoSubpagesMessages(t *testing.T) {
	f := newFixture(happyProvider(), nil, &fakePages{})
	_, err := f.run(t)
	require.NoError(t, err)
	// the stub page has no links
	assert.Equal(t, 1, f.projects.countMessages("p1", msgNoLinks))
}

func TestHubReceivesProgress(t *testing.T) {
	f := newFixture(happyProvider(), nil, nil)
	events, cancel := f.hub.Subscribe("p1", 256)
	defer cancel()

	_, err := f.run(t)
	require.NoError(t, err)

	var last ProgressEvent
	maxProgress := 0
	for len(events) > 0 {
		ev := <-events
		assert.GreaterOrEqual(t, ev.Progress, maxProgress)
		maxProgress = ev.Progress
		last = ev
	}
	assert.True(t, last.Done)
	assert.Equal(t, models.StatusCompleted, last.Status)
	assert.Equal(t, 100, last.Progress)
	assert.True(t, last.IsPublished)
	assert.False(t, f.hub.Active("p1"))
}

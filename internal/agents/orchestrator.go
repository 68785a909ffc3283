package agents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codeplay/internal/ai"
	"codeplay/internal/logging"
	"codeplay/internal/metrics"
	"codeplay/internal/store"
	"codeplay/internal/subpages"
	"codeplay/pkg/models"

	"go.uber.org/zap"
)

var (
	ErrEmptyIdea = errors.New("idea is required")
	ErrForbidden = errors.New("project belongs to another user")
)

// ProjectStore is the persistence the pipeline writes through
type ProjectStore interface {
	Get(ctx context.Context, id string) (*models.Project, error)
	Update(ctx context.Context, id string, fields store.Fields) error
	AppendMessage(ctx context.Context, id string, msg models.AgentMessage) error
}

// SubpageMaterializer generates and stores subpages after publication
type SubpageMaterializer interface {
	Plan(ctx context.Context, parent subpages.Parent) ([]subpages.Page, bool, error)
	Build(ctx context.Context, parent subpages.Parent, pages []subpages.Page) ([]*models.Project, error)
	Insert(ctx context.Context, rows []*models.Project) error
}

// BuildRequest starts a run over an existing project
type BuildRequest struct {
	ProjectID string
	Idea      string
	OwnerID   string
}

// BuildResult is the outcome of a run whose primary stage succeeded.
// SubpageErr reports a failed secondary stage; the project stays published.
type BuildResult struct {
	ProjectID   string
	Artifacts   Artifacts
	Subpages    int
	SubpageErr  error
	Transitions []Transition
}

// StepError is returned when a step exhausts its recovery options. Status
// is the state the run stopped in, which is also what stays persisted.
type StepError struct {
	Status models.BuildStatus
	Agent  string
	Err    error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Agent, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Orchestrator sequences the agent steps of a build run
type Orchestrator struct {
	projects ProjectStore
	gen      *ai.Generator
	pages    SubpageMaterializer
	hub      *Hub
	now      func() time.Time
	log      *zap.Logger
}

// NewOrchestrator wires the pipeline. pages and hub may be nil.
func NewOrchestrator(projects ProjectStore, gen *ai.Generator, pages SubpageMaterializer, hub *Hub) *Orchestrator {
	return &Orchestrator{
		projects: projects,
		gen:      gen,
		pages:    pages,
		hub:      hub,
		now:      time.Now,
		log:      logging.L().With(zap.String("component", "orchestrator")),
	}
}

// Run executes the full pipeline for req. It returns once the project is
// published and subpage generation has been attempted, or with a
// *StepError when a step fails. Committed progress is never rolled back.
func (o *Orchestrator) Run(ctx context.Context, req BuildRequest) (*BuildResult, error) {
	if isBlank(req.Idea) {
		return nil, ErrEmptyIdea
	}
	p, err := o.projects.Get(ctx, req.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("load project %s: %w", req.ProjectID, err)
	}
	if p.UserID != req.OwnerID {
		return nil, ErrForbidden
	}

	defer o.hub.Begin(p.ID)()

	m := metrics.Get()
	m.BuildsInFlight.Inc()
	defer m.BuildsInFlight.Dec()

	r := o.newRun(ctx, &BuildContext{
		ProjectID: p.ID,
		OwnerID:   p.UserID,
		Idea:      req.Idea,
	})
	r.log.Info("build started")

	if err := r.runPrimary(); err != nil {
		m.BuildRunsTotal.WithLabelValues("failed").Inc()
		r.log.Error("build failed", zap.Error(err))
		return nil, err
	}

	res := &BuildResult{
		ProjectID:   p.ID,
		Artifacts:   r.bc.Artifacts,
		Transitions: r.fsm.History(),
	}
	res.Subpages, res.SubpageErr = r.runSecondary()
	r.publish(ProgressEvent{Done: true})

	m.BuildRunsTotal.WithLabelValues("completed").Inc()
	r.log.Info("build completed", zap.Int("subpages", res.Subpages))
	return res, nil
}

// run is the state of one pipeline invocation
type run struct {
	o     *Orchestrator
	ctx   context.Context
	bc    *BuildContext
	fsm   *BuildFSM
	sess  *ai.Session
	agent string
	log   *zap.Logger
}

func (o *Orchestrator) newRun(ctx context.Context, bc *BuildContext) *run {
	r := &run{
		o:   o,
		ctx: ctx,
		bc:  bc,
		fsm: NewBuildFSM(bc.ProjectID),
		log: logging.ForProject(bc.ProjectID, "orchestrator"),
	}
	r.sess = o.gen.NewSession(r.observe)
	return r
}

func (r *run) runPrimary() error {
	if err := r.advance(EventStart, store.Fields{"ai_agents_idea": r.bc.Idea}); err != nil {
		return &StepError{Status: models.StatusNone, Agent: AgentHTML, Err: err}
	}

	for _, st := range pipeline {
		r.agent = st.agent
		r.say(st.start)

		started := r.o.now()
		out, err := st.run(r.ctx, r)
		metrics.Get().RecordStep(string(st.status), err == nil, r.o.now().Sub(started))
		if err != nil {
			return r.fail(st, err)
		}
		if err := r.advance(EventStepDone, out.fields); err != nil {
			return r.fail(st, err)
		}

		done := st.done
		if out.done != "" {
			done = out.done
		}
		r.say(done)
	}
	return nil
}

// advance commits fields together with the status and progress of the
// state event leads to, then moves the machine. Nothing moves when the
// write fails.
func (r *run) advance(event BuildEvent, fields store.Fields) error {
	next, err := r.fsm.Next(event)
	if err != nil {
		return err
	}
	if fields == nil {
		fields = store.Fields{}
	}
	fields["ai_agents_status"] = next
	fields["ai_agents_progress"] = stageProgress[next]

	if err := r.o.projects.Update(r.ctx, r.bc.ProjectID, fields); err != nil {
		return fmt.Errorf("commit %s: %w", next, err)
	}
	t, err := r.fsm.Fire(event, "")
	if err != nil {
		return err
	}
	r.log.Debug("state committed", zap.String("status", string(t.To)), zap.Int("progress", t.Progress))
	r.publish(ProgressEvent{})
	return nil
}

func (r *run) fail(st step, err error) error {
	if _, ferr := r.fsm.Fire(EventFail, err.Error()); ferr != nil {
		r.log.Warn("could not record failure transition", zap.Error(ferr))
	}
	r.say(msgFailed(err))
	r.publish(ProgressEvent{Done: true, Error: err.Error()})
	return &StepError{Status: st.status, Agent: st.agent, Err: err}
}

// say appends a build log entry. Log writes never fail the run.
func (r *run) say(text string) {
	msg := models.AgentMessage{Agent: r.agent, Message: text, Timestamp: r.o.now().UTC()}
	if err := r.o.projects.AppendMessage(r.ctx, r.bc.ProjectID, msg); err != nil {
		r.log.Warn("failed to append agent message", zap.String("agent", r.agent), zap.Error(err))
	}
	r.publish(ProgressEvent{Message: &msg})
}

func (r *run) publish(ev ProgressEvent) {
	ev.ProjectID = r.bc.ProjectID
	ev.Status = r.fsm.State()
	if ev.Status == models.StatusFailed {
		ev.Status = r.lastCommitted()
	}
	ev.Progress = r.fsm.Progress()
	ev.IsPublished = r.bc.Published
	r.o.hub.Publish(ev)
}

// lastCommitted is the status a failed run left persisted
func (r *run) lastCommitted() models.BuildStatus {
	h := r.fsm.History()
	for i := len(h) - 1; i >= 0; i-- {
		if h[i].To != models.StatusFailed {
			return h[i].To
		}
	}
	return models.StatusNone
}

// observe turns generator events into build log entries
func (r *run) observe(ev ai.Event) {
	switch ev.Kind {
	case ai.EventRotated:
		r.say(msgRotated(ev.CredentialIndex))
	case ai.EventFallback:
		r.say(msgFallbackUsed)
	case ai.EventRetry:
		if r.agent == AgentReview {
			r.say(msgReviewRetry(ev.Attempt, ai.ReviewRetry.MaxAttempts))
		}
	}
	r.log.Info("generation event",
		zap.String("agent", r.agent),
		zap.String("kind", string(ev.Kind)),
		zap.Int("attempt", ev.Attempt),
		zap.Int("credential_index", ev.CredentialIndex))
}

// runSecondary generates subpages. Its failures, panics included, are
// reported and returned but never undo the publication.
func (r *run) runSecondary() (created int, err error) {
	r.agent = AgentSubpages
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("subpage stage panicked: %v", rec)
		}
		if err != nil {
			r.log.Warn("subpage stage failed", zap.Error(err))
			r.say(msgSubpagesFailed(err))
		}
	}()

	if r.o.pages == nil {
		return 0, nil
	}
	parent := subpages.Parent{
		ProjectID: r.bc.ProjectID,
		OwnerID:   r.bc.OwnerID,
		Idea:      r.bc.Idea,
		HTML:      r.bc.HTML,
		CSS:       r.bc.CSS,
		JS:        r.bc.JS,
	}

	pages, usedFallback, err := r.o.pages.Plan(r.ctx, parent)
	if err != nil {
		return 0, err
	}
	if len(pages) == 0 {
		if !usedFallback && len(subpages.DiscoverLinks(r.bc.HTML)) == 0 {
			r.say(msgNoLinks)
		} else {
			r.say(msgSubpagesExist)
		}
		return 0, nil
	}

	r.say(msgSubpagesCreating(len(pages)))
	rows, err := r.o.pages.Build(r.ctx, parent, pages)
	if err != nil {
		return 0, err
	}
	if err := r.o.pages.Insert(r.ctx, rows); err != nil {
		return 0, err
	}
	r.say(msgSubpagesCreated(len(rows)))
	return len(rows), nil
}

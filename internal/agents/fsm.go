// Package agents runs the multi-agent build pipeline: HTML, CSS, JS, review
// and publish steps over one project, followed by subpage generation.
package agents

import (
	"fmt"
	"sync"
	"time"

	"codeplay/pkg/models"

	"github.com/google/uuid"
)

// BuildEvent triggers a state transition
type BuildEvent string

const (
	EventStart    BuildEvent = "start"
	EventStepDone BuildEvent = "step_done"
	EventFail     BuildEvent = "fail"
)

type transition struct {
	From  models.BuildStatus
	Event BuildEvent
	To    models.BuildStatus
}

// buildTransitions is strictly forward. fail is accepted from every step.
var buildTransitions = []transition{
	{models.StatusNone, EventStart, models.StatusHTML},
	{models.StatusHTML, EventStepDone, models.StatusCSS},
	{models.StatusCSS, EventStepDone, models.StatusJS},
	{models.StatusJS, EventStepDone, models.StatusReview},
	{models.StatusReview, EventStepDone, models.StatusPublish},
	{models.StatusPublish, EventStepDone, models.StatusCompleted},

	{models.StatusHTML, EventFail, models.StatusFailed},
	{models.StatusCSS, EventFail, models.StatusFailed},
	{models.StatusJS, EventFail, models.StatusFailed},
	{models.StatusReview, EventFail, models.StatusFailed},
	{models.StatusPublish, EventFail, models.StatusFailed},
}

// stageProgress is the percentage persisted on entering each state
var stageProgress = map[models.BuildStatus]int{
	models.StatusHTML:      10,
	models.StatusCSS:       35,
	models.StatusJS:        60,
	models.StatusReview:    80,
	models.StatusPublish:   95,
	models.StatusCompleted: 100,
}

// Transition records one state change
type Transition struct {
	ID         string             `json:"id"`
	ProjectID  string             `json:"project_id"`
	From       models.BuildStatus `json:"from"`
	To         models.BuildStatus `json:"to"`
	Event      BuildEvent         `json:"event"`
	Progress   int                `json:"progress"`
	Timestamp  time.Time          `json:"timestamp"`
	DurationMs int64              `json:"duration_ms"`
	Error      string             `json:"error,omitempty"`
}

// BuildFSM tracks one run's position in the pipeline. The failed state
// lives only here; the persisted status keeps the step the run stopped in.
type BuildFSM struct {
	mu sync.RWMutex

	projectID   string
	state       models.BuildStatus
	progress    int
	lastTransAt time.Time
	errorMsg    string
	history     []Transition
	now         func() time.Time
}

func NewBuildFSM(projectID string) *BuildFSM {
	return &BuildFSM{
		projectID:   projectID,
		state:       models.StatusNone,
		lastTransAt: time.Now(),
		history:     make([]Transition, 0, 8),
		now:         time.Now,
	}
}

func (f *BuildFSM) State() models.BuildStatus {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state
}

// Progress is the percentage of the last non-failed state
func (f *BuildFSM) Progress() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.progress
}

func (f *BuildFSM) IsTerminal() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state == models.StatusCompleted || f.state == models.StatusFailed
}

// Fire applies event. errMsg is recorded on fail transitions.
func (f *BuildFSM) Fire(event BuildEvent, errMsg string) (Transition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	from := f.state
	to, err := lookup(from, event)
	if err != nil {
		return Transition{}, err
	}

	now := f.now()
	if event == EventFail {
		f.errorMsg = errMsg
	} else {
		f.progress = stageProgress[to]
	}

	record := Transition{
		ID:         uuid.New().String(),
		ProjectID:  f.projectID,
		From:       from,
		To:         to,
		Event:      event,
		Progress:   f.progress,
		Timestamp:  now,
		DurationMs: now.Sub(f.lastTransAt).Milliseconds(),
		Error:      f.errorMsg,
	}
	f.state = to
	f.lastTransAt = now
	f.history = append(f.history, record)
	return record, nil
}

// Next reports the state event would lead to without applying it
func (f *BuildFSM) Next(event BuildEvent) (models.BuildStatus, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return lookup(f.state, event)
}

func lookup(from models.BuildStatus, event BuildEvent) (models.BuildStatus, error) {
	for _, t := range buildTransitions {
		if t.From == from && t.Event == event {
			return t.To, nil
		}
	}
	return "", fmt.Errorf("invalid transition: state=%q event=%s", from, event)
}

// History returns a copy of all transitions so far
func (f *BuildFSM) History() []Transition {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Transition, len(f.history))
	copy(out, f.history)
	return out
}

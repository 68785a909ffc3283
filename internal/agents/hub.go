package agents

import (
	"sync"

	"codeplay/pkg/models"
)

// ProgressEvent is pushed to live subscribers of a project build
type ProgressEvent struct {
	ProjectID   string               `json:"project_id"`
	Status      models.BuildStatus   `json:"status"`
	Progress    int                  `json:"progress"`
	IsPublished bool                 `json:"is_published"`
	Message     *models.AgentMessage `json:"message,omitempty"`
	Done        bool                 `json:"done"`
	Error       string               `json:"error,omitempty"`
}

// Hub fans build progress out to subscribers keyed by project id.
// Slow subscribers miss events rather than stall the build.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]map[chan ProgressEvent]struct{}
	active map[string]int
}

func NewHub() *Hub {
	return &Hub{
		subs:   make(map[string]map[chan ProgressEvent]struct{}),
		active: make(map[string]int),
	}
}

// Begin marks a run of projectID as live until the returned func is called.
// Calls nest, so the handler and the pipeline may both hold the mark.
func (h *Hub) Begin(projectID string) func() {
	if h == nil {
		return func() {}
	}
	h.mu.Lock()
	h.active[projectID]++
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			if h.active[projectID]--; h.active[projectID] <= 0 {
				delete(h.active, projectID)
			}
			h.mu.Unlock()
		})
	}
}

// Active reports whether a run of projectID is in flight
func (h *Hub) Active(projectID string) bool {
	if h == nil {
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.active[projectID] > 0
}

// Subscribe returns a channel of events for projectID and a cancel func
// that must be called once the subscriber is done.
func (h *Hub) Subscribe(projectID string, buffer int) (<-chan ProgressEvent, func()) {
	if buffer <= 0 {
		buffer = 32
	}
	ch := make(chan ProgressEvent, buffer)

	h.mu.Lock()
	if h.subs[projectID] == nil {
		h.subs[projectID] = make(map[chan ProgressEvent]struct{})
	}
	h.subs[projectID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[projectID], ch)
			if len(h.subs[projectID]) == 0 {
				delete(h.subs, projectID)
			}
			h.mu.Unlock()
			close(ch)
		})
	}
}

// Publish delivers ev without blocking. A nil Hub discards it.
func (h *Hub) Publish(ev ProgressEvent) {
	if h == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[ev.ProjectID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribers counts live subscribers of projectID
func (h *Hub) Subscribers(projectID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[projectID])
}

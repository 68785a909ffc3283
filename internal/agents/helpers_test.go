package agents

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"codeplay/internal/ai"
	"codeplay/internal/keyrotation"
	"codeplay/internal/store"
	"codeplay/pkg/models"
)

// memProjects is an in-memory ProjectStore that records every write
type memProjects struct {
	mu        sync.Mutex
	rows      map[string]*models.Project
	updates   []store.Fields
	updateErr func(fields store.Fields) error
}

func newMemProjects(projects ...*models.Project) *memProjects {
	m := &memProjects{rows: make(map[string]*models.Project)}
	for _, p := range projects {
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		}
		m.rows[p.ID] = p
	}
	return m
}

func (m *memProjects) Get(_ context.Context, id string) (*models.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	cp.AgentMessages = append([]models.AgentMessage(nil), p.AgentMessages...)
	return &cp, nil
}

func (m *memProjects) Update(_ context.Context, id string, fields store.Fields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		if err := m.updateErr(fields); err != nil {
			return err
		}
	}
	p, ok := m.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	recorded := store.Fields{}
	for k, v := range fields {
		recorded[k] = v
		switch k {
		case "html_code":
			p.HTMLCode = v.(string)
		case "css_code":
			p.CSSCode = v.(string)
		case "js_code":
			p.JSCode = v.(string)
		case "ai_agents_idea":
			p.AIAgentsIdea = v.(string)
		case "ai_agents_status":
			p.AIAgentsStatus = v.(models.BuildStatus)
		case "ai_agents_progress":
			p.AIAgentsProgress = v.(int)
		case "is_published":
			p.IsPublished = v.(bool)
		default:
			panic("unexpected column " + k)
		}
	}
	p.UpdatedAt = p.UpdatedAt.Add(time.Second)
	m.updates = append(m.updates, recorded)
	return nil
}

func (m *memProjects) UpdateIfUnchanged(ctx context.Context, id string, expected time.Time, fields store.Fields) error {
	m.mu.Lock()
	p, ok := m.rows[id]
	if ok && !p.UpdatedAt.Equal(expected) {
		m.mu.Unlock()
		return store.ErrConflict
	}
	m.mu.Unlock()
	return m.Update(ctx, id, fields)
}

func (m *memProjects) AppendMessage(_ context.Context, id string, msg models.AgentMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	p.AgentMessages = append(p.AgentMessages, msg)
	return nil
}

func (m *memProjects) messages(id string) []models.AgentMessage {
	p, _ := m.Get(context.Background(), id)
	return p.AgentMessages
}

func (m *memProjects) countMessages(id, substr string) int {
	n := 0
	for _, msg := range m.messages(id) {
		if strings.Contains(msg.Message, substr) {
			n++
		}
	}
	return n
}

// scriptedProvider answers by prompt role. Each role has a queue of
// replies; the last reply repeats.
type scriptedProvider struct {
	mu      sync.Mutex
	replies map[Role][]reply
	calls   map[Role]int
	keys    []string
}

type reply struct {
	text   string
	status int
}

func newScriptedProvider() *scriptedProvider {
	return &scriptedProvider{replies: make(map[Role][]reply), calls: make(map[Role]int)}
}

func (s *scriptedProvider) on(role Role, replies ...reply) *scriptedProvider {
	s.replies[role] = replies
	return s
}

func roleOf(prompt string) Role {
	switch {
	case strings.Contains(prompt, "senior reviewer"):
		return RoleReview
	case strings.Contains(prompt, "interactive JavaScript"):
		return RoleJS
	case strings.Contains(prompt, "creative, modern CSS"):
		return RoleCSS
	case strings.Contains(prompt, "modifies websites"):
		return RoleContinue
	default:
		return RoleHTML
	}
}

func (s *scriptedProvider) answer(prompt string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	role := roleOf(prompt)
	queue := s.replies[role]
	if len(queue) == 0 {
		return "", fmt.Errorf("no reply scripted for %s", role)
	}
	i := s.calls[role]
	s.calls[role]++
	if i >= len(queue) {
		i = len(queue) - 1
	}
	r := queue[i]
	if r.status != 0 {
		return "", &ai.ProviderError{Provider: "stub", StatusCode: r.status, Body: "stub error"}
	}
	return r.text, nil
}

func (s *scriptedProvider) CompleteWithKey(_ context.Context, key string, req ai.CompletionRequest) (string, error) {
	s.mu.Lock()
	s.keys = append(s.keys, key)
	s.mu.Unlock()
	return s.answer(req.Prompt)
}

func (s *scriptedProvider) Complete(_ context.Context, req ai.CompletionRequest) (string, error) {
	return s.answer(req.Prompt)
}

// poolCreds is a credential source over key1..keyN starting at 1
type poolCreds struct {
	mu    sync.Mutex
	index int
	size  int
}

func (c *poolCreds) Current(context.Context) (keyrotation.Credential, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index == 0 {
		c.index = 1
	}
	return keyrotation.Credential{Index: c.index, Secret: fmt.Sprintf("key%d", c.index)}, nil
}

func (c *poolCreds) Advance(_ context.Context, from int) (keyrotation.Credential, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = from%c.size + 1
	return keyrotation.Credential{Index: c.index, Secret: fmt.Sprintf("key%d", c.index)}, nil
}

func noSleep() ai.GeneratorOption {
	return ai.WithSleep(func(context.Context, time.Duration) error { return nil })
}

func fenced(lang, body string) string {
	return "```" + lang + "\n" + body + "\n```"
}

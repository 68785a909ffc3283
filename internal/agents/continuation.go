package agents

import (
	"context"
	"errors"
	"time"

	"codeplay/internal/ai"
	"codeplay/internal/config"
	"codeplay/internal/logging"
	"codeplay/internal/metrics"
	"codeplay/internal/store"
	"codeplay/pkg/models"

	"go.uber.org/zap"
)

// Continuation error codes, returned to clients so they can pick a message
const (
	CodeConfig          = "CONFIG"
	CodeRateLimit       = "RATE_LIMIT"
	CodePaymentRequired = "PAYMENT_REQUIRED"
	CodeAIError         = "AI_ERROR"
	CodeInternal        = "INTERNAL_ERROR"
	CodeConflict        = "CONFLICT"
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeNotFound        = "NOT_FOUND"
	CodeForbidden       = "FORBIDDEN"
)

var continueErrorMessages = map[string]string{
	CodeConfig:          "AI configuration is missing",
	CodeRateLimit:       "Too many requests. Please try again shortly.",
	CodePaymentRequired: "AI credits are used up. Please top up from the settings.",
	CodeAIError:         "Could not reach the AI gateway.",
	CodeInternal:        "Something went wrong while applying your changes.",
	CodeConflict:        "The project changed since you loaded it. Reload and try again.",
	CodeInvalidRequest:  "A project id and a message are required.",
	CodeNotFound:        "Project not found.",
	CodeForbidden:       "You can only modify your own projects.",
}

// ContinueRequest asks for an incremental edit of a project's code
type ContinueRequest struct {
	ProjectID   string     `json:"projectId"`
	Message     string     `json:"message"`
	CurrentCode Artifacts  `json:"currentCode"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	UserID      string     `json:"-"`
}

// ContinueResponse is always delivered with HTTP 200; Success tells the
// outcome and ErrorCode the failure class.
type ContinueResponse struct {
	Success      bool       `json:"success"`
	Code         *Artifacts `json:"code,omitempty"`
	Message      string     `json:"message,omitempty"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
	ErrorCode    string     `json:"errorCode,omitempty"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
}

// ContinueStore is the persistence continuation needs
type ContinueStore interface {
	Get(ctx context.Context, id string) (*models.Project, error)
	Update(ctx context.Context, id string, fields store.Fields) error
	UpdateIfUnchanged(ctx context.Context, id string, expected time.Time, fields store.Fields) error
	AppendMessage(ctx context.Context, id string, msg models.AgentMessage) error
}

// ContinueService applies chat-style edit requests through the gateway
type ContinueService struct {
	projects ContinueStore
	llm      ai.Completer
	policy   string
	now      func() time.Time
	log      *zap.Logger
}

// NewContinueService builds the service. policy is one of
// config.PolicyLastWriterWins or config.PolicyRejectStale.
func NewContinueService(projects ContinueStore, llm ai.Completer, policy string) *ContinueService {
	if policy != config.PolicyRejectStale {
		policy = config.PolicyLastWriterWins
	}
	return &ContinueService{
		projects: projects,
		llm:      llm,
		policy:   policy,
		now:      time.Now,
		log:      logging.L().With(zap.String("component", "continue")),
	}
}

func failure(code string) ContinueResponse {
	metrics.Get().ContinuationsTotal.WithLabelValues(code).Inc()
	return ContinueResponse{Success: false, ErrorCode: code, ErrorMessage: continueErrorMessages[code]}
}

// Continue runs one edit request end to end
func (s *ContinueService) Continue(ctx context.Context, req ContinueRequest) ContinueResponse {
	if s.llm == nil {
		return failure(CodeConfig)
	}
	if isBlank(req.ProjectID) || isBlank(req.Message) {
		return failure(CodeInvalidRequest)
	}
	stale := s.policy == config.PolicyRejectStale
	if stale && req.UpdatedAt == nil {
		return failure(CodeInvalidRequest)
	}

	log := s.log.With(zap.String("project_id", req.ProjectID))
	p, err := s.projects.Get(ctx, req.ProjectID)
	if errors.Is(err, store.ErrNotFound) {
		return failure(CodeNotFound)
	}
	if err != nil {
		log.Error("failed to load project", zap.Error(err))
		return failure(CodeInternal)
	}
	if p.UserID != req.UserID {
		return failure(CodeForbidden)
	}
	if stale && !sameInstant(p.UpdatedAt, *req.UpdatedAt) {
		return failure(CodeConflict)
	}

	prompt, err := RenderPrompt(RoleContinue, PromptData{Message: req.Message, Artifacts: req.CurrentCode})
	if err != nil {
		log.Error("failed to render prompt", zap.Error(err))
		return failure(CodeInternal)
	}
	text, err := s.llm.Complete(ctx, ai.CompletionRequest{
		Prompt:       prompt,
		SystemPrompt: continueSystemPrompt,
	})
	if err != nil {
		log.Warn("continuation generation failed", zap.Error(err))
		return failure(classify(err))
	}

	var out struct {
		Artifacts
		Message string `json:"message"`
	}
	if err := decodeModelJSON(text, &out); err != nil {
		log.Error("continuation output is not valid JSON", zap.Error(err), zap.Int("chars", len(text)))
		return failure(CodeInternal)
	}
	code := req.CurrentCode.mergeNonEmpty(out.Artifacts)
	note := out.Message
	if isBlank(note) {
		note = msgContinueDefault
	}

	fields := store.Fields{"html_code": code.HTML, "css_code": code.CSS, "js_code": code.JS}
	if stale {
		err = s.projects.UpdateIfUnchanged(ctx, p.ID, *req.UpdatedAt, fields)
	} else {
		err = s.projects.Update(ctx, p.ID, fields)
	}
	if errors.Is(err, store.ErrConflict) {
		return failure(CodeConflict)
	}
	if err != nil {
		log.Error("failed to save continuation", zap.Error(err))
		return failure(CodeInternal)
	}

	now := s.now().UTC()
	for _, m := range []models.AgentMessage{
		{Agent: AgentUser, Message: req.Message, Timestamp: now},
		{Agent: AgentAssistant, Message: note, Timestamp: now},
	} {
		if err := s.projects.AppendMessage(ctx, p.ID, m); err != nil {
			log.Warn("failed to append chat message", zap.String("agent", m.Agent), zap.Error(err))
		}
	}

	resp := ContinueResponse{Success: true, Code: &code, Message: note}
	if fresh, err := s.projects.Get(ctx, p.ID); err == nil {
		resp.UpdatedAt = &fresh.UpdatedAt
	}
	metrics.Get().ContinuationsTotal.WithLabelValues("ok").Inc()
	log.Info("continuation applied")
	return resp
}

func classify(err error) string {
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		return CodeConfig
	case ai.IsQuotaExhausted(err):
		return CodeRateLimit
	case ai.IsPaymentRequired(err):
		return CodePaymentRequired
	default:
		return CodeAIError
	}
}

func sameInstant(a, b time.Time) bool {
	return a.Truncate(time.Microsecond).Equal(b.Truncate(time.Microsecond))
}

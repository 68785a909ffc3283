package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"codeplay/internal/agents"
	"codeplay/internal/store"
	"codeplay/pkg/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxProjectNameRunes = 60

type buildRequest struct {
	ProjectID string `json:"projectId"`
	Idea      string `json:"idea"`
	OwnerID   string `json:"ownerId"`
	Async     bool   `json:"async"`
}

func buildFailure(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

// Build runs the agent pipeline for a new or existing project
// POST /api/v1/agents/build
func (h *Handler) Build(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req buildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		buildFailure(c, http.StatusBadRequest, "Invalid request format")
		return
	}
	if strings.TrimSpace(req.Idea) == "" {
		buildFailure(c, http.StatusBadRequest, agents.ErrEmptyIdea.Error())
		return
	}
	if req.OwnerID != "" && req.OwnerID != userID {
		buildFailure(c, http.StatusForbidden, agents.ErrForbidden.Error())
		return
	}

	ctx := c.Request.Context()
	if req.ProjectID == "" {
		p := &models.Project{
			UserID:       userID,
			ProjectName:  projectNameFromIdea(req.Idea),
			AIAgentsIdea: req.Idea,
		}
		if err := h.Projects.Create(ctx, p); err != nil {
			h.log.Error("create project for build failed", zap.Error(err))
			buildFailure(c, http.StatusInternalServerError, "Failed to create project")
			return
		}
		req.ProjectID = p.ID
	} else {
		p, err := h.Projects.Get(ctx, req.ProjectID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				buildFailure(c, http.StatusNotFound, "Project not found")
				return
			}
			buildFailure(c, http.StatusInternalServerError, "Failed to fetch project")
			return
		}
		if p.UserID != userID {
			buildFailure(c, http.StatusForbidden, agents.ErrForbidden.Error())
			return
		}
	}

	run := agents.BuildRequest{ProjectID: req.ProjectID, Idea: req.Idea, OwnerID: userID}

	// A started run goes to completion or failure even if the client leaves.
	// The request context only scopes the response.
	runCtx := context.WithoutCancel(ctx)
	end := h.Hub.Begin(req.ProjectID)

	if req.Async {
		go h.runDetached(runCtx, run, end)
		c.JSON(http.StatusAccepted, gin.H{"success": true, "projectId": req.ProjectID})
		return
	}
	defer end()

	res, err := h.Builder.Run(runCtx, run)
	if err != nil {
		switch {
		case errors.Is(err, agents.ErrEmptyIdea):
			buildFailure(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, agents.ErrForbidden):
			buildFailure(c, http.StatusForbidden, err.Error())
		default:
			buildFailure(c, http.StatusInternalServerError, err.Error())
		}
		return
	}
	h.invalidateByID(runCtx, res.ProjectID)

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"projectId": res.ProjectID,
		"html":      res.Artifacts.HTML,
		"css":       res.Artifacts.CSS,
		"js":        res.Artifacts.JS,
		"subpages":  res.Subpages,
	})
}

func (h *Handler) runDetached(ctx context.Context, req agents.BuildRequest, end func()) {
	log := h.log.With(zap.String("project_id", req.ProjectID))
	defer end()
	defer func() {
		if r := recover(); r != nil {
			log.Error("detached build panicked", zap.Any("panic", r))
		}
	}()
	res, err := h.Builder.Run(ctx, req)
	if err != nil {
		log.Warn("detached build failed", zap.Error(err))
		return
	}
	h.invalidateByID(ctx, res.ProjectID)
}

func (h *Handler) invalidateByID(ctx context.Context, projectID string) {
	if !h.Cache.Enabled() {
		return
	}
	p, err := h.Projects.Get(ctx, projectID)
	if err != nil {
		h.log.Warn("reload for cache invalidation failed", zap.String("project_id", projectID), zap.Error(err))
		return
	}
	h.invalidate(ctx, p)
}

// Continue applies a chat edit. Failures are reported in the body with 200.
// POST /api/v1/agents/continue
func (h *Handler) Continue(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req agents.ContinueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, agents.ContinueResponse{
			Success:      false,
			ErrorCode:    agents.CodeInvalidRequest,
			ErrorMessage: "Invalid request format",
		})
		return
	}
	req.UserID = userID

	resp := h.Continuer.Continue(c.Request.Context(), req)
	if resp.Success {
		h.invalidateByID(c.Request.Context(), req.ProjectID)
	}
	c.JSON(http.StatusOK, resp)
}

func projectNameFromIdea(idea string) string {
	name := strings.Join(strings.Fields(idea), " ")
	if utf8.RuneCountInString(name) <= maxProjectNameRunes {
		return name
	}
	return string([]rune(name)[:maxProjectNameRunes]) + "…"
}

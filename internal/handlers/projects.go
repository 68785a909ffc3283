package handlers

import (
	"net/http"
	"regexp"
	"strings"

	"codeplay/internal/store"
	"codeplay/internal/templates"
	"codeplay/pkg/models"

	"github.com/gin-gonic/gin"
)

// Slugs never reach 36 characters so they cannot be mistaken for project ids
var customURLPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,34}$`)

type createProjectRequest struct {
	ProjectName string `json:"project_name" binding:"max=100"`
	TemplateID  string `json:"template_id"`
	HTMLCode    string `json:"html_code"`
	CSSCode     string `json:"css_code"`
	JSCode      string `json:"js_code"`
}

type updateProjectRequest struct {
	ProjectName     *string `json:"project_name" binding:"omitempty,min=1,max=100"`
	HTMLCode        *string `json:"html_code"`
	CSSCode         *string `json:"css_code"`
	JSCode          *string `json:"js_code"`
	CustomURL       *string `json:"custom_url"`
	IsPublished     *bool   `json:"is_published"`
	ShowInCommunity *bool   `json:"show_in_community"`
}

// CreateProject creates a project, optionally seeded from a starter template
// POST /api/v1/projects
func (h *Handler) CreateProject(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request format", "INVALID_REQUEST")
		return
	}

	p := &models.Project{
		UserID:      userID,
		ProjectName: strings.TrimSpace(req.ProjectName),
		HTMLCode:    req.HTMLCode,
		CSSCode:     req.CSSCode,
		JSCode:      req.JSCode,
	}
	if req.TemplateID != "" {
		tpl, err := templates.GetTemplateByID(req.TemplateID)
		if err != nil {
			respondError(c, http.StatusNotFound, "Template not found", "TEMPLATE_NOT_FOUND")
			return
		}
		p.HTMLCode, p.CSSCode, p.JSCode = tpl.HTML, tpl.CSS, tpl.JS
		if p.ProjectName == "" {
			p.ProjectName = tpl.Name
		}
	}
	if p.ProjectName == "" {
		respondError(c, http.StatusBadRequest, "project_name is required", "INVALID_REQUEST")
		return
	}

	if err := h.Projects.Create(c.Request.Context(), p); err != nil {
		h.storeError(c, err, "Failed to create project")
		return
	}

	c.JSON(http.StatusCreated, StandardResponse{
		Success: true,
		Data:    p,
		Message: "Project created successfully",
	})
}

// GetProjects lists the caller's projects, subpages included
// GET /api/v1/projects
func (h *Handler) GetProjects(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	projects, err := h.Projects.ListByOwner(c.Request.Context(), userID)
	if err != nil {
		h.storeError(c, err, "Failed to fetch projects")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"projects": projects,
		"count":    len(projects),
	})
}

// GetProject returns one of the caller's projects
// GET /api/v1/projects/:id
func (h *Handler) GetProject(c *gin.Context) {
	p, ok := h.loadOwned(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: p})
}

// UpdateProject applies a partial edit from the editor
// PATCH /api/v1/projects/:id
func (h *Handler) UpdateProject(c *gin.Context) {
	p, ok := h.loadOwned(c)
	if !ok {
		return
	}

	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request format", "INVALID_REQUEST")
		return
	}

	ctx := c.Request.Context()
	fields := store.Fields{}
	if req.ProjectName != nil {
		fields["project_name"] = strings.TrimSpace(*req.ProjectName)
	}
	if req.HTMLCode != nil {
		fields["html_code"] = *req.HTMLCode
	}
	if req.CSSCode != nil {
		fields["css_code"] = *req.CSSCode
	}
	if req.JSCode != nil {
		fields["js_code"] = *req.JSCode
	}
	if req.IsPublished != nil {
		fields["is_published"] = *req.IsPublished
	}
	if req.ShowInCommunity != nil {
		fields["show_in_community"] = *req.ShowInCommunity
	}

	var newSlug string
	if req.CustomURL != nil {
		slug := strings.ToLower(strings.TrimSpace(*req.CustomURL))
		if slug == "" {
			fields["custom_url"] = nil
		} else {
			if !customURLPattern.MatchString(slug) {
				respondError(c, http.StatusBadRequest,
					"custom_url must be 2-35 lowercase letters, digits or hyphens", "INVALID_CUSTOM_URL")
				return
			}
			taken, err := h.Projects.CustomURLTaken(ctx, slug, p.ID)
			if err != nil {
				h.storeError(c, err, "Failed to update project")
				return
			}
			if taken {
				respondError(c, http.StatusConflict, "custom_url is already in use", "CUSTOM_URL_TAKEN")
				return
			}
			fields["custom_url"] = slug
			newSlug = slug
		}
	}

	if len(fields) == 0 {
		respondError(c, http.StatusBadRequest, "No fields to update", "INVALID_REQUEST")
		return
	}

	if err := h.Projects.Update(ctx, p.ID, fields); err != nil {
		h.storeError(c, err, "Failed to update project")
		return
	}
	h.invalidate(ctx, p, newSlug)

	updated, err := h.Projects.Get(ctx, p.ID)
	if err != nil {
		h.storeError(c, err, "Failed to fetch project")
		return
	}
	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    updated,
		Message: "Project updated successfully",
	})
}

// DeleteProject removes a project with its subpages
// DELETE /api/v1/projects/:id
func (h *Handler) DeleteProject(c *gin.Context) {
	p, ok := h.loadOwned(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.Projects.Delete(ctx, p.ID); err != nil {
		h.storeError(c, err, "Failed to delete project")
		return
	}
	h.invalidate(ctx, p)

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Message: "Project deleted successfully",
	})
}

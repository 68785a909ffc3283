package handlers

import (
	"errors"
	"net/http"

	"codeplay/internal/hosting"
	"codeplay/internal/store"
	"codeplay/internal/subpages"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const htmlContentType = "text/html; charset=utf-8"

// ServeProject serves a published project by id or custom URL
// GET /p/:identifier
func (h *Handler) ServeProject(c *gin.Context) {
	h.servePublished(c, c.Param("identifier"), "")
}

// ServeSubpage serves a published subpage of a project by route
// GET /p/:identifier/*route
func (h *Handler) ServeSubpage(c *gin.Context) {
	route, ok := subpages.NormalizeRoute(c.Param("route"))
	if !ok {
		route = ""
	}
	h.servePublished(c, c.Param("identifier"), route)
}

// servePublished renders the page at route of the project behind
// identifier. Every page served under a project counts as a view of that
// project.
func (h *Handler) servePublished(c *gin.Context, identifier, route string) {
	ctx := c.Request.Context()

	projectID, aliased := h.Cache.ResolveAlias(ctx, identifier)
	if !aliased && len(identifier) == 36 {
		projectID = identifier
	}
	if projectID != "" {
		if page, ok := h.Cache.GetPage(ctx, projectID, route); ok {
			h.countView(c, projectID)
			c.Data(http.StatusOK, htmlContentType, page)
			return
		}
	}

	p, err := h.Projects.FindPublished(ctx, identifier)
	if err != nil {
		h.publicError(c, err, identifier)
		return
	}
	h.Cache.SetAlias(ctx, identifier, p.ID)

	target := p
	if route != "" {
		target, err = h.Projects.FindPublishedSubpage(ctx, p.ID, route)
		if err != nil {
			h.publicError(c, err, identifier)
			return
		}
	}

	page := []byte(hosting.Render(target.HTMLCode, target.CSSCode, target.JSCode))
	h.Cache.SetPage(ctx, p.ID, route, page)
	h.countView(c, p.ID)
	c.Data(http.StatusOK, htmlContentType, page)
}

func (h *Handler) countView(c *gin.Context, projectID string) {
	if err := h.Projects.IncrementViews(c.Request.Context(), projectID); err != nil {
		h.log.Warn("failed to count view", zap.String("project_id", projectID), zap.Error(err))
	}
}

func (h *Handler) publicError(c *gin.Context, err error, identifier string) {
	if errors.Is(err, store.ErrNotFound) {
		c.Data(http.StatusNotFound, htmlContentType, []byte(hosting.NotFoundPage))
		return
	}
	h.log.Error("failed to serve project", zap.String("identifier", identifier), zap.Error(err))
	c.Data(http.StatusInternalServerError, htmlContentType, []byte(hosting.ErrorPage))
}

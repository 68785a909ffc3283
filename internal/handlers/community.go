package handlers

import (
	"net/http"

	"codeplay/pkg/models"

	"github.com/gin-gonic/gin"
)

// ListCommunity returns published projects opted into the community feed
// GET /api/v1/community
func (h *Handler) ListCommunity(c *gin.Context) {
	page, limit := parsePaginationParams(c)

	// One extra row tells us whether another page exists
	projects, err := h.Projects.ListCommunity(c.Request.Context(), limit+1, (page-1)*limit)
	if err != nil {
		h.storeError(c, err, "Failed to fetch community projects")
		return
	}
	hasNext := len(projects) > limit
	if hasNext {
		projects = projects[:limit]
	}

	c.JSON(http.StatusOK, gin.H{
		"projects": projects,
		"pagination": PaginationInfo{
			Page:    page,
			Limit:   limit,
			HasNext: hasNext,
			HasPrev: page > 1,
		},
	})
}

// visibleTo reports whether userID may see p through community routes
func visibleTo(p *models.Project, userID string) bool {
	return p.UserID == userID || (p.IsPublished && p.ShowInCommunity)
}

// LikeProject records the caller's like
// POST /api/v1/projects/:id/like
func (h *Handler) LikeProject(c *gin.Context) {
	h.toggleLike(c, true)
}

// UnlikeProject removes the caller's like
// DELETE /api/v1/projects/:id/like
func (h *Handler) UnlikeProject(c *gin.Context) {
	h.toggleLike(c, false)
}

func (h *Handler) toggleLike(c *gin.Context, like bool) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	p, err := h.Projects.Get(ctx, c.Param("id"))
	if err != nil {
		h.storeError(c, err, "Failed to fetch project")
		return
	}
	if !visibleTo(p, userID) {
		respondError(c, http.StatusNotFound, "Project not found", "PROJECT_NOT_FOUND")
		return
	}

	var changed bool
	if like {
		changed, err = h.Projects.Like(ctx, p.ID, userID)
	} else {
		changed, err = h.Projects.Unlike(ctx, p.ID, userID)
	}
	if err != nil {
		h.storeError(c, err, "Failed to update like")
		return
	}

	updated, err := h.Projects.Get(ctx, p.ID)
	if err != nil {
		h.storeError(c, err, "Failed to fetch project")
		return
	}
	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data: gin.H{
			"liked":       like,
			"changed":     changed,
			"likes_count": updated.LikesCount,
		},
	})
}

// ForkProject copies a community project into the caller's workspace
// POST /api/v1/projects/:id/fork
func (h *Handler) ForkProject(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	src, err := h.Projects.Get(ctx, c.Param("id"))
	if err != nil {
		h.storeError(c, err, "Failed to fetch project")
		return
	}
	if !visibleTo(src, userID) {
		respondError(c, http.StatusNotFound, "Project not found", "PROJECT_NOT_FOUND")
		return
	}

	fork, err := h.Projects.Fork(ctx, src, userID)
	if err != nil {
		h.storeError(c, err, "Failed to fork project")
		return
	}
	c.JSON(http.StatusCreated, StandardResponse{
		Success: true,
		Data:    fork,
		Message: "Project forked successfully",
	})
}

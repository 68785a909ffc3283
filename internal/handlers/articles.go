package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"codeplay/internal/store"
	"codeplay/pkg/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxPublicArticles = 50

type articleRequest struct {
	Title     *string `json:"title" binding:"omitempty,max=200"`
	Content   *string `json:"content"`
	Excerpt   *string `json:"excerpt" binding:"omitempty,max=500"`
	Slug      *string `json:"slug"`
	Published *bool   `json:"published"`
	Featured  *bool   `json:"featured"`
}

func (h *Handler) articleError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(c, http.StatusNotFound, "Article not found", "ARTICLE_NOT_FOUND")
	case errors.Is(err, store.ErrConflict):
		respondError(c, http.StatusConflict, "slug is already in use", "SLUG_TAKEN")
	default:
		h.log.Error(msg, zap.Error(err), zap.String("path", c.FullPath()))
		respondError(c, http.StatusInternalServerError, msg, "DATABASE_ERROR")
	}
}

// loadOwnedArticle fetches :id for its author. On failure the response has
// already been written.
func (h *Handler) loadOwnedArticle(c *gin.Context) (*models.Article, bool) {
	userID, ok := requireUser(c)
	if !ok {
		return nil, false
	}
	a, err := h.Articles.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.articleError(c, err, "Failed to fetch article")
		return nil, false
	}
	if a.AuthorID != userID {
		respondError(c, http.StatusForbidden, "Access denied", "ACCESS_DENIED")
		return nil, false
	}
	return a, true
}

func normalizeSlug(raw string) (string, bool) {
	slug := store.Slugify(raw)
	return slug, slug != ""
}

// ListArticles returns the newest published articles for the home page
// GET /api/v1/articles?limit=3&featured=true
func (h *Handler) ListArticles(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "3"))
	if err != nil || limit < 1 || limit > maxPublicArticles {
		limit = 3
	}
	featured := c.Query("featured") == "true"

	articles, err := h.Articles.ListPublished(c.Request.Context(), featured, limit)
	if err != nil {
		h.articleError(c, err, "Failed to fetch articles")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"articles": articles,
		"count":    len(articles),
	})
}

// GetArticle returns a published article by slug
// GET /api/v1/articles/:slug
func (h *Handler) GetArticle(c *gin.Context) {
	a, err := h.Articles.GetPublishedBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.articleError(c, err, "Failed to fetch article")
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: a})
}

// ListMyArticles returns the caller's articles, drafts included
// GET /api/v1/articles/mine
func (h *Handler) ListMyArticles(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	articles, err := h.Articles.ListByAuthor(c.Request.Context(), userID)
	if err != nil {
		h.articleError(c, err, "Failed to fetch articles")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"articles": articles,
		"count":    len(articles),
	})
}

// CreateArticle stores a new article. Without a slug one is derived from
// the title.
// POST /api/v1/articles
func (h *Handler) CreateArticle(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request format", "INVALID_REQUEST")
		return
	}
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" ||
		req.Content == nil || strings.TrimSpace(*req.Content) == "" {
		respondError(c, http.StatusBadRequest, "title and content are required", "INVALID_REQUEST")
		return
	}

	a := &models.Article{
		AuthorID: userID,
		Title:    strings.TrimSpace(*req.Title),
		Content:  *req.Content,
	}
	if req.Excerpt != nil {
		a.Excerpt = *req.Excerpt
	}
	if req.Published != nil {
		a.Published = *req.Published
	}
	if req.Featured != nil {
		a.Featured = *req.Featured
	}
	if req.Slug != nil && strings.TrimSpace(*req.Slug) != "" {
		slug, valid := normalizeSlug(*req.Slug)
		if !valid {
			respondError(c, http.StatusBadRequest, "slug must contain letters or digits", "INVALID_SLUG")
			return
		}
		a.Slug = slug
	}

	if err := h.Articles.Create(c.Request.Context(), a); err != nil {
		h.articleError(c, err, "Failed to create article")
		return
	}
	c.JSON(http.StatusCreated, StandardResponse{
		Success: true,
		Data:    a,
		Message: "Article created successfully",
	})
}

// UpdateArticle applies a partial edit by the author
// PATCH /api/v1/articles/:id
func (h *Handler) UpdateArticle(c *gin.Context) {
	a, ok := h.loadOwnedArticle(c)
	if !ok {
		return
	}

	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request format", "INVALID_REQUEST")
		return
	}

	ctx := c.Request.Context()
	fields := store.Fields{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			respondError(c, http.StatusBadRequest, "title cannot be empty", "INVALID_REQUEST")
			return
		}
		fields["title"] = title
	}
	if req.Content != nil {
		if strings.TrimSpace(*req.Content) == "" {
			respondError(c, http.StatusBadRequest, "content cannot be empty", "INVALID_REQUEST")
			return
		}
		fields["content"] = *req.Content
	}
	if req.Excerpt != nil {
		fields["excerpt"] = *req.Excerpt
	}
	if req.Published != nil {
		fields["published"] = *req.Published
	}
	if req.Featured != nil {
		fields["featured"] = *req.Featured
	}
	if req.Slug != nil {
		slug, valid := normalizeSlug(*req.Slug)
		if !valid {
			respondError(c, http.StatusBadRequest, "slug must contain letters or digits", "INVALID_SLUG")
			return
		}
		if slug != a.Slug {
			taken, err := h.Articles.SlugTaken(ctx, slug, a.ID)
			if err != nil {
				h.articleError(c, err, "Failed to update article")
				return
			}
			if taken {
				h.articleError(c, store.ErrConflict, "Failed to update article")
				return
			}
			fields["slug"] = slug
		}
	}

	if len(fields) == 0 {
		respondError(c, http.StatusBadRequest, "No fields to update", "INVALID_REQUEST")
		return
	}
	if err := h.Articles.Update(ctx, a.ID, fields); err != nil {
		h.articleError(c, err, "Failed to update article")
		return
	}

	updated, err := h.Articles.Get(ctx, a.ID)
	if err != nil {
		h.articleError(c, err, "Failed to fetch article")
		return
	}
	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    updated,
		Message: "Article updated successfully",
	})
}

// DeleteArticle removes one of the caller's articles
// DELETE /api/v1/articles/:id
func (h *Handler) DeleteArticle(c *gin.Context) {
	a, ok := h.loadOwnedArticle(c)
	if !ok {
		return
	}
	if err := h.Articles.Delete(c.Request.Context(), a.ID); err != nil {
		h.articleError(c, err, "Failed to delete article")
		return
	}
	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Message: "Article deleted successfully",
	})
}

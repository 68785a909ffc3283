// Package handlers implements the HTTP API and the public project server.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"codeplay/internal/agents"
	"codeplay/internal/cache"
	"codeplay/internal/logging"
	"codeplay/internal/middleware"
	"codeplay/internal/store"
	"codeplay/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Builder runs the agent pipeline
type Builder interface {
	Run(ctx context.Context, req agents.BuildRequest) (*agents.BuildResult, error)
}

// Continuer applies chat edits to existing code
type Continuer interface {
	Continue(ctx context.Context, req agents.ContinueRequest) agents.ContinueResponse
}

// HealthCheck reports whether one dependency is reachable
type HealthCheck func(ctx context.Context) error

// Handler contains all the dependencies for API handlers
type Handler struct {
	Projects  *store.ProjectStore
	Articles  *store.ArticleStore
	Builder   Builder
	Continuer Continuer
	Hub       *agents.Hub
	Cache     *cache.PageCache
	Checks    map[string]HealthCheck

	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewHandler creates a new handler instance. allowedOrigins gates websocket
// upgrades; an empty list accepts same-origin requests only.
func NewHandler(projects *store.ProjectStore, articles *store.ArticleStore, builder Builder, continuer Continuer, hub *agents.Hub, pageCache *cache.PageCache, allowedOrigins []string) *Handler {
	if hub == nil {
		hub = agents.NewHub()
	}
	return &Handler{
		Projects:  projects,
		Articles:  articles,
		Builder:   builder,
		Continuer: continuer,
		Hub:       hub,
		Cache:     pageCache,
		Checks:    map[string]HealthCheck{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		log: logging.L().With(zap.String("component", "handlers")),
	}
}

// StandardResponse represents a standard API response
type StandardResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
}

// PaginationInfo contains pagination metadata
type PaginationInfo struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	HasNext bool `json:"has_next"`
	HasPrev bool `json:"has_prev"`
}

func respondError(c *gin.Context, status int, msg, code string) {
	c.JSON(status, StandardResponse{
		Success: false,
		Error:   msg,
		Code:    code,
	})
}

// requireUser returns the caller or writes a 401
func requireUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "User not authenticated", "NOT_AUTHENTICATED")
		return "", false
	}
	return userID, true
}

// loadOwned fetches :id and checks the caller owns it. On failure the
// response has already been written.
func (h *Handler) loadOwned(c *gin.Context) (*models.Project, bool) {
	userID, ok := requireUser(c)
	if !ok {
		return nil, false
	}
	p, err := h.Projects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, err, "Failed to fetch project")
		return nil, false
	}
	if p.UserID != userID {
		respondError(c, http.StatusForbidden, "Access denied", "ACCESS_DENIED")
		return nil, false
	}
	return p, true
}

func (h *Handler) storeError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respondError(c, http.StatusNotFound, "Project not found", "PROJECT_NOT_FOUND")
	case errors.Is(err, store.ErrConflict):
		respondError(c, http.StatusConflict, "Project was modified concurrently", "CONFLICT")
	default:
		h.log.Error(msg, zap.Error(err), zap.String("path", c.FullPath()))
		respondError(c, http.StatusInternalServerError, msg, "DATABASE_ERROR")
	}
}

// invalidate drops cached public pages for p. Subpages are cached under
// their parent so the parent's entries go too.
func (h *Handler) invalidate(ctx context.Context, p *models.Project, aliases ...string) {
	if p.CustomURL != nil {
		aliases = append(aliases, *p.CustomURL)
	}
	ids := []string{p.ID}
	if p.ParentProjectID != nil {
		ids = append(ids, *p.ParentProjectID)
	}
	for _, id := range ids {
		if err := h.Cache.Invalidate(ctx, id, aliases...); err != nil {
			h.log.Warn("cache invalidation failed", zap.String("project_id", id), zap.Error(err))
		}
	}
}

// Helper function to parse pagination parameters
func parsePaginationParams(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "24"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 24
	}

	return page, limit
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	wildcard := false
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			wildcard = true
		}
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// Allow requests with no origin (same-origin requests)
		if origin == "" || wildcard {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Health reports the status of every registered dependency
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	services := make(map[string]string, len(h.Checks))
	for name, check := range h.Checks {
		if err := check(ctx); err != nil {
			services[name] = "unhealthy: " + err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		services[name] = "healthy"
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{
		"status":    overall,
		"services":  services,
		"timestamp": time.Now().UTC(),
	})
}

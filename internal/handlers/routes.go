package handlers

import (
	"codeplay/internal/metrics"
	"codeplay/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RouteOptions carries the middleware that differs between deployments
type RouteOptions struct {
	Validator    middleware.TokenValidator
	BuildLimiter *middleware.IPRateLimiter
	Metrics      bool
}

// RegisterRoutes mounts the API, the public project server and the
// operational endpoints on router.
func (h *Handler) RegisterRoutes(router *gin.Engine, opts RouteOptions) {
	router.GET("/health", h.Health)
	if opts.Metrics {
		router.GET("/metrics", metrics.PrometheusHandler())
	}

	// Public published sites
	public := router.Group("/p")
	{
		public.GET("/:identifier", h.ServeProject)
		public.GET("/:identifier/*route", h.ServeSubpage)
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Security())
	{
		v1.GET("/templates", h.ListTemplates)
		v1.GET("/templates/:id", h.GetTemplate)
		v1.GET("/community", h.ListCommunity)
		v1.GET("/articles", h.ListArticles)
		v1.GET("/articles/:slug", h.GetArticle)

		protected := v1.Group("/")
		protected.Use(middleware.RequireAuth(opts.Validator))
		{
			agentRoutes := protected.Group("/agents")
			{
				build := []gin.HandlerFunc{h.Build}
				if opts.BuildLimiter != nil {
					build = append([]gin.HandlerFunc{middleware.RateLimit(opts.BuildLimiter)}, build...)
				}
				agentRoutes.POST("/build", build...)
				agentRoutes.POST("/continue", h.Continue)
			}

			projects := protected.Group("/projects")
			{
				projects.POST("", h.CreateProject)
				projects.GET("", h.GetProjects)
				projects.GET("/:id", h.GetProject)
				projects.PATCH("/:id", h.UpdateProject)
				projects.DELETE("/:id", h.DeleteProject)
				projects.GET("/:id/progress", h.GetProgress)
				projects.GET("/:id/progress/ws", h.StreamProgress)
				projects.POST("/:id/like", h.LikeProject)
				projects.DELETE("/:id/like", h.UnlikeProject)
				projects.POST("/:id/fork", h.ForkProject)
			}
		}
	}
}

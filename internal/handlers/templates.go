package handlers

import (
	"net/http"

	"codeplay/internal/templates"

	"github.com/gin-gonic/gin"
)

// ListTemplates returns the starter catalog
// GET /api/v1/templates
func (h *Handler) ListTemplates(c *gin.Context) {
	category := c.Query("category")
	popular := c.Query("popular")

	var templateList []templates.Template
	if popular == "true" {
		templateList = templates.GetPopularTemplates()
	} else if category != "" {
		templateList = templates.GetTemplatesByCategory(templates.TemplateCategory(category))
	} else {
		templateList = templates.GetAllTemplates()
	}

	// Group by category for the frontend
	categories := make(map[string][]templates.Template)
	for _, t := range templateList {
		categories[string(t.Category)] = append(categories[string(t.Category)], t)
	}

	c.JSON(http.StatusOK, gin.H{
		"templates":  templateList,
		"categories": categories,
		"count":      len(templateList),
	})
}

// GetTemplate returns a specific template by ID
// GET /api/v1/templates/:id
func (h *Handler) GetTemplate(c *gin.Context) {
	template, err := templates.GetTemplateByID(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusNotFound, "Template not found", "TEMPLATE_NOT_FOUND")
		return
	}
	c.JSON(http.StatusOK, gin.H{"template": template})
}

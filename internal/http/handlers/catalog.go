package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/breadlog-backend/internal/http/response"
	"github.com/yungbote/breadlog-backend/internal/services"
)

type CatalogHandler struct {
	catalog services.CatalogService
}

func NewCatalogHandler(catalog services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// GET /api/meta/ingredient-categories
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	rows, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ingredient_categories": rows})
}

// GET /api/meta/ingredients
func (h *CatalogHandler) ListIngredients(c *gin.Context) {
	rows, err := h.catalog.ListIngredients(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"ingredients": rows})
}

// GET /api/meta/parameters
func (h *CatalogHandler) ListParameters(c *gin.Context) {
	rows, err := h.catalog.ListParameters(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"parameters": rows})
}

// GET /api/meta/step-templates
func (h *CatalogHandler) ListStepTemplates(c *gin.Context) {
	rows, err := h.catalog.ListStepTemplates(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"step_templates": rows})
}

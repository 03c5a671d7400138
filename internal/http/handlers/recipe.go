package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/breadlog-backend/internal/domain/aggregates"
	"github.com/yungbote/breadlog-backend/internal/domain/bakerpct"
	"github.com/yungbote/breadlog-backend/internal/http/response"
	"github.com/yungbote/breadlog-backend/internal/services"
)

type RecipeHandler struct {
	recipes services.RecipeService
}

func NewRecipeHandler(recipes services.RecipeService) *RecipeHandler {
	return &RecipeHandler{recipes: recipes}
}

type recipeRequest struct {
	Name         string              `json:"name"`
	Notes        string              `json:"notes"`
	TotalWeight  *float64            `json:"total_weight"`
	HydrationPct *float64            `json:"hydration_pct"`
	SaltPct      *float64            `json:"salt_pct"`
	Steps        []recipeStepRequest `json:"steps"`
}

type recipeStepRequest struct {
	StepTemplateID  uuid.UUID                `json:"step_template_id"`
	Order           int                      `json:"order"`
	Description     string                   `json:"description"`
	Notes           string                   `json:"notes"`
	Ingredients     []recipeIngredientInput  `json:"ingredients"`
	ParameterValues []recipeParameterRequest `json:"parameter_values"`
}

type recipeIngredientInput struct {
	IngredientID    uuid.UUID     `json:"ingredient_id"`
	Amount          float64       `json:"amount"`
	CalculationMode bakerpct.Mode `json:"calculation_mode"`
	Preparation     string        `json:"preparation"`
	Notes           string        `json:"notes"`
}

type recipeParameterRequest struct {
	ParameterID uuid.UUID       `json:"parameter_id"`
	Value       json.RawMessage `json:"value"`
	Notes       string          `json:"notes"`
}

func (r recipeRequest) toInput() domainagg.RecipeInput {
	in := domainagg.RecipeInput{
		Name:         r.Name,
		Notes:        r.Notes,
		TotalWeight:  r.TotalWeight,
		HydrationPct: r.HydrationPct,
		SaltPct:      r.SaltPct,
		Steps:        make([]domainagg.RecipeStepInput, 0, len(r.Steps)),
	}
	for _, st := range r.Steps {
		step := domainagg.RecipeStepInput{
			StepTemplateID: st.StepTemplateID,
			Order:          st.Order,
			Description:    st.Description,
			Notes:          st.Notes,
		}
		for _, ing := range st.Ingredients {
			mode := ing.CalculationMode
			if mode == "" {
				mode = bakerpct.ModePercentage
			}
			step.Ingredients = append(step.Ingredients, domainagg.RecipeIngredientInput{
				IngredientID:    ing.IngredientID,
				Amount:          ing.Amount,
				CalculationMode: mode,
				Preparation:     ing.Preparation,
				Notes:           ing.Notes,
			})
		}
		for _, pv := range st.ParameterValues {
			step.ParameterValues = append(step.ParameterValues, domainagg.RecipeParameterValueInput{
				ParameterID: pv.ParameterID,
				Value:       pv.Value,
				Notes:       pv.Notes,
			})
		}
		in.Steps = append(in.Steps, step)
	}
	return in
}

// POST /api/recipes
func (h *RecipeHandler) Create(c *gin.Context) {
	var req recipeRequest
	if !bindJSON(c, &req, false) {
		return
	}
	recipe, err := h.recipes.Create(c.Request.Context(), req.toInput())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"recipe": recipe})
}

// GET /api/recipes
func (h *RecipeHandler) List(c *gin.Context) {
	recipes, err := h.recipes.List(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"recipes": recipes})
}

// GET /api/recipes/:id
func (h *RecipeHandler) Get(c *gin.Context) {
	recipeID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	recipe, err := h.recipes.Get(c.Request.Context(), recipeID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"recipe": recipe})
}

// GET /api/recipes/:id/formula?weight=1200
func (h *RecipeHandler) Formula(c *gin.Context) {
	recipeID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var target *float64
	if raw := strings.TrimSpace(c.Query("weight")); raw != "" {
		w, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "validation", errors.New("weight must be a number"))
			return
		}
		target = &w
	}
	view, err := h.recipes.Formula(c.Request.Context(), recipeID, target)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"formula": view})
}

// PUT /api/recipes/:id
func (h *RecipeHandler) Update(c *gin.Context) {
	recipeID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req recipeRequest
	if !bindJSON(c, &req, false) {
		return
	}
	recipe, err := h.recipes.Update(c.Request.Context(), recipeID, req.toInput())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"recipe": recipe})
}

// DELETE /api/recipes/:id
func (h *RecipeHandler) Delete(c *gin.Context) {
	recipeID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.recipes.Delete(c.Request.Context(), recipeID); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondNoContent(c)
}

// POST /api/recipes/:id/clone
func (h *RecipeHandler) Clone(c *gin.Context) {
	recipeID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	recipe, err := h.recipes.Clone(c.Request.Context(), recipeID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"recipe": recipe})
}

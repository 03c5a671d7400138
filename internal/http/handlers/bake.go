package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/breadlog-backend/internal/domain"
	"github.com/yungbote/breadlog-backend/internal/http/response"
	"github.com/yungbote/breadlog-backend/internal/services"
)

type BakeHandler struct {
	bakes services.BakeService
}

func NewBakeHandler(bakes services.BakeService) *BakeHandler {
	return &BakeHandler{bakes: bakes}
}

type startBakeRequest struct {
	RecipeID uuid.UUID `json:"recipe_id"`
	Notes    *string   `json:"notes"`
}

// POST /api/bakes
func (h *BakeHandler) StartBake(c *gin.Context) {
	var req startBakeRequest
	if !bindJSON(c, &req, false) {
		return
	}
	if req.RecipeID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "validation", errors.New("recipe_id is required"))
		return
	}
	bake, err := h.bakes.StartBake(c.Request.Context(), req.RecipeID, req.Notes)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{"bake": bake})
}

// GET /api/bakes/active
func (h *BakeHandler) ListActive(c *gin.Context) {
	bakes, err := h.bakes.ListActive(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"bakes": bakes})
}

// GET /api/bakes
func (h *BakeHandler) List(c *gin.Context) {
	bakes, err := h.bakes.List(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"bakes": bakes})
}

// GET /api/bakes/:id
func (h *BakeHandler) Get(c *gin.Context) {
	bakeID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	bake, err := h.bakes.Get(c.Request.Context(), bakeID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"bake": bake})
}

// PUT /api/bakes/:id/complete
func (h *BakeHandler) Complete(c *gin.Context) {
	bakeID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	bake, err := h.bakes.Complete(c.Request.Context(), bakeID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"bake": bake})
}

// PUT /api/bakes/:id/cancel
func (h *BakeHandler) Cancel(c *gin.Context) {
	bakeID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	bake, err := h.bakes.Cancel(c.Request.Context(), bakeID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"bake": bake})
}

type notesRequest struct {
	Notes *string `json:"notes"`
}

// PUT /api/bakes/:id/notes
func (h *BakeHandler) UpdateNotes(c *gin.Context) {
	bakeID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req notesRequest
	if !bindJSON(c, &req, false) {
		return
	}
	if req.Notes == nil {
		requireField(c, "notes")
		return
	}
	bake, err := h.bakes.UpdateNotes(c.Request.Context(), bakeID, *req.Notes)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"bake": bake})
}

// PUT /api/bakes/:id/rating
func (h *BakeHandler) UpdateRating(c *gin.Context) {
	bakeID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req map[string]json.RawMessage
	if !bindJSON(c, &req, false) {
		return
	}
	raw, present := req["rating"]
	if !present {
		response.RespondError(c, http.StatusBadRequest, "validation", errors.New("rating is required (use null to clear)"))
		return
	}
	bake, err := h.bakes.UpdateRating(c.Request.Context(), bakeID, raw)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"bake": bake})
}

func (h *BakeHandler) stepIDs(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	bakeID, ok := pathUUID(c, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	stepID, ok := pathUUID(c, "stepId")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return bakeID, stepID, true
}

// PUT /api/bakes/:id/steps/:stepId/start
func (h *BakeHandler) StartStep(c *gin.Context) {
	bakeID, stepID, ok := h.stepIDs(c)
	if !ok {
		return
	}
	step, err := h.bakes.StartStep(c.Request.Context(), bakeID, stepID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"step": step})
}

type completeStepRequest struct {
	ActualParameterValues map[uuid.UUID]json.RawMessage `json:"actual_parameter_values"`
	Notes                 *string                       `json:"notes"`
	Deviations            json.RawMessage               `json:"deviations"`
}

// PUT /api/bakes/:id/steps/:stepId/complete
func (h *BakeHandler) CompleteStep(c *gin.Context) {
	bakeID, stepID, ok := h.stepIDs(c)
	if !ok {
		return
	}
	var req completeStepRequest
	if !bindJSON(c, &req, true) {
		return
	}
	step, err := h.bakes.CompleteStep(c.Request.Context(), bakeID, stepID, services.CompleteStepRequest{
		ActualParameterValues: req.ActualParameterValues,
		Notes:                 req.Notes,
		Deviations:            req.Deviations,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"step": step})
}

// PUT /api/bakes/:id/steps/:stepId/skip
func (h *BakeHandler) SkipStep(c *gin.Context) {
	bakeID, stepID, ok := h.stepIDs(c)
	if !ok {
		return
	}
	step, err := h.bakes.SkipStep(c.Request.Context(), bakeID, stepID)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"step": step})
}

type failStepRequest struct {
	Reason string `json:"reason"`
}

// PUT /api/bakes/:id/steps/:stepId/fail
func (h *BakeHandler) FailStep(c *gin.Context) {
	bakeID, stepID, ok := h.stepIDs(c)
	if !ok {
		return
	}
	var req failStepRequest
	if !bindJSON(c, &req, true) {
		return
	}
	step, err := h.bakes.FailStep(c.Request.Context(), bakeID, stepID, req.Reason)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"step": step})
}

// PUT /api/bakes/:id/steps/:stepId/note
func (h *BakeHandler) UpdateStepNote(c *gin.Context) {
	bakeID, stepID, ok := h.stepIDs(c)
	if !ok {
		return
	}
	var req notesRequest
	if !bindJSON(c, &req, false) {
		return
	}
	if req.Notes == nil {
		requireField(c, "notes")
		return
	}
	step, err := h.bakes.UpdateStepNote(c.Request.Context(), bakeID, stepID, *req.Notes)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"step": step})
}

// deviationsRequest keeps a literal null as "null"; only a missing key is nil.
type deviationsRequest struct {
	Deviations json.RawMessage `json:"deviations"`
}

// PUT /api/bakes/:id/steps/:stepId/deviations
func (h *BakeHandler) UpdateStepDeviations(c *gin.Context) {
	bakeID, stepID, ok := h.stepIDs(c)
	if !ok {
		return
	}
	var req deviationsRequest
	if !bindJSON(c, &req, false) {
		return
	}
	if req.Deviations == nil {
		requireField(c, "deviations")
		return
	}
	step, err := h.bakes.UpdateStepDeviations(c.Request.Context(), bakeID, stepID, req.Deviations)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"step": step})
}

type parameterValueRequest struct {
	Value json.RawMessage `json:"value"`
	Notes *string         `json:"notes"`
}

// PUT /api/bakes/:id/steps/:stepId/parameters/:parameterValueId/actual
func (h *BakeHandler) UpdateActualValue(c *gin.Context) {
	h.updateParameterValue(c, h.bakes.UpdateActualValue)
}

// PUT /api/bakes/:id/steps/:stepId/parameter-values/:parameterValueId/planned
func (h *BakeHandler) UpdatePlannedValue(c *gin.Context) {
	h.updateParameterValue(c, h.bakes.UpdatePlannedValue)
}

type parameterValueUpdater func(ctx context.Context, bakeID, stepID, valueID uuid.UUID, in services.ParameterValueUpdate) (*types.BakeStepParameterValue, error)

func (h *BakeHandler) updateParameterValue(c *gin.Context, update parameterValueUpdater) {
	bakeID, stepID, ok := h.stepIDs(c)
	if !ok {
		return
	}
	valueID, ok := pathUUID(c, "parameterValueId")
	if !ok {
		return
	}
	var req parameterValueRequest
	if !bindJSON(c, &req, false) {
		return
	}
	if req.Value == nil {
		requireField(c, "value")
		return
	}
	pv, err := update(c.Request.Context(), bakeID, stepID, valueID, services.ParameterValueUpdate{
		Value: req.Value,
		Notes: req.Notes,
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"parameter_value": pv})
}

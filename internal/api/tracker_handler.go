package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Minpi-0/Health-Tracker/internal/domain"
	"github.com/Minpi-0/Health-Tracker/internal/tracker"

	"github.com/gin-gonic/gin"
)

// TrackerHandler exposes the per-user tracker session over HTTP. Every
// method resolves the caller's session from the verified user id, so all
// state below this point is scoped to one user.
type TrackerHandler struct {
	manager *tracker.Manager
}

// NewTrackerHandler creates a new TrackerHandler.
func NewTrackerHandler(manager *tracker.Manager) *TrackerHandler {
	return &TrackerHandler{manager: manager}
}

// --- DTOs for API (Data Transfer Objects) ---

// SetViewRequest selects which projection subsequent GET /view renders.
type SetViewRequest struct {
	View string `json:"view" binding:"required"`
}

// CreatePlanRequest defines the expected JSON for creating a plan.
type CreatePlanRequest struct {
	Title        string  `json:"title" binding:"required"`
	TargetDate   string  `json:"targetDate" binding:"required"` // YYYY-MM-DD
	TargetWeight float64 `json:"targetWeight"`
}

// OpenEditorRequest opens the entry editor, either blank (create) or
// preloaded from an existing entry (edit).
type OpenEditorRequest struct {
	Kind    string `json:"kind" binding:"required"` // "workout" or "diet"
	EntryID *int64 `json:"entryId"`                 // nil means create
}

// ToggleRequest flips one vocabulary selection on the open draft.
type ToggleRequest struct {
	Value    string `json:"value" binding:"required"`
	Category string `json:"category"` // exercises only
}

// SetExerciseSetsRequest updates the free-text sets of a selected exercise.
type SetExerciseSetsRequest struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category" binding:"required"`
	Sets     string `json:"sets"`
}

// AddFoodRequest appends a common-food item to one meal slot.
type AddFoodRequest struct {
	Name string `json:"name" binding:"required"`
}

// QuickInsertRequest appends a food name into the open diet draft's meal
// field for the slot.
type QuickInsertRequest struct {
	Name string `json:"name" binding:"required"`
}

// PlanResponse is the DTO for returning a full plan document.
type PlanResponse struct {
	ID             string                `json:"id"`
	Title          string                `json:"title"`
	TargetDate     string                `json:"targetDate"`
	TargetWeight   float64               `json:"targetWeight"`
	BaselineWeight float64               `json:"baselineWeight"`
	WorkoutEntries []domain.WorkoutEntry `json:"workoutEntries"`
	DietEntries    []domain.DietEntry    `json:"dietEntries"`
	Active         bool                  `json:"active"`
}

// MapPlanToResponse converts a domain.Plan to PlanResponse DTO.
func MapPlanToResponse(p domain.Plan, activeID string) PlanResponse {
	return PlanResponse{
		ID:             p.ID,
		Title:          p.Title,
		TargetDate:     p.TargetDate,
		TargetWeight:   p.TargetWeight,
		BaselineWeight: p.BaselineWeight,
		WorkoutEntries: p.WorkoutEntries,
		DietEntries:    p.DietEntries,
		Active:         p.ID == activeID,
	}
}

// session resolves (and lazily starts) the caller's tracker session.
func (h *TrackerHandler) session(c *gin.Context) (*tracker.Session, bool) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return nil, false
	}
	s, err := h.manager.Session(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusBadGateway, "Failed to attach to the document store.")
		return nil, false
	}
	return s, true
}

// respondTrackerError maps session errors onto HTTP statuses. The
// missing-active-plan case is a conflict, not a client formatting error:
// the request was well formed but the session has nothing to apply it to.
func respondTrackerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tracker.ErrNoActivePlan):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, tracker.ErrPlanNotFound), errors.Is(err, tracker.ErrEntryNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, tracker.ErrInvalidPlan),
		errors.Is(err, tracker.ErrInvalidDraft),
		errors.Is(err, tracker.ErrEditorClosed),
		errors.Is(err, tracker.ErrNotEditing),
		errors.Is(err, tracker.ErrUnknownVocabulary),
		errors.Is(err, tracker.ErrExerciseNotSelected),
		errors.Is(err, tracker.ErrBlankFoodName),
		errors.Is(err, tracker.ErrFoodIndexRange):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		abortWithError(c, http.StatusBadGateway, "Document store write failed.")
	}
}

// --- View Routing ---

// GetView godoc
// @Summary Render the current view
// @Description Returns the read-only projection for the view the session is routed to.
// @Tags View
// @Produce json
// @Security BearerAuth
// @Success 200 {object} tracker.Projection
// @Router /view [get]
func (h *TrackerHandler) GetView(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Projection())
}

// SetView routes the session to another projection.
func (h *TrackerHandler) SetView(c *gin.Context) {
	var req SetViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	view, err := domain.ParseView(req.View)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.SetView(view)
	c.JSON(http.StatusOK, s.Projection())
}

// --- Plans ---

// ListPlans godoc
// @Summary List plans
// @Description Returns all of the caller's plans, most-future target date first.
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Success 200 {array} PlanResponse
// @Router /plans [get]
func (h *TrackerHandler) ListPlans(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	activeID := s.ActivePlanID()
	plans := s.Plans()
	responses := make([]PlanResponse, len(plans))
	for i, p := range plans {
		responses[i] = MapPlanToResponse(p, activeID)
	}
	c.JSON(http.StatusOK, responses)
}

// CreatePlan godoc
// @Summary Create a plan
// @Description Creates a plan with a baseline weight snapshot and makes it active.
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param plan body CreatePlanRequest true "Plan details"
// @Success 201 {object} PlanResponse
// @Failure 400 {object} gin.H "Invalid input"
// @Router /plans [post]
func (h *TrackerHandler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	plan, err := s.CreatePlan(c.Request.Context(), req.Title, req.TargetDate, req.TargetWeight)
	if err != nil {
		respondTrackerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapPlanToResponse(plan, plan.ID))
}

// DeletePlan archives then deletes a plan and its embedded entries.
func (h *TrackerHandler) DeletePlan(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.RemovePlan(c.Request.Context(), c.Param("planId")); err != nil {
		respondTrackerError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ActivatePlan points the session at another plan and routes home.
func (h *TrackerHandler) ActivatePlan(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.SetActivePlan(c.Param("planId")); err != nil {
		respondTrackerError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Projection())
}

// --- Entry Editor ---

// GetEditor returns the current draft state plus derived validity.
func (h *TrackerHandler) GetEditor(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Editor())
}

// OpenEditor godoc
// @Summary Open the entry editor
// @Description Opens the editor blank for a new entry, or preloaded from an existing one.
// @Tags Editor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param open body OpenEditorRequest true "Kind and optional entry id"
// @Success 200 {object} tracker.EditorSnapshot
// @Failure 404 {object} gin.H "Entry not found"
// @Router /editor/open [post]
func (h *TrackerHandler) OpenEditor(c *gin.Context) {
	var req OpenEditorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	kind, err := tracker.ParseEntryKind(req.Kind)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	if req.EntryID == nil {
		s.OpenEditorForCreate(kind)
	} else if err := s.OpenEditorForEdit(kind, *req.EntryID); err != nil {
		respondTrackerError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Editor())
}

// CloseEditor dismisses the modal and resets every draft field.
func (h *TrackerHandler) CloseEditor(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.CloseEditor()
	c.Status(http.StatusNoContent)
}

// PatchWorkoutDraft applies partial updates to the workout draft.
func (h *TrackerHandler) PatchWorkoutDraft(c *gin.Context) {
	var patch tracker.WorkoutDraftPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.ApplyWorkoutPatch(patch); err != nil {
		respondTrackerError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Editor())
}

// PatchDietDraft applies partial updates to the diet draft.
func (h *TrackerHandler) PatchDietDraft(c *gin.Context) {
	var patch tracker.DietDraftPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.ApplyDietPatch(patch); err != nil {
		respondTrackerError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Editor())
}

// ToggleBodyPart flips one body-part tag on the workout draft.
func (h *TrackerHandler) ToggleBodyPart(c *gin.Context) {
	h.toggle(c, func(s *tracker.Session, req ToggleRequest) error {
		return s.ToggleBodyPart(req.Value)
	})
}

// ToggleDietTag flips one diet-tag label on the diet draft.
func (h *TrackerHandler) ToggleDietTag(c *gin.Context) {
	h.toggle(c, func(s *tracker.Session, req ToggleRequest) error {
		return s.ToggleDietTag(req.Value)
	})
}

// ToggleExercise flips one (name, category) exercise on the workout draft.
func (h *TrackerHandler) ToggleExercise(c *gin.Context) {
	h.toggle(c, func(s *tracker.Session, req ToggleRequest) error {
		return s.ToggleExercise(req.Value, req.Category)
	})
}

func (h *TrackerHandler) toggle(c *gin.Context, apply func(*tracker.Session, ToggleRequest) error) {
	var req ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := apply(s, req); err != nil {
		respondTrackerError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Editor())
}

// SetExerciseSets updates the free-text sets of a selected exercise.
func (h *TrackerHandler) SetExerciseSets(c *gin.Context) {
	var req SetExerciseSetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.SetExerciseSets(req.Name, req.Category, req.Sets); err != nil {
		respondTrackerError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Editor())
}

// SaveEntry godoc
// @Summary Save the draft entry
// @Description Finalizes the open draft into the active plan and persists the whole plan.
// @Tags Editor
// @Produce json
// @Security BearerAuth
// @Success 200 {object} tracker.Projection
// @Failure 400 {object} gin.H "Draft not valid"
// @Failure 409 {object} gin.H "No active plan"
// @Router /editor/save [post]
func (h *TrackerHandler) SaveEntry(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.SaveEntry(c.Request.Context()); err != nil {
		respondTrackerError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Projection())
}

// DeleteEntry removes the entry being edited from the active plan.
func (h *TrackerHandler) DeleteEntry(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.DeleteEntry(c.Request.Context()); err != nil {
		respondTrackerError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Projection())
}

// --- Reinforcement ---

// CompleteReinforcement logs today's reinforcement as a fixed-shape workout
// entry without opening the editor.
func (h *TrackerHandler) CompleteReinforcement(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.QuickComplete(c.Request.Context()); err != nil {
		respondTrackerError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Projection())
}

// --- Common Foods ---

// ListFoods returns the registry with each slot in display order (pinned
// first).
func (h *TrackerHandler) ListFoods(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Foods())
}

// AddFood appends an unpinned item to one meal slot.
func (h *TrackerHandler) AddFood(c *gin.Context) {
	var req AddFoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	slot, err := domain.ParseMealSlot(c.Param("slot"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.AddFood(c.Request.Context(), slot, req.Name); err != nil {
		respondTrackerError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.Foods())
}

// RemoveFood removes the item at the slot's positional index.
func (h *TrackerHandler) RemoveFood(c *gin.Context) {
	slot, index, ok := h.foodIndex(c)
	if !ok {
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.RemoveFood(c.Request.Context(), slot, index); err != nil {
		respondTrackerError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Foods())
}

// TogglePin flips the pinned flag at the slot's positional index.
func (h *TrackerHandler) TogglePin(c *gin.Context) {
	slot, index, ok := h.foodIndex(c)
	if !ok {
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.TogglePin(c.Request.Context(), slot, index); err != nil {
		respondTrackerError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Foods())
}

// QuickInsertFood appends a food name into the open diet draft's meal field
// for the slot. The registry itself is untouched.
func (h *TrackerHandler) QuickInsertFood(c *gin.Context) {
	var req QuickInsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	slot, err := domain.ParseMealSlot(c.Param("slot"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.QuickInsertFood(slot, req.Name); err != nil {
		respondTrackerError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Editor())
}

func (h *TrackerHandler) foodIndex(c *gin.Context) (domain.MealSlot, int, bool) {
	slot, err := domain.ParseMealSlot(c.Param("slot"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return "", 0, false
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid food index.")
		return "", 0, false
	}
	return slot, index, true
}

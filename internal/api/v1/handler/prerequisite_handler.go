package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"app/internal/api/v1/dto"
	"app/internal/apperr"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// PrerequisiteHandler handles prerequisite-related endpoints
type PrerequisiteHandler struct {
	prereqService service.PrerequisiteService
	validate      *validator.Validate
	logger        zerolog.Logger
}

// NewPrerequisiteHandler creates a new PrerequisiteHandler
func NewPrerequisiteHandler(prereqService service.PrerequisiteService, validate *validator.Validate, logger zerolog.Logger) *PrerequisiteHandler {
	return &PrerequisiteHandler{prereqService: prereqService, validate: validate, logger: logger}
}

// RegisterRoutes mounts prerequisite routes
func (h *PrerequisiteHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/courses/", authMw(http.HandlerFunc(h.handleCourseScoped)))
	mux.Handle("/prerequisites/stats", authMw(http.HandlerFunc(h.getStats)))
	mux.Handle("/prerequisites/", authMw(http.HandlerFunc(h.handleEdge)))
}

// handleCourseScoped routes /courses/{courseId}/prerequisites[/check|/validate]
func (h *PrerequisiteHandler) handleCourseScoped(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/courses/")
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) < 2 || parts[1] != "prerequisites" {
		http.NotFound(w, r)
		return
	}
	courseID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		http.Error(w, "Invalid course ID", http.StatusBadRequest)
		return
	}

	switch {
	case len(parts) == 2 && r.Method == http.MethodGet:
		h.listPrerequisites(w, r, courseID)
	case len(parts) == 2 && r.Method == http.MethodPost:
		h.createPrerequisite(w, r, courseID)
	case len(parts) == 3 && parts[2] == "check" && r.Method == http.MethodGet:
		h.checkPrerequisites(w, r, courseID)
	case len(parts) == 3 && parts[2] == "validate" && r.Method == http.MethodGet:
		h.validateChain(w, r, courseID)
	default:
		http.NotFound(w, r)
	}
}

// handleEdge routes /prerequisites/{edgeId}
func (h *PrerequisiteHandler) handleEdge(w http.ResponseWriter, r *http.Request) {
	edgeID, err := strconv.ParseInt(strings.TrimPrefix(r.URL.Path, "/prerequisites/"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid prerequisite ID", http.StatusBadRequest)
		return
	}
	switch r.Method {
	case http.MethodPut:
		h.updatePrerequisite(w, r, edgeID)
	case http.MethodDelete:
		h.deletePrerequisite(w, r, edgeID)
	default:
		http.NotFound(w, r)
	}
}

// createPrerequisite godoc
// @Summary Add a prerequisite to a course
// @Description Creates a directed prerequisite edge after validating it would not introduce a cycle.
// @Tags prerequisites
// @Accept json
// @Produce json
// @Param courseId path int true "Course ID"
// @Param prerequisite body dto.PrerequisiteCreateDTO true "Prerequisite creation request"
// @Success 201 {object} dto.PrerequisiteResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 404 {string} string "Course not found"
// @Failure 422 {string} string "Circular dependency detected"
// @Router /courses/{courseId}/prerequisites [post]
func (h *PrerequisiteHandler) createPrerequisite(w http.ResponseWriter, r *http.Request, courseID int64) {
	var req dto.PrerequisiteCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	input := service.CreateEdgeInput{
		CourseID:             courseID,
		PrerequisiteCourseID: req.PrerequisiteCourseID,
		Type:                 model.PrerequisiteType(req.PrerequisiteType),
		RequirementValue:     req.RequirementValue,
		IsMandatory:          req.IsMandatory,
		Order:                req.Order,
		Metadata:             req.Metadata,
	}
	if req.EvaluationMethod != nil {
		input.EvaluationMethod = model.EvaluationMethod(*req.EvaluationMethod)
	}
	if req.Description != nil {
		input.Description = *req.Description
	}

	edge, err := h.prereqService.CreateEdge(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, err, "Failed to create prerequisite")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(dto.NewPrerequisiteResponse(edge))
}

// listPrerequisites godoc
// @Summary List a course's prerequisites
// @Description Returns the course's prerequisite edges in display order.
// @Tags prerequisites
// @Produce json
// @Param courseId path int true "Course ID"
// @Success 200 {array} dto.PrerequisiteResponseDTO
// @Failure 500 {string} string "Failed to list prerequisites"
// @Router /courses/{courseId}/prerequisites [get]
func (h *PrerequisiteHandler) listPrerequisites(w http.ResponseWriter, r *http.Request, courseID int64) {
	edges, err := h.prereqService.ListEdges(r.Context(), courseID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to list prerequisites")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.NewPrerequisiteListResponse(edges))
}

// checkPrerequisites godoc
// @Summary Check a learner's eligibility for a course
// @Description Evaluates every prerequisite edge against the learner's enrollment facts.
// @Tags prerequisites
// @Produce json
// @Param courseId path int true "Course ID"
// @Param user_id query string false "Learner ID, defaults to the authenticated user"
// @Success 200 {object} model.EvaluationResult
// @Failure 401 {string} string "Unauthorized: User ID not found in context"
// @Failure 500 {string} string "Failed to evaluate prerequisites"
// @Router /courses/{courseId}/prerequisites/check [get]
func (h *PrerequisiteHandler) checkPrerequisites(w http.ResponseWriter, r *http.Request, courseID int64) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		ctxUser, ok := r.Context().Value(middleware.UserContextKey).(string)
		if !ok || ctxUser == "" {
			http.Error(w, "Unauthorized: User ID not found in context", http.StatusUnauthorized)
			return
		}
		userID = ctxUser
	}
	result, err := h.prereqService.Evaluate(r.Context(), userID, courseID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to evaluate prerequisites")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// validateChain godoc
// @Summary Audit a course's prerequisite chain
// @Description Flags dangling, unpublished, or cyclic prerequisite references. Read-only.
// @Tags prerequisites
// @Produce json
// @Param courseId path int true "Course ID"
// @Success 200 {object} model.ChainValidation
// @Failure 500 {string} string "Failed to validate prerequisite chain"
// @Router /courses/{courseId}/prerequisites/validate [get]
func (h *PrerequisiteHandler) validateChain(w http.ResponseWriter, r *http.Request, courseID int64) {
	result, err := h.prereqService.ValidateChain(r.Context(), courseID)
	if err != nil {
		h.writeServiceError(w, err, "Failed to validate prerequisite chain")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// updatePrerequisite godoc
// @Summary Update a prerequisite edge
// @Description Partially updates an edge; changing the prerequisite course re-runs cycle validation.
// @Tags prerequisites
// @Accept json
// @Produce json
// @Param prerequisiteId path int true "Prerequisite ID"
// @Param prerequisite body dto.PrerequisiteUpdateDTO true "Prerequisite update request"
// @Success 200 {object} dto.PrerequisiteResponseDTO
// @Failure 400 {string} string "Invalid JSON payload or validation failed"
// @Failure 404 {string} string "Prerequisite not found"
// @Failure 422 {string} string "Circular dependency detected"
// @Router /prerequisites/{prerequisiteId} [put]
func (h *PrerequisiteHandler) updatePrerequisite(w http.ResponseWriter, r *http.Request, edgeID int64) {
	var req dto.PrerequisiteUpdateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	patch := service.UpdateEdgeInput{
		PrerequisiteCourseID: req.PrerequisiteCourseID,
		RequirementValue:     req.RequirementValue,
		IsMandatory:          req.IsMandatory,
		Order:                req.Order,
		Description:          req.Description,
		Metadata:             req.Metadata,
	}
	if req.PrerequisiteType != nil {
		t := model.PrerequisiteType(*req.PrerequisiteType)
		patch.Type = &t
	}
	if req.EvaluationMethod != nil {
		m := model.EvaluationMethod(*req.EvaluationMethod)
		patch.EvaluationMethod = &m
	}

	edge, err := h.prereqService.UpdateEdge(r.Context(), edgeID, patch)
	if err != nil {
		h.writeServiceError(w, err, "Failed to update prerequisite")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dto.NewPrerequisiteResponse(edge))
}

// deletePrerequisite godoc
// @Summary Delete a prerequisite edge
// @Description Removes an edge. No cascading behavior.
// @Tags prerequisites
// @Param prerequisiteId path int true "Prerequisite ID"
// @Success 200 {string} string "Prerequisite deleted"
// @Failure 404 {string} string "Prerequisite not found"
// @Router /prerequisites/{prerequisiteId} [delete]
func (h *PrerequisiteHandler) deletePrerequisite(w http.ResponseWriter, r *http.Request, edgeID int64) {
	if err := h.prereqService.DeleteEdge(r.Context(), edgeID); err != nil {
		h.writeServiceError(w, err, "Failed to delete prerequisite")
		return
	}
	w.WriteHeader(http.StatusOK)
}

// getStats godoc
// @Summary Prerequisite statistics
// @Description Returns aggregate counts over the whole edge store.
// @Tags prerequisites
// @Produce json
// @Success 200 {object} model.PrerequisiteStats
// @Failure 500 {string} string "Failed to compute statistics"
// @Router /prerequisites/stats [get]
func (h *PrerequisiteHandler) getStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	stats, err := h.prereqService.Statistics(r.Context())
	if err != nil {
		h.writeServiceError(w, err, "Failed to compute statistics")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// writeServiceError maps classified service errors to response codes.
func (h *PrerequisiteHandler) writeServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case apperr.IsValidation(err):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case apperr.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.logger.Error().Err(err).Msg(fallback)
		http.Error(w, fallback+": "+err.Error(), http.StatusInternalServerError)
	}
}

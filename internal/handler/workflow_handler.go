package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/literexia/assignment-engine/internal/model"
	"github.com/literexia/assignment-engine/internal/response"
	"github.com/literexia/assignment-engine/internal/service"
	"github.com/literexia/assignment-engine/internal/validator"
	"github.com/literexia/assignment-engine/internal/workflow"
)

// WorkflowHandler exposes the assignment workflow. Every mutating route
// answers with the full updated state so the UI can re-render from it.
type WorkflowHandler struct {
	workflowService *service.WorkflowService
	log             zerolog.Logger
}

func NewWorkflowHandler(workflowService *service.WorkflowService, log zerolog.Logger) *WorkflowHandler {
	return &WorkflowHandler{
		workflowService: workflowService,
		log:             log.With().Str("component", "workflow_handler").Logger(),
	}
}

// Create godoc
// POST /api/v1/workflows
func (h *WorkflowHandler) Create(c *gin.Context) {
	var req model.CreateWorkflowRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	level, _ := model.ParseReadingLevel(req.ReadingLevel)

	st, err := h.workflowService.Create(c.Request.Context(), req.StudentID, req.TeacherID, level)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"workflow": st})
}

// Get godoc
// GET /api/v1/workflows/:id
func (h *WorkflowHandler) Get(c *gin.Context) {
	st, err := h.workflowService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"workflow": st})
}

// Delete godoc
// DELETE /api/v1/workflows/:id
func (h *WorkflowHandler) Delete(c *gin.Context) {
	if err := h.workflowService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "workflow discarded"})
}

// Catalog godoc
// GET /api/v1/workflows/:id/catalog
// The catalog for the workflow's level, with assignment flags taken from
// the progress snapshot captured when the workflow was created.
func (h *WorkflowHandler) Catalog(c *gin.Context) {
	entries, err := h.workflowService.Catalog(c.Request.Context(), c.Param("id"))
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	if entries == nil {
		entries = []model.CatalogEntry{}
	}
	response.Success(c, http.StatusOK, gin.H{"categories": entries})
}

// SetReadingLevel godoc
// PUT /api/v1/workflows/:id/tier
func (h *WorkflowHandler) SetReadingLevel(c *gin.Context) {
	var req model.SetReadingLevelRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	level, _ := model.ParseReadingLevel(req.ReadingLevel)

	st, err := h.workflowService.SetReadingLevel(c.Request.Context(), c.Param("id"), level)
	h.respond(c, st, err)
}

// ToggleCategory godoc
// POST /api/v1/workflows/:id/categories/:category_id/toggle
func (h *WorkflowHandler) ToggleCategory(c *gin.Context) {
	categoryID, err := strconv.Atoi(c.Param("category_id"))
	if err != nil || categoryID <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	st, changed, err := h.workflowService.ToggleCategory(c.Request.Context(), c.Param("id"), categoryID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"workflow": st, "changed": changed})
}

// Advance godoc
// POST /api/v1/workflows/:id/advance
func (h *WorkflowHandler) Advance(c *gin.Context) {
	st, err := h.workflowService.Advance(c.Request.Context(), c.Param("id"))
	h.respond(c, st, err)
}

// Review godoc
// POST /api/v1/workflows/:id/review
func (h *WorkflowHandler) Review(c *gin.Context) {
	st, err := h.workflowService.Review(c.Request.Context(), c.Param("id"))
	h.respond(c, st, err)
}

// Commit godoc
// POST /api/v1/workflows/:id/commit
// A failed submission leaves the workflow in the failed stage with the
// selection intact; calling commit again retries.
func (h *WorkflowHandler) Commit(c *gin.Context) {
	st, result, err := h.workflowService.Commit(c.Request.Context(), c.Param("id"))
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"workflow": st, "result": result})
}

// Back godoc
// POST /api/v1/workflows/:id/back
func (h *WorkflowHandler) Back(c *gin.Context) {
	st, err := h.workflowService.Back(c.Request.Context(), c.Param("id"))
	h.respond(c, st, err)
}

// Restart godoc
// POST /api/v1/workflows/:id/restart
func (h *WorkflowHandler) Restart(c *gin.Context) {
	st, err := h.workflowService.Restart(c.Request.Context(), c.Param("id"))
	h.respond(c, st, err)
}

// Payload godoc
// GET /api/v1/workflows/:id/payload
func (h *WorkflowHandler) Payload(c *gin.Context) {
	payload, notices, err := h.workflowService.PreviewPayload(c.Request.Context(), c.Param("id"))
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payload": payload, "notices": nonNilNotices(notices)})
}

// ToggleQuestion godoc
// POST /api/v1/workflows/:id/questions/toggle
func (h *WorkflowHandler) ToggleQuestion(c *gin.Context) {
	var req model.QuestionTargetRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	st, included, err := h.workflowService.ToggleQuestion(c.Request.Context(), c.Param("id"), req.AssessmentID, req.QuestionID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"workflow": st, "included": included})
}

// InjectQuestion godoc
// POST /api/v1/workflows/:id/questions
func (h *WorkflowHandler) InjectQuestion(c *gin.Context) {
	var req model.InjectQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	st, added, err := h.workflowService.InjectCustomQuestion(c.Request.Context(), c.Param("id"), req.AssessmentID, req.Question)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"workflow": st, "question": added})
}

// SetOverride godoc
// PUT /api/v1/workflows/:id/overrides
func (h *WorkflowHandler) SetOverride(c *gin.Context) {
	var req model.ContentOverrideRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	ref := model.ContentRef{Collection: req.Collection, ContentID: req.ContentID}
	st, err := h.workflowService.SetContentOverride(c.Request.Context(), c.Param("id"), req.AssessmentID, req.QuestionID, ref)
	h.respond(c, st, err)
}

// RandomizeOverride godoc
// POST /api/v1/workflows/:id/overrides/randomize
// "content" is null when the question's pool had nothing to pick from.
func (h *WorkflowHandler) RandomizeOverride(c *gin.Context) {
	var req model.QuestionTargetRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	st, picked, err := h.workflowService.RandomizeContent(c.Request.Context(), c.Param("id"), req.AssessmentID, req.QuestionID)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"workflow": st, "content": picked})
}

func (h *WorkflowHandler) respond(c *gin.Context, st *workflow.State, err error) {
	if err != nil {
		failWithError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"workflow": st})
}

func nonNilNotices(ns []workflow.Notice) []workflow.Notice {
	if ns == nil {
		return []workflow.Notice{}
	}
	return ns
}

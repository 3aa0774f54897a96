package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/literexia/assignment-engine/internal/model"
	"github.com/literexia/assignment-engine/internal/response"
	"github.com/literexia/assignment-engine/internal/service"
	"github.com/literexia/assignment-engine/internal/validator"
)

type CatalogHandler struct {
	catalogService *service.CatalogService
}

func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListCategories godoc
// GET /api/v1/catalog/categories?level=&student_id=
// Categories for a level, annotated and sorted. Backend outages degrade to
// the fallback catalog and are reported in "notices".
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	var q model.CategoryQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	level, _ := model.ParseReadingLevel(q.Level)

	entries, notices := h.catalogService.Catalog(c.Request.Context(), level, q.StudentID)
	if entries == nil {
		entries = []model.CatalogEntry{}
	}

	response.Success(c, http.StatusOK, gin.H{
		"reading_level": level,
		"categories":    entries,
		"notices":       nonNilNotices(notices),
	})
}

// ListAssessments godoc
// GET /api/v1/catalog/assessments?level=&category_id=
func (h *CatalogHandler) ListAssessments(c *gin.Context) {
	var q model.AssessmentQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	level, _ := model.ParseReadingLevel(q.Level)

	assessments := h.catalogService.ListPublishedAssessments(c.Request.Context(), q.CategoryID, level)
	response.Success(c, http.StatusOK, gin.H{"assessments": assessments})
}

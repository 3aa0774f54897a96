package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/literexia/assignment-engine/internal/model"
	"github.com/literexia/assignment-engine/internal/response"
	"github.com/literexia/assignment-engine/internal/validator"
)

const defaultHistoryLimit = 20

// CommitHistory reads the commit audit log.
type CommitHistory interface {
	ListByStudent(ctx context.Context, studentID string, limit int) ([]model.AssignmentAudit, error)
}

type HistoryHandler struct {
	history CommitHistory
	log     zerolog.Logger
}

func NewHistoryHandler(history CommitHistory, log zerolog.Logger) *HistoryHandler {
	return &HistoryHandler{
		history: history,
		log:     log.With().Str("component", "history_handler").Logger(),
	}
}

// ListCommits godoc
// GET /api/v1/students/:student_id/commits?limit=
// Newest first. Commits show up once the audit worker has flushed them.
func (h *HistoryHandler) ListCommits(c *gin.Context) {
	studentID := strings.TrimSpace(c.Param("student_id"))
	if studentID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var q model.CommitHistoryQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	if q.Limit == 0 {
		q.Limit = defaultHistoryLimit
	}

	commits, err := h.history.ListByStudent(c.Request.Context(), studentID, q.Limit)
	if err != nil {
		h.log.Error().Err(err).Str("student_id", studentID).Msg("Commit history query failed")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrServiceUnavailable)
		return
	}
	if commits == nil {
		commits = []model.AssignmentAudit{}
	}
	response.Success(c, http.StatusOK, gin.H{"commits": commits})
}

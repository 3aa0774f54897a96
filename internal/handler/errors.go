package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/literexia/assignment-engine/internal/model"
	"github.com/literexia/assignment-engine/internal/response"
	"github.com/literexia/assignment-engine/internal/service"
	"github.com/literexia/assignment-engine/internal/workflow"
)

// failWithError maps a domain error to its HTTP status and error code.
// Unrecognized errors are logged and reported as internal errors.
func failWithError(c *gin.Context, log zerolog.Logger, err error) {
	var ve *workflow.ValidationError

	switch {
	case errors.As(err, &ve):
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrValidation,
			map[string]string{ve.Field: ve.Reason})
	case errors.Is(err, workflow.ErrValidation):
		response.FailWithDetail(c, http.StatusUnprocessableEntity, response.ErrValidation, err.Error())
	case errors.Is(err, service.ErrStudentRequired):
		response.FailWithFields(c, http.StatusUnprocessableEntity, response.ErrValidation,
			map[string]string{"student_id": "student_id is required"})
	case errors.Is(err, workflow.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrWorkflowNotFound)
	case errors.Is(err, service.ErrCategoryNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrCategoryNotFound)
	case errors.Is(err, workflow.ErrUnknownAssessment):
		response.Fail(c, http.StatusNotFound, response.ErrUnknownAssessment)
	case errors.Is(err, workflow.ErrUnknownQuestion):
		response.Fail(c, http.StatusNotFound, response.ErrUnknownQuestion)
	case errors.Is(err, model.ErrUnknownContentKind):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownContentKind)
	case errors.Is(err, workflow.ErrInvalidTransition):
		response.FailWithDetail(c, http.StatusConflict, response.ErrInvalidTransition, err.Error())
	case errors.Is(err, workflow.ErrSubmission):
		log.Warn().Err(err).Str("request_id", response.RequestID(c)).Msg("Assignment submission failed")
		response.Fail(c, http.StatusBadGateway, response.ErrSubmissionFailed)
	default:
		log.Error().Err(err).Str("request_id", response.RequestID(c)).Msg("Unhandled error")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

package handler_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/literexia/assignment-engine/internal/middleware"
	"github.com/literexia/assignment-engine/internal/model"
	"github.com/literexia/assignment-engine/internal/workflow"
)

func TestWorkflowHandler_FullRound(t *testing.T) {
	h := newHarness(t, nil)
	id := h.createAdvanced(t)
	base := "/api/v1/workflows/" + id

	code, env := h.do(t, http.MethodPost, base+"/questions/toggle", gin.H{"assessment_id": "dec-dev", "question_id": "q2"})
	require.Equal(t, http.StatusOK, code)
	assert.False(t, decodeWorkflow(t, env).Included)

	code, env = h.do(t, http.MethodPut, base+"/overrides", gin.H{
		"assessment_id": "dec-dev", "question_id": "q1", "collection": "words_collection", "content_id": "w2",
	})
	require.Equal(t, http.StatusOK, code)
	st := decodeWorkflow(t, env).Workflow
	assert.Equal(t, "w2", st.ContentOverrides[workflow.QuestionKey("dec-dev", "q1")].ContentID)

	code, _ = h.do(t, http.MethodPost, base+"/review", nil)
	require.Equal(t, http.StatusOK, code)

	code, env = h.do(t, http.MethodPost, base+"/commit", nil)
	require.Equal(t, http.StatusOK, code)
	d := decodeWorkflow(t, env)
	assert.Equal(t, workflow.StageCommitted, d.Workflow.Stage)
	require.NotNil(t, d.Result)
	assert.Equal(t, []string{"asg-stu-1"}, d.Result.AssignmentIDs)
	assert.Empty(t, d.Workflow.SelectedCategories)

	code, env = h.do(t, http.MethodPost, base+"/restart", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, workflow.StageSelectCategories, decodeWorkflow(t, env).Workflow.Stage)
}

func TestWorkflowHandler_CreateValidation(t *testing.T) {
	h := newHarness(t, nil)

	code, env := h.do(t, http.MethodPost, "/api/v1/workflows", gin.H{"reading_level": "Expert"})
	require.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "student_id")
	assert.Contains(t, env.Error.Fields, "reading_level")
}

func TestWorkflowHandler_UnknownWorkflow(t *testing.T) {
	h := newHarness(t, nil)

	code, env := h.do(t, http.MethodGet, "/api/v1/workflows/missing", nil)
	require.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "WORKFLOW_NOT_FOUND", env.Error.Code)

	code, env = h.do(t, http.MethodDelete, "/api/v1/workflows/missing", nil)
	require.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "WORKFLOW_NOT_FOUND", env.Error.Code)
}

func TestWorkflowHandler_AdvanceWithoutCategories(t *testing.T) {
	h := newHarness(t, nil)

	_, env := h.do(t, http.MethodPost, "/api/v1/workflows", gin.H{"student_id": "stu-1", "reading_level": "Developing"})
	id := decodeWorkflow(t, env).Workflow.ID

	code, env := h.do(t, http.MethodPost, "/api/v1/workflows/"+id+"/advance", nil)
	require.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Equal(t, "select at least one category", env.Error.Fields["categories"])
}

func TestWorkflowHandler_InvalidTransition(t *testing.T) {
	h := newHarness(t, nil)

	_, env := h.do(t, http.MethodPost, "/api/v1/workflows", gin.H{"student_id": "stu-1", "reading_level": "Developing"})
	id := decodeWorkflow(t, env).Workflow.ID

	code, env := h.do(t, http.MethodPost, "/api/v1/workflows/"+id+"/commit", nil)
	require.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "INVALID_TRANSITION", env.Error.Code)
}

func TestWorkflowHandler_ToggleCategoryErrors(t *testing.T) {
	h := newHarness(t, nil)

	_, env := h.do(t, http.MethodPost, "/api/v1/workflows", gin.H{"student_id": "stu-1", "reading_level": "Developing"})
	id := decodeWorkflow(t, env).Workflow.ID

	code, env := h.do(t, http.MethodPost, "/api/v1/workflows/"+id+"/categories/abc/toggle", nil)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_ID", env.Error.Code)

	code, env = h.do(t, http.MethodPost, "/api/v1/workflows/"+id+"/categories/99/toggle", nil)
	require.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "CATEGORY_NOT_FOUND", env.Error.Code)
}

func TestWorkflowHandler_UnknownQuestion(t *testing.T) {
	h := newHarness(t, nil)
	id := h.createAdvanced(t)

	code, env := h.do(t, http.MethodPost, "/api/v1/workflows/"+id+"/questions/toggle",
		gin.H{"assessment_id": "dec-dev", "question_id": "nope"})
	require.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "UNKNOWN_QUESTION", env.Error.Code)

	code, env = h.do(t, http.MethodPost, "/api/v1/workflows/"+id+"/questions/toggle",
		gin.H{"assessment_id": "other", "question_id": "q1"})
	require.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "UNKNOWN_ASSESSMENT", env.Error.Code)
}

func TestWorkflowHandler_CommitFailureThenRetry(t *testing.T) {
	h := newHarness(t, nil)
	id := h.createAdvanced(t)
	base := "/api/v1/workflows/" + id

	code, _ := h.do(t, http.MethodPost, base+"/review", nil)
	require.Equal(t, http.StatusOK, code)

	h.setSinkErr(errBackendDown)
	code, env := h.do(t, http.MethodPost, base+"/commit", nil)
	require.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "SUBMISSION_FAILED", env.Error.Code)

	code, env = h.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, code)
	st := decodeWorkflow(t, env).Workflow
	assert.Equal(t, workflow.StageFailed, st.Stage)
	assert.Equal(t, errBackendDown.Error(), st.LastError)
	require.Len(t, st.SelectedCategories, 1)

	h.setSinkErr(nil)
	code, env = h.do(t, http.MethodPost, base+"/commit", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, workflow.StageCommitted, decodeWorkflow(t, env).Workflow.Stage)
}

func TestWorkflowHandler_InjectAndRandomize(t *testing.T) {
	h := newHarness(t, nil)
	id := h.createAdvanced(t)
	base := "/api/v1/workflows/" + id

	code, env := h.do(t, http.MethodPost, base+"/questions", gin.H{
		"assessment_id": "dec-dev",
		"question": model.Question{
			Text:             "Point at the word",
			ContentReference: &model.ContentRef{Collection: "words", ContentID: "w3"},
			Options:          []model.Option{{ID: "a", Text: "cap", IsCorrect: true}},
		},
	})
	require.Equal(t, http.StatusCreated, code)
	st := decodeWorkflow(t, env).Workflow
	require.Len(t, st.QuestionsByAssessment["dec-dev"], 3)

	code, env = h.do(t, http.MethodPost, base+"/questions", gin.H{
		"assessment_id": "dec-dev",
		"question":      model.Question{Text: "  "},
	})
	require.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, env.Error.Fields, "question")

	code, env = h.do(t, http.MethodPost, base+"/overrides/randomize", gin.H{"assessment_id": "dec-dev", "question_id": "q1"})
	require.Equal(t, http.StatusOK, code)
	var d struct {
		Content *model.ContentRef `json:"content"`
	}
	require.NoError(t, decodeJSON(env.Data, &d))
	require.NotNil(t, d.Content)
	assert.Equal(t, "words", d.Content.Collection)
}

func TestWorkflowHandler_PayloadPreview(t *testing.T) {
	h := newHarness(t, nil)
	id := h.createAdvanced(t)

	code, env := h.do(t, http.MethodGet, "/api/v1/workflows/"+id+"/payload", nil)
	require.Equal(t, http.StatusOK, code)

	var d struct {
		Payload model.AssignmentPayload `json:"payload"`
		Notices []workflow.Notice       `json:"notices"`
	}
	require.NoError(t, decodeJSON(env.Data, &d))
	require.Len(t, d.Payload.Assignments, 1)
	assert.Equal(t, []string{"q1", "q2"}, d.Payload.Assignments[0].SelectedQuestionIDs)
	assert.NotNil(t, d.Notices)
}

func TestWorkflowHandler_CommitRateLimited(t *testing.T) {
	limiter := middleware.NewRateLimiter(t.Context(), 1, time.Hour)
	h := newHarness(t, limiter)

	code, _ := h.do(t, http.MethodPost, "/api/v1/workflows/any/commit", nil)
	require.Equal(t, http.StatusNotFound, code)

	code, env := h.do(t, http.MethodPost, "/api/v1/workflows/any/commit", nil)
	require.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", env.Error.Code)
}

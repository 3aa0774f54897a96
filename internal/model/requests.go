package model

// ─── Workflow requests ─────────────────────────────────────────────────

type CreateWorkflowRequest struct {
	StudentID    string `json:"student_id" binding:"required,max=128"`
	TeacherID    string `json:"teacher_id" binding:"omitempty,max=128"`
	ReadingLevel string `json:"reading_level" binding:"required,reading_level"`
}

type SetReadingLevelRequest struct {
	ReadingLevel string `json:"reading_level" binding:"required,reading_level"`
}

type QuestionTargetRequest struct {
	AssessmentID string `json:"assessment_id" binding:"required"`
	QuestionID   string `json:"question_id" binding:"required"`
}

type InjectQuestionRequest struct {
	AssessmentID string   `json:"assessment_id" binding:"required"`
	Question     Question `json:"question" binding:"required"`
}

type ContentOverrideRequest struct {
	AssessmentID string `json:"assessment_id" binding:"required"`
	QuestionID   string `json:"question_id" binding:"required"`
	Collection   string `json:"collection" binding:"required,content_kind"`
	ContentID    string `json:"content_id" binding:"required"`
}

// ─── Catalog and content queries ───────────────────────────────────────

type CategoryQuery struct {
	Level     string `form:"level" binding:"required,reading_level"`
	StudentID string `form:"student_id" binding:"omitempty,max=128"`
}

type AssessmentQuery struct {
	Level      string `form:"level" binding:"required,reading_level"`
	CategoryID *int   `form:"category_id" binding:"omitempty,min=1"`
}

type ContentListQuery struct {
	Query   string `form:"q" binding:"omitempty,max=100"`
	Page    int    `form:"page" binding:"omitempty,min=1,max=100000"`
	PerPage int    `form:"per_page" binding:"omitempty,min=1,max=200"`
}

type ContentResolveQuery struct {
	Collection string `form:"collection" binding:"required,content_kind"`
	ContentID  string `form:"content_id" binding:"required"`
}

type CommitHistoryQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

package model

import "time"

// AssignmentEntry is one category/assessment pair inside an assignment payload.
type AssignmentEntry struct {
	CategoryID          int                   `json:"categoryId"`
	CategoryName        string                `json:"categoryName"`
	AssessmentID        string                `json:"assessmentId"`
	AssessmentTitle     string                `json:"assessmentTitle"`
	Placeholder         bool                  `json:"placeholder,omitempty"`
	SelectedQuestionIDs []string              `json:"selectedQuestionIds"`
	ContentOverrides    map[string]ContentRef `json:"contentOverrides"`
	CustomQuestions     []Question            `json:"customQuestions,omitempty"`
}

// AssignmentPayload is the normalized body submitted when a workflow commits.
type AssignmentPayload struct {
	WorkflowID   string            `json:"workflowId"`
	StudentID    string            `json:"studentId"`
	TeacherID    string            `json:"teacherId,omitempty"`
	ReadingLevel ReadingLevel      `json:"readingLevel"`
	Assignments  []AssignmentEntry `json:"assignments"`
}

// QuestionCount returns the number of included questions across all entries.
func (p *AssignmentPayload) QuestionCount() int {
	n := 0
	for _, a := range p.Assignments {
		n += len(a.SelectedQuestionIDs)
	}
	return n
}

// AssignmentResult is the assignment summary returned by the persistence boundary.
type AssignmentResult struct {
	Success       bool     `json:"success"`
	AssignmentIDs []string `json:"assignmentIds"`
	Message       string   `json:"message,omitempty"`
}

// AssignmentAudit is the record persisted for every successful commit.
type AssignmentAudit struct {
	WorkflowID    string    `json:"workflow_id"`
	StudentID     string    `json:"student_id"`
	TeacherID     string    `json:"teacher_id"`
	ReadingLevel  string    `json:"reading_level"`
	CategoryIDs   []int     `json:"category_ids"`
	AssignmentIDs []string  `json:"assignment_ids"`
	QuestionCount int       `json:"question_count"`
	CommittedAt   time.Time `json:"committed_at"`
}

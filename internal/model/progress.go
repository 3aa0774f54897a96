package model

import "time"

// CategoryProgressStatus is a student's standing in one category.
type CategoryProgressStatus string

const (
	ProgressNotStarted CategoryProgressStatus = "not_started"
	ProgressAssigned   CategoryProgressStatus = "assigned"
	ProgressInProgress CategoryProgressStatus = "in_progress"
	ProgressCompleted  CategoryProgressStatus = "completed"
)

// CategoryProgress is one row of a student's progress report.
type CategoryProgress struct {
	CategoryID   int                    `json:"categoryId" bson:"categoryId"`
	CategoryName string                 `json:"categoryName" bson:"categoryName"`
	Status       CategoryProgressStatus `json:"status" bson:"status"`
	AssessmentID string                 `json:"assessmentId,omitempty" bson:"assessmentId,omitempty"`
	AssignedAt   *time.Time             `json:"assignedAt,omitempty" bson:"assignedAt,omitempty"`
}

// StudentProgress is the per-category completion/assignment status of a student.
type StudentProgress struct {
	StudentID  string             `json:"studentId" bson:"studentId"`
	Categories []CategoryProgress `json:"categories" bson:"categories"`
}

// AssignedCategoryIDs returns the categories that already carry an assignment,
// whatever its completion state.
func (p *StudentProgress) AssignedCategoryIDs() map[int]bool {
	out := make(map[int]bool)
	if p == nil {
		return out
	}
	for _, c := range p.Categories {
		if c.Status != "" && c.Status != ProgressNotStarted {
			out[c.CategoryID] = true
		}
	}
	return out
}

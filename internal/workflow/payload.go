package workflow

import (
	"fmt"
	"strings"

	"github.com/literexia/assignment-engine/internal/model"
)

// EmptyAssessmentPolicy decides what happens at commit time to a selected
// assessment whose questions are all excluded.
type EmptyAssessmentPolicy string

const (
	// EmptyAssessmentDrop leaves the assessment out of the payload and adds a notice.
	EmptyAssessmentDrop EmptyAssessmentPolicy = "drop"
	// EmptyAssessmentReject fails the build with a ValidationError.
	EmptyAssessmentReject EmptyAssessmentPolicy = "reject"
)

// ParseEmptyAssessmentPolicy maps a config value to a policy; anything other
// than "reject" drops.
func ParseEmptyAssessmentPolicy(raw string) EmptyAssessmentPolicy {
	if strings.EqualFold(strings.TrimSpace(raw), string(EmptyAssessmentReject)) {
		return EmptyAssessmentReject
	}
	return EmptyAssessmentDrop
}

// BuildAssignmentPayload emits one entry per selected assessment with its
// included question ids, the overrides of those questions and any injected
// custom questions among them. The state is not modified; notices for
// dropped assessments are returned for the caller to record.
func (s *State) BuildAssignmentPayload(policy EmptyAssessmentPolicy) (*model.AssignmentPayload, []Notice, error) {
	if len(s.SelectedAssessments) == 0 {
		return nil, nil, &ValidationError{Field: "categories", Reason: "no assessments selected"}
	}

	payload := &model.AssignmentPayload{
		WorkflowID:   s.ID,
		StudentID:    s.StudentID,
		TeacherID:    s.TeacherID,
		ReadingLevel: s.Level,
		Assignments:  make([]model.AssignmentEntry, 0, len(s.SelectedAssessments)),
	}
	var notices []Notice

	for _, a := range s.SelectedAssessments {
		ids := s.IncludedQuestionIDs(a.AssessmentID)
		if len(ids) == 0 {
			if policy == EmptyAssessmentReject {
				return nil, nil, &ValidationError{
					Field:  "selectedQuestions",
					Reason: fmt.Sprintf("%s (%s) has no included questions", a.AssessmentTitle, a.CategoryTitle),
				}
			}
			notices = append(notices, Notice{
				Code:    NoticeAssessmentDropped,
				Message: fmt.Sprintf("%s was left out because none of its questions are included", a.CategoryTitle),
			})
			continue
		}

		included := make(map[string]bool, len(ids))
		for _, id := range ids {
			included[id] = true
		}

		overrides := make(map[string]model.ContentRef)
		var custom []model.Question
		for _, q := range s.QuestionsByAssessment[a.AssessmentID] {
			if !included[q.QuestionID] {
				continue
			}
			if ref, ok := s.ContentOverrides[QuestionKey(a.AssessmentID, q.QuestionID)]; ok {
				overrides[q.QuestionID] = ref
			}
			if q.Custom {
				custom = append(custom, q)
			}
		}

		payload.Assignments = append(payload.Assignments, model.AssignmentEntry{
			CategoryID:          a.CategoryID,
			CategoryName:        a.CategoryTitle,
			AssessmentID:        a.AssessmentID,
			AssessmentTitle:     a.AssessmentTitle,
			Placeholder:         a.Placeholder,
			SelectedQuestionIDs: ids,
			ContentOverrides:    overrides,
			CustomQuestions:     custom,
		})
	}

	if len(payload.Assignments) == 0 {
		return nil, notices, &ValidationError{Field: "questions", Reason: "include at least one question"}
	}
	return payload, notices, nil
}

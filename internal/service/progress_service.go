package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/literexia/assignment-engine/internal/workflow"
)

// Service errors
var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrStudentRequired  = errors.New("student id is required")
)

type ProgressService struct {
	source ProgressSource
	log    zerolog.Logger
}

func NewProgressService(source ProgressSource, log zerolog.Logger) *ProgressService {
	return &ProgressService{
		source: source,
		log:    log.With().Str("component", "progress_service").Logger(),
	}
}

// AssignedCategories returns the ids of categories already assigned to the
// student. When progress cannot be read the set is empty and a notice is
// returned; nothing is excluded in that case.
func (s *ProgressService) AssignedCategories(ctx context.Context, studentID string) (map[int]bool, *workflow.Notice) {
	p, err := s.source.StudentProgress(ctx, studentID)
	if err != nil {
		s.log.Warn().Err(err).Str("student_id", studentID).Msg("Progress lookup failed, no categories excluded")
		return map[int]bool{}, &workflow.Notice{
			Code:    workflow.NoticeCatalogUnavailable,
			Message: "student progress could not be loaded; already-assigned categories are not marked",
		}
	}
	return p.AssignedCategoryIDs(), nil
}

package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/literexia/assignment-engine/internal/model"
)

// AssignmentService is the gateway a workflow commits through. It submits
// exactly once per call; retrying is left to the teacher.
type AssignmentService struct {
	sink  AssignmentSink
	audit AuditQueue
	now   func() time.Time
	log   zerolog.Logger
}

// NewAssignmentService creates an AssignmentService. audit may be nil.
func NewAssignmentService(sink AssignmentSink, audit AuditQueue, log zerolog.Logger) *AssignmentService {
	return &AssignmentService{
		sink:  sink,
		audit: audit,
		now:   time.Now,
		log:   log.With().Str("component", "assignment_service").Logger(),
	}
}

// Submit forwards the payload to the sink. Successful commits are queued for
// the audit log; a queue failure is logged and does not fail the commit.
func (s *AssignmentService) Submit(ctx context.Context, payload *model.AssignmentPayload) (*model.AssignmentResult, error) {
	result, err := s.sink.SubmitAssignment(ctx, payload)
	if err != nil {
		return nil, err
	}
	if result == nil || !result.Success {
		return result, nil
	}

	if s.audit != nil {
		if err := s.audit.Enqueue(ctx, auditRecord(payload, result, s.now())); err != nil {
			s.log.Error().Err(err).Str("workflow_id", payload.WorkflowID).Msg("Failed to enqueue assignment audit")
		}
	}
	return result, nil
}

func auditRecord(p *model.AssignmentPayload, r *model.AssignmentResult, at time.Time) model.AssignmentAudit {
	ids := make([]int, 0, len(p.Assignments))
	for _, a := range p.Assignments {
		ids = append(ids, a.CategoryID)
	}
	return model.AssignmentAudit{
		WorkflowID:    p.WorkflowID,
		StudentID:     p.StudentID,
		TeacherID:     p.TeacherID,
		ReadingLevel:  string(p.ReadingLevel),
		CategoryIDs:   ids,
		AssignmentIDs: r.AssignmentIDs,
		QuestionCount: p.QuestionCount(),
		CommittedAt:   at,
	}
}

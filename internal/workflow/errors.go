package workflow

import (
	"errors"
	"fmt"
)

// Domain Errors
var (
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid stage transition")
	ErrSubmission        = errors.New("assignment submission failed")
	ErrUnknownAssessment = errors.New("assessment is not part of this selection")
	ErrUnknownQuestion   = errors.New("question is not part of this selection")
	ErrNotFound          = errors.New("workflow not found")
)

// ValidationError is a stage-entry or input precondition that blocks an
// action. Field names the control the message belongs next to.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is lets callers match any ValidationError with errors.Is(err, ErrValidation).
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalidStage(action string, stage Stage) error {
	return fmt.Errorf("%w: %s is not allowed in stage %s", ErrInvalidTransition, action, stage)
}

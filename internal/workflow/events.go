package workflow

import (
	"time"

	"github.com/literexia/assignment-engine/internal/model"
)

// EventType identifies a workflow event.
type EventType string

const (
	EventStageChanged   EventType = "stage_changed"
	EventSelectionReset EventType = "selection_reset"
	EventCompleted      EventType = "completed"
	EventFailed         EventType = "failed"
)

// Event is broadcast to listeners of a workflow after a transition.
type Event struct {
	Type       EventType               `json:"event"`
	WorkflowID string                  `json:"workflow_id"`
	Stage      Stage                   `json:"stage"`
	Result     *model.AssignmentResult `json:"result,omitempty"`
	Error      string                  `json:"error,omitempty"`
	At         time.Time               `json:"at"`
}

package websocket

import (
	"github.com/literexia/assignment-engine/internal/workflow"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing     Action = "ping"
	ActionSnapshot Action = "snapshot"
)

// RequestEnvelope is the only client message shape; the stream is read-mostly.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError    Event = "error"
	EventPong     Event = "pong"
	EventSnapshot Event = "snapshot"
	EventWorkflow Event = "workflow"
)

// SnapshotResponse carries the full current state, sent on connect and on request.
type SnapshotResponse struct {
	Event Event           `json:"event"`
	State *workflow.State `json:"state"`
}

// WorkflowEventResponse forwards one published workflow event.
type WorkflowEventResponse struct {
	Event   Event          `json:"event"`
	Payload workflow.Event `json:"payload"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

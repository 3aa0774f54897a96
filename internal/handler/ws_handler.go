package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/literexia/assignment-engine/internal/repository"
	"github.com/literexia/assignment-engine/internal/service"
	ws "github.com/literexia/assignment-engine/internal/websocket"
	"github.com/literexia/assignment-engine/internal/workflow"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams workflow events to connected clients.
type WSHandler struct {
	workflowService *service.WorkflowService
	events          *repository.EventBus
	log             zerolog.Logger
	upgrader        websocket.Upgrader
}

func NewWSHandler(workflowService *service.WorkflowService, events *repository.EventBus, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		workflowService: workflowService,
		events:          events,
		log:             log.With().Str("component", "ws_handler").Logger(),
		upgrader:        buildUpgrader(allowedOrigins),
	}
}

// WorkflowEvents godoc
// WS /ws/v1/workflows/:id/events
// Sends a snapshot on connect, then every event published for the workflow.
// Clients may send {"action":"ping"} or {"action":"snapshot"}.
func (h *WSHandler) WorkflowEvents(c *gin.Context) {
	id := c.Param("id")

	// Reject unknown workflows before upgrading so the client gets a JSON error.
	st, err := h.workflowService.Get(c.Request.Context(), id)
	if err != nil {
		failWithError(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("workflow_id", id).Logger()
	wsLog.Debug().Msg("Listener connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := h.events.Subscribe(ctx, id)
	defer sub.Close()

	// gorilla allows one concurrent writer.
	var writeMu sync.Mutex
	write := func(v interface{}) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return ws.WriteTyped(conn, v)
	}

	if err := write(ws.SnapshotResponse{Event: ws.EventSnapshot, State: st}); err != nil {
		return
	}

	go h.readLoop(ctx, cancel, conn, id, write, wsLog)

	ticker := time.NewTicker(ws.PingPeriod)
	defer ticker.Stop()
	msgs := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			wsLog.Debug().Msg("Listener disconnected")
			return

		case <-ticker.C:
			writeMu.Lock()
			err := ws.WritePing(conn)
			writeMu.Unlock()
			if err != nil {
				return
			}

		case msg, ok := <-msgs:
			if !ok {
				return
			}
			var ev workflow.Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				wsLog.Warn().Err(err).Msg("Dropping malformed workflow event")
				continue
			}
			if err := write(ws.WorkflowEventResponse{Event: ws.EventWorkflow, Payload: ev}); err != nil {
				return
			}
		}
	}
}

// readLoop answers client actions and cancels ctx when the peer goes away.
func (h *WSHandler) readLoop(
	ctx context.Context,
	cancel context.CancelFunc,
	conn *websocket.Conn,
	id string,
	write func(v interface{}) error,
	wsLog zerolog.Logger,
) {
	defer cancel()
	ws.PrepareRead(conn)

	for {
		var msg ws.RequestEnvelope
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			}
			return
		}

		switch msg.Action {
		case ws.ActionPing:
			_ = write(ws.PongResponse{Event: ws.EventPong})
		case ws.ActionSnapshot:
			st, err := h.workflowService.Get(ctx, id)
			if err != nil {
				_ = write(ws.ErrorResponse{Event: ws.EventError, Error: "workflow not found or expired"})
				continue
			}
			_ = write(ws.SnapshotResponse{Event: ws.EventSnapshot, State: st})
		default:
			_ = write(ws.ErrorResponse{Event: ws.EventError, Error: "unknown action: " + string(msg.Action)})
		}
	}
}

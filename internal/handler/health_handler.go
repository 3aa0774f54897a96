package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/literexia/assignment-engine/internal/response"
)

// QueueDepth reports how many records wait in a background queue.
type QueueDepth interface {
	Len(ctx context.Context) (int64, error)
}

type HealthHandler struct {
	dataSource string
	auditQueue QueueDepth
}

func NewHealthHandler(dataSource string, auditQueue QueueDepth) *HealthHandler {
	return &HealthHandler{dataSource: dataSource, auditQueue: auditQueue}
}

// Health godoc
// GET /health
// Reports "degraded" when Redis cannot be reached.
func (h *HealthHandler) Health(c *gin.Context) {
	body := gin.H{"status": "ok", "data_source": h.dataSource}

	if h.auditQueue != nil {
		n, err := h.auditQueue.Len(c.Request.Context())
		if err != nil {
			body["status"] = "degraded"
		} else {
			body["audit_backlog"] = n
		}
	}
	response.Success(c, http.StatusOK, body)
}

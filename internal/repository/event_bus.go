package repository

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/literexia/assignment-engine/internal/config"
	"github.com/literexia/assignment-engine/internal/workflow"
)

// EventBus fans workflow events out over Redis PubSub so that every server
// instance can forward them to its WebSocket listeners.
type EventBus struct {
	rdb *redis.Client
	log zerolog.Logger
}

func NewEventBus(rdb *redis.Client, log zerolog.Logger) *EventBus {
	return &EventBus{
		rdb: rdb,
		log: log.With().Str("component", "event_bus").Logger(),
	}
}

// Publish is best-effort; failures are logged only.
func (b *EventBus) Publish(ctx context.Context, ev workflow.Event) {
	raw, err := json.Marshal(ev)
	if err != nil {
		b.log.Error().Err(err).Msg("Failed to encode workflow event")
		return
	}
	if err := b.rdb.Publish(ctx, config.CacheKey.WorkflowEventsChannel(ev.WorkflowID), raw).Err(); err != nil {
		b.log.Warn().Err(err).Str("workflow_id", ev.WorkflowID).Msg("Failed to publish workflow event")
	}
}

// Subscribe listens to one workflow's events. The caller closes the PubSub.
func (b *EventBus) Subscribe(ctx context.Context, workflowID string) *redis.PubSub {
	return b.rdb.Subscribe(ctx, config.CacheKey.WorkflowEventsChannel(workflowID))
}

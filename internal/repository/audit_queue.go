package repository

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/literexia/assignment-engine/internal/config"
	"github.com/literexia/assignment-engine/internal/model"
)

// AuditQueue pushes commit records onto the Redis list drained by the audit worker.
type AuditQueue struct {
	rdb *redis.Client
}

func NewAuditQueue(rdb *redis.Client) *AuditQueue {
	return &AuditQueue{rdb: rdb}
}

func (q *AuditQueue) Enqueue(ctx context.Context, audit model.AssignmentAudit) error {
	raw, err := json.Marshal(audit)
	if err != nil {
		return err
	}
	return q.rdb.RPush(ctx, config.WorkerKey.PersistAssignmentAuditQueue, raw).Err()
}

// Len returns the number of records waiting to be persisted.
func (q *AuditQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, config.WorkerKey.PersistAssignmentAuditQueue).Result()
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/literexia/assignment-engine/internal/config"
	"github.com/literexia/assignment-engine/internal/workflow"
)

// WorkflowStore keeps serialized workflow states in Redis. Every save
// refreshes the TTL, so an idle session expires after ttl.
type WorkflowStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewWorkflowStore(rdb *redis.Client, ttl time.Duration) *WorkflowStore {
	return &WorkflowStore{rdb: rdb, ttl: ttl}
}

func (s *WorkflowStore) Load(ctx context.Context, id string) (*workflow.State, error) {
	raw, err := s.rdb.Get(ctx, config.CacheKey.WorkflowStateKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, workflow.ErrNotFound
		}
		return nil, fmt.Errorf("load workflow: %w", err)
	}

	var st workflow.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("decode workflow: %w", err)
	}
	st.EnsureMaps()
	return &st, nil
}

func (s *WorkflowStore) Save(ctx context.Context, st *workflow.State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode workflow: %w", err)
	}
	if err := s.rdb.Set(ctx, config.CacheKey.WorkflowStateKey(st.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save workflow: %w", err)
	}
	return nil
}

func (s *WorkflowStore) Delete(ctx context.Context, id string) error {
	n, err := s.rdb.Del(ctx, config.CacheKey.WorkflowStateKey(id)).Result()
	if err != nil {
		return fmt.Errorf("delete workflow: %w", err)
	}
	if n == 0 {
		return workflow.ErrNotFound
	}
	return nil
}

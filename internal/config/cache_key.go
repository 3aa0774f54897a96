package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// WorkflowStateKey returns the cache key for a serialized workflow session
func (r *CacheKeyStruct) WorkflowStateKey(workflowID string) string {
	return fmt.Sprintf("workflow:%s:state", workflowID)
}

// WorkflowEventsChannel returns the Redis PubSub channel name for a workflow's events
func (r *CacheKeyStruct) WorkflowEventsChannel(workflowID string) string {
	return fmt.Sprintf("workflow:%s:events", workflowID)
}

// ResolvedContentKey returns the cache key for a resolved content reference
func (r *CacheKeyStruct) ResolvedContentKey(collection, contentID string) string {
	return fmt.Sprintf("content:%s:%s", collection, contentID)
}

var CacheKey = NewCacheKeyStruct()

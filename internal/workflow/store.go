package workflow

import "context"

// Store persists workflow states between actions. Load returns ErrNotFound
// for unknown or expired ids.
type Store interface {
	Load(ctx context.Context, id string) (*State, error)
	Save(ctx context.Context, st *State) error
	Delete(ctx context.Context, id string) error
}

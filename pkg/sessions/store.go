package sessions

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("session not found")

// Store is the external key-value collaborator holding sessions.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Destroy(ctx context.Context, id string) error
}

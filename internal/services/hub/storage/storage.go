package storage

import (
	"context"
	"time"
)

// TagStore answers exact-match lookups for assigned tags.
type TagStore interface {
	TagExists(ctx context.Context, tag string) (bool, error)
}

// Store is a composite interface for tag storage concerns.
type Store interface {
	TagStore
	AssignTag(ctx context.Context, tag string, assignedAt time.Time) error
	Close() error
}

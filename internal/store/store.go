package store

import (
	"context"
	"errors"

	"notifyd/internal/domain"
)

// ErrNotFound indicates an absent deferred-work key.
var ErrNotFound = errors.New("not found")

// Store persists pending deferred work so scheduled retries survive a
// process restart.
// Params: CRUD operations addressed by the stable work key.
// Returns: backend persistence behavior.
type Store interface {
	Put(ctx context.Context, work domain.DeferredWork) error
	Get(ctx context.Context, key string) (domain.DeferredWork, error)
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) ([]domain.DeferredWork, error)
	Close() error
}

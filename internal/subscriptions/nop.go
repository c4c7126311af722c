package subscriptions

import (
	"context"

	"github.com/gridlead/pushgate/internal/errors"
)

// NopStore is used when no subscription store is configured. Deletes succeed
// silently so invalidation stays best-effort; reads report not-found.
type NopStore struct{}

// ErrNotFound is returned when no subscription exists for an endpoint.
var ErrNotFound = errors.Newf("subscription not found").
	Component("subscriptions").
	Category(errors.CategoryDatabase).
	Build()

func (NopStore) Save(ctx context.Context, record *Record) error { return nil }

func (NopStore) GetByEndpoint(ctx context.Context, endpoint string) (*Record, error) {
	return nil, ErrNotFound
}

func (NopStore) List(ctx context.Context, limit, offset int) ([]*Record, error) {
	return nil, nil
}

func (NopStore) DeleteByEndpoint(ctx context.Context, endpoint string) error { return nil }

func (NopStore) Close() error { return nil }

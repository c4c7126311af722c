// Package subscriptions stores Web Push subscriptions and serves the
// dispatcher's invalidation side effect. Two real backends exist: a
// PostgREST-style REST client for deployments where the surrounding
// application owns the rows, and a local SQLite store for self-hosted use.
package subscriptions

import (
	"context"
	"time"
)

// Record is a stored subscription with metadata. Endpoint is unique per
// device/browser installation and is the key for deletion.
type Record struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"index" json:"user_id,omitempty"`
	Endpoint  string    `gorm:"uniqueIndex;size:2048" json:"endpoint"`
	P256dh    string    `json:"p256dh"`
	Auth      string    `json:"auth"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name used by the SQLite backend, matching the
// table the REST backend targets by default.
func (Record) TableName() string {
	return "push_subscriptions"
}

// Store is the subscription store interface. The dispatcher only calls
// DeleteByEndpoint; the other methods back the local subscribe API.
type Store interface {
	// Save stores or updates a subscription keyed by endpoint.
	Save(ctx context.Context, record *Record) error

	// GetByEndpoint retrieves a subscription by its endpoint URL.
	GetByEndpoint(ctx context.Context, endpoint string) (*Record, error)

	// List returns stored subscriptions, newest first.
	List(ctx context.Context, limit, offset int) ([]*Record, error)

	// DeleteByEndpoint removes a subscription by its endpoint URL.
	// Deleting an endpoint that is not stored is not an error.
	DeleteByEndpoint(ctx context.Context, endpoint string) error

	// Close releases the store's resources.
	Close() error
}

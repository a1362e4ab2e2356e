// Package store defines the composite Store interface for all Tandem
// persistence.
//
// Each subsystem defines its own store interface and the aggregate Store
// composes them all, so a backend implements one type and every service
// receives exactly the slice it needs.
package store

import (
	"context"

	"github.com/tandemhq/tandem/audit"
	"github.com/tandemhq/tandem/integration"
	"github.com/tandemhq/tandem/rule"
)

// Store is the aggregate persistence interface.
type Store interface {
	rule.Store
	integration.Store
	integration.CredentialStore
	audit.Store

	// Migrate runs all schema migrations.
	Migrate(ctx context.Context) error

	// Ping checks database connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}

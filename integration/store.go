package integration

import (
	"context"

	"github.com/tandemhq/tandem/id"
)

// Store persists integrations.
type Store interface {
	// CreateIntegration persists a new integration.
	CreateIntegration(ctx context.Context, in *Integration) error

	// GetIntegration returns an integration by ID.
	GetIntegration(ctx context.Context, integrationID id.ID) (*Integration, error)

	// UpdateIntegration persists changes to an existing integration.
	UpdateIntegration(ctx context.Context, in *Integration) error

	// DeleteIntegration removes an integration.
	DeleteIntegration(ctx context.Context, integrationID id.ID) error

	// ListIntegrations returns integrations matching the options, ordered
	// by ascending ID.
	ListIntegrations(ctx context.Context, opts ListOpts) ([]*Integration, error)
}

// ListOpts filters and pages integration listings.
type ListOpts struct {
	// Platform filters by platform when non-empty.
	Platform string

	// Status filters by lifecycle state when non-empty.
	Status Status

	// Limit caps the number of results. 0 means no limit.
	Limit int

	// Offset skips results for pagination.
	Offset int
}

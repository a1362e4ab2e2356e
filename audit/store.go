package audit

import (
	"context"
	"time"

	"github.com/tandemhq/tandem/id"
)

// Store persists audit entries.
type Store interface {
	// PushAudit appends an entry to the trail.
	PushAudit(ctx context.Context, e *Entry) error

	// GetAudit returns an entry by ID.
	GetAudit(ctx context.Context, auditID id.ID) (*Entry, error)

	// ListAudit returns entries matching the options, newest first.
	ListAudit(ctx context.Context, opts ListOpts) ([]*Entry, error)

	// PurgeAudit removes entries dispatched before the cutoff and returns
	// how many were removed.
	PurgeAudit(ctx context.Context, before time.Time) (int64, error)

	// CountAudit returns the total number of entries.
	CountAudit(ctx context.Context) (int64, error)
}

package rule

import (
	"context"
	"time"

	"github.com/tandemhq/tandem/id"
)

// Store persists rules.
type Store interface {
	// CreateRule persists a new rule.
	CreateRule(ctx context.Context, r *Rule) error

	// GetRule returns a rule by ID.
	GetRule(ctx context.Context, ruleID id.ID) (*Rule, error)

	// UpdateRule persists changes to an existing rule.
	UpdateRule(ctx context.Context, r *Rule) error

	// DeleteRule removes a rule.
	DeleteRule(ctx context.Context, ruleID id.ID) error

	// ListRules returns rules matching the options, ordered by ascending ID.
	ListRules(ctx context.Context, opts ListOpts) ([]*Rule, error)

	// RecordExecution increments the rule's execution count, adds the
	// run's action outcome tallies, and stamps the execution time.
	RecordExecution(ctx context.Context, ruleID id.ID, at time.Time, succeeded, failed int) error
}

// ListOpts filters and pages rule listings.
type ListOpts struct {
	// Platform filters by trigger platform when non-empty.
	Platform string

	// EventType filters by trigger event type when non-empty.
	EventType string

	// EnabledOnly restricts results to enabled rules.
	EnabledOnly bool

	// Limit caps the number of results. 0 means no limit.
	Limit int

	// Offset skips results for pagination.
	Offset int
}

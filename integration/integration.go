// Package integration holds connected platform accounts and their health
// accounting.
package integration

import (
	"time"

	"github.com/tandemhq/tandem/id"
	"github.com/tandemhq/tandem/internal/entity"
)

// Status is the lifecycle state of an integration.
type Status string

const (
	// StatusActive means the integration accepts action dispatches.
	StatusActive Status = "active"

	// StatusPaused means an operator suspended the integration. Dispatches
	// targeting it are skipped, not failed.
	StatusPaused Status = "paused"

	// StatusError means consecutive dispatch failures crossed the
	// threshold. Dispatches are skipped until an operator resumes the
	// integration or a connection test succeeds.
	StatusError Status = "error"
)

// Integration is a connected account on an external platform that rule
// actions execute against.
type Integration struct {
	entity.Entity

	// ID is the unique TypeID for this integration.
	ID id.ID `json:"id"`

	// Name is a human-readable label, e.g. "Support Slack".
	Name string `json:"name"`

	// Platform identifies the adapter, e.g. "slack" or "trello".
	Platform string `json:"platform"`

	// Status is the lifecycle state.
	Status Status `json:"status"`

	// Config holds non-secret platform settings such as default channel,
	// board ID, or spreadsheet ID.
	Config map[string]string `json:"config,omitempty"`

	// ConsecutiveFailures counts dispatch failures since the last success.
	ConsecutiveFailures int `json:"consecutive_failures"`

	// SuccessCount is the total number of successful dispatches.
	SuccessCount int64 `json:"success_count"`

	// FailureCount is the total number of failed dispatches.
	FailureCount int64 `json:"failure_count"`

	// LastUsedAt is when an action last executed against this integration,
	// nil if never.
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`

	// LastError is the most recent dispatch error message.
	LastError string `json:"last_error,omitempty"`
}

// Dispatchable reports whether the integration accepts action dispatches.
func (in *Integration) Dispatchable() bool {
	return in.Status == StatusActive
}

// SuccessRate returns the cumulative fraction of successful dispatches, or
// 1 when the integration has never been used.
func (in *Integration) SuccessRate() float64 {
	total := in.SuccessCount + in.FailureCount
	if total == 0 {
		return 1
	}
	return float64(in.SuccessCount) / float64(total)
}
